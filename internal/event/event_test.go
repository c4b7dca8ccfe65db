package event

import (
	"errors"
	"testing"
)

func TestGenerateID(t *testing.T) {
	base := GenerateID("Foo", "2024-01-01", "Bar", "Mumbai")

	if got := GenerateID("Foo", "2024-01-01", "Bar", "Mumbai"); got != base {
		t.Errorf("GenerateID should be deterministic, got %s and %s", base, got)
	}

	if len(base) != 12 {
		t.Errorf("expected ID length of 12, got %d", len(base))
	}

	variants := []struct {
		name                     string
		evName, date, venue, city string
	}{
		{"different name", "Foo2", "2024-01-01", "Bar", "Mumbai"},
		{"different date", "Foo", "2024-01-02", "Bar", "Mumbai"},
		{"different venue", "Foo", "2024-01-01", "Baz", "Mumbai"},
		{"different city", "Foo", "2024-01-01", "Bar", "Pune"},
		{"case sensitive", "foo", "2024-01-01", "Bar", "Mumbai"},
		{"whitespace sensitive", "Foo ", "2024-01-01", "Bar", "Mumbai"},
	}

	seen := map[string]string{base: "base"}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			id := GenerateID(v.evName, v.date, v.venue, v.city)
			if prev, ok := seen[id]; ok {
				t.Errorf("ID %s collides with %s", id, prev)
			}
			seen[id] = v.name
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent("Comedy Night", "2026-03-01", "The Hall", "Mumbai", "Comedy", "https://www.district.in/events/comedy-night", "District")

	if evt.ID != GenerateID("Comedy Night", "2026-03-01", "The Hall", "Mumbai") {
		t.Errorf("expected ID to be derived from identity fields, got %q", evt.ID)
	}

	if evt.Status != StatusActive {
		t.Errorf("expected status Active, got %q", evt.Status)
	}

	if evt.LastUpdated.IsZero() {
		t.Error("expected LastUpdated to be set")
	}
}

func TestEnsureID(t *testing.T) {
	evt := &Event{ID: "stored-id", Name: "A", Date: "B", Venue: "C", City: "D"}
	evt.EnsureID()
	if evt.ID != "stored-id" {
		t.Errorf("EnsureID() overwrote a stored ID: %q", evt.ID)
	}

	evt.ID = ""
	evt.EnsureID()
	if evt.ID != GenerateID("A", "B", "C", "D") {
		t.Errorf("EnsureID() = %q, want computed ID", evt.ID)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Event {
		return NewEvent("Show", "TBA", "Venue", "Mumbai", "General", "https://example.com/events/show", "District")
	}

	tests := []struct {
		name      string
		mutate    func(*Event)
		wantField string
	}{
		{name: "valid event", mutate: func(*Event) {}},
		{name: "missing name", mutate: func(e *Event) { e.Name = "" }, wantField: "event_name"},
		{name: "missing date", mutate: func(e *Event) { e.Date = "" }, wantField: "date"},
		{name: "missing venue", mutate: func(e *Event) { e.Venue = "" }, wantField: "venue"},
		{name: "missing city", mutate: func(e *Event) { e.City = "" }, wantField: "city"},
		{name: "missing url", mutate: func(e *Event) { e.URL = "" }, wantField: "url"},
		{name: "empty category allowed", mutate: func(e *Event) { e.Category = "" }},
		{name: "first missing field reported", mutate: func(e *Event) { e.Venue = ""; e.URL = "" }, wantField: "venue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := valid()
			tt.mutate(evt)

			err := evt.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Validate() field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}
