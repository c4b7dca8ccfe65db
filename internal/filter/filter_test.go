package filter

import (
	"testing"
	"time"

	"github.com/pfrederiksen/event-scraper/internal/event"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func testEvents() []*event.Event {
	return []*event.Event{
		{ID: "1", Name: "Comedy Night", Date: "2026-03-13", City: "Mumbai", Source: "District", Status: event.StatusActive},
		{ID: "2", Name: "Jazz Evening", Date: "2026-04-20", City: "mumbai", Source: "District", Status: event.StatusExpired},
		{ID: "3", Name: "Book Fair", Date: "TBA", City: "Pune", Source: "Other", Status: event.StatusActive},
		{ID: "4", Name: "Art Walk", Date: "2026-05-02", City: "Navi Mumbai", Source: "district", Status: event.StatusActive},
	}
}

func TestFilter_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"city", Filter{City: "Mumbai"}, false},
		{"status", Filter{Status: "Active"}, false},
		{"date from", Filter{DateFrom: timePtr(time.Now())}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantIDs []string
	}{
		{"empty filter matches all", Filter{}, []string{"1", "2", "3", "4"}},
		{"city is exact but case-insensitive", Filter{City: "MUMBAI"}, []string{"1", "2"}},
		{"status is exact", Filter{Status: "Active"}, []string{"1", "3", "4"}},
		{"status is case-sensitive", Filter{Status: "active"}, []string{}},
		{"source is case-insensitive", Filter{Source: "District"}, []string{"1", "2", "4"}},
		{"combined", Filter{City: "mumbai", Status: "Active"}, []string{"1"}},
		{
			"date range keeps undated events",
			Filter{
				DateFrom: timePtr(time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local)),
				DateTo:   timePtr(time.Date(2026, 4, 30, 0, 0, 0, 0, time.Local)),
			},
			[]string{"2", "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(testEvents())
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Apply() returned %d events, want %d", len(got), len(tt.wantIDs))
			}
			for i, evt := range got {
				if evt.ID != tt.wantIDs[i] {
					t.Errorf("event %d: got ID %s, want %s", i, evt.ID, tt.wantIDs[i])
				}
			}
		})
	}
}
