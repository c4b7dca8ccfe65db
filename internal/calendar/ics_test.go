package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/event-scraper/internal/event"
)

func TestGenerateICS(t *testing.T) {
	evt := event.NewEvent("Comedy Night", "2026-03-13", "The Habitat", "Mumbai", "Comedy",
		"https://www.district.in/events/comedy-night", "District")

	ics, err := GenerateICS([]*event.Event{evt}, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GenerateICS failed: %v", err)
	}

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + productID,
		"BEGIN:VEVENT",
		"UID:" + evt.ID + "@event-scraper",
		"DTSTAMP:20260301T000000Z",
		"DTSTART;VALUE=DATE:20260313",
		"DTEND;VALUE=DATE:20260314",
		"SUMMARY:Comedy Night",
		"LOCATION:The Habitat\\, Mumbai", // Comma is escaped
		"CATEGORIES:Comedy",
		"URL:https://www.district.in/events/comedy-night",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	for _, field := range requiredFields {
		if !strings.Contains(ics, field) {
			t.Errorf("ICS missing required field: %s", field)
		}
	}

	if !strings.Contains(ics, "\r\n") {
		t.Error("ICS should use \\r\\n line endings")
	}
}

func TestGenerateICS_TimedEvent(t *testing.T) {
	evt := event.NewEvent("Jazz Evening", "2026-11-14T20:00:00+05:30", "NCPA", "Mumbai", "", "https://x/events/jazz", "District")

	ics, err := GenerateICS([]*event.Event{evt}, time.Now())
	if err != nil {
		t.Fatalf("GenerateICS failed: %v", err)
	}

	if !strings.Contains(ics, "DTSTART:20261114T143000Z") {
		t.Errorf("expected UTC start time, got:\n%s", ics)
	}
	if !strings.Contains(ics, "DTEND:20261114T163000Z") {
		t.Errorf("expected end two hours later, got:\n%s", ics)
	}
	if strings.Contains(ics, "CATEGORIES") {
		t.Error("empty category should be omitted")
	}
}

func TestFeed_SkipsExpiredAndUndated(t *testing.T) {
	active := event.NewEvent("Show", "2026-03-13", "Hall", "Pune", "", "https://x/events/a", "District")
	expired := event.NewEvent("Old Show", "2020-01-01", "Hall", "Pune", "", "https://x/events/b", "District")
	expired.Status = event.StatusExpired
	undated := event.NewEvent("Mystery", "TBA", "Hall", "Pune", "", "https://x/events/c", "District")

	cal := Feed([]*event.Event{active, expired, undated}, time.Now())

	if len(cal.Children) != 1 {
		t.Fatalf("expected 1 calendar entry, got %d", len(cal.Children))
	}
	uid, err := cal.Children[0].Props.Text("UID")
	if err != nil {
		t.Fatalf("reading UID: %v", err)
	}
	if uid != active.ID+"@event-scraper" {
		t.Errorf("unexpected UID %q", uid)
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		venue, city, want string
	}{
		{"The Habitat", "Mumbai", "The Habitat, Mumbai"},
		{"Jio World Garden, BKC, Mumbai", "Mumbai", "Jio World Garden, BKC, Mumbai"},
		{"NCPA", "", "NCPA"},
	}
	for _, tt := range tests {
		evt := &event.Event{Venue: tt.venue, City: tt.city}
		if got := location(evt); got != tt.want {
			t.Errorf("location(%q, %q) = %q, want %q", tt.venue, tt.city, got, tt.want)
		}
	}
}
