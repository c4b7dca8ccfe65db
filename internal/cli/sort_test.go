package cli

import (
	"testing"

	"github.com/pfrederiksen/event-scraper/internal/event"
)

func names(events []*event.Event) []string {
	out := make([]string, len(events))
	for i, evt := range events {
		out[i] = evt.Name
	}
	return out
}

func TestSortEvents(t *testing.T) {
	build := func() []*event.Event {
		return []*event.Event{
			{Name: "Zumba Party", Date: "2026-05-01", City: "Pune"},
			{Name: "comedy Night", Date: "TBA", City: "Mumbai"},
			{Name: "Art Walk", Date: "2026-03-01", City: "Mumbai"},
			{Name: "Book Fair", Date: "2026-04-01", City: "delhi"},
		}
	}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortNone, []string{"Zumba Party", "comedy Night", "Art Walk", "Book Fair"}},
		{SortByDate, []string{"Art Walk", "Book Fair", "Zumba Party", "comedy Night"}},
		{SortByCity, []string{"Book Fair", "Art Walk", "comedy Night", "Zumba Party"}},
		{SortByName, []string{"Art Walk", "Book Fair", "comedy Night", "Zumba Party"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			events := build()
			sortEvents(events, tt.order)
			got := names(events)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("sortEvents(%q) = %v, want %v", tt.order, got, tt.want)
				}
			}
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	for _, valid := range []string{"", "date", "CITY", "name"} {
		if _, err := parseSortOrder(valid); err != nil {
			t.Errorf("parseSortOrder(%q) returned error: %v", valid, err)
		}
	}
	if _, err := parseSortOrder("state"); err == nil {
		t.Error("expected error for unknown sort order")
	}
}
