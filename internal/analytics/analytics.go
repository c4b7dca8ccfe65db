// Package analytics computes read-side aggregates over the persisted event set.
package analytics

import "github.com/pfrederiksen/event-scraper/internal/event"

// DefaultCategory replaces an empty category in the category breakdown
const DefaultCategory = "General"

// Summary holds simple counts over a set of events
type Summary struct {
	TotalEvents   int            `json:"total_events"`
	ActiveEvents  int            `json:"active_events"`
	ExpiredEvents int            `json:"expired_events"`
	ByCity        map[string]int `json:"by_city"`     // active only
	BySource      map[string]int `json:"by_source"`   // all records
	ByCategory    map[string]int `json:"by_category"` // active only
}

// Summarize counts events by status, city, source and category.
// It does not modify the events.
func Summarize(events []*event.Event) *Summary {
	s := &Summary{
		TotalEvents: len(events),
		ByCity:      make(map[string]int),
		BySource:    make(map[string]int),
		ByCategory:  make(map[string]int),
	}

	for _, evt := range events {
		s.BySource[evt.Source]++

		switch evt.Status {
		case event.StatusExpired:
			s.ExpiredEvents++
		case event.StatusActive:
			s.ActiveEvents++
			s.ByCity[evt.City]++

			category := evt.Category
			if category == "" {
				category = DefaultCategory
			}
			s.ByCategory[category]++
		}
	}

	return s
}
