// Package filter selects stored events by city, status, source and date.
//
// Example usage:
//
//	// Active events in Mumbai (city and source match case-insensitively)
//	f := filter.Filter{City: "mumbai", Status: "Active"}
//	matching := f.Apply(events)
package filter

import (
	"strings"
	"time"

	"github.com/pfrederiksen/event-scraper/internal/event"
)

// Filter represents event filtering criteria. Zero-valued fields match every
// event.
type Filter struct {
	City   string `json:"city,omitempty"`   // case-insensitive exact match
	Status string `json:"status,omitempty"` // exact match
	Source string `json:"source,omitempty"` // case-insensitive exact match

	// Date range filtering, inclusive. Events whose date cannot be parsed
	// are not excluded by the range.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

// IsEmpty checks if the filter has any active criteria.
// Returns true if the filter would match all events.
func (f Filter) IsEmpty() bool {
	return f.City == "" &&
		f.Status == "" &&
		f.Source == "" &&
		f.DateFrom == nil &&
		f.DateTo == nil
}

// Matches checks if an event matches all active filter criteria
func (f Filter) Matches(evt *event.Event) bool {
	if f.City != "" && !strings.EqualFold(evt.City, f.City) {
		return false
	}
	if f.Status != "" && string(evt.Status) != f.Status {
		return false
	}
	if f.Source != "" && !strings.EqualFold(evt.Source, f.Source) {
		return false
	}

	if f.DateFrom == nil && f.DateTo == nil {
		return true
	}

	eventDate := event.ParseDate(evt.Date)
	if eventDate.IsZero() {
		return true
	}
	if f.DateFrom != nil && eventDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && eventDate.After(*f.DateTo) {
		return false
	}
	return true
}

// Apply returns the events matching every criterion, in their original order.
// The input slice is never modified.
func (f Filter) Apply(events []*event.Event) []*event.Event {
	filtered := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}
