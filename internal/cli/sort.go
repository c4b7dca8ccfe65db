package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/event-scraper/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone   SortOrder = ""
	SortByDate SortOrder = "date"
	SortByCity SortOrder = "city"
	SortByName SortOrder = "name"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(s)); o {
	case SortNone, SortByDate, SortByCity, SortByName:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'city' or 'name')", s)
	}
}

// sortEvents sorts a slice of events based on the specified sort order.
// SortNone keeps the stored order.
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByCity:
		sort.SliceStable(events, func(i, j int) bool {
			ci, cj := strings.ToLower(events[i].City), strings.ToLower(events[j].City)
			if ci != cj {
				return ci < cj
			}
			// If cities are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByName:
		sort.SliceStable(events, func(i, j int) bool {
			ni, nj := strings.ToLower(events[i].Name), strings.ToLower(events[j].Name)
			if ni != nj {
				return ni < nj
			}
			// If names are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate compares two events by their date
// Returns true if event i should come before event j
func compareByDate(i, j *event.Event) bool {
	dateI := event.ParseDate(i.Date)
	dateJ := event.ParseDate(j.Date)

	// If both dates are valid, compare them
	if !dateI.IsZero() && !dateJ.IsZero() {
		return dateI.Before(dateJ)
	}

	// If only one date is valid, put the valid one first
	if !dateI.IsZero() {
		return true
	}
	if !dateJ.IsZero() {
		return false
	}

	// If neither has a valid date, sort by city then name
	if i.City != j.City {
		return i.City < j.City
	}
	return strings.ToLower(i.Name) < strings.ToLower(j.Name)
}
