package storage

import (
	"strings"
	"time"

	"github.com/pfrederiksen/event-scraper/internal/event"
	"github.com/pfrederiksen/event-scraper/internal/logger"
)

// Headers is the column contract shared by every backend
var Headers = []string{
	"Event ID",
	"Event Name",
	"Date",
	"Venue",
	"City",
	"Category",
	"URL",
	"Source",
	"Status",
	"Last Updated",
}

// TimestampFormat is the layout of the Last Updated column
const TimestampFormat = "2006-01-02 15:04:05"

// legacyStatusUpdated is an old status value treated as Active
const legacyStatusUpdated = "Updated"

// EncodeRow returns the cells of evt in Headers order
func EncodeRow(evt *event.Event) []string {
	return []string{
		evt.ID,
		evt.Name,
		evt.Date,
		evt.Venue,
		evt.City,
		evt.Category,
		evt.URL,
		evt.Source,
		string(NormalizeStatus(string(evt.Status))),
		evt.LastUpdated.Format(TimestampFormat),
	}
}

// Record returns evt keyed by column name
func Record(evt *event.Event) map[string]string {
	cells := EncodeRow(evt)
	record := make(map[string]string, len(cells))
	for i, name := range Headers {
		record[name] = cells[i]
	}
	return record
}

// EncodeRows returns the header row followed by one row per event
func EncodeRows(events []*event.Event) [][]string {
	rows := make([][]string, 0, len(events)+1)
	rows = append(rows, append([]string(nil), Headers...))
	for _, evt := range events {
		rows = append(rows, EncodeRow(evt))
	}
	return rows
}

// DecodeRows turns a header row plus data rows into events. Columns are
// matched by header name so their order doesn't matter. Missing cells read
// as "", blank rows are skipped, a blank Event ID is recomputed and an
// unreadable Last Updated becomes the load time.
func DecodeRows(rows [][]string) []*event.Event {
	if len(rows) == 0 {
		return []*event.Event{}
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.TrimSpace(name)] = i
	}

	now := time.Now()
	events := make([]*event.Event, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlankRow(row) {
			logger.Debug("Skipping blank row", logger.Fields{"row": n + 2})
			continue
		}

		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		evt := &event.Event{
			ID:          cell("Event ID"),
			Name:        cell("Event Name"),
			Date:        cell("Date"),
			Venue:       cell("Venue"),
			City:        cell("City"),
			Category:    cell("Category"),
			URL:         cell("URL"),
			Source:      cell("Source"),
			Status:      NormalizeStatus(cell("Status")),
			LastUpdated: parseTimestamp(cell("Last Updated"), now),
		}
		evt.EnsureID()
		events = append(events, evt)
	}
	return events
}

// NormalizeStatus maps a stored status onto the two lifecycle states.
// "Expired" stays Expired; "Updated", blank and unknown values become Active.
func NormalizeStatus(s string) event.Status {
	switch strings.TrimSpace(s) {
	case string(event.StatusExpired):
		return event.StatusExpired
	case string(event.StatusActive), legacyStatusUpdated, "":
		return event.StatusActive
	default:
		logger.Warn("Unknown status, treating as Active", logger.Fields{"status": s})
		return event.StatusActive
	}
}

func parseTimestamp(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if t, err := time.ParseInLocation(TimestampFormat, s, time.Local); err == nil {
		return t
	}
	if t := event.ParseDate(s); !t.IsZero() {
		return t
	}
	return fallback
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
