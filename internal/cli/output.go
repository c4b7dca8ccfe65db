package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pfrederiksen/event-scraper/internal/analytics"
	"github.com/pfrederiksen/event-scraper/internal/event"
	"github.com/pfrederiksen/event-scraper/internal/pipeline"
	"github.com/pfrederiksen/event-scraper/internal/storage"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func parseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
}

// WriteResult writes the outcome of a scrape cycle
func WriteResult(w io.Writer, res *pipeline.Result, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "Scraped %d events for %s (%d new).\n", res.Scraped, res.City, res.Added)
	fmt.Fprintf(w, "Expired %d events.\n", res.Expired)
	fmt.Fprintf(w, "Store now holds %d events.\n", res.Total)
	return nil
}

// WriteEvents writes events as a list. JSON output uses the store's column
// names as keys.
func WriteEvents(w io.Writer, events []*event.Event, format OutputFormat, verbose bool) error {
	if format == FormatJSON {
		records := make([]map[string]string, 0, len(events))
		for _, evt := range events {
			records = append(records, storage.Record(evt))
		}
		return writeJSON(w, records)
	}

	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, evt := range events {
		fmt.Fprintf(w, "%s: %s @ %s (%s) [%s]\n", evt.Date, evt.Name, evt.Venue, evt.City, evt.Status)
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", evt.ID)
			if evt.Category != "" {
				fmt.Fprintf(w, "     Category: %s\n", evt.Category)
			}
			fmt.Fprintf(w, "     Source: %s\n", evt.Source)
			fmt.Fprintf(w, "     URL: %s\n", evt.URL)
			fmt.Fprintf(w, "     Last Updated: %s\n", evt.LastUpdated.Format(storage.TimestampFormat))
		}
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", len(events))
	return nil
}

// WriteSummary writes analytics counts
func WriteSummary(w io.Writer, s *analytics.Summary, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, s)
	}

	fmt.Fprintf(w, "Total events:   %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Active events:  %d\n", s.ActiveEvents)
	fmt.Fprintf(w, "Expired events: %d\n", s.ExpiredEvents)
	writeCounts(w, "Active by city", s.ByCity)
	writeCounts(w, "All by source", s.BySource)
	writeCounts(w, "Active by category", s.ByCategory)
	return nil
}

// writeCounts writes a titled breakdown, largest count first
func writeCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(w, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-20s %d\n", k, counts[k])
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
