package event

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// fallbackLayouts are tried when the lenient parser gives up
var fallbackLayouts = []string{
	"Jan 02 2006",
	"Jan 2 2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Mon, 02 Jan 2006",
	"Mon, 2 Jan 2006",
	"2006-01-02 15:04",
	"2 Jan 2006 3:04 PM",
	"2 Jan 2006 3 PM",
	"Jan 2 2006 3:04 PM",
	"Jan 2 2006 3 PM",
	"2 January 2006 3:04 PM",
	"January 2 2006 3:04 PM",
}

// noYearLayouts cover listing dates such as "Jan 24" or "Sat 20 Dec | 7 PM".
// They are matched against the cleaned text with the weekday removed.
var noYearLayouts = []string{
	"Jan 2",
	"2 Jan",
	"January 2",
	"2 January",
	"Jan 2 3:04 PM",
	"2 Jan 3:04 PM",
	"Jan 2 3 PM",
	"2 Jan 3 PM",
	"Jan 2 15:04",
	"2 Jan 15:04",
}

var yearPattern = regexp.MustCompile(`\b\d{4}\b`)

var weekdays = map[string]bool{
	"mon": true, "tue": true, "tues": true, "wed": true, "thu": true, "thur": true, "thurs": true,
	"fri": true, "sat": true, "sun": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// ParseDate attempts to parse an event Date into a time.Time.
// Strings without a zone are read in local time and strings without a year
// are placed in the current year.
// Returns time.Time{} (zero value) if parsing fails, e.g. for "TBA".
func ParseDate(dateText string) time.Time {
	return parseDate(dateText, time.Now())
}

func parseDate(dateText string, now time.Time) time.Time {
	dateText = strings.TrimSpace(dateText)
	if dateText == "" {
		return time.Time{}
	}

	cleaned := cleanDateText(dateText)
	hasYear := yearPattern.MatchString(dateText)

	if !hasYear {
		for _, layout := range noYearLayouts {
			if t, err := time.ParseInLocation(layout, cleaned, time.Local); err == nil {
				return withYear(t, now.Year())
			}
		}
	}

	if t, err := dateparse.ParseIn(dateText, time.Local); err == nil {
		if t.Year() == 0 {
			return withYear(t, now.Year())
		}
		return t
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, dateText, time.Local); err == nil {
			return t
		}
		if t, err := time.ParseInLocation(layout, cleaned, time.Local); err == nil {
			return t
		}
	}

	// Could not parse, return zero time
	return time.Time{}
}

// cleanDateText drops separators and a leading weekday:
// "Sun, 20 Dec 2026, 7:00 PM" becomes "20 Dec 2026 7:00 PM".
func cleanDateText(dateText string) string {
	fields := strings.Fields(strings.NewReplacer("|", " ", ",", " ").Replace(dateText))
	if len(fields) > 1 && weekdays[strings.ToLower(strings.TrimSuffix(fields[0], "."))] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

func withYear(t time.Time, year int) time.Time {
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

// IsPastEvent checks if an event's date is earlier than now plus offsetDays.
// A date without a year is read in now's year.
// Returns false if the date cannot be parsed (safer default).
func (e *Event) IsPastEvent(now time.Time, offsetDays int) bool {
	parsed := parseDate(e.Date, now)
	if parsed.IsZero() {
		return false // Can't determine, never expire
	}
	return parsed.Before(now.AddDate(0, 0, offsetDays))
}
