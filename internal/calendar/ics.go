// Package calendar renders stored events as an iCalendar feed.
package calendar

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/pfrederiksen/event-scraper/internal/event"
)

const (
	productID = "-//event-scraper//District events//EN"
	uidDomain = "event-scraper"

	// Events with a start time get a fixed length
	defaultDuration = 2 * time.Hour
)

// Feed builds a calendar of the Active events whose date can be parsed.
// Dates without a time of day become all-day entries.
func Feed(events []*event.Event, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	for _, evt := range events {
		if !evt.IsActive() {
			continue
		}
		start := event.ParseDate(evt.Date)
		if start.IsZero() {
			continue
		}
		cal.Children = append(cal.Children, toVEvent(evt, start, now))
	}
	return cal
}

func toVEvent(evt *event.Event, start, now time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, fmt.Sprintf("%s@%s", evt.ID, uidDomain))
	ve.Props.SetText(ical.PropSummary, evt.Name)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())

	if isMidnight(start) {
		ve.Props.SetDate(ical.PropDateTimeStart, start)
		ve.Props.SetDate(ical.PropDateTimeEnd, start.AddDate(0, 0, 1))
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(defaultDuration).UTC())
	}

	ve.Props.SetText(ical.PropLocation, location(evt))
	ve.Props.SetText(ical.PropDescription, description(evt))
	if evt.Category != "" {
		ve.Props.SetText(ical.PropCategories, evt.Category)
	}
	if u, err := url.Parse(evt.URL); err == nil && u.Scheme != "" {
		ve.Props.SetURI(ical.PropURL, u)
	}
	ve.Props.SetText(ical.PropStatus, "CONFIRMED")
	return ve
}

// Write encodes cal to w
func Write(w io.Writer, cal *ical.Calendar) error {
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

// GenerateICS returns the feed for events as an .ics document
func GenerateICS(events []*event.Event, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, Feed(events, now)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func location(evt *event.Event) string {
	if evt.City == "" || strings.Contains(evt.Venue, evt.City) {
		return evt.Venue
	}
	return evt.Venue + ", " + evt.City
}

func description(evt *event.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", evt.Date)
	if evt.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", evt.Source)
	}
	b.WriteString(evt.URL)
	return b.String()
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}
