package scraper

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/event-scraper/internal/event"
)

// Placeholders used when a page doesn't provide a field
const (
	UnknownEventName = "Unknown Event"
	UnknownValue     = "TBA"
	DefaultCategory  = "General"
)

// Page text that is never taken as a locality during the text scan
var rejectedTextLocalities = map[string]bool{"india": true, "tba": true, "free": true}

// DetailPage is everything known about a detail page before extraction
type DetailPage struct {
	URL           string
	Body          []byte
	Hint          string // venue/city hint from link discovery
	RequestedCity string // city the scrape was started for
	Source        string // platform name
}

// jsonLDEvent holds the fields read from a schema.org Event object
type jsonLDEvent struct {
	name     string
	date     string
	category string
	venue    string
	locality string
}

// ExtractEvent builds a best-effort event from a detail page. It does not
// validate the result; callers run event.Validate before keeping it.
func ExtractEvent(page DetailPage) (*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, &ParseError{URL: page.URL, Err: err}
	}

	meta := findJSONLDEvent(doc)

	name := firstNonEmpty(meta.name, joinedText(doc.Find("h1").First(), ""), UnknownEventName)
	date := firstNonEmpty(meta.date, metaContent(doc, "event:start_date"), UnknownValue)
	venue := firstNonEmpty(meta.venue, metaContent(doc, "event:location"), UnknownValue)
	category := firstNonEmpty(meta.category, DefaultCategory)

	city := resolveCity(doc, page, meta.locality, venue)

	return event.NewEvent(name, date, venue, city, category, page.URL, page.Source), nil
}

// resolveCity layers the available signals: the link hint (or the requested
// city) as the initial guess, the JSON-LD locality over that, then the venue
// string and finally the page text while the guess is still the requested city
func resolveCity(doc *goquery.Document, page DetailPage, locality, venue string) string {
	city := firstNonEmpty(locality, page.Hint, page.RequestedCity)

	if city == page.RequestedCity && venue != UnknownValue && strings.Contains(venue, ",") {
		if parsed := CityFromVenueText(venue); parsed != "" {
			city = parsed
		}
	}

	if city == page.RequestedCity {
		if parsed := cityFromPageText(doc); parsed != "" {
			city = parsed
		}
	}

	return city
}

// cityFromPageText returns the first short comma-separated text block in
// document order that parses to a plausible locality
func cityFromPageText(doc *goquery.Document) string {
	found := ""
	doc.Find("p, div, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := joinedText(s, "")
		n := utf8.RuneCountInString(text)
		if !strings.Contains(text, ",") || n <= 8 || n >= 70 {
			return true
		}
		parsed := CityFromVenueText(text)
		if parsed == "" || rejectedTextLocalities[strings.ToLower(parsed)] {
			return true
		}
		found = parsed
		return false
	})
	return found
}

// findJSONLDEvent scans JSON-LD blocks in order and returns the fields of the
// first object typed "Event". Blocks that fail to parse are skipped.
func findJSONLDEvent(doc *goquery.Document) jsonLDEvent {
	var result jsonLDEvent
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		var data interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return true
		}

		for _, item := range jsonLDItems(data) {
			if !isEventType(item["@type"]) {
				continue
			}
			result = readJSONLDEvent(item)
			return false
		}
		return true
	})
	return result
}

// jsonLDItems flattens a JSON-LD payload (object, array or @graph) into objects
func jsonLDItems(data interface{}) []map[string]interface{} {
	var items []map[string]interface{}
	switch v := data.(type) {
	case []interface{}:
		for _, elem := range v {
			if obj, ok := elem.(map[string]interface{}); ok {
				items = append(items, obj)
			}
		}
	case map[string]interface{}:
		items = append(items, v)
		if graph, ok := v["@graph"].([]interface{}); ok {
			items = append(items, jsonLDItems(graph)...)
		}
	}
	return items
}

func isEventType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return v == "Event"
	case []interface{}:
		for _, elem := range v {
			if s, ok := elem.(string); ok && s == "Event" {
				return true
			}
		}
	}
	return false
}

func readJSONLDEvent(item map[string]interface{}) jsonLDEvent {
	evt := jsonLDEvent{
		name:     stringValue(item["name"]),
		date:     stringValue(item["startDate"]),
		category: firstNonEmpty(stringValue(item["eventType"]), stringValue(item["genre"])),
	}

	loc, ok := item["location"].(map[string]interface{})
	if !ok {
		return evt
	}
	evt.venue = stringValue(loc["name"])
	if addr, ok := loc["address"].(map[string]interface{}); ok {
		evt.locality = stringValue(addr["addressLocality"])
	}
	return evt
}

// stringValue returns a string value, or the first string of an array
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		for _, elem := range val {
			if s, ok := elem.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return content
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
