package scraper

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Link is a candidate event detail page discovered on a listing page
type Link struct {
	URL  string
	Hint string // best-effort venue/city guess from the link text, may be empty
}

var detailPrefixes = []string{"/events/", "/event/"}

// Link text such as "Comedy Night The Hall, Worli ₹499": a "name, locality"
// pair anchored on a trailing price, "Free" or end of text
var venueCityPattern = regexp.MustCompile(`([A-Za-z0-9\s&|]+,\s*[A-Za-z0-9/]+)(?:\s*₹|\s*Free|$)`)

// Segments never taken as a locality
var skipLocalities = map[string]bool{"india": true, "in": true}

// DiscoverLinks extracts event detail links from a listing page.
// Relative links are resolved against domain (scheme and host, no trailing
// slash). Links are deduplicated after dropping their query string and keep
// the order in which they first appear; the hint comes from the last
// occurrence, even when that one is empty.
func DiscoverLinks(doc *goquery.Document, domain string) []Link {
	links := make([]Link, 0)
	index := make(map[string]int)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.Contains(href, "/artist") {
			return
		}
		if !strings.Contains(href, "/events/") && !strings.Contains(href, "/event/") {
			return
		}

		if strings.HasPrefix(href, "/") {
			href = domain + href
		}
		if !strings.HasPrefix(href, "http") || !IsValidEventURL(href) {
			return
		}

		url := stripQuery(href)
		hint := hintFromLinkText(joinedText(a, " "))

		if pos, ok := index[url]; ok {
			links[pos].Hint = hint
			return
		}
		index[url] = len(links)
		links = append(links, Link{URL: url, Hint: hint})
	})

	return links
}

// IsValidEventURL reports whether url points at a single event rather than an
// events index. After dropping the query string and trailing slashes, the URL
// must not end in /events or /event and must have content after the detail
// path segment.
func IsValidEventURL(url string) bool {
	url = strings.TrimRight(stripQuery(url), "/")
	if strings.HasSuffix(url, "/events") || strings.HasSuffix(url, "/event") {
		return false
	}

	for _, prefix := range detailPrefixes {
		if _, rest, found := strings.Cut(url, prefix); found {
			return rest != "" && !strings.HasPrefix(rest, "/")
		}
	}
	return false
}

// CityFromVenueText guesses the locality from a "name, area, city" string.
// Segments are scanned from the last one backwards, skipping purely numeric
// ones, ones longer than 50 characters and "India"/"in". When every segment
// is skipped the last one is returned. Text without a comma yields "".
func CityFromVenueText(text string) string {
	if text == "" || !strings.Contains(text, ",") {
		return ""
	}

	parts := make([]string, 0)
	for _, p := range strings.Split(text, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	for i := len(parts) - 1; i >= 0; i-- {
		p := parts[i]
		if skipLocalities[strings.ToLower(p)] || isDigits(p) || utf8.RuneCountInString(p) > 50 {
			continue
		}
		return p
	}
	return parts[len(parts)-1]
}

// hintFromLinkText tries the "name, locality" pattern first and falls back to
// the plain comma heuristic over the whole text
func hintFromLinkText(text string) string {
	if m := venueCityPattern.FindStringSubmatch(text); m != nil {
		if city := CityFromVenueText(m[1]); city != "" {
			return city
		}
	}
	return CityFromVenueText(text)
}

func stripQuery(url string) string {
	url, _, _ = strings.Cut(url, "?")
	return url
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// joinedText returns the trimmed text nodes under sel joined with sep
func joinedText(sel *goquery.Selection, sep string) string {
	pieces := make([]string, 0)
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					pieces = append(pieces, t)
				}
			case "#comment", "script", "style":
			default:
				walk(c)
			}
		})
	}
	walk(sel)
	return strings.Join(pieces, sep)
}
