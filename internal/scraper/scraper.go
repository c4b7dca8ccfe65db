package scraper

import (
	"context"
	"sort"
	"strings"

	"github.com/pfrederiksen/event-scraper/internal/config"
	"github.com/pfrederiksen/event-scraper/internal/event"
	"github.com/pfrederiksen/event-scraper/internal/logger"
	"github.com/pfrederiksen/event-scraper/internal/metrics"
)

// PlatformScraper is implemented by every supported event platform
type PlatformScraper interface {
	// Platform returns the display name stored as the event source
	Platform() string
	// BaseURL returns the listing page for city, or "" if the city isn't covered
	BaseURL(city string) string
	// ParseListing turns a listing page into validated events. Failures on
	// individual detail pages are skipped, not returned.
	ParseListing(ctx context.Context, city string, body []byte) ([]*event.Event, error)
}

// Factory creates a platform scraper
type Factory func(f *Fetcher, cfg config.Config) PlatformScraper

var registry = map[string]Factory{
	"district": func(f *Fetcher, cfg config.Config) PlatformScraper { return NewDistrict(f, cfg) },
}

// Platforms returns the registered platform names, sorted
func Platforms() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForPlatforms creates scrapers for the named platforms. Names are matched
// case-insensitively; unknown names are skipped with a warning.
func ForPlatforms(names []string, f *Fetcher, cfg config.Config) []PlatformScraper {
	scrapers := make([]PlatformScraper, 0, len(names))
	for _, name := range names {
		factory, ok := registry[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			logger.Warn("Unknown platform", logger.Fields{"platform": name})
			continue
		}
		scrapers = append(scrapers, factory(f, cfg))
	}
	return scrapers
}

// Scrape fetches the platform's listing page for city and parses it. Any
// listing-level failure is logged and yields an empty batch so one platform
// or city can't abort a wider run.
func Scrape(ctx context.Context, f *Fetcher, p PlatformScraper, city string) []*event.Event {
	fields := logger.Fields{"platform": p.Platform(), "city": city}
	logger.Info("Scraping", fields)

	url := p.BaseURL(city)
	if url == "" {
		logger.Warn("No listing URL for city", fields)
		return nil
	}

	body, err := f.Fetch(ctx, url)
	if err != nil {
		logger.Error("Scraping failed", fields, err)
		return nil
	}
	if len(body) == 0 {
		return nil
	}

	events, err := p.ParseListing(ctx, city, body)
	if err != nil {
		logger.Error("Scraping failed", fields, err)
		return nil
	}

	metrics.EventsScraped.WithLabelValues(p.Platform()).Add(float64(len(events)))
	logger.Info("Found events", logger.Fields{"platform": p.Platform(), "city": city, "count": len(events)})
	return events
}
