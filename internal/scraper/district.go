package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/event-scraper/internal/config"
	"github.com/pfrederiksen/event-scraper/internal/event"
	"github.com/pfrederiksen/event-scraper/internal/logger"
	"github.com/pfrederiksen/event-scraper/internal/metrics"
)

const (
	DistrictName   = "District"
	DistrictDomain = "https://www.district.in"
)

// District scrapes events from district.in
type District struct {
	fetcher  *Fetcher
	cfg      config.Config
	maxLinks int
}

// NewDistrict creates a District scraper
func NewDistrict(f *Fetcher, cfg config.Config) *District {
	return &District{
		fetcher:  f,
		cfg:      cfg,
		maxLinks: cfg.MaxLinks,
	}
}

// Platform returns the source name stored on District events
func (d *District) Platform() string {
	return DistrictName
}

// BaseURL returns the District listing page for city
func (d *District) BaseURL(city string) string {
	return d.cfg.CityURL("district", city)
}

// ParseListing discovers detail links on the listing page and extracts one
// event per detail page, following at most maxLinks links
func (d *District) ParseListing(ctx context.Context, city string, body []byte) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: d.BaseURL(city), Err: err}
	}
	if canonical, ok := d.cfg.SupportedCity(city); ok {
		city = canonical
	}

	links := DiscoverLinks(doc, d.domain(city))
	if len(links) == 0 {
		logger.Warn("No event links found", logger.Fields{"platform": DistrictName, "city": city})
		return nil, nil
	}
	if d.maxLinks > 0 && len(links) > d.maxLinks {
		links = links[:d.maxLinks]
	}

	events := make([]*event.Event, 0, len(links))
	for _, link := range links {
		evt, err := d.scrapeDetail(ctx, city, link)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return events, err
			}
			logger.Debug("Skip event", logger.Fields{"url": link.URL, "error": err.Error()})
			continue
		}
		if evt != nil {
			events = append(events, evt)
		}
	}

	return events, nil
}

func (d *District) scrapeDetail(ctx context.Context, city string, link Link) (*event.Event, error) {
	page, err := d.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		metrics.EventsRejected.WithLabelValues("fetch").Inc()
		return nil, err
	}
	if len(page) == 0 {
		return nil, nil
	}

	evt, err := ExtractEvent(DetailPage{
		URL:           link.URL,
		Body:          page,
		Hint:          link.Hint,
		RequestedCity: city,
		Source:        DistrictName,
	})
	if err != nil {
		metrics.EventsRejected.WithLabelValues("parse").Inc()
		return nil, err
	}

	if err := evt.Validate(); err != nil {
		metrics.EventsRejected.WithLabelValues("validation").Inc()
		logger.Warn("Invalid event", logger.Fields{"url": link.URL, "reason": err.Error()})
		return nil, nil
	}
	return evt, nil
}

// domain is the scheme and host relative links are resolved against. It
// follows the configured listing URL so mirrors and test servers work too.
func (d *District) domain(city string) string {
	if u, err := url.Parse(d.BaseURL(city)); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Scheme + "://" + u.Host
	}
	return DistrictDomain
}
