// Package pipeline runs one scrape cycle: scrape every platform for a city,
// merge the batch into the stored set, save it, then expire past events.
//
// The store is read, merged and rewritten without any locking. Callers must
// make sure only one cycle runs against a store at a time.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/event-scraper/internal/config"
	"github.com/pfrederiksen/event-scraper/internal/event"
	"github.com/pfrederiksen/event-scraper/internal/logger"
	"github.com/pfrederiksen/event-scraper/internal/metrics"
	"github.com/pfrederiksen/event-scraper/internal/scraper"
	"github.com/pfrederiksen/event-scraper/internal/storage"
)

// Result summarizes one scrape cycle
type Result struct {
	RunID   string `json:"run_id"`
	City    string `json:"city"`
	Scraped int    `json:"scraped"` // valid events produced by all platforms
	Added   int    `json:"added"`   // events with an ID not seen before
	Total   int    `json:"total"`   // size of the stored set after the cycle
	Expired int    `json:"expired"`
}

// Runner ties the scrapers to a store
type Runner struct {
	cfg        config.Config
	store      storage.Store
	fetcher    *scraper.Fetcher
	scrapers   []scraper.PlatformScraper
	expireDays int
	now        func() time.Time
}

// New creates a Runner
func New(cfg config.Config, store storage.Store, fetcher *scraper.Fetcher, scrapers []scraper.PlatformScraper) *Runner {
	return &Runner{
		cfg:        cfg,
		store:      store,
		fetcher:    fetcher,
		scrapers:   scrapers,
		expireDays: cfg.MarkExpiredDays,
		now:        time.Now,
	}
}

// Store returns the store the runner reads and writes
func (r *Runner) Store() storage.Store {
	return r.store
}

// RunOnce scrapes city on every platform, merges the batch into the store and
// runs expiration. Scrape failures only shrink the batch; store failures are
// returned.
func (r *Runner) RunOnce(ctx context.Context, city string) (*Result, error) {
	if canonical, ok := r.cfg.SupportedCity(city); ok {
		city = canonical
	}
	res := &Result{RunID: uuid.NewString(), City: city}
	log := logger.Default().With(logger.Fields{"run_id": res.RunID, "city": city})
	log.Info("Starting scrape cycle", logger.Fields{"platforms": len(r.scrapers)})

	batch := make([]*event.Event, 0)
	for _, p := range r.scrapers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		batch = append(batch, scraper.Scrape(ctx, r.fetcher, p, city)...)
	}
	res.Scraped = len(batch)

	if len(batch) > 0 {
		added, total, err := r.mergeAndSave(ctx, batch)
		if err != nil {
			log.Error("Saving events failed", logger.Fields{"backend": r.store.Name()}, err)
			return res, err
		}
		res.Added, res.Total = added, total
	} else {
		log.Warn("No events scraped", nil)
	}

	expired, total, err := r.expire(ctx)
	if err != nil {
		log.Error("Expiring events failed", logger.Fields{"backend": r.store.Name()}, err)
		return res, err
	}
	res.Expired, res.Total = expired, total

	log.Info("Scrape cycle complete", logger.Fields{
		"scraped": res.Scraped,
		"added":   res.Added,
		"expired": res.Expired,
		"total":   res.Total,
	})
	return res, nil
}

// ExpireOnce runs expiration alone and returns how many events were expired
func (r *Runner) ExpireOnce(ctx context.Context) (int, error) {
	expired, _, err := r.expire(ctx)
	if err != nil {
		return 0, err
	}
	logger.Info("Expired events", logger.Fields{"count": expired, "backend": r.store.Name()})
	return expired, nil
}

func (r *Runner) mergeAndSave(ctx context.Context, batch []*event.Event) (added, total int, err error) {
	existing, err := r.store.Load(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("loading events: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, evt := range existing {
		evt.EnsureID()
		known[evt.ID] = true
	}
	for _, evt := range batch {
		evt.EnsureID()
		if !known[evt.ID] {
			known[evt.ID] = true
			added++
		}
	}

	merged := event.Merge(existing, batch)
	if err := r.store.Save(ctx, merged); err != nil {
		return 0, 0, fmt.Errorf("saving events: %w", err)
	}
	return added, len(merged), nil
}

// expire writes the set back only when something changed
func (r *Runner) expire(ctx context.Context) (expired, total int, err error) {
	events, err := r.store.Load(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("loading events: %w", err)
	}

	expired = event.Expire(events, r.now(), r.expireDays)
	if expired == 0 {
		return 0, len(events), nil
	}

	if err := r.store.Save(ctx, events); err != nil {
		return 0, 0, fmt.Errorf("saving expired events: %w", err)
	}
	metrics.EventsExpired.Add(float64(expired))
	return expired, len(events), nil
}
