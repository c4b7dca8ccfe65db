package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pfrederiksen/event-scraper/internal/config"
	"github.com/pfrederiksen/event-scraper/internal/event"
	"github.com/pfrederiksen/event-scraper/internal/scraper"
)

// memStore is an in-memory store that copies events in and out like a real
// backend would
type memStore struct {
	events  []event.Event
	saves   int
	loadErr error
}

func (m *memStore) Load(_ context.Context) ([]*event.Event, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]*event.Event, len(m.events))
	for i := range m.events {
		evt := m.events[i]
		out[i] = &evt
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, events []*event.Event) error {
	m.saves++
	m.events = m.events[:0]
	for _, evt := range events {
		m.events = append(m.events, *evt)
	}
	return nil
}

func (m *memStore) Name() string { return "memory" }

// fakePlatform returns a fixed batch for any listing page
type fakePlatform struct {
	url    string
	events func() []*event.Event
	city   string
}

func (f *fakePlatform) Platform() string      { return "Fake" }
func (f *fakePlatform) BaseURL(string) string { return f.url }
func (f *fakePlatform) ParseListing(_ context.Context, city string, _ []byte) ([]*event.Event, error) {
	f.city = city
	return f.events(), nil
}

func futureBatch() []*event.Event {
	return []*event.Event{
		event.NewEvent("Comedy Night", "2099-03-13", "The Habitat", "Mumbai", "Comedy", "https://x/events/a", "Fake"),
		event.NewEvent("Jazz Evening", "TBA", "NCPA", "Mumbai", "Music", "https://x/events/b", "Fake"),
	}
}

func newTestRunner(t *testing.T, store *memStore, status int, batch func() []*event.Event) *Runner {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("<html></html>"))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.MaxRetries = 1
	cfg.RateLimitDelay = 0
	cfg.RetryDelay = time.Millisecond

	return New(cfg, store, scraper.NewFetcher(cfg), []scraper.PlatformScraper{
		&fakePlatform{url: server.URL, events: batch},
	})
}

func TestRunOnce_NewEvents(t *testing.T) {
	store := &memStore{}
	runner := newTestRunner(t, store, http.StatusOK, futureBatch)

	res, err := runner.RunOnce(context.Background(), "Mumbai")
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if res.RunID == "" {
		t.Error("expected a run ID")
	}
	if res.Scraped != 2 || res.Added != 2 || res.Total != 2 || res.Expired != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(store.events) != 2 {
		t.Fatalf("expected 2 stored events, got %d", len(store.events))
	}
	if store.saves != 1 {
		t.Errorf("expected 1 save, got %d", store.saves)
	}
}

func TestRunOnce_CanonicalCity(t *testing.T) {
	store := &memStore{}
	runner := newTestRunner(t, store, http.StatusOK, futureBatch)

	res, err := runner.RunOnce(context.Background(), "  mumbai ")
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if res.City != "Mumbai" {
		t.Errorf("result city = %q, want Mumbai", res.City)
	}
	platform := runner.scrapers[0].(*fakePlatform)
	if platform.city != "Mumbai" {
		t.Errorf("platform got city %q, want Mumbai", platform.city)
	}
}

func TestRunOnce_Idempotent(t *testing.T) {
	store := &memStore{}
	runner := newTestRunner(t, store, http.StatusOK, futureBatch)

	if _, err := runner.RunOnce(context.Background(), "Mumbai"); err != nil {
		t.Fatalf("first RunOnce failed: %v", err)
	}
	first := append([]event.Event(nil), store.events...)

	res, err := runner.RunOnce(context.Background(), "Mumbai")
	if err != nil {
		t.Fatalf("second RunOnce failed: %v", err)
	}
	if res.Added != 0 || res.Total != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(store.events) != len(first) {
		t.Fatalf("expected %d events, got %d", len(first), len(store.events))
	}
	for i := range first {
		a, b := first[i], store.events[i]
		a.LastUpdated, b.LastUpdated = time.Time{}, time.Time{}
		if a != b {
			t.Errorf("event %d changed: %+v -> %+v", i, a, b)
		}
	}
}

func TestRunOnce_PreservesExpiredStatus(t *testing.T) {
	expired := *futureBatch()[0]
	expired.Status = event.StatusExpired
	store := &memStore{events: []event.Event{expired}}

	runner := newTestRunner(t, store, http.StatusOK, futureBatch)
	if _, err := runner.RunOnce(context.Background(), "Mumbai"); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if store.events[0].ID != expired.ID {
		t.Fatalf("expected existing record to stay first")
	}
	if store.events[0].Status != event.StatusExpired {
		t.Errorf("rescrape resurrected an expired event: %q", store.events[0].Status)
	}
}

func TestRunOnce_ExpiresPastEvents(t *testing.T) {
	past := *event.NewEvent("Old Show", "2020-01-01", "Hall", "Mumbai", "", "https://x/events/old", "Fake")
	store := &memStore{events: []event.Event{past}}

	runner := newTestRunner(t, store, http.StatusOK, futureBatch)
	res, err := runner.RunOnce(context.Background(), "Mumbai")
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if res.Expired != 1 {
		t.Errorf("expected 1 expired event, got %d", res.Expired)
	}
	if store.events[0].Status != event.StatusExpired {
		t.Errorf("expected past event to be Expired, got %q", store.events[0].Status)
	}
	for _, evt := range store.events[1:] {
		if evt.Status != event.StatusActive {
			t.Errorf("expected future/TBA event to stay Active: %+v", evt)
		}
	}
}

func TestRunOnce_EmptyBatchStillExpires(t *testing.T) {
	past := *event.NewEvent("Old Show", "2020-01-01", "Hall", "Mumbai", "", "https://x/events/old", "Fake")
	store := &memStore{events: []event.Event{past}}

	runner := newTestRunner(t, store, http.StatusInternalServerError, futureBatch)
	res, err := runner.RunOnce(context.Background(), "Mumbai")
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if res.Scraped != 0 {
		t.Errorf("expected empty batch, got %d", res.Scraped)
	}
	if store.saves != 1 || res.Expired != 1 {
		t.Errorf("expected only the expiration save, got %d saves and %d expired", store.saves, res.Expired)
	}
}

func TestRunOnce_StoreError(t *testing.T) {
	loadErr := errors.New("sheet unreachable")
	store := &memStore{loadErr: loadErr}

	runner := newTestRunner(t, store, http.StatusOK, futureBatch)
	if _, err := runner.RunOnce(context.Background(), "Mumbai"); !errors.Is(err, loadErr) {
		t.Errorf("expected store error to propagate, got %v", err)
	}
}

func TestExpireOnce(t *testing.T) {
	past := *event.NewEvent("Old Show", "2020-01-01", "Hall", "Mumbai", "", "https://x/events/old", "Fake")
	store := &memStore{events: []event.Event{past}}
	runner := newTestRunner(t, store, http.StatusOK, futureBatch)

	count, err := runner.ExpireOnce(context.Background())
	if err != nil {
		t.Fatalf("ExpireOnce failed: %v", err)
	}
	if count != 1 || store.saves != 1 {
		t.Errorf("expected 1 expired and 1 save, got %d and %d", count, store.saves)
	}
	stamp := store.events[0].LastUpdated

	count, err = runner.ExpireOnce(context.Background())
	if err != nil {
		t.Fatalf("second ExpireOnce failed: %v", err)
	}
	if count != 0 || store.saves != 1 {
		t.Errorf("expected no further changes, got %d expired and %d saves", count, store.saves)
	}
	if !store.events[0].LastUpdated.Equal(stamp) {
		t.Error("already expired event had its timestamp bumped")
	}
}
