package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/event-scraper/internal/analytics"
	"github.com/pfrederiksen/event-scraper/internal/event"
)

type stubStore struct {
	events []*event.Event
	err    error
}

func (s *stubStore) Load(context.Context) ([]*event.Event, error) { return s.events, s.err }
func (s *stubStore) Save(context.Context, []*event.Event) error { return nil }
func (s *stubStore) Name() string { return "stub" }

func fixtureEvents() []*event.Event {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	mk := func(name, date, city, category, source string, status event.Status) *event.Event {
		evt := event.NewEvent(name, date, "Hall", city, category, "https://x/events/"+name, source)
		evt.Status = status
		evt.LastUpdated = ts
		return evt
	}
	return []*event.Event{
		mk("a", "2026-03-13", "Mumbai", "Comedy", "District", event.StatusActive),
		mk("b", "2026-03-14", "mumbai", "", "District", event.StatusActive),
		mk("c", "2020-01-01", "Mumbai", "Music", "District", event.StatusExpired),
		mk("d", "TBA", "Pune", "Music", "Other", event.StatusActive),
	}
}

func do(t *testing.T, store *stubStore, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(store)
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoot(t *testing.T) {
	w := do(t, &stubStore{}, http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/events")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	w := do(t, &stubStore{}, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPreflight(t *testing.T) {
	w := do(t, &stubStore{}, http.MethodOptions, "/api/events")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestListEvents(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantTotal int
		wantNames []string
		wantLimit int
	}{
		{"no filters", "", 4, []string{"a", "b", "c", "d"}, DefaultLimit},
		{"city is case-insensitive", "?city=MUMBAI", 3, []string{"a", "b", "c"}, DefaultLimit},
		{"status is exact", "?status=Expired", 1, []string{"c"}, DefaultLimit},
		{"status case must match", "?status=expired", 0, []string{}, DefaultLimit},
		{"source is case-insensitive", "?source=other", 1, []string{"d"}, DefaultLimit},
		{"combined filters", "?city=mumbai&status=Active", 2, []string{"a", "b"}, DefaultLimit},
		{"pagination", "?limit=2&offset=1", 4, []string{"b", "c"}, 2},
		{"offset past end", "?offset=10", 4, []string{}, DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, &stubStore{events: fixtureEvents()}, http.MethodGet, "/api/events"+tt.query)
			require.Equal(t, http.StatusOK, w.Code)

			var resp EventsResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			assert.Equal(t, tt.wantTotal, resp.Total)
			assert.Equal(t, tt.wantLimit, resp.Limit)

			names := make([]string, 0, len(resp.Events))
			for _, rec := range resp.Events {
				names = append(names, rec["Event Name"])
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestListEvents_RecordShape(t *testing.T) {
	w := do(t, &stubStore{events: fixtureEvents()[:1]}, http.MethodGet, "/api/events")
	require.Equal(t, http.StatusOK, w.Code)

	var resp EventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)

	rec := resp.Events[0]
	assert.Equal(t, "a", rec["Event Name"])
	assert.Equal(t, "Mumbai", rec["City"])
	assert.Equal(t, "Active", rec["Status"])
	assert.Equal(t, "2026-03-01 09:30:00", rec["Last Updated"])
	assert.NotEmpty(t, rec["Event ID"])
}

func TestListEvents_InvalidPagination(t *testing.T) {
	for _, q := range []string{"?limit=0", "?limit=501", "?limit=abc", "?offset=-1"} {
		t.Run(q, func(t *testing.T) {
			w := do(t, &stubStore{events: fixtureEvents()}, http.MethodGet, "/api/events"+q)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestListEvents_StoreError(t *testing.T) {
	w := do(t, &stubStore{err: errors.New("boom")}, http.MethodGet, "/api/events")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAnalytics(t *testing.T) {
	w := do(t, &stubStore{events: fixtureEvents()}, http.MethodGet, "/api/analytics")
	require.Equal(t, http.StatusOK, w.Code)

	var s analytics.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))

	assert.Equal(t, 4, s.TotalEvents)
	assert.Equal(t, 3, s.ActiveEvents)
	assert.Equal(t, 1, s.ExpiredEvents)
	assert.Equal(t, map[string]int{"Mumbai": 1, "mumbai": 1, "Pune": 1}, s.ByCity)
	assert.Equal(t, map[string]int{"District": 3, "Other": 1}, s.BySource)
	assert.Equal(t, map[string]int{"Comedy": 1, "General": 1, "Music": 1}, s.ByCategory)
}

func TestCalendar(t *testing.T) {
	w := do(t, &stubStore{events: fixtureEvents()}, http.MethodGet, "/api/calendar.ics?city=mumbai")
	require.Equal(t, http.StatusOK, w.Code)

	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"), "only active, dated Mumbai events")
}

func TestMetrics(t *testing.T) {
	w := do(t, &stubStore{}, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestPage(t *testing.T) {
	events := fixtureEvents()
	assert.Len(t, Page(events, 0, 2), 2)
	assert.Len(t, Page(events, 3, 100), 1)
	assert.Empty(t, Page(events, 4, 1))
}
