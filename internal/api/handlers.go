package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pfrederiksen/event-scraper/internal/analytics"
	"github.com/pfrederiksen/event-scraper/internal/calendar"
	"github.com/pfrederiksen/event-scraper/internal/event"
	"github.com/pfrederiksen/event-scraper/internal/filter"
	"github.com/pfrederiksen/event-scraper/internal/logger"
	"github.com/pfrederiksen/event-scraper/internal/storage"
)

// Pagination bounds for /api/events
const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Page returns events[offset:offset+limit], clamped to the slice
func Page(events []*event.Event, offset, limit int) []*event.Event {
	if offset >= len(events) {
		return []*event.Event{}
	}
	end := offset + limit
	if end > len(events) {
		end = len(events)
	}
	return events[offset:end]
}

// EventsResponse is the body of /api/events
type EventsResponse struct {
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Events []map[string]string `json:"events"`
}

type handlers struct {
	store storage.Store
	now   func() time.Time
}

func (h *handlers) listEvents(c *gin.Context) {
	limit, err := queryInt(c, "limit", DefaultLimit)
	if err != nil || limit < 1 || limit > MaxLimit {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "limit must be an integer between 1 and 500"})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "offset must be a non-negative integer"})
		return
	}

	events, ok := h.load(c)
	if !ok {
		return
	}

	filtered := filter.Filter{
		City:   c.Query("city"),
		Status: c.Query("status"),
		Source: c.Query("source"),
	}.Apply(events)

	page := Page(filtered, offset, limit)
	resp := EventsResponse{
		Total:  len(filtered),
		Limit:  limit,
		Offset: offset,
		Events: make([]map[string]string, 0, len(page)),
	}
	for _, evt := range page {
		resp.Events = append(resp.Events, storage.Record(evt))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) analytics(c *gin.Context) {
	events, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.Summarize(events))
}

func (h *handlers) calendar(c *gin.Context) {
	events, ok := h.load(c)
	if !ok {
		return
	}
	if city := c.Query("city"); city != "" {
		events = filter.Filter{City: city}.Apply(events)
	}

	ics, err := calendar.GenerateICS(events, h.now())
	if err != nil {
		logger.Error("Rendering calendar failed", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "calendar rendering failed"})
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

// load reads the store, writing a 503 response when it is unavailable
func (h *handlers) load(c *gin.Context) ([]*event.Event, bool) {
	events, err := h.store.Load(c.Request.Context())
	if err != nil {
		logger.Error("Loading events failed", logger.Fields{"backend": h.store.Name()}, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event store unavailable"})
		return nil, false
	}
	return events, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
