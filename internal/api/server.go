// Package api serves the stored events over HTTP.
//
// Routes:
//
//	GET /                   banner
//	GET /health             liveness
//	GET /api/events         filtered, paginated events
//	GET /api/analytics      counts by status, city, source and category
//	GET /api/calendar.ics   iCalendar feed of active events
//	GET /metrics            Prometheus metrics
//
// Every response allows any origin.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pfrederiksen/event-scraper/internal/logger"
	"github.com/pfrederiksen/event-scraper/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires every route against store
func NewRouter(store storage.Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Event Scraper API. Use /api/events and /api/analytics"})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers{store: store, now: time.Now}
	api := r.Group("/api")
	api.GET("/events", h.listEvents)
	api.GET("/analytics", h.analytics)
	api.GET("/calendar.ics", h.calendar)

	return r
}

// Serve runs the API on addr until ctx is cancelled, then shuts down
// gracefully
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", logger.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("Shutting down API", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// cors allows any origin, method and header, answering preflight requests
// directly
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request", logger.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
