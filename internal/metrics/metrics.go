// Package metrics registers the Prometheus collectors for scrape, store and
// expiry activity. Collectors live on the default registry and are served by
// the API's /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "event_scraper"

var (
	// PagesFetched counts page fetches by result ("ok" or "error")
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_fetched_total",
		Help:      "Pages fetched by result, after retries",
	}, []string{"result"})

	// FetchDuration tracks how long a fetch takes including retries
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Page fetch duration in seconds including retries",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	})

	// EventsScraped counts valid events produced per platform
	EventsScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_scraped_total",
		Help:      "Valid events extracted from detail pages",
	}, []string{"platform"})

	// EventsRejected counts detail pages that produced no event
	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_rejected_total",
		Help:      "Detail pages skipped, by reason",
	}, []string{"reason"})

	// EventsExpired counts Active events flipped to Expired
	EventsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_expired_total",
		Help:      "Events transitioned from Active to Expired",
	})

	// StoreOperations counts store loads and saves
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Store operations by backend, operation and result",
	}, []string{"backend", "op", "result"})
)

// ObserveFetch records the outcome and duration of one fetch
func ObserveFetch(err error, d time.Duration) {
	PagesFetched.WithLabelValues(result(err)).Inc()
	FetchDuration.Observe(d.Seconds())
}

// ObserveStore records the outcome of one store operation
func ObserveStore(backend, op string, err error) {
	StoreOperations.WithLabelValues(backend, op, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
