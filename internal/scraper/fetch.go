package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/event-scraper/internal/config"
	"github.com/pfrederiksen/event-scraper/internal/logger"
	"github.com/pfrederiksen/event-scraper/internal/metrics"
)

// Fetcher downloads pages with retries and a fixed pause after every
// successful fetch
type Fetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	rateLimit  time.Duration
}

// NewFetcher creates a Fetcher from the fetch settings in cfg
func NewFetcher(cfg config.Config) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		rateLimit:  cfg.RateLimitDelay,
	}
}

// linearBackOff waits delay, 2*delay, 3*delay... between attempts
type linearBackOff struct {
	delay   time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.delay * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// Fetch returns the body of url. Failures are retried up to the configured
// number of attempts; the last *FetchError is returned once they run out.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	attempts := f.maxRetries
	if attempts < 1 {
		attempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{delay: f.retryDelay}, uint64(attempts-1)),
		ctx,
	)

	var body []byte
	err := backoff.RetryNotify(func() error {
		var err error
		body, err = f.fetchOnce(ctx, url)
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Debug("Retrying fetch", logger.Fields{"url": url, "wait": wait.String(), "error": err.Error()})
	})
	metrics.ObserveFetch(err, time.Since(start))
	if err != nil {
		return nil, err
	}

	if err := sleep(ctx, f.rateLimit); err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	logger.Info("Fetching", logger.Fields{"url": url})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(&FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)})
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
