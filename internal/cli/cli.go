package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/event-scraper/internal/analytics"
	"github.com/pfrederiksen/event-scraper/internal/api"
	"github.com/pfrederiksen/event-scraper/internal/config"
	"github.com/pfrederiksen/event-scraper/internal/filter"
	"github.com/pfrederiksen/event-scraper/internal/logger"
	"github.com/pfrederiksen/event-scraper/internal/pipeline"
	"github.com/pfrederiksen/event-scraper/internal/scraper"
	"github.com/pfrederiksen/event-scraper/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

const dateFlagLayout = "2006-01-02"

// options holds flag values shared by every command
type options struct {
	logLevel  string
	backend   string
	dataDir   string
	city      string
	platforms string
	format    string
	addr      string
	status    string
	source    string
	from      string
	to        string
	sortOrder string
	verbose   bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "event-scraper",
		Short: "Scrape event listings from District and serve them",
		Long: `A CLI tool that scrapes event listings from District (www.district.in),
merges them into a persistent store, expires past events and serves the
result over a small read API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (env: LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.backend, "store", "", "Store backend: sheets, postgres or file (env: STORE_BACKEND)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Data directory for the file store (env: DATA_DIR)")

	cmd.AddCommand(
		newScrapeCmd(opts),
		newExpireCmd(opts),
		newServeCmd(opts),
		newListCmd(opts),
		newAnalyticsCmd(opts),
	)
	return cmd
}

func newScrapeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape cycle for a city",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(opts.format)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			city, err := resolveCity(cfg, opts.city)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			runner, closeStore, err := newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := runner.RunOnce(ctx, city)
			if err != nil {
				return fmt.Errorf("scrape cycle: %w", err)
			}
			return WriteResult(os.Stdout, res, format)
		},
	}

	cmd.Flags().StringVar(&opts.city, "city", "", "City to scrape (default: DEFAULT_CITY)")
	cmd.Flags().StringVar(&opts.platforms, "platforms", "", "Comma-separated platforms (default: PLATFORMS)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	return cmd
}

func newExpireCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Mark stored events whose date has passed as Expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			count, err := pipeline.New(cfg, store, nil, nil).ExpireOnce(ctx)
			if err != nil {
				return fmt.Errorf("expiring events: %w", err)
			}
			fmt.Fprintf(os.Stdout, "Expired %d events.\n", count)
			return nil
		},
	}
}

func newServeCmd(opts *options) *cobra.Command {
	var skipScrape bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run one scrape cycle, then serve the read API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if opts.addr != "" {
				cfg.APIAddr = opts.addr
			}
			city, err := resolveCity(cfg, opts.city)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			runner, closeStore, err := newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			if !skipScrape {
				if _, err := runner.RunOnce(ctx, city); err != nil {
					return fmt.Errorf("initial scrape cycle: %w", err)
				}
			}

			return api.Serve(ctx, cfg.APIAddr, api.NewRouter(runner.Store()))
		},
	}

	cmd.Flags().StringVar(&opts.city, "city", "", "City to scrape before serving (default: DEFAULT_CITY)")
	cmd.Flags().StringVar(&opts.platforms, "platforms", "", "Comma-separated platforms (default: PLATFORMS)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default: API_ADDR or :8000)")
	cmd.Flags().BoolVar(&skipScrape, "skip-scrape", false, "Serve the stored events without scraping first")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(opts.format)
			if err != nil {
				return err
			}
			order, err := parseSortOrder(opts.sortOrder)
			if err != nil {
				return err
			}
			f, err := buildFilter(opts)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			events, err := store.Load(ctx)
			if err != nil {
				return fmt.Errorf("loading events: %w", err)
			}

			events = f.Apply(events)
			sortEvents(events, order)
			return WriteEvents(os.Stdout, events, format, opts.verbose)
		},
	}

	cmd.Flags().StringVar(&opts.city, "city", "", "Only events in this city (case-insensitive)")
	cmd.Flags().StringVar(&opts.status, "status", "", "Only events with this status (Active or Expired)")
	cmd.Flags().StringVar(&opts.source, "source", "", "Only events from this platform (case-insensitive)")
	cmd.Flags().StringVar(&opts.from, "from", "", "Only events on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Only events on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.sortOrder, "sort", "", "Sort by: date, city or name (default: stored order)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Show every field in text output")
	return cmd
}

func newAnalyticsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show counts over the stored events",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(opts.format)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			events, err := store.Load(ctx)
			if err != nil {
				return fmt.Errorf("loading events: %w", err)
			}
			return WriteSummary(os.Stdout, analytics.Summarize(events), format)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	return cmd
}

// loadConfig loads the configuration, applies flag overrides, sets up
// logging and fails fast on an incomplete store configuration
func loadConfig(opts *options) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.backend != "" {
		cfg.StoreBackend = strings.ToLower(opts.backend)
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.platforms != "" {
		cfg.Platforms = config.SplitList(opts.platforms)
	}

	logger.SetDefault(logger.New(logger.ParseLevel(cfg.LogLevel), os.Stderr))

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildFilter turns the list flags into a filter. Dates are whole days in
// local time; --to includes the whole day.
func buildFilter(opts *options) (filter.Filter, error) {
	f := filter.Filter{City: opts.city, Status: opts.status, Source: opts.source}

	if opts.from != "" {
		from, err := time.ParseInLocation(dateFlagLayout, opts.from, time.Local)
		if err != nil {
			return filter.Filter{}, fmt.Errorf("invalid --from date %q (want YYYY-MM-DD)", opts.from)
		}
		f.DateFrom = &from
	}
	if opts.to != "" {
		to, err := time.ParseInLocation(dateFlagLayout, opts.to, time.Local)
		if err != nil {
			return filter.Filter{}, fmt.Errorf("invalid --to date %q (want YYYY-MM-DD)", opts.to)
		}
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.DateTo = &end
	}
	return f, nil
}

// resolveCity returns the canonical spelling of city, or of the default city
// when empty
func resolveCity(cfg config.Config, city string) (string, error) {
	if strings.TrimSpace(city) == "" {
		city = cfg.DefaultCity
	}
	canonical, ok := cfg.SupportedCity(city)
	if !ok {
		return "", fmt.Errorf("unsupported city %q (supported: %s)", city, strings.Join(cfg.SupportedCities, ", "))
	}
	return canonical, nil
}

// openStore opens the configured store. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, func(), error) {
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing storage: %w", err)
	}
	closeStore := func() {}
	if c, ok := store.(interface{ Close() }); ok {
		closeStore = c.Close
	}
	return store, closeStore, nil
}

func newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, func(), error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	fetcher := scraper.NewFetcher(cfg)
	scrapers := scraper.ForPlatforms(cfg.Platforms, fetcher, cfg)
	if len(scrapers) == 0 {
		closeStore()
		return nil, nil, fmt.Errorf("no known platforms in %v (known: %s)", cfg.Platforms, strings.Join(scraper.Platforms(), ", "))
	}

	return pipeline.New(cfg, store, fetcher, scrapers), closeStore, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
