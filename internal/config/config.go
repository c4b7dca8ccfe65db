// Package config assembles the process configuration once at start-up from a
// .env file, environment variables and an optional YAML file, and validates it
// before any network activity happens.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

// DistrictListingURL is the listing page used for every supported city
const DistrictListingURL = "https://www.district.in/events/"

var (
	ErrMissingSheetsID     = errors.New("GOOGLE_SHEETS_ID is required for the sheets backend")
	ErrMissingCredentials  = errors.New("set GOOGLE_CREDENTIALS (JSON string) or GOOGLE_CREDENTIALS_FILE for the sheets backend")
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required for the postgres backend")
	ErrMissingDataDir      = errors.New("DATA_DIR is required for the file backend")
	ErrUnknownStoreBackend = errors.New("unknown STORE_BACKEND")
)

// DefaultSupportedCities are the cities a listing URL is known for
var DefaultSupportedCities = []string{
	"Mumbai",
	"Delhi",
	"Bangalore",
	"Hyderabad",
	"Chennai",
	"Pune",
	"Kolkata",
	"Ahmedabad",
	"Jaipur",
	"Kochi",
}

// PlatformURLs maps supported cities to a platform's listing page
type PlatformURLs struct {
	DefaultURL string            `yaml:"default_url"` // used for any supported city without an override
	Cities     map[string]string `yaml:"cities"`      // city -> listing URL
}

// Config contains runtime configuration shared by every component
type Config struct {
	DefaultCity     string
	SupportedCities []string
	Platforms       []string
	PlatformURLs    map[string]PlatformURLs // lower-case platform name -> URLs

	// Fetching
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	RateLimitDelay time.Duration
	MaxLinks       int
	UserAgent      string

	// Lifecycle
	MarkExpiredDays int

	// Storage
	StoreBackend    string
	SheetsID        string
	Credentials     string // service account JSON
	CredentialsFile string
	Worksheet       string
	DatabaseURL     string
	DataDir         string

	// Serving
	APIAddr  string
	LogLevel string
}

// fileConfig is the optional YAML overlay read from CONFIG_FILE
type fileConfig struct {
	DefaultCity     string                  `yaml:"default_city"`
	SupportedCities []string                `yaml:"supported_cities"`
	Platforms       []string                `yaml:"platforms"`
	PlatformURLs    map[string]PlatformURLs `yaml:"platform_urls"`
	MaxLinks        int                     `yaml:"max_links"`
	UserAgent       string                  `yaml:"user_agent"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		DefaultCity:     "Mumbai",
		SupportedCities: append([]string(nil), DefaultSupportedCities...),
		Platforms:       []string{"district"},
		PlatformURLs: map[string]PlatformURLs{
			"district": {DefaultURL: DistrictListingURL},
		},
		MaxRetries:      3,
		RetryDelay:      2 * time.Second,
		RequestTimeout:  30 * time.Second,
		RateLimitDelay:  2 * time.Second,
		MaxLinks:        25,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		MarkExpiredDays: 0,
		Worksheet:       "Events",
		DataDir:         "~/.local/share/event-scraper",
		APIAddr:         ":8000",
		LogLevel:        "info",
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then environment
// variables, each layer overriding the previous one.
func Load() (Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if cfg.StoreBackend == "" {
		if cfg.SheetsID != "" {
			cfg.StoreBackend = BackendSheets
		} else {
			cfg.StoreBackend = BackendFile
		}
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fc.DefaultCity != "" {
		c.DefaultCity = fc.DefaultCity
	}
	if len(fc.SupportedCities) > 0 {
		c.SupportedCities = fc.SupportedCities
	}
	if len(fc.Platforms) > 0 {
		c.Platforms = fc.Platforms
	}
	for name, urls := range fc.PlatformURLs {
		c.PlatformURLs[strings.ToLower(strings.TrimSpace(name))] = urls
	}
	if fc.MaxLinks > 0 {
		c.MaxLinks = fc.MaxLinks
	}
	if fc.UserAgent != "" {
		c.UserAgent = fc.UserAgent
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.DefaultCity, "DEFAULT_CITY")
	setString(&c.UserAgent, "USER_AGENT")
	setString(&c.StoreBackend, "STORE_BACKEND")
	setString(&c.SheetsID, "GOOGLE_SHEETS_ID")
	setString(&c.Credentials, "GOOGLE_CREDENTIALS")
	setString(&c.CredentialsFile, "GOOGLE_CREDENTIALS_FILE")
	setString(&c.Worksheet, "GOOGLE_WORKSHEET")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.APIAddr, "API_ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")
	c.StoreBackend = strings.ToLower(c.StoreBackend)

	if v := strings.TrimSpace(os.Getenv("PLATFORMS")); v != "" {
		c.Platforms = SplitList(v)
	}

	if err := setInt(&c.MaxRetries, "MAX_RETRIES"); err != nil {
		return err
	}
	if err := setInt(&c.MaxLinks, "MAX_LINKS"); err != nil {
		return err
	}
	if err := setInt(&c.MarkExpiredDays, "MARK_EXPIRED_DAYS"); err != nil {
		return err
	}
	if err := setSeconds(&c.RequestTimeout, "REQUEST_TIMEOUT"); err != nil {
		return err
	}
	if err := setSeconds(&c.RateLimitDelay, "RATE_LIMIT_DELAY"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setSeconds(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number of seconds: %w", key, err)
	}
	*dst = time.Duration(f * float64(time.Second))
	return nil
}

// SplitList splits a comma-separated list, trimming blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that the selected store backend has everything it needs
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendSheets:
		if c.SheetsID == "" {
			return ErrMissingSheetsID
		}
		if c.Credentials == "" && c.CredentialsFile == "" {
			return ErrMissingCredentials
		}
		if c.Credentials == "" {
			path := c.credentialsPath()
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("credentials file not found: %s", path)
			}
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case BackendFile:
		if c.DataDir == "" {
			return ErrMissingDataDir
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreBackend, c.StoreBackend)
	}
	return nil
}

func (c Config) credentialsPath() string {
	path := c.CredentialsFile
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return path
}

// SheetsCredentials returns the service account JSON, reading
// GOOGLE_CREDENTIALS_FILE when no inline JSON was given
func (c Config) SheetsCredentials() ([]byte, error) {
	if c.Credentials != "" {
		return []byte(c.Credentials), nil
	}
	if c.CredentialsFile == "" {
		return nil, ErrMissingCredentials
	}
	data, err := os.ReadFile(c.credentialsPath())
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	return data, nil
}

// SupportedCity returns the canonical spelling of city if it is supported
func (c Config) SupportedCity(city string) (string, bool) {
	city = strings.TrimSpace(city)
	for _, supported := range c.SupportedCities {
		if strings.EqualFold(supported, city) {
			return supported, true
		}
	}
	return "", false
}

// CityURL returns the listing page for a platform and city, or "" when the
// platform has no URL for that city
func (c Config) CityURL(platform, city string) string {
	urls, ok := c.PlatformURLs[strings.ToLower(strings.TrimSpace(platform))]
	if !ok {
		return ""
	}
	canonical, ok := c.SupportedCity(city)
	if !ok {
		return ""
	}
	if u, ok := urls.Cities[canonical]; ok {
		return u
	}
	return urls.DefaultURL
}
