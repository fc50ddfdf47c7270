package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress  string
	DatabaseURI string

	CatalogBaseURL        string
	ConsumerKey           string
	ConsumerSecret        string
	CatalogTimeout        time.Duration
	CatalogRequestsPerSec float64
	CatalogRetries        int

	SyncCronSchedule   string
	OrderRetentionDays int
	OrderFetchDays     int
	OrderConcurrency   int
	ProductConcurrency int

	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	CORSOrigins          []string
	AdminKeyHash         string

	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration
}

const (
	defaultRunAddress           = ":5000"
	defaultCatalogTimeout       = 30 * time.Second
	defaultCatalogRPS           = 1.0
	defaultCatalogRetries       = 3
	defaultSyncCronSchedule     = "0 12 * * *"
	defaultOrderRetentionDays   = 90
	defaultOrderFetchDays       = 30
	defaultOrderConcurrency     = 5
	defaultProductConcurrency   = 5
	defaultRateLimitWindow      = 15 * time.Minute
	defaultRateLimitMaxRequests = 100
	defaultCORSOrigins          = "http://localhost:3000,http://localhost:3001"
	defaultEnvironment          = "development"
	defaultLogLevel             = "info"
	defaultShutdownTimeout      = 10 * time.Second

	minCredentialLength = 10
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:           getString(lookup, "DATABASE_URI", ""),
		CatalogBaseURL:        getString(lookup, "CATALOG_BASE_URL", ""),
		ConsumerKey:           getString(lookup, "CATALOG_CONSUMER_KEY", ""),
		ConsumerSecret:        getString(lookup, "CATALOG_CONSUMER_SECRET", ""),
		CatalogTimeout:        getDuration(lookup, "CATALOG_TIMEOUT", defaultCatalogTimeout),
		CatalogRequestsPerSec: getFloat(lookup, "CATALOG_RPS", defaultCatalogRPS),
		CatalogRetries:        getInt(lookup, "CATALOG_RETRIES", defaultCatalogRetries),
		SyncCronSchedule:      getString(lookup, "SYNC_CRON_SCHEDULE", defaultSyncCronSchedule),
		OrderRetentionDays:    getInt(lookup, "ORDER_RETENTION_DAYS", defaultOrderRetentionDays),
		OrderFetchDays:        getInt(lookup, "ORDER_FETCH_DAYS", defaultOrderFetchDays),
		OrderConcurrency:      getInt(lookup, "ORDER_CONCURRENCY", defaultOrderConcurrency),
		ProductConcurrency:    getInt(lookup, "PRODUCT_CONCURRENCY", defaultProductConcurrency),
		RateLimitWindow:       getDuration(lookup, "RATE_LIMIT_WINDOW", defaultRateLimitWindow),
		RateLimitMaxRequests:  getInt(lookup, "RATE_LIMIT_MAX_REQUESTS", defaultRateLimitMaxRequests),
		AdminKeyHash:          getString(lookup, "ADMIN_KEY_HASH", ""),
		Environment:           getString(lookup, "APP_ENV", defaultEnvironment),
		LogLevel:              getString(lookup, "LOG_LEVEL", defaultLogLevel),
		ShutdownTimeout:       getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("catalogsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		catalogTimeoutStr  = cfg.CatalogTimeout.String()
		rateWindowStr      = cfg.RateLimitWindow.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		corsOrigins        = getString(lookup, "CORS_ORIGINS", defaultCORSOrigins)
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.CatalogBaseURL, "c", cfg.CatalogBaseURL, "Catalog store base URL")
	fs.StringVar(&cfg.ConsumerKey, "consumer-key", cfg.ConsumerKey, "Catalog API consumer key")
	fs.StringVar(&cfg.ConsumerSecret, "consumer-secret", cfg.ConsumerSecret, "Catalog API consumer secret")
	fs.StringVar(&catalogTimeoutStr, "catalog-timeout", catalogTimeoutStr, "Per request timeout for catalog calls")
	fs.Float64Var(&cfg.CatalogRequestsPerSec, "catalog-rps", cfg.CatalogRequestsPerSec, "Catalog requests per second, 0 disables pacing")
	fs.IntVar(&cfg.CatalogRetries, "catalog-retries", cfg.CatalogRetries, "Retries for transient catalog failures")
	fs.StringVar(&cfg.SyncCronSchedule, "cron", cfg.SyncCronSchedule, "Cron expression for scheduled sync")
	fs.IntVar(&cfg.OrderRetentionDays, "retention-days", cfg.OrderRetentionDays, "Days to keep orders locally")
	fs.IntVar(&cfg.OrderFetchDays, "fetch-days", cfg.OrderFetchDays, "Days of orders fetched per sync")
	fs.IntVar(&cfg.OrderConcurrency, "order-concurrency", cfg.OrderConcurrency, "Orders processed concurrently")
	fs.IntVar(&cfg.ProductConcurrency, "product-concurrency", cfg.ProductConcurrency, "Products resolved concurrently")
	fs.StringVar(&rateWindowStr, "rate-window", rateWindowStr, "API rate limit window")
	fs.IntVar(&cfg.RateLimitMaxRequests, "rate-max", cfg.RateLimitMaxRequests, "API requests allowed per window")
	fs.StringVar(&corsOrigins, "cors-origins", corsOrigins, "Comma separated list of allowed origins")
	fs.StringVar(&cfg.AdminKeyHash, "admin-key-hash", cfg.AdminKeyHash, "Bcrypt hash of the admin key")
	fs.StringVar(&cfg.Environment, "env", cfg.Environment, "Deployment environment: development, production, test")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.CatalogTimeout, err = time.ParseDuration(catalogTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid catalog timeout: %w", err)
	}

	if cfg.RateLimitWindow, err = time.ParseDuration(rateWindowStr); err != nil {
		return nil, fmt.Errorf("invalid rate limit window: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	for _, secret := range []struct {
		env    string
		target *string
	}{
		{"CATALOG_CONSUMER_KEY_FILE", &cfg.ConsumerKey},
		{"CATALOG_CONSUMER_SECRET_FILE", &cfg.ConsumerSecret},
		{"ADMIN_KEY_HASH_FILE", &cfg.AdminKeyHash},
	} {
		path, ok := lookup(secret.env)
		if !ok || path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", strings.ToLower(secret.env), err)
		}
		*secret.target = strings.TrimSpace(string(content))
	}

	cfg.CORSOrigins = splitList(corsOrigins)

	normalize(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func normalize(cfg *Config) {
	if cfg.CatalogTimeout <= 0 {
		cfg.CatalogTimeout = defaultCatalogTimeout
	}
	if cfg.CatalogRequestsPerSec < 0 {
		cfg.CatalogRequestsPerSec = 0
	}
	if cfg.CatalogRetries < 0 {
		cfg.CatalogRetries = defaultCatalogRetries
	}
	if cfg.OrderRetentionDays <= 0 {
		cfg.OrderRetentionDays = defaultOrderRetentionDays
	}
	if cfg.OrderFetchDays <= 0 {
		cfg.OrderFetchDays = defaultOrderFetchDays
	}
	if cfg.OrderConcurrency <= 0 {
		cfg.OrderConcurrency = defaultOrderConcurrency
	}
	if cfg.ProductConcurrency <= 0 {
		cfg.ProductConcurrency = defaultProductConcurrency
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = defaultRateLimitWindow
	}
	if cfg.RateLimitMaxRequests <= 0 {
		cfg.RateLimitMaxRequests = defaultRateLimitMaxRequests
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.SyncCronSchedule == "" {
		cfg.SyncCronSchedule = defaultSyncCronSchedule
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	switch cfg.Environment {
	case "development", "production", "test":
	default:
		cfg.Environment = defaultEnvironment
	}
}

func validate(cfg *Config) error {
	if cfg.DatabaseURI == "" {
		return fmt.Errorf("database URI must be provided")
	}

	if cfg.CatalogBaseURL == "" {
		return fmt.Errorf("catalog base URL must be provided")
	}
	u, err := url.Parse(cfg.CatalogBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("catalog base URL must be an absolute URL")
	}

	if len(cfg.ConsumerKey) < minCredentialLength {
		return fmt.Errorf("consumer key must be at least %d characters", minCredentialLength)
	}
	if len(cfg.ConsumerSecret) < minCredentialLength {
		return fmt.Errorf("consumer secret must be at least %d characters", minCredentialLength)
	}

	if len(cfg.CORSOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin must be provided")
	}
	for _, origin := range cfg.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid CORS origin %q", origin)
		}
	}

	if _, err := cron.ParseStandard(cfg.SyncCronSchedule); err != nil {
		return fmt.Errorf("invalid sync cron schedule: %w", err)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
