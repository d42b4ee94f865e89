// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/price-hounds/farmaprice/internal/cache"
	"github.com/price-hounds/farmaprice/internal/config"
	"github.com/price-hounds/farmaprice/internal/fetcher"
	"github.com/price-hounds/farmaprice/internal/ratelimit"
	"github.com/price-hounds/farmaprice/internal/retry"
	"github.com/price-hounds/farmaprice/internal/session"
	"github.com/price-hounds/farmaprice/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Cache       cache.Cache
	RateLimiter ratelimit.RateLimiter
	HTTPClient  *http.Client
	Fetcher     *fetcher.Fetcher
	Store       *storage.Store
	startTime   time.Time
}

// logLevelFor maps a config log level name to a zerolog level. Unknown
// names fall back to info, matching the documented default.
func logLevelFor(name string) zerolog.Level {
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates and initializes the in-memory page cache
//   - Creates the rate limiter for host-based request throttling
//   - Initializes the HTTP client with proper timeouts
//   - Creates the fetcher with retry and backoff settings
//   - Opens the SQLite store for catalog, basket and offer snapshots
//
// If any step fails, an error is returned and no resources are allocated.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Initialize logger based on config
	zerolog.SetGlobalLevel(logLevelFor(cfg.LogLevel))

	var logWriter io.Writer
	if cfg.JSONLog {
		// JSON logs to stderr
		logWriter = os.Stderr
	} else {
		// Human-friendly console output otherwise
		logWriter = zerolog.NewConsoleWriter()
	}

	logger := log.Output(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	memCache := cache.NewMemoryCache(cfg.CacheMaxSizeBytes)
	logger.Debug().
		Int64("max_size_bytes", cfg.CacheMaxSizeBytes).
		Msg("Page cache initialized")

	limiter := ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   false,
		},
	}

	f := fetcher.New(httpClient, memCache, limiter, fetcher.Options{
		BaseURL:    cfg.BaseURL,
		SearchPath: cfg.SearchPath,
		UserAgent:  cfg.UserAgent,
		CacheTTL:   cfg.CacheTTL,
		Retry: retry.Config{
			MaxAttempts:           cfg.MaxAttempts,
			InitialBackoff:        cfg.InitialBackoff,
			MaxBackoff:            cfg.MaxBackoff,
			Multiplier:            2.0,
			RateLimitedMultiplier: 2.0,
		},
	})

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		memCache.Close()
		return nil, err
	}

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Cache:       memCache,
		RateLimiter: limiter,
		HTTPClient:  httpClient,
		Fetcher:     f,
		Store:       store,
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return app, nil
}

// SessionConfig returns the per-query bounds every comparison session runs
// under.
func (a *Application) SessionConfig() session.Config {
	return session.Config{
		MaxPages: a.Config.MaxPages,
		Timeout:  a.Config.SessionTimeout,
	}
}

// Close gracefully shuts down the application and all its resources.
//
// A context with a timeout should be provided to prevent indefinite blocking.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing store")
		}
	}

	if a.Cache != nil {
		a.Cache.Close()
	}

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	uptime := time.Since(a.startTime)
	a.Logger.Debug().Dur("uptime", uptime).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
