package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP/Scraping
	BaseURL     string
	SearchPath  string
	HTTPTimeout time.Duration
	UserAgent   string

	// Rate Limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Retry/Backoff
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Session
	MaxPages       int
	SessionTimeout time.Duration

	// Caching
	CacheTTL          time.Duration
	CacheMaxSizeBytes int64

	// Storage
	DatabasePath string
}

// Load builds a Config by combining defaults, an optional YAML config file,
// environment variables, and CLI flags, in that order of precedence. A flag
// only overrides the layers below when the user actually set it; registered
// flag defaults never shadow file or env values.
// Caller should pass the executing *cobra.Command so inherited persistent
// flags resolve.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		BaseURL:           DefaultBaseURL,
		SearchPath:        DefaultSearchPath,
		HTTPTimeout:       DefaultHTTPTimeout,
		UserAgent:         DefaultUserAgent,
		RateLimitRPS:      DefaultRateLimitRPS,
		RateLimitBurst:    DefaultRateLimitBurst,
		MaxAttempts:       DefaultMaxAttempts,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		MaxPages:          DefaultMaxPages,
		SessionTimeout:    DefaultSessionTimeout,
		CacheTTL:          DefaultCacheTTL,
		CacheMaxSizeBytes: DefaultCacheMaxSizeBytes,
		DatabasePath:      DefaultDatabasePath,
	}

	// Optional config file, either from --config or FARMAPRICE_CONFIG
	path := os.Getenv("FARMAPRICE_CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// Override from environment variables (simple helpers)
	if v := os.Getenv("FARMAPRICE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("FARMAPRICE_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("FARMAPRICE_DB"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("FARMAPRICE_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxPages = n
		}
	}

	// Flags the user explicitly set win over everything. Checking Changed
	// matters: flags like --timeout carry a non-empty default, and an unset
	// default must not clobber a file or env value.
	if cmd != nil {
		if f := cmd.Flags().Lookup("base-url"); f != nil && f.Changed {
			cfg.BaseURL = f.Value.String()
		}
		if f := cmd.Flags().Lookup("user-agent"); f != nil && f.Changed {
			cfg.UserAgent = f.Value.String()
		}
		if f := cmd.Flags().Lookup("timeout"); f != nil && f.Changed {
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.HTTPTimeout = d
			}
		}
		if f := cmd.Flags().Lookup("max-pages"); f != nil && f.Changed {
			if n, err := strconv.Atoi(f.Value.String()); err == nil && n > 0 {
				cfg.MaxPages = n
			}
		}
		if f := cmd.Flags().Lookup("db"); f != nil && f.Changed {
			cfg.DatabasePath = f.Value.String()
		}
		if f := cmd.Flags().Lookup("json-log"); f != nil && f.Changed {
			cfg.JSONLog = f.Value.String() == "true"
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
		if f := cmd.Flags().Lookup("quiet"); f != nil && f.Changed {
			if f.Value.String() == "true" {
				cfg.LogLevel = "error"
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// fileConfig mirrors Config for YAML decoding. Durations are strings in
// time.ParseDuration syntax ("30s", "5m") and every field is optional: only
// keys present in the file override the running config.
type fileConfig struct {
	LogLevel          *string  `yaml:"log_level"`
	JSONLog           *bool    `yaml:"json_log"`
	BaseURL           *string  `yaml:"base_url"`
	SearchPath        *string  `yaml:"search_path"`
	HTTPTimeout       *string  `yaml:"http_timeout"`
	UserAgent         *string  `yaml:"user_agent"`
	RateLimitRPS      *float64 `yaml:"rate_limit_rps"`
	RateLimitBurst    *int     `yaml:"rate_limit_burst"`
	MaxAttempts       *int     `yaml:"max_attempts"`
	InitialBackoff    *string  `yaml:"initial_backoff"`
	MaxBackoff        *string  `yaml:"max_backoff"`
	MaxPages          *int     `yaml:"max_pages"`
	SessionTimeout    *string  `yaml:"session_timeout"`
	CacheTTL          *string  `yaml:"cache_ttl"`
	CacheMaxSizeBytes *int64   `yaml:"cache_max_size_bytes"`
	DatabasePath      *string  `yaml:"database_path"`
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.BaseURL, fc.BaseURL)
	setString(&cfg.SearchPath, fc.SearchPath)
	setString(&cfg.UserAgent, fc.UserAgent)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	if fc.JSONLog != nil {
		cfg.JSONLog = *fc.JSONLog
	}
	if fc.RateLimitRPS != nil {
		cfg.RateLimitRPS = *fc.RateLimitRPS
	}
	if fc.RateLimitBurst != nil {
		cfg.RateLimitBurst = *fc.RateLimitBurst
	}
	if fc.MaxAttempts != nil {
		cfg.MaxAttempts = *fc.MaxAttempts
	}
	if fc.MaxPages != nil {
		cfg.MaxPages = *fc.MaxPages
	}
	if fc.CacheMaxSizeBytes != nil {
		cfg.CacheMaxSizeBytes = *fc.CacheMaxSizeBytes
	}

	durations := []struct {
		key string
		src *string
		dst *time.Duration
	}{
		{"http_timeout", fc.HTTPTimeout, &cfg.HTTPTimeout},
		{"initial_backoff", fc.InitialBackoff, &cfg.InitialBackoff},
		{"max_backoff", fc.MaxBackoff, &cfg.MaxBackoff},
		{"session_timeout", fc.SessionTimeout, &cfg.SessionTimeout},
		{"cache_ttl", fc.CacheTTL, &cfg.CacheTTL},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.key, err)
		}
		*d.dst = parsed
	}

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
