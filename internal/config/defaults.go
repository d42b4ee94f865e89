package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel  = "info"
	DefaultJSONLog   = false
	DefaultUserAgent = "farmaprice/1.0 (https://github.com/price-hounds/farmaprice)"

	DefaultBaseURL     = "https://www.trovaprezzi.it"
	DefaultSearchPath  = "/categorie.aspx"
	DefaultHTTPTimeout = 30 * time.Second

	DefaultRateLimitRPS   = 2.0
	DefaultRateLimitBurst = 4

	DefaultMaxAttempts    = 4
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 30 * time.Second

	DefaultMaxPages       = 10
	DefaultSessionTimeout = 5 * time.Minute

	DefaultCacheTTL          = 5 * time.Minute
	DefaultCacheMaxSizeBytes = 50 * 1024 * 1024 // 50MB

	DefaultDatabasePath = "farmaprice.db"
)
