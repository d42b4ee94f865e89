// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting implementations.
//
// Implementations should provide methods to control request rates,
// typically on a per-host basis to avoid overwhelming the aggregator and
// triggering throttling or bans.
type RateLimiter interface {
	// Wait blocks until a request for the given URL can proceed.
	// If the context is cancelled before the rate limit allows, an error is returned.
	Wait(ctx context.Context, urlStr string) error

	// Allow checks if a request for the given URL can proceed immediately
	// without blocking. Returns true if allowed, false otherwise.
	Allow(urlStr string) bool
}

// HostLimiter provides per-host rate limiting using the token bucket
// algorithm. One comparison session only ever talks to one host, but
// independent sessions share the limiter, so the budget holds process-wide.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit // Requests per second per host
	burst    int        // Burst capacity
}

// NewHostLimiter creates a new rate limiter with the specified per-host rate
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2.0 // Default: 2 requests/sec per host
	}
	if burst <= 0 {
		burst = 4
	}

	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the request for the given URL can proceed according to rate limits
func (hl *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	host := extractHost(urlStr)
	if host == "" {
		// Invalid URL, let it proceed (will fail elsewhere)
		return nil
	}

	return hl.getLimiter(host).Wait(ctx)
}

// Allow checks if a request can proceed immediately without blocking
func (hl *HostLimiter) Allow(urlStr string) bool {
	host := extractHost(urlStr)
	if host == "" {
		return true
	}

	return hl.getLimiter(host).Allow()
}

// getLimiter returns or creates a rate limiter for the given host
func (hl *HostLimiter) getLimiter(host string) *rate.Limiter {
	hl.mu.RLock()
	limiter, exists := hl.limiters[host]
	hl.mu.RUnlock()

	if exists {
		return limiter
	}

	hl.mu.Lock()
	defer hl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := hl.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(hl.perHost, hl.burst)
	hl.limiters[host] = limiter

	return limiter
}

// extractHost extracts the host from a URL string
func extractHost(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
