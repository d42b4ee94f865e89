// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxAttempts           int           // Maximum number of attempts (first try included)
	InitialBackoff        time.Duration // Initial backoff duration
	MaxBackoff            time.Duration // Maximum backoff duration
	Multiplier            float64       // Backoff multiplier
	RateLimitedMultiplier float64       // Extra factor applied when the server signaled throttling

	// OnBackoff, when set, is invoked with the computed delay before each
	// sleep. Used for logging and for asserting backoff behavior in tests.
	OnBackoff func(attempt int, delay time.Duration)
}

// DefaultConfig returns a sensible default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:           4,
		InitialBackoff:        1 * time.Second,
		MaxBackoff:            30 * time.Second,
		Multiplier:            2.0,
		RateLimitedMultiplier: 2.0,
	}
}

// Retryable marks errors that are worth retrying. Transient network
// failures and server-side throttling implement it; permanent failures
// (404, malformed pages) do not.
type Retryable interface {
	Temporary() bool
}

// RateLimited marks errors caused by server-side throttling, which get a
// longer backoff than plain network errors.
type RateLimited interface {
	RateLimited() bool
}

// WithRetry executes the given function with retry logic
func WithRetry(ctx context.Context, cfg Config, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn()

		// Success
		if err == nil {
			if attempt > 0 {
				log.Debug().
					Int("attempts", attempt+1).
					Msg("Retry succeeded")
			}
			return nil
		}

		lastErr = err

		if !shouldRetry(err) {
			log.Debug().
				Err(err).
				Msg("Error is not retryable")
			return err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			backoff := calculateBackoff(attempt, cfg, isRateLimited(err))

			if cfg.OnBackoff != nil {
				cfg.OnBackoff(attempt+1, backoff)
			}

			log.Debug().
				Int("attempt", attempt+1).
				Int("max_attempts", cfg.MaxAttempts).
				Dur("backoff", backoff).
				Err(err).
				Msg("Retrying after backoff")

			// Wait for backoff duration or context cancellation
			select {
			case <-time.After(backoff):
				// Continue to next attempt
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	log.Warn().
		Int("attempts", cfg.MaxAttempts).
		Err(lastErr).
		Msg("Max retry attempts exceeded")

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// calculateBackoff computes the delay for the given attempt: exponential
// growth capped at MaxBackoff, with half-window jitter so parallel sessions
// don't retry in lockstep.
func calculateBackoff(attempt int, cfg Config, rateLimited bool) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))

	if rateLimited && cfg.RateLimitedMultiplier > 1 {
		backoff *= cfg.RateLimitedMultiplier
	}

	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	// Jitter: keep half the window, randomize the rest
	half := backoff / 2
	return time.Duration(half + rand.Float64()*half)
}

// shouldRetry determines if an error is retryable
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	if isRateLimited(err) {
		return true
	}

	// Context errors are terminal: the caller gave up
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var r Retryable
	if errors.As(err, &r) {
		return r.Temporary()
	}

	var t interface{ Timeout() bool }
	if errors.As(err, &t) {
		return t.Timeout()
	}

	// Default: don't retry what we can't classify
	return false
}

func isRateLimited(err error) bool {
	var rl RateLimited
	return errors.As(err, &rl) && rl.RateLimited()
}
