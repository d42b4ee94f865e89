package fetcher

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound signals that the requested result page does not exist. At
// page index zero it means the query resolves to nothing; at higher indexes
// it is the normal pagination terminator.
var ErrNotFound = errors.New("result page not found")

// NetworkError is a transient transport failure (connection refused,
// timeout, 5xx). The retry layer treats it as retryable.
type NetworkError struct {
	URL        string
	StatusCode int // zero when the request never completed
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Temporary marks the error retryable.
func (e *NetworkError) Temporary() bool { return true }

// RateLimitError signals server-side throttling (429 or 503). The retry
// layer applies a longer backoff to these than to plain network errors.
type RateLimitError struct {
	URL        string
	StatusCode int
	RetryAfter time.Duration // zero when the server sent no hint
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("fetch %s: rate limited (HTTP %d)", e.URL, e.StatusCode)
}

func (e *RateLimitError) Temporary() bool   { return true }
func (e *RateLimitError) RateLimited() bool { return true }
