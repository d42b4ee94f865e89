// internal/fetcher/fetcher.go
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/price-hounds/farmaprice/internal/cache"
	"github.com/price-hounds/farmaprice/internal/ratelimit"
	"github.com/price-hounds/farmaprice/internal/retry"
	"github.com/price-hounds/farmaprice/pkg/models"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds how much of a result page we are willing to read.
const maxBodyBytes = 4 << 20 // 4MB

// Fetcher retrieves raw search-result pages from the price aggregator.
// It owns retries, backoff, rate limiting and the page cache; callers see
// either a page or one of the errors in errors.go.
type Fetcher struct {
	client    *http.Client
	cache     cache.Cache
	limiter   ratelimit.RateLimiter
	retryCfg  retry.Config
	baseURL   string
	path      string
	userAgent string
	cacheTTL  time.Duration
}

// Options configures a Fetcher.
type Options struct {
	BaseURL    string
	SearchPath string
	UserAgent  string
	CacheTTL   time.Duration
	Retry      retry.Config
}

// New creates a Fetcher with dependency injection
func New(client *http.Client, c cache.Cache, lim ratelimit.RateLimiter, opts Options) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		client:    client,
		cache:     c,
		limiter:   lim,
		retryCfg:  opts.Retry,
		baseURL:   opts.BaseURL,
		path:      opts.SearchPath,
		userAgent: opts.UserAgent,
		cacheTTL:  opts.CacheTTL,
	}
}

// PageURL builds the request URL for one result page of a query. Page
// indexes are zero-based in the API and one-based in the site's query
// parameter.
func (f *Fetcher) PageURL(query models.Query, pageIndex int) string {
	v := url.Values{}
	v.Set("libera", query.Term)
	v.Set("page", strconv.Itoa(pageIndex+1))
	return f.baseURL + f.path + "?" + v.Encode()
}

// Fetch retrieves the raw content of one result page. It returns
// ErrNotFound when the page does not exist, a *RateLimitError after retry
// exhaustion on throttling, or a *NetworkError for transport failures.
func (f *Fetcher) Fetch(ctx context.Context, query models.Query, pageIndex int) (*models.Page, error) {
	if pageIndex < 0 {
		return nil, fmt.Errorf("page index must be >= 0, got %d", pageIndex)
	}

	pageURL := f.PageURL(query, pageIndex)

	if f.cache != nil {
		if page, ok := f.cache.Get(pageURL); ok {
			return page, nil
		}
	}

	var page *models.Page
	err := retry.WithRetry(ctx, f.retryCfg, func() error {
		var err error
		page, err = f.fetchOnce(ctx, pageURL)
		return err
	})
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		_ = f.cache.Set(pageURL, page, f.cacheTTL)
	}
	return page, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (*models.Page, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, pageURL); err != nil {
			return nil, err
		}
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, &RateLimitError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, &NetworkError{URL: pageURL, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("fetch %s: unexpected HTTP %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{URL: pageURL, Err: err}
	}

	log.Debug().
		Str("url", pageURL).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Fetch completed")

	return &models.Page{
		URL:        pageURL,
		StatusCode: resp.StatusCode,
		Body:       body,
		FetchedAt:  time.Now(),
	}, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
