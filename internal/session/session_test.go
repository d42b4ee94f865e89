package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/price-hounds/farmaprice/internal/fetcher"
	"github.com/price-hounds/farmaprice/internal/parser"
	"github.com/price-hounds/farmaprice/internal/retry"
	"github.com/price-hounds/farmaprice/pkg/models"
)

// stubFetcher serves canned pages per page index.
type stubFetcher struct {
	pages map[int]*models.Page
	errs  map[int]error
	calls int32
}

func (f *stubFetcher) Fetch(ctx context.Context, q models.Query, pageIndex int) (*models.Page, error) {
	atomic.AddInt32(&f.calls, 1)
	if err, ok := f.errs[pageIndex]; ok {
		return nil, err
	}
	if p, ok := f.pages[pageIndex]; ok {
		return p, nil
	}
	return nil, fetcher.ErrNotFound
}

func listingPage(rows ...string) *models.Page {
	body := `<html><body><div class="listing_container">`
	for _, r := range rows {
		body += r
	}
	body += `</div></body></html>`
	return &models.Page{Body: []byte(body), StatusCode: 200, FetchedAt: time.Now()}
}

func row(seller string, price string, pack string) string {
	return fmt.Sprintf(`<li class="listing_item">
		<a href="https://shop.example/o"><span class="item_title">%s</span></a>
		<span class="merchant_name">%s</span>
		<div class="item_basic_price">%s</div>
	</li>`, pack, seller, price)
}

func defaultConfig() Config {
	return Config{MaxPages: 10, Timeout: time.Minute}
}

func TestRun_TwoPagesThenEmpty(t *testing.T) {
	f := &stubFetcher{pages: map[int]*models.Page{
		0: listingPage(
			row("Farmacia A", "5,00 €", "20 compresse"),
			row("Farmacia B", "6,00 €", "20 compresse"),
			row("Farmacia C", "7,00 €", "20 compresse"),
		),
		1: listingPage(),
	}}

	s := New(f, nil, defaultConfig())
	rs, err := s.Run(context.Background(), models.Query{Term: "tachipirina"})

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rs.Pages != 2 {
		t.Errorf("expected exactly 2 pages fetched, got %d", rs.Pages)
	}
	if f.calls != 2 {
		t.Errorf("expected exactly 2 fetch calls, got %d", f.calls)
	}
	if len(rs.Offers) != 3 {
		t.Errorf("expected 3 offers, got %d", len(rs.Offers))
	}
	if s.State() != StateDone {
		t.Errorf("expected Done state, got %s", s.State())
	}
}

func TestRun_NotFoundTerminatesPagination(t *testing.T) {
	f := &stubFetcher{pages: map[int]*models.Page{
		0: listingPage(row("Farmacia A", "5,00 €", "20 compresse")),
		// page 1 falls through to ErrNotFound
	}}

	rs, err := New(f, nil, defaultConfig()).Run(context.Background(), models.Query{Term: "x"})
	if err != nil {
		t.Fatalf("NotFound past page 0 must not fail the session: %v", err)
	}
	if len(rs.Offers) != 1 {
		t.Errorf("expected 1 offer, got %d", len(rs.Offers))
	}
}

func TestRun_NotFoundOnFirstPageFails(t *testing.T) {
	f := &stubFetcher{}

	_, err := New(f, nil, defaultConfig()).Run(context.Background(), models.Query{Term: "nonexistent"})

	var se *SessionError
	if !errors.As(err, &se) {
		t.Fatalf("expected SessionError, got %v", err)
	}
	if se.Page != 0 {
		t.Errorf("expected failure at page 0, got %d", se.Page)
	}
	if !errors.Is(err, fetcher.ErrNotFound) {
		t.Errorf("expected wrapped ErrNotFound, got %v", err)
	}
}

func TestRun_CaptchaPageFailsWithParseError(t *testing.T) {
	f := &stubFetcher{pages: map[int]*models.Page{
		0: {Body: []byte(`<html><body><h1>Verifica</h1></body></html>`), FetchedAt: time.Now()},
	}}

	s := New(f, nil, defaultConfig())
	rs, err := s.Run(context.Background(), models.Query{Term: "x"})

	if rs != nil {
		t.Error("failed session must not return results")
	}
	if !errors.Is(err, parser.ErrNotResultsPage) {
		t.Fatalf("expected ErrNotResultsPage, got %v", err)
	}
	if s.State() != StateFailed {
		t.Errorf("expected Failed state, got %s", s.State())
	}
}

func TestRun_MaxPagesHardCap(t *testing.T) {
	// Every page has offers; only the cap stops the session.
	pages := map[int]*models.Page{}
	for i := 0; i < 20; i++ {
		pages[i] = listingPage(row(fmt.Sprintf("Farmacia %02d", i), "5,00 €", "20 compresse"))
	}
	f := &stubFetcher{pages: pages}

	rs, err := New(f, nil, Config{MaxPages: 3, Timeout: time.Minute}).
		Run(context.Background(), models.Query{Term: "x"})

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rs.Pages != 3 {
		t.Errorf("expected the 3-page cap to hold, got %d pages", rs.Pages)
	}
}

func TestRun_MalformedRowsCountedNotFatal(t *testing.T) {
	f := &stubFetcher{pages: map[int]*models.Page{
		0: listingPage(
			row("Farmacia A", "5,00 €", "20 compresse"),
			row("Farmacia B", "chiamare", "20 compresse"),
			row("Farmacia C", "6,00 €", "formato convenienza"),
		),
		1: listingPage(),
	}}

	rs, err := New(f, nil, defaultConfig()).Run(context.Background(), models.Query{Term: "x"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(rs.Offers) != 1 {
		t.Errorf("expected 1 clean offer, got %d", len(rs.Offers))
	}
	if rs.Dropped != 2 {
		t.Errorf("expected 2 dropped records, got %d", rs.Dropped)
	}
}

func TestRun_PackFilter(t *testing.T) {
	f := &stubFetcher{pages: map[int]*models.Page{
		0: listingPage(
			row("Farmacia A", "5,00 €", "20 compresse"),
			row("Farmacia B", "6,00 €", "30 compresse"),
		),
		1: listingPage(),
	}}

	filter := &models.PackSize{Quantity: 30, Unit: "tablet"}
	rs, err := New(f, nil, defaultConfig()).Run(context.Background(), models.Query{Term: "x", PackFilter: filter})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(rs.Offers) != 1 || rs.Offers[0].Seller != "Farmacia B" {
		t.Errorf("expected only the 30-tablet offer, got %+v", rs.Offers)
	}
}

func TestRun_CancellationBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	pages := map[int]*models.Page{}
	for i := 0; i < 10; i++ {
		pages[i] = listingPage(row("Farmacia A", "5,00 €", "20 compresse"))
	}
	f := &stubFetcher{pages: pages}

	cancel()
	rs, err := New(f, nil, defaultConfig()).Run(ctx, models.Query{Term: "x"})

	if rs != nil {
		t.Error("cancelled session must not return partial results")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// slowFetcher serves the same page on every index after a fixed delay,
// honoring cancellation like the real fetcher does.
type slowFetcher struct {
	delay time.Duration
	page  *models.Page
}

func (f *slowFetcher) Fetch(ctx context.Context, q models.Query, pageIndex int) (*models.Page, error) {
	select {
	case <-time.After(f.delay):
		return f.page, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRun_TimeoutFailsSession(t *testing.T) {
	f := &slowFetcher{
		delay: 200 * time.Millisecond,
		page:  listingPage(row("Farmacia A", "5,00 €", "20 compresse")),
	}

	s := New(f, nil, Config{MaxPages: 10, Timeout: 20 * time.Millisecond})
	rs, err := s.Run(context.Background(), models.Query{Term: "x"})

	if rs != nil {
		t.Error("timed-out session must not return partial results")
	}
	var se *SessionError
	if !errors.As(err, &se) {
		t.Fatalf("expected SessionError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped DeadlineExceeded, got %v", err)
	}
	if s.State() != StateFailed {
		t.Errorf("expected Failed state, got %s", s.State())
	}
}

// End-to-end over a real Fetcher: the server throttles twice, then serves a
// results page; the session completes using the retried result.
func TestRun_SurvivesRateLimitingWithBackoff(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if r.URL.Query().Get("page") != "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(listingPage(row("Farmacia A", "5,00 €", "20 compresse")).Body)
	}))
	defer server.Close()

	var delays []time.Duration
	f := fetcher.New(&http.Client{Timeout: 5 * time.Second}, nil, nil, fetcher.Options{
		BaseURL:    server.URL,
		SearchPath: "/categorie.aspx",
		UserAgent:  "farmaprice-test/1.0",
		Retry: retry.Config{
			MaxAttempts:           4,
			InitialBackoff:        time.Millisecond,
			MaxBackoff:            10 * time.Millisecond,
			Multiplier:            2.0,
			RateLimitedMultiplier: 2.0,
			OnBackoff: func(attempt int, d time.Duration) {
				delays = append(delays, d)
			},
		},
	})

	rs, err := RunComparison(context.Background(), f, defaultConfig(), "tachipirina", nil)
	if err != nil {
		t.Fatalf("expected session to survive throttling, got %v", err)
	}
	if len(rs.Offers) != 1 {
		t.Errorf("expected 1 offer, got %d", len(rs.Offers))
	}
	if len(delays) != 2 {
		t.Errorf("expected two recorded backoff delays, got %d", len(delays))
	}
}
