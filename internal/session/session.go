// Package session orchestrates one price comparison: it drives the fetch →
// parse → normalize → consolidate pipeline across all result pages of a
// single query.
//
// A session is sequential by design: whether page N+1 exists is only known
// after folding page N, and deduplication tie-breaks depend on a
// deterministic accumulation order. Independent sessions share no mutable
// state and run fully in parallel.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/price-hounds/farmaprice/internal/fetcher"
	"github.com/price-hounds/farmaprice/internal/normalize"
	"github.com/price-hounds/farmaprice/internal/parser"
	"github.com/price-hounds/farmaprice/pkg/models"
	"github.com/rs/zerolog/log"
)

// State is the session's position in its lifecycle. Exposed for tests and
// for shells that want to render progress.
type State string

const (
	StateIdle         State = "idle"
	StateFetching     State = "fetching"
	StateParsing      State = "parsing"
	StateAccumulating State = "accumulating"
	StateFinalizing   State = "finalizing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// PageFetcher is the one blocking dependency of a session.
type PageFetcher interface {
	Fetch(ctx context.Context, query models.Query, pageIndex int) (*models.Page, error)
}

// ParseFunc extracts raw offer records from page content.
type ParseFunc func(content []byte) ([]models.RawOfferRecord, error)

// Config bounds a session against a misbehaving site.
type Config struct {
	// MaxPages is a hard cap on pages fetched for one query.
	MaxPages int
	// Timeout is the overall wall-clock budget for the whole session.
	Timeout time.Duration
}

// Session runs one comparison query to completion. It is single-use: create
// one per query, call Run once, read the ResultSet.
type Session struct {
	fetcher PageFetcher
	parse   ParseFunc
	cfg     Config
	state   State
}

// New creates a session. A nil parse function defaults to the production
// parser.
func New(f PageFetcher, parse ParseFunc, cfg Config) *Session {
	if parse == nil {
		parse = parser.Parse
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &Session{fetcher: f, parse: parse, cfg: cfg, state: StateIdle}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Run fetches and folds every result page for the query and returns the
// consolidated ResultSet. On any unrecovered error it returns a
// *SessionError and no results: accumulated pages are discarded rather than
// surfaced as a silently truncated list.
//
// Cancellation is cooperative, checked at the top of each page iteration.
func (s *Session) Run(ctx context.Context, query models.Query) (*models.ResultSet, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	var accumulated []models.Offer
	dropped := 0
	pages := 0

	for pageIndex := 0; pageIndex < s.cfg.MaxPages; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(query, pageIndex, err)
		}

		s.transition(StateFetching, pageIndex)
		page, err := s.fetcher.Fetch(ctx, query, pageIndex)
		if err != nil {
			if errors.Is(err, fetcher.ErrNotFound) && pageIndex > 0 {
				// Normal pagination terminator
				break
			}
			return nil, s.fail(query, pageIndex, err)
		}
		pages++

		s.transition(StateParsing, pageIndex)
		records, err := s.parse(page.Body)
		if err != nil {
			return nil, s.fail(query, pageIndex, err)
		}

		s.transition(StateAccumulating, pageIndex)
		if len(records) == 0 {
			break
		}
		for _, rec := range records {
			offer := normalize.Normalize(rec, query.Term, page.FetchedAt)
			if offer == nil {
				dropped++
				continue
			}
			if query.PackFilter != nil && offer.Pack != *query.PackFilter {
				continue
			}
			accumulated = append(accumulated, *offer)
		}
	}

	s.transition(StateFinalizing, pages)
	result := Consolidate(accumulated)
	result.Query = query
	result.Dropped = dropped
	result.Pages = pages

	s.state = StateDone
	log.Debug().
		Str("term", query.Term).
		Int("pages", pages).
		Int("offers", len(result.Offers)).
		Int("dropped", dropped).
		Msg("Comparison session done")

	return &result, nil
}

func (s *Session) transition(next State, pageIndex int) {
	s.state = next
	log.Debug().
		Str("state", string(next)).
		Int("page", pageIndex).
		Msg("Session state")
}

func (s *Session) fail(query models.Query, pageIndex int, err error) error {
	s.state = StateFailed
	log.Warn().
		Str("term", query.Term).
		Int("page", pageIndex).
		Err(err).
		Msg("Comparison session failed")
	return &SessionError{Query: query, Page: pageIndex, Err: err}
}

// RunComparison is the single inbound call for shells: it runs one complete
// session for the search term and returns its ResultSet.
func RunComparison(ctx context.Context, f PageFetcher, cfg Config, term string, packFilter *models.PackSize) (*models.ResultSet, error) {
	query := models.Query{Term: term, PackFilter: packFilter}
	return New(f, nil, cfg).Run(ctx, query)
}
