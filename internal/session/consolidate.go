// internal/session/consolidate.go
package session

import (
	"sort"

	"github.com/price-hounds/farmaprice/pkg/models"
)

// Consolidate merges a sequence of offers into a deduplicated, ranked
// ResultSet. Offers sharing (seller, product, pack size) collapse to one:
// the lowest price wins, and on equal prices the most recently fetched.
//
// Final ordering is ascending by effective unit price, price divided by
// pack quantity, so a 50-tablet pack at 20.00 ranks against a 10-tablet
// pack at 3.00 on the per-tablet cost rather than the sticker price. Unit
// prices compare by cross-multiplication to stay exact. Ties break on
// seller, then pack quantity, for determinism.
//
// Consolidate is idempotent: feeding its output back in yields the same
// ResultSet.
func Consolidate(offers []models.Offer) models.ResultSet {
	best := make(map[models.OfferKey]models.Offer, len(offers))

	for _, o := range offers {
		key := o.Key()
		cur, seen := best[key]
		if !seen || cheaper(o, cur) {
			best[key] = o
		}
	}

	merged := make([]models.Offer, 0, len(best))
	for _, o := range best {
		merged = append(merged, o)
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		// a.Price/a.Qty < b.Price/b.Qty without division
		l := a.Price.Cents * int64(b.Pack.Quantity)
		r := b.Price.Cents * int64(a.Pack.Quantity)
		if l != r {
			return l < r
		}
		if a.Seller != b.Seller {
			return a.Seller < b.Seller
		}
		return a.Pack.Quantity < b.Pack.Quantity
	})

	return models.ResultSet{Offers: merged}
}

// cheaper reports whether candidate should replace incumbent within one
// deduplication group.
func cheaper(candidate, incumbent models.Offer) bool {
	if candidate.Price.Cents != incumbent.Price.Cents {
		return candidate.Price.Cents < incumbent.Price.Cents
	}
	return candidate.FetchedAt.After(incumbent.FetchedAt)
}
