// Package normalize turns raw scraped offer records into canonical offers.
//
// Free-text price and pack parsing is organized as small ordered strategy
// lists (see price.go, pack.go): each strategy either applies cleanly or
// passes, so adding a newly observed format means appending a strategy, not
// growing a monolithic matcher. Input that no strategy claims is dropped,
// never guessed at.
package normalize

import (
	"strings"
	"time"

	"github.com/price-hounds/farmaprice/pkg/models"
)

// Normalize converts one raw record into a canonical Offer, or returns nil
// when the record's price or pack size cannot be confidently parsed.
// Malformed input is an expected outcome here, not an error: the caller
// counts nil results and moves on.
//
// The invariants on Offer hold by construction: prices come out of digit
// matching and cannot be negative, and ParsePack rejects non-positive
// quantities.
func Normalize(rec models.RawOfferRecord, product string, fetchedAt time.Time) *models.Offer {
	price, ok := ParsePrice(rec.PriceText)
	if !ok {
		return nil
	}

	pack, ok := ParsePack(rec.PackText)
	if !ok {
		return nil
	}

	offer := &models.Offer{
		Seller:    CleanSeller(rec.Seller),
		Product:   product,
		Price:     price,
		Pack:      pack,
		URL:       rec.URL,
		FetchedAt: fetchedAt,
	}
	if offer.Seller == "" {
		return nil
	}

	// Shipping terms are optional decoration: a row that doesn't advertise
	// them is still a valid offer.
	if shipping, ok := ParseShipping(rec.ShippingText); ok {
		offer.Shipping = shipping
	}
	if threshold, ok := ParsePrice(rec.FreeShippingText); ok {
		offer.FreeShippingOver = &threshold
	}

	return offer
}

// CleanSeller trims and collapses whitespace in a scraped merchant name.
func CleanSeller(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
