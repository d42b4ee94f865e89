package models

import (
	"fmt"
	"time"
)

// Price is a fixed-point monetary amount. Storing cents avoids the float
// rounding issues that show up when comparing prices parsed from free text.
type Price struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
}

// EUR builds a euro price from a cent amount.
func EUR(cents int64) Price {
	return Price{Cents: cents, Currency: "EUR"}
}

// IsZero reports whether the price is exactly zero.
func (p Price) IsZero() bool {
	return p.Cents == 0
}

// String formats the price for display, e.g. "12.50 EUR".
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d %s", p.Cents/100, p.Cents%100, p.Currency)
}

// PackSize is a normalized pack description: a positive quantity of a
// canonical unit token ("tablet", "capsule", "ml", "mg", "g", "sachet").
type PackSize struct {
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
}

func (ps PackSize) String() string {
	return fmt.Sprintf("%d %s", ps.Quantity, ps.Unit)
}

// Query describes one comparison request. It is created by the caller and
// never mutated afterwards.
type Query struct {
	// Term is the search term, typically a product name or Minsan code.
	Term string
	// PackFilter, when non-nil, restricts results to offers whose
	// normalized pack size matches exactly.
	PackFilter *PackSize
}

// RawOfferRecord is one scraped listing row before any cleaning. All fields
// are free text lifted straight out of the markup; the normalizer decides
// what survives.
type RawOfferRecord struct {
	Seller           string
	PriceText        string
	PackText         string
	ShippingText     string
	FreeShippingText string
	URL              string
}

// Offer is a single seller's canonical price quote for a specific pack size
// of a product. Offers are only constructed with a non-negative price and a
// positive pack quantity; records failing either are dropped upstream.
type Offer struct {
	Seller  string   `json:"seller"`
	Product string   `json:"product"`
	Price   Price    `json:"price"`
	Pack    PackSize `json:"pack"`

	// Shipping terms as advertised on the listing row. FreeShippingOver is
	// nil when the seller advertises no threshold.
	Shipping         Price  `json:"shipping"`
	FreeShippingOver *Price `json:"free_shipping_over,omitempty"`

	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
}

// UnitPriceCents returns the effective per-unit price in cents. Only
// meaningful for display; ranking compares cross-multiplied integers to stay
// exact.
func (o Offer) UnitPriceCents() float64 {
	return float64(o.Price.Cents) / float64(o.Pack.Quantity)
}

// Key identifies the deduplication group an offer belongs to.
func (o Offer) Key() OfferKey {
	return OfferKey{Seller: o.Seller, Product: o.Product, Pack: o.Pack}
}

// OfferKey is the (seller, product, pack size) identity used for merging
// duplicate listings.
type OfferKey struct {
	Seller  string
	Product string
	Pack    PackSize
}

// ResultSet is the ordered outcome of one comparison session: offers unique
// by OfferKey, sorted ascending by effective unit price. It is never mutated
// after the session completes.
type ResultSet struct {
	Query   Query   `json:"-"`
	Offers  []Offer `json:"offers"`
	Dropped int     `json:"dropped"`
	Pages   int     `json:"pages"`
}

// Page is the raw content of one fetched result page.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	FetchedAt  time.Time
}

// Product is a catalog entry the user tracks, keyed by its Minsan code.
type Product struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// BasketItem is a desired quantity of a catalog product.
type BasketItem struct {
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
}
