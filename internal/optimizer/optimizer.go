// Package optimizer ranks pharmacies for a whole basket: given the stored
// offer snapshots for every basket product, it works out what each seller
// would charge for the full order, shipping included, and which sellers can
// cover it at all.
package optimizer

import (
	"sort"

	"github.com/price-hounds/farmaprice/pkg/models"
)

// Match is one basket product priced at one seller.
type Match struct {
	ProductCode string       `json:"product_code"`
	Price       models.Price `json:"price"`
	Quantity    int          `json:"quantity"`
	Subtotal    models.Price `json:"subtotal"`
}

// Option is one seller's quote for the basket.
type Option struct {
	Seller       string       `json:"seller"`
	Matches      []Match      `json:"matches"`
	FoundAll     bool         `json:"found_all"`
	MissingCount int          `json:"missing_count"`
	ItemsCost    models.Price `json:"items_cost"`
	ShippingCost models.Price `json:"shipping_cost"`
	TotalCost    models.Price `json:"total_cost"`
}

// Optimizer computes per-seller totals for one basket.
type Optimizer struct {
	options []Option
}

// New builds an Optimizer from the basket and the offers on its products.
// When a seller lists a product in several pack sizes, the cheapest listing
// wins. Shipping terms are taken from the seller's offers: the advertised
// base shipping cost, waived when the items total reaches the seller's
// free-shipping threshold.
func New(basket []models.BasketItem, offers []models.Offer) *Optimizer {
	quantities := make(map[string]int, len(basket))
	for _, item := range basket {
		quantities[item.ProductCode] = item.Quantity
	}

	// Cheapest listing per (seller, product)
	type sellerProduct struct{ seller, product string }
	cheapest := make(map[sellerProduct]models.Offer)
	for _, o := range offers {
		if _, wanted := quantities[o.Product]; !wanted {
			continue
		}
		key := sellerProduct{o.Seller, o.Product}
		if cur, ok := cheapest[key]; !ok || o.Price.Cents < cur.Price.Cents {
			cheapest[key] = o
		}
	}

	bySeller := make(map[string][]models.Offer)
	for key, o := range cheapest {
		bySeller[key.seller] = append(bySeller[key.seller], o)
	}

	options := make([]Option, 0, len(bySeller))
	for seller, sellerOffers := range bySeller {
		sort.Slice(sellerOffers, func(i, j int) bool {
			return sellerOffers[i].Product < sellerOffers[j].Product
		})

		opt := Option{Seller: seller}
		var itemsCents int64
		shipping := int64(0)
		var freeOver *int64

		for _, o := range sellerOffers {
			qty := quantities[o.Product]
			subtotal := o.Price.Cents * int64(qty)
			opt.Matches = append(opt.Matches, Match{
				ProductCode: o.Product,
				Price:       o.Price,
				Quantity:    qty,
				Subtotal:    models.EUR(subtotal),
			})
			itemsCents += subtotal

			// Shipping terms tend to repeat on every row; the highest
			// advertised base cost is the safe estimate.
			if o.Shipping.Cents > shipping {
				shipping = o.Shipping.Cents
			}
			if o.FreeShippingOver != nil {
				if freeOver == nil || o.FreeShippingOver.Cents < *freeOver {
					freeOver = &o.FreeShippingOver.Cents
				}
			}
		}

		if freeOver != nil && itemsCents >= *freeOver {
			shipping = 0
		}

		opt.FoundAll = len(opt.Matches) == len(quantities)
		opt.MissingCount = len(quantities) - len(opt.Matches)
		opt.ItemsCost = models.EUR(itemsCents)
		opt.ShippingCost = models.EUR(shipping)
		opt.TotalCost = models.EUR(itemsCents + shipping)
		options = append(options, opt)
	}

	return &Optimizer{options: options}
}

// Options returns every seller's quote, cheapest total first, full-coverage
// sellers ranked before partial ones.
func (o *Optimizer) Options() []Option {
	out := make([]Option, len(o.options))
	copy(out, o.options)
	sort.Slice(out, func(i, j int) bool {
		if out[i].FoundAll != out[j].FoundAll {
			return out[i].FoundAll
		}
		if out[i].TotalCost.Cents != out[j].TotalCost.Cents {
			return out[i].TotalCost.Cents < out[j].TotalCost.Cents
		}
		return out[i].Seller < out[j].Seller
	})
	return out
}

// Best returns up to limit sellers that cover the whole basket, cheapest
// total cost first.
func (o *Optimizer) Best(limit int) []Option {
	var valid []Option
	for _, opt := range o.Options() {
		if opt.FoundAll {
			valid = append(valid, opt)
		}
	}
	if limit > 0 && len(valid) > limit {
		valid = valid[:limit]
	}
	return valid
}
