package optimizer

import (
	"testing"
	"time"

	"github.com/price-hounds/farmaprice/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sellerOffer(seller, product string, cents int64, shippingCents int64, freeOver *int64) models.Offer {
	o := models.Offer{
		Seller:    seller,
		Product:   product,
		Price:     models.EUR(cents),
		Pack:      models.PackSize{Quantity: 20, Unit: "tablet"},
		Shipping:  models.EUR(shippingCents),
		FetchedAt: time.Now(),
	}
	if freeOver != nil {
		p := models.EUR(*freeOver)
		o.FreeShippingOver = &p
	}
	return o
}

func TestBest_RanksByTotalCost(t *testing.T) {
	basket := []models.BasketItem{
		{ProductCode: "A", Quantity: 2},
		{ProductCode: "B", Quantity: 1},
	}

	offers := []models.Offer{
		// Cheap items, expensive shipping: 2*500 + 700 + 600 = 2300
		sellerOffer("Farmacia Cara", "A", 500, 600, nil),
		sellerOffer("Farmacia Cara", "B", 700, 600, nil),
		// Pricier items, cheap shipping: 2*550 + 750 + 300 = 2150
		sellerOffer("Farmacia Media", "A", 550, 300, nil),
		sellerOffer("Farmacia Media", "B", 750, 300, nil),
	}

	best := New(basket, offers).Best(0)
	require.Len(t, best, 2)
	assert.Equal(t, "Farmacia Media", best[0].Seller)
	assert.Equal(t, int64(2150), best[0].TotalCost.Cents)
	assert.Equal(t, int64(2300), best[1].TotalCost.Cents)
}

func TestBest_FreeShippingThreshold(t *testing.T) {
	basket := []models.BasketItem{{ProductCode: "A", Quantity: 3}}
	over := int64(1400)

	offers := []models.Offer{
		sellerOffer("Farmacia Soglia", "A", 500, 399, &over),
	}

	best := New(basket, offers).Best(1)
	require.Len(t, best, 1)
	// 3*500 = 1500 >= 1400, shipping waived
	assert.True(t, best[0].ShippingCost.IsZero())
	assert.Equal(t, int64(1500), best[0].TotalCost.Cents)
}

func TestBest_ExcludesPartialCoverage(t *testing.T) {
	basket := []models.BasketItem{
		{ProductCode: "A", Quantity: 1},
		{ProductCode: "B", Quantity: 1},
	}

	offers := []models.Offer{
		sellerOffer("Solo A", "A", 400, 0, nil),
		sellerOffer("Tutto", "A", 500, 0, nil),
		sellerOffer("Tutto", "B", 500, 0, nil),
	}

	opt := New(basket, offers)

	best := opt.Best(3)
	require.Len(t, best, 1)
	assert.Equal(t, "Tutto", best[0].Seller)

	// The partial seller still shows up in the full option list
	all := opt.Options()
	require.Len(t, all, 2)
	assert.Equal(t, "Solo A", all[1].Seller)
	assert.Equal(t, 1, all[1].MissingCount)
}

func TestNew_CheapestListingPerSellerWins(t *testing.T) {
	basket := []models.BasketItem{{ProductCode: "A", Quantity: 1}}

	offers := []models.Offer{
		sellerOffer("Farmacia X", "A", 600, 0, nil),
		sellerOffer("Farmacia X", "A", 450, 0, nil),
	}

	best := New(basket, offers).Best(1)
	require.Len(t, best, 1)
	assert.Equal(t, int64(450), best[0].TotalCost.Cents)
}

func TestBest_LimitApplies(t *testing.T) {
	basket := []models.BasketItem{{ProductCode: "A", Quantity: 1}}

	var offers []models.Offer
	for i, seller := range []string{"Uno", "Due", "Tre", "Quattro"} {
		offers = append(offers, sellerOffer(seller, "A", int64(100*(i+1)), 0, nil))
	}

	best := New(basket, offers).Best(2)
	assert.Len(t, best, 2)
	assert.Equal(t, "Uno", best[0].Seller)
}
