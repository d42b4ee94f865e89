package storage

import (
	"context"
	"testing"
	"time"

	"github.com/price-hounds/farmaprice/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCatalogCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddProduct(ctx, models.Product{Code: "982473682", Name: "Tachipirina 500"}))

	err := s.AddProduct(ctx, models.Product{Code: "982473682", Name: "Something else"})
	assert.ErrorIs(t, err, ErrProductExists)

	require.NoError(t, s.UpdateProduct(ctx, "982473682", "Tachipirina 500 mg"))

	p, err := s.GetProduct(ctx, "982473682")
	require.NoError(t, err)
	assert.Equal(t, "Tachipirina 500 mg", p.Name)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	require.NoError(t, s.RemoveProduct(ctx, "982473682"))
	_, err = s.GetProduct(ctx, "982473682")
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.ErrorIs(t, s.UpdateProduct(ctx, "missing", "x"), ErrProductNotFound)
	assert.ErrorIs(t, s.RemoveProduct(ctx, "missing"), ErrProductNotFound)
}

func TestBasketOperations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddProduct(ctx, models.Product{Code: "A", Name: "Product A"}))

	// Unknown products can't be basketed
	assert.ErrorIs(t, s.AddToBasket(ctx, "nope", 1), ErrProductNotFound)

	require.NoError(t, s.AddToBasket(ctx, "A", 2))
	require.NoError(t, s.AddToBasket(ctx, "A", 3)) // sums with existing row

	basket, err := s.ListBasket(ctx)
	require.NoError(t, err)
	require.Len(t, basket, 1)
	assert.Equal(t, 5, basket[0].Quantity)

	require.NoError(t, s.SetBasketQuantity(ctx, "A", 1))
	basket, _ = s.ListBasket(ctx)
	assert.Equal(t, 1, basket[0].Quantity)

	assert.Error(t, s.SetBasketQuantity(ctx, "A", 0))
	assert.ErrorIs(t, s.SetBasketQuantity(ctx, "B", 1), ErrNotInBasket)

	require.NoError(t, s.RemoveFromBasket(ctx, "A"))
	assert.ErrorIs(t, s.RemoveFromBasket(ctx, "A"), ErrNotInBasket)
}

func TestRemoveProductCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddProduct(ctx, models.Product{Code: "A", Name: "Product A"}))
	require.NoError(t, s.AddToBasket(ctx, "A", 1))
	require.NoError(t, s.ReplaceOffers(ctx, "A", []models.Offer{{
		Seller:    "Farmacia X",
		Product:   "A",
		Price:     models.EUR(500),
		Pack:      models.PackSize{Quantity: 20, Unit: "tablet"},
		FetchedAt: time.Now(),
	}}))

	require.NoError(t, s.RemoveProduct(ctx, "A"))

	basket, err := s.ListBasket(ctx)
	require.NoError(t, err)
	assert.Empty(t, basket)

	offers, err := s.OffersForProducts(ctx, []string{"A"})
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestReplaceOffersRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddProduct(ctx, models.Product{Code: "A", Name: "Product A"}))

	threshold := models.EUR(4990)
	in := []models.Offer{{
		Seller:           "Farmacia Loreto",
		Product:          "A",
		Price:            models.EUR(490),
		Pack:             models.PackSize{Quantity: 20, Unit: "tablet"},
		Shipping:         models.EUR(399),
		FreeShippingOver: &threshold,
		URL:              "https://shop.example/1",
		FetchedAt:        time.Now().UTC(),
	}}

	require.NoError(t, s.ReplaceOffers(ctx, "A", in))

	// A second snapshot replaces, never appends
	require.NoError(t, s.ReplaceOffers(ctx, "A", in))

	out, err := s.OffersForProducts(ctx, []string{"A"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, "Farmacia Loreto", got.Seller)
	assert.Equal(t, int64(490), got.Price.Cents)
	assert.Equal(t, "EUR", got.Price.Currency)
	assert.Equal(t, models.PackSize{Quantity: 20, Unit: "tablet"}, got.Pack)
	assert.Equal(t, int64(399), got.Shipping.Cents)
	require.NotNil(t, got.FreeShippingOver)
	assert.Equal(t, int64(4990), got.FreeShippingOver.Cents)
}
