// Package storage persists the product catalog, the basket, and scraped
// offer snapshots in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/price-hounds/farmaprice/pkg/models"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

var (
	// ErrProductExists is returned when adding a catalog code that is
	// already tracked.
	ErrProductExists = errors.New("product already in catalog")
	// ErrProductNotFound is returned for operations on an unknown code.
	ErrProductNotFound = errors.New("product not in catalog")
	// ErrNotInBasket is returned when updating a basket row that doesn't exist.
	ErrNotInBasket = errors.New("product not in basket")
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS basket_items (
	product_code TEXT PRIMARY KEY REFERENCES products(code),
	quantity INTEGER NOT NULL CHECK (quantity > 0)
);

CREATE TABLE IF NOT EXISTS offers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	product_code TEXT NOT NULL REFERENCES products(code),
	seller TEXT NOT NULL,
	price_cents INTEGER NOT NULL CHECK (price_cents >= 0),
	currency TEXT NOT NULL,
	pack_quantity INTEGER NOT NULL CHECK (pack_quantity > 0),
	pack_unit TEXT NOT NULL,
	shipping_cents INTEGER NOT NULL DEFAULT 0,
	free_over_cents INTEGER,
	url TEXT NOT NULL DEFAULT '',
	fetched_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_offers_product ON offers(product_code);
`

// Store wraps the SQLite database. All methods are safe for concurrent use;
// database/sql serializes access to the single connection modernc's driver
// hands out.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("Storage opened")
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddProduct registers a catalog product.
func (s *Store) AddProduct(ctx context.Context, p models.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (code, name) VALUES (?, ?)
		 ON CONFLICT(code) DO NOTHING`, p.Code, p.Name)
	if err != nil {
		return fmt.Errorf("add product: %w", err)
	}

	// ON CONFLICT DO NOTHING reports zero rows affected on duplicates
	var name string
	if err := s.db.QueryRowContext(ctx,
		`SELECT name FROM products WHERE code = ?`, p.Code).Scan(&name); err != nil {
		return fmt.Errorf("add product: %w", err)
	}
	if name != p.Name {
		return fmt.Errorf("%w: %s", ErrProductExists, p.Code)
	}
	return nil
}

// UpdateProduct renames a catalog product.
func (s *Store) UpdateProduct(ctx context.Context, code, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = ? WHERE code = ?`, name, code)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, code)
	}
	return nil
}

// RemoveProduct deletes a product along with its basket row and offer
// snapshots.
func (s *Store) RemoveProduct(ctx context.Context, code string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM offers WHERE product_code = ?`, code); err != nil {
		return fmt.Errorf("remove product offers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM basket_items WHERE product_code = ?`, code); err != nil {
		return fmt.Errorf("remove basket row: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("remove product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, code)
	}

	return tx.Commit()
}

// ListProducts returns the catalog ordered by code.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name FROM products ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.Code, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProduct looks up one catalog product by code.
func (s *Store) GetProduct(ctx context.Context, code string) (models.Product, error) {
	var p models.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT code, name FROM products WHERE code = ?`, code).Scan(&p.Code, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, code)
	}
	return p, err
}

// AddToBasket adds quantity of a product to the basket, summing with any
// existing row.
func (s *Store) AddToBasket(ctx context.Context, code string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if _, err := s.GetProduct(ctx, code); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO basket_items (product_code, quantity) VALUES (?, ?)
		 ON CONFLICT(product_code) DO UPDATE SET quantity = quantity + excluded.quantity`,
		code, quantity)
	return err
}

// SetBasketQuantity replaces the basket quantity for a product.
func (s *Store) SetBasketQuantity(ctx context.Context, code string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE basket_items SET quantity = ? WHERE product_code = ?`, quantity, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotInBasket, code)
	}
	return nil
}

// RemoveFromBasket deletes a basket row.
func (s *Store) RemoveFromBasket(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM basket_items WHERE product_code = ?`, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotInBasket, code)
	}
	return nil
}

// ListBasket returns the basket ordered by product code.
func (s *Store) ListBasket(ctx context.Context) ([]models.BasketItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_code, quantity FROM basket_items ORDER BY product_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BasketItem
	for rows.Next() {
		var item models.BasketItem
		if err := rows.Scan(&item.ProductCode, &item.Quantity); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ReplaceOffers atomically swaps the stored offer snapshot for a product
// with a freshly scraped one.
func (s *Store) ReplaceOffers(ctx context.Context, code string, offers []models.Offer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM offers WHERE product_code = ?`, code); err != nil {
		return fmt.Errorf("clear offers: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO offers (product_code, seller, price_cents, currency,
			pack_quantity, pack_unit, shipping_cents, free_over_cents, url, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range offers {
		var freeOver *int64
		if o.FreeShippingOver != nil {
			freeOver = &o.FreeShippingOver.Cents
		}
		_, err := stmt.ExecContext(ctx, code, o.Seller, o.Price.Cents, o.Price.Currency,
			o.Pack.Quantity, o.Pack.Unit, o.Shipping.Cents, freeOver, o.URL, o.FetchedAt)
		if err != nil {
			return fmt.Errorf("insert offer: %w", err)
		}
	}

	return tx.Commit()
}

// OffersForProducts returns all stored offers for the given product codes.
func (s *Store) OffersForProducts(ctx context.Context, codes []string) ([]models.Offer, error) {
	var out []models.Offer
	for _, code := range codes {
		rows, err := s.db.QueryContext(ctx, `
			SELECT product_code, seller, price_cents, currency, pack_quantity,
				pack_unit, shipping_cents, free_over_cents, url, fetched_at
			FROM offers WHERE product_code = ?`, code)
		if err != nil {
			return nil, err
		}

		for rows.Next() {
			var o models.Offer
			var freeOver sql.NullInt64
			var fetched time.Time
			err := rows.Scan(&o.Product, &o.Seller, &o.Price.Cents, &o.Price.Currency,
				&o.Pack.Quantity, &o.Pack.Unit, &o.Shipping.Cents, &freeOver, &o.URL, &fetched)
			if err != nil {
				rows.Close()
				return nil, err
			}
			o.FetchedAt = fetched
			o.Shipping.Currency = o.Price.Currency
			if freeOver.Valid {
				p := models.Price{Cents: freeOver.Int64, Currency: o.Price.Currency}
				o.FreeShippingOver = &p
			}
			out = append(out, o)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}
