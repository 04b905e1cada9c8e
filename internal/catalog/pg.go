package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PGCatalog reads the catalog tables directly. Both interfaces are satisfied
// by the one type since the tables live in the same database.
type PGCatalog struct{ DB *pgxpool.Pool }

func (c *PGCatalog) Variant(ctx context.Context, id string) (Variant, error) {
	var v Variant
	err := c.DB.QueryRow(ctx, `
		SELECT id, product_id, sku, price
		FROM product_variants WHERE id = $1`, id).
		Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return Variant{}, ErrNotFound
	}
	if err != nil {
		return Variant{}, err
	}
	return v, nil
}

func (c *PGCatalog) Product(ctx context.Context, id string) (Product, error) {
	var p Product
	err := c.DB.QueryRow(ctx, `
		SELECT id, name, allow_backorders
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.AllowBackorders)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *PGCatalog) BonusPercentage(ctx context.Context, organizationID string) (decimal.Decimal, error) {
	var pct decimal.Decimal
	err := c.DB.QueryRow(ctx, `
		SELECT bonus_percentage
		FROM organization_settings WHERE organization_id = $1`, organizationID).
		Scan(&pct)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return pct, nil
}
