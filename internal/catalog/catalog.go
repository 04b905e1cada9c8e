// Package catalog exposes the read-only collaborator interfaces the order
// engine depends on: product/variant lookups and per-tenant settings. Catalog
// management itself lives elsewhere; this service only reads.
package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("catalog: not found")

type Variant struct {
	ID        string
	ProductID string
	SKU       string
	Price     decimal.Decimal
}

type Product struct {
	ID              string
	Name            string
	AllowBackorders bool
}

type Catalog interface {
	Variant(ctx context.Context, id string) (Variant, error)
	Product(ctx context.Context, id string) (Product, error)
}

// TenantConfig resolves per-organization commerce settings.
type TenantConfig interface {
	// BonusPercentage returns the loyalty percentage for the organization,
	// zero when unset. The value is a percent (5 means 5%).
	BonusPercentage(ctx context.Context, organizationID string) (decimal.Decimal, error)
}
