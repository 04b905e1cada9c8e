package orders

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/veliqo/commerce/internal/catalog"
)

// CartLine is one requested (variant, quantity, location) triple.
type CartLine struct {
	ProductVariantID string `json:"productVariantId"`
	Quantity         int    `json:"quantity"`
	LocationID       string `json:"locationId"`
}

// ResolvedLine is a cart line after catalog and stock resolution. It carries
// exactly the data the reservation and order-writing steps need, so neither
// has to look anything up again.
type ResolvedLine struct {
	ProductVariantID string
	LocationID       string
	ProductName      string
	SKU              string
	AllowBackorders  bool
	Quantity         int
	UnitPrice        decimal.Decimal
	TotalPrice       decimal.Decimal
}

type ValidatedCart struct {
	Subtotal decimal.Decimal
	Lines    []ResolvedLine
}

// validateCart resolves and prices every line, reading availability through
// the transaction. Read-only: the fast pre-check here is backed up by the
// atomic guard in ReserveStock, not a substitute for it. A shortfall on any
// line rejects the whole cart.
func validateCart(ctx context.Context, cat catalog.Catalog, st Stores, organizationID string, lines []CartLine) (*ValidatedCart, error) {
	cart := &ValidatedCart{
		Subtotal: decimal.Zero,
		Lines:    make([]ResolvedLine, 0, len(lines)),
	}
	for _, ln := range lines {
		variant, err := cat.Variant(ctx, ln.ProductVariantID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &NotFoundError{Resource: "product variant", ID: ln.ProductVariantID}
		}
		if err != nil {
			return nil, err
		}
		product, err := cat.Product(ctx, variant.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &NotFoundError{Resource: "product", ID: variant.ProductID}
		}
		if err != nil {
			return nil, err
		}

		qty, reserved, err := st.StockOnHand(ctx, StockKey{
			OrganizationID:   organizationID,
			ProductVariantID: ln.ProductVariantID,
			LocationID:       ln.LocationID,
		})
		if err != nil {
			return nil, err
		}
		available := qty - reserved
		if available < 0 {
			available = 0
		}
		if available < ln.Quantity && !product.AllowBackorders {
			return nil, &StockError{SKU: variant.SKU, Available: available, Requested: ln.Quantity}
		}

		lineTotal := variant.Price.Mul(decimal.NewFromInt(int64(ln.Quantity)))
		cart.Subtotal = cart.Subtotal.Add(lineTotal)
		cart.Lines = append(cart.Lines, ResolvedLine{
			ProductVariantID: ln.ProductVariantID,
			LocationID:       ln.LocationID,
			ProductName:      product.Name,
			SKU:              variant.SKU,
			AllowBackorders:  product.AllowBackorders,
			Quantity:         ln.Quantity,
			UnitPrice:        variant.Price,
			TotalPrice:       lineTotal,
		})
	}
	return cart, nil
}
