package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veliqo/commerce/internal/catalog"
)

type PlaceOrderInput struct {
	OrganizationID   string     `json:"tenantId"`
	UserID           string     `json:"userId,omitempty"`
	Currency         string     `json:"currency"`
	CustomerEmail    string     `json:"customerEmail,omitempty"`
	CustomerPhone    string     `json:"customerPhone,omitempty"`
	CustomerFullName string     `json:"customerFullName,omitempty"`
	ShippingAddress  Address    `json:"shippingAddress"`
	Items            []CartLine `json:"items"`
}

// PlacementService is the sole entry point for placing orders. One call is
// one transaction: validate, reserve, write, accrue, commit. Any failure
// rolls the whole thing back; a failed attempt leaves no trace.
type PlacementService struct {
	Store   TxRunner
	Catalog catalog.Catalog
	Tenants catalog.TenantConfig
}

var oneHundred = decimal.NewFromInt(100)

func (s *PlacementService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	if in.OrganizationID == "" {
		return nil, ErrMissingOrganization
	}
	if len(in.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, ln := range in.Items {
		if ln.Quantity <= 0 {
			return nil, fmt.Errorf("%w: variant %s", ErrInvalidQuantity, ln.ProductVariantID)
		}
		if ln.LocationID == "" {
			return nil, fmt.Errorf("%w: variant %s", ErrMissingLocation, ln.ProductVariantID)
		}
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	var placed *Order
	err := s.Store.InTx(ctx, func(st Stores) error {
		cart, err := validateCart(ctx, s.Catalog, st, in.OrganizationID, in.Items)
		if err != nil {
			return err
		}

		for _, ln := range cart.Lines {
			if err := st.ReserveStock(ctx, in.OrganizationID, ln); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		o := &Order{
			ID:               uuid.NewString(),
			OrganizationID:   in.OrganizationID,
			UserID:           in.UserID,
			OrderNumber:      newOrderNumber(now),
			Status:           StatusPending,
			Subtotal:         cart.Subtotal,
			TotalAmount:      cart.Subtotal, // tax/shipping are layered on downstream
			Currency:         currency,
			CustomerEmail:    in.CustomerEmail,
			CustomerPhone:    in.CustomerPhone,
			CustomerFullName: in.CustomerFullName,
			ShippingAddress:  in.ShippingAddress,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		o.Items = make([]OrderItem, 0, len(cart.Lines))
		for _, ln := range cart.Lines {
			o.Items = append(o.Items, OrderItem{
				ID:               uuid.NewString(),
				OrderID:          o.ID,
				ProductVariantID: ln.ProductVariantID,
				LocationID:       ln.LocationID,
				ProductName:      ln.ProductName,
				SKU:              ln.SKU,
				Quantity:         ln.Quantity,
				UnitPrice:        ln.UnitPrice,
				TotalPrice:       ln.TotalPrice,
			})
		}
		if err := st.InsertOrder(ctx, o); err != nil {
			return err
		}

		// guest checkout accrues nothing
		if in.UserID != "" {
			pct, err := s.Tenants.BonusPercentage(ctx, in.OrganizationID)
			if err != nil {
				return err
			}
			// upsert even when the percentage is zero: the first purchase
			// creates the user's ledger entry
			earned := cart.Subtotal.Mul(pct).Div(oneHundred)
			if err := st.AccrueBonus(ctx, in.OrganizationID, in.UserID, earned); err != nil {
				return err
			}
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}
