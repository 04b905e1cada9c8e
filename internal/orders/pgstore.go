package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PGStore runs placement units of work on Postgres. Row-level locking on the
// stock upsert serializes concurrent reservations per (tenant, variant,
// location) key.
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) InTx(ctx context.Context, fn func(Stores) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

func (s *pgTx) StockOnHand(ctx context.Context, key StockKey) (int, int, error) {
	var quantity, reserved int
	err := s.tx.QueryRow(ctx, `
		SELECT quantity, reserved_quantity FROM stock_records
		WHERE organization_id = $1 AND product_variant_id = $2 AND location_id = $3`,
		key.OrganizationID, key.ProductVariantID, key.LocationID).
		Scan(&quantity, &reserved)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	return quantity, reserved, nil
}

// ReserveStock is the single atomic read-modify-write the engine hinges on.
// The upsert either inserts a fresh row (quantity 0, reserved = requested) or
// increments reserved_quantity, with the non-oversell guard in the DO UPDATE
// WHERE clause. Zero rows affected means the guard refused: a concurrent
// reservation won the row lock first, so the caller gets a StockError and the
// transaction rolls back.
func (s *pgTx) ReserveStock(ctx context.Context, organizationID string, line ResolvedLine) error {
	ct, err := s.tx.Exec(ctx, `
		INSERT INTO stock_records (id, organization_id, product_variant_id, location_id, quantity, reserved_quantity)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (organization_id, product_variant_id, location_id) DO UPDATE
		SET reserved_quantity = stock_records.reserved_quantity + EXCLUDED.reserved_quantity,
		    updated_at = now()
		WHERE $6 OR stock_records.reserved_quantity + EXCLUDED.reserved_quantity <= stock_records.quantity`,
		uuid.NewString(), organizationID, line.ProductVariantID, line.LocationID,
		line.Quantity, line.AllowBackorders)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var quantity, reserved int
	err = s.tx.QueryRow(ctx, `
		SELECT quantity, reserved_quantity FROM stock_records
		WHERE organization_id = $1 AND product_variant_id = $2 AND location_id = $3`,
		organizationID, line.ProductVariantID, line.LocationID).
		Scan(&quantity, &reserved)
	if err != nil {
		return fmt.Errorf("re-read stock after refused reservation: %w", err)
	}
	available := quantity - reserved
	if available < 0 {
		available = 0
	}
	return &StockError{SKU: line.SKU, Available: available, Requested: line.Quantity}
}

func (s *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	var userID any
	if o.UserID != "" {
		userID = o.UserID
	}
	_, err := s.tx.Exec(ctx, `
		INSERT INTO orders (
			id, organization_id, user_id, order_number, status,
			subtotal, total_amount, currency,
			customer_email, customer_phone, customer_full_name,
			ship_full_name, ship_line1, ship_line2, ship_city, ship_region, ship_postal_code, ship_country,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		o.ID, o.OrganizationID, userID, o.OrderNumber, string(o.Status),
		o.Subtotal, o.TotalAmount, o.Currency,
		o.CustomerEmail, o.CustomerPhone, o.CustomerFullName,
		o.ShippingAddress.FullName, o.ShippingAddress.Line1, o.ShippingAddress.Line2,
		o.ShippingAddress.City, o.ShippingAddress.Region, o.ShippingAddress.PostalCode, o.ShippingAddress.Country,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	for _, it := range o.Items {
		_, err := s.tx.Exec(ctx, `
			INSERT INTO order_items (
				id, order_id, product_variant_id, location_id,
				product_name, sku, quantity, unit_price, total_price
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			it.ID, it.OrderID, it.ProductVariantID, it.LocationID,
			it.ProductName, it.SKU, it.Quantity, it.UnitPrice, it.TotalPrice)
		if err != nil {
			return err
		}
	}
	return nil
}

// AccrueBonus has the same atomicity requirement as ReserveStock: the
// increment happens store-side so two concurrent orders by the same user both
// land.
func (s *pgTx) AccrueBonus(ctx context.Context, organizationID, userID string, amount decimal.Decimal) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO user_bonuses (user_id, organization_id, bonus_pending, bonus)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id, organization_id) DO UPDATE
		SET bonus_pending = user_bonuses.bonus_pending + EXCLUDED.bonus_pending`,
		userID, organizationID, amount)
	return err
}
