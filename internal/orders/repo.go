package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo serves the read side: single order lookup and the newest-first list.
// Reads run outside the placement transaction and never block reservations.
type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `
	id, organization_id, COALESCE(user_id::text, ''), order_number, status,
	subtotal, total_amount, currency,
	COALESCE(customer_email, ''), COALESCE(customer_phone, ''), COALESCE(customer_full_name, ''),
	ship_full_name, ship_line1, ship_line2, ship_city, ship_region, ship_postal_code, ship_country,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	err := row.Scan(
		&o.ID, &o.OrganizationID, &o.UserID, &o.OrderNumber, &status,
		&o.Subtotal, &o.TotalAmount, &o.Currency,
		&o.CustomerEmail, &o.CustomerPhone, &o.CustomerFullName,
		&o.ShippingAddress.FullName, &o.ShippingAddress.Line1, &o.ShippingAddress.Line2,
		&o.ShippingAddress.City, &o.ShippingAddress.Region, &o.ShippingAddress.PostalCode,
		&o.ShippingAddress.Country,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}

// GetOrder returns the order with its items for the owning tenant. When
// userID is non-empty the order must also belong to that user.
func (r *Repo) GetOrder(ctx context.Context, organizationID, orderID, userID string) (*Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND organization_id = $2`
	args := []any{orderID, organizationID}
	if userID != "" {
		q += ` AND user_id = $3`
		args = append(args, userID)
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Resource: "order", ID: orderID}
	}
	if err != nil {
		return nil, err
	}
	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// ListOrders returns a newest-first page of orders for a (tenant, user) pair.
func (r *Repo) ListOrders(ctx context.Context, organizationID, userID string, limit, offset int) ([]Order, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE organization_id = $1`
	args := []any{organizationID}
	if userID != "" {
		q += ` AND user_id = $2`
		args = append(args, userID)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *Repo) itemsFor(ctx context.Context, orderIDs []string) (map[string][]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_variant_id, location_id,
		       product_name, sku, quantity, unit_price, total_price
		FROM order_items WHERE order_id = ANY($1)`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]OrderItem, len(orderIDs))
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductVariantID, &it.LocationID,
			&it.ProductName, &it.SKU, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}
