package orders

import (
	"context"

	"github.com/shopspring/decimal"
)

// Stores is the transactional write surface of the engine. Every method runs
// against the transaction the surrounding InTx opened; nothing is visible to
// other transactions until commit.
type Stores interface {
	// StockOnHand returns quantity and reserved for the key. A missing
	// record reads as (0, 0): stock rows are created lazily on first
	// reservation.
	StockOnHand(ctx context.Context, key StockKey) (quantity, reserved int, err error)

	// ReserveStock increments reserved_quantity for the line's key, or
	// inserts a fresh row with quantity 0. The increment is a single atomic
	// conditional update: when backorders are disallowed it refuses to push
	// reserved past quantity and returns *StockError, even if validation
	// passed moments earlier.
	ReserveStock(ctx context.Context, organizationID string, line ResolvedLine) error

	// InsertOrder persists the order row and all of its items.
	InsertOrder(ctx context.Context, o *Order) error

	// AccrueBonus adds amount to the user's pending bonus, creating the
	// ledger entry on first purchase. The increment is additive under
	// concurrency, never last-write-wins.
	AccrueBonus(ctx context.Context, organizationID, userID string, amount decimal.Decimal) error
}

// TxRunner scopes a unit of work to one transaction. fn returning an error
// rolls everything back.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Stores) error) error
}
