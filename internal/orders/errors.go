package orders

import (
	"errors"
	"fmt"
)

// Input errors, raised before any transaction is opened.
var (
	ErrMissingOrganization = errors.New("orders: organization id is required")
	ErrEmptyCart           = errors.New("orders: cart has no lines")
	ErrInvalidQuantity     = errors.New("orders: cart line quantity must be positive")
	ErrMissingLocation     = errors.New("orders: cart line missing location")
)

// NotFoundError covers references to catalog entities (or orders) that do
// not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// StockError reports an availability shortfall for a line whose product does
// not allow backorders. It aborts the whole placement; there is no partial
// acceptance. The reservation step returns the same error when its atomic
// guard loses a race that validation did not see.
type StockError struct {
	SKU       string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.SKU, e.Available, e.Requested)
}
