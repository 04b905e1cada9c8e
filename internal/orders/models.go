package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Address is a structured snapshot captured at checkout; it never references
// a live address book entry.
type Address struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Order struct {
	ID               string          `json:"id"`
	OrganizationID   string          `json:"tenantId"`
	UserID           string          `json:"userId,omitempty"` // empty for guest checkout
	OrderNumber      string          `json:"orderNumber"`
	Status           Status          `json:"status"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Currency         string          `json:"currency"`
	CustomerEmail    string          `json:"customerEmail,omitempty"`
	CustomerPhone    string          `json:"customerPhone,omitempty"`
	CustomerFullName string          `json:"customerFullName,omitempty"`
	ShippingAddress  Address         `json:"shippingAddress"`
	Items            []OrderItem     `json:"items"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// OrderItem snapshots product_name and sku at order time so later catalog
// edits never rewrite order history.
type OrderItem struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"orderId"`
	ProductVariantID string          `json:"productVariantId"`
	LocationID       string          `json:"locationId"`
	ProductName      string          `json:"productName"`
	SKU              string          `json:"sku"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
}

// StockKey identifies one stock ledger row. The tuple is unique in the store.
type StockKey struct {
	OrganizationID   string
	ProductVariantID string
	LocationID       string
}

type StockRecord struct {
	ID               string
	OrganizationID   string
	ProductVariantID string
	LocationID       string
	Quantity         int // on hand, >= 0
	ReservedQuantity int // committed but unfulfilled; may exceed Quantity on backorders
	UpdatedAt        time.Time
}

type BonusLedgerEntry struct {
	UserID         string
	OrganizationID string
	BonusPending   decimal.Decimal
	Bonus          decimal.Decimal
}
