package orders

import (
	"encoding/json"
	"time"
)

const EventOrderPlaced = "OrderPlaced"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type PlacedItem struct {
	ProductVariantID string `json:"product_variant_id"`
	LocationID       string `json:"location_id"`
	SKU              string `json:"sku"`
	Quantity         int    `json:"quantity"`
}

type OrderPlacedPayload struct {
	OrderID        string       `json:"order_id"`
	OrganizationID string       `json:"organization_id"`
	UserID         string       `json:"user_id,omitempty"`
	OrderNumber    string       `json:"order_number"`
	TotalAmount    string       `json:"total_amount"`
	Currency       string       `json:"currency"`
	Items          []PlacedItem `json:"items"`
}
