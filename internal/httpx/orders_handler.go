package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/veliqo/commerce/internal/kafka"
	"github.com/veliqo/commerce/internal/orders"
	"github.com/veliqo/commerce/internal/redisx"
)

type Placer interface {
	PlaceOrder(ctx context.Context, in orders.PlaceOrderInput) (*orders.Order, error)
}

type OrderReader interface {
	GetOrder(ctx context.Context, organizationID, orderID, userID string) (*orders.Order, error)
	ListOrders(ctx context.Context, organizationID, userID string, limit, offset int) ([]orders.Order, error)
}

// OrdersHandler serves the public order surface. Redis and Producer are
// optional wiring: nil disables caching and event publishing.
type OrdersHandler struct {
	Placer   Placer
	Reader   OrderReader
	Redis    *redis.Client
	Producer *kafkax.Producer
	Service  string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders", h.listOrders)
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SKU       string `json:"sku,omitempty"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, e apiError) {
	writeJSON(w, status, map[string]apiError{"error": e})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var in orders.PlaceOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, apiError{Code: "INVALID_INPUT", Message: "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Placer.PlaceOrder(ctx, in)
	if err != nil {
		h.writePlacementError(w, err)
		return
	}

	if h.Redis != nil {
		if b, err := json.Marshal(o); err == nil {
			key := fmt.Sprintf(redisx.KeyOrder, o.OrganizationID, o.ID)
			_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
		}
	}
	h.publishPlaced(o, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) writePlacementError(w http.ResponseWriter, err error) {
	var se *orders.StockError
	var nf *orders.NotFoundError
	switch {
	case errors.As(err, &se):
		writeError(w, http.StatusBadRequest, apiError{
			Code:      "INSUFFICIENT_STOCK",
			Message:   se.Error(),
			SKU:       se.SKU,
			Available: &se.Available,
			Requested: &se.Requested,
		})
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, apiError{Code: "NOT_FOUND", Message: nf.Error()})
	case errors.Is(err, orders.ErrMissingOrganization),
		errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrMissingLocation):
		writeError(w, http.StatusBadRequest, apiError{Code: "INVALID_INPUT", Message: err.Error()})
	default:
		writeError(w, http.StatusInternalServerError, apiError{Code: "INTERNAL", Message: "order placement failed"})
	}
}

func (h *OrdersHandler) publishPlaced(o *orders.Order, traceID string) {
	if h.Producer == nil {
		return
	}
	items := make([]orders.PlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orders.PlacedItem{
			ProductVariantID: it.ProductVariantID,
			LocationID:       it.LocationID,
			SKU:              it.SKU,
			Quantity:         it.Quantity,
		})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:        o.ID,
			OrganizationID: o.OrganizationID,
			UserID:         o.UserID,
			OrderNumber:    o.OrderNumber,
			TotalAmount:    o.TotalAmount.String(),
			Currency:       o.Currency,
			Items:          items,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	orgID := r.URL.Query().Get("tenant_id")
	userID := r.URL.Query().Get("user_id")
	if orderID == "" || orgID == "" {
		writeError(w, http.StatusBadRequest, apiError{Code: "INVALID_INPUT", Message: "order id and tenant_id are required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache only serves the tenant-wide read; a user-scoped read goes to the DB
	key := fmt.Sprintf(redisx.KeyOrder, orgID, orderID)
	if h.Redis != nil && userID == "" {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Reader.GetOrder(ctx, orgID, orderID, userID)
	if err != nil {
		var nf *orders.NotFoundError
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, apiError{Code: "NOT_FOUND", Message: nf.Error()})
			return
		}
		writeError(w, http.StatusInternalServerError, apiError{Code: "INTERNAL", Message: "order lookup failed"})
		return
	}
	if h.Redis != nil && userID == "" {
		if b, err := json.Marshal(o); err == nil {
			_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("tenant_id")
	if orgID == "" {
		writeError(w, http.StatusBadRequest, apiError{Code: "INVALID_INPUT", Message: "tenant_id is required"})
		return
	}
	userID := r.URL.Query().Get("user_id")
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	offset := queryInt(r, "offset", 0)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Reader.ListOrders(ctx, orgID, userID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, apiError{Code: "INTERNAL", Message: "order list failed"})
		return
	}
	if out == nil {
		out = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func queryInt(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
