package orders

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/veliqo/commerce/internal/catalog"
)

// memCatalog backs the collaborator interfaces with maps.
type memCatalog struct {
	variants map[string]catalog.Variant
	products map[string]catalog.Product
	bonusPct map[string]decimal.Decimal
}

func (c *memCatalog) Variant(_ context.Context, id string) (catalog.Variant, error) {
	v, ok := c.variants[id]
	if !ok {
		return catalog.Variant{}, catalog.ErrNotFound
	}
	return v, nil
}

func (c *memCatalog) Product(_ context.Context, id string) (catalog.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (c *memCatalog) BonusPercentage(_ context.Context, organizationID string) (decimal.Decimal, error) {
	return c.bonusPct[organizationID], nil
}

// memStore is an in-memory TxRunner whose transactions stage writes and only
// merge them on success. The mutex is held for the whole unit of work, which
// serializes concurrent placements the way row locks do: the loser of a race
// observes the winner's committed reservation, never a stale snapshot.
type memStore struct {
	mu      sync.Mutex
	stock   map[StockKey]*StockRecord
	orders  map[string]*Order
	bonuses map[string]*BonusLedgerEntry

	failInsertOrder bool
}

func newMemStore() *memStore {
	return &memStore{
		stock:   make(map[StockKey]*StockRecord),
		orders:  make(map[string]*Order),
		bonuses: make(map[string]*BonusLedgerEntry),
	}
}

func (m *memStore) seedStock(key StockKey, quantity, reserved int) {
	m.stock[key] = &StockRecord{
		OrganizationID:   key.OrganizationID,
		ProductVariantID: key.ProductVariantID,
		LocationID:       key.LocationID,
		Quantity:         quantity,
		ReservedQuantity: reserved,
	}
}

func (m *memStore) InTx(_ context.Context, fn func(Stores) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		base:       m,
		stockDelta: make(map[StockKey]int),
		bonusDelta: make(map[string]decimal.Decimal),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

type memTx struct {
	base       *memStore
	stockDelta map[StockKey]int
	newOrders  []*Order
	bonusDelta map[string]decimal.Decimal
}

func (t *memTx) snapshot(key StockKey) (quantity, reserved int) {
	if rec, ok := t.base.stock[key]; ok {
		quantity, reserved = rec.Quantity, rec.ReservedQuantity
	}
	return quantity, reserved + t.stockDelta[key]
}

func (t *memTx) StockOnHand(_ context.Context, key StockKey) (int, int, error) {
	q, r := t.snapshot(key)
	return q, r, nil
}

func (t *memTx) ReserveStock(_ context.Context, organizationID string, line ResolvedLine) error {
	key := StockKey{
		OrganizationID:   organizationID,
		ProductVariantID: line.ProductVariantID,
		LocationID:       line.LocationID,
	}
	quantity, reserved := t.snapshot(key)
	if !line.AllowBackorders && reserved+line.Quantity > quantity {
		available := quantity - reserved
		if available < 0 {
			available = 0
		}
		return &StockError{SKU: line.SKU, Available: available, Requested: line.Quantity}
	}
	t.stockDelta[key] += line.Quantity
	return nil
}

func (t *memTx) InsertOrder(_ context.Context, o *Order) error {
	if t.base.failInsertOrder {
		return errors.New("insert order: connection reset")
	}
	t.newOrders = append(t.newOrders, o)
	return nil
}

func (t *memTx) AccrueBonus(_ context.Context, organizationID, userID string, amount decimal.Decimal) error {
	k := userID + "|" + organizationID
	t.bonusDelta[k] = t.bonusDelta[k].Add(amount)
	return nil
}

func (t *memTx) apply() {
	for key, d := range t.stockDelta {
		rec, ok := t.base.stock[key]
		if !ok {
			rec = &StockRecord{
				OrganizationID:   key.OrganizationID,
				ProductVariantID: key.ProductVariantID,
				LocationID:       key.LocationID,
			}
			t.base.stock[key] = rec
		}
		rec.ReservedQuantity += d
	}
	for _, o := range t.newOrders {
		t.base.orders[o.ID] = o
	}
	for k, d := range t.bonusDelta {
		e, ok := t.base.bonuses[k]
		if !ok {
			e = &BonusLedgerEntry{BonusPending: decimal.Zero, Bonus: decimal.Zero}
			t.base.bonuses[k] = e
		}
		e.BonusPending = e.BonusPending.Add(d)
	}
}
