package orders

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veliqo/commerce/internal/catalog"
)

const (
	testOrg      = "org-1"
	testLocation = "loc-1"
	testUser     = "user-1"
)

func newFixture() (*PlacementService, *memStore, *memCatalog) {
	cat := &memCatalog{
		variants: map[string]catalog.Variant{
			"v-tee": {ID: "v-tee", ProductID: "p-tee", SKU: "TEE-M", Price: decimal.NewFromInt(25)},
			"v-mug": {ID: "v-mug", ProductID: "p-mug", SKU: "MUG-1", Price: decimal.NewFromInt(10)},
			"v-pre": {ID: "v-pre", ProductID: "p-pre", SKU: "PRE-1", Price: decimal.NewFromInt(40)},
		},
		products: map[string]catalog.Product{
			"p-tee": {ID: "p-tee", Name: "Classic Tee"},
			"p-mug": {ID: "p-mug", Name: "Stone Mug"},
			"p-pre": {ID: "p-pre", Name: "Preorder Jacket", AllowBackorders: true},
		},
		bonusPct: map[string]decimal.Decimal{},
	}
	store := newMemStore()
	svc := &PlacementService{Store: store, Catalog: cat, Tenants: cat}
	return svc, store, cat
}

func line(variantID string, qty int) CartLine {
	return CartLine{ProductVariantID: variantID, Quantity: qty, LocationID: testLocation}
}

func input(userID string, lines ...CartLine) PlaceOrderInput {
	return PlaceOrderInput{
		OrganizationID: testOrg,
		UserID:         userID,
		Currency:       "USD",
		ShippingAddress: Address{
			FullName: "Ada Lovelace", Line1: "12 Analytical Way",
			City: "London", PostalCode: "N1 7AA", Country: "GB",
		},
		Items: lines,
	}
}

func teeKey() StockKey {
	return StockKey{OrganizationID: testOrg, ProductVariantID: "v-tee", LocationID: testLocation}
}

func TestPlaceOrderReservesStock(t *testing.T) {
	svc, store, _ := newFixture()
	store.seedStock(teeKey(), 5, 0)

	o, err := svc.PlaceOrder(context.Background(), input(testUser, line("v-tee", 3)))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(75)), "subtotal = %s", o.Subtotal)
	assert.True(t, o.TotalAmount.Equal(o.Subtotal))
	assert.Equal(t, "USD", o.Currency)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD-"))

	require.Len(t, o.Items, 1)
	it := o.Items[0]
	assert.Equal(t, "Classic Tee", it.ProductName)
	assert.Equal(t, "TEE-M", it.SKU)
	assert.Equal(t, 3, it.Quantity)
	assert.True(t, it.UnitPrice.Equal(decimal.NewFromInt(25)))
	assert.True(t, it.TotalPrice.Equal(decimal.NewFromInt(75)))

	rec := store.stock[teeKey()]
	assert.Equal(t, 5, rec.Quantity)
	assert.Equal(t, 3, rec.ReservedQuantity)
	assert.Contains(t, store.orders, o.ID)
}

func TestConcurrentOrdersDoNotOversell(t *testing.T) {
	svc, store, _ := newFixture()
	store.seedStock(teeKey(), 5, 0)

	quantities := []int{3, 4} // 7 requested, 5 on hand
	errs := make([]error, len(quantities))
	var wg sync.WaitGroup
	for i, qty := range quantities {
		wg.Add(1)
		go func(i, qty int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), input(testUser, line("v-tee", qty)))
		}(i, qty)
	}
	wg.Wait()

	var failed, succeeded int
	for i, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var se *StockError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "TEE-M", se.SKU)
		assert.Equal(t, quantities[i], se.Requested)
		assert.Less(t, se.Available, se.Requested)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
	assert.LessOrEqual(t, store.stock[teeKey()].ReservedQuantity, 5)
	assert.Len(t, store.orders, 1)
}

func TestBackorderExceedsOnHand(t *testing.T) {
	svc, store, _ := newFixture()
	key := StockKey{OrganizationID: testOrg, ProductVariantID: "v-pre", LocationID: testLocation}
	store.seedStock(key, 0, 0)

	o, err := svc.PlaceOrder(context.Background(), input(testUser, line("v-pre", 2)))
	require.NoError(t, err)
	require.Len(t, o.Items, 1)

	rec := store.stock[key]
	assert.Equal(t, 0, rec.Quantity)
	assert.Equal(t, 2, rec.ReservedQuantity, "reserved may exceed on-hand when backorders are allowed")
}

func TestBackorderCreatesStockRecordLazily(t *testing.T) {
	svc, store, _ := newFixture()
	// no stock record seeded for v-pre at all

	_, err := svc.PlaceOrder(context.Background(), input(testUser, line("v-pre", 2)))
	require.NoError(t, err)

	key := StockKey{OrganizationID: testOrg, ProductVariantID: "v-pre", LocationID: testLocation}
	rec := store.stock[key]
	require.NotNil(t, rec)
	assert.Equal(t, 0, rec.Quantity)
	assert.Equal(t, 2, rec.ReservedQuantity)
}

func TestMultiLineShortfallRejectsWholeCart(t *testing.T) {
	svc, store, _ := newFixture()
	store.seedStock(teeKey(), 10, 0)
	mugKey := StockKey{OrganizationID: testOrg, ProductVariantID: "v-mug", LocationID: testLocation}
	store.seedStock(mugKey, 1, 0)

	_, err := svc.PlaceOrder(context.Background(), input(testUser,
		line("v-tee", 2), line("v-mug", 3)))

	var se *StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "MUG-1", se.SKU)
	assert.Equal(t, 1, se.Available)
	assert.Equal(t, 3, se.Requested)

	// nothing from the failed attempt is observable
	assert.Equal(t, 0, store.stock[teeKey()].ReservedQuantity)
	assert.Equal(t, 0, store.stock[mugKey].ReservedQuantity)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.bonuses)
}

func TestPersistenceFailureRollsBackReservation(t *testing.T) {
	svc, store, _ := newFixture()
	store.seedStock(teeKey(), 5, 0)
	store.failInsertOrder = true

	_, err := svc.PlaceOrder(context.Background(), input(testUser, line("v-tee", 3)))
	require.Error(t, err)

	assert.Equal(t, 0, store.stock[teeKey()].ReservedQuantity)
	assert.Empty(t, store.orders)
}

func TestBonusAccrualIsCumulative(t *testing.T) {
	svc, store, cat := newFixture()
	cat.bonusPct[testOrg] = decimal.NewFromInt(5)
	store.seedStock(teeKey(), 100, 0)
	mugKey := StockKey{OrganizationID: testOrg, ProductVariantID: "v-mug", LocationID: testLocation}
	store.seedStock(mugKey, 100, 0)

	// subtotal 100 -> pending 5
	_, err := svc.PlaceOrder(context.Background(), input(testUser, line("v-tee", 4)))
	require.NoError(t, err)

	entry := store.bonuses[testUser+"|"+testOrg]
	require.NotNil(t, entry)
	assert.True(t, entry.BonusPending.Equal(decimal.NewFromInt(5)), "pending = %s", entry.BonusPending)
	assert.True(t, entry.Bonus.Equal(decimal.Zero))

	// subtotal 40 -> pending 5 + 2 = 7
	_, err = svc.PlaceOrder(context.Background(), input(testUser, line("v-mug", 4)))
	require.NoError(t, err)
	assert.True(t, entry.BonusPending.Equal(decimal.NewFromInt(7)), "pending = %s", entry.BonusPending)
}

func TestGuestCheckoutAccruesNothing(t *testing.T) {
	svc, store, cat := newFixture()
	cat.bonusPct[testOrg] = decimal.NewFromInt(5)
	store.seedStock(teeKey(), 5, 0)

	o, err := svc.PlaceOrder(context.Background(), input("", line("v-tee", 1)))
	require.NoError(t, err)
	assert.Empty(t, o.UserID)
	assert.Empty(t, store.bonuses)
}

func TestZeroBonusPercentageStillCreatesLedgerEntry(t *testing.T) {
	svc, store, _ := newFixture()
	store.seedStock(teeKey(), 5, 0)
	// percentage unset reads as zero

	_, err := svc.PlaceOrder(context.Background(), input(testUser, line("v-tee", 1)))
	require.NoError(t, err)

	entry := store.bonuses[testUser+"|"+testOrg]
	require.NotNil(t, entry, "first purchase creates the ledger entry even at zero percent")
	assert.True(t, entry.BonusPending.IsZero())
	assert.True(t, entry.Bonus.IsZero())
}

func TestOrderItemsSnapshotCatalogState(t *testing.T) {
	svc, store, cat := newFixture()
	store.seedStock(teeKey(), 5, 0)

	o, err := svc.PlaceOrder(context.Background(), input(testUser, line("v-tee", 1)))
	require.NoError(t, err)

	// a later catalog edit must not rewrite order history
	cat.products["p-tee"] = catalog.Product{ID: "p-tee", Name: "Renamed Tee"}
	cat.variants["v-tee"] = catalog.Variant{ID: "v-tee", ProductID: "p-tee", SKU: "TEE-M-V2", Price: decimal.NewFromInt(99)}

	stored := store.orders[o.ID]
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Classic Tee", stored.Items[0].ProductName)
	assert.Equal(t, "TEE-M", stored.Items[0].SKU)
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.NewFromInt(25)))
}

func TestInputErrorsRejectedBeforeTransaction(t *testing.T) {
	svc, store, _ := newFixture()
	store.seedStock(teeKey(), 5, 0)

	cases := []struct {
		name string
		in   PlaceOrderInput
		want error
	}{
		{"missing organization", PlaceOrderInput{Items: []CartLine{line("v-tee", 1)}}, ErrMissingOrganization},
		{"empty cart", input(testUser), ErrEmptyCart},
		{"zero quantity", input(testUser, line("v-tee", 0)), ErrInvalidQuantity},
		{"negative quantity", input(testUser, line("v-tee", -2)), ErrInvalidQuantity},
		{"missing location", input(testUser, CartLine{ProductVariantID: "v-tee", Quantity: 1}), ErrMissingLocation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 0, store.stock[teeKey()].ReservedQuantity)
	assert.Empty(t, store.orders)
}

func TestUnknownVariantIsNotFound(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.PlaceOrder(context.Background(), input(testUser, line("v-ghost", 1)))
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "product variant", nf.Resource)
	assert.Equal(t, "v-ghost", nf.ID)
}

func TestMissingStockRecordReadsAsZeroAvailable(t *testing.T) {
	svc, _, _ := newFixture()
	// no stock record for v-tee, backorders disallowed

	_, err := svc.PlaceOrder(context.Background(), input(testUser, line("v-tee", 1)))
	var se *StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Available)
	assert.Equal(t, 1, se.Requested)
}

func TestDefaultCurrency(t *testing.T) {
	svc, store, _ := newFixture()
	store.seedStock(teeKey(), 5, 0)

	in := input(testUser, line("v-tee", 1))
	in.Currency = ""
	o, err := svc.PlaceOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "USD", o.Currency)
}
