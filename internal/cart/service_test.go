package cart

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yonaslemma/gursha-backend/pkg/config"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
)

var cartTestDBSeq atomic.Int64

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:cartsvc%d?mode=memory&cache=shared", cartTestDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  store_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  subtotal_cents INTEGER NOT NULL DEFAULT 0,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  delivery_fee_cents INTEGER NOT NULL DEFAULT 0,
  service_fee_cents INTEGER NOT NULL DEFAULT 0,
  tip_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubStoreLoader struct {
	store *models.Store
}

func (s stubStoreLoader) GetByID(context.Context, uuid.UUID) (*models.Store, error) {
	return s.store, nil
}

type stubProductLoader struct {
	products map[uuid.UUID]*models.Product
}

func (s stubProductLoader) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	copied := *product
	return &copied, nil
}

func newCartTestService(t *testing.T, db *gorm.DB, store *models.Store, catalog map[uuid.UUID]*models.Product) Service {
	t.Helper()

	svc, err := NewService(
		NewRepository(db),
		gormTxRunner{db: db},
		stubStoreLoader{store: store},
		stubProductLoader{products: catalog},
		config.CartConfig{TaxRateBasisPoints: 800, MaxItemsPerCart: 100},
	)
	require.NoError(t, err)
	return svc
}

func testStore() *models.Store {
	return &models.Store{
		ID:                      uuid.New(),
		Name:                    "Merkato Fresh",
		Slug:                    "merkato-fresh",
		DefaultDeliveryFeeCents: 500,
		DefaultServiceFeeCents:  150,
		IsActive:                true,
	}
}

func testProduct(storeID uuid.UUID, name string, priceCents int) *models.Product {
	return &models.Product{
		ID:         uuid.New(),
		StoreID:    storeID,
		Name:       name,
		PriceCents: priceCents,
		Stock:      50,
		IsActive:   true,
	}
}

func TestAddItemComputesDerivedTotals(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Avocado", 100)
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{
		ProductID: product.ID,
		Quantity:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, 200, cart.SubtotalCents)
	assert.Equal(t, 16, cart.TaxCents) // 8% of 200
	assert.Equal(t, 500, cart.DeliveryFeeCents)
	assert.Equal(t, 150, cart.ServiceFeeCents)
	assert.Equal(t, 0, cart.TipCents)
	assert.Equal(t, 866, cart.TotalCents)

	withTip, err := svc.SetTip(context.Background(), userID, cart.ID, 48)
	require.NoError(t, err)
	assert.Equal(t, 914, withTip.TotalCents)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Injera", 100)
	catalog := map[uuid.UUID]*models.Product{product.ID: product}
	svc := newCartTestService(t, db, store, catalog)
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	// catalog price changes after the first add
	product.PriceCents = 250

	cart, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 100, cart.Items[0].UnitPriceCents, "merged line keeps the original snapshot price")
	assert.Equal(t, 300, cart.SubtotalCents)
}

func TestAddItemRejectsForeignStoreProduct(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	foreign := testProduct(uuid.New(), "Smuggled Mango", 300)
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{foreign.ID: foreign})

	_, err := svc.AddItem(context.Background(), uuid.New(), store.ID, AddItemInput{ProductID: foreign.ID, Quantity: 1})
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestUpdateItemKeepsSnapshotPrice(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Berbere", 420)
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	product.PriceCents = 999

	updated, err := svc.UpdateItem(context.Background(), userID, cart.ID, cart.Items[0].ID, UpdateItemInput{Quantity: 4})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, 420, updated.Items[0].UnitPriceCents)
	assert.Equal(t, 1680, updated.SubtotalCents)
}

func TestUpdateItemWritesNotesThrough(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Avocados", 250)
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.Nil(t, cart.Items[0].Notes)

	notes := "ripe ones please"
	updated, err := svc.UpdateItem(context.Background(), userID, cart.ID, cart.Items[0].ID, UpdateItemInput{
		Quantity: 3,
		Notes:    &notes,
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, 3, updated.Items[0].Quantity)
	require.NotNil(t, updated.Items[0].Notes)
	assert.Equal(t, notes, *updated.Items[0].Notes)

	// omitting notes on a later update leaves the existing text alone
	updated, err = svc.UpdateItem(context.Background(), userID, cart.ID, cart.Items[0].ID, UpdateItemInput{Quantity: 1})
	require.NoError(t, err)
	require.NotNil(t, updated.Items[0].Notes)
	assert.Equal(t, notes, *updated.Items[0].Notes)
}

func TestRemoveLastItemDeletesCart(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Teff Flour", 700)
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	result, err := svc.RemoveItem(context.Background(), userID, cart.ID, cart.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.Nil(t, result.Cart)

	_, err = svc.GetActiveCart(context.Background(), userID, store.ID)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestRemoveItemKeepsCartWithRemainingLines(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	first := testProduct(store.ID, "Lentils", 300)
	second := testProduct(store.ID, "Chickpeas", 200)
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{
		first.ID:  first,
		second.ID: second,
	})
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: first.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: second.ID, Quantity: 2})
	require.NoError(t, err)

	var removeID uuid.UUID
	for _, line := range cart.Items {
		if line.ProductID == first.ID {
			removeID = line.ID
		}
	}
	require.NotEqual(t, uuid.Nil, removeID)

	result, err := svc.RemoveItem(context.Background(), userID, cart.ID, removeID)
	require.NoError(t, err)
	assert.False(t, result.Deleted)
	require.NotNil(t, result.Cart)
	require.Len(t, result.Cart.Items, 1)
	assert.Equal(t, 400, result.Cart.SubtotalCents)
}

func TestReplaceItemsResnapshotsPrices(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Coffee Beans", 1200)
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	product.PriceCents = 1500

	cart, err := svc.ReplaceItems(context.Background(), userID, store.ID, []ReplaceItemInput{
		{ProductID: product.ID, Quantity: 2},
	})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1500, cart.Items[0].UnitPriceCents, "replace re-reads the current catalog price")
	assert.Equal(t, 3000, cart.SubtotalCents)
}

func TestReplaceItemsRejectsDuplicateProducts(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Honey", 800)
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})

	_, err := svc.ReplaceItems(context.Background(), uuid.New(), store.ID, []ReplaceItemInput{
		{ProductID: product.ID, Quantity: 1},
		{ProductID: product.ID, Quantity: 2},
	})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestAddItemRejectsInsufficientStock(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Last Papaya", 300)
	product.Stock = 2
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 3})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())

	// merging past the available stock is rejected too
	_, err = svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.Error(t, err)
}

func TestUpdateItemRejectsInsufficientStock(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Tomatoes", 150)
	product.Stock = 4
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.UpdateItem(context.Background(), userID, cart.ID, cart.Items[0].ID, UpdateItemInput{Quantity: 5})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestApplyFeesRecomputesTotals(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Sunflower Oil", 100)
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	// $2.00 subtotal + $0.16 tax + $3.99 delivery + $2.99 service = $9.14
	prepped, err := svc.ApplyFees(context.Background(), userID, cart.ID, ApplyFeesInput{
		DeliveryFeeCents: 399,
		ServiceFeeCents:  299,
	})
	require.NoError(t, err)

	assert.Equal(t, 200, prepped.SubtotalCents)
	assert.Equal(t, 16, prepped.TaxCents)
	assert.Equal(t, 399, prepped.DeliveryFeeCents)
	assert.Equal(t, 299, prepped.ServiceFeeCents)
	assert.Equal(t, 0, prepped.TipCents)
	assert.Equal(t, 914, prepped.TotalCents)
}

func TestApplyFeesRejectsStaleCart(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	product := testProduct(store.ID, "Fresh Basil", 250)
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, store.ID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	// stock drained between add and checkout prep
	product.Stock = 1

	_, err = svc.ApplyFees(context.Background(), userID, cart.ID, ApplyFeesInput{DeliveryFeeCents: 500, ServiceFeeCents: 150})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())

	product.Stock = 10
	product.IsActive = false
	_, err = svc.ApplyFees(context.Background(), userID, cart.ID, ApplyFeesInput{DeliveryFeeCents: 500, ServiceFeeCents: 150})
	require.Error(t, err)
}

func TestSaleProductSnapshotsEffectivePrice(t *testing.T) {
	db := setupCartTestDB(t)
	store := testStore()
	salePrice := 80
	product := testProduct(store.ID, "Bananas", 100)
	product.OnSale = true
	product.SalePriceCents = &salePrice
	svc := newCartTestService(t, db, store, map[uuid.UUID]*models.Product{product.ID: product})

	cart, err := svc.AddItem(context.Background(), uuid.New(), store.ID, AddItemInput{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 80, cart.Items[0].UnitPriceCents)
	assert.Equal(t, 240, cart.SubtotalCents)
}
