package orders

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yonaslemma/gursha-backend/internal/products"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
)

var orderTestDBSeq atomic.Int64

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ordersvc%d?mode=memory&cache=shared", orderTestDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  category_id TEXT,
  name TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  sale_price_cents INTEGER,
  on_sale INTEGER NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  unit TEXT NOT NULL DEFAULT 'each',
  image_url TEXT,
  tags TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT,
  store_id TEXT NOT NULL,
  cart_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  payment_reference TEXT,
  currency TEXT NOT NULL DEFAULT 'USD',
  delivery_address TEXT,
  shopper_id TEXT,
  delivery_at DATETIME,
  subtotal_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL,
  delivery_fee_cents INTEGER NOT NULL,
  service_fee_cents INTEGER NOT NULL,
  tip_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_status_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  note TEXT,
  created_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newOrdersTestService(t *testing.T, db *gorm.DB) (Service, *Repository, *products.Repository) {
	t.Helper()

	orderRepo := NewRepository(db)
	productRepo := products.NewRepository(db)
	svc, err := NewService(orderRepo, productRepo, gormTxRunner{db: db}, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return svc, orderRepo, productRepo
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		StoreID:    uuid.New(),
		Name:       "Shiro Powder",
		PriceCents: 450,
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedOrder(t *testing.T, repo *Repository, userID uuid.UUID, productID *uuid.UUID, reference *string) *models.Order {
	t.Helper()

	order := &models.Order{
		OrderNumber:      fmt.Sprintf("ORD-260115-%04d", orderTestDBSeq.Add(1)),
		UserID:           &userID,
		StoreID:          uuid.New(),
		Status:           enums.OrderStatusPending,
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentMethod:    enums.PaymentMethodStripe,
		PaymentReference: reference,
		Currency:         enums.CurrencyUSD,
		SubtotalCents:    900,
		TaxCents:         72,
		DeliveryFeeCents: 500,
		ServiceFeeCents:  150,
		TipCents:         0,
		TotalCents:       1622,
		Items: []models.OrderItem{
			{ProductID: productID, Name: "Shiro Powder", UnitPriceCents: 450, Quantity: 2, TotalCents: 900},
		},
		StatusHistory: []models.OrderStatusEvent{
			{Status: enums.OrderStatusPending},
		},
	}
	_, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return order
}

func adminActor() Actor {
	return Actor{UserID: uuid.New(), Role: enums.MemberRoleAdmin}
}

func TestUpdateStatusAppendsExactlyOneEvent(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	order := seedOrder(t, repo, uuid.New(), nil, nil)

	note := "picker started"
	updated, err := svc.UpdateStatus(context.Background(), adminActor(), order.ID, enums.OrderStatusShopping, &note)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusShopping, updated.Status)
	require.Len(t, updated.StatusHistory, 2)
	assert.Equal(t, enums.OrderStatusShopping, updated.StatusHistory[len(updated.StatusHistory)-1].Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	order := seedOrder(t, repo, uuid.New(), nil, nil)

	_, err := svc.UpdateStatus(context.Background(), adminActor(), order.ID, enums.OrderStatus("lost"), nil)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestMarkPaymentResultPromotesPendingOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	reference := "cs_test_123"
	seedOrder(t, repo, uuid.New(), nil, &reference)

	updated, err := svc.MarkPaymentResult(context.Background(), reference, enums.PaymentStatusPaid, nil)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, enums.OrderStatusProcessing, updated.Status, "paid pending orders move to processing")
	assert.Len(t, updated.StatusHistory, 2)
}

func TestMarkPaymentResultIsIdempotent(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	reference := "cs_test_replay"
	seedOrder(t, repo, uuid.New(), nil, &reference)

	first, err := svc.MarkPaymentResult(context.Background(), reference, enums.PaymentStatusPaid, nil)
	require.NoError(t, err)
	historyLen := len(first.StatusHistory)

	second, err := svc.MarkPaymentResult(context.Background(), reference, enums.PaymentStatusPaid, nil)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusPaid, second.PaymentStatus)
	assert.Len(t, second.StatusHistory, historyLen, "replayed result must not append another event")
}

func TestMarkPaymentResultFailureCancelsAndRestocks(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, productRepo := newOrdersTestService(t, db)
	reference := "cs_test_failed"
	product := seedProduct(t, db, 8)
	seedOrder(t, repo, uuid.New(), &product.ID, &reference)

	updated, err := svc.MarkPaymentResult(context.Background(), reference, enums.PaymentStatusFailed, nil)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusFailed, updated.PaymentStatus)
	assert.Equal(t, enums.OrderStatusCancelled, updated.Status)

	reloaded, err := productRepo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock)
}

func TestMarkPaymentResultUnknownReference(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, _, _ := newOrdersTestService(t, db)

	_, err := svc.MarkPaymentResult(context.Background(), "cs_test_missing", enums.PaymentStatusPaid, nil)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestCancelRestoresStock(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, productRepo := newOrdersTestService(t, db)
	userID := uuid.New()
	product := seedProduct(t, db, 8)
	order := seedOrder(t, repo, userID, &product.ID, nil)

	cancelled, err := svc.Cancel(context.Background(), order.ID, userID)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.Len(t, cancelled.StatusHistory, 2)

	reloaded, err := productRepo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock, "the two reserved units go back on the shelf")
}

func TestCancelRejectsForeignOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	order := seedOrder(t, repo, uuid.New(), nil, nil)

	_, err := svc.Cancel(context.Background(), order.ID, uuid.New())
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestCancelRejectsOrdersPastProcessing(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	userID := uuid.New()
	order := seedOrder(t, repo, userID, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), adminActor(), order.ID, enums.OrderStatusShopping, nil)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), order.ID, userID)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeStateConflict, coded.Code())
}

func TestAssignShopperRecordsNote(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	order := seedOrder(t, repo, uuid.New(), nil, nil)
	shopperID := uuid.New()

	updated, err := svc.AssignShopper(context.Background(), order.ID, shopperID)
	require.NoError(t, err)

	require.NotNil(t, updated.ShopperID)
	assert.Equal(t, shopperID, *updated.ShopperID)
	require.Len(t, updated.StatusHistory, 2)
	last := updated.StatusHistory[len(updated.StatusHistory)-1]
	require.NotNil(t, last.Note)
	assert.Contains(t, *last.Note, shopperID.String())
}

func TestUpdateStatusAllowsAssignedShopper(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	order := seedOrder(t, repo, uuid.New(), nil, nil)
	shopperID := uuid.New()

	_, err := svc.AssignShopper(context.Background(), order.ID, shopperID)
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(),
		Actor{UserID: shopperID, Role: enums.MemberRoleShopper},
		order.ID, enums.OrderStatusShopping, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShopping, updated.Status)
}

func TestUpdateStatusRejectsForeignShopper(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	order := seedOrder(t, repo, uuid.New(), nil, nil)

	_, err := svc.AssignShopper(context.Background(), order.ID, uuid.New())
	require.NoError(t, err)

	// a shopper working a different order must not be able to touch this one
	_, err = svc.UpdateStatus(context.Background(),
		Actor{UserID: uuid.New(), Role: enums.MemberRoleShopper},
		order.ID, enums.OrderStatusShopping, nil)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeForbidden, coded.Code())

	reloaded, err := svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
	assert.Len(t, reloaded.StatusHistory, 1, "a rejected update leaves no trail")
}

func TestUpdateStatusRejectsUnassignedShopper(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	order := seedOrder(t, repo, uuid.New(), nil, nil)

	_, err := svc.UpdateStatus(context.Background(),
		Actor{UserID: uuid.New(), Role: enums.MemberRoleShopper},
		order.ID, enums.OrderStatusShopping, nil)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestSetDeliveryTimeRejectsForeignShopper(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	order := seedOrder(t, repo, uuid.New(), nil, nil)

	_, err := svc.AssignShopper(context.Background(), order.ID, uuid.New())
	require.NoError(t, err)

	deliveryAt := time.Now().UTC().Add(2 * time.Hour)
	_, err = svc.SetDeliveryTime(context.Background(),
		Actor{UserID: uuid.New(), Role: enums.MemberRoleShopper},
		order.ID, SetDeliveryTimeInput{DeliveryAt: &deliveryAt})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestSetDeliveryTimeAllowsAssignedShopper(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	order := seedOrder(t, repo, uuid.New(), nil, nil)
	shopperID := uuid.New()

	_, err := svc.AssignShopper(context.Background(), order.ID, shopperID)
	require.NoError(t, err)

	deliveryAt := time.Now().UTC().Add(2 * time.Hour)
	updated, err := svc.SetDeliveryTime(context.Background(),
		Actor{UserID: shopperID, Role: enums.MemberRoleShopper},
		order.ID, SetDeliveryTimeInput{DeliveryAt: &deliveryAt})
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveryAt)
}

func TestGetForStaffHidesUnassignedOrders(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	order := seedOrder(t, repo, uuid.New(), nil, nil)
	shopperID := uuid.New()

	_, err := svc.AssignShopper(context.Background(), order.ID, shopperID)
	require.NoError(t, err)

	found, err := svc.GetForStaff(context.Background(), Actor{UserID: shopperID, Role: enums.MemberRoleShopper}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	found, err = svc.GetForStaff(context.Background(), adminActor(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.GetForStaff(context.Background(), Actor{UserID: uuid.New(), Role: enums.MemberRoleShopper}, order.ID)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestGetOwnedByIDHidesForeignOrders(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc, repo, _ := newOrdersTestService(t, db)
	owner := uuid.New()
	order := seedOrder(t, repo, owner, nil, nil)

	found, err := svc.GetOwnedByID(context.Background(), order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.GetOwnedByID(context.Background(), order.ID, uuid.New())
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}
