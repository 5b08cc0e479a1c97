package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yonaslemma/gursha-backend/internal/cart"
	"github.com/yonaslemma/gursha-backend/internal/orders"
	"github.com/yonaslemma/gursha-backend/internal/payments"
	"github.com/yonaslemma/gursha-backend/internal/products"
	"github.com/yonaslemma/gursha-backend/pkg/db"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
	"github.com/yonaslemma/gursha-backend/pkg/types"
)

// orderNumberAttempts bounds retries when the random suffix collides.
const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateOrderInput captures the checkout payload.
type CreateOrderInput struct {
	CartID          uuid.UUID
	PaymentMethod   enums.PaymentMethod
	Currency        enums.Currency
	DeliveryAddress *types.Address
	Notes           *string
}

// CheckoutResult bundles the created order with the hosted payment page, when
// the method requires one.
type CheckoutResult struct {
	Order       *models.Order
	CheckoutURL string
}

// Service converts a cart into an immutable order in a single transaction:
// stock is decremented, the snapshot is frozen, and the cart is retired.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*CheckoutResult, error)
}

type service struct {
	cartRepo    *cart.Repository
	orderRepo   *orders.Repository
	productRepo *products.Repository
	tx          txRunner
	gateways    *payments.Registry
	logg        *logger.Logger
}

// NewService builds a checkout service backed by the provided stack.
func NewService(
	cartRepo *cart.Repository,
	orderRepo *orders.Repository,
	productRepo *products.Repository,
	tx txRunner,
	gateways *payments.Registry,
	logg *logger.Logger,
) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateways == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		tx:          tx,
		gateways:    gateways,
		logg:        logg,
	}, nil
}

// CreateOrder freezes the cart into an order. Totals are copied verbatim from
// the cart, never recomputed, so the amount the user saw is the amount
// charged. Stock is decremented with a conditional update; any shortfall
// rolls back the whole transaction and nothing is created.
func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*CheckoutResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if input.DeliveryAddress == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if err := input.DeliveryAddress.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
	}

	if input.PaymentMethod.RequiresGateway() {
		if _, err := s.gateways.ForMethod(input.PaymentMethod); err != nil {
			return nil, err
		}
	}

	var order *models.Order
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order, err = s.createOrderOnce(ctx, userID, input, currency)
		if err == nil {
			break
		}
		if !db.IsUniqueViolation(err, "order_number") {
			return nil, err
		}
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("order %s created", order.OrderNumber))

	result := &CheckoutResult{Order: order}

	if input.PaymentMethod.RequiresGateway() {
		gateway, err := s.gateways.ForMethod(input.PaymentMethod)
		if err != nil {
			return nil, err
		}
		init, err := gateway.Initialize(ctx, order)
		if err != nil {
			s.logg.Error(ctx, "payment initialization failed", err)
			return nil, err
		}

		order.PaymentReference = &init.Reference
		if _, err := s.orderRepo.Update(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment reference")
		}
		result.CheckoutURL = init.CheckoutURL
	}

	return result, nil
}

func (s *service) createOrderOnce(ctx context.Context, userID uuid.UUID, input CreateOrderInput, currency enums.Currency) (*models.Order, error) {
	now := time.Now().UTC()
	orderNumber, err := newOrderNumber(now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	var created *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		record, err := cartRepo.FindByIDAndUser(ctx, input.CartID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}
		if record.Status != enums.CartStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart has already been checked out")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		items := make([]models.OrderItem, 0, len(record.Items))
		for _, line := range record.Items {
			product, err := productRepo.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation,
						fmt.Sprintf("%s is no longer sold", line.Name))
				}
				return err
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("%s is no longer available", line.Name))
			}

			if err := productRepo.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, products.ErrInsufficientStock) {
					return pkgerrors.New(pkgerrors.CodeConflict,
						fmt.Sprintf("insufficient stock for %s", line.Name))
				}
				return err
			}

			productID := line.ProductID
			items = append(items, models.OrderItem{
				ProductID:      &productID,
				Name:           line.Name,
				UnitPriceCents: line.UnitPriceCents,
				Quantity:       line.Quantity,
				TotalCents:     line.LineTotalCents(),
				Notes:          line.Notes,
			})
		}

		cartID := record.ID
		order := &models.Order{
			OrderNumber:      orderNumber,
			UserID:           &userID,
			StoreID:          record.StoreID,
			CartID:           &cartID,
			Status:           enums.OrderStatusPending,
			PaymentStatus:    enums.PaymentStatusPending,
			PaymentMethod:    input.PaymentMethod,
			Currency:         currency,
			DeliveryAddress:  input.DeliveryAddress,
			SubtotalCents:    record.SubtotalCents,
			TaxCents:         record.TaxCents,
			DeliveryFeeCents: record.DeliveryFeeCents,
			ServiceFeeCents:  record.ServiceFeeCents,
			TipCents:         record.TipCents,
			TotalCents:       record.TotalCents,
			Notes:            input.Notes,
			Items:            items,
			StatusHistory: []models.OrderStatusEvent{
				{Status: enums.OrderStatusPending},
			},
		}

		if _, err := orderRepo.Create(ctx, order); err != nil {
			return err
		}

		if err := cartRepo.UpdateStatus(ctx, record.ID, enums.CartStatusConverted); err != nil {
			return err
		}

		created, err = orderRepo.FindByID(ctx, order.ID)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	return created, nil
}
