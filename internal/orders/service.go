package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yonaslemma/gursha-backend/internal/products"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
	"github.com/yonaslemma/gursha-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies the staff member performing an operation. Admins can touch
// any order; shoppers only the ones assigned to them.
type Actor struct {
	UserID uuid.UUID
	Role   enums.MemberRole
}

func (a Actor) canWork(order *models.Order) bool {
	if a.Role == enums.MemberRoleAdmin {
		return true
	}
	return order.ShopperID != nil && *order.ShopperID == a.UserID
}

// Service exposes order lifecycle operations. Orders are immutable snapshots:
// only status, payment status, shopper assignment, and delivery time mutate,
// and every mutation appends exactly one history event.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetOwnedByID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	GetForStaff(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, page pagination.Page) ([]models.Order, int64, error)
	Cancel(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.OrderStatus, note *string) (*models.Order, error)
	AssignShopper(ctx context.Context, id, shopperID uuid.UUID) (*models.Order, error)
	SetDeliveryTime(ctx context.Context, actor Actor, id uuid.UUID, input SetDeliveryTimeInput) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, note *string) (*models.Order, error)
	MarkPaymentResult(ctx context.Context, reference string, status enums.PaymentStatus, note *string) (*models.Order, error)
}

type service struct {
	repo        *Repository
	productRepo *products.Repository
	tx          txRunner
	logg        *logger.Logger
}

// NewService builds an order service backed by the provided stack.
func NewService(repo *Repository, productRepo *products.Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, productRepo: productRepo, tx: tx, logg: logg}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// GetOwnedByID returns the order only when it belongs to the provided user.
func (s *service) GetOwnedByID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// GetForStaff returns the order for admins, or for the shopper it is assigned
// to. Everyone else sees not found.
func (s *service) GetForStaff(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canWork(order) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Page) ([]models.Order, int64, error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, total, nil
}

// Cancel lets the owner back out of an order that has not been picked up yet.
// Reserved stock goes back on the shelf in the same transaction.
func (s *service) Cancel(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var saved *models.Order
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txProducts := s.productRepo.WithTx(tx)

		order, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if order.UserID == nil || *order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
		}

		for _, line := range order.Items {
			if line.ProductID == nil {
				continue
			}
			if err := txProducts.RestoreStock(ctx, *line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		order.Status = enums.OrderStatusCancelled
		if _, err := txRepo.Update(ctx, order); err != nil {
			return err
		}

		note := "cancelled by customer"
		if err := txRepo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  enums.OrderStatusCancelled,
			Note:    &note,
		}); err != nil {
			return err
		}

		saved, err = txRepo.FindByID(ctx, order.ID)
		return err
	}); err != nil {
		return nil, wrapOrderErr(err, "cancel order")
	}

	ctx = s.logg.WithOrderID(ctx, saved.ID.String())
	s.logg.Info(ctx, "order cancelled")

	return saved, nil
}

// UpdateStatus moves the order to any valid status. Transitions are
// deliberately unconstrained so staff can correct mistakes; the history
// trail records every hop.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.OrderStatus, note *string) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	return s.mutate(ctx, id, func(txRepo *Repository, order *models.Order) error {
		if !actor.canWork(order) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to you")
		}
		order.Status = status
		if _, err := txRepo.Update(ctx, order); err != nil {
			return err
		}
		return txRepo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  status,
			Note:    note,
		})
	})
}

// AssignShopper attaches the shopper handling the order and logs the assignment.
func (s *service) AssignShopper(ctx context.Context, id, shopperID uuid.UUID) (*models.Order, error) {
	if shopperID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shopper id is required")
	}

	return s.mutate(ctx, id, func(txRepo *Repository, order *models.Order) error {
		order.ShopperID = &shopperID
		if _, err := txRepo.Update(ctx, order); err != nil {
			return err
		}
		note := fmt.Sprintf("shopper %s assigned", shopperID)
		return txRepo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  order.Status,
			Note:    &note,
		})
	})
}

// SetDeliveryTimeInput carries the scheduled delivery slot.
type SetDeliveryTimeInput struct {
	DeliveryAt *time.Time
}

// SetDeliveryTime records when the order should arrive and logs the change.
func (s *service) SetDeliveryTime(ctx context.Context, actor Actor, id uuid.UUID, input SetDeliveryTimeInput) (*models.Order, error) {
	if input.DeliveryAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery time is required")
	}

	deliveryAt := *input.DeliveryAt
	return s.mutate(ctx, id, func(txRepo *Repository, order *models.Order) error {
		if !actor.canWork(order) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to you")
		}
		order.DeliveryAt = &deliveryAt
		if _, err := txRepo.Update(ctx, order); err != nil {
			return err
		}
		note := fmt.Sprintf("delivery scheduled for %s", deliveryAt.Format("2006-01-02 15:04"))
		return txRepo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  order.Status,
			Note:    &note,
		})
	})
}

// UpdatePaymentStatus sets the payment state independently of fulfillment status.
func (s *service) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, note *string) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	return s.mutate(ctx, id, func(txRepo *Repository, order *models.Order) error {
		order.PaymentStatus = status
		if _, err := txRepo.Update(ctx, order); err != nil {
			return err
		}
		eventNote := note
		if eventNote == nil {
			text := fmt.Sprintf("payment status set to %s", status)
			eventNote = &text
		}
		return txRepo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  order.Status,
			Note:    eventNote,
		})
	})
}

// MarkPaymentResult records a gateway-confirmed payment outcome looked up by
// transaction reference. Re-delivering the same outcome is a no-op, which
// keeps webhook processing idempotent.
func (s *service) MarkPaymentResult(ctx context.Context, reference string, status enums.PaymentStatus, note *string) (*models.Order, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var saved *models.Order
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := txRepo.FindByPaymentReference(ctx, reference)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found for payment reference")
			}
			return err
		}

		if order.PaymentStatus == status {
			saved = order
			return nil
		}

		order.PaymentStatus = status
		if status == enums.PaymentStatusPaid && order.Status == enums.OrderStatusPending {
			order.Status = enums.OrderStatusProcessing
		}
		if status == enums.PaymentStatusFailed &&
			(order.Status == enums.OrderStatusPending || order.Status == enums.OrderStatusProcessing) {
			// a dead payment ends the order; put the reserved units back
			txProducts := s.productRepo.WithTx(tx)
			for _, item := range order.Items {
				if item.ProductID == nil {
					continue
				}
				if err := txProducts.RestoreStock(ctx, *item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			order.Status = enums.OrderStatusCancelled
		}
		if _, err := txRepo.Update(ctx, order); err != nil {
			return err
		}

		eventNote := note
		if eventNote == nil {
			text := fmt.Sprintf("payment %s via gateway", status)
			eventNote = &text
		}
		if err := txRepo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  order.Status,
			Note:    eventNote,
		}); err != nil {
			return err
		}

		saved, err = txRepo.FindByID(ctx, order.ID)
		return err
	}); err != nil {
		return nil, wrapOrderErr(err, "mark payment result")
	}

	ctx = s.logg.WithOrderID(ctx, saved.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("payment result recorded: %s", status))

	return saved, nil
}

func (s *service) mutate(ctx context.Context, id uuid.UUID, fn func(txRepo *Repository, order *models.Order) error) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var saved *models.Order
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}

		if err := fn(txRepo, order); err != nil {
			return err
		}

		saved, err = txRepo.FindByID(ctx, id)
		return err
	}); err != nil {
		return nil, wrapOrderErr(err, "update order")
	}

	return saved, nil
}

func wrapOrderErr(err error, op string) error {
	var coded *pkgerrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
