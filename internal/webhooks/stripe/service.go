package stripewebhook

import (
	"context"

	"github.com/stripe/stripe-go/v84"

	"github.com/yonaslemma/gursha-backend/internal/webhooks"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
)

type paymentRecorder interface {
	MarkPaymentResult(ctx context.Context, reference string, status enums.PaymentStatus, note *string) (*models.Order, error)
}

// ServiceParams bundles the dependencies for the Stripe webhook service.
type ServiceParams struct {
	Orders paymentRecorder
	Guard  *webhooks.IdempotencyGuard
	Logger *logger.Logger
}

// Service applies Stripe checkout events to orders exactly once.
type Service struct {
	orders paymentRecorder
	guard  *webhooks.IdempotencyGuard
	logg   *logger.Logger
}

// NewService builds the Stripe webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		orders: params.Orders,
		guard:  params.Guard,
		logg:   params.Logger,
	}, nil
}

// HandleEvent processes a verified Stripe event. Replayed deliveries are
// acknowledged without touching the order.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	seen, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook replay")
	}
	if seen {
		s.logg.Info(ctx, "stripe event already processed, skipping")
		return nil
	}

	if err := s.applyEvent(ctx, event); err != nil {
		// release the claim so Stripe's retry is not silently dropped
		if delErr := s.guard.Delete(ctx, event.ID); delErr != nil {
			s.logg.Error(ctx, "release webhook claim", delErr)
		}
		return err
	}
	return nil
}

func (s *Service) applyEvent(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		sessionID := event.GetObjectValue("id")
		if sessionID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
		}
		if event.GetObjectValue("payment_status") != "paid" {
			return nil
		}
		note := "stripe checkout completed"
		_, err := s.orders.MarkPaymentResult(ctx, sessionID, enums.PaymentStatusPaid, &note)
		return err

	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed, stripe.EventTypeCheckoutSessionExpired:
		sessionID := event.GetObjectValue("id")
		if sessionID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
		}
		note := "stripe payment failed"
		_, err := s.orders.MarkPaymentResult(ctx, sessionID, enums.PaymentStatusFailed, &note)
		return err

	default:
		return nil
	}
}
