package chapawebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/yonaslemma/gursha-backend/internal/payments"
	"github.com/yonaslemma/gursha-backend/internal/webhooks"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
)

type paymentRecorder interface {
	MarkPaymentResult(ctx context.Context, reference string, status enums.PaymentStatus, note *string) (*models.Order, error)
}

type transactionVerifier interface {
	Verify(ctx context.Context, txRef string) (*payments.VerifyResult, error)
}

// Event is the payload Chapa posts on transaction state changes.
type Event struct {
	Event  string `json:"event"`
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
}

// ServiceParams bundles the dependencies for the Chapa webhook service.
type ServiceParams struct {
	Orders   paymentRecorder
	Verifier transactionVerifier
	Guard    *webhooks.IdempotencyGuard
	Secret   string
	Logger   *logger.Logger
}

// Service applies Chapa transaction events to orders exactly once. Because
// Chapa deliveries carry no event id, the replay key combines tx_ref and the
// reported status, and the settled state is re-verified server-side before
// anything is recorded.
type Service struct {
	orders   paymentRecorder
	verifier transactionVerifier
	guard    *webhooks.IdempotencyGuard
	secret   string
	logg     *logger.Logger
}

// NewService builds the Chapa webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	}
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction verifier required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.Secret == "" {
		params.Logger.Warn(context.Background(), "chapa webhook secret not configured, signature verification disabled")
	}
	return &Service{
		orders:   params.Orders,
		verifier: params.Verifier,
		guard:    params.Guard,
		secret:   params.Secret,
		logg:     params.Logger,
	}, nil
}

// VerifySignature checks the Chapa-Signature header: an HMAC-SHA256 of the
// raw body keyed with the shared webhook secret. Deliveries pass unchecked
// when no secret is configured; the server-side verify call still gates what
// gets recorded.
func (s *Service) VerifySignature(payload []byte, signature string) error {
	if s.secret == "" {
		return nil
	}

	signature = strings.TrimSpace(signature)
	if signature == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing webhook signature")
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")
	}
	return nil
}

// HandleEvent verifies, dedupes, and applies a Chapa delivery.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	if err := s.VerifySignature(payload, signature); err != nil {
		return err
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode chapa event")
	}
	if strings.TrimSpace(event.TxRef) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tx_ref is required")
	}

	eventKey := event.TxRef + ":" + strings.ToLower(event.Status)
	seen, err := s.guard.CheckAndMark(ctx, eventKey)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook replay")
	}
	if seen {
		s.logg.Info(ctx, "chapa event already processed, skipping")
		return nil
	}

	if err := s.applyEvent(ctx, event); err != nil {
		if delErr := s.guard.Delete(ctx, eventKey); delErr != nil {
			s.logg.Error(ctx, "release webhook claim", delErr)
		}
		return err
	}
	return nil
}

func (s *Service) applyEvent(ctx context.Context, event Event) error {
	// never trust the posted status; confirm against Chapa's verify endpoint
	result, err := s.verifier.Verify(ctx, event.TxRef)
	if err != nil {
		return err
	}
	if result.Status == enums.PaymentStatusPending {
		return nil
	}

	note := "chapa " + string(result.Status)
	_, err = s.orders.MarkPaymentResult(ctx, event.TxRef, result.Status, &note)
	return err
}
