package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/yonaslemma/gursha-backend/internal/webhooks"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
)

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return value, nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = "1"
	return true, nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

type recordedResult struct {
	reference string
	status    enums.PaymentStatus
}

type recorderStub struct {
	calls []recordedResult
	err   error
}

func (r *recorderStub) MarkPaymentResult(_ context.Context, reference string, status enums.PaymentStatus, _ *string) (*models.Order, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, recordedResult{reference: reference, status: status})
	return &models.Order{PaymentStatus: status}, nil
}

func newStripeTestService(t *testing.T, recorder *recorderStub) *Service {
	t.Helper()

	guard, err := webhooks.NewIdempotencyGuard(newMemoryStore(), time.Minute, "stripe")
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Orders: recorder,
		Guard:  guard,
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc
}

func checkoutEvent(id string, eventType stripe.EventType, paymentStatus string) *stripe.Event {
	raw, _ := json.Marshal(map[string]string{
		"id":             "cs_test_" + id,
		"payment_status": paymentStatus,
	})
	var object map[string]interface{}
	_ = json.Unmarshal(raw, &object)
	return &stripe.Event{
		ID:   "evt_" + id,
		Type: eventType,
		Data: &stripe.EventData{Raw: raw, Object: object},
	}
}

func TestHandleEventMarksOrderPaid(t *testing.T) {
	recorder := &recorderStub{}
	svc := newStripeTestService(t, recorder)

	err := svc.HandleEvent(context.Background(), checkoutEvent("abc", stripe.EventTypeCheckoutSessionCompleted, "paid"))
	require.NoError(t, err)

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, "cs_test_abc", recorder.calls[0].reference)
	assert.Equal(t, enums.PaymentStatusPaid, recorder.calls[0].status)
}

func TestHandleEventSkipsReplay(t *testing.T) {
	recorder := &recorderStub{}
	svc := newStripeTestService(t, recorder)
	event := checkoutEvent("replay", stripe.EventTypeCheckoutSessionCompleted, "paid")

	require.NoError(t, svc.HandleEvent(context.Background(), event))
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	assert.Len(t, recorder.calls, 1, "redelivered events must be acknowledged without reprocessing")
}

func TestHandleEventReleasesClaimOnFailure(t *testing.T) {
	recorder := &recorderStub{err: errors.New("db unavailable")}
	svc := newStripeTestService(t, recorder)
	event := checkoutEvent("retry", stripe.EventTypeCheckoutSessionCompleted, "paid")

	require.Error(t, svc.HandleEvent(context.Background(), event))

	// the failed delivery released its claim, so the retry goes through
	recorder.err = nil
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Len(t, recorder.calls, 1)
}

func TestHandleEventIgnoresUnpaidSession(t *testing.T) {
	recorder := &recorderStub{}
	svc := newStripeTestService(t, recorder)

	err := svc.HandleEvent(context.Background(), checkoutEvent("unpaid", stripe.EventTypeCheckoutSessionCompleted, "unpaid"))
	require.NoError(t, err)
	assert.Empty(t, recorder.calls)
}

func TestHandleEventMarksFailedOnExpiredSession(t *testing.T) {
	recorder := &recorderStub{}
	svc := newStripeTestService(t, recorder)

	err := svc.HandleEvent(context.Background(), checkoutEvent("exp", stripe.EventTypeCheckoutSessionExpired, "unpaid"))
	require.NoError(t, err)

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, enums.PaymentStatusFailed, recorder.calls[0].status)
}

func TestHandleEventIgnoresUnrelatedTypes(t *testing.T) {
	recorder := &recorderStub{}
	svc := newStripeTestService(t, recorder)

	err := svc.HandleEvent(context.Background(), checkoutEvent("other", stripe.EventType("customer.created"), "paid"))
	require.NoError(t, err)
	assert.Empty(t, recorder.calls)
}
