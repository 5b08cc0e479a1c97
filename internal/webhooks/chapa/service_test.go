package chapawebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonaslemma/gursha-backend/internal/payments"
	"github.com/yonaslemma/gursha-backend/internal/webhooks"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
)

const testSecret = "whsec_chapa_test"

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
}

func (r *recorderStub) MarkPaymentResult(_ context.Context, reference string, status enums.PaymentStatus, _ *string) (*models.Order, error) {
	r.calls = append(r.calls, recordedResult{reference: reference, status: status})
	return &models.Order{PaymentStatus: status}, nil
}

type verifierStub struct {
	status enums.PaymentStatus
	err    error
	calls  int
}

func (v *verifierStub) Verify(_ context.Context, txRef string) (*payments.VerifyResult, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return &payments.VerifyResult{Reference: txRef, Status: v.status}, nil
}

func newChapaTestService(t *testing.T, recorder *recorderStub, verifier *verifierStub) *Service {
	t.Helper()

	guard, err := webhooks.NewIdempotencyGuard(newMemoryStore(), time.Minute, "chapa")
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Orders:   recorder,
		Verifier: verifier,
		Guard:    guard,
		Secret:   testSecret,
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc
}

func sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := newChapaTestService(t, &recorderStub{}, &verifierStub{status: enums.PaymentStatusPaid})
	payload := []byte(`{"tx_ref":"gursha-1","status":"success"}`)

	assert.NoError(t, svc.VerifySignature(payload, sign(payload)))

	err := svc.VerifySignature(payload, "deadbeef")
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeUnauthorized, coded.Code())

	err = svc.VerifySignature(payload, "")
	require.Error(t, err)
}

func TestVerifySignatureSkippedWithoutSecret(t *testing.T) {
	recorder := &recorderStub{}
	verifier := &verifierStub{status: enums.PaymentStatusPaid}
	guard, err := webhooks.NewIdempotencyGuard(newMemoryStore(), time.Minute, "chapa")
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Orders:   recorder,
		Verifier: verifier,
		Guard:    guard,
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err, "no configured secret must not block construction")

	payload := []byte(`{"event":"charge.success","tx_ref":"gursha-21","status":"success"}`)
	require.NoError(t, svc.HandleEvent(context.Background(), payload, ""))

	assert.Equal(t, 1, verifier.calls, "the verify endpoint still gates unsigned deliveries")
	require.Len(t, recorder.calls, 1)
	assert.Equal(t, "gursha-21", recorder.calls[0].reference)
}

func TestHandleEventRecordsVerifiedStatus(t *testing.T) {
	recorder := &recorderStub{}
	verifier := &verifierStub{status: enums.PaymentStatusPaid}
	svc := newChapaTestService(t, recorder, verifier)
	payload := []byte(`{"event":"charge.success","tx_ref":"gursha-42","status":"success"}`)

	require.NoError(t, svc.HandleEvent(context.Background(), payload, sign(payload)))

	assert.Equal(t, 1, verifier.calls)
	require.Len(t, recorder.calls, 1)
	assert.Equal(t, "gursha-42", recorder.calls[0].reference)
	assert.Equal(t, enums.PaymentStatusPaid, recorder.calls[0].status)
}

func TestHandleEventTrustsVerifierOverPayload(t *testing.T) {
	recorder := &recorderStub{}
	// the delivery claims success but the verify endpoint disagrees
	verifier := &verifierStub{status: enums.PaymentStatusFailed}
	svc := newChapaTestService(t, recorder, verifier)
	payload := []byte(`{"event":"charge.success","tx_ref":"gursha-7","status":"success"}`)

	require.NoError(t, svc.HandleEvent(context.Background(), payload, sign(payload)))

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, enums.PaymentStatusFailed, recorder.calls[0].status)
}

func TestHandleEventSkipsReplay(t *testing.T) {
	recorder := &recorderStub{}
	verifier := &verifierStub{status: enums.PaymentStatusPaid}
	svc := newChapaTestService(t, recorder, verifier)
	payload := []byte(`{"event":"charge.success","tx_ref":"gursha-9","status":"success"}`)
	signature := sign(payload)

	require.NoError(t, svc.HandleEvent(context.Background(), payload, signature))
	require.NoError(t, svc.HandleEvent(context.Background(), payload, signature))

	assert.Equal(t, 1, verifier.calls)
	assert.Len(t, recorder.calls, 1)
}

func TestHandleEventPendingVerificationIsNoOp(t *testing.T) {
	recorder := &recorderStub{}
	verifier := &verifierStub{status: enums.PaymentStatusPending}
	svc := newChapaTestService(t, recorder, verifier)
	payload := []byte(`{"event":"charge.pending","tx_ref":"gursha-11","status":"pending"}`)

	require.NoError(t, svc.HandleEvent(context.Background(), payload, sign(payload)))
	assert.Empty(t, recorder.calls, "unsettled transactions leave the order untouched")
}

func TestHandleEventReleasesClaimOnVerifierError(t *testing.T) {
	recorder := &recorderStub{}
	verifier := &verifierStub{err: errors.New("chapa unreachable")}
	svc := newChapaTestService(t, recorder, verifier)
	payload := []byte(`{"event":"charge.success","tx_ref":"gursha-13","status":"success"}`)
	signature := sign(payload)

	require.Error(t, svc.HandleEvent(context.Background(), payload, signature))

	verifier.err = nil
	verifier.status = enums.PaymentStatusPaid
	require.NoError(t, svc.HandleEvent(context.Background(), payload, signature))
	assert.Len(t, recorder.calls, 1)
}

func TestHandleEventRequiresTxRef(t *testing.T) {
	recorder := &recorderStub{}
	svc := newChapaTestService(t, recorder, &verifierStub{status: enums.PaymentStatusPaid})
	payload := []byte(`{"event":"charge.success","status":"success"}`)

	err := svc.HandleEvent(context.Background(), payload, sign(payload))
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestHandleEventRejectsTamperedPayload(t *testing.T) {
	recorder := &recorderStub{}
	svc := newChapaTestService(t, recorder, &verifierStub{status: enums.PaymentStatusPaid})
	payload := []byte(`{"event":"charge.success","tx_ref":"gursha-15","status":"success"}`)
	signature := sign(payload)

	tampered := []byte(`{"event":"charge.success","tx_ref":"gursha-999","status":"success"}`)
	err := svc.HandleEvent(context.Background(), tampered, signature)
	require.Error(t, err)
	assert.Empty(t, recorder.calls)
}
