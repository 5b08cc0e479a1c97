package webhooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values map[string]string
}

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return value, nil
}

func (s *fakeStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = "1"
	return true, nil
}

func (s *fakeStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (s *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestNewIdempotencyGuardValidation(t *testing.T) {
	store := &fakeStore{values: map[string]string{}}

	_, err := NewIdempotencyGuard(nil, time.Minute, "stripe")
	assert.Error(t, err)

	_, err = NewIdempotencyGuard(store, -time.Second, "stripe")
	assert.Error(t, err)

	_, err = NewIdempotencyGuard(store, time.Minute, "")
	assert.Error(t, err)
}

func TestCheckAndMarkClaimsOnce(t *testing.T) {
	store := &fakeStore{values: map[string]string{}}
	guard, err := NewIdempotencyGuard(store, time.Minute, "stripe")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestGuardScopesDoNotCollide(t *testing.T) {
	store := &fakeStore{values: map[string]string{}}
	stripeGuard, err := NewIdempotencyGuard(store, time.Minute, "stripe")
	require.NoError(t, err)
	chapaGuard, err := NewIdempotencyGuard(store, time.Minute, "chapa")
	require.NoError(t, err)

	seen, err := stripeGuard.CheckAndMark(context.Background(), "shared-id")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = chapaGuard.CheckAndMark(context.Background(), "shared-id")
	require.NoError(t, err)
	assert.False(t, seen, "providers keep separate replay namespaces")
}

func TestDeleteReleasesClaim(t *testing.T) {
	store := &fakeStore{values: map[string]string{}}
	guard, err := NewIdempotencyGuard(store, time.Minute, "chapa")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "tx-1:paid")
	require.NoError(t, err)

	require.NoError(t, guard.Delete(context.Background(), "tx-1:paid"))

	seen, err := guard.CheckAndMark(context.Background(), "tx-1:paid")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestCheckAndMarkRequiresEventID(t *testing.T) {
	store := &fakeStore{values: map[string]string{}}
	guard, err := NewIdempotencyGuard(store, time.Minute, "stripe")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "")
	assert.Error(t, err)

	assert.Error(t, guard.Delete(context.Background(), ""))
}
