package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/cache"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	inner := newTestHandler("E")
	h := NewIdempotentHandler(inner, store, time.Hour, nil)

	event := newTestEvent("E")
	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), newTestEvent("E")))

	assert.Equal(t, 2, inner.count())
	assert.Equal(t, IdempotencyStats{Processed: 2, Duplicate: 1}, h.Stats())
	assert.Equal(t, []string{"E"}, h.EventTypes())
}

func TestIdempotentHandler_ReleasesOnFailure(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	inner := newTestHandler("E")
	inner.err = errors.New("database down")
	h := NewIdempotentHandler(inner, store, 0, nil)

	event := newTestEvent("E")
	require.Error(t, h.Handle(context.Background(), event))

	inner.err = nil
	require.NoError(t, h.Handle(context.Background(), event))
	assert.Equal(t, 2, inner.count())
	assert.Equal(t, IdempotencyStats{Processed: 1, Failed: 1}, h.Stats())
}

func TestIdempotentHandler_ProcessesWhenStoreFails(t *testing.T) {
	store := new(mockStore)
	event := newTestEvent("E")
	store.On("MarkProcessed", mock.Anything, event.EventID().String(), shared.DefaultIdempotencyTTL).
		Return(false, errors.New("redis unavailable"))

	inner := newTestHandler("E")
	h := NewIdempotentHandler(inner, store, 0, nil)
	require.NoError(t, h.Handle(context.Background(), event))

	assert.Equal(t, 1, inner.count())
	store.AssertExpectations(t)
}
