package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisIdempotencyStore_WrapsErrors(t *testing.T) {
	// nothing listens on this port
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisIdempotencyStore(client, "")
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "k", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to mark key as processed")

	_, err = store.IsProcessed(ctx, "k")
	require.Error(t, err)

	require.Error(t, store.Release(ctx, "k"))
	assert.NoError(t, store.Close())
	assert.Equal(t, EventKeyPrefix, store.keyPrefix)
}

func TestNewStores_UsesRedisWhenGiven(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	stores := NewStores(client, nil)
	assert.Equal(t, "redis", stores.Backend())
	assert.Equal(t, EventKeyPrefix, stores.Events.(*RedisIdempotencyStore).keyPrefix)
	assert.Equal(t, RequestKeyPrefix, stores.Requests.(*RedisIdempotencyStore).keyPrefix)
}
