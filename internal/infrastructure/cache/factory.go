// Package cache holds the Redis client and the idempotency stores used for
// event deduplication and the Idempotency-Key header.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/config"
)

const pingTimeout = 5 * time.Second

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// Stores are the two idempotency namespaces of the API process
type Stores struct {
	Events   shared.IdempotencyStore
	Requests shared.IdempotencyStore
	backend  string
}

// Backend names the store implementation, "redis" or "memory"
func (s *Stores) Backend() string {
	return s.backend
}

// Close closes both stores
func (s *Stores) Close() error {
	err := s.Events.Close()
	if rerr := s.Requests.Close(); err == nil {
		err = rerr
	}
	return err
}

// NewStores builds Redis-backed stores when a client is given and
// in-memory stores otherwise
func NewStores(client redis.UniversalClient, logger *zap.Logger) *Stores {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client != nil {
		logger.Info("using Redis idempotency stores")
		return &Stores{
			Events:   NewRedisIdempotencyStore(client, EventKeyPrefix),
			Requests: NewRedisIdempotencyStore(client, RequestKeyPrefix),
			backend:  "redis",
		}
	}
	logger.Warn("Redis disabled, idempotency keys are kept in memory and not shared between instances")
	return &Stores{
		Events:   NewInMemoryIdempotencyStore(),
		Requests: NewInMemoryIdempotencyStore(),
		backend:  "memory",
	}
}
