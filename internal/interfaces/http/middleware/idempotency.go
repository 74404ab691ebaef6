package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
	"github.com/clearbook/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader names the client-chosen key of a posting request
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// Idempotency refuses a posting request whose Idempotency-Key was already
// used by the same tenant on the same route within ttl. Requests without
// the header pass through. A request that fails (status >= 400) releases
// its key so the client may retry. When the store is unavailable the
// request is served. A nil store disables the check.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration, l *zap.Logger) gin.HandlerFunc {
	if store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abort(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}
		tenantID, _ := GetTenantID(c)
		storeKey := "http:" + tenantID.String() + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key

		ctx := c.Request.Context()
		log := logger.Enrich(ctx, l)
		fresh, err := store.MarkProcessed(ctx, storeKey, ttl)
		if err != nil {
			log.Warn("idempotency store unavailable, serving request", zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			log.Info("duplicate request refused", zap.String("idempotency_key", key))
			abort(c, http.StatusConflict, dto.ErrCodeDuplicateRequest, "A request with this Idempotency-Key was already processed")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(ctx, storeKey); err != nil {
				log.Warn("release idempotency key failed", zap.Error(err))
			}
		}
	}
}
