package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// Permissions builds per-route permission guards
type Permissions struct {
	logger *zap.Logger
}

// NewPermissions creates a guard factory
func NewPermissions(l *zap.Logger) *Permissions {
	if l == nil {
		l = zap.NewNop()
	}
	return &Permissions{logger: l}
}

// Require lets the request through when the token grants any of codes
func (p *Permissions) Require(codes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		for _, code := range codes {
			if claims.HasPermission(code) {
				c.Next()
				return
			}
		}
		logger.Enrich(c.Request.Context(), p.logger).Warn("permission denied",
			zap.Strings("required_any", codes),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()))
		abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	}
}
