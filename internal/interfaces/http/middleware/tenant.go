package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clearbook/backend/internal/infrastructure/logger"
)

const (
	// TenantIDKey is the gin context key of the caller's tenant
	TenantIDKey = "tenant_id"
	// UserIDKey is the gin context key of the caller
	UserIDKey = "user_id"

	// TenantHeader may be sent by clients; it must agree with the token
	TenantHeader = "X-Tenant-ID"
)

// TenantContext resolves the tenant and user of an authenticated request
// from its claims. Every repository call downstream is scoped by this
// tenant id. A X-Tenant-ID header naming another tenant is refused.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.Next()
			return
		}
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil || tenantID == uuid.Nil {
			abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token carries no valid tenant")
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token carries no valid user")
			return
		}
		if h := c.GetHeader(TenantHeader); h != "" && h != tenantID.String() {
			abort(c, http.StatusForbidden, "FORBIDDEN", "Tenant header does not match the authenticated tenant")
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Set(UserIDKey, userID)
		c.Request = c.Request.WithContext(logger.WithTenant(c.Request.Context(), tenantID.String(), userID.String()))
		c.Next()
	}
}

// GetTenantID returns the tenant set by TenantContext
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(TenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetUserID returns the user set by TenantContext
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
