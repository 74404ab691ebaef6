package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clearbook/backend/internal/infrastructure/auth"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

const (
	// ClaimsKey is the gin context key of the validated access token claims
	ClaimsKey = "jwt_claims"

	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// RevocationChecker reports whether a validated token was revoked by
// logout or a password change
type RevocationChecker interface {
	IsRevoked(ctx context.Context, claims *auth.Claims) (bool, error)
}

// JWTConfig configures JWTAuth
type JWTConfig struct {
	JWTService *auth.JWTService
	// Revocation is optional
	Revocation RevocationChecker
	// SkipPaths are full request paths served without a token
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth requires a valid, unrevoked bearer access token
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		header := c.GetHeader(authHeader)
		if !strings.HasPrefix(header, bearerPrefix) || strings.TrimSpace(header[len(bearerPrefix):]) == "" {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or malformed authorization header")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			code, message := tokenErrorCode(err)
			logger.Enrich(c.Request.Context(), cfg.Logger).Debug("access token rejected",
				zap.String("path", c.Request.URL.Path), zap.Error(err))
			abort(c, http.StatusUnauthorized, code, message)
			return
		}

		if cfg.Revocation != nil {
			revoked, err := cfg.Revocation.IsRevoked(c.Request.Context(), claims)
			switch {
			case err != nil:
				// fail open: the blacklist is an optimisation over token expiry
				logger.Enrich(c.Request.Context(), cfg.Logger).Error("token revocation check failed",
					zap.String("user_id", claims.UserID), zap.Error(err))
			case revoked:
				abort(c, http.StatusUnauthorized, "TOKEN_REVOKED", "Token has been revoked")
				return
			}
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func tokenErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "TOKEN_EXPIRED", "Token has expired"
	case errors.Is(err, auth.ErrInvalidTokenType):
		return "INVALID_TOKEN", "An access token is required"
	default:
		return "INVALID_TOKEN", "Invalid token"
	}
}

// GetClaims returns the claims stored by JWTAuth, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
