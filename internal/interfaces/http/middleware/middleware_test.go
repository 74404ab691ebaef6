package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/clearbook/backend/internal/infrastructure/auth"
	"github.com/clearbook/backend/internal/infrastructure/cache"
	"github.com/clearbook/backend/internal/infrastructure/config"
	"github.com/clearbook/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
}

func issue(t *testing.T, svc *auth.JWTService, perms ...string) (*auth.TokenPair, auth.Subject) {
	t.Helper()
	sub := auth.Subject{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "alice",
		Permissions: perms,
	}
	pair, err := svc.Issue(sub)
	require.NoError(t, err)
	return pair, sub
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

type revocation struct {
	revoked bool
	err     error
}

func (r revocation) IsRevoked(context.Context, *auth.Claims) (bool, error) {
	return r.revoked, r.err
}

func authRouter(cfg JWTConfig, perms *Permissions, required ...string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), JWTAuth(cfg), TenantContext())
	handler := func(c *gin.Context) {
		tenantID, _ := GetTenantID(c)
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"tenant": tenantID.String(), "user": userID.String()})
	}
	r.GET("/public", handler)
	if perms != nil {
		r.GET("/guarded", perms.Require(required...), handler)
	} else {
		r.GET("/guarded", handler)
	}
	return r
}

func TestJWTAuth(t *testing.T) {
	svc := newTestJWTService()
	pair, sub := issue(t, svc, "voucher:read")

	tests := []struct {
		name       string
		path       string
		header     string
		tenant     string
		revocation RevocationChecker
		wantStatus int
		wantCode   string
	}{
		{name: "valid token", path: "/guarded", header: "Bearer " + pair.AccessToken, wantStatus: http.StatusOK},
		{name: "skipped path", path: "/public", wantStatus: http.StatusOK},
		{name: "missing header", path: "/guarded", wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "not bearer", path: "/guarded", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "garbage token", path: "/guarded", header: "Bearer abc.def.ghi", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "refresh token", path: "/guarded", header: "Bearer " + pair.RefreshToken, wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "revoked", path: "/guarded", header: "Bearer " + pair.AccessToken, revocation: revocation{revoked: true}, wantStatus: http.StatusUnauthorized, wantCode: "TOKEN_REVOKED"},
		{name: "revocation store down", path: "/guarded", header: "Bearer " + pair.AccessToken, revocation: revocation{err: errors.New("redis down")}, wantStatus: http.StatusOK},
		{name: "foreign tenant header", path: "/guarded", header: "Bearer " + pair.AccessToken, tenant: uuid.NewString(), wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN"},
		{name: "matching tenant header", path: "/guarded", header: "Bearer " + pair.AccessToken, tenant: sub.TenantID.String(), wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authRouter(JWTConfig{JWTService: svc, Revocation: tt.revocation, SkipPaths: []string{"/public"}}, nil)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.tenant != "" {
				req.Header.Set(TenantHeader, tt.tenant)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				resp := decode(t, rec)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				assert.Equal(t, rec.Header().Get(RequestIDHeader), resp.Error.RequestID)
			}
		})
	}

	t.Run("exposes tenant and user", func(t *testing.T) {
		r := authRouter(JWTConfig{JWTService: svc}, nil)
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"tenant":"`+sub.TenantID.String()+`","user":"`+sub.UserID.String()+`"}`, rec.Body.String())
	})
}

func TestPermissions_Require(t *testing.T) {
	svc := newTestJWTService()
	pair, _ := issue(t, svc, "voucher:read")
	perms := NewPermissions(nil)

	tests := []struct {
		name     string
		required []string
		want     int
	}{
		{"granted", []string{"voucher:read"}, http.StatusOK},
		{"any of", []string{"voucher:post", "voucher:read"}, http.StatusOK},
		{"missing", []string{"voucher:post"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authRouter(JWTConfig{JWTService: svc}, perms, tt.required...)
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	t.Run("without claims", func(t *testing.T) {
		r := gin.New()
		r.GET("/x", perms.Require("voucher:read"), func(c *gin.Context) { c.Status(http.StatusOK) })
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Body.String())
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Body.String(), 32)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	r.ServeHTTP(rec, req)
	assert.Len(t, rec.Body.String(), 32, "oversized ids are replaced")
}

func TestSecure(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTSEnabled = true
	r := gin.New()
	r.Use(Secure(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{AllowOrigins: []string{"https://app.clearbook.test"}, AllowCredentials: true, MaxAge: time.Hour}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("https://app.clearbook.test")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.clearbook.test", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight("https://evil.test")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), BodyLimit(10))
	r.POST("/", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"much too long"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, dto.ErrCodeTooLarge, decode(t, rec).Error.Code)
}

func TestRateLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(2, time.Hour)
	defer rl.Stop()
	r := gin.New()
	r.Use(RequestID(), RateLimit(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = rec.Code
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	allowed, _ := rl.Allow("10.0.0.9")
	assert.True(t, allowed, "buckets are per client")
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(3 * time.Minute)
	rl.Allow("b")
	rl.evictIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "a")
	assert.Contains(t, rl.visitors, "b")
}

func TestIdempotency(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	status := http.StatusCreated
	calls := 0
	r := gin.New()
	r.Use(RequestID())
	r.POST("/vouchers/:id/post", Idempotency(store, time.Hour, nil), func(c *gin.Context) {
		calls++
		c.Status(status)
	})

	send := func(path, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, send("/vouchers/1/post", "k1").Code)
	dup := send("/vouchers/2/post", "k1")
	assert.Equal(t, http.StatusConflict, dup.Code, "keys are scoped to the route, not the path")
	assert.Equal(t, dto.ErrCodeDuplicateRequest, decode(t, dup).Error.Code)
	assert.Equal(t, http.StatusCreated, send("/vouchers/1/post", "").Code)
	assert.Equal(t, http.StatusCreated, send("/vouchers/1/post", "").Code)
	assert.Equal(t, 3, calls)

	status = http.StatusUnprocessableEntity
	assert.Equal(t, http.StatusUnprocessableEntity, send("/vouchers/1/post", "k2").Code)
	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, send("/vouchers/1/post", "k2").Code, "failed requests release their key")

	assert.Equal(t, http.StatusBadRequest, send("/vouchers/1/post", strings.Repeat("k", 300)).Code)
}
