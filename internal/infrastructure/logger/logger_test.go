package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	"github.com/clearbook/backend/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr bool
	}{
		{name: "defaults", cfg: config.LogConfig{}},
		{name: "console debug", cfg: config.LogConfig{Level: "debug", Format: "console", Output: "stderr"}},
		{name: "json with layout", cfg: config.LogConfig{Level: "WARN", Format: "json", TimeFormat: time.RFC3339}},
		{name: "file output", cfg: config.LogConfig{Output: filepath.Join(t.TempDir(), "app.log")}},
		{name: "bad level", cfg: config.LogConfig{Level: "loud"}, wantErr: true},
		{name: "unwritable file", cfg: config.LogConfig{Output: filepath.Join(t.TempDir(), "missing", "app.log")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestEnrich(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTenant(ctx, "tenant-1", "user-1")
	ctx = WithContext(ctx, base)

	L(ctx).Info("posted")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "tenant-1", fields["tenant_id"])
	assert.Equal(t, "user-1", fields["user_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestFromContext_Nop(t *testing.T) {
	assert.NotPanics(t, func() {
		L(context.Background()).Info("dropped")
	})
	assert.Equal(t, "", GetTenantID(context.Background()))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), "req-42"))
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithTenant(c.Request.Context(), "t-1", "u-1"))
		c.Next()
	})
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, tc := range []struct {
		path  string
		level zapcore.Level
	}{
		{"/ok", zapcore.InfoLevel},
		{"/missing", zapcore.WarnLevel},
		{"/boom", zapcore.ErrorLevel},
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

		last := recorded.All()[recorded.Len()-1]
		assert.Equal(t, tc.level, last.Level, tc.path)
		fields := last.ContextMap()
		assert.Equal(t, "req-42", fields["request_id"])
		assert.Equal(t, "t-1", fields["tenant_id"])
		assert.Equal(t, tc.path, fields["path"])
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "panic recovered", recorded.All()[0].Message)
}

func TestGormLogger_Trace(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), "info", 50*time.Millisecond)
	sql := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	gl.Trace(ctx, time.Now(), sql, nil)
	gl.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	gl.Trace(ctx, time.Now(), sql, errors.New("syntax error"))
	gl.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)

	entries := recorded.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "sql", entries[0].Message)
	assert.Equal(t, "slow sql", entries[1].Message)
	assert.Equal(t, "sql error", entries[2].Message)
	// not-found is routine and only traced at debug
	assert.Equal(t, "sql", entries[3].Message)
}

func TestGormLogger_Silent(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), "warn", 0).LogMode(gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("x"))
	gl.Error(context.Background(), "dropped %d", 1)

	assert.Equal(t, 0, recorded.Len())
}

func TestParseGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseGormLevel("silent"))
	assert.Equal(t, gormlogger.Error, ParseGormLevel("error"))
	assert.Equal(t, gormlogger.Info, ParseGormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel(""))
}
