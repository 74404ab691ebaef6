package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/clearbook/backend/internal/infrastructure/config"
)

func validConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:       "statements",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		message string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKey = "" }, "access key is required"},
		{"missing secret key", func(c *config.StorageConfig) { c.SecretKey = "" }, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			_, err := NewS3ObjectStorage(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	_, err := NewS3ObjectStorage(nil)
	assert.ErrorContains(t, err, "configuration is required")
}

func TestNewS3ObjectStorage_Defaults(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig(), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, "statements", s.Bucket())
	assert.Equal(t, defaultPresignExpiration, s.presignExpiration)

	s, err = NewS3ObjectStorage(validConfig(), WithPresignExpiration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.presignExpiration)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		ssl    bool
		expect string
	}{
		{"", false, defaultEndpoint},
		{"minio:9000", false, "http://minio:9000"},
		{"minio:9000", true, "https://minio:9000"},
		{"https://s3.eu-west-1.amazonaws.com", false, "https://s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.in, tt.ssl)
		require.NoError(t, err)
		assert.Equal(t, tt.expect, got)
	}
}

func TestS3ObjectStorage_RequiresKey(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorContains(t, s.Upload(ctx, "", []byte("x"), "text/csv"), "key is required")
	assert.ErrorContains(t, s.DeleteObject(ctx, ""), "key is required")
	_, err = s.ObjectExists(ctx, "")
	assert.ErrorContains(t, err, "key is required")
	_, _, err = s.GenerateDownloadURL(ctx, "", 0)
	assert.ErrorContains(t, err, "key is required")
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig())
	require.NoError(t, err)

	url, expiresAt, err := s.GenerateDownloadURL(context.Background(), "statements/t/b/s.csv", 5*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "localhost:9000/statements/statements/t/b/s.csv")
	assert.Contains(t, url, "X-Amz-Signature")
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage()
	ctx := context.Background()
	data := []byte("date,description,amount\n")

	require.NoError(t, m.Upload(ctx, "statements/a.csv", data, "text/csv"))
	data[0] = 'X'
	got, contentType, ok := m.Get("statements/a.csv")
	require.True(t, ok)
	assert.Equal(t, "date,description,amount\n", string(got))
	assert.Equal(t, "text/csv", contentType)

	url, _, err := m.GenerateDownloadURL(ctx, "statements/a.csv", 0)
	require.NoError(t, err)
	assert.Equal(t, "memory://objects/statements/a.csv", url)

	require.NoError(t, m.DeleteObject(ctx, "statements/a.csv"))
	exists, err := m.ObjectExists(ctx, "statements/a.csv")
	require.NoError(t, err)
	assert.False(t, exists)
	_, _, err = m.GenerateDownloadURL(ctx, "statements/a.csv", 0)
	assert.Error(t, err)
}
