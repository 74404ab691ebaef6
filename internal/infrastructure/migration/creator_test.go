package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add bank feeds", "add_bank_feeds"},
		{"Add-Bank-Feeds", "add_bank_feeds"},
		{"ADD_BANK_FEEDS", "add_bank_feeds"},
		{"add__bank__feeds", "add_bank_feeds"},
		{"Add Periods 2027", "add_periods_2027"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- test"), 0o644))
	}
}

func TestCreateMigration_NumbersAfterExisting(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "000001_identity.up.sql", "000001_identity.down.sql", "000004_sales.up.sql", "000004_sales.down.sql")

	mf, err := CreateMigration(dir, "add cost centres", "Cost centre dimension on journal lines")
	require.NoError(t, err)
	assert.Equal(t, uint(5), mf.Version)
	assert.Equal(t, filepath.Join(dir, "000005_add_cost_centres.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000005_add_cost_centres.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_cost_centres")
	assert.Contains(t, string(up), "Cost centre dimension on journal lines")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "-- Rollback: add_cost_centres")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)
	assert.Equal(t, uint(1), mf.Version)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	require.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"000001_identity.up.sql", "000001_identity.down.sql",
		"000002_ledger.up.sql", "000002_ledger.down.sql",
		"README.md", ".gitkeep",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_identity", "000002_ledger"}, names)

	empty, err := ListMigrations(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, empty)

	missing, err := ListMigrations("/nonexistent/path/to/migrations")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestEmbedded(t *testing.T) {
	names, err := Embedded()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "000001_identity", names[0])
	assert.Contains(t, names, "000004_sales_banking_audit")
}
