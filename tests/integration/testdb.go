//go:build integration

// Package integration runs the ClearBook services against a real
// PostgreSQL started with testcontainers and migrated with the embedded
// golang-migrate files.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/clearbook/backend/internal/infrastructure/logger"
	"github.com/clearbook/backend/internal/infrastructure/migration"
)

var (
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB is a connection to a migrated database
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

func startPostgres(ctx context.Context, dbName string) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("clearbook"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, dsn, nil
}

// NewTestDB starts a private container for tests that need a schema of
// their own, e.g. migration round trips
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, dsn, err := startPostgres(ctx, "clearbook_test")
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	tdb := connect(t, dsn)
	tdb.Migrate()
	return tdb
}

// NewSharedTestDB returns a connection to a container shared by the
// package. Tests keep apart by registering their own tenants.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedContainerMu.Lock()
	if sharedContainer == nil {
		container, dsn, err := startPostgres(context.Background(), "clearbook_shared_test")
		if err != nil {
			sharedContainerMu.Unlock()
			require.NoError(t, err, "Failed to start shared PostgreSQL container")
		}
		sharedContainer = container
		sharedContainerDSN = dsn

		setup := connect(t, dsn)
		setup.Migrate()
	}
	dsn := sharedContainerDSN
	sharedContainerMu.Unlock()

	return connect(t, dsn)
}

// CleanupSharedContainer terminates the shared container. Called from TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()
	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerDSN = ""
	}
}

func connect(t *testing.T, dsn string) *TestDB {
	t.Helper()

	level := "silent"
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = "info"
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.NewGormLogger(zap.NewNop(), level, 0),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{DB: db, SqlDB: sqlDB, DSN: dsn, t: t}
}

// Migrator opens a golang-migrate instance over the embedded migrations
func (tdb *TestDB) Migrator() *migration.Migrator {
	tdb.t.Helper()
	m, err := migration.New(tdb.SqlDB, "", nil)
	require.NoError(tdb.t, err)
	return m
}

// Migrate applies every pending migration
func (tdb *TestDB) Migrate() {
	tdb.t.Helper()
	require.NoError(tdb.t, tdb.Migrator().Up(), "Failed to run migrations")
}

// Tables lists the application tables
func (tdb *TestDB) Tables() []string {
	tdb.t.Helper()
	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
		ORDER BY tablename
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to list tables")
	return tables
}

// Count returns the number of rows of table matching where
func (tdb *TestDB) Count(table, where string, args ...any) int64 {
	tdb.t.Helper()
	var n int64
	err := tdb.DB.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where), args...).Scan(&n).Error
	require.NoError(tdb.t, err)
	return n
}
