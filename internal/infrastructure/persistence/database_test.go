package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gc := gormConfig(zap.NewNop(), "silent", 0)
	// pings are asserted by the tests
	gc.DisableAutomaticPing = true
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"}), gc)
	require.NoError(t, err)
	return &Database{DB: gormDB}, mock
}

func TestDatabasePing(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err := db.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormConfigTranslatesDuplicateKeys(t *testing.T) {
	db, err := OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	newTenant := func() *models.TenantModel {
		m := &models.TenantModel{Code: "acme", Name: "Acme", BaseCurrency: "USD", FiscalYearStartMonth: 1, Status: "active"}
		m.ID = uuid.New()
		return m
	}
	require.NoError(t, db.DB.Create(newTenant()).Error)
	err = db.DB.Create(newTenant()).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOpenSQLite(t *testing.T) {
	db, err := OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping(context.Background()))
	for _, table := range []string{"journal_vouchers", "journal_lines", "stock_balances", "bank_statements", "audit_logs"} {
		assert.Truef(t, db.DB.Migrator().HasTable(table), "missing table %s", table)
	}

	other, err := OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	defer other.Close()

	tenant := &models.TenantModel{Code: "acme", Name: "Acme", BaseCurrency: "USD", FiscalYearStartMonth: 1, Status: "active"}
	tenant.ID = uuid.New()
	require.NoError(t, db.DB.Create(tenant).Error)

	var count int64
	require.NoError(t, db.DB.Model(&models.TenantModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, other.DB.Model(&models.TenantModel{}).Count(&count).Error)
	assert.Zero(t, count, "in-memory databases must not share state")
}
