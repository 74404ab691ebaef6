package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clearbook/backend/internal/infrastructure/config"
	"github.com/clearbook/backend/internal/infrastructure/logger"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
)

// Database is the gorm handle shared by every repository.
type Database struct {
	DB *gorm.DB
}

// Amounts are stored as NUMERIC and timestamps in UTC; errors are
// translated to gorm sentinels so translateError can map them.
func gormConfig(log *zap.Logger, level string, slow time.Duration) *gorm.Config {
	if log == nil {
		log = zap.NewNop()
	}
	return &gorm.Config{
		Logger:                 logger.NewGormLogger(log, level, slow),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}
}

// NewDatabase opens the PostgreSQL pool. The schema is owned by
// cmd/migrate and is not touched here.
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*Database, error) {
	gc := gormConfig(log, cfg.LogLevel, cfg.SlowThreshold)
	gc.PrepareStmt = true

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gc)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	d := &Database{DB: db}
	pool, err := d.SQL()
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.Ping(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// OpenSQLite opens an embedded database and creates the schema from the
// models. It backs unit tests and the single-user demo mode; dsn ":memory:"
// gives a private in-memory database.
func OpenSQLite(dsn string, log *zap.Logger) (*Database, error) {
	if dsn == ":memory:" {
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(log, "silent", 0))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	d := &Database{DB: db}
	pool, err := d.SQL()
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	pool.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return d, nil
}

// SQL returns the pool under the gorm handle, used by health checks,
// pool metrics and golang-migrate.
func (d *Database) SQL() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	return pool, nil
}

func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.SQL()
	if err != nil {
		return err
	}
	if err := pool.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	pool, err := d.SQL()
	if err != nil {
		return err
	}
	return pool.Close()
}
