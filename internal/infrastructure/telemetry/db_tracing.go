package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clearbook/backend/internal/infrastructure/config"
)

// InstrumentDB registers the otelgorm plugin so every query becomes a
// child span of the request. Query arguments are only recorded outside
// production.
func InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, production bool, logger *zap.Logger) error {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName("clearbook")}
	if production {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm: %w", err)
	}
	if logger != nil {
		logger.Info("Database tracing enabled", zap.Bool("query_variables", !production))
	}
	return nil
}
