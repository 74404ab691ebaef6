package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RegisterPoolMetrics reports sql.DB pool statistics on every collection.
// Unregister the returned registration before closing the pool.
func RegisterPoolMetrics(meter metric.Meter, sqlDB *sql.DB) (metric.Registration, error) {
	connections, err := meter.Int64ObservableGauge("db.client.connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("create connections gauge: %w", err)
	}
	maxOpen, err := meter.Int64ObservableGauge("db.client.connections.max",
		metric.WithDescription("Maximum open connections allowed"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("create max connections gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db.client.connections.waits",
		metric.WithDescription("Total waits for a free connection"),
		metric.WithUnit("{wait}"))
	if err != nil {
		return nil, fmt.Errorf("create wait counter: %w", err)
	}

	idle := metric.WithAttributes(attribute.String("state", "idle"))
	inUse := metric.WithAttributes(attribute.String("state", "used"))
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.Idle), idle)
		o.ObserveInt64(connections, int64(stats.InUse), inUse)
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, connections, maxOpen, waits)
}
