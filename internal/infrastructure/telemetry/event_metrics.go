package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/clearbook/backend/internal/domain/shared"
)

// EventMetrics counts published domain events. Subscribed to the event
// bus it gives per-type throughput of postings, matches and reconciliations.
type EventMetrics struct {
	events metric.Int64Counter
}

var _ shared.EventHandler = (*EventMetrics)(nil)

// NewEventMetrics creates the clearbook.domain_events counter
func NewEventMetrics(meter metric.Meter) (*EventMetrics, error) {
	counter, err := meter.Int64Counter("clearbook.domain_events",
		metric.WithDescription("Domain events published after a committed transaction"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, fmt.Errorf("create domain event counter: %w", err)
	}
	return &EventMetrics{events: counter}, nil
}

// EventTypes subscribes to every event
func (m *EventMetrics) EventTypes() []string { return nil }

// Handle increments the counter for the event's type
func (m *EventMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", event.EventType()),
		attribute.String("aggregate_type", event.AggregateType()),
	))
	return nil
}
