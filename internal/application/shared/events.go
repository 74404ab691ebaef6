package shared

import (
	"context"

	"go.uber.org/zap"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// EventDispatcher publishes domain events once their transaction has
// committed. Publish failures are logged and never fail the use case: the
// state change is already durable.
type EventDispatcher struct {
	publisher shared.EventPublisher
	logger    *zap.Logger
}

func NewEventDispatcher(l *zap.Logger) *EventDispatcher {
	if l == nil {
		l = zap.NewNop()
	}
	return &EventDispatcher{logger: l}
}

// SetEventPublisher sets the publisher. A nil publisher drops events.
func (d *EventDispatcher) SetEventPublisher(p shared.EventPublisher) {
	d.publisher = p
}

// Dispatch publishes events collected from a committed transaction.
func (d *EventDispatcher) Dispatch(ctx context.Context, events []shared.DomainEvent) {
	if d == nil || d.publisher == nil || len(events) == 0 {
		return
	}
	if err := d.publisher.Publish(ctx, events...); err != nil {
		logger.Enrich(ctx, d.logger).Warn("publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

// Logger returns the dispatcher's logger enriched with ctx fields.
func (d *EventDispatcher) Logger(ctx context.Context) *zap.Logger {
	return logger.Enrich(ctx, d.logger)
}
