package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Log is an immutable record of a domain event.
type Log struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateType string
	AggregateID   uuid.UUID
	ActorID       *uuid.UUID
	OccurredAt    time.Time
	Payload       json.RawMessage
	CreatedAt     time.Time
}

// FromEvent builds a log entry. The payload is the JSON form of the event.
func FromEvent(event shared.DomainEvent) (*Log, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event.EventType(), err)
	}
	l := &Log{
		ID:            uuid.New(),
		TenantID:      event.TenantID(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
	if ae, ok := event.(shared.ActorEvent); ok && ae.ActorID() != uuid.Nil {
		actor := ae.ActorID()
		l.ActorID = &actor
	}
	return l, nil
}

// Repository persists audit logs.
type Repository interface {
	Save(ctx context.Context, log *Log) error
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Log, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}
