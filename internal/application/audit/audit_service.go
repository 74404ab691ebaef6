// Package audit records published domain events and lists them.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/audit"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// EventHandler writes every published event to the audit log
type EventHandler struct {
	repo   audit.Repository
	logger *zap.Logger
}

var _ shared.EventHandler = (*EventHandler)(nil)

// NewEventHandler creates an EventHandler
func NewEventHandler(repo audit.Repository, l *zap.Logger) *EventHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &EventHandler{repo: repo, logger: l}
}

// EventTypes subscribes to every event
func (h *EventHandler) EventTypes() []string {
	return nil
}

// Handle stores one log entry
func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	entry, err := audit.FromEvent(event)
	if err != nil {
		return err
	}
	if err := h.repo.Save(ctx, entry); err != nil {
		return fmt.Errorf("save audit log for %s: %w", event.EventType(), err)
	}
	logger.Enrich(ctx, h.logger).Debug("audit log written",
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_id", entry.AggregateID.String()))
	return nil
}

// ListFilter holds the query parameters of the audit log list
type ListFilter struct {
	appshared.PageQuery
	AggregateType string     `form:"aggregate_type"`
	AggregateID   *uuid.UUID `form:"aggregate_id"`
	EventType     string     `form:"event_type"`
	From          string     `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To            string     `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// LogResponse represents an audit log entry in API responses
type LogResponse struct {
	ID            uuid.UUID       `json:"id"`
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	ActorID       *uuid.UUID      `json:"actor_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

func toLogResponse(l *audit.Log) LogResponse {
	return LogResponse{
		ID:            l.ID,
		EventID:       l.EventID,
		EventType:     l.EventType,
		AggregateType: l.AggregateType,
		AggregateID:   l.AggregateID,
		ActorID:       l.ActorID,
		OccurredAt:    l.OccurredAt,
		Payload:       l.Payload,
	}
}

// Service lists audit logs
type Service struct {
	repo audit.Repository
}

// NewService creates a Service
func NewService(repo audit.Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of the tenant's audit log, newest first. Both
// date bounds are inclusive.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, q ListFilter) (*shared.Paginated[LogResponse], error) {
	from, err := appshared.ParseDate("from", q.From)
	if err != nil {
		return nil, err
	}
	to, err := appshared.ParseDate("to", q.To)
	if err != nil {
		return nil, err
	}
	filter := q.ToFilter()
	if q.OrderBy == "" {
		filter.OrderBy = "occurred_at"
	}
	filter = filter.
		With("aggregate_type", q.AggregateType).
		With("event_type", q.EventType).
		With("from", from)
	if !to.IsZero() {
		filter = filter.With("to", to.AddDate(0, 0, 1).Add(-time.Nanosecond))
	}
	if q.AggregateID != nil {
		filter = filter.With("aggregate_id", *q.AggregateID)
	}

	logs, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]LogResponse, len(logs))
	for i := range logs {
		out[i] = toLogResponse(&logs[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}
