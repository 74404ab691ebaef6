package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/clearbook/backend/internal/domain/audit"
)

// AuditLogModel is append-only; it has no UpdatedAt or Version.
type AuditLogModel struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_tenant_time,priority:1"`
	EventID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	EventType     string         `gorm:"type:varchar(100);not null;index"`
	AggregateType string         `gorm:"type:varchar(50);not null"`
	AggregateID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	ActorID       *uuid.UUID     `gorm:"type:uuid"`
	OccurredAt    time.Time      `gorm:"not null;index:idx_audit_tenant_time,priority:2"`
	Payload       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"not null"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

func (m *AuditLogModel) ToDomain() audit.Log {
	return audit.Log{
		ID:            m.ID,
		TenantID:      m.TenantID,
		EventID:       m.EventID,
		EventType:     m.EventType,
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		ActorID:       m.ActorID,
		OccurredAt:    m.OccurredAt,
		Payload:       json.RawMessage(m.Payload),
		CreatedAt:     m.CreatedAt,
	}
}

func AuditLogModelFromDomain(l *audit.Log) *AuditLogModel {
	return &AuditLogModel{
		ID:            l.ID,
		TenantID:      l.TenantID,
		EventID:       l.EventID,
		EventType:     l.EventType,
		AggregateType: l.AggregateType,
		AggregateID:   l.AggregateID,
		ActorID:       l.ActorID,
		OccurredAt:    l.OccurredAt,
		Payload:       datatypes.JSON(l.Payload),
		CreatedAt:     l.CreatedAt,
	}
}
