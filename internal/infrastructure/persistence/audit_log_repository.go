package persistence

import (
	"context"

	"github.com/clearbook/backend/internal/domain/audit"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuditLogRepository implements audit.Repository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Save appends a log entry. A redelivered event is ignored.
func (r *GormAuditLogRepository) Save(ctx context.Context, log *audit.Log) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(models.AuditLogModelFromDomain(log)).Error
}

// FindAllForTenant lists log entries, newest first by default
func (r *GormAuditLogRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]audit.Log, error) {
	var logModels []models.AuditLogModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AuditLogModel{}).Where("tenant_id = ?", tenantID), filter)
	query = orderBy(query, filter, AuditLogSortFields, "occurred_at", "DESC")
	if err := paginate(query, filter).Find(&logModels).Error; err != nil {
		return nil, err
	}
	logs := make([]audit.Log, len(logModels))
	for i := range logModels {
		logs[i] = logModels[i].ToDomain()
	}
	return logs, nil
}

// CountForTenant counts log entries matching the filter
func (r *GormAuditLogRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.AuditLogModel{}).Where("tenant_id = ?", tenantID), filter).
		Count(&count).Error
	return count, err
}

func (r *GormAuditLogRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if t, ok := filterValue(filter, "aggregate_type"); ok {
		query = query.Where("aggregate_type = ?", t)
	}
	if id, ok := filterValue(filter, "aggregate_id"); ok {
		query = query.Where("aggregate_id = ?", id)
	}
	if t, ok := filterValue(filter, "event_type"); ok {
		query = query.Where("event_type = ?", t)
	}
	if from, ok := filterTime(filter, "from"); ok {
		query = query.Where("occurred_at >= ?", from)
	}
	if to, ok := filterTime(filter, "to"); ok {
		query = query.Where("occurred_at <= ?", to)
	}
	return query
}

var _ audit.Repository = (*GormAuditLogRepository)(nil)
