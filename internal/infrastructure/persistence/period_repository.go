package persistence

import (
	"context"
	"time"

	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPeriodRepository implements ledger.PeriodRepository using GORM
type GormPeriodRepository struct {
	db *gorm.DB
}

// NewGormPeriodRepository creates a new GormPeriodRepository
func NewGormPeriodRepository(db *gorm.DB) *GormPeriodRepository {
	return &GormPeriodRepository{db: db}
}

// FindByIDForTenant finds a period by ID within a tenant
func (r *GormPeriodRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FiscalPeriod, error) {
	var model models.FiscalPeriodModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindForDate finds the period covering a date
func (r *GormPeriodRepository) FindForDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*ledger.FiscalPeriod, error) {
	d := shared.DateOnly(date)
	var model models.FiscalPeriodModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND start_date <= ? AND end_date >= ?", tenantID, d, d).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByYear lists the periods of one fiscal year
func (r *GormPeriodRepository) FindByYear(ctx context.Context, tenantID uuid.UUID, fiscalYear int) ([]ledger.FiscalPeriod, error) {
	var periodModels []models.FiscalPeriodModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND fiscal_year = ?", tenantID, fiscalYear).
		Order("period_no").
		Find(&periodModels).Error; err != nil {
		return nil, err
	}
	return periodsToDomain(periodModels), nil
}

// FindAllForTenant lists every period in date order
func (r *GormPeriodRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]ledger.FiscalPeriod, error) {
	var periodModels []models.FiscalPeriodModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("start_date").
		Find(&periodModels).Error; err != nil {
		return nil, err
	}
	return periodsToDomain(periodModels), nil
}

// Save creates or updates a period
func (r *GormPeriodRepository) Save(ctx context.Context, period *ledger.FiscalPeriod) error {
	return translateError(r.db.WithContext(ctx).Save(models.FiscalPeriodModelFromDomain(period)).Error)
}

// SaveBatch creates or updates periods in one statement
func (r *GormPeriodRepository) SaveBatch(ctx context.Context, periods []*ledger.FiscalPeriod) error {
	if len(periods) == 0 {
		return nil
	}
	periodModels := make([]*models.FiscalPeriodModel, len(periods))
	for i, p := range periods {
		periodModels[i] = models.FiscalPeriodModelFromDomain(p)
	}
	return translateError(r.db.WithContext(ctx).Save(periodModels).Error)
}

func periodsToDomain(periodModels []models.FiscalPeriodModel) []ledger.FiscalPeriod {
	periods := make([]ledger.FiscalPeriod, len(periodModels))
	for i := range periodModels {
		periods[i] = *periodModels[i].ToDomain()
	}
	return periods
}

var _ ledger.PeriodRepository = (*GormPeriodRepository)(nil)
