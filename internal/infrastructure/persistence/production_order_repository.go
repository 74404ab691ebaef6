package persistence

import (
	"context"

	"github.com/clearbook/backend/internal/domain/manufacturing"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductionOrderRepository implements manufacturing.ProductionOrderRepository using GORM
type GormProductionOrderRepository struct {
	db *gorm.DB
}

// NewGormProductionOrderRepository creates a new GormProductionOrderRepository
func NewGormProductionOrderRepository(db *gorm.DB) *GormProductionOrderRepository {
	return &GormProductionOrderRepository{db: db}
}

// FindByIDForTenant finds an order with its consumptions. The row is locked
// so two completions of the same order serialize.
func (r *GormProductionOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*manufacturing.ProductionOrder, error) {
	var model models.ProductionOrderModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Preload("Consumptions").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists orders, newest first by default
func (r *GormProductionOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]manufacturing.ProductionOrder, error) {
	var orderModels []models.ProductionOrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductionOrderModel{}).Where("tenant_id = ?", tenantID), filter)
	query = orderBy(query, filter, ProductionOrderSortFields, "created_at", "DESC")
	if err := paginate(query, filter).Preload("Consumptions").Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]manufacturing.ProductionOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// CountForTenant counts orders matching the filter
func (r *GormProductionOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductionOrderModel{}).Where("tenant_id = ?", tenantID), filter).
		Count(&count).Error
	return count, err
}

// Save writes the header and appends new consumptions
func (r *GormProductionOrderRepository) Save(ctx context.Context, order *manufacturing.ProductionOrder) error {
	model := models.ProductionOrderModelFromDomain(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateError(err)
		}
		if len(model.Consumptions) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Consumptions).Error
	})
}

func (r *GormProductionOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchLike(query, filter.Search, "number", "notes")
	if status, ok := filterValue(filter, "status"); ok {
		query = query.Where("status = ?", status)
	}
	if productID, ok := filterValue(filter, "product_id"); ok {
		query = query.Where("product_id = ?", productID)
	}
	return dateBounds(query, filter, "planned_date")
}

var _ manufacturing.ProductionOrderRepository = (*GormProductionOrderRepository)(nil)
