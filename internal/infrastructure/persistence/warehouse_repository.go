package persistence

import (
	"context"
	"strings"

	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWarehouseRepository implements inventory.WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByIDForTenant finds a warehouse by ID within a tenant
func (r *GormWarehouseRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Warehouse, error) {
	var model models.WarehouseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a warehouse by code within a tenant
func (r *GormWarehouseRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*inventory.Warehouse, error) {
	var model models.WarehouseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindDefault finds the tenant's default warehouse
func (r *GormWarehouseRepository) FindDefault(ctx context.Context, tenantID uuid.UUID) (*inventory.Warehouse, error) {
	var model models.WarehouseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_default = ?", tenantID, true).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists warehouses, default first
func (r *GormWarehouseRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]inventory.Warehouse, error) {
	var warehouseModels []models.WarehouseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("is_default DESC, code ASC").
		Find(&warehouseModels).Error; err != nil {
		return nil, err
	}
	warehouses := make([]inventory.Warehouse, len(warehouseModels))
	for i := range warehouseModels {
		warehouses[i] = *warehouseModels[i].ToDomain()
	}
	return warehouses, nil
}

// ExistsByCode checks if a warehouse code is taken in the tenant
func (r *GormWarehouseRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WarehouseModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a warehouse. Marking it default clears the flag
// on every other warehouse of the tenant.
func (r *GormWarehouseRepository) Save(ctx context.Context, warehouse *inventory.Warehouse) error {
	model := models.WarehouseModelFromDomain(warehouse)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if warehouse.IsDefault {
			if err := tx.Model(&models.WarehouseModel{}).
				Where("tenant_id = ? AND id <> ? AND is_default = ?", warehouse.TenantID, warehouse.ID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return translateError(tx.Save(model).Error)
	})
}

var _ inventory.WarehouseRepository = (*GormWarehouseRepository)(nil)
