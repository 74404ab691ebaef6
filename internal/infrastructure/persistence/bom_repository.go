package persistence

import (
	"context"
	"strings"

	"github.com/clearbook/backend/internal/domain/manufacturing"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBOMRepository implements manufacturing.BOMRepository using GORM
type GormBOMRepository struct {
	db *gorm.DB
}

// NewGormBOMRepository creates a new GormBOMRepository
func NewGormBOMRepository(db *gorm.DB) *GormBOMRepository {
	return &GormBOMRepository{db: db}
}

func preloadComponents(db *gorm.DB) *gorm.DB {
	return db.Order("line_no")
}

// FindByIDForTenant finds a BOM with its components
func (r *GormBOMRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*manufacturing.BOM, error) {
	var model models.BOMModel
	if err := r.db.WithContext(ctx).
		Preload("Components", preloadComponents).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindActiveForProduct finds the single active BOM of a product
func (r *GormBOMRepository) FindActiveForProduct(ctx context.Context, tenantID, productID uuid.UUID) (*manufacturing.BOM, error) {
	var model models.BOMModel
	if err := r.db.WithContext(ctx).
		Preload("Components", preloadComponents).
		Where("tenant_id = ? AND product_id = ? AND is_active = ?", tenantID, productID, true).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByProduct lists every revision of a product's BOMs
func (r *GormBOMRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]manufacturing.BOM, error) {
	var bomModels []models.BOMModel
	if err := r.db.WithContext(ctx).
		Preload("Components", preloadComponents).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("code, revision").
		Find(&bomModels).Error; err != nil {
		return nil, err
	}
	return bomsToDomain(bomModels), nil
}

// FindAllForTenant lists BOMs
func (r *GormBOMRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]manufacturing.BOM, error) {
	var bomModels []models.BOMModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.BOMModel{}).Where("tenant_id = ?", tenantID), filter)
	query = orderBy(query, filter, BOMSortFields, "code", "ASC")
	if err := paginate(query, filter).Preload("Components", preloadComponents).Find(&bomModels).Error; err != nil {
		return nil, err
	}
	return bomsToDomain(bomModels), nil
}

// CountForTenant counts BOMs matching the filter
func (r *GormBOMRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.BOMModel{}).Where("tenant_id = ?", tenantID), filter).
		Count(&count).Error
	return count, err
}

// ExistsByCodeRevision checks if a code/revision pair is taken
func (r *GormBOMRepository) ExistsByCodeRevision(ctx context.Context, tenantID uuid.UUID, code string, revision int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BOMModel{}).
		Where("tenant_id = ? AND code = ? AND revision = ?", tenantID, strings.ToUpper(strings.TrimSpace(code)), revision).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save writes the header and syncs the components
func (r *GormBOMRepository) Save(ctx context.Context, bom *manufacturing.BOM) error {
	model := models.BOMModelFromDomain(bom)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateError(err)
		}
		ids := make([]any, len(model.Components))
		for i := range model.Components {
			ids[i] = model.Components[i].ID
		}
		return replaceChildren(tx, &models.BOMComponentModel{}, "bom_id", model.ID, ids, &model.Components, len(model.Components))
	})
}

func (r *GormBOMRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchLike(query, filter.Search, "code", "name")
	if productID, ok := filterValue(filter, "product_id"); ok {
		query = query.Where("product_id = ?", productID)
	}
	if active, ok := filterValue(filter, "is_active"); ok {
		query = query.Where("is_active = ?", active)
	}
	return query
}

func bomsToDomain(bomModels []models.BOMModel) []manufacturing.BOM {
	boms := make([]manufacturing.BOM, len(bomModels))
	for i := range bomModels {
		boms[i] = *bomModels[i].ToDomain()
	}
	return boms
}

var _ manufacturing.BOMRepository = (*GormBOMRepository)(nil)
