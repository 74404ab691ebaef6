package persistence

import (
	"context"
	"strings"

	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormItemRepository implements inventory.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByIDForTenant finds an item by ID within a tenant
func (r *GormItemRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds items by IDs; unknown IDs are skipped
func (r *GormItemRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.Item, error) {
	if len(ids) == 0 {
		return []inventory.Item{}, nil
	}
	var itemModels []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("sku").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return itemsToDomain(itemModels), nil
}

// FindBySKU finds an item by SKU within a tenant
func (r *GormItemRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*inventory.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku = ?", tenantID, strings.ToUpper(strings.TrimSpace(sku))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists items
func (r *GormItemRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Item, error) {
	var itemModels []models.ItemModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ItemModel{}).Where("tenant_id = ?", tenantID), filter)
	query = orderBy(query, filter, ItemSortFields, "sku", "ASC")
	if err := paginate(query, filter).Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return itemsToDomain(itemModels), nil
}

// CountForTenant counts items matching the filter
func (r *GormItemRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ItemModel{}).Where("tenant_id = ?", tenantID), filter).
		Count(&count).Error
	return count, err
}

// ExistsBySKU checks if a SKU is taken in the tenant
func (r *GormItemRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ItemModel{}).
		Where("tenant_id = ? AND sku = ?", tenantID, strings.ToUpper(strings.TrimSpace(sku))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an item
func (r *GormItemRepository) Save(ctx context.Context, item *inventory.Item) error {
	return translateError(r.db.WithContext(ctx).Save(models.ItemModelFromDomain(item)).Error)
}

func (r *GormItemRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchLike(query, filter.Search, "sku", "name")
	if t, ok := filterValue(filter, "type"); ok {
		query = query.Where("type = ?", t)
	}
	if active, ok := filterValue(filter, "is_active"); ok {
		query = query.Where("is_active = ?", active)
	}
	return query
}

func itemsToDomain(itemModels []models.ItemModel) []inventory.Item {
	items := make([]inventory.Item, len(itemModels))
	for i := range itemModels {
		items[i] = *itemModels[i].ToDomain()
	}
	return items
}

var _ inventory.ItemRepository = (*GormItemRepository)(nil)
