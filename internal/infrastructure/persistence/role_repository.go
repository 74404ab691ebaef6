package persistence

import (
	"context"
	"strings"

	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRoleRepository implements identity.RoleRepository using GORM
type GormRoleRepository struct {
	db *gorm.DB
}

// NewGormRoleRepository creates a new GormRoleRepository
func NewGormRoleRepository(db *gorm.DB) *GormRoleRepository {
	return &GormRoleRepository{db: db}
}

// FindByIDForTenant finds a role by ID within a tenant
func (r *GormRoleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*identity.Role, error) {
	var model models.RoleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds roles by IDs; unknown IDs are skipped
func (r *GormRoleRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]identity.Role, error) {
	if len(ids) == 0 {
		return []identity.Role{}, nil
	}
	var roleModels []models.RoleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("code").
		Find(&roleModels).Error; err != nil {
		return nil, err
	}
	return rolesToDomain(roleModels), nil
}

// FindByCode finds a role by code within a tenant
func (r *GormRoleRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*identity.Role, error) {
	var model models.RoleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToLower(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists every role, system roles first
func (r *GormRoleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]identity.Role, error) {
	var roleModels []models.RoleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("is_system DESC, code ASC").
		Find(&roleModels).Error; err != nil {
		return nil, err
	}
	return rolesToDomain(roleModels), nil
}

// ExistsByCode checks if a role code is taken in the tenant
func (r *GormRoleRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RoleModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToLower(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a role
func (r *GormRoleRepository) Save(ctx context.Context, role *identity.Role) error {
	return translateError(r.db.WithContext(ctx).Save(models.RoleModelFromDomain(role)).Error)
}

// Delete removes a role and any assignments of it
func (r *GormRoleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND role_id = ?", tenantID, id).Delete(&models.UserRoleModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.RoleModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func rolesToDomain(roleModels []models.RoleModel) []identity.Role {
	roles := make([]identity.Role, len(roleModels))
	for i := range roleModels {
		roles[i] = *roleModels[i].ToDomain()
	}
	return roles
}

var _ identity.RoleRepository = (*GormRoleRepository)(nil)
