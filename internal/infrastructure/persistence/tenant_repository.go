package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
)

// GormTenantRepository stores companies. Tenants are the one table not
// filtered by tenant_id.
type GormTenantRepository struct {
	db *gorm.DB
}

func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// byCode matches the login code, which is stored lower-case
func byCode(code string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("code = ?", strings.ToLower(strings.TrimSpace(code)))
	}
}

func (r *GormTenantRepository) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (*identity.Tenant, error) {
	var m models.TenantModel
	if err := r.db.WithContext(ctx).Scopes(scope).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("id = ?", id) })
}

// FindByCode resolves the company code entered at login
func (r *GormTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	return r.find(ctx, byCode(code))
}

func (r *GormTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.TenantModel{}).Scopes(byCode(code)).Count(&n).Error
	return n > 0, err
}

// Save upserts the tenant row
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return translateError(r.db.WithContext(ctx).Save(models.TenantModelFromDomain(tenant)).Error)
}

var _ identity.TenantRepository = (*GormTenantRepository)(nil)
