package persistence

import (
	"context"
	"strings"

	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByIDForTenant finds an account by ID within a tenant
func (r *GormAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds accounts by IDs; unknown IDs are skipped
func (r *GormAccountRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ledger.Account, error) {
	if len(ids) == 0 {
		return []ledger.Account{}, nil
	}
	var accountModels []models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("code").
		Find(&accountModels).Error; err != nil {
		return nil, err
	}
	return accountsToDomain(accountModels), nil
}

// FindByCode finds an account by code within a tenant
func (r *GormAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, strings.TrimSpace(code)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists accounts ordered by code unless told otherwise
func (r *GormAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.Account, error) {
	var accountModels []models.AccountModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AccountModel{}).Where("tenant_id = ?", tenantID), filter)
	query = orderBy(query, filter, AccountSortFields, "code", "ASC")
	if err := paginate(query, filter).Find(&accountModels).Error; err != nil {
		return nil, err
	}
	return accountsToDomain(accountModels), nil
}

// CountForTenant counts accounts matching the filter
func (r *GormAccountRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.AccountModel{}).Where("tenant_id = ?", tenantID), filter).
		Count(&count).Error
	return count, err
}

// ExistsByCode checks if an account code is taken in the tenant
func (r *GormAccountRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.TrimSpace(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasChildren reports whether any account names id as its parent
func (r *GormAccountRepository) HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("tenant_id = ? AND parent_id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	return translateError(r.db.WithContext(ctx).Save(models.AccountModelFromDomain(account)).Error)
}

// SaveBatch creates or updates accounts in one statement
func (r *GormAccountRepository) SaveBatch(ctx context.Context, accounts []*ledger.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	accountModels := make([]*models.AccountModel, len(accounts))
	for i, a := range accounts {
		accountModels[i] = models.AccountModelFromDomain(a)
	}
	return translateError(r.db.WithContext(ctx).Save(accountModels).Error)
}

// Delete removes an account
func (r *GormAccountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.AccountModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchLike(query, filter.Search, "code", "name")
	if t, ok := filterValue(filter, "type"); ok {
		query = query.Where("type = ?", t)
	}
	if active, ok := filterValue(filter, "is_active"); ok {
		query = query.Where("is_active = ?", active)
	}
	if group, ok := filterValue(filter, "is_group"); ok {
		query = query.Where("is_group = ?", group)
	}
	if parentID, ok := filterValue(filter, "parent_id"); ok {
		query = query.Where("parent_id = ?", parentID)
	}
	return query
}

func accountsToDomain(accountModels []models.AccountModel) []ledger.Account {
	accounts := make([]ledger.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = *accountModels[i].ToDomain()
	}
	return accounts
}

var _ ledger.AccountRepository = (*GormAccountRepository)(nil)
