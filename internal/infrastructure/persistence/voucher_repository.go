package persistence

import (
	"context"
	"time"

	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVoucherRepository implements ledger.VoucherRepository using GORM
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GormVoucherRepository
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

func preloadJournalLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no")
}

// FindByIDForTenant finds a voucher with its lines
func (r *GormVoucherRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalVoucher, error) {
	return r.find(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a voucher and locks its row until the
// transaction ends, so a second post or reversal of the same voucher
// waits and then sees the committed status.
func (r *GormVoucherRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalVoucher, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormVoucherRepository) find(db *gorm.DB, tenantID, id uuid.UUID) (*ledger.JournalVoucher, error) {
	var model models.JournalVoucherModel
	if err := db.
		Preload("Lines", preloadJournalLines).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists vouchers, newest first by default
func (r *GormVoucherRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.JournalVoucher, error) {
	var voucherModels []models.JournalVoucherModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.JournalVoucherModel{}).Where("tenant_id = ?", tenantID), filter)
	query = orderBy(query, filter, VoucherSortFields, "date", "DESC")
	if err := paginate(query, filter).Preload("Lines", preloadJournalLines).Find(&voucherModels).Error; err != nil {
		return nil, err
	}
	vouchers := make([]ledger.JournalVoucher, len(voucherModels))
	for i := range voucherModels {
		vouchers[i] = *voucherModels[i].ToDomain()
	}
	return vouchers, nil
}

// CountForTenant counts vouchers matching the filter
func (r *GormVoucherRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.JournalVoucherModel{}).Where("tenant_id = ?", tenantID), filter).
		Count(&count).Error
	return count, err
}

// HasLinesForAccount reports whether any voucher, draft or posted, uses the account
func (r *GormVoucherRepository) HasLinesForAccount(ctx context.Context, tenantID, accountID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.JournalLineModel{}).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountDraftsBetween counts draft vouchers dated inside [from, to]
func (r *GormVoucherRepository) CountDraftsBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.JournalVoucherModel{}).
		Where("tenant_id = ? AND status = ? AND date >= ? AND date <= ?",
			tenantID, ledger.VoucherStatusDraft, shared.DateOnly(from), shared.DateOnly(to)).
		Count(&count).Error
	return count, err
}

// Save writes the header and syncs the lines. Line IDs are stable once
// posted because statement lines reference them.
func (r *GormVoucherRepository) Save(ctx context.Context, voucher *ledger.JournalVoucher) error {
	model := models.JournalVoucherModelFromDomain(voucher)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateError(err)
		}
		ids := make([]any, len(model.Lines))
		for i := range model.Lines {
			ids[i] = model.Lines[i].ID
		}
		return replaceChildren(tx, &models.JournalLineModel{}, "voucher_id", model.ID, ids, &model.Lines, len(model.Lines))
	})
}

// Delete removes a voucher and its lines
func (r *GormVoucherRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND voucher_id = ?", tenantID, id).Delete(&models.JournalLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.JournalVoucherModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *GormVoucherRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchLike(query, filter.Search, "number", "reference", "description")
	if status, ok := filterValue(filter, "status"); ok {
		query = query.Where("status = ?", status)
	}
	if t, ok := filterValue(filter, "type"); ok {
		query = query.Where("type = ?", t)
	}
	if st, ok := filterValue(filter, "source_type"); ok {
		query = query.Where("source_type = ?", st)
	}
	if sid, ok := filterValue(filter, "source_id"); ok {
		query = query.Where("source_id = ?", sid)
	}
	return dateBounds(query, filter, "date")
}

var _ ledger.VoucherRepository = (*GormVoucherRepository)(nil)
