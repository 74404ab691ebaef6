package persistence

import (
	"context"

	"github.com/clearbook/backend/internal/domain/banking"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBankAccountRepository implements banking.BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByIDForTenant finds a bank account by ID within a tenant
func (r *GormBankAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*banking.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists bank accounts by name
func (r *GormBankAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]banking.BankAccount, error) {
	var accountModels []models.BankAccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name").
		Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]banking.BankAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = *accountModels[i].ToDomain()
	}
	return accounts, nil
}

// ExistsByLedgerAccount checks whether a ledger account already backs a bank account
func (r *GormBankAccountRepository) ExistsByLedgerAccount(ctx context.Context, tenantID, ledgerAccountID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BankAccountModel{}).
		Where("tenant_id = ? AND ledger_account_id = ?", tenantID, ledgerAccountID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a bank account
func (r *GormBankAccountRepository) Save(ctx context.Context, account *banking.BankAccount) error {
	return translateError(r.db.WithContext(ctx).Save(models.BankAccountModelFromDomain(account)).Error)
}

// GormStatementRepository implements banking.StatementRepository using GORM
type GormStatementRepository struct {
	db *gorm.DB
}

// NewGormStatementRepository creates a new GormStatementRepository
func NewGormStatementRepository(db *gorm.DB) *GormStatementRepository {
	return &GormStatementRepository{db: db}
}

func preloadStatementLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no")
}

// FindByIDForTenant finds a statement with its lines
func (r *GormStatementRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*banking.BankStatement, error) {
	var model models.BankStatementModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Preload("Lines", preloadStatementLines).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByLineID finds the statement owning a line
func (r *GormStatementRepository) FindByLineID(ctx context.Context, tenantID, lineID uuid.UUID) (*banking.BankStatement, error) {
	var line models.StatementLineModel
	if err := r.db.WithContext(ctx).
		Select("statement_id").
		Where("tenant_id = ? AND id = ?", tenantID, lineID).
		First(&line).Error; err != nil {
		return nil, translateError(err)
	}
	return r.FindByIDForTenant(ctx, tenantID, line.StatementID)
}

// FindAllForBankAccount lists statements of one bank account, newest first
func (r *GormStatementRepository) FindAllForBankAccount(ctx context.Context, tenantID, bankAccountID uuid.UUID, filter shared.Filter) ([]banking.BankStatement, error) {
	var statementModels []models.BankStatementModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.BankStatementModel{}).
		Where("tenant_id = ? AND bank_account_id = ?", tenantID, bankAccountID), filter)
	query = orderBy(query, filter, StatementSortFields, "statement_date", "DESC")
	if err := paginate(query, filter).Preload("Lines", preloadStatementLines).Find(&statementModels).Error; err != nil {
		return nil, err
	}
	statements := make([]banking.BankStatement, len(statementModels))
	for i := range statementModels {
		statements[i] = *statementModels[i].ToDomain()
	}
	return statements, nil
}

// CountForBankAccount counts statements of one bank account
func (r *GormStatementRepository) CountForBankAccount(ctx context.Context, tenantID, bankAccountID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.BankStatementModel{}).
		Where("tenant_id = ? AND bank_account_id = ?", tenantID, bankAccountID), filter).
		Count(&count).Error
	return count, err
}

// IsJournalLineCleared reports whether any statement line matched the journal line
func (r *GormStatementRepository) IsJournalLineCleared(ctx context.Context, tenantID, journalLineID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StatementLineModel{}).
		Where("tenant_id = ? AND matched_journal_line_id = ?", tenantID, journalLineID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save writes the header and upserts the lines; statement lines are never removed
func (r *GormStatementRepository) Save(ctx context.Context, statement *banking.BankStatement) error {
	model := models.BankStatementModelFromDomain(statement)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateError(err)
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model.Lines).Error
	})
}

func (r *GormStatementRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filterValue(filter, "status"); ok {
		query = query.Where("status = ?", status)
	}
	return dateBounds(query, filter, "statement_date")
}

var (
	_ banking.BankAccountRepository = (*GormBankAccountRepository)(nil)
	_ banking.StatementRepository   = (*GormStatementRepository)(nil)
)
