package ledger

import (
	"context"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository persists the chart of accounts.
type AccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Account, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Account, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	Save(ctx context.Context, account *Account) error
	SaveBatch(ctx context.Context, accounts []*Account) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// VoucherRepository persists journal vouchers with their lines.
type VoucherRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*JournalVoucher, error)
	// FindByIDForUpdate locks the voucher for the rest of the transaction.
	// Every path that changes an existing voucher loads it this way.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*JournalVoucher, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]JournalVoucher, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	HasLinesForAccount(ctx context.Context, tenantID, accountID uuid.UUID) (bool, error)
	CountDraftsBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error)
	Save(ctx context.Context, voucher *JournalVoucher) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// LedgerReader answers balance questions over posted lines only.
type LedgerReader interface {
	// AccountBalances sums posted lines per account, optionally restricted
	// to account types and an inclusive date range (zero bounds are open).
	AccountBalances(ctx context.Context, tenantID uuid.UUID, types []AccountType, period shared.DateRange) ([]AccountBalance, error)
	AccountTotals(ctx context.Context, tenantID, accountID uuid.UUID, period shared.DateRange) (debit, credit decimal.Decimal, err error)
	AccountEntries(ctx context.Context, tenantID, accountID uuid.UUID, period shared.DateRange) ([]LedgerEntry, error)
}

// PeriodRepository persists fiscal periods.
type PeriodRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FiscalPeriod, error)
	FindForDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*FiscalPeriod, error)
	FindByYear(ctx context.Context, tenantID uuid.UUID, fiscalYear int) ([]FiscalPeriod, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]FiscalPeriod, error)
	Save(ctx context.Context, period *FiscalPeriod) error
	SaveBatch(ctx context.Context, periods []*FiscalPeriod) error
}

// SequenceRepository hands out gapless document numbers. Next must run in
// the caller's transaction so a rollback returns the number.
type SequenceRepository interface {
	Next(ctx context.Context, tenantID uuid.UUID, prefix string, year int) (int64, error)
}

// SettingsRepository persists accounting settings.
type SettingsRepository interface {
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*AccountingSettings, error)
	Save(ctx context.Context, settings *AccountingSettings) error
}
