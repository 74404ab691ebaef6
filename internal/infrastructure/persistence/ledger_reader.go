package persistence

import (
	"context"
	"time"

	"github.com/clearbook/backend/internal/domain/banking"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerReader answers balance queries over posted journal lines.
// Reversed vouchers stay in the ledger next to their reversal.
type GormLedgerReader struct {
	db *gorm.DB
}

// NewGormLedgerReader creates a new GormLedgerReader
func NewGormLedgerReader(db *gorm.DB) *GormLedgerReader {
	return &GormLedgerReader{db: db}
}

func (r *GormLedgerReader) postedLines(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("journal_lines AS l").
		Joins("JOIN journal_vouchers AS v ON v.id = l.voucher_id").
		Where("l.tenant_id = ? AND v.status IN ?", tenantID, ledger.PostedStatuses)
}

type balanceRow struct {
	AccountID uuid.UUID
	Code      string
	Name      string
	Type      string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// AccountBalances sums posted lines per account
func (r *GormLedgerReader) AccountBalances(ctx context.Context, tenantID uuid.UUID, types []ledger.AccountType, period shared.DateRange) ([]ledger.AccountBalance, error) {
	query := r.postedLines(ctx, tenantID).
		Select("a.id AS account_id, a.code, a.name, a.type, COALESCE(SUM(l.debit), 0) AS debit, COALESCE(SUM(l.credit), 0) AS credit").
		Joins("JOIN accounts AS a ON a.id = l.account_id").
		Group("a.id, a.code, a.name, a.type").
		Order("a.code")
	if len(types) > 0 {
		query = query.Where("a.type IN ?", types)
	}
	query = rangeBounds(query, period, "v.date")

	var rows []balanceRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	balances := make([]ledger.AccountBalance, len(rows))
	for i, row := range rows {
		balances[i] = ledger.AccountBalance{
			AccountID: row.AccountID,
			Code:      row.Code,
			Name:      row.Name,
			Type:      ledger.AccountType(row.Type),
			Debit:     shared.RoundMoney(row.Debit),
			Credit:    shared.RoundMoney(row.Credit),
		}
	}
	return balances, nil
}

// AccountTotals sums posted debits and credits of one account
func (r *GormLedgerReader) AccountTotals(ctx context.Context, tenantID, accountID uuid.UUID, period shared.DateRange) (decimal.Decimal, decimal.Decimal, error) {
	var totals struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	query := r.postedLines(ctx, tenantID).
		Select("COALESCE(SUM(l.debit), 0) AS debit, COALESCE(SUM(l.credit), 0) AS credit").
		Where("l.account_id = ?", accountID)
	if err := rangeBounds(query, period, "v.date").Scan(&totals).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return shared.RoundMoney(totals.Debit), shared.RoundMoney(totals.Credit), nil
}

type entryRow struct {
	VoucherID     uuid.UUID
	VoucherNumber *string
	VoucherType   string
	Date          time.Time
	Reference     string
	Description   string
	LineID        uuid.UUID
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}

const entryColumns = "v.id AS voucher_id, v.number AS voucher_number, v.type AS voucher_type, v.date, v.reference, " +
	"CASE WHEN l.description <> '' THEN l.description ELSE v.description END AS description, " +
	"l.id AS line_id, l.debit, l.credit"

// AccountEntries lists posted lines of one account in date order
func (r *GormLedgerReader) AccountEntries(ctx context.Context, tenantID, accountID uuid.UUID, period shared.DateRange) ([]ledger.LedgerEntry, error) {
	query := r.postedLines(ctx, tenantID).
		Select(entryColumns).
		Where("l.account_id = ?", accountID).
		Order("v.date, v.number, l.line_no")
	var rows []entryRow
	if err := rangeBounds(query, period, "v.date").Scan(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.LedgerEntry, len(rows))
	for i, row := range rows {
		entries[i] = ledger.LedgerEntry{
			VoucherID:     row.VoucherID,
			VoucherNumber: derefString(row.VoucherNumber),
			VoucherType:   ledger.VoucherType(row.VoucherType),
			Date:          models.UTCDate(row.Date),
			Reference:     row.Reference,
			Description:   row.Description,
			LineID:        row.LineID,
			Debit:         row.Debit,
			Credit:        row.Credit,
		}
	}
	return entries, nil
}

// UnclearedEntries lists posted lines on a bank's ledger account that no
// statement line has matched yet.
func (r *GormLedgerReader) UnclearedEntries(ctx context.Context, tenantID, ledgerAccountID uuid.UUID, from, to time.Time) ([]banking.BookEntry, error) {
	cleared := r.db.Model(&models.StatementLineModel{}).
		Select("matched_journal_line_id").
		Where("tenant_id = ? AND matched_journal_line_id IS NOT NULL", tenantID)
	query := r.postedLines(ctx, tenantID).
		Select(entryColumns).
		Where("l.account_id = ? AND l.id NOT IN (?)", ledgerAccountID, cleared).
		Order("v.date, v.number, l.line_no")
	query = rangeBounds(query, shared.DateRange{From: from, To: to}, "v.date")

	var rows []entryRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]banking.BookEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.toBookEntry()
	}
	return entries, nil
}

// EntryByJournalLine loads one posted line with the account it hits.
func (r *GormLedgerReader) EntryByJournalLine(ctx context.Context, tenantID, journalLineID uuid.UUID) (*banking.BookEntry, uuid.UUID, error) {
	var row struct {
		entryRow
		AccountID uuid.UUID
	}
	err := r.postedLines(ctx, tenantID).
		Select(entryColumns+", l.account_id").
		Where("l.id = ?", journalLineID).
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, uuid.Nil, err
	}
	if row.LineID == uuid.Nil {
		return nil, uuid.Nil, shared.ErrNotFound
	}
	entry := row.toBookEntry()
	return &entry, row.AccountID, nil
}

func (row entryRow) toBookEntry() banking.BookEntry {
	return banking.BookEntry{
		JournalLineID: row.LineID,
		VoucherID:     row.VoucherID,
		VoucherNumber: derefString(row.VoucherNumber),
		Reference:     row.Reference,
		Description:   row.Description,
		Date:          models.UTCDate(row.Date),
		Debit:         row.Debit,
		Credit:        row.Credit,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var (
	_ ledger.LedgerReader     = (*GormLedgerReader)(nil)
	_ banking.BookEntryReader = (*GormLedgerReader)(nil)
)
