package banking

import (
	"context"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BankAccountRepository persists bank accounts.
type BankAccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*BankAccount, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]BankAccount, error)
	ExistsByLedgerAccount(ctx context.Context, tenantID, ledgerAccountID uuid.UUID) (bool, error)
	Save(ctx context.Context, account *BankAccount) error
}

// StatementRepository persists statements with their lines.
type StatementRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*BankStatement, error)
	FindByLineID(ctx context.Context, tenantID, lineID uuid.UUID) (*BankStatement, error)
	FindAllForBankAccount(ctx context.Context, tenantID, bankAccountID uuid.UUID, filter shared.Filter) ([]BankStatement, error)
	CountForBankAccount(ctx context.Context, tenantID, bankAccountID uuid.UUID, filter shared.Filter) (int64, error)
	IsJournalLineCleared(ctx context.Context, tenantID, journalLineID uuid.UUID) (bool, error)
	Save(ctx context.Context, statement *BankStatement) error
}

// BookEntryReader reads posted lines on a ledger account that no
// statement line has cleared.
type BookEntryReader interface {
	UnclearedEntries(ctx context.Context, tenantID, ledgerAccountID uuid.UUID, from, to time.Time) ([]BookEntry, error)
	EntryByJournalLine(ctx context.Context, tenantID, journalLineID uuid.UUID) (*BookEntry, uuid.UUID, error)
}
