package banking

import (
	"strings"

	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BankAccount links a real bank account to its ledger account.
type BankAccount struct {
	shared.TenantAggregateRoot
	Name            string
	BankName        string
	AccountNumber   string
	LedgerAccountID uuid.UUID
	IsActive        bool
}

// NewBankAccount creates an active bank account. The ledger account must
// be a postable asset.
func NewBankAccount(tenantID uuid.UUID, name, bankName, accountNumber string, ledgerAccount *ledger.Account) (*BankAccount, error) {
	b := &BankAccount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		IsActive:            true,
	}
	if err := b.Update(name, bankName, accountNumber); err != nil {
		return nil, err
	}
	if err := b.LinkLedgerAccount(ledgerAccount); err != nil {
		return nil, err
	}
	return b, nil
}

// Update changes the descriptive fields.
func (b *BankAccount) Update(name, bankName, accountNumber string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return shared.NewDomainError("INVALID_BANK_ACCOUNT_NAME", "Bank account name must be 1-100 characters")
	}
	accountNumber = strings.TrimSpace(accountNumber)
	if len(accountNumber) > 50 {
		return shared.NewDomainError("INVALID_ACCOUNT_NUMBER", "Account number cannot exceed 50 characters")
	}
	b.Name = name
	b.BankName = strings.TrimSpace(bankName)
	b.AccountNumber = accountNumber
	b.IncrementVersion()
	return nil
}

// LinkLedgerAccount sets the ledger account.
func (b *BankAccount) LinkLedgerAccount(account *ledger.Account) error {
	if account == nil {
		return shared.NewDomainError("INVALID_LEDGER_ACCOUNT", "Ledger account is required")
	}
	if account.Type != ledger.AccountTypeAsset {
		return shared.NewDomainError("INVALID_LEDGER_ACCOUNT", "Bank ledger account must be an asset")
	}
	if err := account.CanPost(); err != nil {
		return err
	}
	b.LedgerAccountID = account.ID
	return nil
}

// MaskedNumber hides all but the last four characters.
func (b *BankAccount) MaskedNumber() string {
	n := len(b.AccountNumber)
	if n <= 4 {
		return b.AccountNumber
	}
	return strings.Repeat("*", n-4) + b.AccountNumber[n-4:]
}

// SetActive toggles the account.
func (b *BankAccount) SetActive(active bool) {
	if b.IsActive == active {
		return
	}
	b.IsActive = active
	b.IncrementVersion()
}
