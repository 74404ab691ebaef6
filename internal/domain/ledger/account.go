package ledger

import (
	"regexp"
	"strings"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType is one of the five elements of the accounting equation.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// IsValid checks if the account type is known
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance returns the side on which balances of this type increase.
func (t AccountType) NormalBalance() BalanceSide {
	if t == AccountTypeAsset || t == AccountTypeExpense {
		return SideDebit
	}
	return SideCredit
}

// IsBalanceSheet reports whether the type appears on the balance sheet.
func (t AccountType) IsBalanceSheet() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability || t == AccountTypeEquity
}

// BalanceSide is debit or credit.
type BalanceSide string

const (
	SideDebit  BalanceSide = "debit"
	SideCredit BalanceSide = "credit"
)

// SignedBalance converts raw debit and credit totals into a balance that is
// positive in the normal direction of the side.
func (s BalanceSide) SignedBalance(debit, credit decimal.Decimal) decimal.Decimal {
	if s == SideDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

var accountCodePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// ValidAccountCode reports whether code is 1-20 characters of digit groups
// separated by dots.
func ValidAccountCode(code string) bool {
	return len(code) > 0 && len(code) <= 20 && accountCodePattern.MatchString(code)
}

// Account is an entry in a tenant's chart of accounts.
type Account struct {
	shared.TenantAggregateRoot
	Code        string
	Name        string
	Type        AccountType
	ParentID    *uuid.UUID
	IsGroup     bool
	IsActive    bool
	Description string
}

// NewAccount creates an active account. Parent validation needs the parent
// aggregate and is done by SetParent.
func NewAccount(tenantID uuid.UUID, code, name string, accountType AccountType, isGroup bool) (*Account, error) {
	code = strings.TrimSpace(code)
	if !ValidAccountCode(code) {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code must be 1-20 digits, optionally separated by dots")
	}
	if err := validateAccountName(name); err != nil {
		return nil, err
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type must be asset, liability, equity, revenue or expense")
	}
	return &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		Type:                accountType,
		IsGroup:             isGroup,
		IsActive:            true,
	}, nil
}

// NormalBalance returns the account's normal side.
func (a *Account) NormalBalance() BalanceSide {
	return a.Type.NormalBalance()
}

// SetParent attaches the account under a group account of the same type.
func (a *Account) SetParent(parent *Account) error {
	if parent == nil {
		a.ParentID = nil
		a.IncrementVersion()
		return nil
	}
	if parent.ID == a.ID {
		return shared.NewDomainError("INVALID_PARENT", "An account cannot be its own parent")
	}
	if parent.TenantID != a.TenantID {
		return shared.ErrNotFound
	}
	if !parent.IsGroup {
		return shared.NewDomainError("INVALID_PARENT", "Parent account must be a group account")
	}
	if parent.Type != a.Type {
		return shared.NewDomainErrorf("INVALID_PARENT", "Parent account %s is %s, expected %s", parent.Code, parent.Type, a.Type)
	}
	id := parent.ID
	a.ParentID = &id
	a.IncrementVersion()
	return nil
}

// Update changes the descriptive fields.
func (a *Account) Update(name, description string) error {
	if err := validateAccountName(name); err != nil {
		return err
	}
	a.Name = strings.TrimSpace(name)
	a.Description = strings.TrimSpace(description)
	a.IncrementVersion()
	return nil
}

// Activate allows postings again.
func (a *Account) Activate() {
	if a.IsActive {
		return
	}
	a.IsActive = true
	a.IncrementVersion()
}

// Deactivate blocks new postings. Historical postings stay.
func (a *Account) Deactivate() {
	if !a.IsActive {
		return
	}
	a.IsActive = false
	a.IncrementVersion()
}

// CanPost reports whether journal lines may hit this account.
func (a *Account) CanPost() error {
	if a.IsGroup {
		return shared.NewDomainErrorf(CodeAccountNotPostable, "Account %s is a group account and cannot be posted to", a.Code)
	}
	if !a.IsActive {
		return shared.NewDomainErrorf(CodeAccountNotPostable, "Account %s is inactive", a.Code)
	}
	return nil
}

// Label returns "code name".
func (a *Account) Label() string {
	return a.Code + " " + a.Name
}

func validateAccountName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name must be 1-200 characters")
	}
	return nil
}
