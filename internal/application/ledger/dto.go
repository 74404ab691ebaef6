package ledger

import (
	"time"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest represents a request to add an account to the chart
type CreateAccountRequest struct {
	Code        string     `json:"code" binding:"required,account_code"`
	Name        string     `json:"name" binding:"required,min=1,max=200"`
	Type        string     `json:"type" binding:"required,oneof=asset liability equity revenue expense"`
	ParentID    *uuid.UUID `json:"parent_id"`
	IsGroup     bool       `json:"is_group"`
	Description string     `json:"description" binding:"max=500"`
}

// UpdateAccountRequest represents a request to update an account.
// A ParentID of uuid.Nil detaches the account from its parent.
type UpdateAccountRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"max=500"`
	ParentID    *uuid.UUID `json:"parent_id"`
	IsActive    *bool      `json:"is_active"`
}

// AccountListFilter holds the query parameters of the account list
type AccountListFilter struct {
	appshared.PageQuery
	Type     string     `form:"type" binding:"omitempty,oneof=asset liability equity revenue expense"`
	IsActive *bool      `form:"is_active"`
	IsGroup  *bool      `form:"is_group"`
	ParentID *uuid.UUID `form:"parent_id"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	NormalBalance string     `json:"normal_balance"`
	ParentID      *uuid.UUID `json:"parent_id,omitempty"`
	IsGroup       bool       `json:"is_group"`
	IsActive      bool       `json:"is_active"`
	Description   string     `json:"description"`
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ToAccountResponse converts a domain Account to AccountResponse
func ToAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		Code:          a.Code,
		Name:          a.Name,
		Type:          string(a.Type),
		NormalBalance: string(a.NormalBalance()),
		ParentID:      a.ParentID,
		IsGroup:       a.IsGroup,
		IsActive:      a.IsActive,
		Description:   a.Description,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// ToAccountResponses converts a slice of accounts
func ToAccountResponses(accounts []ledger.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}

// AccountLedgerQuery bounds an account ledger. Both dates are optional.
type AccountLedgerQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// SettingAccountResponse describes one default posting account
type SettingAccountResponse struct {
	Key          string     `json:"key"`
	ExpectedType string     `json:"expected_type"`
	AccountID    *uuid.UUID `json:"account_id,omitempty"`
	Code         string     `json:"code,omitempty"`
	Name         string     `json:"name,omitempty"`
	Valid        bool       `json:"valid"`
	Problem      string     `json:"problem,omitempty"`
}

// SettingsResponse lists every setting key in a stable order
type SettingsResponse struct {
	Accounts  []SettingAccountResponse `json:"accounts"`
	Complete  bool                     `json:"complete"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// UpdateSettingsRequest maps setting keys to account ids. Keys that are
// absent keep their value. A uuid.Nil value clears the setting.
type UpdateSettingsRequest struct {
	Accounts map[string]uuid.UUID `json:"accounts" binding:"required"`
}

// OpenFiscalYearRequest opens the twelve periods of a fiscal year
type OpenFiscalYearRequest struct {
	FiscalYear int `json:"fiscal_year" binding:"required,min=1900,max=2999"`
}

// PeriodListFilter narrows the period list to one fiscal year
type PeriodListFilter struct {
	FiscalYear int `form:"fiscal_year" binding:"omitempty,min=1900,max=2999"`
}

// PeriodResponse represents a fiscal period
type PeriodResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	FiscalYear int        `json:"fiscal_year"`
	PeriodNo   int        `json:"period_no"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	Status     string     `json:"status"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	ClosedBy   *uuid.UUID `json:"closed_by,omitempty"`
}

// ToPeriodResponse converts a fiscal period
func ToPeriodResponse(p *ledger.FiscalPeriod) PeriodResponse {
	return PeriodResponse{
		ID:         p.ID,
		Name:       p.Name(),
		FiscalYear: p.FiscalYear,
		PeriodNo:   p.PeriodNo,
		StartDate:  appshared.FormatDate(p.StartDate),
		EndDate:    appshared.FormatDate(p.EndDate),
		Status:     string(p.Status),
		ClosedAt:   p.ClosedAt,
		ClosedBy:   p.ClosedBy,
	}
}

// ToPeriodResponses converts a slice of periods
func ToPeriodResponses(periods []ledger.FiscalPeriod) []PeriodResponse {
	out := make([]PeriodResponse, len(periods))
	for i := range periods {
		out[i] = ToPeriodResponse(&periods[i])
	}
	return out
}

// VoucherLineRequest is one line of a manual voucher
type VoucherLineRequest struct {
	AccountID   uuid.UUID       `json:"account_id" binding:"required"`
	Description string          `json:"description" binding:"max=500"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// CreateVoucherRequest creates a draft general journal voucher
type CreateVoucherRequest struct {
	Date        string               `json:"date" binding:"required,datetime=2006-01-02"`
	Reference   string               `json:"reference" binding:"max=100"`
	Description string               `json:"description" binding:"max=500"`
	Lines       []VoucherLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateVoucherRequest replaces the header and lines of a draft
type UpdateVoucherRequest struct {
	Date        string               `json:"date" binding:"required,datetime=2006-01-02"`
	Reference   string               `json:"reference" binding:"max=100"`
	Description string               `json:"description" binding:"max=500"`
	Lines       []VoucherLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// ReverseVoucherRequest reverses a posted voucher. Date defaults to the
// original voucher date.
type ReverseVoucherRequest struct {
	Date   string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Reason string `json:"reason" binding:"max=200"`
}

// VoucherListFilter holds the query parameters of the voucher list
type VoucherListFilter struct {
	appshared.PageQuery
	Status     string     `form:"status" binding:"omitempty,oneof=draft posted reversed"`
	Type       string     `form:"type"`
	SourceType string     `form:"source_type"`
	SourceID   *uuid.UUID `form:"source_id"`
	From       string     `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string     `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// VoucherLineResponse is one line of a voucher response
type VoucherLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	LineNo      int             `json:"line_no"`
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code,omitempty"`
	AccountName string          `json:"account_name,omitempty"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// VoucherResponse represents a journal voucher
type VoucherResponse struct {
	ID           uuid.UUID             `json:"id"`
	Number       string                `json:"number,omitempty"`
	Type         string                `json:"type"`
	Date         string                `json:"date"`
	Reference    string                `json:"reference"`
	Description  string                `json:"description"`
	SourceType   string                `json:"source_type"`
	SourceID     *uuid.UUID            `json:"source_id,omitempty"`
	Status       string                `json:"status"`
	TotalDebit   decimal.Decimal       `json:"total_debit"`
	TotalCredit  decimal.Decimal       `json:"total_credit"`
	Lines        []VoucherLineResponse `json:"lines"`
	PostedAt     *time.Time            `json:"posted_at,omitempty"`
	PostedBy     *uuid.UUID            `json:"posted_by,omitempty"`
	ReversalOfID *uuid.UUID            `json:"reversal_of_id,omitempty"`
	ReversedByID *uuid.UUID            `json:"reversed_by_id,omitempty"`
	CreatedBy    *uuid.UUID            `json:"created_by,omitempty"`
	Version      int                   `json:"version"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ToVoucherResponse converts a voucher. accounts may be nil; when given it
// fills in account codes and names.
func ToVoucherResponse(v *ledger.JournalVoucher, accounts map[uuid.UUID]ledger.Account) VoucherResponse {
	debit, credit := v.Totals()
	lines := make([]VoucherLineResponse, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = VoucherLineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
		}
		if acc, ok := accounts[l.AccountID]; ok {
			lines[i].AccountCode = acc.Code
			lines[i].AccountName = acc.Name
		}
	}
	return VoucherResponse{
		ID:           v.ID,
		Number:       v.Number,
		Type:         string(v.Type),
		Date:         appshared.FormatDate(v.Date),
		Reference:    v.Reference,
		Description:  v.Description,
		SourceType:   string(v.SourceType),
		SourceID:     v.SourceID,
		Status:       string(v.Status),
		TotalDebit:   debit,
		TotalCredit:  credit,
		Lines:        lines,
		PostedAt:     v.PostedAt,
		PostedBy:     v.PostedBy,
		ReversalOfID: v.ReversalOfID,
		ReversedByID: v.ReversedByID,
		CreatedBy:    v.CreatedBy,
		Version:      v.Version,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

// ToVoucherResponses converts a slice of vouchers without account names
func ToVoucherResponses(vouchers []ledger.JournalVoucher) []VoucherResponse {
	out := make([]VoucherResponse, len(vouchers))
	for i := range vouchers {
		out[i] = ToVoucherResponse(&vouchers[i], nil)
	}
	return out
}

func toLineInputs(lines []VoucherLineRequest) []ledger.LineInput {
	out := make([]ledger.LineInput, len(lines))
	for i, l := range lines {
		out[i] = ledger.LineInput{
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
		}
	}
	return out
}
