package banking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/banking"
)

// CreateBankAccountRequest links a bank account to a ledger account
type CreateBankAccountRequest struct {
	Name            string    `json:"name" binding:"required,min=1,max=100"`
	BankName        string    `json:"bank_name" binding:"max=100"`
	AccountNumber   string    `json:"account_number" binding:"max=50"`
	LedgerAccountID uuid.UUID `json:"ledger_account_id" binding:"required"`
}

// UpdateBankAccountRequest changes a bank account's details
type UpdateBankAccountRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=100"`
	BankName      string `json:"bank_name" binding:"max=100"`
	AccountNumber string `json:"account_number" binding:"max=50"`
	IsActive      *bool  `json:"is_active"`
}

// BankAccountResponse represents a bank account in API responses. The
// account number is masked.
type BankAccountResponse struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	BankName        string           `json:"bank_name,omitempty"`
	AccountNumber   string           `json:"account_number,omitempty"`
	LedgerAccountID uuid.UUID        `json:"ledger_account_id"`
	IsActive        bool             `json:"is_active"`
	BookBalance     *decimal.Decimal `json:"book_balance,omitempty"`
	Version         int              `json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ToBankAccountResponse converts a domain BankAccount to BankAccountResponse
func ToBankAccountResponse(b *banking.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:              b.ID,
		Name:            b.Name,
		BankName:        b.BankName,
		AccountNumber:   b.MaskedNumber(),
		LedgerAccountID: b.LedgerAccountID,
		IsActive:        b.IsActive,
		Version:         b.Version,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// StatementLineRequest is one line of a statement import
type StatementLineRequest struct {
	Date        string          `json:"date" binding:"required,datetime=2006-01-02"`
	Description string          `json:"description" binding:"max=500"`
	Reference   string          `json:"reference" binding:"max=100"`
	Amount      decimal.Decimal `json:"amount"`
}

// ImportStatementRequest imports a statement given as JSON
type ImportStatementRequest struct {
	StatementDate  string                 `json:"statement_date" binding:"required,datetime=2006-01-02"`
	OpeningBalance decimal.Decimal        `json:"opening_balance"`
	ClosingBalance decimal.Decimal        `json:"closing_balance"`
	Lines          []StatementLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ImportFileRequest carries the form fields sent with a CSV upload
type ImportFileRequest struct {
	StatementDate  string          `form:"statement_date" binding:"required,datetime=2006-01-02"`
	OpeningBalance decimal.Decimal `form:"opening_balance"`
	ClosingBalance decimal.Decimal `form:"closing_balance"`
	FileName       string          `form:"-"`
	Data           []byte          `form:"-"`
}

// MatchLineRequest clears a statement line against a journal line
type MatchLineRequest struct {
	JournalLineID uuid.UUID `json:"journal_line_id" binding:"required"`
}

// CreateEntryRequest books a statement line the ledger has not seen yet
type CreateEntryRequest struct {
	ContraAccountID uuid.UUID `json:"contra_account_id" binding:"required"`
	Description     string    `json:"description" binding:"max=500"`
}

// StatementListFilter holds the query parameters of the statement list
type StatementListFilter struct {
	appshared.PageQuery
	Status string `form:"status" binding:"omitempty,oneof=open reconciled"`
	From   string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// StatementLineResponse is one statement line in API responses
type StatementLineResponse struct {
	ID                   uuid.UUID       `json:"id"`
	LineNo               int             `json:"line_no"`
	Date                 string          `json:"date"`
	Description          string          `json:"description,omitempty"`
	Reference            string          `json:"reference,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Status               string          `json:"status"`
	MatchMethod          string          `json:"match_method,omitempty"`
	MatchedJournalLineID *uuid.UUID      `json:"matched_journal_line_id,omitempty"`
	MatchedAt            *time.Time      `json:"matched_at,omitempty"`
}

// StatementResponse represents a bank statement in API responses
type StatementResponse struct {
	ID              uuid.UUID               `json:"id"`
	BankAccountID   uuid.UUID               `json:"bank_account_id"`
	StatementDate   string                  `json:"statement_date"`
	OpeningBalance  decimal.Decimal         `json:"opening_balance"`
	ClosingBalance  decimal.Decimal         `json:"closing_balance"`
	Status          string                  `json:"status"`
	Lines           []StatementLineResponse `json:"lines"`
	MatchedLines    int                     `json:"matched_lines"`
	SourceObjectKey string                  `json:"source_object_key,omitempty"`
	ImportedBy      *uuid.UUID              `json:"imported_by,omitempty"`
	ReconciledAt    *time.Time              `json:"reconciled_at,omitempty"`
	ReconciledBy    *uuid.UUID              `json:"reconciled_by,omitempty"`
	Version         int                     `json:"version"`
	CreatedAt       time.Time               `json:"created_at"`
}

// ToStatementResponse converts a domain BankStatement to StatementResponse
func ToStatementResponse(s *banking.BankStatement) StatementResponse {
	lines := make([]StatementLineResponse, len(s.Lines))
	matched := 0
	for i, l := range s.Lines {
		if l.IsMatched() {
			matched++
		}
		lines[i] = StatementLineResponse{
			ID:                   l.ID,
			LineNo:               l.LineNo,
			Date:                 appshared.FormatDate(l.Date),
			Description:          l.Description,
			Reference:            l.Reference,
			Amount:               l.Amount,
			Status:               string(l.Status),
			MatchMethod:          string(l.MatchMethod),
			MatchedJournalLineID: l.MatchedJournalLineID,
			MatchedAt:            l.MatchedAt,
		}
	}
	return StatementResponse{
		ID:              s.ID,
		BankAccountID:   s.BankAccountID,
		StatementDate:   appshared.FormatDate(s.StatementDate),
		OpeningBalance:  s.OpeningBalance,
		ClosingBalance:  s.ClosingBalance,
		Status:          string(s.Status),
		Lines:           lines,
		MatchedLines:    matched,
		SourceObjectKey: s.SourceObjectKey,
		ImportedBy:      s.ImportedBy,
		ReconciledAt:    s.ReconciledAt,
		ReconciledBy:    s.ReconciledBy,
		Version:         s.Version,
		CreatedAt:       s.CreatedAt,
	}
}

// AutoMatchResponse reports an auto-match run with the updated statement
type AutoMatchResponse struct {
	banking.AutoMatchResult
	Statement StatementResponse `json:"statement"`
}

// SourceFileResponse is a temporary download link for an archived file
type SourceFileResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
