package banking

import (
	"sort"
	"strings"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementStatus is open until the reconciliation is completed.
type StatementStatus string

const (
	StatementStatusOpen       StatementStatus = "open"
	StatementStatusReconciled StatementStatus = "reconciled"
)

// LineStatus tells whether a statement line is matched to the books.
type LineStatus string

const (
	LineStatusUnmatched LineStatus = "unmatched"
	LineStatusMatched   LineStatus = "matched"
)

// MatchMethod records how a line was matched.
type MatchMethod string

const (
	MatchMethodAuto   MatchMethod = "auto"
	MatchMethodManual MatchMethod = "manual"
)

// StatementLine is one transaction on a bank statement. Amount is signed:
// deposits are positive, withdrawals negative.
type StatementLine struct {
	ID                   uuid.UUID
	StatementID          uuid.UUID
	LineNo               int
	Date                 time.Time
	Description          string
	Reference            string
	Amount               decimal.Decimal
	Status               LineStatus
	MatchMethod          MatchMethod
	MatchedJournalLineID *uuid.UUID
	MatchedAt            *time.Time
}

// IsMatched returns true when the line is cleared against the books.
func (l *StatementLine) IsMatched() bool {
	return l.Status == LineStatusMatched
}

// LineInput is the caller-side shape of a statement line.
type LineInput struct {
	Date        time.Time
	Description string
	Reference   string
	Amount      decimal.Decimal
}

// BankStatement is one period's statement for a bank account.
type BankStatement struct {
	shared.TenantAggregateRoot
	BankAccountID   uuid.UUID
	StatementDate   time.Time
	OpeningBalance  decimal.Decimal
	ClosingBalance  decimal.Decimal
	Lines           []StatementLine
	Status          StatementStatus
	SourceObjectKey string
	ImportedBy      *uuid.UUID
	ReconciledAt    *time.Time
	ReconciledBy    *uuid.UUID
}

// NewBankStatement builds an open statement. Opening plus the line amounts
// must equal closing.
func NewBankStatement(tenantID, bankAccountID uuid.UUID, statementDate time.Time, opening, closing decimal.Decimal, inputs []LineInput) (*BankStatement, error) {
	if statementDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Statement date is required")
	}
	if len(inputs) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "Statement must have at least one line")
	}
	s := &BankStatement{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BankAccountID:       bankAccountID,
		StatementDate:       shared.DateOnly(statementDate),
		OpeningBalance:      shared.RoundMoney(opening),
		ClosingBalance:      shared.RoundMoney(closing),
		Status:              StatementStatusOpen,
	}
	sum := decimal.Zero
	for i, in := range inputs {
		amount := shared.RoundMoney(in.Amount)
		if amount.IsZero() {
			return nil, shared.NewDomainErrorf("INVALID_LINE", "Line %d: amount cannot be zero", i+1)
		}
		if in.Date.IsZero() {
			return nil, shared.NewDomainErrorf("INVALID_LINE", "Line %d: date is required", i+1)
		}
		sum = sum.Add(amount)
		s.Lines = append(s.Lines, StatementLine{
			ID:          uuid.New(),
			StatementID: s.ID,
			LineNo:      i + 1,
			Date:        shared.DateOnly(in.Date),
			Description: strings.TrimSpace(in.Description),
			Reference:   strings.TrimSpace(in.Reference),
			Amount:      amount,
			Status:      LineStatusUnmatched,
		})
	}
	if !s.OpeningBalance.Add(sum).Equal(s.ClosingBalance) {
		return nil, shared.NewDomainErrorf(CodeStatementUnbalanced,
			"Opening %s plus lines %s does not equal closing %s",
			s.OpeningBalance.StringFixed(2), sum.StringFixed(2), s.ClosingBalance.StringFixed(2))
	}
	return s, nil
}

// SetSource records where the raw file was archived and who imported it.
func (s *BankStatement) SetSource(objectKey string, userID uuid.UUID) {
	s.SourceObjectKey = objectKey
	s.ImportedBy = &userID
	s.SetCreatedBy(userID)
}

// IsOpen returns true while lines may still change.
func (s *BankStatement) IsOpen() bool {
	return s.Status == StatementStatusOpen
}

func (s *BankStatement) ensureOpen() error {
	if !s.IsOpen() {
		return shared.NewDomainError(CodeStatementReconciled, "Statement is reconciled and cannot be changed")
	}
	return nil
}

// Line returns a line by id.
func (s *BankStatement) Line(lineID uuid.UUID) (*StatementLine, error) {
	for i := range s.Lines {
		if s.Lines[i].ID == lineID {
			return &s.Lines[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// UnmatchedLines returns unmatched lines in (date, line number) order.
func (s *BankStatement) UnmatchedLines() []*StatementLine {
	var out []*StatementLine
	for i := range s.Lines {
		if !s.Lines[i].IsMatched() {
			out = append(out, &s.Lines[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].LineNo < out[j].LineNo
	})
	return out
}

// MatchLine clears a statement line against a book entry.
func (s *BankStatement) MatchLine(lineID uuid.UUID, entry BookEntry, method MatchMethod, at time.Time) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	line, err := s.Line(lineID)
	if err != nil {
		return err
	}
	if line.IsMatched() {
		return shared.NewDomainError(CodeLineAlreadyMatched, "Statement line is already matched")
	}
	if !entry.SignedAmount().Equal(line.Amount) {
		return shared.NewDomainErrorf(CodeAmountMismatch, "Statement amount %s does not equal book amount %s",
			line.Amount.StringFixed(2), entry.SignedAmount().StringFixed(2))
	}
	jl := entry.JournalLineID
	line.Status = LineStatusMatched
	line.MatchMethod = method
	line.MatchedJournalLineID = &jl
	line.MatchedAt = &at
	s.IncrementVersion()
	return nil
}

// UnmatchLine reverts a match.
func (s *BankStatement) UnmatchLine(lineID uuid.UUID) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	line, err := s.Line(lineID)
	if err != nil {
		return err
	}
	if !line.IsMatched() {
		return shared.NewDomainError("LINE_NOT_MATCHED", "Statement line is not matched")
	}
	line.Status = LineStatusUnmatched
	line.MatchMethod = ""
	line.MatchedJournalLineID = nil
	line.MatchedAt = nil
	s.IncrementVersion()
	return nil
}

// Complete marks the statement reconciled. The summary must show no
// difference and every line must be matched.
func (s *BankStatement) Complete(summary *ReconciliationSummary, userID uuid.UUID, at time.Time) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if !summary.Difference.IsZero() {
		return shared.NewDomainErrorf(CodeReconciliationDifference, "Reconciliation difference is %s", summary.Difference.StringFixed(2))
	}
	if n := len(s.UnmatchedLines()); n > 0 {
		return shared.NewDomainErrorf(CodeReconciliationDifference, "%d statement lines are not matched", n)
	}
	s.Status = StatementStatusReconciled
	s.ReconciledAt = &at
	s.ReconciledBy = &userID
	s.IncrementVersion()

	ev := NewStatementReconciledEvent(s)
	ev.Actor = userID
	s.AddDomainEvent(ev)
	return nil
}

// MatchedJournalLineIDs returns the journal lines cleared by this statement.
func (s *BankStatement) MatchedJournalLineIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, l := range s.Lines {
		if l.MatchedJournalLineID != nil {
			ids = append(ids, *l.MatchedJournalLineID)
		}
	}
	return ids
}
