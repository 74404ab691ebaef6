package banking

import (
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeStatement = "BankStatement"

	EventTypeStatementImported   = "BankStatementImported"
	EventTypeStatementAutoMatch  = "BankStatementAutoMatched"
	EventTypeStatementReconciled = "BankStatementReconciled"
)

// StatementEvent is raised for statement lifecycle changes.
type StatementEvent struct {
	shared.BaseDomainEvent
	BankAccountID  uuid.UUID       `json:"bank_account_id"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Lines          int             `json:"lines"`
	Matched        int             `json:"matched,omitempty"`
}

func newStatementEvent(eventType string, s *BankStatement) *StatementEvent {
	return &StatementEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeStatement, s.ID, s.TenantID),
		BankAccountID:   s.BankAccountID,
		ClosingBalance:  s.ClosingBalance,
		Lines:           len(s.Lines),
	}
}

// NewStatementImportedEvent creates the import event.
func NewStatementImportedEvent(s *BankStatement, actor uuid.UUID) *StatementEvent {
	e := newStatementEvent(EventTypeStatementImported, s)
	e.Actor = actor
	return e
}

// NewStatementAutoMatchedEvent creates the auto-match event.
func NewStatementAutoMatchedEvent(s *BankStatement, matched int, actor uuid.UUID) *StatementEvent {
	e := newStatementEvent(EventTypeStatementAutoMatch, s)
	e.Matched = matched
	e.Actor = actor
	return e
}

// NewStatementReconciledEvent creates the reconciled event.
func NewStatementReconciledEvent(s *BankStatement) *StatementEvent {
	return newStatementEvent(EventTypeStatementReconciled, s)
}
