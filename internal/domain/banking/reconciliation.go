package banking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationSummary compares the bank statement with the books.
type ReconciliationSummary struct {
	StatementID         uuid.UUID       `json:"statement_id"`
	StatementDate       time.Time       `json:"statement_date"`
	StatementBalance    decimal.Decimal `json:"statement_balance"`
	BookBalance         decimal.Decimal `json:"book_balance"`
	DepositsInTransit   decimal.Decimal `json:"deposits_in_transit"`
	OutstandingPayments decimal.Decimal `json:"outstanding_payments"`
	UnrecordedItems     decimal.Decimal `json:"unrecorded_items"`
	AdjustedBank        decimal.Decimal `json:"adjusted_bank_balance"`
	AdjustedBook        decimal.Decimal `json:"adjusted_book_balance"`
	Difference          decimal.Decimal `json:"difference"`
	Reconciled          bool            `json:"reconciled"`
	UnclearedEntries    []BookEntry     `json:"uncleared_entries"`
	UnmatchedLines      int             `json:"unmatched_lines"`
}

// BuildReconciliationSummary computes the summary. uncleared holds the
// posted book entries dated on or before the statement date that no
// statement line has cleared.
func BuildReconciliationSummary(s *BankStatement, bookBalance decimal.Decimal, uncleared []BookEntry) *ReconciliationSummary {
	sum := &ReconciliationSummary{
		StatementID:         s.ID,
		StatementDate:       s.StatementDate,
		StatementBalance:    s.ClosingBalance,
		BookBalance:         bookBalance,
		DepositsInTransit:   decimal.Zero,
		OutstandingPayments: decimal.Zero,
		UnrecordedItems:     decimal.Zero,
		UnclearedEntries:    make([]BookEntry, 0, len(uncleared)),
	}
	for _, e := range uncleared {
		if e.Date.After(s.StatementDate) {
			continue
		}
		sum.DepositsInTransit = sum.DepositsInTransit.Add(e.Debit)
		sum.OutstandingPayments = sum.OutstandingPayments.Add(e.Credit)
		sum.UnclearedEntries = append(sum.UnclearedEntries, e)
	}
	for _, l := range s.UnmatchedLines() {
		sum.UnrecordedItems = sum.UnrecordedItems.Add(l.Amount)
		sum.UnmatchedLines++
	}
	sum.AdjustedBank = sum.StatementBalance.Add(sum.DepositsInTransit).Sub(sum.OutstandingPayments)
	sum.AdjustedBook = sum.BookBalance.Add(sum.UnrecordedItems)
	sum.Difference = sum.AdjustedBank.Sub(sum.AdjustedBook)
	sum.Reconciled = sum.Difference.IsZero()
	return sum
}
