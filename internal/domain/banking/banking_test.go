package banking

import (
	"testing"
	"time"

	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var date = shared.MustParseDate

func newStatement(t *testing.T, lines ...LineInput) *BankStatement {
	t.Helper()
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount)
	}
	s, err := NewBankStatement(uuid.New(), uuid.New(), date("2026-03-31"), d("1000"), d("1000").Add(sum), lines)
	require.NoError(t, err)
	return s
}

func entry(number, ref, day string, debit, credit string) BookEntry {
	return BookEntry{
		JournalLineID: uuid.New(),
		VoucherID:     uuid.New(),
		VoucherNumber: number,
		Reference:     ref,
		Date:          date(day),
		Debit:         d(debit),
		Credit:        d(credit),
	}
}

func TestNewBankAccount(t *testing.T) {
	tenantID := uuid.New()
	bank, err := ledger.NewAccount(tenantID, "1020", "Bank", ledger.AccountTypeAsset, false)
	require.NoError(t, err)
	revenue, err := ledger.NewAccount(tenantID, "4100", "Sales", ledger.AccountTypeRevenue, false)
	require.NoError(t, err)

	_, err = NewBankAccount(tenantID, "Operating", "First Bank", "1234", revenue)
	assert.Error(t, err)

	acct, err := NewBankAccount(tenantID, "Operating", "First Bank", "001234567890", bank)
	require.NoError(t, err)
	assert.Equal(t, "********7890", acct.MaskedNumber())
	assert.Equal(t, bank.ID, acct.LedgerAccountID)
}

func TestNewBankStatement(t *testing.T) {
	lines := []LineInput{
		{Date: date("2026-03-02"), Description: "Deposit", Amount: d("250")},
		{Date: date("2026-03-05"), Description: "Cheque 101", Amount: d("-75.50")},
	}
	_, err := NewBankStatement(uuid.New(), uuid.New(), date("2026-03-31"), d("1000"), d("1174.51"), lines)
	de, ok := shared.GetDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeStatementUnbalanced, de.Code)

	s, err := NewBankStatement(uuid.New(), uuid.New(), date("2026-03-31"), d("1000"), d("1174.50"), lines)
	require.NoError(t, err)
	assert.Len(t, s.Lines, 2)
	assert.Equal(t, StatementStatusOpen, s.Status)

	_, err = NewBankStatement(uuid.New(), uuid.New(), date("2026-03-31"), d("0"), d("0"),
		[]LineInput{{Date: date("2026-03-01"), Amount: decimal.Zero}})
	assert.Error(t, err)
}

func TestMatcher_ReferenceBeatsDate(t *testing.T) {
	s := newStatement(t, LineInput{Date: date("2026-03-10"), Reference: "  inv-2026-00007 ", Amount: d("100")})
	closer := entry("CR-2026-00001", "other", "2026-03-10", "100", "0")
	byRef := entry("CR-2026-00002", "INV-2026-00007", "2026-03-13", "100", "0")

	matches := NewMatcher().Match(s.UnmatchedLines(), []BookEntry{closer, byRef})
	require.Len(t, matches, 1)
	assert.Equal(t, byRef.JournalLineID, matches[0].Entry.JournalLineID)
	assert.Equal(t, MatchByReference, matches[0].Kind)
}

func TestMatcher_ReferencePassRunsBeforeAmountPass(t *testing.T) {
	s := newStatement(t,
		LineInput{Date: date("2026-03-10"), Amount: d("100")},
		LineInput{Date: date("2026-03-11"), Reference: "CHK-2", Amount: d("100")},
	)
	cheque := entry("CR-00001", "CHK-2", "2026-03-10", "100", "0")
	deposit := entry("CR-00002", "", "2026-03-11", "100", "0")

	matches := NewMatcher().Match(s.UnmatchedLines(), []BookEntry{cheque, deposit})
	require.Len(t, matches, 2)
	byLine := map[uuid.UUID]Match{}
	for _, m := range matches {
		byLine[m.StatementLineID] = m
	}

	// the unreferenced line comes first but must not take the cheque
	first, second := byLine[s.Lines[0].ID], byLine[s.Lines[1].ID]
	assert.Equal(t, cheque.JournalLineID, second.Entry.JournalLineID)
	assert.Equal(t, MatchByReference, second.Kind)
	assert.Equal(t, deposit.JournalLineID, first.Entry.JournalLineID)
	assert.Equal(t, MatchByAmountDate, first.Kind)

	result := Summarize(matches, 0)
	assert.Equal(t, AutoMatchResult{Matched: 2, ByReference: 1, ByAmount: 1, Unmatched: 0}, result)
}

func TestMatcher_VoucherNumberAsReference(t *testing.T) {
	s := newStatement(t, LineInput{Date: date("2026-03-10"), Reference: "bj-2026-00003", Amount: d("-20")})
	e := entry("BJ-2026-00003", "", "2026-03-12", "0", "20")
	matches := NewMatcher().Match(s.UnmatchedLines(), []BookEntry{e})
	require.Len(t, matches, 1)
	assert.Equal(t, MatchByReference, matches[0].Kind)
}

func TestMatcher_AmountAndWindow(t *testing.T) {
	s := newStatement(t,
		LineInput{Date: date("2026-03-10"), Amount: d("-50")},
		LineInput{Date: date("2026-03-11"), Amount: d("-50")},
		LineInput{Date: date("2026-03-20"), Amount: d("300")},
	)
	early := entry("JV-2026-00002", "", "2026-03-08", "0", "50")
	late := entry("JV-2026-00001", "", "2026-03-12", "0", "50")
	wrongSign := entry("JV-2026-00003", "", "2026-03-10", "50", "0")
	outside := entry("JV-2026-00004", "", "2026-03-27", "300", "0")

	matches := NewMatcher().Match(s.UnmatchedLines(), []BookEntry{early, late, wrongSign, outside})
	require.Len(t, matches, 2)
	// 03-10: both candidates are 2 days away, the earlier date wins.
	assert.Equal(t, early.JournalLineID, matches[0].Entry.JournalLineID)
	assert.Equal(t, late.JournalLineID, matches[1].Entry.JournalLineID)
	assert.Equal(t, MatchByAmountDate, matches[0].Kind)

	wide := NewMatcher(WithDateWindow(7)).Match(s.UnmatchedLines(), []BookEntry{outside})
	require.Len(t, wide, 1)

	result := Summarize(matches, 1)
	assert.Equal(t, AutoMatchResult{Matched: 2, ByReference: 0, ByAmount: 2, Unmatched: 1}, result)
}

func TestMatcher_TieBreaksOnVoucherNumber(t *testing.T) {
	s := newStatement(t, LineInput{Date: date("2026-03-10"), Amount: d("10")})
	b := entry("JV-2026-00009", "", "2026-03-10", "10", "0")
	a := entry("JV-2026-00005", "", "2026-03-10", "10", "0")
	matches := NewMatcher().Match(s.UnmatchedLines(), []BookEntry{b, a})
	require.Len(t, matches, 1)
	assert.Equal(t, a.JournalLineID, matches[0].Entry.JournalLineID)
}

func TestStatement_MatchUnmatch(t *testing.T) {
	s := newStatement(t, LineInput{Date: date("2026-03-10"), Amount: d("100")})
	lineID := s.Lines[0].ID

	err := s.MatchLine(lineID, entry("X", "", "2026-03-10", "99", "0"), MatchMethodManual, time.Now())
	de, ok := shared.GetDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAmountMismatch, de.Code)

	e := entry("X", "", "2026-03-10", "100", "0")
	require.NoError(t, s.MatchLine(lineID, e, MatchMethodManual, time.Now()))
	assert.Error(t, s.MatchLine(lineID, e, MatchMethodManual, time.Now()), "already matched")
	assert.Equal(t, []uuid.UUID{e.JournalLineID}, s.MatchedJournalLineIDs())

	require.NoError(t, s.UnmatchLine(lineID))
	assert.Empty(t, s.MatchedJournalLineIDs())
	assert.Error(t, s.UnmatchLine(lineID))
}

func TestReconciliationSummary(t *testing.T) {
	// Bank: 1000 opening, +500 deposit (matched), -30 charges (unrecorded).
	s := newStatement(t,
		LineInput{Date: date("2026-03-05"), Amount: d("500")},
		LineInput{Date: date("2026-03-31"), Description: "Charges", Amount: d("-30")},
	)
	deposit := entry("CR-1", "", "2026-03-05", "500", "0")
	require.NoError(t, s.MatchLine(s.Lines[0].ID, deposit, MatchMethodAuto, time.Now()))

	// Books: 1000 + 500 + 200 (deposit in transit) - 120 (cheque outstanding)
	inTransit := entry("CR-2", "", "2026-03-30", "200", "0")
	outstanding := entry("JV-3", "", "2026-03-29", "0", "120")
	nextMonth := entry("JV-4", "", "2026-04-02", "0", "999")
	sum := BuildReconciliationSummary(s, d("1580"), []BookEntry{inTransit, outstanding, nextMonth})

	assert.True(t, sum.StatementBalance.Equal(d("1470")))
	assert.True(t, sum.DepositsInTransit.Equal(d("200")))
	assert.True(t, sum.OutstandingPayments.Equal(d("120")))
	assert.True(t, sum.UnrecordedItems.Equal(d("-30")))
	assert.True(t, sum.AdjustedBank.Equal(d("1550")))
	assert.True(t, sum.AdjustedBook.Equal(d("1550")))
	assert.True(t, sum.Reconciled)
	assert.Len(t, sum.UnclearedEntries, 2)

	err := s.Complete(sum, uuid.New(), time.Now())
	de, ok := shared.GetDomainError(err)
	require.True(t, ok, "unmatched lines block completion")
	assert.Equal(t, CodeReconciliationDifference, de.Code)

	charges := entry("BJ-1", "", "2026-03-31", "0", "30")
	require.NoError(t, s.MatchLine(s.Lines[1].ID, charges, MatchMethodManual, time.Now()))
	sum = BuildReconciliationSummary(s, d("1550"), []BookEntry{inTransit, outstanding})
	require.True(t, sum.Reconciled)
	require.NoError(t, s.Complete(sum, uuid.New(), time.Now()))
	assert.Equal(t, StatementStatusReconciled, s.Status)
	assert.Error(t, s.UnmatchLine(s.Lines[0].ID), "reconciled statement is frozen")
}
