//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbanking "github.com/clearbook/backend/internal/application/banking"
	appledger "github.com/clearbook/backend/internal/application/ledger"
)

func TestStatementReconciliationOnPostgres(t *testing.T) {
	s := newStack(t, NewSharedTestDB(t))
	tenantID, userID := s.tenant(t)
	ctx := context.Background()

	bankLedger := s.account(t, tenantID, "1020")
	bank, err := s.Bank.Create(ctx, tenantID, userID, appbanking.CreateBankAccountRequest{
		Name:            "Operating",
		BankName:        "First Bank",
		AccountNumber:   "000123456789",
		LedgerAccountID: bankLedger,
	})
	require.NoError(t, err)

	deposit, err := s.Voucher.Create(ctx, tenantID, userID, appledger.CreateVoucherRequest{
		Date:        today(),
		Description: "Capital deposit",
		Lines: []appledger.VoucherLineRequest{
			{AccountID: bankLedger, Debit: decimal.NewFromInt(1000)},
			{AccountID: s.account(t, tenantID, "3100"), Credit: decimal.NewFromInt(1000)},
		},
	})
	require.NoError(t, err)
	_, err = s.Voucher.Post(ctx, tenantID, userID, deposit.ID)
	require.NoError(t, err)

	statement, err := s.Statement.Import(ctx, tenantID, userID, bank.ID, appbanking.ImportStatementRequest{
		StatementDate:  today(),
		OpeningBalance: decimal.Zero,
		ClosingBalance: decimal.NewFromInt(990),
		Lines: []appbanking.StatementLineRequest{
			{Date: today(), Description: "Deposit", Amount: decimal.NewFromInt(1000)},
			{Date: today(), Description: "Monthly fee", Amount: decimal.NewFromInt(-10)},
		},
	})
	require.NoError(t, err)
	require.Len(t, statement.Lines, 2)

	matched, err := s.Statement.AutoMatch(ctx, tenantID, userID, statement.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, matched.Matched)
	assert.Equal(t, 1, matched.Unmatched)

	summary, err := s.Statement.Summary(ctx, tenantID, statement.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", summary.BookBalance.StringFixed(2))
	assert.Equal(t, "-10.00", summary.UnrecordedItems.StringFixed(2))
	assert.True(t, summary.Difference.IsZero(), "the fee explains the gap until it is booked")
	assert.Equal(t, 1, summary.UnmatchedLines)

	_, err = s.Statement.Complete(ctx, tenantID, userID, statement.ID)
	require.Error(t, err, "an unmatched line blocks completion")

	fee := statement.Lines[1]
	_, err = s.Statement.CreateEntry(ctx, tenantID, userID, fee.ID, appbanking.CreateEntryRequest{
		ContraAccountID: s.account(t, tenantID, "5300"),
		Description:     "Bank fee",
	})
	require.NoError(t, err)

	summary, err = s.Statement.Summary(ctx, tenantID, statement.ID)
	require.NoError(t, err)
	assert.True(t, summary.Reconciled)
	assert.Zero(t, summary.UnmatchedLines)
	assert.Equal(t, "990.00", summary.BookBalance.StringFixed(2))

	done, err := s.Statement.Complete(ctx, tenantID, userID, statement.ID)
	require.NoError(t, err)
	assert.Equal(t, "reconciled", done.Status)
	assert.Equal(t, 2, done.MatchedLines)
}
