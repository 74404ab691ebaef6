package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbook/backend/internal/application/apptest"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence"
)

func day(month time.Month, d int) time.Time {
	return time.Date(apptest.FiscalYear, month, d, 0, 0, 0, 0, time.UTC)
}

func saveVoucher(t *testing.T, f *apptest.Fixture, date time.Time, debit, credit string, amount int64, number string) *ledger.JournalVoucher {
	t.Helper()
	v, err := ledger.NewJournalVoucher(f.TenantID(), ledger.VoucherTypeGeneral, date, "test entry")
	require.NoError(t, err)
	require.NoError(t, v.Debit(f.Account(t, debit), decimal.NewFromInt(amount), ""))
	require.NoError(t, v.Credit(f.Account(t, credit), decimal.NewFromInt(amount), "credit side"))
	if number != "" {
		require.NoError(t, v.Post(number, f.UserID, date))
	}
	require.NoError(t, f.Repos.Vouchers().Save(context.Background(), v))
	return v
}

func TestGormVoucherRepository(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	repo := f.Repos.Vouchers()

	posted := saveVoucher(t, f, day(time.March, 1), "1020", "3100", 1000, "JV-2026-00001")
	draft := saveVoucher(t, f, day(time.March, 15), "5900", "1020", 40, "")

	found, err := repo.FindByIDForTenant(ctx, f.TenantID(), posted.ID)
	require.NoError(t, err)
	assert.Equal(t, "JV-2026-00001", found.Number)
	assert.Equal(t, ledger.VoucherStatusPosted, found.Status)
	require.Len(t, found.Lines, 2)
	assert.Equal(t, posted.Lines[0].ID, found.Lines[0].ID)
	assert.True(t, found.Lines[0].Debit.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, day(time.March, 1), found.Date)

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), posted.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	drafts, err := repo.CountDraftsBetween(ctx, f.TenantID(), day(time.March, 1), day(time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, int64(1), drafts)

	used, err := repo.HasLinesForAccount(ctx, f.TenantID(), f.Account(t, "5900"))
	require.NoError(t, err)
	assert.True(t, used, "drafts count as usage")
	used, err = repo.HasLinesForAccount(ctx, f.TenantID(), f.Account(t, "4100"))
	require.NoError(t, err)
	assert.False(t, used)

	filter := shared.DefaultFilter().With("status", string(ledger.VoucherStatusDraft))
	list, err := repo.FindAllForTenant(ctx, f.TenantID(), filter)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, draft.ID, list[0].ID)

	all, err := repo.FindAllForTenant(ctx, f.TenantID(), shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, draft.ID, all[0].ID, "newest date first")

	bySearch, err := repo.CountForTenant(ctx, f.TenantID(), shared.Filter{Search: "jv-2026"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), bySearch)

	// replacing lines removes the old ones
	require.NoError(t, draft.ReplaceLines([]ledger.LineInput{
		{AccountID: f.Account(t, "5300"), Debit: decimal.NewFromInt(25)},
		{AccountID: f.Account(t, "1020"), Credit: decimal.NewFromInt(25)},
	}))
	require.NoError(t, repo.Save(ctx, draft))
	used, err = repo.HasLinesForAccount(ctx, f.TenantID(), f.Account(t, "5900"))
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, repo.Delete(ctx, f.TenantID(), draft.ID))
	assert.ErrorIs(t, repo.Delete(ctx, f.TenantID(), draft.ID), shared.ErrNotFound)
}

func TestGormLedgerReader(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	reader := f.Repos.Ledger()

	saveVoucher(t, f, day(time.January, 10), "1020", "3100", 1000, "JV-2026-00001")
	saveVoucher(t, f, day(time.February, 5), "5900", "1020", 200, "JV-2026-00002")
	saveVoucher(t, f, day(time.February, 6), "5900", "1020", 999, "")

	balances, err := reader.AccountBalances(ctx, f.TenantID(), nil, shared.DateRange{})
	require.NoError(t, err)
	require.Len(t, balances, 3, "drafts are not in the ledger")
	assert.Equal(t, []string{"1020", "3100", "5900"}, []string{balances[0].Code, balances[1].Code, balances[2].Code})
	assert.Equal(t, "800.00", balances[0].Balance().StringFixed(2))
	assert.Equal(t, "1000.00", balances[1].Balance().StringFixed(2))

	expenses, err := reader.AccountBalances(ctx, f.TenantID(), []ledger.AccountType{ledger.AccountTypeExpense}, shared.DateRange{})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "200.00", expenses[0].Debit.StringFixed(2))

	january, err := reader.AccountBalances(ctx, f.TenantID(), nil, shared.DateRange{To: day(time.January, 31)})
	require.NoError(t, err)
	assert.Len(t, january, 2)

	debit, credit, err := reader.AccountTotals(ctx, f.TenantID(), f.Account(t, "1020"), shared.DateRange{From: day(time.February, 1)})
	require.NoError(t, err)
	assert.True(t, debit.IsZero())
	assert.Equal(t, "200.00", credit.StringFixed(2))

	entries, err := reader.AccountEntries(ctx, f.TenantID(), f.Account(t, "1020"), shared.DateRange{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "JV-2026-00001", entries[0].VoucherNumber)
	assert.Equal(t, "test entry", entries[0].Description, "blank line descriptions fall back to the voucher")
	assert.Equal(t, "credit side", entries[1].Description)

	other, err := reader.AccountBalances(ctx, uuid.New(), nil, shared.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGormSequenceRepository_SQLite(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()
	repo := persistence.NewGormSequenceRepository(f.DB.DB)

	for want := int64(1); want <= 3; want++ {
		n, err := repo.Next(ctx, f.TenantID(), ledger.PrefixGeneralJournal, 2026)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := repo.Next(ctx, f.TenantID(), ledger.PrefixGeneralJournal, 2027)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "each year restarts")

	n, err = repo.Next(ctx, f.TenantID(), ledger.PrefixSalesJournal, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "each prefix has its own counter")

	n, err = repo.Next(ctx, uuid.New(), ledger.PrefixGeneralJournal, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "each tenant has its own counter")
}
