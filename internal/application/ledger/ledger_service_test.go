package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbook/backend/internal/application/apptest"
	appledger "github.com/clearbook/backend/internal/application/ledger"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
)

type services struct {
	f        *apptest.Fixture
	accounts *appledger.AccountService
	periods  *appledger.PeriodService
	vouchers *appledger.VoucherService
}

func setup(t *testing.T) *services {
	f := apptest.New(t)
	return &services{
		f:        f,
		accounts: appledger.NewAccountService(f.Repos, nil),
		periods:  appledger.NewPeriodService(f.Scope, f.Repos, f.Events, nil),
		vouchers: appledger.NewVoucherService(f.Scope, f.Repos, appledger.NewPostingService(), f.Events, nil),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.GetDomainError(err)
	require.Truef(t, ok, "expected domain error %s, got %v", code, err)
	assert.Equal(t, code, de.Code)
}

func (s *services) draft(t *testing.T, date string, lines ...appledger.VoucherLineRequest) *appledger.VoucherResponse {
	t.Helper()
	v, err := s.vouchers.Create(context.Background(), s.f.TenantID(), s.f.UserID, appledger.CreateVoucherRequest{
		Date:        date,
		Reference:   "REF-1",
		Description: "Owner investment",
		Lines:       lines,
	})
	require.NoError(t, err)
	return v
}

func (s *services) line(t *testing.T, code, debit, credit string) appledger.VoucherLineRequest {
	return appledger.VoucherLineRequest{AccountID: s.f.Account(t, code), Debit: dec(debit), Credit: dec(credit)}
}

func TestVoucherService_PostAssignsSequentialNumbers(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	first := s.draft(t, "2026-03-10", s.line(t, "1020", "1000", "0"), s.line(t, "3100", "0", "1000"))
	assert.Equal(t, "draft", first.Status)
	assert.Empty(t, first.Number)

	posted, err := s.vouchers.Post(ctx, s.f.TenantID(), s.f.UserID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "JV-2026-00001", posted.Number)
	assert.Equal(t, "posted", posted.Status)
	assert.Equal(t, "1020", posted.Lines[0].AccountCode)

	second := s.draft(t, "2026-03-11", s.line(t, "5900", "25", "0"), s.line(t, "1020", "0", "25"))
	posted, err = s.vouchers.Post(ctx, s.f.TenantID(), s.f.UserID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "JV-2026-00002", posted.Number)

	assert.Equal(t, "975.00", s.f.Balance(t, "1020"))
	assert.Equal(t, "1000.00", s.f.Balance(t, "3100"))
	assert.Equal(t, []string{ledger.EventTypeVoucherPosted, ledger.EventTypeVoucherPosted}, s.f.Publisher.Types())
}

func TestVoucherService_PostRejectsUnbalanced(t *testing.T) {
	s := setup(t)
	v := s.draft(t, "2026-03-10", s.line(t, "1020", "100", "0"), s.line(t, "3100", "0", "90"))

	_, err := s.vouchers.Post(context.Background(), s.f.TenantID(), s.f.UserID, v.ID)
	assertCode(t, err, ledger.CodeUnbalancedVoucher)
	assert.Contains(t, err.Error(), "100.00")
	assert.Contains(t, err.Error(), "90.00")

	got, err := s.vouchers.GetByID(context.Background(), s.f.TenantID(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", got.Status)
	assert.Empty(t, s.f.Publisher.Types())
}

func TestVoucherService_PostOutsidePeriods(t *testing.T) {
	s := setup(t)
	v := s.draft(t, "2027-02-01", s.line(t, "1020", "10", "0"), s.line(t, "3100", "0", "10"))

	_, err := s.vouchers.Post(context.Background(), s.f.TenantID(), s.f.UserID, v.ID)
	assertCode(t, err, ledger.CodePeriodNotFound)
}

func TestVoucherService_FailedPostDoesNotConsumeNumber(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	inactive, err := s.accounts.Create(ctx, s.f.TenantID(), s.f.UserID, appledger.CreateAccountRequest{
		Code: "5950", Name: "Old Expense", Type: "expense",
	})
	require.NoError(t, err)
	no := false
	_, err = s.accounts.Update(ctx, s.f.TenantID(), inactive.ID, appledger.UpdateAccountRequest{Name: "Old Expense", IsActive: &no})
	require.NoError(t, err)

	bad := s.draft(t, "2026-04-01",
		appledger.VoucherLineRequest{AccountID: inactive.ID, Debit: dec("5")},
		s.line(t, "1010", "0", "5"))
	_, err = s.vouchers.Post(ctx, s.f.TenantID(), s.f.UserID, bad.ID)
	assertCode(t, err, ledger.CodeAccountNotPostable)

	good := s.draft(t, "2026-04-01", s.line(t, "5900", "5", "0"), s.line(t, "1010", "0", "5"))
	posted, err := s.vouchers.Post(ctx, s.f.TenantID(), s.f.UserID, good.ID)
	require.NoError(t, err)
	assert.Equal(t, "JV-2026-00001", posted.Number)
}

func TestVoucherService_GroupAccountRejectedOnCreate(t *testing.T) {
	s := setup(t)
	_, err := s.vouchers.Create(context.Background(), s.f.TenantID(), s.f.UserID, appledger.CreateVoucherRequest{
		Date:  "2026-03-10",
		Lines: []appledger.VoucherLineRequest{s.line(t, "1000", "10", "0"), s.line(t, "3100", "0", "10")},
	})
	assertCode(t, err, ledger.CodeAccountNotPostable)
}

func TestVoucherService_UpdateAndDeleteOnlyDrafts(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	v := s.draft(t, "2026-05-02", s.line(t, "1020", "50", "0"), s.line(t, "3100", "0", "50"))

	updated, err := s.vouchers.Update(ctx, s.f.TenantID(), v.ID, appledger.UpdateVoucherRequest{
		Date:        "2026-05-03",
		Description: "Corrected",
		Lines:       []appledger.VoucherLineRequest{s.line(t, "1020", "60", "0"), s.line(t, "3100", "0", "60")},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-05-03", updated.Date)
	assert.True(t, updated.TotalDebit.Equal(dec("60")))
	assert.Len(t, updated.Lines, 2)

	_, err = s.vouchers.Post(ctx, s.f.TenantID(), s.f.UserID, v.ID)
	require.NoError(t, err)

	_, err = s.vouchers.Update(ctx, s.f.TenantID(), v.ID, appledger.UpdateVoucherRequest{
		Date:  "2026-05-03",
		Lines: []appledger.VoucherLineRequest{s.line(t, "1020", "1", "0"), s.line(t, "3100", "0", "1")},
	})
	assertCode(t, err, ledger.CodeVoucherNotDraft)
	assertCode(t, s.vouchers.Delete(ctx, s.f.TenantID(), v.ID), ledger.CodeVoucherNotDraft)

	other := s.draft(t, "2026-05-04", s.line(t, "1020", "1", "0"), s.line(t, "3100", "0", "1"))
	require.NoError(t, s.vouchers.Delete(ctx, s.f.TenantID(), other.ID))
	_, err = s.vouchers.GetByID(ctx, s.f.TenantID(), other.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestVoucherService_Reverse(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	v := s.draft(t, "2026-06-01", s.line(t, "1020", "200", "0"), s.line(t, "4900", "0", "200"))
	_, err := s.vouchers.Post(ctx, s.f.TenantID(), s.f.UserID, v.ID)
	require.NoError(t, err)

	rev, err := s.vouchers.Reverse(ctx, s.f.TenantID(), s.f.UserID, v.ID, appledger.ReverseVoucherRequest{
		Date: "2026-06-05", Reason: "posted twice",
	})
	require.NoError(t, err)
	assert.Equal(t, "RJ-2026-00001", rev.Number)
	assert.Equal(t, "reversal", rev.Type)
	require.NotNil(t, rev.ReversalOfID)
	assert.Equal(t, v.ID, *rev.ReversalOfID)
	assert.True(t, rev.Lines[0].Credit.Equal(dec("200")))

	original, err := s.vouchers.GetByID(ctx, s.f.TenantID(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "reversed", original.Status)
	assert.Equal(t, "0.00", s.f.Balance(t, "1020"))

	_, err = s.vouchers.Reverse(ctx, s.f.TenantID(), s.f.UserID, v.ID, appledger.ReverseVoucherRequest{})
	assertCode(t, err, "ALREADY_REVERSED")
}

func TestPeriodService_CloseBlocksPostingAndDrafts(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	periods, err := s.periods.ListPeriods(ctx, s.f.TenantID(), appledger.PeriodListFilter{FiscalYear: apptest.FiscalYear})
	require.NoError(t, err)
	require.Len(t, periods, 12)
	march := periods[2]
	assert.Equal(t, "2026-03-01", march.StartDate)
	assert.Equal(t, "2026-03-31", march.EndDate)

	v := s.draft(t, "2026-03-15", s.line(t, "1020", "10", "0"), s.line(t, "3100", "0", "10"))
	_, err = s.periods.ClosePeriod(ctx, s.f.TenantID(), s.f.UserID, march.ID)
	assertCode(t, err, "DRAFT_VOUCHERS_EXIST")

	require.NoError(t, s.vouchers.Delete(ctx, s.f.TenantID(), v.ID))
	closed, err := s.periods.ClosePeriod(ctx, s.f.TenantID(), s.f.UserID, march.ID)
	require.NoError(t, err)
	assert.Equal(t, "closed", closed.Status)

	late := s.draft(t, "2026-03-20", s.line(t, "1020", "10", "0"), s.line(t, "3100", "0", "10"))
	_, err = s.vouchers.Post(ctx, s.f.TenantID(), s.f.UserID, late.ID)
	assertCode(t, err, ledger.CodePeriodClosed)

	_, err = s.periods.ReopenPeriod(ctx, s.f.TenantID(), s.f.UserID, march.ID)
	require.NoError(t, err)
	_, err = s.vouchers.Post(ctx, s.f.TenantID(), s.f.UserID, late.ID)
	require.NoError(t, err)
}

func TestPeriodService_OpenFiscalYear(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	_, err := s.periods.OpenFiscalYear(ctx, s.f.TenantID(), appledger.OpenFiscalYearRequest{FiscalYear: apptest.FiscalYear})
	assertCode(t, err, "ALREADY_EXISTS")

	created, err := s.periods.OpenFiscalYear(ctx, s.f.TenantID(), appledger.OpenFiscalYearRequest{FiscalYear: 2027})
	require.NoError(t, err)
	require.Len(t, created, 12)
	assert.Equal(t, "2027-12-31", created[11].EndDate)
}

func TestPeriodService_Settings(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	got, err := s.periods.GetSettings(ctx, s.f.TenantID())
	require.NoError(t, err)
	assert.True(t, got.Complete)
	assert.Len(t, got.Accounts, len(ledger.SettingKeys))

	_, err = s.periods.UpdateSettings(ctx, s.f.TenantID(), appledger.UpdateSettingsRequest{
		Accounts: map[string]uuid.UUID{"sales_revenue": s.f.Account(t, "5900")},
	})
	assertCode(t, err, "INVALID_SETTING")

	_, err = s.periods.UpdateSettings(ctx, s.f.TenantID(), appledger.UpdateSettingsRequest{
		Accounts: map[string]uuid.UUID{"receivable": s.f.Account(t, "1000")},
	})
	assertCode(t, err, ledger.CodeAccountNotPostable)

	updated, err := s.periods.UpdateSettings(ctx, s.f.TenantID(), appledger.UpdateSettingsRequest{
		Accounts: map[string]uuid.UUID{"sales_revenue": s.f.Account(t, "4900"), "sales_tax": uuid.Nil},
	})
	require.NoError(t, err)
	assert.False(t, updated.Complete)
	for _, a := range updated.Accounts {
		switch a.Key {
		case "sales_revenue":
			assert.Equal(t, "4900", a.Code)
		case "sales_tax":
			assert.False(t, a.Valid)
		}
	}
}

func TestAccountService_CreateValidatesParentAndDelete(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	assets := s.f.Account(t, "1000")
	liabilities := s.f.Account(t, "2000")

	petty, err := s.accounts.Create(ctx, s.f.TenantID(), s.f.UserID, appledger.CreateAccountRequest{
		Code: "1015", Name: "Petty Cash", Type: "asset", ParentID: &assets,
	})
	require.NoError(t, err)
	assert.Equal(t, "debit", petty.NormalBalance)

	_, err = s.accounts.Create(ctx, s.f.TenantID(), s.f.UserID, appledger.CreateAccountRequest{
		Code: "1015", Name: "Duplicate", Type: "asset",
	})
	assertCode(t, err, "ALREADY_EXISTS")

	_, err = s.accounts.Create(ctx, s.f.TenantID(), s.f.UserID, appledger.CreateAccountRequest{
		Code: "1016", Name: "Wrong Parent", Type: "asset", ParentID: &liabilities,
	})
	assertCode(t, err, "INVALID_PARENT")

	assertCode(t, s.accounts.Delete(ctx, s.f.TenantID(), assets), ledger.CodeAccountInUse)
	assertCode(t, s.accounts.Delete(ctx, s.f.TenantID(), s.f.Account(t, "1100")), ledger.CodeAccountInUse)

	v := s.draft(t, "2026-02-01", appledger.VoucherLineRequest{AccountID: petty.ID, Debit: dec("20")}, s.line(t, "1020", "0", "20"))
	assertCode(t, s.accounts.Delete(ctx, s.f.TenantID(), petty.ID), ledger.CodeAccountInUse)
	require.NoError(t, s.vouchers.Delete(ctx, s.f.TenantID(), v.ID))
	require.NoError(t, s.accounts.Delete(ctx, s.f.TenantID(), petty.ID))
}

func TestAccountService_List(t *testing.T) {
	s := setup(t)
	yes := true
	page, err := s.accounts.List(context.Background(), s.f.TenantID(), appledger.AccountListFilter{Type: "equity", IsGroup: &yes})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "3000", page.Items[0].Code)
	assert.EqualValues(t, 1, page.Total)
}

func TestAccountService_GetLedgerRunningBalance(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	post := func(date, amount string, debitCash bool) {
		var lines []appledger.VoucherLineRequest
		if debitCash {
			lines = []appledger.VoucherLineRequest{s.line(t, "1010", amount, "0"), s.line(t, "3100", "0", amount)}
		} else {
			lines = []appledger.VoucherLineRequest{s.line(t, "5900", amount, "0"), s.line(t, "1010", "0", amount)}
		}
		v := s.draft(t, date, lines...)
		_, err := s.vouchers.Post(ctx, s.f.TenantID(), s.f.UserID, v.ID)
		require.NoError(t, err)
	}
	post("2026-01-15", "500", true)
	post("2026-02-03", "120", false)
	post("2026-02-20", "80", true)
	s.draft(t, "2026-02-21", s.line(t, "1010", "999", "0"), s.line(t, "3100", "0", "999"))

	l, err := s.accounts.GetLedger(ctx, s.f.TenantID(), s.f.Account(t, "1010"), appledger.AccountLedgerQuery{
		From: "2026-02-01", To: "2026-02-28",
	})
	require.NoError(t, err)
	assert.Equal(t, "500.00", l.OpeningBalance.StringFixed(2))
	require.Len(t, l.Entries, 2)
	assert.Equal(t, "380.00", l.Entries[0].Balance.StringFixed(2))
	assert.Equal(t, "460.00", l.Entries[1].Balance.StringFixed(2))
	assert.Equal(t, "460.00", l.ClosingBalance.StringFixed(2))

	_, err = s.accounts.GetLedger(ctx, s.f.TenantID(), s.f.Account(t, "1010"), appledger.AccountLedgerQuery{
		From: "2026-03-01", To: "2026-02-01",
	})
	assertCode(t, err, "INVALID_INPUT")
}
