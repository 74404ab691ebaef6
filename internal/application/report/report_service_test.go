package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbook/backend/internal/application/apptest"
	appinventory "github.com/clearbook/backend/internal/application/inventory"
	appledger "github.com/clearbook/backend/internal/application/ledger"
	"github.com/clearbook/backend/internal/application/report"
	appsales "github.com/clearbook/backend/internal/application/sales"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/banking"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// seedBooks posts a small year of activity:
//
//	2026-01-05 capital 1000 into the bank
//	2026-02-01 10 widgets received at 6 on account
//	2026-03-01 service invoice C001 500, due 2026-03-31
//	2026-03-10 general expense 200 paid from the bank
//	2026-05-20 service invoice C002 120, due 2026-06-19
func seedBooks(t *testing.T, f *apptest.Fixture) *inventory.Item {
	t.Helper()
	ctx := context.Background()
	posting := appledger.NewPostingService()

	journal := func(date string, debit, credit string, amount string) {
		d, err := time.Parse(appshared.DateLayout, date)
		require.NoError(t, err)
		var lines appledger.LineSet
		lines.Debit(f.Account(t, debit), dec(amount), "")
		lines.Credit(f.Account(t, credit), dec(amount), "")
		err = f.Scope.Execute(ctx, func(r appshared.Repositories) error {
			_, err := posting.PostDocument(ctx, r, f.TenantID(), f.UserID, appledger.Document{
				Type:        ledger.VoucherTypeGeneral,
				Date:        d,
				Description: "Manual entry",
				SourceType:  ledger.SourceManual,
				Lines:       lines.Lines(),
			})
			return err
		})
		require.NoError(t, err)
	}
	journal("2026-01-05", "1020", "3100", "1000")
	journal("2026-03-10", "5900", "1020", "200")

	widget := f.AddItem(t, "widget", inventory.ItemTypeFinishedGood)
	stock := appinventory.NewStockService(f.Scope, f.Repos, posting, f.Events, nil)
	_, err := stock.Receive(ctx, f.TenantID(), f.UserID, appinventory.ReceiveStockRequest{
		ItemID:          widget.ID,
		Quantity:        dec("10"),
		UnitCost:        dec("6"),
		Date:            "2026-02-01",
		OffsetAccountID: f.Account(t, "2100"),
	})
	require.NoError(t, err)

	consulting := f.AddItem(t, "consulting", inventory.ItemTypeService)
	customers := appsales.NewCustomerService(f.Repos, nil)
	invoices := appsales.NewInvoiceService(f.Scope, f.Repos, posting, f.Events, nil)
	bill := func(code, date, due, amount string) {
		c, err := customers.Create(ctx, f.TenantID(), f.UserID, appsales.CustomerRequest{Code: code, Name: "Customer " + code})
		require.NoError(t, err)
		inv, err := invoices.Create(ctx, f.TenantID(), f.UserID, appsales.InvoiceRequest{
			CustomerID:  c.ID,
			InvoiceDate: date,
			DueDate:     due,
			Lines:       []appsales.InvoiceLineRequest{{ItemID: consulting.ID, Quantity: dec("1"), UnitPrice: dec(amount)}},
		})
		require.NoError(t, err)
		_, err = invoices.Post(ctx, f.TenantID(), f.UserID, inv.ID)
		require.NoError(t, err)
	}
	bill("C001", "2026-03-01", "2026-03-31", "500")
	bill("C002", "2026-05-20", "2026-06-19", "120")
	return widget
}

func TestReportService_TrialBalance(t *testing.T) {
	f := apptest.New(t)
	seedBooks(t, f)
	svc := report.NewReportService(f.Repos, nil)
	ctx := context.Background()

	tb, err := svc.TrialBalance(ctx, f.TenantID(), report.AsOfQuery{AsOf: "2026-12-31"})
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced())
	assert.Equal(t, "1680.00", tb.TotalDebit.StringFixed(2))
	assert.Equal(t, "1680.00", tb.TotalCredit.StringFixed(2))

	codes := make([]string, len(tb.Lines))
	for i, l := range tb.Lines {
		codes[i] = l.Code
	}
	assert.Equal(t, []string{"1020", "1100", "1210", "2100", "3100", "4100", "5900"}, codes)
	assert.Equal(t, "800.00", tb.Lines[0].DebitBalance.StringFixed(2))
	assert.Equal(t, "1000.00", tb.Lines[0].DebitTotal.StringFixed(2))
	assert.Equal(t, "200.00", tb.Lines[0].CreditTotal.StringFixed(2))
	assert.Equal(t, "620.00", tb.Lines[5].CreditBalance.StringFixed(2))

	early, err := svc.TrialBalance(ctx, f.TenantID(), report.AsOfQuery{AsOf: "2026-02-15"})
	require.NoError(t, err)
	assert.Len(t, early.Lines, 4)
	assert.Equal(t, "1060.00", early.TotalDebit.StringFixed(2))

	_, err = svc.TrialBalance(ctx, f.TenantID(), report.AsOfQuery{AsOf: "31/12/2026"})
	require.Error(t, err)
}

func TestReportService_BalanceSheet(t *testing.T) {
	f := apptest.New(t)
	seedBooks(t, f)
	svc := report.NewReportService(f.Repos, nil)

	bs, err := svc.BalanceSheet(context.Background(), f.TenantID(), report.AsOfQuery{AsOf: "2026-12-31"})
	require.NoError(t, err)
	assert.Equal(t, "1480.00", bs.Assets.Total.StringFixed(2))
	assert.Equal(t, "60.00", bs.Liabilities.Total.StringFixed(2))
	assert.Equal(t, "420.00", bs.CurrentEarnings.StringFixed(2))
	assert.Equal(t, "1420.00", bs.Equity.Total.StringFixed(2))
	assert.Equal(t, "1480.00", bs.TotalLiabilitiesEquity.StringFixed(2))
	assert.True(t, bs.Balanced)

	require.Len(t, bs.Equity.Lines, 2)
	assert.Equal(t, "3100", bs.Equity.Lines[0].Code)
	assert.Equal(t, "Current Earnings", bs.Equity.Lines[1].Name)
}

func TestReportService_IncomeStatement(t *testing.T) {
	f := apptest.New(t)
	seedBooks(t, f)
	svc := report.NewReportService(f.Repos, nil)
	ctx := context.Background()

	march, err := svc.IncomeStatement(ctx, f.TenantID(), report.PeriodQuery{From: "2026-03-01", To: "2026-03-31"})
	require.NoError(t, err)
	assert.Equal(t, "500.00", march.Revenue.Total.StringFixed(2))
	assert.Equal(t, "200.00", march.Expenses.Total.StringFixed(2))
	assert.Equal(t, "300.00", march.NetIncome.StringFixed(2))

	ytd, err := svc.IncomeStatement(ctx, f.TenantID(), report.PeriodQuery{To: "2026-06-30"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), ytd.From)
	assert.Equal(t, "420.00", ytd.NetIncome.StringFixed(2))

	_, err = svc.IncomeStatement(ctx, f.TenantID(), report.PeriodQuery{From: "2026-04-01", To: "2026-03-01"})
	require.Error(t, err)
	de, ok := shared.GetDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_INPUT", de.Code)
}

func TestReportService_StockValuation(t *testing.T) {
	f := apptest.New(t)
	widget := seedBooks(t, f)
	svc := report.NewReportService(f.Repos, nil)
	ctx := context.Background()

	val, err := svc.StockValuation(ctx, f.TenantID(), report.StockValuationQuery{WarehouseID: &f.Warehouse.ID})
	require.NoError(t, err)
	require.Len(t, val.Lines, 1)
	assert.Equal(t, widget.ID, val.Lines[0].ItemID)
	assert.Equal(t, "6.00", val.Lines[0].AverageCost.StringFixed(2))
	assert.Equal(t, "10.00", val.TotalQuantity.StringFixed(2))
	assert.Equal(t, "60.00", val.TotalValue.StringFixed(2))

	missing := uuid.New()
	_, err = svc.StockValuation(ctx, f.TenantID(), report.StockValuationQuery{WarehouseID: &missing})
	require.Error(t, err)
}

func TestReportService_ARAging(t *testing.T) {
	f := apptest.New(t)
	seedBooks(t, f)
	svc := report.NewReportService(f.Repos, nil)
	ctx := context.Background()

	aging, err := svc.ARAging(ctx, f.TenantID(), report.AsOfQuery{AsOf: "2026-06-30"})
	require.NoError(t, err)
	require.Len(t, aging.Rows, 2)
	assert.Equal(t, "C001", aging.Rows[0].CustomerCode)
	assert.Equal(t, "500.00", aging.Rows[0].Over90.StringFixed(2))
	assert.Equal(t, "C002", aging.Rows[1].CustomerCode)
	assert.Equal(t, "120.00", aging.Rows[1].Days30.StringFixed(2))
	assert.Equal(t, "620.00", aging.Totals.Total.StringFixed(2))

	april, err := svc.ARAging(ctx, f.TenantID(), report.AsOfQuery{AsOf: "2026-04-15"})
	require.NoError(t, err)
	require.Len(t, april.Rows, 1)
	assert.Equal(t, "500.00", april.Rows[0].Days30.StringFixed(2))
	assert.True(t, april.Totals.Over90.IsZero())
}

func TestReportService_ARAgingRestatesLaterActivity(t *testing.T) {
	f := apptest.New(t)
	seedBooks(t, f)
	svc := report.NewReportService(f.Repos, nil)
	ctx := context.Background()

	posting := appledger.NewPostingService()
	invoices := appsales.NewInvoiceService(f.Scope, f.Repos, posting, f.Events, nil)
	payments := appsales.NewPaymentService(f.Scope, f.Repos, posting, f.Events, nil)

	cash, err := f.Repos.Accounts().FindByCode(ctx, f.TenantID(), "1020")
	require.NoError(t, err)
	bank, err := banking.NewBankAccount(f.TenantID(), "Operating", "First Bank", "000123456789", cash)
	require.NoError(t, err)
	require.NoError(t, f.Repos.BankAccounts().Save(ctx, bank))

	page, err := invoices.List(ctx, f.TenantID(), appsales.InvoiceListFilter{})
	require.NoError(t, err)
	byTotal := map[string]appsales.InvoiceResponse{}
	for _, inv := range page.Items {
		byTotal[inv.Total.StringFixed(2)] = inv
	}
	c001, c002 := byTotal["500.00"], byTotal["120.00"]
	require.NotEqual(t, uuid.Nil, c001.ID)
	require.NotEqual(t, uuid.Nil, c002.ID)

	pay := func(date, amount string) {
		_, err := payments.Record(ctx, f.TenantID(), f.UserID, appsales.RecordPaymentRequest{
			CustomerID:    c001.CustomerID,
			BankAccountID: bank.ID,
			PaymentDate:   date,
			Amount:        dec(amount),
			Allocations:   []appsales.AllocationRequest{{InvoiceID: c001.ID, Amount: dec(amount)}},
		})
		require.NoError(t, err)
	}
	pay("2026-05-01", "200")
	pay("2026-06-01", "300")
	_, err = invoices.Void(ctx, f.TenantID(), f.UserID, c002.ID, appsales.VoidInvoiceRequest{Reason: "billed in error", Date: "2026-06-10"})
	require.NoError(t, err)

	// before any payment C001 still owes the full 500
	april, err := svc.ARAging(ctx, f.TenantID(), report.AsOfQuery{AsOf: "2026-04-15"})
	require.NoError(t, err)
	require.Len(t, april.Rows, 1)
	assert.Equal(t, "C001", april.Rows[0].CustomerCode)
	assert.Equal(t, "500.00", april.Rows[0].Days30.StringFixed(2))
	assert.Equal(t, "500.00", april.Totals.Total.StringFixed(2))

	// one payment in, and the void has not happened yet
	may, err := svc.ARAging(ctx, f.TenantID(), report.AsOfQuery{AsOf: "2026-05-31"})
	require.NoError(t, err)
	require.Len(t, may.Rows, 2)
	assert.Equal(t, "300.00", may.Rows[0].Days90.StringFixed(2))
	assert.Equal(t, "C002", may.Rows[1].CustomerCode)
	assert.Equal(t, "120.00", may.Rows[1].Current.StringFixed(2))
	assert.Equal(t, "420.00", may.Totals.Total.StringFixed(2))

	june, err := svc.ARAging(ctx, f.TenantID(), report.AsOfQuery{AsOf: "2026-06-30"})
	require.NoError(t, err)
	assert.Empty(t, june.Rows)
	assert.True(t, june.Totals.Total.IsZero())
}
