package sales_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbook/backend/internal/application/apptest"
	appinventory "github.com/clearbook/backend/internal/application/inventory"
	appledger "github.com/clearbook/backend/internal/application/ledger"
	appsales "github.com/clearbook/backend/internal/application/sales"
	"github.com/clearbook/backend/internal/domain/banking"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/sales"
	"github.com/clearbook/backend/internal/domain/shared"
)

type services struct {
	f         *apptest.Fixture
	stock     *appinventory.StockService
	customers *appsales.CustomerService
	invoices  *appsales.InvoiceService
	payments  *appsales.PaymentService

	widget, install *inventory.Item
	bank            *banking.BankAccount
}

func setup(t *testing.T) *services {
	f := apptest.New(t)
	ctx := context.Background()
	posting := appledger.NewPostingService()
	s := &services{
		f:         f,
		stock:     appinventory.NewStockService(f.Scope, f.Repos, posting, f.Events, nil),
		customers: appsales.NewCustomerService(f.Repos, nil),
		invoices:  appsales.NewInvoiceService(f.Scope, f.Repos, posting, f.Events, nil),
		payments:  appsales.NewPaymentService(f.Scope, f.Repos, posting, f.Events, nil),
	}
	s.widget = f.AddItem(t, "widget", inventory.ItemTypeFinishedGood)
	s.install = f.AddItem(t, "install", inventory.ItemTypeService)
	otherIncome := f.Account(t, "4900")
	s.install.SetAccounts(nil, &otherIncome, nil)
	require.NoError(t, f.Repos.Items().Save(ctx, s.install))

	_, err := s.stock.Receive(ctx, f.TenantID(), f.UserID, appinventory.ReceiveStockRequest{
		ItemID:          s.widget.ID,
		Quantity:        dec("10"),
		UnitCost:        dec("6"),
		Date:            "2026-06-01",
		OffsetAccountID: f.Account(t, "2100"),
	})
	require.NoError(t, err)

	cash, err := f.Repos.Accounts().FindByCode(ctx, f.TenantID(), "1020")
	require.NoError(t, err)
	s.bank, err = banking.NewBankAccount(f.TenantID(), "Operating", "First Bank", "000123456789", cash)
	require.NoError(t, err)
	require.NoError(t, f.Repos.BankAccounts().Save(ctx, s.bank))
	return s
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.GetDomainError(err)
	require.Truef(t, ok, "expected domain error %s, got %v", code, err)
	assert.Equal(t, code, de.Code)
}

func (s *services) customer(t *testing.T, code, limit string) *appsales.CustomerResponse {
	t.Helper()
	c, err := s.customers.Create(context.Background(), s.f.TenantID(), s.f.UserID, appsales.CustomerRequest{
		Code:        code,
		Name:        "Customer " + code,
		Email:       "billing@example.com",
		CreditLimit: dec(limit),
	})
	require.NoError(t, err)
	return c
}

// standardInvoice bills 4 widgets at 25 less 10% plus 8% tax and one
// untaxed installation at 50: 90.00 + 7.20 + 50.00 = 147.20.
func (s *services) standardInvoice(t *testing.T, customerID uuid.UUID) *appsales.InvoiceResponse {
	t.Helper()
	inv, err := s.invoices.Create(context.Background(), s.f.TenantID(), s.f.UserID, appsales.InvoiceRequest{
		CustomerID:  customerID,
		InvoiceDate: "2026-06-10",
		Lines: []appsales.InvoiceLineRequest{
			{ItemID: s.widget.ID, Quantity: dec("4"), UnitPrice: dec("25"), DiscountPercent: dec("10"), TaxRate: dec("8")},
			{ItemID: s.install.ID, Description: "On-site installation", Quantity: dec("1"), UnitPrice: dec("50")},
		},
	})
	require.NoError(t, err)
	return inv
}

func (s *services) onHand(t *testing.T) string {
	t.Helper()
	b, err := s.f.Repos.StockBalances().Find(context.Background(), s.f.TenantID(), s.widget.ID, s.f.Warehouse.ID)
	require.NoError(t, err)
	return b.Quantity.String()
}

func TestCustomerService_CreateAndGet(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	c := s.customer(t, "c001", "0")
	assert.Equal(t, "C001", c.Code)
	assert.Equal(t, sales.DefaultPaymentTermsDays, c.PaymentTermsDays)

	_, err := s.customers.Create(ctx, s.f.TenantID(), s.f.UserID, appsales.CustomerRequest{Code: "C001", Name: "Again"})
	assertCode(t, err, "ALREADY_EXISTS")

	inactive := false
	_, err = s.customers.Update(ctx, s.f.TenantID(), c.ID, appsales.CustomerRequest{Name: "Renamed", IsActive: &inactive})
	require.NoError(t, err)

	got, err := s.customers.Get(ctx, s.f.TenantID(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.Outstanding)
	assert.True(t, got.Outstanding.IsZero())

	_, err = s.invoices.Create(ctx, s.f.TenantID(), s.f.UserID, appsales.InvoiceRequest{
		CustomerID: c.ID,
		Lines:      []appsales.InvoiceLineRequest{{ItemID: s.install.ID, Quantity: dec("1"), UnitPrice: dec("10")}},
	})
	assertCode(t, err, "CUSTOMER_INACTIVE")
}

func TestInvoiceService_PostBooksRevenueTaxAndCost(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	c := s.customer(t, "C001", "0")

	draft := s.standardInvoice(t, c.ID)
	assert.Equal(t, "draft", draft.Status)
	assert.Empty(t, draft.Number)
	assert.Equal(t, "2026-07-10", draft.DueDate)
	assert.Equal(t, "140.00", draft.Subtotal.StringFixed(2))
	assert.Equal(t, "7.20", draft.TaxTotal.StringFixed(2))
	assert.Equal(t, "147.20", draft.Total.StringFixed(2))

	s.f.Publisher.Reset()
	posted, err := s.invoices.Post(ctx, s.f.TenantID(), s.f.UserID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "posted", posted.Status)
	assert.Equal(t, "INV-2026-00001", posted.Number)
	require.NotNil(t, posted.VoucherID)
	assert.Equal(t, "24.00", posted.Lines[0].CostAmount.StringFixed(2))
	assert.True(t, posted.Lines[1].CostAmount.IsZero())

	assert.Equal(t, "147.20", s.f.Balance(t, "1100"))
	assert.Equal(t, "90.00", s.f.Balance(t, "4100"))
	assert.Equal(t, "50.00", s.f.Balance(t, "4900"))
	assert.Equal(t, "7.20", s.f.Balance(t, "2200"))
	assert.Equal(t, "24.00", s.f.Balance(t, "5100"))
	assert.Equal(t, "36.00", s.f.Balance(t, "1210"))
	assert.Equal(t, "6", s.onHand(t))

	v, err := s.f.Repos.Vouchers().FindByIDForTenant(ctx, s.f.TenantID(), *posted.VoucherID)
	require.NoError(t, err)
	assert.Equal(t, "SJ-2026-00001", v.Number)
	assert.Equal(t, ledger.SourceSalesInvoice, v.SourceType)

	types := s.f.Publisher.Types()
	assert.Contains(t, types, sales.EventTypeInvoicePosted)
	assert.Contains(t, types, inventory.EventTypeStockMoved)

	_, err = s.invoices.Post(ctx, s.f.TenantID(), s.f.UserID, draft.ID)
	assertCode(t, err, "INVALID_STATE")
	err = s.invoices.Delete(ctx, s.f.TenantID(), draft.ID)
	assertCode(t, err, "INVALID_STATE")

	got, err := s.customers.Get(ctx, s.f.TenantID(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "147.20", got.Outstanding.StringFixed(2))
}

func TestInvoiceService_CreditLimit(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	c := s.customer(t, "TIGHT", "100")

	inv := s.standardInvoice(t, c.ID)
	_, err := s.invoices.Post(ctx, s.f.TenantID(), s.f.UserID, inv.ID)
	assertCode(t, err, sales.CodeCreditLimitExceeded)

	assert.Equal(t, "10", s.onHand(t))
	assert.Equal(t, "0.00", s.f.Balance(t, "1100"))
	got, err := s.invoices.Get(ctx, s.f.TenantID(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", got.Status)
}

func TestInvoiceService_InsufficientStockLeavesDraft(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	c := s.customer(t, "C001", "0")

	inv, err := s.invoices.Create(ctx, s.f.TenantID(), s.f.UserID, appsales.InvoiceRequest{
		CustomerID:  c.ID,
		InvoiceDate: "2026-06-10",
		Lines: []appsales.InvoiceLineRequest{
			{ItemID: s.install.ID, Quantity: dec("1"), UnitPrice: dec("50")},
			{ItemID: s.widget.ID, Quantity: dec("11"), UnitPrice: dec("25")},
		},
	})
	require.NoError(t, err)

	_, err = s.invoices.Post(ctx, s.f.TenantID(), s.f.UserID, inv.ID)
	assertCode(t, err, shared.ErrInsufficientStock.Code)
	assert.Equal(t, "10", s.onHand(t))

	got, err := s.invoices.Get(ctx, s.f.TenantID(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", got.Status)
	assert.Empty(t, got.Number)
}

func TestInvoiceService_UpdateAndDeleteDraft(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	c := s.customer(t, "C001", "0")
	inv := s.standardInvoice(t, c.ID)

	updated, err := s.invoices.Update(ctx, s.f.TenantID(), inv.ID, appsales.InvoiceRequest{
		CustomerID:  c.ID,
		InvoiceDate: "2026-06-11",
		DueDate:     "2026-06-30",
		Lines:       []appsales.InvoiceLineRequest{{ItemID: s.install.ID, Quantity: dec("2"), UnitPrice: dec("50")}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, "100.00", updated.Total.StringFixed(2))
	assert.Equal(t, "2026-06-30", updated.DueDate)

	_, err = s.invoices.Update(ctx, s.f.TenantID(), inv.ID, appsales.InvoiceRequest{
		CustomerID:  c.ID,
		InvoiceDate: "2026-06-11",
		DueDate:     "2026-06-01",
		Lines:       []appsales.InvoiceLineRequest{{ItemID: s.install.ID, Quantity: dec("1"), UnitPrice: dec("50")}},
	})
	assertCode(t, err, "INVALID_DUE_DATE")

	require.NoError(t, s.invoices.Delete(ctx, s.f.TenantID(), inv.ID))
	_, err = s.invoices.Get(ctx, s.f.TenantID(), inv.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInvoiceService_VoidReversesVoucherAndStock(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	c := s.customer(t, "C001", "0")
	inv := s.standardInvoice(t, c.ID)
	_, err := s.invoices.Post(ctx, s.f.TenantID(), s.f.UserID, inv.ID)
	require.NoError(t, err)

	voided, err := s.invoices.Void(ctx, s.f.TenantID(), s.f.UserID, inv.ID, appsales.VoidInvoiceRequest{Reason: "Wrong customer", Date: "2026-06-12"})
	require.NoError(t, err)
	assert.Equal(t, "void", voided.Status)
	assert.Equal(t, "Wrong customer", voided.VoidReason)

	for _, code := range []string{"1100", "4100", "4900", "2200", "5100"} {
		assert.Equal(t, "0.00", s.f.Balance(t, code), code)
	}
	assert.Equal(t, "60.00", s.f.Balance(t, "1210"))
	assert.Equal(t, "10", s.onHand(t))

	moves, err := s.f.Repos.Movements().FindBySource(ctx, s.f.TenantID(), string(ledger.SourceSalesInvoice), inv.ID)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, inventory.MovementSale, moves[0].Type)
	assert.Equal(t, inventory.MovementSaleReturn, moves[1].Type)
	assert.True(t, moves[1].UnitCost.Equal(moves[0].UnitCost))

	original, err := s.f.Repos.Vouchers().FindByIDForTenant(ctx, s.f.TenantID(), *voided.VoucherID)
	require.NoError(t, err)
	assert.Equal(t, ledger.VoucherStatusReversed, original.Status)

	_, err = s.invoices.Void(ctx, s.f.TenantID(), s.f.UserID, inv.ID, appsales.VoidInvoiceRequest{Reason: "again"})
	assertCode(t, err, "INVALID_STATE")
}

func TestPaymentService_AllocatesAndPostsReceipt(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	c := s.customer(t, "C001", "0")
	inv := s.standardInvoice(t, c.ID)
	_, err := s.invoices.Post(ctx, s.f.TenantID(), s.f.UserID, inv.ID)
	require.NoError(t, err)

	pay := func(amount string) (*appsales.PaymentResponse, error) {
		return s.payments.Record(ctx, s.f.TenantID(), s.f.UserID, appsales.RecordPaymentRequest{
			CustomerID:    c.ID,
			BankAccountID: s.bank.ID,
			PaymentDate:   "2026-06-20",
			Amount:        dec(amount),
			Reference:     "WIRE",
			Allocations:   []appsales.AllocationRequest{{InvoiceID: inv.ID, Amount: dec(amount)}},
		})
	}

	first, err := pay("100")
	require.NoError(t, err)
	assert.Equal(t, "PAY-2026-00001", first.Number)
	require.NotNil(t, first.VoucherID)
	assert.Equal(t, "100.00", s.f.Balance(t, "1020"))
	assert.Equal(t, "47.20", s.f.Balance(t, "1100"))

	partial, err := s.invoices.Get(ctx, s.f.TenantID(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "partially_paid", partial.Status)
	assert.Equal(t, "47.20", partial.BalanceDue.StringFixed(2))

	_, err = pay("50")
	assertCode(t, err, sales.CodeInvalidAllocation)

	_, err = pay("47.20")
	require.NoError(t, err)
	paid, err := s.invoices.Get(ctx, s.f.TenantID(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	assert.Equal(t, "0.00", s.f.Balance(t, "1100"))

	_, err = s.invoices.Void(ctx, s.f.TenantID(), s.f.UserID, inv.ID, appsales.VoidInvoiceRequest{Reason: "too late"})
	assertCode(t, err, "INVALID_STATE")

	page, err := s.payments.List(ctx, s.f.TenantID(), appsales.PaymentListFilter{InvoiceID: &inv.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Contains(t, s.f.Publisher.Types(), sales.EventTypePaymentRecorded)
}

func TestPaymentService_RejectsMismatchedAllocations(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	c := s.customer(t, "C001", "0")
	other := s.customer(t, "C002", "0")
	inv := s.standardInvoice(t, c.ID)
	_, err := s.invoices.Post(ctx, s.f.TenantID(), s.f.UserID, inv.ID)
	require.NoError(t, err)
	draft := s.standardInvoice(t, c.ID)

	record := func(customerID uuid.UUID, amount string, allocs ...appsales.AllocationRequest) error {
		_, err := s.payments.Record(ctx, s.f.TenantID(), s.f.UserID, appsales.RecordPaymentRequest{
			CustomerID:    customerID,
			BankAccountID: s.bank.ID,
			PaymentDate:   "2026-06-20",
			Amount:        dec(amount),
			Allocations:   allocs,
		})
		return err
	}

	assertCode(t, record(c.ID, "10", appsales.AllocationRequest{InvoiceID: inv.ID, Amount: dec("5")}), sales.CodeInvalidAllocation)
	assertCode(t, record(other.ID, "10", appsales.AllocationRequest{InvoiceID: inv.ID, Amount: dec("10")}), sales.CodeInvalidAllocation)
	assertCode(t, record(c.ID, "10", appsales.AllocationRequest{InvoiceID: draft.ID, Amount: dec("10")}), sales.CodeInvalidAllocation)

	assert.Equal(t, "0.00", s.f.Balance(t, "1020"))
	got, err := s.invoices.Get(ctx, s.f.TenantID(), inv.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountPaid.IsZero())
}

func TestInvoiceService_ListFilters(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	c := s.customer(t, "C001", "0")
	other := s.customer(t, "C002", "0")
	posted := s.standardInvoice(t, c.ID)
	_, err := s.invoices.Post(ctx, s.f.TenantID(), s.f.UserID, posted.ID)
	require.NoError(t, err)
	s.standardInvoice(t, other.ID)

	byCustomer, err := s.invoices.List(ctx, s.f.TenantID(), appsales.InvoiceListFilter{CustomerID: &other.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, byCustomer.Total)

	drafts, err := s.invoices.List(ctx, s.f.TenantID(), appsales.InvoiceListFilter{Status: "draft"})
	require.NoError(t, err)
	require.Len(t, drafts.Items, 1)
	assert.Equal(t, other.ID, drafts.Items[0].CustomerID)

	// due 2026-07-10, so overdue as of today
	overdue, err := s.invoices.List(ctx, s.f.TenantID(), appsales.InvoiceListFilter{Overdue: true})
	require.NoError(t, err)
	require.Len(t, overdue.Items, 1)
	assert.Equal(t, posted.ID, overdue.Items[0].ID)
}
