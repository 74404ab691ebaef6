package sales

import (
	"testing"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCustomer(t *testing.T, tenantID uuid.UUID, code string, limit string) *Customer {
	t.Helper()
	c, err := NewCustomer(tenantID, code, CustomerDetails{Name: "Customer " + code, CreditLimit: d(limit)})
	require.NoError(t, err)
	return c
}

func postedInvoice(t *testing.T, c *Customer, date string, lines ...LineInput) *SalesInvoice {
	t.Helper()
	inv, err := NewSalesInvoice(c.TenantID, c, uuid.New(), shared.MustParseDate(date), time.Time{}, "", lines)
	require.NoError(t, err)
	require.NoError(t, inv.Post("INV-2026-00001", uuid.New(), uuid.New(), time.Now()))
	return inv
}

func TestLineAmounts(t *testing.T) {
	tests := []struct {
		name                   string
		qty, price, disc, rate string
		wantNet, wantTax       string
	}{
		{"plain", "2", "10", "0", "0", "20", "0"},
		{"discount and tax", "3", "19.99", "10", "7.5", "53.97", "4.05"},
		{"rounding half away from zero", "1", "0.125", "0", "0", "0.13", "0"},
		{"full discount", "5", "9", "100", "10", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, tax := LineAmounts(d(tt.qty), d(tt.price), d(tt.disc), d(tt.rate))
			assert.True(t, net.Equal(d(tt.wantNet)), "net %s", net)
			assert.True(t, tax.Equal(d(tt.wantTax)), "tax %s", tax)
		})
	}
}

func TestNewCustomer(t *testing.T) {
	tenantID := uuid.New()
	c := newCustomer(t, tenantID, " acme ", "0")
	assert.Equal(t, "ACME", c.Code)
	assert.Equal(t, DefaultPaymentTermsDays, c.PaymentTermsDays)

	_, err := NewCustomer(tenantID, "X", CustomerDetails{Name: "X", Email: "not-an-email"})
	assert.Error(t, err)

	terms := 400
	_, err = NewCustomer(tenantID, "X", CustomerDetails{Name: "X", PaymentTermsDays: &terms})
	assert.Error(t, err)
}

func TestCustomer_CheckCredit(t *testing.T) {
	tenantID := uuid.New()
	unlimited := newCustomer(t, tenantID, "A", "0")
	assert.NoError(t, unlimited.CheckCredit(d("1000000"), d("1")))

	limited := newCustomer(t, tenantID, "B", "1000")
	assert.NoError(t, limited.CheckCredit(d("600"), d("400")))
	err := limited.CheckCredit(d("600"), d("400.01"))
	de, ok := shared.GetDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeCreditLimitExceeded, de.Code)
}

func TestSalesInvoice_Totals(t *testing.T) {
	c := newCustomer(t, uuid.New(), "A", "0")
	inv, err := NewSalesInvoice(c.TenantID, c, uuid.New(), shared.MustParseDate("2026-03-01"), time.Time{}, "", []LineInput{
		{ItemID: uuid.New(), Quantity: d("3"), UnitPrice: d("19.99"), DiscountPercent: d("10"), TaxRate: d("7.5")},
		{ItemID: uuid.New(), Quantity: d("1"), UnitPrice: d("100"), TaxRate: d("10")},
	})
	require.NoError(t, err)
	assert.True(t, inv.Subtotal.Equal(d("153.97")))
	assert.True(t, inv.TaxTotal.Equal(d("14.05")))
	assert.True(t, inv.Total.Equal(d("168.02")))
	assert.Equal(t, shared.MustParseDate("2026-03-31"), inv.DueDate)
	assert.Len(t, inv.ItemIDs(), 2)
}

func TestSalesInvoice_Validation(t *testing.T) {
	c := newCustomer(t, uuid.New(), "A", "0")
	date := shared.MustParseDate("2026-03-01")

	_, err := NewSalesInvoice(c.TenantID, c, uuid.New(), date, time.Time{}, "", nil)
	assert.Error(t, err)

	_, err = NewSalesInvoice(c.TenantID, c, uuid.New(), date, shared.MustParseDate("2026-02-01"), "",
		[]LineInput{{ItemID: uuid.New(), Quantity: d("1"), UnitPrice: d("1")}})
	assert.Error(t, err, "due before invoice date")

	_, err = NewSalesInvoice(c.TenantID, c, uuid.New(), date, time.Time{}, "",
		[]LineInput{{ItemID: uuid.New(), Quantity: d("1"), UnitPrice: d("1"), DiscountPercent: d("120")}})
	assert.Error(t, err)

	c.SetActive(false)
	_, err = NewSalesInvoice(c.TenantID, c, uuid.New(), date, time.Time{}, "",
		[]LineInput{{ItemID: uuid.New(), Quantity: d("1"), UnitPrice: d("1")}})
	assert.Error(t, err)
}

func TestSalesInvoice_PostAndVoid(t *testing.T) {
	c := newCustomer(t, uuid.New(), "A", "0")
	inv := postedInvoice(t, c, "2026-03-01", LineInput{ItemID: uuid.New(), Quantity: d("1"), UnitPrice: d("50")})
	assert.Equal(t, InvoiceStatusPosted, inv.Status)
	assert.Error(t, inv.Update(c, inv.WarehouseID, inv.InvoiceDate, time.Time{}, "", nil), "posted invoice is immutable")

	require.NoError(t, inv.Void("duplicate", uuid.New(), time.Now()))
	assert.Equal(t, InvoiceStatusVoid, inv.Status)
	assert.Error(t, inv.Void("again", uuid.New(), time.Now()))
}

func TestNewCustomerPayment(t *testing.T) {
	tenantID := uuid.New()
	c := newCustomer(t, tenantID, "A", "0")
	other := newCustomer(t, tenantID, "B", "0")
	inv1 := postedInvoice(t, c, "2026-03-01", LineInput{ItemID: uuid.New(), Quantity: d("1"), UnitPrice: d("100")})
	inv2 := postedInvoice(t, c, "2026-03-02", LineInput{ItemID: uuid.New(), Quantity: d("1"), UnitPrice: d("50")})
	foreign := postedInvoice(t, other, "2026-03-02", LineInput{ItemID: uuid.New(), Quantity: d("1"), UnitPrice: d("50")})
	invoices := map[uuid.UUID]*SalesInvoice{inv1.ID: inv1, inv2.ID: inv2, foreign.ID: foreign}
	date := shared.MustParseDate("2026-03-10")

	t.Run("allocations must sum to amount", func(t *testing.T) {
		_, err := NewCustomerPayment(tenantID, "PAY-1", c, uuid.New(), date, d("120"), "",
			[]AllocationInput{{InvoiceID: inv1.ID, Amount: d("100")}}, invoices)
		assert.Error(t, err)
		assert.True(t, inv1.AmountPaid.IsZero(), "failed payment leaves invoices untouched")
	})

	t.Run("cannot exceed balance due", func(t *testing.T) {
		_, err := NewCustomerPayment(tenantID, "PAY-1", c, uuid.New(), date, d("60"), "",
			[]AllocationInput{{InvoiceID: inv2.ID, Amount: d("60")}}, invoices)
		assert.Error(t, err)
	})

	t.Run("other customer's invoice", func(t *testing.T) {
		_, err := NewCustomerPayment(tenantID, "PAY-1", c, uuid.New(), date, d("10"), "",
			[]AllocationInput{{InvoiceID: foreign.ID, Amount: d("10")}}, invoices)
		assert.Error(t, err)
	})

	t.Run("applies to invoices", func(t *testing.T) {
		p, err := NewCustomerPayment(tenantID, "PAY-1", c, uuid.New(), date, d("130"), "chq 12",
			[]AllocationInput{{InvoiceID: inv1.ID, Amount: d("100")}, {InvoiceID: inv2.ID, Amount: d("30")}}, invoices)
		require.NoError(t, err)
		assert.Len(t, p.Allocations, 2)
		assert.Equal(t, InvoiceStatusPaid, inv1.Status)
		assert.Equal(t, InvoiceStatusPartiallyPaid, inv2.Status)
		assert.True(t, inv2.BalanceDue().Equal(d("20")))
		assert.Error(t, inv2.CanVoid(), "paid invoices cannot be voided")

		p.Record(uuid.New(), uuid.New())
		require.Len(t, p.GetDomainEvents(), 1)
	})
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, BucketCurrent, BucketFor(-5))
	assert.Equal(t, BucketCurrent, BucketFor(0))
	assert.Equal(t, Bucket1To30, BucketFor(1))
	assert.Equal(t, Bucket1To30, BucketFor(30))
	assert.Equal(t, Bucket31To60, BucketFor(31))
	assert.Equal(t, Bucket61To90, BucketFor(90))
	assert.Equal(t, BucketOver90, BucketFor(91))
}

func TestBuildAgingReport(t *testing.T) {
	tenantID := uuid.New()
	a := newCustomer(t, tenantID, "A", "0")
	b := newCustomer(t, tenantID, "B", "0")
	line := LineInput{ItemID: uuid.New(), Quantity: d("1"), UnitPrice: d("100")}

	current := postedInvoice(t, a, "2026-05-20", line) // due 2026-06-19
	late := postedInvoice(t, a, "2026-03-01", line)    // due 2026-03-31, 61 days
	veryLate := postedInvoice(t, b, "2026-01-01", line)
	require.NoError(t, veryLate.ApplyPayment(d("40")))
	future := postedInvoice(t, b, "2026-07-01", line)
	paid := postedInvoice(t, b, "2026-02-01", line)
	require.NoError(t, paid.ApplyPayment(d("100")))

	report := BuildAgingReport(shared.MustParseDate("2026-05-31"),
		[]SalesInvoice{*current, *late, *veryLate, *future, *paid},
		map[uuid.UUID]*Customer{a.ID: a, b.ID: b})

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "A", report.Rows[0].CustomerCode)
	assert.True(t, report.Rows[0].Current.Equal(d("100")))
	assert.True(t, report.Rows[0].Days90.Equal(d("100")))
	assert.True(t, report.Rows[1].Over90.Equal(d("60")))
	assert.True(t, report.Totals.Total.Equal(d("260")))
}

func TestRestateAsOf(t *testing.T) {
	c := newCustomer(t, uuid.New(), "A", "0")
	line := LineInput{ItemID: uuid.New(), Quantity: d("1"), UnitPrice: d("100")}

	paid := postedInvoice(t, c, "2026-03-01", line)
	require.NoError(t, paid.ApplyPayment(d("100")))
	paid.RestateAsOf(decimal.Zero)
	assert.Equal(t, InvoiceStatusPosted, paid.Status)
	assert.True(t, paid.BalanceDue().Equal(d("100")))

	paid.RestateAsOf(d("30"))
	assert.Equal(t, InvoiceStatusPartiallyPaid, paid.Status)

	voided := postedInvoice(t, c, "2026-03-01", line)
	require.NoError(t, voided.Void("duplicate", uuid.New(), time.Now()))
	voided.RestateAsOf(decimal.Zero)
	assert.True(t, voided.IsOpen())

	report := BuildAgingReport(shared.MustParseDate("2026-04-15"), []SalesInvoice{*paid, *voided},
		map[uuid.UUID]*Customer{c.ID: c})
	require.Len(t, report.Rows, 1)
	assert.True(t, report.Rows[0].Days30.Equal(d("170")))
}
