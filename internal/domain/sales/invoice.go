package sales

import (
	"strings"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusPosted        InvoiceStatus = "posted"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusVoid          InvoiceStatus = "void"
)

// IsValid checks if the status is known
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPosted, InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusVoid:
		return true
	}
	return false
}

// OpenStatuses are the statuses that carry a receivable balance.
var OpenStatuses = []InvoiceStatus{InvoiceStatusPosted, InvoiceStatusPartiallyPaid}

// InvoiceLine is one billed item.
type InvoiceLine struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	LineNo          int
	ItemID          uuid.UUID
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxRate         decimal.Decimal
	NetAmount       decimal.Decimal
	TaxAmount       decimal.Decimal
	CostAmount      decimal.Decimal
}

// LineInput is the caller-side shape of an invoice line.
type LineInput struct {
	ItemID          uuid.UUID
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxRate         decimal.Decimal
}

// LineAmounts returns net = round2(qty*price*(1-discount/100)) and
// tax = round2(net*rate/100).
func LineAmounts(quantity, unitPrice, discountPercent, taxRate decimal.Decimal) (net, tax decimal.Decimal) {
	gross := quantity.Mul(unitPrice)
	net = shared.RoundMoney(gross.Mul(decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))))
	tax = shared.RoundMoney(net.Mul(taxRate).Div(hundred))
	return net, tax
}

// Total is net plus tax.
func (l InvoiceLine) Total() decimal.Decimal {
	return l.NetAmount.Add(l.TaxAmount)
}

// SalesInvoice bills a customer and, once posted, creates a receivable.
type SalesInvoice struct {
	shared.TenantAggregateRoot
	Number      string
	CustomerID  uuid.UUID
	WarehouseID uuid.UUID
	InvoiceDate time.Time
	DueDate     time.Time
	Lines       []InvoiceLine
	Subtotal    decimal.Decimal
	TaxTotal    decimal.Decimal
	Total       decimal.Decimal
	AmountPaid  decimal.Decimal
	Status      InvoiceStatus
	VoucherID   *uuid.UUID
	Notes       string
	PostedAt    *time.Time
	PostedBy    *uuid.UUID
	VoidedAt    *time.Time
	VoidReason  string
}

// NewSalesInvoice creates a draft. A zero due date defaults to the invoice
// date plus the customer's terms.
func NewSalesInvoice(tenantID uuid.UUID, customer *Customer, warehouseID uuid.UUID, invoiceDate, dueDate time.Time, notes string, lines []LineInput) (*SalesInvoice, error) {
	if customer == nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer is required")
	}
	if !customer.IsActive {
		return nil, shared.NewDomainError("CUSTOMER_INACTIVE", "Customer is inactive")
	}
	inv := &SalesInvoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customer.ID,
		Status:              InvoiceStatusDraft,
		AmountPaid:          decimal.Zero,
	}
	if err := inv.Update(customer, warehouseID, invoiceDate, dueDate, notes, lines); err != nil {
		return nil, err
	}
	return inv, nil
}

// Update replaces header and lines of a draft.
func (inv *SalesInvoice) Update(customer *Customer, warehouseID uuid.UUID, invoiceDate, dueDate time.Time, notes string, lines []LineInput) error {
	if !inv.IsDraft() {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot modify invoice in %s status", inv.Status)
	}
	if invoiceDate.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Invoice date is required")
	}
	invoiceDate = shared.DateOnly(invoiceDate)
	if dueDate.IsZero() {
		dueDate = invoiceDate.AddDate(0, 0, customer.PaymentTermsDays)
	}
	dueDate = shared.DateOnly(dueDate)
	if dueDate.Before(invoiceDate) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before the invoice date")
	}
	if len(lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Invoice must have at least one line")
	}
	built := make([]InvoiceLine, 0, len(lines))
	for i, in := range lines {
		line, err := buildLine(inv.ID, i+1, in)
		if err != nil {
			return err
		}
		built = append(built, line)
	}
	inv.CustomerID = customer.ID
	inv.WarehouseID = warehouseID
	inv.InvoiceDate = invoiceDate
	inv.DueDate = dueDate
	inv.Notes = strings.TrimSpace(notes)
	inv.Lines = built
	inv.recalculateTotals()
	inv.IncrementVersion()
	return nil
}

func buildLine(invoiceID uuid.UUID, lineNo int, in LineInput) (InvoiceLine, error) {
	if in.ItemID == uuid.Nil {
		return InvoiceLine{}, shared.NewDomainErrorf("INVALID_LINE", "Line %d: item is required", lineNo)
	}
	if !in.Quantity.IsPositive() {
		return InvoiceLine{}, shared.NewDomainErrorf("INVALID_LINE", "Line %d: quantity must be positive", lineNo)
	}
	if in.UnitPrice.IsNegative() {
		return InvoiceLine{}, shared.NewDomainErrorf("INVALID_LINE", "Line %d: unit price cannot be negative", lineNo)
	}
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
		return InvoiceLine{}, shared.NewDomainErrorf("INVALID_LINE", "Line %d: discount must be between 0 and 100", lineNo)
	}
	if in.TaxRate.IsNegative() {
		return InvoiceLine{}, shared.NewDomainErrorf("INVALID_LINE", "Line %d: tax rate cannot be negative", lineNo)
	}
	net, tax := LineAmounts(in.Quantity, in.UnitPrice, in.DiscountPercent, in.TaxRate)
	return InvoiceLine{
		ID:              uuid.New(),
		InvoiceID:       invoiceID,
		LineNo:          lineNo,
		ItemID:          in.ItemID,
		Description:     strings.TrimSpace(in.Description),
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		DiscountPercent: in.DiscountPercent,
		TaxRate:         in.TaxRate,
		NetAmount:       net,
		TaxAmount:       tax,
		CostAmount:      decimal.Zero,
	}, nil
}

func (inv *SalesInvoice) recalculateTotals() {
	subtotal, tax := decimal.Zero, decimal.Zero
	for _, l := range inv.Lines {
		subtotal = subtotal.Add(l.NetAmount)
		tax = tax.Add(l.TaxAmount)
	}
	inv.Subtotal = subtotal
	inv.TaxTotal = tax
	inv.Total = subtotal.Add(tax)
}

// ItemIDs returns the distinct items on the invoice.
func (inv *SalesInvoice) ItemIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(inv.Lines))
	ids := make([]uuid.UUID, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		if _, ok := seen[l.ItemID]; ok {
			continue
		}
		seen[l.ItemID] = struct{}{}
		ids = append(ids, l.ItemID)
	}
	return ids
}

// IsDraft returns true while the invoice can be edited.
func (inv *SalesInvoice) IsDraft() bool {
	return inv.Status == InvoiceStatusDraft
}

// IsOpen returns true when the invoice can take payments.
func (inv *SalesInvoice) IsOpen() bool {
	return inv.Status == InvoiceStatusPosted || inv.Status == InvoiceStatusPartiallyPaid
}

// BalanceDue is total minus paid.
func (inv *SalesInvoice) BalanceDue() decimal.Decimal {
	return inv.Total.Sub(inv.AmountPaid)
}

// RestateAsOf replaces the amount paid with what had been allocated by some
// earlier date and derives the status that went with it. A void invoice
// passed in here had not been voided yet, so it counts as posted.
func (inv *SalesInvoice) RestateAsOf(paid decimal.Decimal) {
	inv.AmountPaid = paid
	switch {
	case !paid.IsPositive():
		inv.Status = InvoiceStatusPosted
	case paid.GreaterThanOrEqual(inv.Total):
		inv.Status = InvoiceStatusPaid
	default:
		inv.Status = InvoiceStatusPartiallyPaid
	}
}

// IsOverdue reports whether an open invoice is past due on asOf.
func (inv *SalesInvoice) IsOverdue(asOf time.Time) bool {
	return inv.IsOpen() && shared.DateOnly(asOf).After(inv.DueDate)
}

// SetLineCost stores the cost of goods issued for a line.
func (inv *SalesInvoice) SetLineCost(lineID uuid.UUID, cost decimal.Decimal) {
	for i := range inv.Lines {
		if inv.Lines[i].ID == lineID {
			inv.Lines[i].CostAmount = cost
			return
		}
	}
}

// TotalCost sums the line costs.
func (inv *SalesInvoice) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, l := range inv.Lines {
		total = total.Add(l.CostAmount)
	}
	return total
}

// Post marks the invoice posted with its number and voucher.
func (inv *SalesInvoice) Post(number string, voucherID, userID uuid.UUID, at time.Time) error {
	if !inv.IsDraft() {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot post invoice in %s status", inv.Status)
	}
	if !inv.Total.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Invoice total must be positive")
	}
	inv.Number = number
	inv.Status = InvoiceStatusPosted
	inv.VoucherID = &voucherID
	inv.PostedAt = &at
	inv.PostedBy = &userID
	inv.IncrementVersion()

	ev := NewInvoiceEvent(EventTypeInvoicePosted, inv)
	ev.Actor = userID
	inv.AddDomainEvent(ev)
	return nil
}

// CanVoid checks that the invoice is posted and unpaid.
func (inv *SalesInvoice) CanVoid() error {
	if inv.Status != InvoiceStatusPosted {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot void invoice in %s status", inv.Status)
	}
	if inv.AmountPaid.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "Cannot void an invoice with payments")
	}
	return nil
}

// Void marks the invoice void.
func (inv *SalesInvoice) Void(reason string, userID uuid.UUID, at time.Time) error {
	if err := inv.CanVoid(); err != nil {
		return err
	}
	inv.Status = InvoiceStatusVoid
	inv.VoidedAt = &at
	inv.VoidReason = strings.TrimSpace(reason)
	inv.IncrementVersion()

	ev := NewInvoiceEvent(EventTypeInvoiceVoided, inv)
	ev.Actor = userID
	inv.AddDomainEvent(ev)
	return nil
}

// CanApplyPayment checks an allocation without changing the invoice.
func (inv *SalesInvoice) CanApplyPayment(amount decimal.Decimal) error {
	if !inv.IsOpen() {
		return shared.NewDomainErrorf(CodeInvalidAllocation, "Invoice %s is not open for payment", inv.Number)
	}
	if !amount.IsPositive() {
		return shared.NewDomainError(CodeInvalidAllocation, "Allocation must be positive")
	}
	if amount.GreaterThan(inv.BalanceDue()) {
		return shared.NewDomainErrorf(CodeInvalidAllocation, "Allocation %s exceeds balance due %s on %s",
			amount.StringFixed(2), inv.BalanceDue().StringFixed(2), inv.Number)
	}
	return nil
}

// ApplyPayment adds an allocated amount and moves the status.
func (inv *SalesInvoice) ApplyPayment(amount decimal.Decimal) error {
	if err := inv.CanApplyPayment(amount); err != nil {
		return err
	}
	inv.AmountPaid = inv.AmountPaid.Add(amount)
	if inv.BalanceDue().IsZero() {
		inv.Status = InvoiceStatusPaid
	} else {
		inv.Status = InvoiceStatusPartiallyPaid
	}
	inv.IncrementVersion()
	return nil
}
