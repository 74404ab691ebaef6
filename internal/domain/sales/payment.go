package sales

import (
	"strings"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAllocation assigns part of a payment to an invoice.
type PaymentAllocation struct {
	ID        uuid.UUID
	PaymentID uuid.UUID
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
}

// CustomerPayment is money received from a customer into a bank account.
type CustomerPayment struct {
	shared.TenantAggregateRoot
	Number        string
	CustomerID    uuid.UUID
	BankAccountID uuid.UUID
	PaymentDate   time.Time
	Amount        decimal.Decimal
	Reference     string
	Notes         string
	Allocations   []PaymentAllocation
	VoucherID     *uuid.UUID
}

// AllocationInput is the caller-side shape of an allocation.
type AllocationInput struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
}

// NewCustomerPayment validates the allocations against the invoices and
// applies them. invoices must contain every allocated invoice.
func NewCustomerPayment(tenantID uuid.UUID, number string, customer *Customer, bankAccountID uuid.UUID, date time.Time, amount decimal.Decimal, reference string, allocations []AllocationInput, invoices map[uuid.UUID]*SalesInvoice) (*CustomerPayment, error) {
	if customer == nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer is required")
	}
	amount = shared.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if len(allocations) == 0 {
		return nil, shared.NewDomainError(CodeInvalidAllocation, "Payment must be allocated to at least one invoice")
	}
	p := &CustomerPayment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		CustomerID:          customer.ID,
		BankAccountID:       bankAccountID,
		PaymentDate:         shared.DateOnly(date),
		Amount:              amount,
		Reference:           strings.TrimSpace(reference),
	}

	allocated := decimal.Zero
	seen := make(map[uuid.UUID]struct{}, len(allocations))
	for _, a := range allocations {
		inv, ok := invoices[a.InvoiceID]
		if !ok {
			return nil, shared.NewDomainError(CodeInvalidAllocation, "Allocated invoice not found")
		}
		if inv.CustomerID != customer.ID {
			return nil, shared.NewDomainErrorf(CodeInvalidAllocation, "Invoice %s belongs to another customer", inv.Number)
		}
		if _, dup := seen[a.InvoiceID]; dup {
			return nil, shared.NewDomainErrorf(CodeInvalidAllocation, "Invoice %s is allocated more than once", inv.Number)
		}
		seen[a.InvoiceID] = struct{}{}
		amt := shared.RoundMoney(a.Amount)
		if err := inv.CanApplyPayment(amt); err != nil {
			return nil, err
		}
		allocated = allocated.Add(amt)
		p.Allocations = append(p.Allocations, PaymentAllocation{
			ID:        uuid.New(),
			PaymentID: p.ID,
			InvoiceID: a.InvoiceID,
			Amount:    amt,
		})
	}
	if !allocated.Equal(amount) {
		return nil, shared.NewDomainErrorf(CodeInvalidAllocation, "Allocations total %s but payment is %s",
			allocated.StringFixed(2), amount.StringFixed(2))
	}
	for _, a := range p.Allocations {
		if err := invoices[a.InvoiceID].ApplyPayment(a.Amount); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Record attaches the voucher and raises the event.
func (p *CustomerPayment) Record(voucherID, userID uuid.UUID) {
	p.VoucherID = &voucherID
	p.SetCreatedBy(userID)
	p.IncrementVersion()

	ev := NewPaymentRecordedEvent(p)
	ev.Actor = userID
	p.AddDomainEvent(ev)
}
