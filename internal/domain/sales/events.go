package sales

import (
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeInvoice = "SalesInvoice"
	AggregateTypePayment = "CustomerPayment"

	EventTypeInvoicePosted   = "SalesInvoicePosted"
	EventTypeInvoiceVoided   = "SalesInvoiceVoided"
	EventTypePaymentRecorded = "CustomerPaymentRecorded"
)

// InvoiceEvent carries invoice status changes.
type InvoiceEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	Status     InvoiceStatus   `json:"status"`
}

// NewInvoiceEvent creates the event.
func NewInvoiceEvent(eventType string, inv *SalesInvoice) *InvoiceEvent {
	return &InvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInvoice, inv.ID, inv.TenantID),
		Number:          inv.Number,
		CustomerID:      inv.CustomerID,
		Total:           inv.Total,
		Status:          inv.Status,
	}
}

// PaymentRecordedEvent is raised when a payment is recorded.
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	InvoiceIDs []uuid.UUID     `json:"invoice_ids"`
}

// NewPaymentRecordedEvent creates the event.
func NewPaymentRecordedEvent(p *CustomerPayment) *PaymentRecordedEvent {
	ids := make([]uuid.UUID, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		ids = append(ids, a.InvoiceID)
	}
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.TenantID),
		Number:          p.Number,
		CustomerID:      p.CustomerID,
		Amount:          p.Amount,
		InvoiceIDs:      ids,
	}
}
