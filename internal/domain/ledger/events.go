package ledger

import (
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeVoucher = "JournalVoucher"
	AggregateTypePeriod  = "FiscalPeriod"

	EventTypeVoucherPosted   = "VoucherPosted"
	EventTypeVoucherReversed = "VoucherReversed"
	EventTypePeriodClosed    = "FiscalPeriodClosed"
	EventTypePeriodReopened  = "FiscalPeriodReopened"
)

// VoucherPostedEvent is raised when a voucher hits the ledger.
type VoucherPostedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	Type       VoucherType     `json:"voucher_type"`
	Date       time.Time       `json:"date"`
	SourceType SourceType      `json:"source_type"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewVoucherPostedEvent creates the event from a posted voucher.
func NewVoucherPostedEvent(v *JournalVoucher, actor uuid.UUID) *VoucherPostedEvent {
	debit, _ := v.Totals()
	e := &VoucherPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherPosted, AggregateTypeVoucher, v.ID, v.TenantID),
		Number:          v.Number,
		Type:            v.Type,
		Date:            v.Date,
		SourceType:      v.SourceType,
		Amount:          debit,
	}
	e.Actor = actor
	return e
}

// VoucherReversedEvent is raised on the original voucher.
type VoucherReversedEvent struct {
	shared.BaseDomainEvent
	Number         string    `json:"number"`
	ReversalID     uuid.UUID `json:"reversal_id"`
	ReversalNumber string    `json:"reversal_number"`
}

// NewVoucherReversedEvent creates the event.
func NewVoucherReversedEvent(original, reversal *JournalVoucher, actor uuid.UUID) *VoucherReversedEvent {
	e := &VoucherReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherReversed, AggregateTypeVoucher, original.ID, original.TenantID),
		Number:          original.Number,
		ReversalID:      reversal.ID,
		ReversalNumber:  reversal.Number,
	}
	e.Actor = actor
	return e
}

// PeriodEvent is raised when a period is closed or reopened.
type PeriodEvent struct {
	shared.BaseDomainEvent
	Period string `json:"period"`
}

// NewPeriodEvent creates the event.
func NewPeriodEvent(eventType string, p *FiscalPeriod, actor uuid.UUID) *PeriodEvent {
	e := &PeriodEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypePeriod, p.ID, p.TenantID),
		Period:          p.Name(),
	}
	e.Actor = actor
	return e
}
