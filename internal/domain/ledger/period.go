package ledger

import (
	"fmt"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PeriodStatus is open or closed.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "open"
	PeriodStatusClosed PeriodStatus = "closed"
)

// FiscalPeriod is one month of a fiscal year.
type FiscalPeriod struct {
	shared.TenantAggregateRoot
	FiscalYear int
	PeriodNo   int
	StartDate  time.Time
	EndDate    time.Time
	Status     PeriodStatus
	ClosedAt   *time.Time
	ClosedBy   *uuid.UUID
}

// NewFiscalYear builds the 12 monthly periods of a fiscal year starting in
// startMonth of the calendar year fiscalYear.
func NewFiscalYear(tenantID uuid.UUID, fiscalYear, startMonth int) ([]*FiscalPeriod, error) {
	if fiscalYear < 1900 || fiscalYear > 2999 {
		return nil, shared.NewDomainError("INVALID_FISCAL_YEAR", "Fiscal year must be between 1900 and 2999")
	}
	if startMonth < 1 || startMonth > 12 {
		return nil, shared.NewDomainError("INVALID_FISCAL_START", "Fiscal year start month must be between 1 and 12")
	}
	periods := make([]*FiscalPeriod, 0, 12)
	start := time.Date(fiscalYear, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		ps := start.AddDate(0, i, 0)
		pe := ps.AddDate(0, 1, -1)
		periods = append(periods, &FiscalPeriod{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
			FiscalYear:          fiscalYear,
			PeriodNo:            i + 1,
			StartDate:           ps,
			EndDate:             pe,
			Status:              PeriodStatusOpen,
		})
	}
	return periods, nil
}

// Name returns a label like FY2026-P03.
func (p *FiscalPeriod) Name() string {
	return fmt.Sprintf("FY%d-P%02d", p.FiscalYear, p.PeriodNo)
}

// Contains reports whether date falls inside the period.
func (p *FiscalPeriod) Contains(date time.Time) bool {
	d := shared.DateOnly(date)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// IsOpen returns true when postings are allowed.
func (p *FiscalPeriod) IsOpen() bool {
	return p.Status == PeriodStatusOpen
}

// Close blocks further postings.
func (p *FiscalPeriod) Close(userID uuid.UUID, at time.Time) error {
	if p.Status == PeriodStatusClosed {
		return shared.NewDomainError("ALREADY_CLOSED", "Fiscal period is already closed")
	}
	p.Status = PeriodStatusClosed
	p.ClosedAt = &at
	if userID != uuid.Nil {
		p.ClosedBy = &userID
	}
	p.IncrementVersion()
	p.AddDomainEvent(NewPeriodEvent(EventTypePeriodClosed, p, userID))
	return nil
}

// Reopen allows postings again.
func (p *FiscalPeriod) Reopen(userID uuid.UUID) error {
	if p.Status == PeriodStatusOpen {
		return shared.NewDomainError("ALREADY_OPEN", "Fiscal period is already open")
	}
	p.Status = PeriodStatusOpen
	p.ClosedAt = nil
	p.ClosedBy = nil
	p.IncrementVersion()
	p.AddDomainEvent(NewPeriodEvent(EventTypePeriodReopened, p, userID))
	return nil
}

// CheckPostable returns nil when a voucher dated date may be posted into p.
// A nil period means no period covers the date.
func CheckPostable(p *FiscalPeriod, date time.Time) error {
	if p == nil || !p.Contains(date) {
		return shared.NewDomainErrorf(CodePeriodNotFound, "No fiscal period covers %s", shared.DateOnly(date).Format("2006-01-02"))
	}
	if !p.IsOpen() {
		return shared.NewDomainErrorf(CodePeriodClosed, "Fiscal period %s is closed", p.Name())
	}
	return nil
}
