package identity

import (
	"regexp"
	"strings"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

var (
	tenantCodePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,48}[a-z0-9]$`)
	currencyPattern   = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Tenant is a company keeping its own books.
type Tenant struct {
	shared.BaseAggregateRoot
	Code                 string
	Name                 string
	BaseCurrency         string
	FiscalYearStartMonth int
	Status               TenantStatus
}

// NewTenant creates an active tenant.
func NewTenant(code, name, currency string, fiscalStartMonth int) (*Tenant, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if !tenantCodePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_TENANT_CODE", "Tenant code must be 3-50 lowercase letters, digits or hyphens")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name must be 1-200 characters")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	if !currencyPattern.MatchString(currency) {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO 4217 code")
	}
	if fiscalStartMonth == 0 {
		fiscalStartMonth = 1
	}
	if fiscalStartMonth < 1 || fiscalStartMonth > 12 {
		return nil, shared.NewDomainError("INVALID_FISCAL_START", "Fiscal year start month must be between 1 and 12")
	}

	t := &Tenant{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		Code:                 code,
		Name:                 name,
		BaseCurrency:         currency,
		FiscalYearStartMonth: fiscalStartMonth,
		Status:               TenantStatusActive,
	}
	t.AddDomainEvent(newTenantEvent(EventTypeTenantRegistered, t))
	return t, nil
}

// Rename changes the display name.
func (t *Tenant) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name must be 1-200 characters")
	}
	t.Name = name
	t.IncrementVersion()
	return nil
}

// Suspend blocks logins for the tenant.
func (t *Tenant) Suspend() error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Tenant is already suspended")
	}
	t.Status = TenantStatusSuspended
	t.IncrementVersion()
	return nil
}

// Activate re-enables a suspended tenant.
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tenant is already active")
	}
	t.Status = TenantStatusActive
	t.IncrementVersion()
	return nil
}

// IsActive returns true if users of the tenant may log in.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// FiscalYearOf returns the fiscal year label for a calendar month. A
// fiscal year is labelled by the calendar year in which it starts.
func (t *Tenant) FiscalYearOf(year, month int) int {
	if month < t.FiscalYearStartMonth {
		return year - 1
	}
	return year
}

// GetTenantID returns the tenant's own ID.
func (t *Tenant) GetTenantID() uuid.UUID {
	return t.ID
}
