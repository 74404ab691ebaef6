package sales

import (
	"net/mail"
	"strings"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPaymentTermsDays is used when a customer has no explicit terms.
const DefaultPaymentTermsDays = 30

// Customer is someone the tenant invoices.
type Customer struct {
	shared.TenantAggregateRoot
	Code             string
	Name             string
	Email            string
	Phone            string
	BillingAddress   string
	PaymentTermsDays int
	CreditLimit      decimal.Decimal // zero means unlimited
	IsActive         bool
}

// CustomerDetails holds the editable fields.
type CustomerDetails struct {
	Name             string
	Email            string
	Phone            string
	BillingAddress   string
	PaymentTermsDays *int
	CreditLimit      decimal.Decimal
}

// NewCustomer creates an active customer.
func NewCustomer(tenantID uuid.UUID, code string, details CustomerDetails) (*Customer, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_CODE", "Customer code must be 1-50 characters")
	}
	c := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		PaymentTermsDays:    DefaultPaymentTermsDays,
		IsActive:            true,
	}
	if err := c.Update(details); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the editable fields.
func (c *Customer) Update(details CustomerDetails) error {
	name := strings.TrimSpace(details.Name)
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name must be 1-200 characters")
	}
	email := strings.TrimSpace(details.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
		}
	}
	if details.CreditLimit.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	if details.PaymentTermsDays != nil {
		if *details.PaymentTermsDays < 0 || *details.PaymentTermsDays > 365 {
			return shared.NewDomainError("INVALID_PAYMENT_TERMS", "Payment terms must be between 0 and 365 days")
		}
		c.PaymentTermsDays = *details.PaymentTermsDays
	}
	c.Name = name
	c.Email = strings.ToLower(email)
	c.Phone = strings.TrimSpace(details.Phone)
	c.BillingAddress = strings.TrimSpace(details.BillingAddress)
	c.CreditLimit = shared.RoundMoney(details.CreditLimit)
	c.IncrementVersion()
	return nil
}

// SetActive toggles whether new invoices can be raised.
func (c *Customer) SetActive(active bool) {
	if c.IsActive == active {
		return
	}
	c.IsActive = active
	c.IncrementVersion()
}

// CheckCredit fails when outstanding plus amount would pass the limit.
func (c *Customer) CheckCredit(outstanding, amount decimal.Decimal) error {
	if !c.CreditLimit.IsPositive() {
		return nil
	}
	exposure := outstanding.Add(amount)
	if exposure.GreaterThan(c.CreditLimit) {
		return shared.NewDomainErrorf(CodeCreditLimitExceeded,
			"Credit limit %s exceeded: outstanding %s plus invoice %s",
			c.CreditLimit.StringFixed(2), outstanding.StringFixed(2), amount.StringFixed(2))
	}
	return nil
}
