package sales

import (
	"time"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerRequest creates or updates a customer. Code is ignored on update.
type CustomerRequest struct {
	Code             string          `json:"code" binding:"omitempty,min=1,max=50"`
	Name             string          `json:"name" binding:"required,min=1,max=200"`
	Email            string          `json:"email" binding:"omitempty,email"`
	Phone            string          `json:"phone" binding:"max=50"`
	BillingAddress   string          `json:"billing_address" binding:"max=500"`
	PaymentTermsDays *int            `json:"payment_terms_days" binding:"omitempty,min=0,max=365"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	IsActive         *bool           `json:"is_active"`
}

func (r CustomerRequest) details() sales.CustomerDetails {
	return sales.CustomerDetails{
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		BillingAddress:   r.BillingAddress,
		PaymentTermsDays: r.PaymentTermsDays,
		CreditLimit:      r.CreditLimit,
	}
}

// CustomerListFilter holds the query parameters of the customer list
type CustomerListFilter struct {
	appshared.PageQuery
	IsActive *bool `form:"is_active"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID               uuid.UUID        `json:"id"`
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	Email            string           `json:"email,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	BillingAddress   string           `json:"billing_address,omitempty"`
	PaymentTermsDays int              `json:"payment_terms_days"`
	CreditLimit      decimal.Decimal  `json:"credit_limit"`
	IsActive         bool             `json:"is_active"`
	Outstanding      *decimal.Decimal `json:"outstanding,omitempty"`
	Version          int              `json:"version"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *sales.Customer) CustomerResponse {
	return CustomerResponse{
		ID:               c.ID,
		Code:             c.Code,
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		BillingAddress:   c.BillingAddress,
		PaymentTermsDays: c.PaymentTermsDays,
		CreditLimit:      c.CreditLimit,
		IsActive:         c.IsActive,
		Version:          c.Version,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// InvoiceLineRequest is one line of an invoice request
type InvoiceLineRequest struct {
	ItemID          uuid.UUID       `json:"item_id" binding:"required"`
	Description     string          `json:"description" binding:"max=500"`
	Quantity        decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
}

// InvoiceRequest creates or replaces a draft invoice. Without a due date
// the customer's payment terms apply; without a warehouse the default one
// is used.
type InvoiceRequest struct {
	CustomerID  uuid.UUID            `json:"customer_id" binding:"required"`
	WarehouseID *uuid.UUID           `json:"warehouse_id"`
	InvoiceDate string               `json:"invoice_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate     string               `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Notes       string               `json:"notes" binding:"max=2000"`
	Lines       []InvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (r InvoiceRequest) lineInputs() []sales.LineInput {
	lines := make([]sales.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = sales.LineInput{
			ItemID:          l.ItemID,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			TaxRate:         l.TaxRate,
		}
	}
	return lines
}

// VoidInvoiceRequest carries the void reason and the date of the reversal
type VoidInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
	Date   string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// InvoiceListFilter holds the query parameters of the invoice list
type InvoiceListFilter struct {
	appshared.PageQuery
	Status     string     `form:"status" binding:"omitempty,oneof=draft posted partially_paid paid void"`
	CustomerID *uuid.UUID `form:"customer_id"`
	From       string     `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string     `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Overdue    bool       `form:"overdue"`
}

// InvoiceLineResponse is one invoice line in API responses
type InvoiceLineResponse struct {
	ID              uuid.UUID       `json:"id"`
	LineNo          int             `json:"line_no"`
	ItemID          uuid.UUID       `json:"item_id"`
	Description     string          `json:"description,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	CostAmount      decimal.Decimal `json:"cost_amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID          uuid.UUID             `json:"id"`
	Number      string                `json:"number,omitempty"`
	CustomerID  uuid.UUID             `json:"customer_id"`
	WarehouseID uuid.UUID             `json:"warehouse_id"`
	InvoiceDate string                `json:"invoice_date"`
	DueDate     string                `json:"due_date"`
	Lines       []InvoiceLineResponse `json:"lines"`
	Subtotal    decimal.Decimal       `json:"subtotal"`
	TaxTotal    decimal.Decimal       `json:"tax_total"`
	Total       decimal.Decimal       `json:"total"`
	AmountPaid  decimal.Decimal       `json:"amount_paid"`
	BalanceDue  decimal.Decimal       `json:"balance_due"`
	Status      string                `json:"status"`
	VoucherID   *uuid.UUID            `json:"voucher_id,omitempty"`
	Notes       string                `json:"notes,omitempty"`
	PostedAt    *time.Time            `json:"posted_at,omitempty"`
	VoidedAt    *time.Time            `json:"voided_at,omitempty"`
	VoidReason  string                `json:"void_reason,omitempty"`
	Version     int                   `json:"version"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ToInvoiceResponse converts a domain SalesInvoice to InvoiceResponse
func ToInvoiceResponse(inv *sales.SalesInvoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineResponse{
			ID:              l.ID,
			LineNo:          l.LineNo,
			ItemID:          l.ItemID,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			TaxRate:         l.TaxRate,
			NetAmount:       l.NetAmount,
			TaxAmount:       l.TaxAmount,
			CostAmount:      l.CostAmount,
		}
	}
	return InvoiceResponse{
		ID:          inv.ID,
		Number:      inv.Number,
		CustomerID:  inv.CustomerID,
		WarehouseID: inv.WarehouseID,
		InvoiceDate: appshared.FormatDate(inv.InvoiceDate),
		DueDate:     appshared.FormatDate(inv.DueDate),
		Lines:       lines,
		Subtotal:    inv.Subtotal,
		TaxTotal:    inv.TaxTotal,
		Total:       inv.Total,
		AmountPaid:  inv.AmountPaid,
		BalanceDue:  inv.BalanceDue(),
		Status:      string(inv.Status),
		VoucherID:   inv.VoucherID,
		Notes:       inv.Notes,
		PostedAt:    inv.PostedAt,
		VoidedAt:    inv.VoidedAt,
		VoidReason:  inv.VoidReason,
		Version:     inv.Version,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}

// AllocationRequest assigns part of a payment to an invoice
type AllocationRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"decimal_gt0"`
}

// RecordPaymentRequest records money received from a customer
type RecordPaymentRequest struct {
	CustomerID    uuid.UUID           `json:"customer_id" binding:"required"`
	BankAccountID uuid.UUID           `json:"bank_account_id" binding:"required"`
	PaymentDate   string              `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
	Amount        decimal.Decimal     `json:"amount" binding:"decimal_gt0"`
	Reference     string              `json:"reference" binding:"max=100"`
	Notes         string              `json:"notes" binding:"max=2000"`
	Allocations   []AllocationRequest `json:"allocations" binding:"required,min=1,dive"`
}

// PaymentListFilter holds the query parameters of the payment list
type PaymentListFilter struct {
	appshared.PageQuery
	CustomerID *uuid.UUID `form:"customer_id"`
	InvoiceID  *uuid.UUID `form:"invoice_id"`
	From       string     `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string     `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// AllocationResponse is one allocation in API responses
type AllocationResponse struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentResponse represents a customer payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID            `json:"id"`
	Number        string               `json:"number"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	BankAccountID uuid.UUID            `json:"bank_account_id"`
	PaymentDate   string               `json:"payment_date"`
	Amount        decimal.Decimal      `json:"amount"`
	Reference     string               `json:"reference,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	Allocations   []AllocationResponse `json:"allocations"`
	VoucherID     *uuid.UUID           `json:"voucher_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// ToPaymentResponse converts a domain CustomerPayment to PaymentResponse
func ToPaymentResponse(p *sales.CustomerPayment) PaymentResponse {
	allocations := make([]AllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocations[i] = AllocationResponse{InvoiceID: a.InvoiceID, Amount: a.Amount}
	}
	return PaymentResponse{
		ID:            p.ID,
		Number:        p.Number,
		CustomerID:    p.CustomerID,
		BankAccountID: p.BankAccountID,
		PaymentDate:   appshared.FormatDate(p.PaymentDate),
		Amount:        p.Amount,
		Reference:     p.Reference,
		Notes:         p.Notes,
		Allocations:   allocations,
		VoucherID:     p.VoucherID,
		CreatedAt:     p.CreatedAt,
	}
}
