package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clearbook/backend/internal/domain/sales"
)

type CustomerModel struct {
	TenantAggregateModel
	Code             string          `gorm:"type:varchar(50);not null"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Email            string          `gorm:"type:varchar(200)"`
	Phone            string          `gorm:"type:varchar(50)"`
	BillingAddress   string          `gorm:"type:varchar(500)"`
	PaymentTermsDays int             `gorm:"not null;default:30"`
	CreditLimit      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsActive         bool            `gorm:"not null;default:true"`
}

func (CustomerModel) TableName() string { return "customers" }

func (m *CustomerModel) ToDomain() *sales.Customer {
	return &sales.Customer{
		TenantAggregateRoot: m.toTenantAggregate(),
		Code:                m.Code,
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		BillingAddress:      m.BillingAddress,
		PaymentTermsDays:    m.PaymentTermsDays,
		CreditLimit:         m.CreditLimit,
		IsActive:            m.IsActive,
	}
}

func CustomerModelFromDomain(c *sales.Customer) *CustomerModel {
	m := &CustomerModel{
		Code:             c.Code,
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		BillingAddress:   c.BillingAddress,
		PaymentTermsDays: c.PaymentTermsDays,
		CreditLimit:      c.CreditLimit,
		IsActive:         c.IsActive,
	}
	m.fromTenantAggregate(c.TenantAggregateRoot)
	return m
}

type SalesInvoiceModel struct {
	TenantAggregateModel
	Number      *string            `gorm:"type:varchar(30)"`
	CustomerID  uuid.UUID          `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID          `gorm:"type:uuid;not null"`
	InvoiceDate time.Time          `gorm:"type:date;not null;index"`
	DueDate     time.Time          `gorm:"type:date;not null"`
	Subtotal    decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	TaxTotal    decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Total       decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	AmountPaid  decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Status      string             `gorm:"type:varchar(20);not null;index"`
	VoucherID   *uuid.UUID         `gorm:"type:uuid"`
	Notes       string             `gorm:"type:text"`
	PostedAt    *time.Time
	PostedBy    *uuid.UUID         `gorm:"type:uuid"`
	VoidedAt    *time.Time
	VoidReason  string             `gorm:"type:varchar(500)"`
	Lines       []InvoiceLineModel `gorm:"foreignKey:InvoiceID"`
}

func (SalesInvoiceModel) TableName() string { return "sales_invoices" }

type InvoiceLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo          int             `gorm:"not null"`
	ItemID          uuid.UUID       `gorm:"type:uuid;not null"`
	Description     string          `gorm:"type:varchar(500)"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CostAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

func (InvoiceLineModel) TableName() string { return "invoice_lines" }

func (m *SalesInvoiceModel) ToDomain() *sales.SalesInvoice {
	inv := &sales.SalesInvoice{
		TenantAggregateRoot: m.toTenantAggregate(),
		CustomerID:          m.CustomerID,
		WarehouseID:         m.WarehouseID,
		InvoiceDate:         UTCDate(m.InvoiceDate),
		DueDate:             UTCDate(m.DueDate),
		Subtotal:            m.Subtotal,
		TaxTotal:            m.TaxTotal,
		Total:               m.Total,
		AmountPaid:          m.AmountPaid,
		Status:              sales.InvoiceStatus(m.Status),
		VoucherID:           m.VoucherID,
		Notes:               m.Notes,
		PostedAt:            m.PostedAt,
		PostedBy:            m.PostedBy,
		VoidedAt:            m.VoidedAt,
		VoidReason:          m.VoidReason,
		Lines:               make([]sales.InvoiceLine, 0, len(m.Lines)),
	}
	if m.Number != nil {
		inv.Number = *m.Number
	}
	for _, l := range m.Lines {
		inv.Lines = append(inv.Lines, sales.InvoiceLine{
			ID:              l.ID,
			InvoiceID:       l.InvoiceID,
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
		})
	}
	return inv
}

func SalesInvoiceModelFromDomain(inv *sales.SalesInvoice) *SalesInvoiceModel {
	m := &SalesInvoiceModel{
		CustomerID:  inv.CustomerID,
		WarehouseID: inv.WarehouseID,
		InvoiceDate: inv.InvoiceDate,
		DueDate:     inv.DueDate,
		Subtotal:    inv.Subtotal,
		TaxTotal:    inv.TaxTotal,
		Total:       inv.Total,
		AmountPaid:  inv.AmountPaid,
		Status:      string(inv.Status),
		VoucherID:   inv.VoucherID,
		Notes:       inv.Notes,
		PostedAt:    inv.PostedAt,
		PostedBy:    inv.PostedBy,
		VoidedAt:    inv.VoidedAt,
		VoidReason:  inv.VoidReason,
	}
	if inv.Number != "" {
		n := inv.Number
		m.Number = &n
	}
	m.fromTenantAggregate(inv.TenantAggregateRoot)
	for _, l := range inv.Lines {
		m.Lines = append(m.Lines, InvoiceLineModel{
			ID:              l.ID,
			InvoiceID:       inv.ID,
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
		})
	}
	return m
}

type CustomerPaymentModel struct {
	TenantAggregateModel
	Number        string                   `gorm:"type:varchar(30);not null"`
	CustomerID    uuid.UUID                `gorm:"type:uuid;not null;index"`
	BankAccountID uuid.UUID                `gorm:"type:uuid;not null"`
	PaymentDate   time.Time                `gorm:"type:date;not null;index"`
	Amount        decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Reference     string                   `gorm:"type:varchar(100)"`
	Notes         string                   `gorm:"type:text"`
	VoucherID     *uuid.UUID               `gorm:"type:uuid"`
	Allocations   []PaymentAllocationModel `gorm:"foreignKey:PaymentID"`
}

func (CustomerPaymentModel) TableName() string { return "customer_payments" }

type PaymentAllocationModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

func (PaymentAllocationModel) TableName() string { return "payment_allocations" }

func (m *CustomerPaymentModel) ToDomain() *sales.CustomerPayment {
	p := &sales.CustomerPayment{
		TenantAggregateRoot: m.toTenantAggregate(),
		Number:              m.Number,
		CustomerID:          m.CustomerID,
		BankAccountID:       m.BankAccountID,
		PaymentDate:         UTCDate(m.PaymentDate),
		Amount:              m.Amount,
		Reference:           m.Reference,
		Notes:               m.Notes,
		VoucherID:           m.VoucherID,
		Allocations:         make([]sales.PaymentAllocation, 0, len(m.Allocations)),
	}
	for _, a := range m.Allocations {
		p.Allocations = append(p.Allocations, sales.PaymentAllocation{
			ID:        a.ID,
			PaymentID: a.PaymentID,
			InvoiceID: a.InvoiceID,
			Amount:    a.Amount,
		})
	}
	return p
}

func CustomerPaymentModelFromDomain(p *sales.CustomerPayment) *CustomerPaymentModel {
	m := &CustomerPaymentModel{
		Number:        p.Number,
		CustomerID:    p.CustomerID,
		BankAccountID: p.BankAccountID,
		PaymentDate:   p.PaymentDate,
		Amount:        p.Amount,
		Reference:     p.Reference,
		Notes:         p.Notes,
		VoucherID:     p.VoucherID,
	}
	m.fromTenantAggregate(p.TenantAggregateRoot)
	for _, a := range p.Allocations {
		m.Allocations = append(m.Allocations, PaymentAllocationModel{
			ID:        a.ID,
			PaymentID: p.ID,
			InvoiceID: a.InvoiceID,
			Amount:    a.Amount,
		})
	}
	return m
}
