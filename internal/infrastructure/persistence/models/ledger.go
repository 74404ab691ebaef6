package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clearbook/backend/internal/domain/ledger"
)

type AccountModel struct {
	TenantAggregateModel
	Code        string     `gorm:"type:varchar(20);not null"`
	Name        string     `gorm:"type:varchar(200);not null"`
	Type        string     `gorm:"type:varchar(20);not null"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	IsGroup     bool       `gorm:"not null;default:false"`
	IsActive    bool       `gorm:"not null;default:true"`
	Description string     `gorm:"type:varchar(500)"`
}

func (AccountModel) TableName() string { return "accounts" }

func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		TenantAggregateRoot: m.toTenantAggregate(),
		Code:                m.Code,
		Name:                m.Name,
		Type:                ledger.AccountType(m.Type),
		ParentID:            m.ParentID,
		IsGroup:             m.IsGroup,
		IsActive:            m.IsActive,
		Description:         m.Description,
	}
}

func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{
		Code:        a.Code,
		Name:        a.Name,
		Type:        string(a.Type),
		ParentID:    a.ParentID,
		IsGroup:     a.IsGroup,
		IsActive:    a.IsActive,
		Description: a.Description,
	}
	m.fromTenantAggregate(a.TenantAggregateRoot)
	return m
}

type FiscalPeriodModel struct {
	TenantAggregateModel
	FiscalYear int        `gorm:"not null"`
	PeriodNo   int        `gorm:"not null"`
	StartDate  time.Time  `gorm:"type:date;not null;index"`
	EndDate    time.Time  `gorm:"type:date;not null"`
	Status     string     `gorm:"type:varchar(10);not null"`
	ClosedAt   *time.Time
	ClosedBy   *uuid.UUID `gorm:"type:uuid"`
}

func (FiscalPeriodModel) TableName() string { return "fiscal_periods" }

func (m *FiscalPeriodModel) ToDomain() *ledger.FiscalPeriod {
	return &ledger.FiscalPeriod{
		TenantAggregateRoot: m.toTenantAggregate(),
		FiscalYear:          m.FiscalYear,
		PeriodNo:            m.PeriodNo,
		StartDate:           UTCDate(m.StartDate),
		EndDate:             UTCDate(m.EndDate),
		Status:              ledger.PeriodStatus(m.Status),
		ClosedAt:            m.ClosedAt,
		ClosedBy:            m.ClosedBy,
	}
}

func FiscalPeriodModelFromDomain(p *ledger.FiscalPeriod) *FiscalPeriodModel {
	m := &FiscalPeriodModel{
		FiscalYear: p.FiscalYear,
		PeriodNo:   p.PeriodNo,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		Status:     string(p.Status),
		ClosedAt:   p.ClosedAt,
		ClosedBy:   p.ClosedBy,
	}
	m.fromTenantAggregate(p.TenantAggregateRoot)
	return m
}

// DocumentSequenceModel is one gapless counter.
type DocumentSequenceModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Prefix    string    `gorm:"type:varchar(10);primaryKey"`
	Year      int       `gorm:"primaryKey"`
	LastValue int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (DocumentSequenceModel) TableName() string { return "document_sequences" }

// AccountingSettingModel stores one default account per row.
type AccountingSettingModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key       string    `gorm:"column:setting_key;type:varchar(50);primaryKey"`
	AccountID uuid.UUID `gorm:"type:uuid;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (AccountingSettingModel) TableName() string { return "accounting_settings" }

type JournalVoucherModel struct {
	TenantAggregateModel
	Number       *string            `gorm:"type:varchar(30)"`
	Type         string             `gorm:"type:varchar(20);not null"`
	Date         time.Time          `gorm:"type:date;not null;index"`
	Reference    string             `gorm:"type:varchar(100)"`
	Description  string             `gorm:"type:varchar(500)"`
	SourceType   string             `gorm:"type:varchar(30);not null"`
	SourceID     *uuid.UUID         `gorm:"type:uuid;index"`
	Status       string             `gorm:"type:varchar(10);not null;index"`
	PostedAt     *time.Time
	PostedBy     *uuid.UUID         `gorm:"type:uuid"`
	ReversalOfID *uuid.UUID         `gorm:"type:uuid"`
	ReversedByID *uuid.UUID         `gorm:"type:uuid"`
	Lines        []JournalLineModel `gorm:"foreignKey:VoucherID"`
}

func (JournalVoucherModel) TableName() string { return "journal_vouchers" }

type JournalLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null"`
	VoucherID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500)"`
	Debit       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Credit      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

func (JournalLineModel) TableName() string { return "journal_lines" }

func (m *JournalVoucherModel) ToDomain() *ledger.JournalVoucher {
	v := &ledger.JournalVoucher{
		TenantAggregateRoot: m.toTenantAggregate(),
		Type:                ledger.VoucherType(m.Type),
		Date:                UTCDate(m.Date),
		Reference:           m.Reference,
		Description:         m.Description,
		SourceType:          ledger.SourceType(m.SourceType),
		SourceID:            m.SourceID,
		Status:              ledger.VoucherStatus(m.Status),
		PostedAt:            m.PostedAt,
		PostedBy:            m.PostedBy,
		ReversalOfID:        m.ReversalOfID,
		ReversedByID:        m.ReversedByID,
		Lines:               make([]ledger.JournalLine, 0, len(m.Lines)),
	}
	if m.Number != nil {
		v.Number = *m.Number
	}
	for _, l := range m.Lines {
		v.Lines = append(v.Lines, ledger.JournalLine{
			ID:          l.ID,
			VoucherID:   l.VoucherID,
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
	}
	return v
}

// JournalVoucherModelFromDomain maps a voucher. Drafts have a NULL number so
// the (tenant, number) unique index ignores them.
func JournalVoucherModelFromDomain(v *ledger.JournalVoucher) *JournalVoucherModel {
	m := &JournalVoucherModel{
		Type:         string(v.Type),
		Date:         v.Date,
		Reference:    v.Reference,
		Description:  v.Description,
		SourceType:   string(v.SourceType),
		SourceID:     v.SourceID,
		Status:       string(v.Status),
		PostedAt:     v.PostedAt,
		PostedBy:     v.PostedBy,
		ReversalOfID: v.ReversalOfID,
		ReversedByID: v.ReversedByID,
	}
	if v.Number != "" {
		n := v.Number
		m.Number = &n
	}
	m.fromTenantAggregate(v.TenantAggregateRoot)
	for _, l := range v.Lines {
		m.Lines = append(m.Lines, JournalLineModel{
			ID:          l.ID,
			TenantID:    v.TenantID,
			VoucherID:   v.ID,
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
	}
	return m
}

// UTCDate re-attaches UTC to DATE columns that drivers return in local time.
func UTCDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func UTCDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := UTCDate(*t)
	return &d
}
