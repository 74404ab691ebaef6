package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clearbook/backend/internal/domain/banking"
)

type BankAccountModel struct {
	TenantAggregateModel
	Name            string    `gorm:"type:varchar(100);not null"`
	BankName        string    `gorm:"type:varchar(100)"`
	AccountNumber   string    `gorm:"type:varchar(50)"`
	LedgerAccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	IsActive        bool      `gorm:"not null;default:true"`
}

func (BankAccountModel) TableName() string { return "bank_accounts" }

func (m *BankAccountModel) ToDomain() *banking.BankAccount {
	return &banking.BankAccount{
		TenantAggregateRoot: m.toTenantAggregate(),
		Name:                m.Name,
		BankName:            m.BankName,
		AccountNumber:       m.AccountNumber,
		LedgerAccountID:     m.LedgerAccountID,
		IsActive:            m.IsActive,
	}
}

func BankAccountModelFromDomain(b *banking.BankAccount) *BankAccountModel {
	m := &BankAccountModel{
		Name:            b.Name,
		BankName:        b.BankName,
		AccountNumber:   b.AccountNumber,
		LedgerAccountID: b.LedgerAccountID,
		IsActive:        b.IsActive,
	}
	m.fromTenantAggregate(b.TenantAggregateRoot)
	return m
}

type BankStatementModel struct {
	TenantAggregateModel
	BankAccountID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	StatementDate   time.Time            `gorm:"type:date;not null"`
	OpeningBalance  decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	ClosingBalance  decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Status          string               `gorm:"type:varchar(20);not null"`
	SourceObjectKey string               `gorm:"type:varchar(500)"`
	ImportedBy      *uuid.UUID           `gorm:"type:uuid"`
	ReconciledAt    *time.Time
	ReconciledBy    *uuid.UUID           `gorm:"type:uuid"`
	Lines           []StatementLineModel `gorm:"foreignKey:StatementID"`
}

func (BankStatementModel) TableName() string { return "bank_statements" }

type StatementLineModel struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	StatementID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo               int             `gorm:"not null"`
	Date                 time.Time       `gorm:"type:date;not null"`
	Description          string          `gorm:"type:varchar(500)"`
	Reference            string          `gorm:"type:varchar(100)"`
	Amount               decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status               string          `gorm:"type:varchar(20);not null"`
	MatchMethod          string          `gorm:"type:varchar(20)"`
	MatchedJournalLineID *uuid.UUID      `gorm:"type:uuid;index"`
	MatchedAt            *time.Time
}

func (StatementLineModel) TableName() string { return "statement_lines" }

func (m *BankStatementModel) ToDomain() *banking.BankStatement {
	s := &banking.BankStatement{
		TenantAggregateRoot: m.toTenantAggregate(),
		BankAccountID:       m.BankAccountID,
		StatementDate:       UTCDate(m.StatementDate),
		OpeningBalance:      m.OpeningBalance,
		ClosingBalance:      m.ClosingBalance,
		Status:              banking.StatementStatus(m.Status),
		SourceObjectKey:     m.SourceObjectKey,
		ImportedBy:          m.ImportedBy,
		ReconciledAt:        m.ReconciledAt,
		ReconciledBy:        m.ReconciledBy,
		Lines:               make([]banking.StatementLine, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		s.Lines = append(s.Lines, banking.StatementLine{
			ID:                   l.ID,
			StatementID:          l.StatementID,
			LineNo:               l.LineNo,
			Date:                 UTCDate(l.Date),
			Description:          l.Description,
			Reference:            l.Reference,
			Amount:               l.Amount,
			Status:               banking.LineStatus(l.Status),
			MatchMethod:          banking.MatchMethod(l.MatchMethod),
			MatchedJournalLineID: l.MatchedJournalLineID,
			MatchedAt:            l.MatchedAt,
		})
	}
	return s
}

func BankStatementModelFromDomain(s *banking.BankStatement) *BankStatementModel {
	m := &BankStatementModel{
		BankAccountID:   s.BankAccountID,
		StatementDate:   s.StatementDate,
		OpeningBalance:  s.OpeningBalance,
		ClosingBalance:  s.ClosingBalance,
		Status:          string(s.Status),
		SourceObjectKey: s.SourceObjectKey,
		ImportedBy:      s.ImportedBy,
		ReconciledAt:    s.ReconciledAt,
		ReconciledBy:    s.ReconciledBy,
	}
	m.fromTenantAggregate(s.TenantAggregateRoot)
	for _, l := range s.Lines {
		m.Lines = append(m.Lines, StatementLineModel{
			ID:                   l.ID,
			TenantID:             s.TenantID,
			StatementID:          s.ID,
			LineNo:               l.LineNo,
			Date:                 l.Date,
			Description:          l.Description,
			Reference:            l.Reference,
			Amount:               l.Amount,
			Status:               string(l.Status),
			MatchMethod:          string(l.MatchMethod),
			MatchedJournalLineID: l.MatchedJournalLineID,
			MatchedAt:            l.MatchedAt,
		})
	}
	return m
}
