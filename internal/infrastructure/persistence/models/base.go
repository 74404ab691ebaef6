package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/clearbook/backend/internal/domain/shared"
)

// BaseModel carries the columns every table has.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel adds the optimistic-locking version of an aggregate root.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *AggregateModel) fromAggregate(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
}

func (m *AggregateModel) toAggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Version:    m.Version,
	}
}

// TenantAggregateModel is the base of every tenant-scoped aggregate table.
type TenantAggregateModel struct {
	AggregateModel
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

func (m *TenantAggregateModel) fromTenantAggregate(t shared.TenantAggregateRoot) {
	m.fromAggregate(t.BaseAggregateRoot)
	m.TenantID = t.TenantID
	m.CreatedBy = t.CreatedBy
}

func (m *TenantAggregateModel) toTenantAggregate() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: m.toAggregate(),
		TenantID:          m.TenantID,
		CreatedBy:         m.CreatedBy,
	}
}

// All lists every model, in dependency order, for AutoMigrate in tests.
func All() []any {
	return []any{
		&TenantModel{}, &RoleModel{}, &UserModel{}, &UserRoleModel{},
		&AccountModel{}, &FiscalPeriodModel{}, &DocumentSequenceModel{}, &AccountingSettingModel{},
		&JournalVoucherModel{}, &JournalLineModel{},
		&ItemModel{}, &WarehouseModel{}, &StockBalanceModel{}, &StockMovementModel{},
		&BOMModel{}, &BOMComponentModel{}, &ProductionOrderModel{}, &ProductionConsumptionModel{},
		&CustomerModel{}, &SalesInvoiceModel{}, &InvoiceLineModel{}, &CustomerPaymentModel{}, &PaymentAllocationModel{},
		&BankAccountModel{}, &BankStatementModel{}, &StatementLineModel{},
		&AuditLogModel{},
	}
}
