package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clearbook/backend/internal/domain/inventory"
)

type ItemModel struct {
	TenantAggregateModel
	SKU                  string          `gorm:"column:sku;type:varchar(50);not null"`
	Name                 string          `gorm:"type:varchar(200);not null"`
	Description          string          `gorm:"type:text"`
	Unit                 string          `gorm:"type:varchar(20);not null"`
	Type                 string          `gorm:"type:varchar(20);not null"`
	SalePrice            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsActive             bool            `gorm:"not null;default:true"`
	InventoryAccountID   *uuid.UUID      `gorm:"type:uuid"`
	RevenueAccountID     *uuid.UUID      `gorm:"type:uuid"`
	CostOfSalesAccountID *uuid.UUID      `gorm:"type:uuid"`
}

func (ItemModel) TableName() string { return "items" }

func (m *ItemModel) ToDomain() *inventory.Item {
	return &inventory.Item{
		TenantAggregateRoot:  m.toTenantAggregate(),
		SKU:                  m.SKU,
		Name:                 m.Name,
		Description:          m.Description,
		Unit:                 m.Unit,
		Type:                 inventory.ItemType(m.Type),
		SalePrice:            m.SalePrice,
		IsActive:             m.IsActive,
		InventoryAccountID:   m.InventoryAccountID,
		RevenueAccountID:     m.RevenueAccountID,
		CostOfSalesAccountID: m.CostOfSalesAccountID,
	}
}

func ItemModelFromDomain(i *inventory.Item) *ItemModel {
	m := &ItemModel{
		SKU:                  i.SKU,
		Name:                 i.Name,
		Description:          i.Description,
		Unit:                 i.Unit,
		Type:                 string(i.Type),
		SalePrice:            i.SalePrice,
		IsActive:             i.IsActive,
		InventoryAccountID:   i.InventoryAccountID,
		RevenueAccountID:     i.RevenueAccountID,
		CostOfSalesAccountID: i.CostOfSalesAccountID,
	}
	m.fromTenantAggregate(i.TenantAggregateRoot)
	return m
}

type WarehouseModel struct {
	TenantAggregateModel
	Code      string `gorm:"type:varchar(20);not null"`
	Name      string `gorm:"type:varchar(200);not null"`
	Address   string `gorm:"type:varchar(500)"`
	IsDefault bool   `gorm:"not null;default:false"`
	IsActive  bool   `gorm:"not null;default:true"`
}

func (WarehouseModel) TableName() string { return "warehouses" }

func (m *WarehouseModel) ToDomain() *inventory.Warehouse {
	return &inventory.Warehouse{
		TenantAggregateRoot: m.toTenantAggregate(),
		Code:                m.Code,
		Name:                m.Name,
		Address:             m.Address,
		IsDefault:           m.IsDefault,
		IsActive:            m.IsActive,
	}
}

func WarehouseModelFromDomain(w *inventory.Warehouse) *WarehouseModel {
	m := &WarehouseModel{
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		IsDefault: w.IsDefault,
		IsActive:  w.IsActive,
	}
	m.fromTenantAggregate(w.TenantAggregateRoot)
	return m
}

type StockBalanceModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_balance_item_wh,priority:1"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_balance_item_wh,priority:2"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AverageCost decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Version     int             `gorm:"not null;default:0"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

func (StockBalanceModel) TableName() string { return "stock_balances" }

func (m *StockBalanceModel) ToDomain() *inventory.StockBalance {
	return &inventory.StockBalance{
		ID:          m.ID,
		TenantID:    m.TenantID,
		ItemID:      m.ItemID,
		WarehouseID: m.WarehouseID,
		Quantity:    m.Quantity,
		AverageCost: m.AverageCost,
		Version:     m.Version,
		UpdatedAt:   m.UpdatedAt,
	}
}

func StockBalanceModelFromDomain(b *inventory.StockBalance) *StockBalanceModel {
	return &StockBalanceModel{
		ID:          b.ID,
		TenantID:    b.TenantID,
		ItemID:      b.ItemID,
		WarehouseID: b.WarehouseID,
		Quantity:    b.Quantity,
		AverageCost: b.AverageCost,
		Version:     b.Version,
		UpdatedAt:   b.UpdatedAt,
	}
}

type StockMovementModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type             string          `gorm:"type:varchar(30);not null"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BalanceAfter     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AverageCostAfter decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Date             time.Time       `gorm:"type:date;not null;index"`
	SourceType       string          `gorm:"type:varchar(30);not null"`
	SourceID         *uuid.UUID      `gorm:"type:uuid;index"`
	Reference        string          `gorm:"type:varchar(100)"`
	VoucherID        *uuid.UUID      `gorm:"type:uuid"`
	CreatedBy        *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt        time.Time       `gorm:"not null"`
}

func (StockMovementModel) TableName() string { return "stock_movements" }

func (m *StockMovementModel) ToDomain() inventory.StockMovement {
	return inventory.StockMovement{
		ID:               m.ID,
		TenantID:         m.TenantID,
		ItemID:           m.ItemID,
		WarehouseID:      m.WarehouseID,
		Type:             inventory.MovementType(m.Type),
		Quantity:         m.Quantity,
		UnitCost:         m.UnitCost,
		TotalCost:        m.TotalCost,
		BalanceAfter:     m.BalanceAfter,
		AverageCostAfter: m.AverageCostAfter,
		Date:             UTCDate(m.Date),
		SourceType:       m.SourceType,
		SourceID:         m.SourceID,
		Reference:        m.Reference,
		VoucherID:        m.VoucherID,
		CreatedBy:        m.CreatedBy,
		CreatedAt:        m.CreatedAt,
	}
}

func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:               mv.ID,
		TenantID:         mv.TenantID,
		ItemID:           mv.ItemID,
		WarehouseID:      mv.WarehouseID,
		Type:             string(mv.Type),
		Quantity:         mv.Quantity,
		UnitCost:         mv.UnitCost,
		TotalCost:        mv.TotalCost,
		BalanceAfter:     mv.BalanceAfter,
		AverageCostAfter: mv.AverageCostAfter,
		Date:             mv.Date,
		SourceType:       mv.SourceType,
		SourceID:         mv.SourceID,
		Reference:        mv.Reference,
		VoucherID:        mv.VoucherID,
		CreatedBy:        mv.CreatedBy,
		CreatedAt:        mv.CreatedAt,
	}
}
