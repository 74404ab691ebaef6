package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clearbook/backend/internal/domain/manufacturing"
)

type BOMModel struct {
	TenantAggregateModel
	ProductID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	Code           string              `gorm:"type:varchar(30);not null"`
	Revision       int                 `gorm:"not null"`
	Name           string              `gorm:"type:varchar(200);not null"`
	OutputQuantity decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	IsActive       bool                `gorm:"not null;default:false"`
	ActivatedAt    *time.Time
	Components     []BOMComponentModel `gorm:"foreignKey:BOMID"`
}

func (BOMModel) TableName() string { return "boms" }

type BOMComponentModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BOMID        uuid.UUID       `gorm:"column:bom_id;type:uuid;not null;index"`
	LineNo       int             `gorm:"not null"`
	ItemID       uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ScrapPercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Notes        string          `gorm:"type:varchar(500)"`
}

func (BOMComponentModel) TableName() string { return "bom_components" }

func (m *BOMModel) ToDomain() *manufacturing.BOM {
	b := &manufacturing.BOM{
		TenantAggregateRoot: m.toTenantAggregate(),
		ProductID:           m.ProductID,
		Code:                m.Code,
		Revision:            m.Revision,
		Name:                m.Name,
		OutputQuantity:      m.OutputQuantity,
		IsActive:            m.IsActive,
		ActivatedAt:         m.ActivatedAt,
		Components:          make([]manufacturing.BOMComponent, 0, len(m.Components)),
	}
	for _, c := range m.Components {
		b.Components = append(b.Components, manufacturing.BOMComponent{
			ID:           c.ID,
			BOMID:        c.BOMID,
			LineNo:       c.LineNo,
			ItemID:       c.ItemID,
			Quantity:     c.Quantity,
			ScrapPercent: c.ScrapPercent,
			Notes:        c.Notes,
		})
	}
	return b
}

func BOMModelFromDomain(b *manufacturing.BOM) *BOMModel {
	m := &BOMModel{
		ProductID:      b.ProductID,
		Code:           b.Code,
		Revision:       b.Revision,
		Name:           b.Name,
		OutputQuantity: b.OutputQuantity,
		IsActive:       b.IsActive,
		ActivatedAt:    b.ActivatedAt,
	}
	m.fromTenantAggregate(b.TenantAggregateRoot)
	for _, c := range b.Components {
		m.Components = append(m.Components, BOMComponentModel{
			ID:           c.ID,
			BOMID:        b.ID,
			LineNo:       c.LineNo,
			ItemID:       c.ItemID,
			Quantity:     c.Quantity,
			ScrapPercent: c.ScrapPercent,
			Notes:        c.Notes,
		})
	}
	return m
}

type ProductionOrderModel struct {
	TenantAggregateModel
	Number           string                       `gorm:"type:varchar(30);not null"`
	BOMID            uuid.UUID                    `gorm:"column:bom_id;type:uuid;not null"`
	ProductID        uuid.UUID                    `gorm:"type:uuid;not null;index"`
	WarehouseID      uuid.UUID                    `gorm:"type:uuid;not null"`
	PlannedQuantity  decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	ProducedQuantity decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	ConversionCost   decimal.Decimal              `gorm:"type:decimal(18,2);not null"`
	Status           string                       `gorm:"type:varchar(20);not null;index"`
	PlannedDate      time.Time                    `gorm:"type:date;not null"`
	CompletedDate    *time.Time                   `gorm:"type:date"`
	Notes            string                       `gorm:"type:text"`
	MaterialCost     decimal.Decimal              `gorm:"type:decimal(18,2);not null"`
	TotalCost        decimal.Decimal              `gorm:"type:decimal(18,2);not null"`
	UnitCost         decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	VoucherID        *uuid.UUID                   `gorm:"type:uuid"`
	ReleasedAt       *time.Time
	CancelledAt      *time.Time
	CancelReason     string                       `gorm:"type:varchar(500)"`
	Consumptions     []ProductionConsumptionModel `gorm:"foreignKey:OrderID"`
}

func (ProductionOrderModel) TableName() string { return "production_orders" }

type ProductionConsumptionModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	MovementID uuid.UUID       `gorm:"type:uuid;not null"`
}

func (ProductionConsumptionModel) TableName() string { return "production_consumptions" }

func (m *ProductionOrderModel) ToDomain() *manufacturing.ProductionOrder {
	o := &manufacturing.ProductionOrder{
		TenantAggregateRoot: m.toTenantAggregate(),
		Number:              m.Number,
		BOMID:               m.BOMID,
		ProductID:           m.ProductID,
		WarehouseID:         m.WarehouseID,
		PlannedQuantity:     m.PlannedQuantity,
		ProducedQuantity:    m.ProducedQuantity,
		ConversionCost:      m.ConversionCost,
		Status:              manufacturing.OrderStatus(m.Status),
		PlannedDate:         UTCDate(m.PlannedDate),
		CompletedDate:       UTCDatePtr(m.CompletedDate),
		Notes:               m.Notes,
		MaterialCost:        m.MaterialCost,
		TotalCost:           m.TotalCost,
		UnitCost:            m.UnitCost,
		VoucherID:           m.VoucherID,
		ReleasedAt:          m.ReleasedAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
		Consumptions:        make([]manufacturing.Consumption, 0, len(m.Consumptions)),
	}
	for _, c := range m.Consumptions {
		o.Consumptions = append(o.Consumptions, manufacturing.Consumption{
			ID:         c.ID,
			OrderID:    c.OrderID,
			ItemID:     c.ItemID,
			Quantity:   c.Quantity,
			UnitCost:   c.UnitCost,
			TotalCost:  c.TotalCost,
			MovementID: c.MovementID,
		})
	}
	return o
}

func ProductionOrderModelFromDomain(o *manufacturing.ProductionOrder) *ProductionOrderModel {
	m := &ProductionOrderModel{
		Number:           o.Number,
		BOMID:            o.BOMID,
		ProductID:        o.ProductID,
		WarehouseID:      o.WarehouseID,
		PlannedQuantity:  o.PlannedQuantity,
		ProducedQuantity: o.ProducedQuantity,
		ConversionCost:   o.ConversionCost,
		Status:           string(o.Status),
		PlannedDate:      o.PlannedDate,
		CompletedDate:    o.CompletedDate,
		Notes:            o.Notes,
		MaterialCost:     o.MaterialCost,
		TotalCost:        o.TotalCost,
		UnitCost:         o.UnitCost,
		VoucherID:        o.VoucherID,
		ReleasedAt:       o.ReleasedAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
	}
	m.fromTenantAggregate(o.TenantAggregateRoot)
	for _, c := range o.Consumptions {
		m.Consumptions = append(m.Consumptions, ProductionConsumptionModel{
			ID:         c.ID,
			OrderID:    o.ID,
			ItemID:     c.ItemID,
			Quantity:   c.Quantity,
			UnitCost:   c.UnitCost,
			TotalCost:  c.TotalCost,
			MovementID: c.MovementID,
		})
	}
	return m
}
