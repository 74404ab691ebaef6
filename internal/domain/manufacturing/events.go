package manufacturing

import (
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeProductionOrder = "ProductionOrder"
	AggregateTypeBOM             = "BOM"

	EventTypeProductionReleased  = "ProductionOrderReleased"
	EventTypeProductionCancelled = "ProductionOrderCancelled"
	EventTypeProductionCompleted = "ProductionOrderCompleted"
	EventTypeBOMActivated        = "BOMActivated"
)

// ProductionOrderEvent carries status changes.
type ProductionOrderEvent struct {
	shared.BaseDomainEvent
	Number string      `json:"number"`
	Status OrderStatus `json:"status"`
}

// NewProductionOrderEvent creates a status event.
func NewProductionOrderEvent(eventType string, o *ProductionOrder) *ProductionOrderEvent {
	return &ProductionOrderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProductionOrder, o.ID, o.TenantID),
		Number:          o.Number,
		Status:          o.Status,
	}
}

// ProductionOrderCompletedEvent carries the costing result.
type ProductionOrderCompletedEvent struct {
	shared.BaseDomainEvent
	Number           string          `json:"number"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProducedQuantity decimal.Decimal `json:"produced_quantity"`
	MaterialCost     decimal.Decimal `json:"material_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	VoucherID        uuid.UUID       `json:"voucher_id"`
}

// NewProductionOrderCompletedEvent creates the event.
func NewProductionOrderCompletedEvent(o *ProductionOrder) *ProductionOrderCompletedEvent {
	e := &ProductionOrderCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeProductionCompleted, AggregateTypeProductionOrder, o.ID, o.TenantID),
		Number:           o.Number,
		ProductID:        o.ProductID,
		ProducedQuantity: o.ProducedQuantity,
		MaterialCost:     o.MaterialCost,
		TotalCost:        o.TotalCost,
		UnitCost:         o.UnitCost,
	}
	if o.VoucherID != nil {
		e.VoucherID = *o.VoucherID
	}
	return e
}

// BOMActivatedEvent is raised when a BOM becomes the active one.
type BOMActivatedEvent struct {
	shared.BaseDomainEvent
	Code      string    `json:"code"`
	Revision  int       `json:"revision"`
	ProductID uuid.UUID `json:"product_id"`
}

// NewBOMActivatedEvent creates the event.
func NewBOMActivatedEvent(b *BOM, actor uuid.UUID) *BOMActivatedEvent {
	e := &BOMActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBOMActivated, AggregateTypeBOM, b.ID, b.TenantID),
		Code:            b.Code,
		Revision:        b.Revision,
		ProductID:       b.ProductID,
	}
	e.Actor = actor
	return e
}
