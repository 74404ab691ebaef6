package manufacturing

import (
	"fmt"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a production order.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusReleased  OrderStatus = "released"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is known
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusReleased, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can move to target
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return target == OrderStatusReleased || target == OrderStatusCancelled
	case OrderStatusReleased:
		return target == OrderStatusCompleted || target == OrderStatusCancelled
	}
	return false
}

// Consumption records one component issued to an order.
type Consumption struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ItemID     uuid.UUID
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	TotalCost  decimal.Decimal
	MovementID uuid.UUID
}

// ProductionOrder turns components into a finished good.
type ProductionOrder struct {
	shared.TenantAggregateRoot
	Number           string
	BOMID            uuid.UUID
	ProductID        uuid.UUID
	WarehouseID      uuid.UUID
	PlannedQuantity  decimal.Decimal
	ProducedQuantity decimal.Decimal
	ConversionCost   decimal.Decimal
	Status           OrderStatus
	PlannedDate      time.Time
	CompletedDate    *time.Time
	Notes            string
	Consumptions     []Consumption
	MaterialCost     decimal.Decimal
	TotalCost        decimal.Decimal
	UnitCost         decimal.Decimal
	VoucherID        *uuid.UUID
	ReleasedAt       *time.Time
	CancelledAt      *time.Time
	CancelReason     string
}

// NewProductionOrder creates a draft order against an active BOM.
func NewProductionOrder(tenantID uuid.UUID, number string, bom *BOM, warehouseID uuid.UUID, quantity, conversionCost decimal.Decimal, plannedDate time.Time) (*ProductionOrder, error) {
	if bom == nil || !bom.IsActive {
		return nil, shared.NewDomainError("BOM_NOT_ACTIVE", "Production requires an active BOM")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Order number is required")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse is required")
	}
	o := &ProductionOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		BOMID:               bom.ID,
		ProductID:           bom.ProductID,
		WarehouseID:         warehouseID,
		Status:              OrderStatusDraft,
		ProducedQuantity:    decimal.Zero,
		MaterialCost:        decimal.Zero,
		TotalCost:           decimal.Zero,
		UnitCost:            decimal.Zero,
	}
	if err := o.Update(quantity, conversionCost, plannedDate, ""); err != nil {
		return nil, err
	}
	return o, nil
}

// Update changes the plan while the order is a draft.
func (o *ProductionOrder) Update(quantity, conversionCost decimal.Decimal, plannedDate time.Time, notes string) error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot modify production order in %s status", o.Status)
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Planned quantity must be positive")
	}
	if conversionCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Conversion cost cannot be negative")
	}
	o.PlannedQuantity = quantity
	o.ConversionCost = shared.RoundMoney(conversionCost)
	o.PlannedDate = shared.DateOnly(plannedDate)
	o.Notes = notes
	o.IncrementVersion()
	return nil
}

// Release makes the order ready for completion.
func (o *ProductionOrder) Release(at time.Time) error {
	if !o.Status.CanTransitionTo(OrderStatusReleased) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot release production order in %s status", o.Status)
	}
	o.Status = OrderStatusReleased
	o.ReleasedAt = &at
	o.IncrementVersion()
	o.AddDomainEvent(NewProductionOrderEvent(EventTypeProductionReleased, o))
	return nil
}

// Cancel stops a draft or released order.
func (o *ProductionOrder) Cancel(reason string, at time.Time) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot cancel production order in %s status", o.Status)
	}
	o.Status = OrderStatusCancelled
	o.CancelledAt = &at
	o.CancelReason = reason
	o.IncrementVersion()
	o.AddDomainEvent(NewProductionOrderEvent(EventTypeProductionCancelled, o))
	return nil
}

// CanComplete checks the state before stock is touched.
func (o *ProductionOrder) CanComplete() error {
	if !o.Status.CanTransitionTo(OrderStatusCompleted) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot complete production order in %s status", o.Status)
	}
	return nil
}

// CostBreakdown is the result of costing a production run.
type CostBreakdown struct {
	MaterialCost decimal.Decimal
	TotalCost    decimal.Decimal
	UnitCost     decimal.Decimal
}

// ComputeCost sums the consumptions (each already rounded to cents), adds
// conversion cost and divides by the produced quantity at 4 places.
func ComputeCost(consumptions []Consumption, conversionCost, producedQuantity decimal.Decimal) (CostBreakdown, error) {
	if !producedQuantity.IsPositive() {
		return CostBreakdown{}, shared.NewDomainError("INVALID_QUANTITY", "Produced quantity must be positive")
	}
	material := decimal.Zero
	for _, c := range consumptions {
		material = material.Add(shared.RoundMoney(c.TotalCost))
	}
	total := material.Add(shared.RoundMoney(conversionCost))
	return CostBreakdown{
		MaterialCost: material,
		TotalCost:    total,
		UnitCost:     shared.RoundCost(total.Div(producedQuantity)),
	}, nil
}

// Complete records the result of a production run.
func (o *ProductionOrder) Complete(producedQuantity decimal.Decimal, date time.Time, consumptions []Consumption, voucherID uuid.UUID, userID uuid.UUID) error {
	if err := o.CanComplete(); err != nil {
		return err
	}
	cost, err := ComputeCost(consumptions, o.ConversionCost, producedQuantity)
	if err != nil {
		return err
	}
	for i := range consumptions {
		consumptions[i].OrderID = o.ID
		if consumptions[i].ID == uuid.Nil {
			consumptions[i].ID = uuid.New()
		}
	}
	d := shared.DateOnly(date)
	o.Status = OrderStatusCompleted
	o.ProducedQuantity = producedQuantity
	o.CompletedDate = &d
	o.Consumptions = consumptions
	o.MaterialCost = cost.MaterialCost
	o.TotalCost = cost.TotalCost
	o.UnitCost = cost.UnitCost
	o.VoucherID = &voucherID
	o.IncrementVersion()

	ev := NewProductionOrderCompletedEvent(o)
	ev.Actor = userID
	o.AddDomainEvent(ev)
	return nil
}

// Reference is the text used on movements and vouchers.
func (o *ProductionOrder) Reference() string {
	return fmt.Sprintf("Production %s", o.Number)
}
