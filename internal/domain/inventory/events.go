package inventory

import (
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeStock = "StockBalance"

	EventTypeStockMoved = "StockMoved"
)

// StockMovedEvent is raised for every stock movement.
type StockMovedEvent struct {
	shared.BaseDomainEvent
	ItemID       uuid.UUID       `json:"item_id"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	MovementType MovementType    `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Reference    string          `json:"reference,omitempty"`
}

// NewStockMovedEvent creates the event from a movement.
func NewStockMovedEvent(m *StockMovement, balanceID uuid.UUID) *StockMovedEvent {
	e := &StockMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMoved, AggregateTypeStock, balanceID, m.TenantID),
		ItemID:          m.ItemID,
		WarehouseID:     m.WarehouseID,
		MovementType:    m.Type,
		Quantity:        m.Quantity,
		TotalCost:       m.TotalCost,
		Reference:       m.Reference,
	}
	if m.CreatedBy != nil {
		e.Actor = *m.CreatedBy
	}
	return e
}
