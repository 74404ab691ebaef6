package manufacturing

import (
	"time"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/manufacturing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentRequest is one component line of a BOM request
type ComponentRequest struct {
	ItemID       uuid.UUID       `json:"item_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	ScrapPercent decimal.Decimal `json:"scrap_percent"`
	Notes        string          `json:"notes" binding:"max=500"`
}

// CreateBOMRequest represents a request to create a BOM
type CreateBOMRequest struct {
	ProductID      uuid.UUID          `json:"product_id" binding:"required"`
	Code           string             `json:"code" binding:"required,min=1,max=50"`
	Revision       int                `json:"revision" binding:"omitempty,min=1"`
	Name           string             `json:"name" binding:"max=200"`
	OutputQuantity decimal.Decimal    `json:"output_quantity" binding:"decimal_gt0"`
	Components     []ComponentRequest `json:"components" binding:"required,min=1,dive"`
}

// UpdateBOMRequest replaces name, output quantity and components
type UpdateBOMRequest struct {
	Name           string             `json:"name" binding:"max=200"`
	OutputQuantity decimal.Decimal    `json:"output_quantity" binding:"decimal_gt0"`
	Components     []ComponentRequest `json:"components" binding:"required,min=1,dive"`
}

// BOMListFilter holds the query parameters of the BOM list
type BOMListFilter struct {
	appshared.PageQuery
	ProductID *uuid.UUID `form:"product_id"`
	IsActive  *bool      `form:"is_active"`
}

// RequirementsQuery asks what producing Quantity units would consume
type RequirementsQuery struct {
	Quantity    decimal.Decimal `form:"quantity"`
	WarehouseID *uuid.UUID      `form:"warehouse_id"`
}

// ComponentResponse is one BOM component in API responses
type ComponentResponse struct {
	LineNo       int             `json:"line_no"`
	ItemID       uuid.UUID       `json:"item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	ScrapPercent decimal.Decimal `json:"scrap_percent"`
	Notes        string          `json:"notes,omitempty"`
}

// BOMResponse represents a BOM in API responses
type BOMResponse struct {
	ID             uuid.UUID           `json:"id"`
	ProductID      uuid.UUID           `json:"product_id"`
	Code           string              `json:"code"`
	Revision       int                 `json:"revision"`
	Name           string              `json:"name"`
	OutputQuantity decimal.Decimal     `json:"output_quantity"`
	IsActive       bool                `json:"is_active"`
	ActivatedAt    *time.Time          `json:"activated_at,omitempty"`
	Components     []ComponentResponse `json:"components"`
	Version        int                 `json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ToBOMResponse converts a domain BOM to BOMResponse
func ToBOMResponse(b *manufacturing.BOM) BOMResponse {
	components := make([]ComponentResponse, len(b.Components))
	for i, c := range b.Components {
		components[i] = ComponentResponse{
			LineNo:       c.LineNo,
			ItemID:       c.ItemID,
			Quantity:     c.Quantity,
			ScrapPercent: c.ScrapPercent,
			Notes:        c.Notes,
		}
	}
	return BOMResponse{
		ID:             b.ID,
		ProductID:      b.ProductID,
		Code:           b.Code,
		Revision:       b.Revision,
		Name:           b.Name,
		OutputQuantity: b.OutputQuantity,
		IsActive:       b.IsActive,
		ActivatedAt:    b.ActivatedAt,
		Components:     components,
		Version:        b.Version,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// CreateOrderRequest represents a request to plan a production run. The
// product's active BOM is used unless BOMID is given.
type CreateOrderRequest struct {
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	BOMID          *uuid.UUID      `json:"bom_id"`
	WarehouseID    *uuid.UUID      `json:"warehouse_id"`
	Quantity       decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	ConversionCost decimal.Decimal `json:"conversion_cost"`
	PlannedDate    string          `json:"planned_date" binding:"omitempty,datetime=2006-01-02"`
	Notes          string          `json:"notes" binding:"max=2000"`
}

// UpdateOrderRequest changes a draft order
type UpdateOrderRequest struct {
	Quantity       decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	ConversionCost decimal.Decimal `json:"conversion_cost"`
	PlannedDate    string          `json:"planned_date" binding:"required,datetime=2006-01-02"`
	Notes          string          `json:"notes" binding:"max=2000"`
}

// CompleteOrderRequest finishes a released order. ProducedQuantity
// defaults to the planned quantity and Date to today.
type CompleteOrderRequest struct {
	ProducedQuantity *decimal.Decimal `json:"produced_quantity"`
	Date             string           `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// CancelOrderRequest carries the cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderListFilter holds the query parameters of the production order list
type OrderListFilter struct {
	appshared.PageQuery
	Status    string     `form:"status" binding:"omitempty,oneof=draft released completed cancelled"`
	ProductID *uuid.UUID `form:"product_id"`
	From      string     `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string     `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// ConsumptionResponse is one component issued to an order
type ConsumptionResponse struct {
	ItemID     uuid.UUID       `json:"item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	MovementID uuid.UUID       `json:"movement_id"`
}

// OrderResponse represents a production order in API responses
type OrderResponse struct {
	ID               uuid.UUID             `json:"id"`
	Number           string                `json:"number"`
	BOMID            uuid.UUID             `json:"bom_id"`
	ProductID        uuid.UUID             `json:"product_id"`
	WarehouseID      uuid.UUID             `json:"warehouse_id"`
	Status           string                `json:"status"`
	PlannedQuantity  decimal.Decimal       `json:"planned_quantity"`
	ProducedQuantity decimal.Decimal       `json:"produced_quantity"`
	ConversionCost   decimal.Decimal       `json:"conversion_cost"`
	PlannedDate      string                `json:"planned_date"`
	CompletedDate    string                `json:"completed_date,omitempty"`
	Notes            string                `json:"notes,omitempty"`
	Consumptions     []ConsumptionResponse `json:"consumptions"`
	MaterialCost     decimal.Decimal       `json:"material_cost"`
	TotalCost        decimal.Decimal       `json:"total_cost"`
	UnitCost         decimal.Decimal       `json:"unit_cost"`
	VoucherID        *uuid.UUID            `json:"voucher_id,omitempty"`
	CancelReason     string                `json:"cancel_reason,omitempty"`
	Version          int                   `json:"version"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// ToOrderResponse converts a domain ProductionOrder to OrderResponse
func ToOrderResponse(o *manufacturing.ProductionOrder) OrderResponse {
	consumptions := make([]ConsumptionResponse, len(o.Consumptions))
	for i, c := range o.Consumptions {
		consumptions[i] = ConsumptionResponse{
			ItemID:     c.ItemID,
			Quantity:   c.Quantity,
			UnitCost:   c.UnitCost,
			TotalCost:  c.TotalCost,
			MovementID: c.MovementID,
		}
	}
	resp := OrderResponse{
		ID:               o.ID,
		Number:           o.Number,
		BOMID:            o.BOMID,
		ProductID:        o.ProductID,
		WarehouseID:      o.WarehouseID,
		Status:           string(o.Status),
		PlannedQuantity:  o.PlannedQuantity,
		ProducedQuantity: o.ProducedQuantity,
		ConversionCost:   o.ConversionCost,
		PlannedDate:      appshared.FormatDate(o.PlannedDate),
		Notes:            o.Notes,
		Consumptions:     consumptions,
		MaterialCost:     o.MaterialCost,
		TotalCost:        o.TotalCost,
		UnitCost:         o.UnitCost,
		VoucherID:        o.VoucherID,
		CancelReason:     o.CancelReason,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if o.CompletedDate != nil {
		resp.CompletedDate = appshared.FormatDate(*o.CompletedDate)
	}
	return resp
}
