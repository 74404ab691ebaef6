package inventory

import (
	"time"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateItemRequest represents a request to create an item
type CreateItemRequest struct {
	SKU                  string          `json:"sku" binding:"required,min=1,max=50"`
	Name                 string          `json:"name" binding:"required,min=1,max=200"`
	Description          string          `json:"description" binding:"max=2000"`
	Unit                 string          `json:"unit" binding:"max=20"`
	Type                 string          `json:"type" binding:"required,oneof=raw_material finished_good service"`
	SalePrice            decimal.Decimal `json:"sale_price"`
	InventoryAccountID   *uuid.UUID      `json:"inventory_account_id"`
	RevenueAccountID     *uuid.UUID      `json:"revenue_account_id"`
	CostOfSalesAccountID *uuid.UUID      `json:"cost_of_sales_account_id"`
}

// UpdateItemRequest represents a request to update an item. SKU and type
// are fixed once created.
type UpdateItemRequest struct {
	Name                 string          `json:"name" binding:"required,min=1,max=200"`
	Description          string          `json:"description" binding:"max=2000"`
	Unit                 string          `json:"unit" binding:"max=20"`
	SalePrice            decimal.Decimal `json:"sale_price"`
	IsActive             *bool           `json:"is_active"`
	InventoryAccountID   *uuid.UUID      `json:"inventory_account_id"`
	RevenueAccountID     *uuid.UUID      `json:"revenue_account_id"`
	CostOfSalesAccountID *uuid.UUID      `json:"cost_of_sales_account_id"`
}

// ItemListFilter holds the query parameters of the item list
type ItemListFilter struct {
	appshared.PageQuery
	Type     string `form:"type" binding:"omitempty,oneof=raw_material finished_good service"`
	IsActive *bool  `form:"is_active"`
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID                   uuid.UUID       `json:"id"`
	SKU                  string          `json:"sku"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	Unit                 string          `json:"unit"`
	Type                 string          `json:"type"`
	SalePrice            decimal.Decimal `json:"sale_price"`
	IsActive             bool            `json:"is_active"`
	InventoryAccountID   *uuid.UUID      `json:"inventory_account_id,omitempty"`
	RevenueAccountID     *uuid.UUID      `json:"revenue_account_id,omitempty"`
	CostOfSalesAccountID *uuid.UUID      `json:"cost_of_sales_account_id,omitempty"`
	Version              int             `json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ToItemResponse converts a domain Item to ItemResponse
func ToItemResponse(i *inventory.Item) ItemResponse {
	return ItemResponse{
		ID:                   i.ID,
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
		Version:              i.Version,
		CreatedAt:            i.CreatedAt,
		UpdatedAt:            i.UpdatedAt,
	}
}

// WarehouseRequest creates or updates a warehouse. Code is ignored on update.
type WarehouseRequest struct {
	Code     string `json:"code" binding:"omitempty,min=1,max=20"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Address  string `json:"address" binding:"max=500"`
	IsActive *bool  `json:"is_active"`
}

// WarehouseResponse represents a warehouse in API responses
type WarehouseResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	IsDefault bool      `json:"is_default"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToWarehouseResponse converts a domain Warehouse to WarehouseResponse
func ToWarehouseResponse(w *inventory.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		IsDefault: w.IsDefault,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// ReceiveStockRequest receives purchased or opening stock. Without a
// warehouse the default warehouse is used.
type ReceiveStockRequest struct {
	ItemID          uuid.UUID       `json:"item_id" binding:"required"`
	WarehouseID     *uuid.UUID      `json:"warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Date            string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
	OffsetAccountID uuid.UUID       `json:"offset_account_id" binding:"required"`
	Reference       string          `json:"reference" binding:"max=100"`
}

// IssueStockRequest issues stock to an expense account
type IssueStockRequest struct {
	ItemID           uuid.UUID       `json:"item_id" binding:"required"`
	WarehouseID      *uuid.UUID      `json:"warehouse_id"`
	Quantity         decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	Date             string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
	ExpenseAccountID uuid.UUID       `json:"expense_account_id" binding:"required"`
	Reference        string          `json:"reference" binding:"max=100"`
}

// AdjustStockRequest sets on-hand quantity to a counted figure. UnitCost
// prices a surplus; it defaults to the current average cost.
type AdjustStockRequest struct {
	ItemID          uuid.UUID        `json:"item_id" binding:"required"`
	WarehouseID     *uuid.UUID       `json:"warehouse_id"`
	CountedQuantity decimal.Decimal  `json:"counted_quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	Date            string           `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Reason          string           `json:"reason" binding:"required,max=100"`
}

// BalanceListFilter holds the query parameters of the stock balance list
type BalanceListFilter struct {
	appshared.PageQuery
	ItemID      *uuid.UUID `form:"item_id"`
	WarehouseID *uuid.UUID `form:"warehouse_id"`
}

// MovementListFilter holds the query parameters of the movement list
type MovementListFilter struct {
	appshared.PageQuery
	ItemID      *uuid.UUID `form:"item_id"`
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	Type        string     `form:"type"`
	SourceType  string     `form:"source_type"`
	From        string     `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To          string     `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// BalanceResponse is the on-hand position of one item in one warehouse
type BalanceResponse struct {
	ItemID      uuid.UUID       `json:"item_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Value       decimal.Decimal `json:"value"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToBalanceResponse converts a domain StockBalance to BalanceResponse
func ToBalanceResponse(b *inventory.StockBalance) BalanceResponse {
	return BalanceResponse{
		ItemID:      b.ItemID,
		WarehouseID: b.WarehouseID,
		Quantity:    b.Quantity,
		AverageCost: b.AverageCost,
		Value:       b.Value(),
		UpdatedAt:   b.UpdatedAt,
	}
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID               uuid.UUID       `json:"id"`
	ItemID           uuid.UUID       `json:"item_id"`
	WarehouseID      uuid.UUID       `json:"warehouse_id"`
	Type             string          `json:"type"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	AverageCostAfter decimal.Decimal `json:"average_cost_after"`
	Date             string          `json:"date"`
	SourceType       string          `json:"source_type,omitempty"`
	SourceID         *uuid.UUID      `json:"source_id,omitempty"`
	Reference        string          `json:"reference,omitempty"`
	VoucherID        *uuid.UUID      `json:"voucher_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToMovementResponse converts a domain StockMovement to MovementResponse
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		ItemID:           m.ItemID,
		WarehouseID:      m.WarehouseID,
		Type:             string(m.Type),
		Quantity:         m.Quantity,
		UnitCost:         m.UnitCost,
		TotalCost:        m.TotalCost,
		BalanceAfter:     m.BalanceAfter,
		AverageCostAfter: m.AverageCostAfter,
		Date:             appshared.FormatDate(m.Date),
		SourceType:       m.SourceType,
		SourceID:         m.SourceID,
		Reference:        m.Reference,
		VoucherID:        m.VoucherID,
		CreatedAt:        m.CreatedAt,
	}
}

// StockOperationResponse is the result of a receipt, issue or adjustment
type StockOperationResponse struct {
	Movement      MovementResponse `json:"movement"`
	Balance       BalanceResponse  `json:"balance"`
	VoucherID     *uuid.UUID       `json:"voucher_id,omitempty"`
	VoucherNumber string           `json:"voucher_number,omitempty"`
}
