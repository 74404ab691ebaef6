package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
)

// Move is one change to the stock of an item in a warehouse. UnitCost is
// used by inbound moves only; outbound moves leave at average cost.
type Move struct {
	Item        *inventory.Item
	WarehouseID uuid.UUID
	Type        inventory.MovementType
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	Date        time.Time
	Source      inventory.MovementSource
}

// Applied is a move that updated its balance but whose movement row has
// not been written yet.
type Applied struct {
	Movement *inventory.StockMovement
	Balance  *inventory.StockBalance
}

// ApplyMove locks the balance, applies the move and saves the balance. The
// caller posts the voucher and then calls RecordMoves.
func ApplyMove(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, m Move) (*Applied, error) {
	if !m.Item.IsStocked() {
		return nil, shared.NewDomainErrorf("ITEM_NOT_STOCKED", "Item %s is a service and carries no stock", m.Item.SKU)
	}
	wh, err := r.Warehouses().FindByIDForTenant(ctx, tenantID, m.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !wh.IsActive {
		return nil, shared.NewDomainErrorf("WAREHOUSE_INACTIVE", "Warehouse %s is inactive", wh.Code)
	}

	balance, err := r.StockBalances().FindForUpdate(ctx, tenantID, m.Item.ID, m.WarehouseID)
	if err != nil {
		return nil, err
	}
	var movement *inventory.StockMovement
	if m.Type.IsInbound() {
		movement, err = balance.ReceiveMovement(m.Type, m.Quantity, m.UnitCost, m.Date, m.Source)
	} else {
		movement, err = balance.IssueMovement(m.Type, m.Quantity, m.Date, m.Source)
	}
	if err != nil {
		return nil, err
	}
	if err := r.StockBalances().Save(ctx, balance); err != nil {
		return nil, err
	}
	return &Applied{Movement: movement, Balance: balance}, nil
}

// RecordMoves writes the movements, linked to the voucher when there is
// one, and returns their StockMoved events.
func RecordMoves(ctx context.Context, r appshared.Repositories, voucher *ledger.JournalVoucher, applied ...*Applied) ([]shared.DomainEvent, error) {
	movements := make([]*inventory.StockMovement, len(applied))
	events := make([]shared.DomainEvent, len(applied))
	for i, a := range applied {
		if voucher != nil {
			id := voucher.ID
			a.Movement.VoucherID = &id
		}
		movements[i] = a.Movement
		events[i] = inventory.NewStockMovedEvent(a.Movement, a.Balance.ID)
	}
	if err := r.Movements().SaveBatch(ctx, movements); err != nil {
		return nil, err
	}
	return events, nil
}

// ResolveWarehouse returns id, or the tenant's default warehouse when id
// is nil.
func ResolveWarehouse(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, id *uuid.UUID) (uuid.UUID, error) {
	if id != nil && *id != uuid.Nil {
		return *id, nil
	}
	wh, err := r.Warehouses().FindDefault(ctx, tenantID)
	if err != nil {
		return uuid.Nil, shared.NewDomainError("NO_DEFAULT_WAREHOUSE", "No default warehouse is configured")
	}
	return wh.ID, nil
}

// InventoryAccount is the item's inventory account override, else the
// finished goods or inventory default by item type.
func InventoryAccount(settings *ledger.AccountingSettings, item *inventory.Item) (uuid.UUID, error) {
	if item.InventoryAccountID != nil {
		return *item.InventoryAccountID, nil
	}
	if item.Type == inventory.ItemTypeFinishedGood {
		return settings.Require(ledger.SettingFinishedGoods)
	}
	return settings.Require(ledger.SettingInventory)
}

// CostOfSalesAccount is the item's cost of sales override or the default.
func CostOfSalesAccount(settings *ledger.AccountingSettings, item *inventory.Item) (uuid.UUID, error) {
	if item.CostOfSalesAccountID != nil {
		return *item.CostOfSalesAccountID, nil
	}
	return settings.Require(ledger.SettingCostOfSales)
}

// RevenueAccount is the item's revenue override or the sales default.
func RevenueAccount(settings *ledger.AccountingSettings, item *inventory.Item) (uuid.UUID, error) {
	if item.RevenueAccountID != nil {
		return *item.RevenueAccountID, nil
	}
	return settings.Require(ledger.SettingSalesRevenue)
}
