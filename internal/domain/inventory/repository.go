package inventory

import (
	"context"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ItemRepository persists items.
type ItemRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Item, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Item, error)
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*Item, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Item, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error)
	Save(ctx context.Context, item *Item) error
}

// WarehouseRepository persists warehouses.
type WarehouseRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Warehouse, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Warehouse, error)
	FindDefault(ctx context.Context, tenantID uuid.UUID) (*Warehouse, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Warehouse, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, warehouse *Warehouse) error
}

// StockBalanceRepository persists balances. FindForUpdate locks the row
// for the rest of the transaction where the database supports it and
// returns a fresh empty balance when none exists.
type StockBalanceRepository interface {
	Find(ctx context.Context, tenantID, itemID, warehouseID uuid.UUID) (*StockBalance, error)
	FindForUpdate(ctx context.Context, tenantID, itemID, warehouseID uuid.UUID) (*StockBalance, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockBalance, error)
	Valuation(ctx context.Context, tenantID uuid.UUID, warehouseID *uuid.UUID) ([]ValuationLine, error)
	Save(ctx context.Context, balance *StockBalance) error
}

// MovementRepository appends movements.
type MovementRepository interface {
	Save(ctx context.Context, movement *StockMovement) error
	SaveBatch(ctx context.Context, movements []*StockMovement) error
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]StockMovement, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}
