package manufacturing

import (
	"context"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BOMRepository persists bills of materials with their components.
type BOMRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*BOM, error)
	FindActiveForProduct(ctx context.Context, tenantID, productID uuid.UUID) (*BOM, error)
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]BOM, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]BOM, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCodeRevision(ctx context.Context, tenantID uuid.UUID, code string, revision int) (bool, error)
	Save(ctx context.Context, bom *BOM) error
}

// ProductionOrderRepository persists production orders with consumptions.
type ProductionOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ProductionOrder, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ProductionOrder, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, order *ProductionOrder) error
}
