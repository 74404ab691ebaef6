package inventory

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// ItemService manages items and warehouses
type ItemService struct {
	repos  appshared.Repositories
	logger *zap.Logger
}

// NewItemService creates a new ItemService
func NewItemService(repos appshared.Repositories, l *zap.Logger) *ItemService {
	if l == nil {
		l = zap.NewNop()
	}
	return &ItemService{repos: repos, logger: l}
}

// CreateItem adds an item to the catalogue
func (s *ItemService) CreateItem(ctx context.Context, tenantID, userID uuid.UUID, req CreateItemRequest) (*ItemResponse, error) {
	exists, err := s.repos.Items().ExistsBySKU(ctx, tenantID, req.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "SKU %s already exists", req.SKU)
	}
	item, err := inventory.NewItem(tenantID, req.SKU, req.Name, req.Unit, inventory.ItemType(req.Type))
	if err != nil {
		return nil, err
	}
	if err := item.Update(req.Name, req.Description, req.Unit, req.SalePrice); err != nil {
		return nil, err
	}
	if err := s.setAccounts(ctx, item, req.InventoryAccountID, req.RevenueAccountID, req.CostOfSalesAccountID); err != nil {
		return nil, err
	}
	item.SetCreatedBy(userID)
	if err := s.repos.Items().Save(ctx, item); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("item created",
		zap.String("sku", item.SKU),
		zap.String("type", string(item.Type)))
	resp := ToItemResponse(item)
	return &resp, nil
}

// UpdateItem changes descriptive fields, price, account overrides and the
// active flag
func (s *ItemService) UpdateItem(ctx context.Context, tenantID, id uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	item, err := s.repos.Items().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := item.Update(req.Name, req.Description, req.Unit, req.SalePrice); err != nil {
		return nil, err
	}
	if err := s.setAccounts(ctx, item, req.InventoryAccountID, req.RevenueAccountID, req.CostOfSalesAccountID); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		item.SetActive(*req.IsActive)
	}
	if err := s.repos.Items().Save(ctx, item); err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// GetItem returns one item
func (s *ItemService) GetItem(ctx context.Context, tenantID, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.repos.Items().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// ListItems returns a page of items ordered by SKU
func (s *ItemService) ListItems(ctx context.Context, tenantID uuid.UUID, q ItemListFilter) (*shared.Paginated[ItemResponse], error) {
	filter := q.ToFilter()
	if q.OrderBy == "" {
		filter.OrderBy = "sku"
		filter.OrderDir = "asc"
	}
	filter = filter.With("type", q.Type)
	if q.IsActive != nil {
		filter = filter.With("is_active", *q.IsActive)
	}
	items, err := s.repos.Items().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Items().CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = ToItemResponse(&items[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// setAccounts validates that the overrides are postable accounts of the
// tenant before assigning them.
func (s *ItemService) setAccounts(ctx context.Context, item *inventory.Item, inventoryAccount, revenueAccount, costOfSalesAccount *uuid.UUID) error {
	ids := make([]uuid.UUID, 0, 3)
	for _, id := range []*uuid.UUID{inventoryAccount, revenueAccount, costOfSalesAccount} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	if len(ids) > 0 {
		accounts, err := s.repos.Accounts().FindByIDs(ctx, item.TenantID, ids)
		if err != nil {
			return err
		}
		found := make(map[uuid.UUID]bool, len(accounts))
		for i := range accounts {
			if err := accounts[i].CanPost(); err != nil {
				return err
			}
			found[accounts[i].ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return shared.NewDomainErrorf("ACCOUNT_NOT_FOUND", "Account %s does not exist", id)
			}
		}
	}
	item.SetAccounts(inventoryAccount, revenueAccount, costOfSalesAccount)
	return nil
}

// CreateWarehouse adds a stock location
func (s *ItemService) CreateWarehouse(ctx context.Context, tenantID, userID uuid.UUID, req WarehouseRequest) (*WarehouseResponse, error) {
	exists, err := s.repos.Warehouses().ExistsByCode(ctx, tenantID, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Warehouse code %s already exists", req.Code)
	}
	wh, err := inventory.NewWarehouse(tenantID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if err := wh.Update(req.Name, req.Address); err != nil {
		return nil, err
	}
	wh.SetCreatedBy(userID)
	if err := s.repos.Warehouses().Save(ctx, wh); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("warehouse created", zap.String("code", wh.Code))
	resp := ToWarehouseResponse(wh)
	return &resp, nil
}

// UpdateWarehouse changes name, address and the active flag
func (s *ItemService) UpdateWarehouse(ctx context.Context, tenantID, id uuid.UUID, req WarehouseRequest) (*WarehouseResponse, error) {
	wh, err := s.repos.Warehouses().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := wh.Update(req.Name, req.Address); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		if err := wh.SetActive(*req.IsActive); err != nil {
			return nil, err
		}
	}
	if err := s.repos.Warehouses().Save(ctx, wh); err != nil {
		return nil, err
	}
	resp := ToWarehouseResponse(wh)
	return &resp, nil
}

// ListWarehouses returns every warehouse of the tenant
func (s *ItemService) ListWarehouses(ctx context.Context, tenantID uuid.UUID) ([]WarehouseResponse, error) {
	warehouses, err := s.repos.Warehouses().FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]WarehouseResponse, len(warehouses))
	for i := range warehouses {
		out[i] = ToWarehouseResponse(&warehouses[i])
	}
	return out, nil
}
