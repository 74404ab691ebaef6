package manufacturing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appinventory "github.com/clearbook/backend/internal/application/inventory"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/manufacturing"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// BOMService manages bills of materials
type BOMService struct {
	scope  appshared.TransactionScope
	repos  appshared.Repositories
	events *appshared.EventDispatcher
	logger *zap.Logger
	now    func() time.Time
}

// NewBOMService creates a new BOMService
func NewBOMService(scope appshared.TransactionScope, repos appshared.Repositories, events *appshared.EventDispatcher, l *zap.Logger) *BOMService {
	if l == nil {
		l = zap.NewNop()
	}
	return &BOMService{scope: scope, repos: repos, events: events, logger: l, now: time.Now}
}

// Create adds an inactive BOM for a finished good
func (s *BOMService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateBOMRequest) (*BOMResponse, error) {
	revision := req.Revision
	if revision == 0 {
		revision = 1
	}
	exists, err := s.repos.BOMs().ExistsByCodeRevision(ctx, tenantID, req.Code, revision)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "BOM %s revision %d already exists", req.Code, revision)
	}
	product, err := s.repos.Items().FindByIDForTenant(ctx, tenantID, req.ProductID)
	if err != nil {
		return nil, err
	}
	bom, err := manufacturing.NewBOM(tenantID, product, req.Code, revision, req.Name, req.OutputQuantity)
	if err != nil {
		return nil, err
	}
	if err := s.setComponents(ctx, tenantID, bom, req.Components); err != nil {
		return nil, err
	}
	bom.SetCreatedBy(userID)
	if err := s.repos.BOMs().Save(ctx, bom); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("bom created",
		zap.String("code", bom.Code),
		zap.Int("revision", bom.Revision),
		zap.Int("components", len(bom.Components)))
	resp := ToBOMResponse(bom)
	return &resp, nil
}

// Update replaces name, output quantity and components. Orders already
// created keep the quantities they were planned with; completion explodes
// the BOM as it is at that time.
func (s *BOMService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateBOMRequest) (*BOMResponse, error) {
	bom, err := s.repos.BOMs().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := bom.Update(req.Name, req.OutputQuantity); err != nil {
		return nil, err
	}
	if err := s.setComponents(ctx, tenantID, bom, req.Components); err != nil {
		return nil, err
	}
	if err := s.repos.BOMs().Save(ctx, bom); err != nil {
		return nil, err
	}
	resp := ToBOMResponse(bom)
	return &resp, nil
}

func (s *BOMService) setComponents(ctx context.Context, tenantID uuid.UUID, bom *manufacturing.BOM, reqs []ComponentRequest) error {
	inputs := make([]manufacturing.ComponentInput, len(reqs))
	ids := make([]uuid.UUID, len(reqs))
	for i, c := range reqs {
		inputs[i] = manufacturing.ComponentInput{
			ItemID:       c.ItemID,
			Quantity:     c.Quantity,
			ScrapPercent: c.ScrapPercent,
			Notes:        c.Notes,
		}
		ids[i] = c.ItemID
	}
	items, err := itemMap(ctx, s.repos, tenantID, ids)
	if err != nil {
		return err
	}
	return bom.SetComponents(inputs, items)
}

// Activate makes the BOM the one used for its product and deactivates
// every other revision.
func (s *BOMService) Activate(ctx context.Context, tenantID, userID, id uuid.UUID) (*BOMResponse, error) {
	var (
		bom    *manufacturing.BOM
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		bom, err = r.BOMs().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		siblings, err := r.BOMs().FindByProduct(ctx, tenantID, bom.ProductID)
		if err != nil {
			return err
		}
		for i := range siblings {
			other := &siblings[i]
			if other.ID == bom.ID || !other.IsActive {
				continue
			}
			other.Deactivate()
			if err := r.BOMs().Save(ctx, other); err != nil {
				return err
			}
		}
		if err := bom.Activate(s.now()); err != nil {
			return err
		}
		if err := r.BOMs().Save(ctx, bom); err != nil {
			return err
		}
		events = append(events, manufacturing.NewBOMActivatedEvent(bom, userID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info("bom activated",
		zap.String("code", bom.Code),
		zap.Int("revision", bom.Revision),
		zap.String("product_id", bom.ProductID.String()))
	resp := ToBOMResponse(bom)
	return &resp, nil
}

// Deactivate clears the active flag. The product cannot be produced until
// another BOM is activated.
func (s *BOMService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*BOMResponse, error) {
	bom, err := s.repos.BOMs().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	bom.Deactivate()
	if err := s.repos.BOMs().Save(ctx, bom); err != nil {
		return nil, err
	}
	resp := ToBOMResponse(bom)
	return &resp, nil
}

// Get returns one BOM with its components
func (s *BOMService) Get(ctx context.Context, tenantID, id uuid.UUID) (*BOMResponse, error) {
	bom, err := s.repos.BOMs().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToBOMResponse(bom)
	return &resp, nil
}

// List returns a page of BOMs
func (s *BOMService) List(ctx context.Context, tenantID uuid.UUID, q BOMListFilter) (*shared.Paginated[BOMResponse], error) {
	filter := q.ToFilter()
	if q.OrderBy == "" {
		filter.OrderBy = "code"
		filter.OrderDir = "asc"
	}
	if q.ProductID != nil {
		filter = filter.With("product_id", *q.ProductID)
	}
	if q.IsActive != nil {
		filter = filter.With("is_active", *q.IsActive)
	}
	boms, err := s.repos.BOMs().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.BOMs().CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]BOMResponse, len(boms))
	for i := range boms {
		out[i] = ToBOMResponse(&boms[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Requirements explodes the BOM for a quantity against the stock of a
// warehouse (default warehouse when none is given).
func (s *BOMService) Requirements(ctx context.Context, tenantID, id uuid.UUID, q RequirementsQuery) (*manufacturing.Requirements, error) {
	bom, err := s.repos.BOMs().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	quantity := q.Quantity
	if quantity.IsZero() {
		quantity = bom.OutputQuantity
	}
	warehouseID, err := appinventory.ResolveWarehouse(ctx, s.repos, tenantID, q.WarehouseID)
	if err != nil {
		return nil, err
	}
	ids := bom.ComponentItemIDs()
	items, err := itemMap(ctx, s.repos, tenantID, ids)
	if err != nil {
		return nil, err
	}
	balances := make(map[uuid.UUID]*inventory.StockBalance, len(ids))
	for _, itemID := range ids {
		bal, err := s.repos.StockBalances().Find(ctx, tenantID, itemID, warehouseID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		balances[itemID] = bal
	}
	return manufacturing.BuildRequirements(bom, quantity, warehouseID, items, balances)
}

// itemMap loads items by id keyed for the domain helpers. Unknown ids are
// simply absent from the map.
func itemMap(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*inventory.Item, error) {
	items, err := r.Items().FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*inventory.Item, len(items))
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}
