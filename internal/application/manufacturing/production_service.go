package manufacturing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appinventory "github.com/clearbook/backend/internal/application/inventory"
	appledger "github.com/clearbook/backend/internal/application/ledger"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/manufacturing"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// ProductionService plans and completes production orders
type ProductionService struct {
	scope   appshared.TransactionScope
	repos   appshared.Repositories
	posting *appledger.PostingService
	events  *appshared.EventDispatcher
	logger  *zap.Logger
	now     func() time.Time
}

// NewProductionService creates a new ProductionService
func NewProductionService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	posting *appledger.PostingService,
	events *appshared.EventDispatcher,
	l *zap.Logger,
) *ProductionService {
	if l == nil {
		l = zap.NewNop()
	}
	return &ProductionService{scope: scope, repos: repos, posting: posting, events: events, logger: l, now: time.Now}
}

// Create plans a draft order against the product's active BOM. The MO
// number is taken from the sequence of the planned date's year.
func (s *ProductionService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	plannedDate, err := appshared.DateOrToday("planned_date", req.PlannedDate, s.now())
	if err != nil {
		return nil, err
	}
	var order *manufacturing.ProductionOrder
	err = s.scope.Execute(ctx, func(r appshared.Repositories) error {
		bom, err := activeBOM(ctx, r, tenantID, req.ProductID, req.BOMID)
		if err != nil {
			return err
		}
		warehouseID, err := appinventory.ResolveWarehouse(ctx, r, tenantID, req.WarehouseID)
		if err != nil {
			return err
		}
		if _, err := r.Warehouses().FindByIDForTenant(ctx, tenantID, warehouseID); err != nil {
			return err
		}
		seq, err := r.Sequences().Next(ctx, tenantID, ledger.PrefixProductionOrder, plannedDate.Year())
		if err != nil {
			return err
		}
		number := ledger.FormatDocumentNumber(ledger.PrefixProductionOrder, plannedDate.Year(), seq)
		order, err = manufacturing.NewProductionOrder(tenantID, number, bom, warehouseID, req.Quantity, req.ConversionCost, plannedDate)
		if err != nil {
			return err
		}
		order.Notes = req.Notes
		order.SetCreatedBy(userID)
		return r.ProductionOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("production order created",
		zap.String("number", order.Number),
		zap.String("quantity", order.PlannedQuantity.String()))
	resp := ToOrderResponse(order)
	return &resp, nil
}

// activeBOM loads the requested BOM, or the product's active one.
func activeBOM(ctx context.Context, r appshared.Repositories, tenantID, productID uuid.UUID, bomID *uuid.UUID) (*manufacturing.BOM, error) {
	var (
		bom *manufacturing.BOM
		err error
	)
	if bomID != nil {
		bom, err = r.BOMs().FindByIDForTenant(ctx, tenantID, *bomID)
	} else {
		bom, err = r.BOMs().FindActiveForProduct(ctx, tenantID, productID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BOM_NOT_ACTIVE", "Product has no active BOM")
		}
	}
	if err != nil {
		return nil, err
	}
	if bom.ProductID != productID {
		return nil, shared.NewDomainError("INVALID_BOM", "BOM does not produce this product")
	}
	return bom, nil
}

// Update changes quantity, conversion cost, planned date and notes of a
// draft order
func (s *ProductionService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	plannedDate, err := appshared.ParseRequiredDate("planned_date", req.PlannedDate)
	if err != nil {
		return nil, err
	}
	var order *manufacturing.ProductionOrder
	err = s.scope.Execute(ctx, func(r appshared.Repositories) error {
		order, err = r.ProductionOrders().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := order.Update(req.Quantity, req.ConversionCost, plannedDate, req.Notes); err != nil {
			return err
		}
		return r.ProductionOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// Release makes a draft order ready to be completed
func (s *ProductionService) Release(ctx context.Context, tenantID, id uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, tenantID, id, "production order released", func(o *manufacturing.ProductionOrder) error {
		return o.Release(s.now())
	})
}

// Cancel stops a draft or released order. No stock has moved yet, so
// there is nothing to reverse.
func (s *ProductionService) Cancel(ctx context.Context, tenantID, id uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	return s.transition(ctx, tenantID, id, "production order cancelled", func(o *manufacturing.ProductionOrder) error {
		return o.Cancel(req.Reason, s.now())
	})
}

func (s *ProductionService) transition(ctx context.Context, tenantID, id uuid.UUID, action string, apply func(*manufacturing.ProductionOrder) error) (*OrderResponse, error) {
	var order *manufacturing.ProductionOrder
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		order, err = r.ProductionOrders().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := apply(order); err != nil {
			return err
		}
		return r.ProductionOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, shared.CollectEvents(order))
	logger.Enrich(ctx, s.logger).Info(action, zap.String("number", order.Number))
	resp := ToOrderResponse(order)
	return &resp, nil
}

// Complete consumes the components at weighted-average cost, receives the
// product at the resulting unit cost and posts the production voucher, all
// in one transaction. Any component shortage aborts the whole completion.
func (s *ProductionService) Complete(ctx context.Context, tenantID, userID, id uuid.UUID, req CompleteOrderRequest) (*OrderResponse, error) {
	date, err := appshared.DateOrToday("date", req.Date, s.now())
	if err != nil {
		return nil, err
	}
	var (
		order  *manufacturing.ProductionOrder
		events []shared.DomainEvent
	)
	err = s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		order, err = r.ProductionOrders().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := order.CanComplete(); err != nil {
			return err
		}
		produced := order.PlannedQuantity
		if req.ProducedQuantity != nil {
			produced = *req.ProducedQuantity
		}
		if !produced.IsPositive() {
			return shared.NewDomainError("INVALID_QUANTITY", "Produced quantity must be positive")
		}
		if err := appledger.CheckPeriod(ctx, r, tenantID, date); err != nil {
			return err
		}

		bom, err := r.BOMs().FindByIDForTenant(ctx, tenantID, order.BOMID)
		if err != nil {
			return err
		}
		demand, err := bom.Explode(produced)
		if err != nil {
			return err
		}
		items, err := itemMap(ctx, r, tenantID, append(bom.ComponentItemIDs(), order.ProductID))
		if err != nil {
			return err
		}
		product, ok := items[order.ProductID]
		if !ok {
			return shared.ErrNotFound
		}
		settings, err := r.Settings().FindByTenant(ctx, tenantID)
		if err != nil {
			return err
		}

		orderID := order.ID
		source := inventory.MovementSource{
			Type:      string(ledger.SourceProductionOrder),
			ID:        &orderID,
			Reference: order.Number,
			UserID:    userID,
		}

		applied := make([]*appinventory.Applied, 0, len(demand)+1)
		consumptions := make([]manufacturing.Consumption, 0, len(demand))
		var lines appledger.LineSet
		for _, d := range demand {
			item, ok := items[d.ItemID]
			if !ok {
				return shared.NewDomainErrorf("INVALID_COMPONENT", "Component item %s no longer exists", d.ItemID)
			}
			issued, err := appinventory.ApplyMove(ctx, r, tenantID, appinventory.Move{
				Item:        item,
				WarehouseID: order.WarehouseID,
				Type:        inventory.MovementProductionIssue,
				Quantity:    d.Required,
				Date:        date,
				Source:      source,
			})
			if err != nil {
				return err
			}
			account, err := appinventory.InventoryAccount(settings, item)
			if err != nil {
				return err
			}
			lines.Credit(account, issued.Movement.TotalCost, order.Reference())
			applied = append(applied, issued)
			consumptions = append(consumptions, manufacturing.Consumption{
				ItemID:     item.ID,
				Quantity:   issued.Movement.Quantity,
				UnitCost:   issued.Movement.UnitCost,
				TotalCost:  issued.Movement.TotalCost,
				MovementID: issued.Movement.ID,
			})
		}

		cost, err := manufacturing.ComputeCost(consumptions, order.ConversionCost, produced)
		if err != nil {
			return err
		}
		received, err := appinventory.ApplyMove(ctx, r, tenantID, appinventory.Move{
			Item:        product,
			WarehouseID: order.WarehouseID,
			Type:        inventory.MovementProductionReceipt,
			Quantity:    produced,
			UnitCost:    cost.UnitCost,
			Date:        date,
			Source:      source,
		})
		if err != nil {
			return err
		}
		applied = append(applied, received)

		fgAccount, err := appinventory.InventoryAccount(settings, product)
		if err != nil {
			return err
		}
		lines.Debit(fgAccount, cost.TotalCost, order.Reference())
		if order.ConversionCost.IsPositive() {
			overhead, err := settings.Require(ledger.SettingProductionOverhead)
			if err != nil {
				return err
			}
			lines.Credit(overhead, order.ConversionCost, order.Reference())
		}
		voucher, err := s.posting.PostDocument(ctx, r, tenantID, userID, appledger.Document{
			Type:        ledger.VoucherTypeProduction,
			Date:        date,
			Description: order.Reference(),
			Reference:   order.Number,
			SourceType:  ledger.SourceProductionOrder,
			SourceID:    order.ID,
			Lines:       lines.Lines(),
		})
		if err != nil {
			return err
		}
		moved, err := appinventory.RecordMoves(ctx, r, voucher, applied...)
		if err != nil {
			return err
		}

		voucherID := uuid.Nil
		if voucher != nil {
			voucherID = voucher.ID
		}
		if err := order.Complete(produced, date, consumptions, voucherID, userID); err != nil {
			return err
		}
		if voucher == nil {
			// nothing was posted for a zero-cost run
			order.VoucherID = nil
		}
		if err := r.ProductionOrders().Save(ctx, order); err != nil {
			return err
		}

		events = moved
		if voucher != nil {
			events = append(events, shared.CollectEvents(voucher)...)
		}
		events = append(events, shared.CollectEvents(order)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info("production completed",
		zap.String("number", order.Number),
		zap.String("produced", order.ProducedQuantity.String()),
		zap.String("material_cost", order.MaterialCost.StringFixed(2)),
		zap.String("total_cost", order.TotalCost.StringFixed(2)),
		zap.String("unit_cost", order.UnitCost.StringFixed(4)))
	resp := ToOrderResponse(order)
	return &resp, nil
}

// Get returns one production order with its consumptions
func (s *ProductionService) Get(ctx context.Context, tenantID, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.repos.ProductionOrders().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// List returns a page of production orders, newest first
func (s *ProductionService) List(ctx context.Context, tenantID uuid.UUID, q OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	from, err := appshared.ParseDate("from", q.From)
	if err != nil {
		return nil, err
	}
	to, err := appshared.ParseDate("to", q.To)
	if err != nil {
		return nil, err
	}
	filter := q.ToFilter()
	filter = filter.With("status", q.Status).
		With("from", from).
		With("to", to)
	if q.ProductID != nil {
		filter = filter.With("product_id", *q.ProductID)
	}
	orders, err := s.repos.ProductionOrders().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.ProductionOrders().CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}
