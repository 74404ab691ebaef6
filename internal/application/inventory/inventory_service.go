package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appledger "github.com/clearbook/backend/internal/application/ledger"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// Source type recorded on movements made directly through the stock API
const SourceStockOperation = "stock_operation"

// StockService receives, issues and adjusts stock. Every operation writes
// the movement, the new balance and its voucher in one transaction.
type StockService struct {
	scope   appshared.TransactionScope
	repos   appshared.Repositories
	posting *appledger.PostingService
	events  *appshared.EventDispatcher
	logger  *zap.Logger
	now     func() time.Time
}

// NewStockService creates a new StockService
func NewStockService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	posting *appledger.PostingService,
	events *appshared.EventDispatcher,
	l *zap.Logger,
) *StockService {
	if l == nil {
		l = zap.NewNop()
	}
	return &StockService{scope: scope, repos: repos, posting: posting, events: events, logger: l, now: time.Now}
}

// stockOp is the shape shared by receipts, issues and adjustments
type stockOp struct {
	itemID      uuid.UUID
	warehouseID *uuid.UUID
	date        time.Time
	reference   string
	// build turns the loaded item into a move and the voucher lines for
	// its total cost.
	build func(item *inventory.Item, settings *ledger.AccountingSettings, onHand *inventory.StockBalance) (Move, func(total decimal.Decimal) []ledger.LineInput, error)
}

// Receive adds stock at a unit cost: Dr inventory, Cr the offset account
func (s *StockService) Receive(ctx context.Context, tenantID, userID uuid.UUID, req ReceiveStockRequest) (*StockOperationResponse, error) {
	date, err := appshared.DateOrToday("date", req.Date, s.now())
	if err != nil {
		return nil, err
	}
	return s.run(ctx, tenantID, userID, "stock received", stockOp{
		itemID:      req.ItemID,
		warehouseID: req.WarehouseID,
		date:        date,
		reference:   req.Reference,
		build: func(item *inventory.Item, settings *ledger.AccountingSettings, _ *inventory.StockBalance) (Move, func(decimal.Decimal) []ledger.LineInput, error) {
			invAccount, err := InventoryAccount(settings, item)
			if err != nil {
				return Move{}, nil, err
			}
			move := Move{Type: inventory.MovementReceipt, Quantity: req.Quantity, UnitCost: req.UnitCost}
			return move, func(total decimal.Decimal) []ledger.LineInput {
				return []ledger.LineInput{
					{AccountID: invAccount, Debit: total, Description: "Stock receipt " + item.SKU},
					{AccountID: req.OffsetAccountID, Credit: total, Description: "Stock receipt " + item.SKU},
				}
			}, nil
		},
	})
}

// Issue removes stock at average cost: Dr the expense account, Cr inventory
func (s *StockService) Issue(ctx context.Context, tenantID, userID uuid.UUID, req IssueStockRequest) (*StockOperationResponse, error) {
	date, err := appshared.DateOrToday("date", req.Date, s.now())
	if err != nil {
		return nil, err
	}
	return s.run(ctx, tenantID, userID, "stock issued", stockOp{
		itemID:      req.ItemID,
		warehouseID: req.WarehouseID,
		date:        date,
		reference:   req.Reference,
		build: func(item *inventory.Item, settings *ledger.AccountingSettings, _ *inventory.StockBalance) (Move, func(decimal.Decimal) []ledger.LineInput, error) {
			invAccount, err := InventoryAccount(settings, item)
			if err != nil {
				return Move{}, nil, err
			}
			move := Move{Type: inventory.MovementIssue, Quantity: req.Quantity}
			return move, func(total decimal.Decimal) []ledger.LineInput {
				return []ledger.LineInput{
					{AccountID: req.ExpenseAccountID, Debit: total, Description: "Stock issue " + item.SKU},
					{AccountID: invAccount, Credit: total, Description: "Stock issue " + item.SKU},
				}
			}, nil
		},
	})
}

// Adjust brings on-hand quantity to the counted figure. A surplus is
// received at the given cost (default: current average) against the
// adjustment account; a shortage is issued at average cost.
func (s *StockService) Adjust(ctx context.Context, tenantID, userID uuid.UUID, req AdjustStockRequest) (*StockOperationResponse, error) {
	date, err := appshared.DateOrToday("date", req.Date, s.now())
	if err != nil {
		return nil, err
	}
	if req.CountedQuantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Counted quantity cannot be negative")
	}
	return s.run(ctx, tenantID, userID, "stock adjusted", stockOp{
		itemID:      req.ItemID,
		warehouseID: req.WarehouseID,
		date:        date,
		reference:   req.Reason,
		build: func(item *inventory.Item, settings *ledger.AccountingSettings, onHand *inventory.StockBalance) (Move, func(decimal.Decimal) []ledger.LineInput, error) {
			invAccount, err := InventoryAccount(settings, item)
			if err != nil {
				return Move{}, nil, err
			}
			adjAccount, err := settings.Require(ledger.SettingInventoryAdjustment)
			if err != nil {
				return Move{}, nil, err
			}
			diff := req.CountedQuantity.Sub(onHand.Quantity)
			desc := "Stock adjustment " + item.SKU
			switch {
			case diff.IsZero():
				return Move{}, nil, shared.NewDomainError("INVALID_INPUT", "Counted quantity equals the quantity on hand")
			case diff.IsPositive():
				cost := onHand.AverageCost
				if req.UnitCost != nil {
					cost = *req.UnitCost
				}
				move := Move{Type: inventory.MovementAdjustmentIn, Quantity: diff, UnitCost: cost}
				return move, func(total decimal.Decimal) []ledger.LineInput {
					return []ledger.LineInput{
						{AccountID: invAccount, Debit: total, Description: desc},
						{AccountID: adjAccount, Credit: total, Description: desc},
					}
				}, nil
			default:
				move := Move{Type: inventory.MovementAdjustmentOut, Quantity: diff.Neg()}
				return move, func(total decimal.Decimal) []ledger.LineInput {
					return []ledger.LineInput{
						{AccountID: adjAccount, Debit: total, Description: desc},
						{AccountID: invAccount, Credit: total, Description: desc},
					}
				}, nil
			}
		},
	})
}

func (s *StockService) run(ctx context.Context, tenantID, userID uuid.UUID, action string, op stockOp) (*StockOperationResponse, error) {
	var (
		resp   *StockOperationResponse
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		item, err := r.Items().FindByIDForTenant(ctx, tenantID, op.itemID)
		if err != nil {
			return err
		}
		if !item.IsActive {
			return shared.NewDomainErrorf("ITEM_INACTIVE", "Item %s is inactive", item.SKU)
		}
		warehouseID, err := ResolveWarehouse(ctx, r, tenantID, op.warehouseID)
		if err != nil {
			return err
		}
		if err := appledger.CheckPeriod(ctx, r, tenantID, op.date); err != nil {
			return err
		}
		settings, err := r.Settings().FindByTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		onHand, err := r.StockBalances().FindForUpdate(ctx, tenantID, item.ID, warehouseID)
		if err != nil {
			return err
		}
		move, lines, err := op.build(item, settings, onHand)
		if err != nil {
			return err
		}
		move.Item = item
		move.WarehouseID = warehouseID
		move.Date = op.date
		move.Source = inventory.MovementSource{Type: SourceStockOperation, Reference: op.reference, UserID: userID}

		applied, err := ApplyMove(ctx, r, tenantID, move)
		if err != nil {
			return err
		}
		movementID := applied.Movement.ID
		applied.Movement.SourceID = &movementID

		voucher, err := s.posting.PostDocument(ctx, r, tenantID, userID, appledger.Document{
			Type:        ledger.VoucherTypeInventory,
			Date:        op.date,
			Description: "Stock " + strings.ReplaceAll(string(move.Type), "_", " ") + " " + item.SKU,
			Reference:   op.reference,
			SourceType:  ledger.SourceStockMovement,
			SourceID:    movementID,
			Lines:       lines(applied.Movement.TotalCost),
		})
		if err != nil {
			return err
		}
		moved, err := RecordMoves(ctx, r, voucher, applied)
		if err != nil {
			return err
		}
		events = moved
		if voucher != nil {
			events = append(events, shared.CollectEvents(voucher)...)
		}

		resp = &StockOperationResponse{
			Movement: ToMovementResponse(applied.Movement),
			Balance:  ToBalanceResponse(applied.Balance),
		}
		if voucher != nil {
			resp.VoucherID = &voucher.ID
			resp.VoucherNumber = voucher.Number
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info(action,
		zap.String("item_id", op.itemID.String()),
		zap.String("type", resp.Movement.Type),
		zap.String("quantity", resp.Movement.Quantity.String()),
		zap.String("total_cost", resp.Movement.TotalCost.StringFixed(2)),
	)
	return resp, nil
}

// ListBalances returns a page of stock balances
func (s *StockService) ListBalances(ctx context.Context, tenantID uuid.UUID, q BalanceListFilter) ([]BalanceResponse, error) {
	filter := q.ToFilter()
	if q.OrderBy == "" {
		filter.OrderBy = "updated_at"
	}
	if q.ItemID != nil {
		filter = filter.With("item_id", *q.ItemID)
	}
	if q.WarehouseID != nil {
		filter = filter.With("warehouse_id", *q.WarehouseID)
	}
	balances, err := s.repos.StockBalances().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]BalanceResponse, len(balances))
	for i := range balances {
		out[i] = ToBalanceResponse(&balances[i])
	}
	return out, nil
}

// ListMovements returns a page of stock movements, newest first
func (s *StockService) ListMovements(ctx context.Context, tenantID uuid.UUID, q MovementListFilter) (*shared.Paginated[MovementResponse], error) {
	from, err := appshared.ParseDate("from", q.From)
	if err != nil {
		return nil, err
	}
	to, err := appshared.ParseDate("to", q.To)
	if err != nil {
		return nil, err
	}
	filter := q.ToFilter()
	if q.OrderBy == "" {
		filter.OrderBy = "date"
	}
	filter = filter.With("type", q.Type).
		With("source_type", q.SourceType).
		With("from", from).
		With("to", to)
	if q.ItemID != nil {
		filter = filter.With("item_id", *q.ItemID)
	}
	if q.WarehouseID != nil {
		filter = filter.With("warehouse_id", *q.WarehouseID)
	}
	movements, err := s.repos.Movements().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Movements().CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}
