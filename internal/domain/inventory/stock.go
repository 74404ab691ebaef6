package inventory

import (
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType says why stock moved.
type MovementType string

const (
	MovementReceipt           MovementType = "receipt"
	MovementIssue             MovementType = "issue"
	MovementAdjustmentIn      MovementType = "adjustment_in"
	MovementAdjustmentOut     MovementType = "adjustment_out"
	MovementProductionIssue   MovementType = "production_issue"
	MovementProductionReceipt MovementType = "production_receipt"
	MovementSale              MovementType = "sale"
	MovementSaleReturn        MovementType = "sale_return"
)

// IsInbound returns true for movements that add stock.
func (t MovementType) IsInbound() bool {
	switch t {
	case MovementReceipt, MovementAdjustmentIn, MovementProductionReceipt, MovementSaleReturn:
		return true
	}
	return false
}

// IsValid checks if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementReceipt, MovementIssue, MovementAdjustmentIn, MovementAdjustmentOut,
		MovementProductionIssue, MovementProductionReceipt, MovementSale, MovementSaleReturn:
		return true
	}
	return false
}

// StockBalance is the on-hand quantity and moving average cost of one item
// in one warehouse.
type StockBalance struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	ItemID      uuid.UUID
	WarehouseID uuid.UUID
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
	Version     int
	UpdatedAt   time.Time
}

// NewStockBalance creates an empty balance.
func NewStockBalance(tenantID, itemID, warehouseID uuid.UUID) *StockBalance {
	return &StockBalance{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ItemID:      itemID,
		WarehouseID: warehouseID,
		Quantity:    decimal.Zero,
		AverageCost: decimal.Zero,
		Version:     0,
		UpdatedAt:   time.Now(),
	}
}

// Value returns quantity times average cost rounded to cents.
func (b *StockBalance) Value() decimal.Decimal {
	return shared.RoundMoney(b.Quantity.Mul(b.AverageCost))
}

// Receive adds stock and recomputes the weighted average cost:
// (qty*avg + in*cost) / (qty+in), rounded to 4 places. An empty (or
// negative) balance takes the incoming cost as is.
func (b *StockBalance) Receive(quantity, unitCost decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	unitCost = shared.RoundCost(unitCost)
	if !b.Quantity.IsPositive() {
		b.AverageCost = unitCost
	} else {
		totalValue := b.Quantity.Mul(b.AverageCost).Add(quantity.Mul(unitCost))
		b.AverageCost = shared.RoundCost(totalValue.Div(b.Quantity.Add(quantity)))
	}
	b.Quantity = b.Quantity.Add(quantity)
	b.touch()
	return nil
}

// Issue removes stock at the current average cost and returns the cost of
// the issued quantity rounded to cents.
func (b *StockBalance) Issue(quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity.GreaterThan(b.Quantity) {
		return decimal.Zero, shared.NewDomainErrorf(shared.ErrInsufficientStock.Code,
			"Insufficient stock: requested %s, on hand %s", quantity.String(), b.Quantity.String())
	}
	cost := shared.RoundMoney(quantity.Mul(b.AverageCost))
	b.Quantity = b.Quantity.Sub(quantity)
	b.touch()
	return cost, nil
}

func (b *StockBalance) touch() {
	b.Version++
	b.UpdatedAt = time.Now()
}

// StockMovement is an append-only record of one stock change.
type StockMovement struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	ItemID           uuid.UUID
	WarehouseID      uuid.UUID
	Type             MovementType
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal
	TotalCost        decimal.Decimal
	BalanceAfter     decimal.Decimal
	AverageCostAfter decimal.Decimal
	Date             time.Time
	SourceType       string
	SourceID         *uuid.UUID
	Reference        string
	VoucherID        *uuid.UUID
	CreatedBy        *uuid.UUID
	CreatedAt        time.Time
}

// SignedQuantity is positive for inbound and negative for outbound moves.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.Type.IsInbound() {
		return m.Quantity
	}
	return m.Quantity.Neg()
}

// MovementSource identifies the document behind a movement.
type MovementSource struct {
	Type      string
	ID        *uuid.UUID
	Reference string
	UserID    uuid.UUID
}

// ReceiveMovement applies an inbound movement and records it.
func (b *StockBalance) ReceiveMovement(t MovementType, quantity, unitCost decimal.Decimal, date time.Time, src MovementSource) (*StockMovement, error) {
	if !t.IsInbound() {
		return nil, shared.NewDomainErrorf("INVALID_MOVEMENT", "%s is not an inbound movement", t)
	}
	if err := b.Receive(quantity, unitCost); err != nil {
		return nil, err
	}
	cost := shared.RoundCost(unitCost)
	return b.newMovement(t, quantity, cost, shared.RoundMoney(quantity.Mul(cost)), date, src), nil
}

// IssueMovement applies an outbound movement at average cost and records it.
func (b *StockBalance) IssueMovement(t MovementType, quantity decimal.Decimal, date time.Time, src MovementSource) (*StockMovement, error) {
	if t.IsInbound() || !t.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_MOVEMENT", "%s is not an outbound movement", t)
	}
	unitCost := b.AverageCost
	total, err := b.Issue(quantity)
	if err != nil {
		return nil, err
	}
	return b.newMovement(t, quantity, unitCost, total, date, src), nil
}

func (b *StockBalance) newMovement(t MovementType, quantity, unitCost, total decimal.Decimal, date time.Time, src MovementSource) *StockMovement {
	m := &StockMovement{
		ID:               uuid.New(),
		TenantID:         b.TenantID,
		ItemID:           b.ItemID,
		WarehouseID:      b.WarehouseID,
		Type:             t,
		Quantity:         quantity,
		UnitCost:         unitCost,
		TotalCost:        total,
		BalanceAfter:     b.Quantity,
		AverageCostAfter: b.AverageCost,
		Date:             shared.DateOnly(date),
		SourceType:       src.Type,
		SourceID:         src.ID,
		Reference:        src.Reference,
		CreatedAt:        time.Now(),
	}
	if src.UserID != uuid.Nil {
		uid := src.UserID
		m.CreatedBy = &uid
	}
	return m
}

// ValuationLine is one row of a stock valuation report.
type ValuationLine struct {
	ItemID        uuid.UUID       `json:"item_id"`
	SKU           string          `json:"sku"`
	ItemName      string          `json:"item_name"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	WarehouseCode string          `json:"warehouse_code"`
	Quantity      decimal.Decimal `json:"quantity"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	Value         decimal.Decimal `json:"value"`
}
