package manufacturing

import (
	"strings"
	"time"

	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BOMComponent is one input of a bill of materials.
type BOMComponent struct {
	ID           uuid.UUID
	BOMID        uuid.UUID
	LineNo       int
	ItemID       uuid.UUID
	Quantity     decimal.Decimal // per OutputQuantity of the product
	ScrapPercent decimal.Decimal
	Notes        string
}

// ComponentInput is the caller-side shape of a component.
type ComponentInput struct {
	ItemID       uuid.UUID
	Quantity     decimal.Decimal
	ScrapPercent decimal.Decimal
	Notes        string
}

// BOM lists the components needed to produce OutputQuantity of a product.
type BOM struct {
	shared.TenantAggregateRoot
	ProductID      uuid.UUID
	Code           string
	Revision       int
	Name           string
	OutputQuantity decimal.Decimal
	Components     []BOMComponent
	IsActive       bool
	ActivatedAt    *time.Time
}

// NewBOM creates an inactive BOM for a finished good.
func NewBOM(tenantID uuid.UUID, product *inventory.Item, code string, revision int, name string, outputQuantity decimal.Decimal) (*BOM, error) {
	if product == nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}
	if product.Type != inventory.ItemTypeFinishedGood {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "BOM product must be a finished good")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_BOM_CODE", "BOM code must be 1-50 characters")
	}
	if revision < 1 {
		return nil, shared.NewDomainError("INVALID_BOM_REVISION", "BOM revision must be at least 1")
	}
	b := &BOM{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           product.ID,
		Code:                code,
		Revision:            revision,
	}
	if err := b.Update(name, outputQuantity); err != nil {
		return nil, err
	}
	return b, nil
}

// Update changes the name and output quantity.
func (b *BOM) Update(name string, outputQuantity decimal.Decimal) error {
	if !outputQuantity.IsPositive() {
		return shared.NewDomainError("INVALID_OUTPUT_QUANTITY", "Output quantity must be positive")
	}
	name = strings.TrimSpace(name)
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_BOM_NAME", "BOM name cannot exceed 200 characters")
	}
	b.Name = name
	b.OutputQuantity = outputQuantity
	b.IncrementVersion()
	return nil
}

// SetComponents replaces the component list. items must contain every
// referenced item.
func (b *BOM) SetComponents(inputs []ComponentInput, items map[uuid.UUID]*inventory.Item) error {
	if len(inputs) == 0 {
		return shared.NewDomainError("NO_COMPONENTS", "BOM must have at least one component")
	}
	seen := make(map[uuid.UUID]struct{}, len(inputs))
	components := make([]BOMComponent, 0, len(inputs))
	for i, in := range inputs {
		item, ok := items[in.ItemID]
		if !ok {
			return shared.NewDomainErrorf("INVALID_COMPONENT", "Component %d: item not found", i+1)
		}
		if in.ItemID == b.ProductID {
			return shared.NewDomainErrorf("INVALID_COMPONENT", "Component %d: a product cannot consume itself", i+1)
		}
		if !item.IsStocked() {
			return shared.NewDomainErrorf("INVALID_COMPONENT", "Component %d: %s is a service item", i+1, item.SKU)
		}
		if _, dup := seen[in.ItemID]; dup {
			return shared.NewDomainErrorf("DUPLICATE_COMPONENT", "Component %s is listed more than once", item.SKU)
		}
		seen[in.ItemID] = struct{}{}
		if !in.Quantity.IsPositive() {
			return shared.NewDomainErrorf("INVALID_QUANTITY", "Component %s: quantity must be positive", item.SKU)
		}
		if in.ScrapPercent.IsNegative() || in.ScrapPercent.GreaterThan(hundred) {
			return shared.NewDomainErrorf("INVALID_SCRAP", "Component %s: scrap must be between 0 and 100", item.SKU)
		}
		components = append(components, BOMComponent{
			ID:           uuid.New(),
			BOMID:        b.ID,
			LineNo:       i + 1,
			ItemID:       in.ItemID,
			Quantity:     in.Quantity,
			ScrapPercent: in.ScrapPercent,
			Notes:        strings.TrimSpace(in.Notes),
		})
	}
	b.Components = components
	b.IncrementVersion()
	return nil
}

// ComponentItemIDs returns the distinct component item ids.
func (b *BOM) ComponentItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Components))
	for _, c := range b.Components {
		ids = append(ids, c.ItemID)
	}
	return ids
}

// Activate marks this BOM as the one used for production. The caller
// deactivates sibling BOMs of the same product.
func (b *BOM) Activate(at time.Time) error {
	if len(b.Components) == 0 {
		return shared.NewDomainError("NO_COMPONENTS", "Cannot activate a BOM without components")
	}
	b.IsActive = true
	b.ActivatedAt = &at
	b.IncrementVersion()
	return nil
}

// Deactivate clears the active flag.
func (b *BOM) Deactivate() {
	if !b.IsActive {
		return
	}
	b.IsActive = false
	b.IncrementVersion()
}

// RequiredQuantity returns qty_per * quantity / output * (1 + scrap/100)
// rounded to 4 places.
func (c BOMComponent) RequiredQuantity(quantity, outputQuantity decimal.Decimal) decimal.Decimal {
	scrap := decimal.NewFromInt(1).Add(c.ScrapPercent.Div(hundred))
	return shared.RoundCost(c.Quantity.Mul(quantity).Div(outputQuantity).Mul(scrap))
}

// Demand is the quantity of one component needed for a production run.
type Demand struct {
	ItemID   uuid.UUID
	Required decimal.Decimal
}

// Explode returns the component demand for producing quantity units.
func (b *BOM) Explode(quantity decimal.Decimal) ([]Demand, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if len(b.Components) == 0 {
		return nil, shared.NewDomainError("NO_COMPONENTS", "BOM has no components")
	}
	demand := make([]Demand, 0, len(b.Components))
	for _, c := range b.Components {
		demand = append(demand, Demand{ItemID: c.ItemID, Required: c.RequiredQuantity(quantity, b.OutputQuantity)})
	}
	return demand, nil
}

// RequirementLine is the explosion of one component against stock on hand.
type RequirementLine struct {
	ItemID    uuid.UUID       `json:"item_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
	Shortage  decimal.Decimal `json:"shortage"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// Requirements is the full explosion result.
type Requirements struct {
	BOMID          uuid.UUID         `json:"bom_id"`
	Quantity       decimal.Decimal   `json:"quantity"`
	WarehouseID    uuid.UUID         `json:"warehouse_id"`
	Lines          []RequirementLine `json:"lines"`
	Feasible       bool              `json:"feasible"`
	EstimatedTotal decimal.Decimal   `json:"estimated_total"`
}

// BuildRequirements joins demand with items and balances. Missing
// balances count as zero stock.
func BuildRequirements(b *BOM, quantity decimal.Decimal, warehouseID uuid.UUID, items map[uuid.UUID]*inventory.Item, balances map[uuid.UUID]*inventory.StockBalance) (*Requirements, error) {
	demand, err := b.Explode(quantity)
	if err != nil {
		return nil, err
	}
	r := &Requirements{
		BOMID:          b.ID,
		Quantity:       quantity,
		WarehouseID:    warehouseID,
		Lines:          make([]RequirementLine, 0, len(demand)),
		Feasible:       true,
		EstimatedTotal: decimal.Zero,
	}
	for _, dm := range demand {
		line := RequirementLine{ItemID: dm.ItemID, Required: dm.Required, Available: decimal.Zero, UnitCost: decimal.Zero}
		if item, ok := items[dm.ItemID]; ok {
			line.SKU, line.Name, line.Unit = item.SKU, item.Name, item.Unit
		}
		if bal, ok := balances[dm.ItemID]; ok && bal != nil {
			line.Available = bal.Quantity
			line.UnitCost = bal.AverageCost
		}
		line.Shortage = decimal.Max(decimal.Zero, line.Required.Sub(line.Available))
		line.TotalCost = shared.RoundMoney(line.Required.Mul(line.UnitCost))
		if line.Shortage.IsPositive() {
			r.Feasible = false
		}
		r.EstimatedTotal = r.EstimatedTotal.Add(line.TotalCost)
		r.Lines = append(r.Lines, line)
	}
	return r, nil
}
