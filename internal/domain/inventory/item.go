package inventory

import (
	"strings"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType classifies items.
type ItemType string

const (
	ItemTypeRawMaterial  ItemType = "raw_material"
	ItemTypeFinishedGood ItemType = "finished_good"
	ItemTypeService      ItemType = "service"
)

// IsValid checks if the item type is known
func (t ItemType) IsValid() bool {
	return t == ItemTypeRawMaterial || t == ItemTypeFinishedGood || t == ItemTypeService
}

// Item is a product, material or service that can be sold or stocked.
type Item struct {
	shared.TenantAggregateRoot
	SKU                  string
	Name                 string
	Description          string
	Unit                 string
	Type                 ItemType
	SalePrice            decimal.Decimal
	IsActive             bool
	InventoryAccountID   *uuid.UUID
	RevenueAccountID     *uuid.UUID
	CostOfSalesAccountID *uuid.UUID
}

// NewItem creates an active item.
func NewItem(tenantID uuid.UUID, sku, name, unit string, itemType ItemType) (*Item, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" || len(sku) > 50 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU must be 1-50 characters")
	}
	if !itemType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ITEM_TYPE", "Item type must be raw_material, finished_good or service")
	}
	item := &Item{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 sku,
		Type:                itemType,
		SalePrice:           decimal.Zero,
		IsActive:            true,
	}
	if err := item.Update(name, "", unit, decimal.Zero); err != nil {
		return nil, err
	}
	return item, nil
}

// Update changes the descriptive fields and the list price.
func (i *Item) Update(name, description, unit string, salePrice decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_ITEM_NAME", "Item name must be 1-200 characters")
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "pcs"
	}
	if len(unit) > 20 {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot exceed 20 characters")
	}
	if salePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Sale price cannot be negative")
	}
	i.Name = name
	i.Description = strings.TrimSpace(description)
	i.Unit = unit
	i.SalePrice = shared.RoundCost(salePrice)
	i.IncrementVersion()
	return nil
}

// SetAccounts overrides the default posting accounts. Nil keeps the
// tenant default.
func (i *Item) SetAccounts(inventoryAccount, revenueAccount, costOfSalesAccount *uuid.UUID) {
	i.InventoryAccountID = inventoryAccount
	i.RevenueAccountID = revenueAccount
	i.CostOfSalesAccountID = costOfSalesAccount
	i.IncrementVersion()
}

// IsStocked returns true for items that carry quantities and cost.
func (i *Item) IsStocked() bool {
	return i.Type != ItemTypeService
}

// SetActive toggles availability for new documents.
func (i *Item) SetActive(active bool) {
	if i.IsActive == active {
		return
	}
	i.IsActive = active
	i.IncrementVersion()
}

// Warehouse is a stock location.
type Warehouse struct {
	shared.TenantAggregateRoot
	Code      string
	Name      string
	Address   string
	IsDefault bool
	IsActive  bool
}

// NewWarehouse creates an active warehouse.
func NewWarehouse(tenantID uuid.UUID, code, name string) (*Warehouse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 20 {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE_CODE", "Warehouse code must be 1-20 characters")
	}
	w := &Warehouse{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		IsActive:            true,
	}
	if err := w.Update(name, ""); err != nil {
		return nil, err
	}
	return w, nil
}

// Update changes name and address.
func (w *Warehouse) Update(name, address string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return shared.NewDomainError("INVALID_WAREHOUSE_NAME", "Warehouse name must be 1-100 characters")
	}
	w.Name = name
	w.Address = strings.TrimSpace(address)
	w.IncrementVersion()
	return nil
}

// SetActive toggles availability. The default warehouse stays active.
func (w *Warehouse) SetActive(active bool) error {
	if !active && w.IsDefault {
		return shared.NewDomainError("DEFAULT_WAREHOUSE", "The default warehouse cannot be deactivated")
	}
	w.IsActive = active
	w.IncrementVersion()
	return nil
}
