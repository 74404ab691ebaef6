package ledger

import (
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SettingKey names a default posting account.
type SettingKey string

const (
	SettingReceivable          SettingKey = "receivable"
	SettingSalesRevenue        SettingKey = "sales_revenue"
	SettingSalesTax            SettingKey = "sales_tax"
	SettingCostOfSales         SettingKey = "cost_of_sales"
	SettingInventory           SettingKey = "inventory"
	SettingFinishedGoods       SettingKey = "finished_goods"
	SettingInventoryAdjustment SettingKey = "inventory_adjustment"
	SettingProductionOverhead  SettingKey = "production_overhead"
	SettingRetainedEarnings    SettingKey = "retained_earnings"
)

// SettingKeys lists every key in a stable order.
var SettingKeys = []SettingKey{
	SettingReceivable, SettingSalesRevenue, SettingSalesTax, SettingCostOfSales,
	SettingInventory, SettingFinishedGoods, SettingInventoryAdjustment,
	SettingProductionOverhead, SettingRetainedEarnings,
}

// ExpectedType is the account type a setting must point at.
func (k SettingKey) ExpectedType() AccountType {
	switch k {
	case SettingReceivable, SettingInventory, SettingFinishedGoods:
		return AccountTypeAsset
	case SettingSalesRevenue:
		return AccountTypeRevenue
	case SettingSalesTax:
		return AccountTypeLiability
	case SettingRetainedEarnings:
		return AccountTypeEquity
	default:
		return AccountTypeExpense
	}
}

// AccountingSettings holds a tenant's default posting accounts.
type AccountingSettings struct {
	TenantID  uuid.UUID
	Accounts  map[SettingKey]uuid.UUID
	UpdatedAt time.Time
}

// NewAccountingSettings creates empty settings.
func NewAccountingSettings(tenantID uuid.UUID) *AccountingSettings {
	return &AccountingSettings{
		TenantID:  tenantID,
		Accounts:  make(map[SettingKey]uuid.UUID),
		UpdatedAt: time.Now(),
	}
}

// Get returns the configured account or uuid.Nil.
func (s *AccountingSettings) Get(key SettingKey) uuid.UUID {
	if s == nil || s.Accounts == nil {
		return uuid.Nil
	}
	return s.Accounts[key]
}

// Require returns the configured account or a SETTINGS_INCOMPLETE error.
func (s *AccountingSettings) Require(key SettingKey) (uuid.UUID, error) {
	id := s.Get(key)
	if id == uuid.Nil {
		return uuid.Nil, shared.NewDomainErrorf("SETTINGS_INCOMPLETE", "Default %s account is not configured", key)
	}
	return id, nil
}

// Assign validates and sets one default account.
func (s *AccountingSettings) Assign(key SettingKey, account *Account) error {
	if account == nil {
		delete(s.Accounts, key)
		s.UpdatedAt = time.Now()
		return nil
	}
	if account.TenantID != s.TenantID {
		return shared.ErrNotFound
	}
	if err := account.CanPost(); err != nil {
		return err
	}
	if account.Type != key.ExpectedType() {
		return shared.NewDomainErrorf("INVALID_SETTING", "Default %s account must be of type %s, %s is %s",
			key, key.ExpectedType(), account.Code, account.Type)
	}
	s.Accounts[key] = account.ID
	s.UpdatedAt = time.Now()
	return nil
}
