package ledger

import (
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ChartEntry describes one account of a chart template.
type ChartEntry struct {
	Code       string
	Name       string
	Type       AccountType
	IsGroup    bool
	ParentCode string
	Setting    SettingKey
}

// DefaultChart is the chart of accounts seeded for new tenants.
var DefaultChart = []ChartEntry{
	{Code: "1000", Name: "Assets", Type: AccountTypeAsset, IsGroup: true},
	{Code: "1010", Name: "Cash on Hand", Type: AccountTypeAsset, ParentCode: "1000"},
	{Code: "1020", Name: "Bank - Operating", Type: AccountTypeAsset, ParentCode: "1000"},
	{Code: "1100", Name: "Accounts Receivable", Type: AccountTypeAsset, ParentCode: "1000", Setting: SettingReceivable},
	{Code: "1200", Name: "Inventory - Raw Materials", Type: AccountTypeAsset, ParentCode: "1000", Setting: SettingInventory},
	{Code: "1210", Name: "Inventory - Finished Goods", Type: AccountTypeAsset, ParentCode: "1000", Setting: SettingFinishedGoods},
	{Code: "2000", Name: "Liabilities", Type: AccountTypeLiability, IsGroup: true},
	{Code: "2100", Name: "Accounts Payable", Type: AccountTypeLiability, ParentCode: "2000"},
	{Code: "2200", Name: "Sales Tax Payable", Type: AccountTypeLiability, ParentCode: "2000", Setting: SettingSalesTax},
	{Code: "3000", Name: "Equity", Type: AccountTypeEquity, IsGroup: true},
	{Code: "3100", Name: "Owner's Capital", Type: AccountTypeEquity, ParentCode: "3000"},
	{Code: "3900", Name: "Retained Earnings", Type: AccountTypeEquity, ParentCode: "3000", Setting: SettingRetainedEarnings},
	{Code: "4000", Name: "Revenue", Type: AccountTypeRevenue, IsGroup: true},
	{Code: "4100", Name: "Sales Revenue", Type: AccountTypeRevenue, ParentCode: "4000", Setting: SettingSalesRevenue},
	{Code: "4900", Name: "Other Income", Type: AccountTypeRevenue, ParentCode: "4000"},
	{Code: "5000", Name: "Expenses", Type: AccountTypeExpense, IsGroup: true},
	{Code: "5100", Name: "Cost of Goods Sold", Type: AccountTypeExpense, ParentCode: "5000", Setting: SettingCostOfSales},
	{Code: "5200", Name: "Inventory Adjustments", Type: AccountTypeExpense, ParentCode: "5000", Setting: SettingInventoryAdjustment},
	{Code: "5300", Name: "Bank Charges", Type: AccountTypeExpense, ParentCode: "5000"},
	{Code: "5400", Name: "Manufacturing Overhead Applied", Type: AccountTypeExpense, ParentCode: "5000", Setting: SettingProductionOverhead},
	{Code: "5900", Name: "General Expenses", Type: AccountTypeExpense, ParentCode: "5000"},
}

// BuildChart instantiates a chart template for a tenant together with the
// settings derived from it. Parents must precede their children.
func BuildChart(tenantID uuid.UUID, entries []ChartEntry) ([]*Account, *AccountingSettings, error) {
	byCode := make(map[string]*Account, len(entries))
	accounts := make([]*Account, 0, len(entries))
	settings := NewAccountingSettings(tenantID)

	for _, e := range entries {
		acc, err := NewAccount(tenantID, e.Code, e.Name, e.Type, e.IsGroup)
		if err != nil {
			return nil, nil, err
		}
		if e.ParentCode != "" {
			parent, ok := byCode[e.ParentCode]
			if !ok {
				return nil, nil, shared.NewDomainErrorf("INVALID_PARENT", "Parent %s of %s is not defined before it", e.ParentCode, e.Code)
			}
			if err := acc.SetParent(parent); err != nil {
				return nil, nil, err
			}
		}
		if e.Setting != "" {
			if err := settings.Assign(e.Setting, acc); err != nil {
				return nil, nil, err
			}
		}
		byCode[e.Code] = acc
		accounts = append(accounts, acc)
	}
	return accounts, settings, nil
}
