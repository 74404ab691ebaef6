package inventory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbook/backend/internal/application/apptest"
	appinventory "github.com/clearbook/backend/internal/application/inventory"
	appledger "github.com/clearbook/backend/internal/application/ledger"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
)

type services struct {
	f     *apptest.Fixture
	items *appinventory.ItemService
	stock *appinventory.StockService
}

func setup(t *testing.T) *services {
	f := apptest.New(t)
	return &services{
		f:     f,
		items: appinventory.NewItemService(f.Repos, nil),
		stock: appinventory.NewStockService(f.Scope, f.Repos, appledger.NewPostingService(), f.Events, nil),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.GetDomainError(err)
	require.Truef(t, ok, "expected domain error %s, got %v", code, err)
	assert.Equal(t, code, de.Code)
}

func (s *services) receive(t *testing.T, item *inventory.Item, qty, cost string) *appinventory.StockOperationResponse {
	t.Helper()
	res, err := s.stock.Receive(context.Background(), s.f.TenantID(), s.f.UserID, appinventory.ReceiveStockRequest{
		ItemID:          item.ID,
		Quantity:        dec(qty),
		UnitCost:        dec(cost),
		Date:            "2026-05-01",
		OffsetAccountID: s.f.Account(t, "2100"),
		Reference:       "PO-1",
	})
	require.NoError(t, err)
	return res
}

func TestStockService_ReceiveUsesWeightedAverage(t *testing.T) {
	s := setup(t)
	steel := s.f.AddItem(t, "steel", inventory.ItemTypeRawMaterial)

	first := s.receive(t, steel, "10", "5")
	assert.Equal(t, "receipt", first.Movement.Type)
	assert.Equal(t, s.f.Warehouse.ID, first.Movement.WarehouseID)
	assert.Equal(t, "IJ-2026-00001", first.VoucherNumber)
	assert.True(t, first.Balance.AverageCost.Equal(dec("5")))

	second := s.receive(t, steel, "10", "6")
	assert.Equal(t, "IJ-2026-00002", second.VoucherNumber)
	assert.True(t, second.Balance.Quantity.Equal(dec("20")))
	assert.True(t, second.Balance.AverageCost.Equal(dec("5.5")), second.Balance.AverageCost.String())
	assert.True(t, second.Movement.AverageCostAfter.Equal(dec("5.5")))

	assert.Equal(t, "110.00", s.f.Balance(t, "1200"))
	assert.Equal(t, "110.00", s.f.Balance(t, "2100"))

	types := s.f.Publisher.Types()
	assert.Contains(t, types, inventory.EventTypeStockMoved)
	assert.Contains(t, types, ledger.EventTypeVoucherPosted)

	v, err := s.f.Repos.Vouchers().FindByIDForTenant(context.Background(), s.f.TenantID(), *second.VoucherID)
	require.NoError(t, err)
	assert.Equal(t, ledger.SourceStockMovement, v.SourceType)
	assert.Equal(t, second.Movement.ID, *v.SourceID)
}

func TestStockService_IssueAtAverageCost(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	steel := s.f.AddItem(t, "steel", inventory.ItemTypeRawMaterial)
	s.receive(t, steel, "10", "5")
	s.receive(t, steel, "10", "6")

	res, err := s.stock.Issue(ctx, s.f.TenantID(), s.f.UserID, appinventory.IssueStockRequest{
		ItemID:           steel.ID,
		Quantity:         dec("4"),
		Date:             "2026-05-02",
		ExpenseAccountID: s.f.Account(t, "5900"),
	})
	require.NoError(t, err)
	assert.True(t, res.Movement.TotalCost.Equal(dec("22")), res.Movement.TotalCost.String())
	assert.True(t, res.Balance.Quantity.Equal(dec("16")))
	assert.True(t, res.Balance.AverageCost.Equal(dec("5.5")))
	assert.Equal(t, "22.00", s.f.Balance(t, "5900"))
	assert.Equal(t, "88.00", s.f.Balance(t, "1200"))

	_, err = s.stock.Issue(ctx, s.f.TenantID(), s.f.UserID, appinventory.IssueStockRequest{
		ItemID:           steel.ID,
		Quantity:         dec("17"),
		Date:             "2026-05-02",
		ExpenseAccountID: s.f.Account(t, "5900"),
	})
	assertCode(t, err, "INSUFFICIENT_STOCK")

	balances, err := s.stock.ListBalances(ctx, s.f.TenantID(), appinventory.BalanceListFilter{ItemID: &steel.ID})
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Quantity.Equal(dec("16")))
	assert.Equal(t, "88.00", s.f.Balance(t, "1200"))
}

func TestStockService_Adjust(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	steel := s.f.AddItem(t, "steel", inventory.ItemTypeRawMaterial)
	s.receive(t, steel, "16", "5.5")

	adjust := func(counted string, cost *decimal.Decimal) (*appinventory.StockOperationResponse, error) {
		return s.stock.Adjust(ctx, s.f.TenantID(), s.f.UserID, appinventory.AdjustStockRequest{
			ItemID:          steel.ID,
			CountedQuantity: dec(counted),
			UnitCost:        cost,
			Date:            "2026-05-31",
			Reason:          "May count",
		})
	}

	short, err := adjust("15", nil)
	require.NoError(t, err)
	assert.Equal(t, "adjustment_out", short.Movement.Type)
	assert.True(t, short.Movement.Quantity.Equal(dec("1")))
	assert.Equal(t, "5.50", s.f.Balance(t, "5200"))

	_, err = adjust("15", nil)
	assertCode(t, err, "INVALID_INPUT")

	cost := dec("7")
	surplus, err := adjust("20", &cost)
	require.NoError(t, err)
	assert.Equal(t, "adjustment_in", surplus.Movement.Type)
	assert.True(t, surplus.Movement.TotalCost.Equal(dec("35")))
	assert.True(t, surplus.Balance.AverageCost.Equal(dec("5.875")), surplus.Balance.AverageCost.String())
	assert.Equal(t, "-29.50", s.f.Balance(t, "5200"))
	assert.Equal(t, "117.50", s.f.Balance(t, "1200"))

	_, err = adjust("-1", nil)
	assertCode(t, err, "INVALID_QUANTITY")
}

func TestStockService_Rejections(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	consulting := s.f.AddItem(t, "consulting", inventory.ItemTypeService)
	steel := s.f.AddItem(t, "steel", inventory.ItemTypeRawMaterial)

	req := appinventory.ReceiveStockRequest{
		ItemID:          consulting.ID,
		Quantity:        dec("1"),
		UnitCost:        dec("1"),
		Date:            "2026-05-01",
		OffsetAccountID: s.f.Account(t, "2100"),
	}
	_, err := s.stock.Receive(ctx, s.f.TenantID(), s.f.UserID, req)
	assertCode(t, err, "ITEM_NOT_STOCKED")

	req.ItemID = steel.ID
	req.Date = "2027-02-01"
	_, err = s.stock.Receive(ctx, s.f.TenantID(), s.f.UserID, req)
	assertCode(t, err, ledger.CodePeriodNotFound)

	req.Date = "2026-05-01"
	req.OffsetAccountID = s.f.Account(t, "2000")
	_, err = s.stock.Receive(ctx, s.f.TenantID(), s.f.UserID, req)
	assertCode(t, err, ledger.CodeAccountNotPostable)

	missing := uuid.New()
	req.OffsetAccountID = s.f.Account(t, "2100")
	req.WarehouseID = &missing
	_, err = s.stock.Receive(ctx, s.f.TenantID(), s.f.UserID, req)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = s.f.Repos.StockBalances().Find(ctx, s.f.TenantID(), steel.ID, s.f.Warehouse.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "failed receipts must not leave a balance behind")
}

func TestStockService_FinishedGoodsAndZeroCost(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	chair := s.f.AddItem(t, "chair", inventory.ItemTypeFinishedGood)

	res := s.receive(t, chair, "2", "40")
	assert.Equal(t, "80.00", s.f.Balance(t, "1210"))
	assert.Equal(t, "0.00", s.f.Balance(t, "1200"))
	require.NotNil(t, res.VoucherID)

	free := s.receive(t, chair, "2", "0")
	assert.Nil(t, free.VoucherID)
	assert.True(t, free.Balance.AverageCost.Equal(dec("20")))

	page, err := s.stock.ListMovements(ctx, s.f.TenantID(), appinventory.MovementListFilter{ItemID: &chair.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	page, err = s.stock.ListMovements(ctx, s.f.TenantID(), appinventory.MovementListFilter{Type: "issue"})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestItemService_Items(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	tenantID := s.f.TenantID()

	item, err := s.items.CreateItem(ctx, tenantID, s.f.UserID, appinventory.CreateItemRequest{
		SKU: "tbl-01", Name: "Table", Type: "finished_good", SalePrice: dec("199.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, "TBL-01", item.SKU)
	assert.Equal(t, "pcs", item.Unit)

	_, err = s.items.CreateItem(ctx, tenantID, s.f.UserID, appinventory.CreateItemRequest{SKU: "TBL-01", Name: "Dup", Type: "service"})
	assertCode(t, err, "ALREADY_EXISTS")

	group := s.f.Account(t, "4000")
	_, err = s.items.CreateItem(ctx, tenantID, s.f.UserID, appinventory.CreateItemRequest{
		SKU: "TBL-02", Name: "Table 2", Type: "finished_good", RevenueAccountID: &group,
	})
	assertCode(t, err, ledger.CodeAccountNotPostable)

	revenue := s.f.Account(t, "4900")
	inactive := false
	updated, err := s.items.UpdateItem(ctx, tenantID, item.ID, appinventory.UpdateItemRequest{
		Name: "Oak table", Unit: "ea", SalePrice: dec("249"), IsActive: &inactive, RevenueAccountID: &revenue,
	})
	require.NoError(t, err)
	assert.Equal(t, "Oak table", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, &revenue, updated.RevenueAccountID)

	_, err = s.stock.Receive(ctx, tenantID, s.f.UserID, appinventory.ReceiveStockRequest{
		ItemID: item.ID, Quantity: dec("1"), UnitCost: dec("1"), Date: "2026-05-01", OffsetAccountID: s.f.Account(t, "2100"),
	})
	assertCode(t, err, "ITEM_INACTIVE")

	active := true
	page, err := s.items.ListItems(ctx, tenantID, appinventory.ItemListFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	page, err = s.items.ListItems(ctx, tenantID, appinventory.ItemListFilter{Type: "finished_good"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestItemService_Warehouses(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	tenantID := s.f.TenantID()

	wh, err := s.items.CreateWarehouse(ctx, tenantID, s.f.UserID, appinventory.WarehouseRequest{Code: "east", Name: "East side"})
	require.NoError(t, err)
	assert.Equal(t, "EAST", wh.Code)
	assert.False(t, wh.IsDefault)

	_, err = s.items.CreateWarehouse(ctx, tenantID, s.f.UserID, appinventory.WarehouseRequest{Code: "MAIN", Name: "Again"})
	assertCode(t, err, "ALREADY_EXISTS")

	off := false
	_, err = s.items.UpdateWarehouse(ctx, tenantID, s.f.Warehouse.ID, appinventory.WarehouseRequest{Name: "Main", IsActive: &off})
	assertCode(t, err, "DEFAULT_WAREHOUSE")

	_, err = s.items.UpdateWarehouse(ctx, tenantID, wh.ID, appinventory.WarehouseRequest{Name: "East", IsActive: &off})
	require.NoError(t, err)

	steel := s.f.AddItem(t, "steel", inventory.ItemTypeRawMaterial)
	_, err = s.stock.Receive(ctx, tenantID, s.f.UserID, appinventory.ReceiveStockRequest{
		ItemID: steel.ID, WarehouseID: &wh.ID, Quantity: dec("1"), UnitCost: dec("1"),
		Date: "2026-05-01", OffsetAccountID: s.f.Account(t, "2100"),
	})
	assertCode(t, err, "WAREHOUSE_INACTIVE")

	all, err := s.items.ListWarehouses(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
