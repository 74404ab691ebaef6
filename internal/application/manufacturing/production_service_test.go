package manufacturing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbook/backend/internal/application/apptest"
	appinventory "github.com/clearbook/backend/internal/application/inventory"
	appledger "github.com/clearbook/backend/internal/application/ledger"
	appmfg "github.com/clearbook/backend/internal/application/manufacturing"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/manufacturing"
	"github.com/clearbook/backend/internal/domain/shared"
)

type services struct {
	f          *apptest.Fixture
	stock      *appinventory.StockService
	boms       *appmfg.BOMService
	production *appmfg.ProductionService

	wood, glue, table *inventory.Item
}

func setup(t *testing.T) *services {
	f := apptest.New(t)
	posting := appledger.NewPostingService()
	s := &services{
		f:          f,
		stock:      appinventory.NewStockService(f.Scope, f.Repos, posting, f.Events, nil),
		boms:       appmfg.NewBOMService(f.Scope, f.Repos, f.Events, nil),
		production: appmfg.NewProductionService(f.Scope, f.Repos, posting, f.Events, nil),
	}
	s.wood = f.AddItem(t, "wood", inventory.ItemTypeRawMaterial)
	s.glue = f.AddItem(t, "glue", inventory.ItemTypeRawMaterial)
	s.table = f.AddItem(t, "table", inventory.ItemTypeFinishedGood)
	return s
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.GetDomainError(err)
	require.Truef(t, ok, "expected domain error %s, got %v", code, err)
	assert.Equal(t, code, de.Code)
}

func (s *services) receive(t *testing.T, item *inventory.Item, qty, cost string) {
	t.Helper()
	_, err := s.stock.Receive(context.Background(), s.f.TenantID(), s.f.UserID, appinventory.ReceiveStockRequest{
		ItemID:          item.ID,
		Quantity:        dec(qty),
		UnitCost:        dec(cost),
		Date:            "2026-05-01",
		OffsetAccountID: s.f.Account(t, "2100"),
	})
	require.NoError(t, err)
}

// tableBOM needs 4 wood with 10% scrap and half a unit of glue per table.
func (s *services) tableBOM(t *testing.T, revision int) *appmfg.BOMResponse {
	t.Helper()
	bom, err := s.boms.Create(context.Background(), s.f.TenantID(), s.f.UserID, appmfg.CreateBOMRequest{
		ProductID:      s.table.ID,
		Code:           "tbl",
		Revision:       revision,
		Name:           "Dining table",
		OutputQuantity: dec("1"),
		Components: []appmfg.ComponentRequest{
			{ItemID: s.wood.ID, Quantity: dec("4"), ScrapPercent: dec("10")},
			{ItemID: s.glue.ID, Quantity: dec("0.5")},
		},
	})
	require.NoError(t, err)
	return bom
}

func (s *services) releasedOrder(t *testing.T, qty, conversion string) *appmfg.OrderResponse {
	t.Helper()
	ctx := context.Background()
	order, err := s.production.Create(ctx, s.f.TenantID(), s.f.UserID, appmfg.CreateOrderRequest{
		ProductID:      s.table.ID,
		Quantity:       dec(qty),
		ConversionCost: dec(conversion),
		PlannedDate:    "2026-06-01",
	})
	require.NoError(t, err)
	order, err = s.production.Release(ctx, s.f.TenantID(), order.ID)
	require.NoError(t, err)
	return order
}

func TestBOMService_CreateAndActivate(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	first := s.tableBOM(t, 1)
	assert.Equal(t, "TBL", first.Code)
	assert.False(t, first.IsActive)
	require.Len(t, first.Components, 2)

	_, err := s.boms.Create(ctx, s.f.TenantID(), s.f.UserID, appmfg.CreateBOMRequest{
		ProductID: s.table.ID, Code: "TBL", Revision: 1, OutputQuantity: dec("1"),
		Components: []appmfg.ComponentRequest{{ItemID: s.wood.ID, Quantity: dec("1")}},
	})
	assertCode(t, err, "ALREADY_EXISTS")

	second := s.tableBOM(t, 2)

	_, err = s.boms.Activate(ctx, s.f.TenantID(), s.f.UserID, first.ID)
	require.NoError(t, err)
	activated, err := s.boms.Activate(ctx, s.f.TenantID(), s.f.UserID, second.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	reloaded, err := s.boms.Get(ctx, s.f.TenantID(), first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive, "activating revision 2 deactivates revision 1")

	active := true
	page, err := s.boms.List(ctx, s.f.TenantID(), appmfg.BOMListFilter{ProductID: &s.table.ID, IsActive: &active})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Items[0].Revision)

	assert.Contains(t, s.f.Publisher.Types(), manufacturing.EventTypeBOMActivated)
}

func TestBOMService_RejectsInvalidStructure(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	_, err := s.boms.Create(ctx, s.f.TenantID(), s.f.UserID, appmfg.CreateBOMRequest{
		ProductID: s.wood.ID, Code: "W", OutputQuantity: dec("1"),
		Components: []appmfg.ComponentRequest{{ItemID: s.glue.ID, Quantity: dec("1")}},
	})
	assertCode(t, err, "INVALID_PRODUCT")

	_, err = s.boms.Create(ctx, s.f.TenantID(), s.f.UserID, appmfg.CreateBOMRequest{
		ProductID: s.table.ID, Code: "SELF", OutputQuantity: dec("1"),
		Components: []appmfg.ComponentRequest{{ItemID: s.table.ID, Quantity: dec("1")}},
	})
	assertCode(t, err, "INVALID_COMPONENT")

	_, err = s.boms.Create(ctx, s.f.TenantID(), s.f.UserID, appmfg.CreateBOMRequest{
		ProductID: s.table.ID, Code: "DUP", OutputQuantity: dec("1"),
		Components: []appmfg.ComponentRequest{
			{ItemID: s.wood.ID, Quantity: dec("1")},
			{ItemID: s.wood.ID, Quantity: dec("2")},
		},
	})
	assertCode(t, err, "DUPLICATE_COMPONENT")
}

func TestBOMService_Requirements(t *testing.T) {
	s := setup(t)
	s.receive(t, s.wood, "100", "2.50")
	bom := s.tableBOM(t, 1)

	req, err := s.boms.Requirements(context.Background(), s.f.TenantID(), bom.ID, appmfg.RequirementsQuery{Quantity: dec("10")})
	require.NoError(t, err)
	require.Len(t, req.Lines, 2)
	assert.Equal(t, s.f.Warehouse.ID, req.WarehouseID)

	wood := req.Lines[0]
	assert.True(t, wood.Required.Equal(dec("44")), wood.Required.String())
	assert.True(t, wood.Available.Equal(dec("100")))
	assert.True(t, wood.Shortage.IsZero())
	assert.Equal(t, "110.00", wood.TotalCost.StringFixed(2))

	glue := req.Lines[1]
	assert.True(t, glue.Required.Equal(dec("5")))
	assert.True(t, glue.Available.IsZero())
	assert.True(t, glue.Shortage.Equal(dec("5")))

	assert.False(t, req.Feasible)
	assert.Equal(t, "110.00", req.EstimatedTotal.StringFixed(2))
}

func TestProductionService_CompletePostsCostedVoucher(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	s.receive(t, s.wood, "100", "2.50")
	s.receive(t, s.glue, "10", "4")
	bom := s.tableBOM(t, 1)
	_, err := s.boms.Activate(ctx, s.f.TenantID(), s.f.UserID, bom.ID)
	require.NoError(t, err)

	order, err := s.production.Create(ctx, s.f.TenantID(), s.f.UserID, appmfg.CreateOrderRequest{
		ProductID:      s.table.ID,
		Quantity:       dec("10"),
		ConversionCost: dec("50"),
		PlannedDate:    "2026-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "MO-2026-00001", order.Number)
	assert.Equal(t, "draft", order.Status)
	assert.Equal(t, bom.ID, order.BOMID)

	_, err = s.production.Complete(ctx, s.f.TenantID(), s.f.UserID, order.ID, appmfg.CompleteOrderRequest{Date: "2026-06-02"})
	assertCode(t, err, "INVALID_STATE")

	_, err = s.production.Release(ctx, s.f.TenantID(), order.ID)
	require.NoError(t, err)
	s.f.Publisher.Reset()

	done, err := s.production.Complete(ctx, s.f.TenantID(), s.f.UserID, order.ID, appmfg.CompleteOrderRequest{Date: "2026-06-02"})
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	assert.Equal(t, "2026-06-02", done.CompletedDate)
	assert.True(t, done.ProducedQuantity.Equal(dec("10")))
	assert.Equal(t, "130.00", done.MaterialCost.StringFixed(2))
	assert.Equal(t, "180.00", done.TotalCost.StringFixed(2))
	assert.Equal(t, "18.0000", done.UnitCost.StringFixed(4))
	require.Len(t, done.Consumptions, 2)
	require.NotNil(t, done.VoucherID)

	// wood 290 received less 130 consumed; table 180 produced; overhead applied 50
	assert.Equal(t, "160.00", s.f.Balance(t, "1200"))
	assert.Equal(t, "180.00", s.f.Balance(t, "1210"))
	assert.Equal(t, "-50.00", s.f.Balance(t, "5400"))

	v, err := s.f.Repos.Vouchers().FindByIDForTenant(ctx, s.f.TenantID(), *done.VoucherID)
	require.NoError(t, err)
	assert.Equal(t, "PJ-2026-00001", v.Number)
	assert.Equal(t, ledger.SourceProductionOrder, v.SourceType)
	assert.Equal(t, order.ID, *v.SourceID)

	fg, err := s.f.Repos.StockBalances().Find(ctx, s.f.TenantID(), s.table.ID, s.f.Warehouse.ID)
	require.NoError(t, err)
	assert.True(t, fg.Quantity.Equal(dec("10")))
	assert.True(t, fg.AverageCost.Equal(dec("18")))

	moves, err := s.f.Repos.Movements().FindBySource(ctx, s.f.TenantID(), string(ledger.SourceProductionOrder), order.ID)
	require.NoError(t, err)
	assert.Len(t, moves, 3)
	for _, m := range moves {
		require.NotNil(t, m.VoucherID)
		assert.Equal(t, v.ID, *m.VoucherID)
	}

	assert.Contains(t, s.f.Publisher.Types(), manufacturing.EventTypeProductionCompleted)

	_, err = s.production.Complete(ctx, s.f.TenantID(), s.f.UserID, order.ID, appmfg.CompleteOrderRequest{Date: "2026-06-02"})
	assertCode(t, err, "INVALID_STATE")
}

func TestProductionService_ShortageRollsBackEverything(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	s.receive(t, s.wood, "200", "2.50")
	s.receive(t, s.glue, "10", "4")
	bom := s.tableBOM(t, 1)
	_, err := s.boms.Activate(ctx, s.f.TenantID(), s.f.UserID, bom.ID)
	require.NoError(t, err)

	// 30 tables need 15 glue
	order := s.releasedOrder(t, "30", "0")
	_, err = s.production.Complete(ctx, s.f.TenantID(), s.f.UserID, order.ID, appmfg.CompleteOrderRequest{Date: "2026-06-02"})
	assertCode(t, err, shared.ErrInsufficientStock.Code)

	wood, err := s.f.Repos.StockBalances().Find(ctx, s.f.TenantID(), s.wood.ID, s.f.Warehouse.ID)
	require.NoError(t, err)
	assert.True(t, wood.Quantity.Equal(dec("200")), "wood issue is rolled back")
	assert.Equal(t, "540.00", s.f.Balance(t, "1200"))
	assert.Equal(t, "0.00", s.f.Balance(t, "1210"))

	reloaded, err := s.production.Get(ctx, s.f.TenantID(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "released", reloaded.Status)
	assert.Empty(t, reloaded.Consumptions)

	// a partial run within stock succeeds
	done, err := s.production.Complete(ctx, s.f.TenantID(), s.f.UserID, order.ID, appmfg.CompleteOrderRequest{
		ProducedQuantity: ptr(dec("20")),
		Date:             "2026-06-03",
	})
	require.NoError(t, err)
	assert.True(t, done.ProducedQuantity.Equal(dec("20")))
	assert.True(t, done.PlannedQuantity.Equal(dec("30")))
}

func TestProductionService_CreateNeedsActiveBOM(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	s.tableBOM(t, 1)

	_, err := s.production.Create(ctx, s.f.TenantID(), s.f.UserID, appmfg.CreateOrderRequest{
		ProductID: s.table.ID,
		Quantity:  dec("1"),
	})
	assertCode(t, err, "BOM_NOT_ACTIVE")
}

func TestProductionService_CancelAndList(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	bom := s.tableBOM(t, 1)
	_, err := s.boms.Activate(ctx, s.f.TenantID(), s.f.UserID, bom.ID)
	require.NoError(t, err)

	first := s.releasedOrder(t, "5", "0")
	second := s.releasedOrder(t, "2", "0")
	assert.Equal(t, "MO-2026-00002", second.Number)

	cancelled, err := s.production.Cancel(ctx, s.f.TenantID(), first.ID, appmfg.CancelOrderRequest{Reason: "customer withdrew"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "customer withdrew", cancelled.CancelReason)

	_, err = s.production.Release(ctx, s.f.TenantID(), first.ID)
	assertCode(t, err, "INVALID_STATE")

	page, err := s.production.List(ctx, s.f.TenantID(), appmfg.OrderListFilter{Status: "released"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.EqualValues(t, 1, page.Total)

	assert.Contains(t, s.f.Publisher.Types(), manufacturing.EventTypeProductionCancelled)
}

func ptr[T any](v T) *T {
	return &v
}
