package manufacturing

import (
	"testing"
	"time"

	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	tenantID uuid.UUID
	product  *inventory.Item
	steel    *inventory.Item
	bolt     *inventory.Item
	service  *inventory.Item
	items    map[uuid.UUID]*inventory.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{tenantID: uuid.New()}
	var err error
	f.product, err = inventory.NewItem(f.tenantID, "TABLE", "Table", "pcs", inventory.ItemTypeFinishedGood)
	require.NoError(t, err)
	f.steel, err = inventory.NewItem(f.tenantID, "STEEL", "Steel", "kg", inventory.ItemTypeRawMaterial)
	require.NoError(t, err)
	f.bolt, err = inventory.NewItem(f.tenantID, "BOLT", "Bolt", "pcs", inventory.ItemTypeRawMaterial)
	require.NoError(t, err)
	f.service, err = inventory.NewItem(f.tenantID, "PAINT-SVC", "Painting", "hour", inventory.ItemTypeService)
	require.NoError(t, err)
	f.items = map[uuid.UUID]*inventory.Item{
		f.product.ID: f.product, f.steel.ID: f.steel, f.bolt.ID: f.bolt, f.service.ID: f.service,
	}
	return f
}

func (f *fixture) bom(t *testing.T) *BOM {
	t.Helper()
	b, err := NewBOM(f.tenantID, f.product, "tbl", 1, "Table v1", d("2"))
	require.NoError(t, err)
	require.NoError(t, b.SetComponents([]ComponentInput{
		{ItemID: f.steel.ID, Quantity: d("3"), ScrapPercent: d("10")},
		{ItemID: f.bolt.ID, Quantity: d("8")},
	}, f.items))
	require.NoError(t, b.Activate(time.Now()))
	return b
}

func TestNewBOM(t *testing.T) {
	f := newFixture(t)

	_, err := NewBOM(f.tenantID, f.steel, "X", 1, "", d("1"))
	assert.Error(t, err, "product must be a finished good")

	_, err = NewBOM(f.tenantID, f.product, "X", 1, "", decimal.Zero)
	assert.Error(t, err)

	b, err := NewBOM(f.tenantID, f.product, " tbl ", 1, "", d("1"))
	require.NoError(t, err)
	assert.Equal(t, "TBL", b.Code)
	assert.False(t, b.IsActive)
	assert.Error(t, b.Activate(time.Now()), "empty BOM cannot be activated")
}

func TestBOM_SetComponents(t *testing.T) {
	f := newFixture(t)
	b, err := NewBOM(f.tenantID, f.product, "TBL", 1, "", d("1"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		inputs []ComponentInput
	}{
		{"empty", nil},
		{"self reference", []ComponentInput{{ItemID: f.product.ID, Quantity: d("1")}}},
		{"service item", []ComponentInput{{ItemID: f.service.ID, Quantity: d("1")}}},
		{"unknown item", []ComponentInput{{ItemID: uuid.New(), Quantity: d("1")}}},
		{"duplicate", []ComponentInput{{ItemID: f.steel.ID, Quantity: d("1")}, {ItemID: f.steel.ID, Quantity: d("2")}}},
		{"zero quantity", []ComponentInput{{ItemID: f.steel.ID, Quantity: decimal.Zero}}},
		{"scrap over 100", []ComponentInput{{ItemID: f.steel.ID, Quantity: d("1"), ScrapPercent: d("101")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, b.SetComponents(tt.inputs, f.items))
			assert.Empty(t, b.Components)
		})
	}
}

func TestBOM_Explode(t *testing.T) {
	f := newFixture(t)
	b := f.bom(t)

	demand, err := b.Explode(d("5"))
	require.NoError(t, err)
	require.Len(t, demand, 2)
	// 3 * 5 / 2 * 1.10
	assert.True(t, demand[0].Required.Equal(d("8.25")), "steel %s", demand[0].Required)
	// 8 * 5 / 2
	assert.True(t, demand[1].Required.Equal(d("20")), "bolt %s", demand[1].Required)

	_, err = b.Explode(decimal.Zero)
	assert.Error(t, err)
}

func TestComponent_RequiredQuantityRounding(t *testing.T) {
	c := BOMComponent{Quantity: d("1"), ScrapPercent: decimal.Zero}
	assert.True(t, c.RequiredQuantity(d("1"), d("3")).Equal(d("0.3333")))
}

func TestBuildRequirements(t *testing.T) {
	f := newFixture(t)
	b := f.bom(t)
	warehouseID := uuid.New()

	steelBal := inventory.NewStockBalance(f.tenantID, f.steel.ID, warehouseID)
	require.NoError(t, steelBal.Receive(d("100"), d("4")))
	boltBal := inventory.NewStockBalance(f.tenantID, f.bolt.ID, warehouseID)
	require.NoError(t, boltBal.Receive(d("10"), d("0.25")))

	r, err := BuildRequirements(b, d("5"), warehouseID, f.items, map[uuid.UUID]*inventory.StockBalance{
		f.steel.ID: steelBal,
		f.bolt.ID:  boltBal,
	})
	require.NoError(t, err)
	assert.False(t, r.Feasible)
	assert.Equal(t, "STEEL", r.Lines[0].SKU)
	assert.True(t, r.Lines[0].Shortage.IsZero())
	assert.True(t, r.Lines[0].TotalCost.Equal(d("33")))
	assert.True(t, r.Lines[1].Shortage.Equal(d("10")))
	assert.True(t, r.Lines[1].TotalCost.Equal(d("5")))
	assert.True(t, r.EstimatedTotal.Equal(d("38")))
}

func TestProductionOrder_Lifecycle(t *testing.T) {
	f := newFixture(t)
	b := f.bom(t)
	wh := uuid.New()

	o, err := NewProductionOrder(f.tenantID, "MO-2026-00001", b, wh, d("5"), d("12.5"), shared.MustParseDate("2026-04-01"))
	require.NoError(t, err)
	assert.Equal(t, OrderStatusDraft, o.Status)
	assert.Equal(t, f.product.ID, o.ProductID)

	assert.Error(t, o.CanComplete(), "draft cannot be completed")
	require.NoError(t, o.Release(time.Now()))
	assert.Error(t, o.Update(d("6"), decimal.Zero, time.Now(), ""), "released cannot be edited")

	consumptions := []Consumption{
		{ItemID: f.steel.ID, Quantity: d("8.25"), UnitCost: d("4"), TotalCost: d("33")},
		{ItemID: f.bolt.ID, Quantity: d("20"), UnitCost: d("0.2567"), TotalCost: d("5.13")},
	}
	voucherID := uuid.New()
	require.NoError(t, o.Complete(d("5"), shared.MustParseDate("2026-04-02"), consumptions, voucherID, uuid.New()))
	assert.Equal(t, OrderStatusCompleted, o.Status)
	assert.True(t, o.MaterialCost.Equal(d("38.13")))
	assert.True(t, o.TotalCost.Equal(d("50.63")))
	assert.True(t, o.UnitCost.Equal(d("10.126")))
	assert.Equal(t, o.ID, o.Consumptions[0].OrderID)
	require.NotNil(t, o.VoucherID)
	assert.Equal(t, voucherID, *o.VoucherID)

	assert.Error(t, o.Cancel("late", time.Now()), "completed cannot be cancelled")

	events := o.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeProductionCompleted, events[1].EventType())
}

func TestNewProductionOrder_RequiresActiveBOM(t *testing.T) {
	f := newFixture(t)
	b := f.bom(t)
	b.Deactivate()
	_, err := NewProductionOrder(f.tenantID, "MO-2026-00001", b, uuid.New(), d("1"), decimal.Zero, time.Now())
	assert.Error(t, err)
}

func TestComputeCost(t *testing.T) {
	cost, err := ComputeCost([]Consumption{{TotalCost: d("10")}}, d("0"), d("3"))
	require.NoError(t, err)
	assert.True(t, cost.UnitCost.Equal(d("3.3333")))

	_, err = ComputeCost(nil, decimal.Zero, decimal.Zero)
	assert.Error(t, err)
}
