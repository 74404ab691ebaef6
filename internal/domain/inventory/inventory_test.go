package inventory

import (
	"testing"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewItem(t *testing.T) {
	tenantID := uuid.New()

	t.Run("normalizes sku and defaults unit", func(t *testing.T) {
		item, err := NewItem(tenantID, " rm-001 ", "Steel sheet", "", ItemTypeRawMaterial)
		require.NoError(t, err)
		assert.Equal(t, "RM-001", item.SKU)
		assert.Equal(t, "pcs", item.Unit)
		assert.True(t, item.IsActive)
		assert.True(t, item.IsStocked())
	})

	t.Run("service items are not stocked", func(t *testing.T) {
		item, err := NewItem(tenantID, "SVC", "Consulting", "hour", ItemTypeService)
		require.NoError(t, err)
		assert.False(t, item.IsStocked())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewItem(tenantID, "", "x", "", ItemTypeRawMaterial)
		assert.Error(t, err)
		_, err = NewItem(tenantID, "A", "", "", ItemTypeRawMaterial)
		assert.Error(t, err)
		_, err = NewItem(tenantID, "A", "x", "", ItemType("other"))
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		item, err := NewItem(tenantID, "A", "x", "", ItemTypeFinishedGood)
		require.NoError(t, err)
		assert.Error(t, item.Update("x", "", "", d("-1")))
	})
}

func TestWarehouse(t *testing.T) {
	w, err := NewWarehouse(uuid.New(), "main", "Main warehouse")
	require.NoError(t, err)
	assert.Equal(t, "MAIN", w.Code)

	w.IsDefault = true
	assert.Error(t, w.SetActive(false))
	w.IsDefault = false
	require.NoError(t, w.SetActive(false))
	assert.False(t, w.IsActive)
}

func TestStockBalance_Receive(t *testing.T) {
	tests := []struct {
		name     string
		receipts [][2]string
		wantQty  string
		wantAvg  string
	}{
		{"first receipt takes cost", [][2]string{{"10", "5"}}, "10", "5"},
		{"weighted average", [][2]string{{"10", "5"}, {"10", "7"}}, "20", "6"},
		{"zero quantity rejected", [][2]string{{"3", "1"}, {"0", "1"}}, "", ""},
		{"uneven average", [][2]string{{"3", "1"}, {"4", "2"}}, "7", "1.5714"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewStockBalance(uuid.New(), uuid.New(), uuid.New())
			var err error
			for _, r := range tt.receipts {
				err = b.Receive(d(r[0]), d(r[1]))
				if err != nil {
					break
				}
			}
			if tt.wantQty == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, b.Quantity.Equal(d(tt.wantQty)), "qty %s", b.Quantity)
			assert.True(t, b.AverageCost.Equal(d(tt.wantAvg)), "avg %s", b.AverageCost)
		})
	}
}

func TestStockBalance_Issue(t *testing.T) {
	b := NewStockBalance(uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, b.Receive(d("7"), d("1.5714")))

	cost, err := b.Issue(d("3"))
	require.NoError(t, err)
	assert.True(t, cost.Equal(d("4.71")), "cost %s", cost)
	assert.True(t, b.Quantity.Equal(d("4")))
	assert.True(t, b.AverageCost.Equal(d("1.5714")))

	_, err = b.Issue(d("5"))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, b.Quantity.Equal(d("4")), "failed issue leaves quantity")

	_, err = b.Issue(decimal.Zero)
	assert.Error(t, err)
}

func TestStockBalance_Movements(t *testing.T) {
	b := NewStockBalance(uuid.New(), uuid.New(), uuid.New())
	user := uuid.New()
	date := shared.MustParseDate("2026-03-15")
	src := MovementSource{Type: "manual", Reference: "GRN-1", UserID: user}

	in, err := b.ReceiveMovement(MovementReceipt, d("10"), d("2.5"), date, src)
	require.NoError(t, err)
	assert.True(t, in.TotalCost.Equal(d("25")))
	assert.True(t, in.BalanceAfter.Equal(d("10")))
	assert.True(t, in.SignedQuantity().Equal(d("10")))
	require.NotNil(t, in.CreatedBy)
	assert.Equal(t, user, *in.CreatedBy)

	out, err := b.IssueMovement(MovementSale, d("4"), date, src)
	require.NoError(t, err)
	assert.True(t, out.TotalCost.Equal(d("10")))
	assert.True(t, out.UnitCost.Equal(d("2.5")))
	assert.True(t, out.SignedQuantity().Equal(d("-4")))
	assert.True(t, b.Value().Equal(d("15")))

	_, err = b.IssueMovement(MovementReceipt, d("1"), date, src)
	assert.Error(t, err)
	_, err = b.ReceiveMovement(MovementIssue, d("1"), d("1"), date, src)
	assert.Error(t, err)

	ev := NewStockMovedEvent(out, b.ID)
	assert.Equal(t, EventTypeStockMoved, ev.EventType())
	assert.Equal(t, user, ev.ActorID())
}
