package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbook/backend/internal/application/apptest"
	appaudit "github.com/clearbook/backend/internal/application/audit"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/cache"
	"github.com/clearbook/backend/internal/infrastructure/event"
)

type voucherPosted struct {
	shared.BaseDomainEvent
	Number string `json:"number"`
}

func newVoucherPosted(tenantID, voucherID, actor uuid.UUID, number string, at time.Time) *voucherPosted {
	e := &voucherPosted{
		BaseDomainEvent: shared.NewBaseDomainEvent("VoucherPosted", "JournalVoucher", voucherID, tenantID),
		Number:          number,
	}
	e.Timestamp = at
	e.Actor = actor
	return e
}

func TestAuditTrail(t *testing.T) {
	f := apptest.New(t)
	ctx := context.Background()

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	bus := event.NewInMemoryEventBus(nil)
	bus.Subscribe(event.NewIdempotentHandler(appaudit.NewEventHandler(f.Repos.AuditLogs(), nil), store, time.Hour, nil))

	voucherA, voucherB := uuid.New(), uuid.New()
	first := newVoucherPosted(f.TenantID(), voucherA, f.UserID, "JV-2026-00001", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	second := newVoucherPosted(f.TenantID(), voucherB, uuid.Nil, "JV-2026-00002", time.Date(2026, 6, 30, 23, 0, 0, 0, time.UTC))
	other := newVoucherPosted(uuid.New(), uuid.New(), uuid.Nil, "JV-2026-00001", time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC))

	require.NoError(t, bus.Publish(ctx, first, second, other))
	// redelivery is ignored
	require.NoError(t, bus.Publish(ctx, first))

	svc := appaudit.NewService(f.Repos.AuditLogs())
	page, err := svc.List(ctx, f.TenantID(), appaudit.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, voucherB, page.Items[0].AggregateID, "newest first")
	assert.Nil(t, page.Items[0].ActorID)

	byAggregate, err := svc.List(ctx, f.TenantID(), appaudit.ListFilter{AggregateID: &voucherA})
	require.NoError(t, err)
	require.Len(t, byAggregate.Items, 1)
	entry := byAggregate.Items[0]
	assert.Equal(t, "VoucherPosted", entry.EventType)
	assert.Equal(t, "JournalVoucher", entry.AggregateType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, f.UserID, *entry.ActorID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(entry.Payload, &payload))
	assert.Equal(t, "JV-2026-00001", payload["number"])

	lastDay, err := svc.List(ctx, f.TenantID(), appaudit.ListFilter{From: "2026-06-30", To: "2026-06-30"})
	require.NoError(t, err)
	require.Len(t, lastDay.Items, 1)
	assert.Equal(t, voucherB, lastDay.Items[0].AggregateID)

	none, err := svc.List(ctx, f.TenantID(), appaudit.ListFilter{EventType: "InvoicePosted"})
	require.NoError(t, err)
	assert.Zero(t, none.Total)

	_, err = svc.List(ctx, f.TenantID(), appaudit.ListFilter{From: "June"})
	require.Error(t, err)
}
