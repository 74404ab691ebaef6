// Package apptest builds sqlite-backed fixtures for application service
// tests: a tenant with the default chart, accounting settings, open fiscal
// periods for 2026 and the MAIN warehouse.
package apptest

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence"
)

// FiscalYear is the year opened by New.
const FiscalYear = 2026

// Fixture is a seeded tenant on a private in-memory database.
type Fixture struct {
	DB        *persistence.Database
	Scope     appshared.TransactionScope
	Repos     appshared.Repositories
	Events    *appshared.EventDispatcher
	Publisher *RecordingPublisher
	Tenant    *identity.Tenant
	UserID    uuid.UUID
	Warehouse *inventory.Warehouse

	accounts map[string]*ledger.Account
}

// New opens a fresh database and seeds one tenant.
func New(t testing.TB) *Fixture {
	t.Helper()
	db, err := persistence.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pub := &RecordingPublisher{}
	events := appshared.NewEventDispatcher(nil)
	events.SetEventPublisher(pub)

	f := &Fixture{
		DB:        db,
		Scope:     persistence.NewGormTransactionScope(db.DB),
		Repos:     persistence.NewRepositories(db.DB),
		Events:    events,
		Publisher: pub,
		UserID:    uuid.New(),
		accounts:  make(map[string]*ledger.Account),
	}
	f.seed(t)
	return f
}

func (f *Fixture) seed(t testing.TB) {
	ctx := context.Background()
	tenant, err := identity.NewTenant("acme", "Acme Manufacturing", "USD", 1)
	require.NoError(t, err)
	require.NoError(t, f.Repos.Tenants().Save(ctx, tenant))
	f.Tenant = tenant

	accounts, settings, err := ledger.BuildChart(tenant.ID, ledger.DefaultChart)
	require.NoError(t, err)
	require.NoError(t, f.Repos.Accounts().SaveBatch(ctx, accounts))
	require.NoError(t, f.Repos.Settings().Save(ctx, settings))
	for _, a := range accounts {
		f.accounts[a.Code] = a
	}

	periods, err := ledger.NewFiscalYear(tenant.ID, FiscalYear, tenant.FiscalYearStartMonth)
	require.NoError(t, err)
	require.NoError(t, f.Repos.Periods().SaveBatch(ctx, periods))

	wh, err := inventory.NewWarehouse(tenant.ID, "MAIN", "Main Warehouse")
	require.NoError(t, err)
	wh.IsDefault = true
	require.NoError(t, f.Repos.Warehouses().Save(ctx, wh))
	f.Warehouse = wh
}

// TenantID returns the seeded tenant's id.
func (f *Fixture) TenantID() uuid.UUID {
	return f.Tenant.ID
}

// Account returns the id of a chart account by code.
func (f *Fixture) Account(t testing.TB, code string) uuid.UUID {
	t.Helper()
	a, ok := f.accounts[code]
	require.Truef(t, ok, "account %s is not in the default chart", code)
	return a.ID
}

// Balance returns the posted balance of an account in its normal direction.
func (f *Fixture) Balance(t testing.TB, code string) string {
	t.Helper()
	a := f.accounts[code]
	require.NotNil(t, a)
	debit, credit, err := f.Repos.Ledger().AccountTotals(context.Background(), f.TenantID(), a.ID, shared.DateRange{})
	require.NoError(t, err)
	return a.NormalBalance().SignedBalance(debit, credit).StringFixed(2)
}

// AddItem saves an item and returns it.
func (f *Fixture) AddItem(t testing.TB, sku string, itemType inventory.ItemType) *inventory.Item {
	t.Helper()
	item, err := inventory.NewItem(f.TenantID(), sku, sku+" item", "pcs", itemType)
	require.NoError(t, err)
	require.NoError(t, f.Repos.Items().Save(context.Background(), item))
	return item
}

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// Publish records events.
func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// Types returns the published event types in order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// Reset forgets recorded events.
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
