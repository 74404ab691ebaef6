package shared

import (
	"context"

	"github.com/clearbook/backend/internal/domain/audit"
	"github.com/clearbook/backend/internal/domain/banking"
	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/manufacturing"
	"github.com/clearbook/backend/internal/domain/sales"
)

// Repositories gives access to every repository. Inside
// TransactionScope.Execute all of them share one database transaction.
type Repositories interface {
	Tenants() identity.TenantRepository
	Users() identity.UserRepository
	Roles() identity.RoleRepository

	Accounts() ledger.AccountRepository
	Vouchers() ledger.VoucherRepository
	Ledger() ledger.LedgerReader
	Periods() ledger.PeriodRepository
	Sequences() ledger.SequenceRepository
	Settings() ledger.SettingsRepository

	Items() inventory.ItemRepository
	Warehouses() inventory.WarehouseRepository
	StockBalances() inventory.StockBalanceRepository
	Movements() inventory.MovementRepository

	BOMs() manufacturing.BOMRepository
	ProductionOrders() manufacturing.ProductionOrderRepository

	Customers() sales.CustomerRepository
	Invoices() sales.InvoiceRepository
	Payments() sales.PaymentRepository

	BankAccounts() banking.BankAccountRepository
	Statements() banking.StatementRepository
	BookEntries() banking.BookEntryReader

	AuditLogs() audit.Repository
}

// TransactionScope runs a unit of work atomically. If fn returns an error
// the transaction is rolled back, otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// NoOpTransactionScope hands fn the repositories it was built with and
// provides no atomicity. Only useful in tests of read paths.
type NoOpTransactionScope struct {
	repos Repositories
}

func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.repos)
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
