package persistence

import (
	"context"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/audit"
	"github.com/clearbook/backend/internal/domain/banking"
	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/manufacturing"
	"github.com/clearbook/backend/internal/domain/sales"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. Every repository handed
// to fn is bound to the same transaction.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appshared.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// gormRepositories builds repositories on demand over one *gorm.DB, which
// is either the pool or an open transaction.
type gormRepositories struct {
	db *gorm.DB
}

// NewRepositories returns every repository bound to db.
func NewRepositories(db *gorm.DB) appshared.Repositories {
	return &gormRepositories{db: db}
}

func (r *gormRepositories) Tenants() identity.TenantRepository { return NewGormTenantRepository(r.db) }
func (r *gormRepositories) Users() identity.UserRepository     { return NewGormUserRepository(r.db) }
func (r *gormRepositories) Roles() identity.RoleRepository     { return NewGormRoleRepository(r.db) }

func (r *gormRepositories) Accounts() ledger.AccountRepository   { return NewGormAccountRepository(r.db) }
func (r *gormRepositories) Vouchers() ledger.VoucherRepository   { return NewGormVoucherRepository(r.db) }
func (r *gormRepositories) Ledger() ledger.LedgerReader          { return NewGormLedgerReader(r.db) }
func (r *gormRepositories) Periods() ledger.PeriodRepository     { return NewGormPeriodRepository(r.db) }
func (r *gormRepositories) Sequences() ledger.SequenceRepository { return NewGormSequenceRepository(r.db) }
func (r *gormRepositories) Settings() ledger.SettingsRepository  { return NewGormSettingsRepository(r.db) }

func (r *gormRepositories) Items() inventory.ItemRepository { return NewGormItemRepository(r.db) }
func (r *gormRepositories) Warehouses() inventory.WarehouseRepository {
	return NewGormWarehouseRepository(r.db)
}
func (r *gormRepositories) StockBalances() inventory.StockBalanceRepository {
	return NewGormStockBalanceRepository(r.db)
}
func (r *gormRepositories) Movements() inventory.MovementRepository {
	return NewGormMovementRepository(r.db)
}

func (r *gormRepositories) BOMs() manufacturing.BOMRepository { return NewGormBOMRepository(r.db) }
func (r *gormRepositories) ProductionOrders() manufacturing.ProductionOrderRepository {
	return NewGormProductionOrderRepository(r.db)
}

func (r *gormRepositories) Customers() sales.CustomerRepository { return NewGormCustomerRepository(r.db) }
func (r *gormRepositories) Invoices() sales.InvoiceRepository   { return NewGormInvoiceRepository(r.db) }
func (r *gormRepositories) Payments() sales.PaymentRepository   { return NewGormPaymentRepository(r.db) }

func (r *gormRepositories) BankAccounts() banking.BankAccountRepository {
	return NewGormBankAccountRepository(r.db)
}
func (r *gormRepositories) Statements() banking.StatementRepository {
	return NewGormStatementRepository(r.db)
}
func (r *gormRepositories) BookEntries() banking.BookEntryReader { return NewGormLedgerReader(r.db) }

func (r *gormRepositories) AuditLogs() audit.Repository { return NewGormAuditLogRepository(r.db) }

var (
	_ appshared.TransactionScope = (*GormTransactionScope)(nil)
	_ appshared.Repositories     = (*gormRepositories)(nil)
)
