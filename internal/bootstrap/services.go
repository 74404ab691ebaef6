// Package bootstrap wires repositories, application services and HTTP
// handlers into one graph for the server and for end-to-end tests.
package bootstrap

import (
	"go.uber.org/zap"

	appaudit "github.com/clearbook/backend/internal/application/audit"
	appbanking "github.com/clearbook/backend/internal/application/banking"
	appidentity "github.com/clearbook/backend/internal/application/identity"
	appinventory "github.com/clearbook/backend/internal/application/inventory"
	appledger "github.com/clearbook/backend/internal/application/ledger"
	appmanufacturing "github.com/clearbook/backend/internal/application/manufacturing"
	appreport "github.com/clearbook/backend/internal/application/report"
	appsales "github.com/clearbook/backend/internal/application/sales"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/infrastructure/auth"
	"github.com/clearbook/backend/internal/infrastructure/bankfeed"
	"github.com/clearbook/backend/internal/interfaces/http/handler"
	"github.com/clearbook/backend/internal/interfaces/http/router"
)

// Deps are the infrastructure pieces the services are built on
type Deps struct {
	Scope     appshared.TransactionScope
	Repos     appshared.Repositories
	Events    *appshared.EventDispatcher
	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist
	// Archive is optional; without it uploaded statement files are not kept
	Archive appbanking.StatementArchive
	// ReconciliationDateWindowDays overrides the auto-match window when > 0
	ReconciliationDateWindowDays int
	Logger                       *zap.Logger
}

// Services holds every application service
type Services struct {
	Auth       *appidentity.AuthService
	Tenant     *appidentity.TenantService
	User       *appidentity.UserService
	Role       *appidentity.RoleService
	Account    *appledger.AccountService
	Period     *appledger.PeriodService
	Voucher    *appledger.VoucherService
	Report     *appreport.ReportService
	Item       *appinventory.ItemService
	Stock      *appinventory.StockService
	BOM        *appmanufacturing.BOMService
	Production *appmanufacturing.ProductionService
	Customer   *appsales.CustomerService
	Invoice    *appsales.InvoiceService
	Payment    *appsales.PaymentService
	Bank       *appbanking.BankAccountService
	Statement  *appbanking.StatementService
	Audit      *appaudit.Service
}

// NewServices builds the application layer
func NewServices(d Deps) *Services {
	l := d.Logger
	if l == nil {
		l = zap.NewNop()
	}
	named := func(name string) *zap.Logger { return l.Named(name) }
	posting := appledger.NewPostingService()

	var statementOpts []appbanking.StatementOption
	if d.Archive != nil {
		statementOpts = append(statementOpts, appbanking.WithArchive(d.Archive))
	}
	if d.ReconciliationDateWindowDays > 0 {
		statementOpts = append(statementOpts, appbanking.WithDateWindow(d.ReconciliationDateWindowDays))
	}

	return &Services{
		Auth:       appidentity.NewAuthService(d.Repos, d.JWT, d.Blacklist, d.Events, named("auth")),
		Tenant:     appidentity.NewTenantService(d.Scope, d.Repos, d.JWT, d.Events, named("tenant")),
		User:       appidentity.NewUserService(d.Repos, d.JWT, d.Blacklist, d.Events, named("user")),
		Role:       appidentity.NewRoleService(d.Repos, named("role")),
		Account:    appledger.NewAccountService(d.Repos, named("account")),
		Period:     appledger.NewPeriodService(d.Scope, d.Repos, d.Events, named("period")),
		Voucher:    appledger.NewVoucherService(d.Scope, d.Repos, posting, d.Events, named("voucher")),
		Report:     appreport.NewReportService(d.Repos, named("report")),
		Item:       appinventory.NewItemService(d.Repos, named("item")),
		Stock:      appinventory.NewStockService(d.Scope, d.Repos, posting, d.Events, named("stock")),
		BOM:        appmanufacturing.NewBOMService(d.Scope, d.Repos, d.Events, named("bom")),
		Production: appmanufacturing.NewProductionService(d.Scope, d.Repos, posting, d.Events, named("production")),
		Customer:   appsales.NewCustomerService(d.Repos, named("customer")),
		Invoice:    appsales.NewInvoiceService(d.Scope, d.Repos, posting, d.Events, named("invoice")),
		Payment:    appsales.NewPaymentService(d.Scope, d.Repos, posting, d.Events, named("payment")),
		Bank:       appbanking.NewBankAccountService(d.Repos, named("bank")),
		Statement: appbanking.NewStatementService(d.Scope, d.Repos, posting, d.Events,
			bankfeed.NewCSVParser(), named("statement"), statementOpts...),
		Audit: appaudit.NewService(d.Repos.AuditLogs()),
	}
}

// Handlers builds the HTTP handlers over s
func (s *Services) Handlers(db handler.Pinger, version string) router.Handlers {
	return router.Handlers{
		Auth:       handler.NewAuthHandler(s.Auth, s.Tenant),
		User:       handler.NewUserHandler(s.User),
		Role:       handler.NewRoleHandler(s.Role),
		Account:    handler.NewAccountHandler(s.Account),
		Period:     handler.NewPeriodHandler(s.Period),
		Voucher:    handler.NewVoucherHandler(s.Voucher),
		Report:     handler.NewReportHandler(s.Report),
		Item:       handler.NewItemHandler(s.Item),
		Stock:      handler.NewStockHandler(s.Stock),
		BOM:        handler.NewBOMHandler(s.BOM),
		Production: handler.NewProductionHandler(s.Production),
		Customer:   handler.NewCustomerHandler(s.Customer),
		Invoice:    handler.NewInvoiceHandler(s.Invoice),
		Payment:    handler.NewPaymentHandler(s.Payment),
		Bank:       handler.NewBankAccountHandler(s.Bank),
		Statement:  handler.NewStatementHandler(s.Statement),
		Audit:      handler.NewAuditHandler(s.Audit),
		Health:     handler.NewHealthHandler(db, version),
	}
}
