package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/auth"
	"github.com/clearbook/backend/internal/infrastructure/config"
	"github.com/clearbook/backend/internal/infrastructure/logger"
	"github.com/clearbook/backend/internal/interfaces/http/dto"
	"github.com/clearbook/backend/internal/interfaces/http/handler"
	"github.com/clearbook/backend/internal/interfaces/http/middleware"
)

// Handlers holds one handler per resource
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Role       *handler.RoleHandler
	Account    *handler.AccountHandler
	Period     *handler.PeriodHandler
	Voucher    *handler.VoucherHandler
	Report     *handler.ReportHandler
	Item       *handler.ItemHandler
	Stock      *handler.StockHandler
	BOM        *handler.BOMHandler
	Production *handler.ProductionHandler
	Customer   *handler.CustomerHandler
	Invoice    *handler.InvoiceHandler
	Payment    *handler.PaymentHandler
	Bank       *handler.BankAccountHandler
	Statement  *handler.StatementHandler
	Audit      *handler.AuditHandler
	Health     *handler.HealthHandler
}

// Config carries the cross-cutting dependencies of the engine
type Config struct {
	ServiceName    string
	JWT            *auth.JWTService
	Revocation     middleware.RevocationChecker
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	CORS           config.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodySize    int64
	// RateLimiter is optional; nil disables rate limiting
	RateLimiter    *middleware.RateLimiter
	TrustedProxies []string
	Logger         *zap.Logger
}

// New builds the engine. Global middleware runs in this order: tracing,
// request id, recovery, access log, security headers, CORS, body limit,
// rate limit. The API group adds authentication and tenant resolution;
// each route then checks its own permission.
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponse("METHOD_NOT_ALLOWED", "Method not allowed", middleware.GetRequestID(c)))
	})

	if cfg.ServiceName != "" {
		engine.Use(middleware.Tracing(cfg.ServiceName))
	}
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(cfg.Logger),
		logger.GinMiddleware(cfg.Logger),
		middleware.Secure(cfg.Security),
		middleware.CORS(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
	)
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Check)
	}

	base := APIBase
	apiMiddleware := []gin.HandlerFunc{
		middleware.JWTAuth(middleware.JWTConfig{
			JWTService: cfg.JWT,
			Revocation: cfg.Revocation,
			SkipPaths: []string{
				base + "/auth/register",
				base + "/auth/login",
				base + "/auth/refresh",
			},
			Logger: cfg.Logger,
		}),
		middleware.TenantContext(),
		middleware.SpanAttributes(),
	}

	routes := routeSet{
		perm: middleware.NewPermissions(cfg.Logger),
		idem: middleware.Idempotency(cfg.Idempotency, cfg.IdempotencyTTL, cfg.Logger),
		h:    h,
	}
	mountAPI(engine, apiMiddleware, routes.groups()...)
	return engine, nil
}

type routeSet struct {
	perm *middleware.Permissions
	idem gin.HandlerFunc
	h    Handlers
}

func (s routeSet) groups() []*DomainGroup {
	return []*DomainGroup{
		s.identity(),
		s.ledger(),
		s.reports(),
		s.inventory(),
		s.manufacturing(),
		s.sales(),
		s.banking(),
		s.audit(),
	}
}

func (s routeSet) identity() *DomainGroup {
	p, h := s.perm, s.h
	g := NewDomainGroup("identity", "")

	a := g.Group("auth", "/auth")
	a.POST("/register", h.Auth.Register)
	a.POST("/login", h.Auth.Login)
	a.POST("/refresh", h.Auth.Refresh)
	a.POST("/logout", h.Auth.Logout)
	a.GET("/me", h.Auth.Me)
	a.PUT("/password", h.Auth.ChangePassword)

	u := g.Group("users", "/users")
	u.GET("", p.Require(identity.PermUserRead), h.User.List)
	u.POST("", p.Require(identity.PermUserCreate), h.User.Create)
	u.GET("/:id", p.Require(identity.PermUserRead), h.User.Get)
	u.PUT("/:id", p.Require(identity.PermUserUpdate), h.User.Update)
	u.PUT("/:id/password", p.Require(identity.PermUserUpdate), h.User.ResetPassword)
	u.POST("/:id/activate", p.Require(identity.PermUserUpdate), h.User.Activate)
	u.POST("/:id/deactivate", p.Require(identity.PermUserUpdate), h.User.Deactivate)
	u.POST("/:id/unlock", p.Require(identity.PermUserUpdate), h.User.Unlock)

	roles := g.Group("roles", "/roles")
	roles.GET("", p.Require(identity.PermRoleRead), h.Role.List)
	roles.POST("", p.Require(identity.PermRoleCreate), h.Role.Create)
	roles.GET("/:id", p.Require(identity.PermRoleRead), h.Role.Get)
	roles.PUT("/:id", p.Require(identity.PermRoleUpdate), h.Role.Update)
	roles.DELETE("/:id", p.Require(identity.PermRoleDelete), h.Role.Delete)
	g.GET("/permissions", p.Require(identity.PermRoleRead), h.Role.Permissions)
	return g
}

func (s routeSet) ledger() *DomainGroup {
	p, h := s.perm, s.h
	g := NewDomainGroup("ledger", "")

	acc := g.Group("accounts", "/accounts")
	acc.GET("", p.Require(identity.PermAccountRead), h.Account.List)
	acc.POST("", p.Require(identity.PermAccountCreate), h.Account.Create)
	acc.GET("/:id", p.Require(identity.PermAccountRead), h.Account.Get)
	acc.PUT("/:id", p.Require(identity.PermAccountUpdate), h.Account.Update)
	acc.DELETE("/:id", p.Require(identity.PermAccountDelete), h.Account.Delete)
	acc.GET("/:id/ledger", p.Require(identity.PermAccountRead, identity.PermReportRead), h.Account.Ledger)

	g.GET("/settings/accounting", p.Require(identity.PermSettingsRead), h.Period.GetSettings)
	g.PUT("/settings/accounting", p.Require(identity.PermSettingsUpdate), h.Period.UpdateSettings)
	g.POST("/fiscal-years", p.Require(identity.PermPeriodCreate), h.Period.OpenFiscalYear)
	g.GET("/fiscal-periods", p.Require(identity.PermPeriodRead), h.Period.List)
	g.POST("/fiscal-periods/:id/close", p.Require(identity.PermPeriodClose), h.Period.Close)
	g.POST("/fiscal-periods/:id/reopen", p.Require(identity.PermPeriodClose), h.Period.Reopen)

	v := g.Group("vouchers", "/vouchers")
	v.GET("", p.Require(identity.PermVoucherRead), h.Voucher.List)
	v.POST("", p.Require(identity.PermVoucherCreate), h.Voucher.Create)
	v.GET("/:id", p.Require(identity.PermVoucherRead), h.Voucher.Get)
	v.PUT("/:id", p.Require(identity.PermVoucherUpdate), h.Voucher.Update)
	v.DELETE("/:id", p.Require(identity.PermVoucherDelete), h.Voucher.Delete)
	v.POST("/:id/post", p.Require(identity.PermVoucherPost), s.idem, h.Voucher.Post)
	v.POST("/:id/reverse", p.Require(identity.PermVoucherReverse), s.idem, h.Voucher.Reverse)
	return g
}

func (s routeSet) reports() *DomainGroup {
	h := s.h
	g := NewDomainGroup("report", "/reports").Use(s.perm.Require(identity.PermReportRead))
	g.GET("/trial-balance", h.Report.TrialBalance)
	g.GET("/balance-sheet", h.Report.BalanceSheet)
	g.GET("/income-statement", h.Report.IncomeStatement)
	g.GET("/stock-valuation", h.Report.StockValuation)
	g.GET("/ar-aging", h.Report.ARAging)
	return g
}

func (s routeSet) inventory() *DomainGroup {
	p, h := s.perm, s.h
	g := NewDomainGroup("inventory", "")

	items := g.Group("items", "/items")
	items.GET("", p.Require(identity.PermItemRead), h.Item.ListItems)
	items.POST("", p.Require(identity.PermItemCreate), h.Item.CreateItem)
	items.GET("/:id", p.Require(identity.PermItemRead), h.Item.GetItem)
	items.PUT("/:id", p.Require(identity.PermItemUpdate), h.Item.UpdateItem)

	wh := g.Group("warehouses", "/warehouses")
	wh.GET("", p.Require(identity.PermWarehouseRead), h.Item.ListWarehouses)
	wh.POST("", p.Require(identity.PermWarehouseCreate), h.Item.CreateWarehouse)
	wh.PUT("/:id", p.Require(identity.PermWarehouseUpdate), h.Item.UpdateWarehouse)

	st := g.Group("stock", "/stock")
	st.GET("/balances", p.Require(identity.PermStockRead), h.Stock.Balances)
	st.GET("/movements", p.Require(identity.PermStockRead), h.Stock.Movements)
	st.POST("/receipts", p.Require(identity.PermStockReceive), s.idem, h.Stock.Receive)
	st.POST("/issues", p.Require(identity.PermStockIssue), s.idem, h.Stock.Issue)
	st.POST("/adjustments", p.Require(identity.PermStockAdjust), s.idem, h.Stock.Adjust)
	return g
}

func (s routeSet) manufacturing() *DomainGroup {
	p, h := s.perm, s.h
	g := NewDomainGroup("manufacturing", "")

	b := g.Group("boms", "/boms")
	b.GET("", p.Require(identity.PermBOMRead), h.BOM.List)
	b.POST("", p.Require(identity.PermBOMCreate), h.BOM.Create)
	b.GET("/:id", p.Require(identity.PermBOMRead), h.BOM.Get)
	b.PUT("/:id", p.Require(identity.PermBOMUpdate), h.BOM.Update)
	b.POST("/:id/activate", p.Require(identity.PermBOMUpdate), h.BOM.Activate)
	b.POST("/:id/deactivate", p.Require(identity.PermBOMUpdate), h.BOM.Deactivate)
	b.GET("/:id/requirements", p.Require(identity.PermBOMRead), h.BOM.Requirements)

	o := g.Group("production", "/production-orders")
	o.GET("", p.Require(identity.PermProductionRead), h.Production.List)
	o.POST("", p.Require(identity.PermProductionCreate), h.Production.Create)
	o.GET("/:id", p.Require(identity.PermProductionRead), h.Production.Get)
	o.PUT("/:id", p.Require(identity.PermProductionCreate), h.Production.Update)
	o.POST("/:id/release", p.Require(identity.PermProductionRelease), h.Production.Release)
	o.POST("/:id/complete", p.Require(identity.PermProductionComplete), s.idem, h.Production.Complete)
	o.POST("/:id/cancel", p.Require(identity.PermProductionCancel), h.Production.Cancel)
	return g
}

func (s routeSet) sales() *DomainGroup {
	p, h := s.perm, s.h
	g := NewDomainGroup("sales", "")

	c := g.Group("customers", "/customers")
	c.GET("", p.Require(identity.PermCustomerRead), h.Customer.List)
	c.POST("", p.Require(identity.PermCustomerCreate), h.Customer.Create)
	c.GET("/:id", p.Require(identity.PermCustomerRead), h.Customer.Get)
	c.PUT("/:id", p.Require(identity.PermCustomerUpdate), h.Customer.Update)

	inv := g.Group("invoices", "/invoices")
	inv.GET("", p.Require(identity.PermInvoiceRead), h.Invoice.List)
	inv.POST("", p.Require(identity.PermInvoiceCreate), h.Invoice.Create)
	inv.GET("/:id", p.Require(identity.PermInvoiceRead), h.Invoice.Get)
	inv.PUT("/:id", p.Require(identity.PermInvoiceUpdate), h.Invoice.Update)
	inv.DELETE("/:id", p.Require(identity.PermInvoiceDelete), h.Invoice.Delete)
	inv.POST("/:id/post", p.Require(identity.PermInvoicePost), s.idem, h.Invoice.Post)
	inv.POST("/:id/void", p.Require(identity.PermInvoiceVoid), h.Invoice.Void)

	pay := g.Group("payments", "/payments")
	pay.GET("", p.Require(identity.PermPaymentRead), h.Payment.List)
	pay.POST("", p.Require(identity.PermPaymentCreate), s.idem, h.Payment.Record)
	pay.GET("/:id", p.Require(identity.PermPaymentRead), h.Payment.Get)
	return g
}

func (s routeSet) banking() *DomainGroup {
	p, h := s.perm, s.h
	g := NewDomainGroup("banking", "")

	b := g.Group("bank-accounts", "/bank-accounts")
	b.GET("", p.Require(identity.PermBankRead), h.Bank.List)
	b.POST("", p.Require(identity.PermBankCreate), h.Bank.Create)
	b.GET("/:id", p.Require(identity.PermBankRead), h.Bank.Get)
	b.PUT("/:id", p.Require(identity.PermBankUpdate), h.Bank.Update)
	b.GET("/:id/statements", p.Require(identity.PermReconciliationRead), h.Statement.List)
	b.POST("/:id/statements", p.Require(identity.PermBankImport), h.Statement.Import)
	b.POST("/:id/statements/import", p.Require(identity.PermBankImport), h.Statement.ImportFile)

	st := g.Group("statements", "/statements")
	st.GET("/:id", p.Require(identity.PermReconciliationRead), h.Statement.Get)
	st.GET("/:id/source-file", p.Require(identity.PermReconciliationRead), h.Statement.SourceFile)
	st.GET("/:id/reconciliation", p.Require(identity.PermReconciliationRead), h.Statement.Reconciliation)
	st.POST("/:id/auto-match", p.Require(identity.PermReconciliationMatch), h.Statement.AutoMatch)
	st.POST("/:id/complete", p.Require(identity.PermReconciliationComplete), h.Statement.Complete)

	lines := g.Group("statement-lines", "/statement-lines")
	lines.POST("/:id/match", p.Require(identity.PermReconciliationMatch), h.Statement.MatchLine)
	lines.POST("/:id/unmatch", p.Require(identity.PermReconciliationMatch), h.Statement.UnmatchLine)
	lines.POST("/:id/create-entry", p.Require(identity.PermReconciliationMatch), s.idem, h.Statement.CreateEntry)
	return g
}

func (s routeSet) audit() *DomainGroup {
	g := NewDomainGroup("audit", "/audit-logs")
	g.GET("", s.perm.Require(identity.PermAuditRead), s.h.Audit.List)
	return g
}
