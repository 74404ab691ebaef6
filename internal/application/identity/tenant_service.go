package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appledger "github.com/clearbook/backend/internal/application/ledger"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/auth"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// DefaultWarehouseCode is the warehouse seeded for every new tenant.
const DefaultWarehouseCode = "MAIN"

// TenantService handles tenant registration and settings
type TenantService struct {
	scope      appshared.TransactionScope
	repos      appshared.Repositories
	jwtService *auth.JWTService
	events     *appshared.EventDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewTenantService creates a new tenant service
func NewTenantService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	jwtService *auth.JWTService,
	events *appshared.EventDispatcher,
	logger *zap.Logger,
) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{
		scope:      scope,
		repos:      repos,
		jwtService: jwtService,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a tenant together with everything it needs to start
// bookkeeping: system roles, the admin user, the default chart of
// accounts and posting settings, the current fiscal year and the MAIN
// warehouse. The admin is logged in on success.
func (s *TenantService) Register(ctx context.Context, input RegisterTenantInput) (*RegisterTenantResult, error) {
	log := logger.Enrich(ctx, s.logger)
	log.Info("Registering tenant", zap.String("tenant_code", input.TenantCode))

	var (
		tenant *identity.Tenant
		admin  *identity.User
		perms  []string
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		tenant, err = identity.NewTenant(input.TenantCode, input.TenantName, input.BaseCurrency, input.FiscalStartMonth)
		if err != nil {
			return err
		}
		exists, err := r.Tenants().ExistsByCode(ctx, tenant.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainErrorf("ALREADY_EXISTS", "Tenant code %s is taken", tenant.Code)
		}
		if err := r.Tenants().Save(ctx, tenant); err != nil {
			return err
		}

		var adminRole *identity.Role
		for _, role := range identity.DefaultRoles(tenant.ID) {
			if err := r.Roles().Save(ctx, role); err != nil {
				return err
			}
			if role.Code == identity.RoleAdmin {
				adminRole = role
			}
		}

		admin, err = identity.NewUser(tenant.ID, input.AdminUsername, input.AdminEmail, input.AdminPassword)
		if err != nil {
			return err
		}
		admin.DisplayName = "Administrator"
		if err := admin.SetRoles([]uuid.UUID{adminRole.ID}); err != nil {
			return err
		}
		if err := r.Users().Save(ctx, admin); err != nil {
			return err
		}
		perms = append([]string(nil), adminRole.Permissions...)

		accounts, settings, err := ledger.BuildChart(tenant.ID, ledger.DefaultChart)
		if err != nil {
			return err
		}
		if err := r.Accounts().SaveBatch(ctx, accounts); err != nil {
			return err
		}
		if err := r.Settings().Save(ctx, settings); err != nil {
			return err
		}

		now := s.now()
		if _, err := appledger.OpenFiscalYear(ctx, r, tenant.ID, tenant.FiscalYearOf(now.Year(), int(now.Month()))); err != nil {
			return err
		}

		wh, err := inventory.NewWarehouse(tenant.ID, DefaultWarehouseCode, "Main Warehouse")
		if err != nil {
			return err
		}
		wh.IsDefault = true
		if err := r.Warehouses().Save(ctx, wh); err != nil {
			return err
		}

		events = shared.CollectEvents(tenant, admin)
		return nil
	})
	if err != nil {
		log.Warn("Tenant registration failed", zap.String("tenant_code", input.TenantCode), zap.Error(err))
		return nil, err
	}
	s.events.Dispatch(ctx, events)

	tokens, err := s.jwtService.Issue(auth.Subject{
		TenantID:    tenant.ID,
		UserID:      admin.ID,
		Username:    admin.Username,
		RoleIDs:     admin.RoleIDs,
		Permissions: perms,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Tenant registered",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("tenant_code", tenant.Code))
	return &RegisterTenantResult{
		Tenant: toTenantInfo(tenant),
		User:   toUserInfo(admin, perms),
		Tokens: tokens,
	}, nil
}

// Get returns the tenant
func (s *TenantService) Get(ctx context.Context, tenantID uuid.UUID) (*TenantInfo, error) {
	tenant, err := s.repos.Tenants().FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	info := toTenantInfo(tenant)
	return &info, nil
}

// Rename changes the tenant display name. Code, currency and fiscal start
// are fixed once books exist.
func (s *TenantService) Rename(ctx context.Context, tenantID uuid.UUID, name string) (*TenantInfo, error) {
	tenant, err := s.repos.Tenants().FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := tenant.Rename(name); err != nil {
		return nil, err
	}
	if err := s.repos.Tenants().Save(ctx, tenant); err != nil {
		return nil, err
	}
	info := toTenantInfo(tenant)
	return &info, nil
}
