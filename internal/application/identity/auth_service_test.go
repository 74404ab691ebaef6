package identity_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clearbook/backend/internal/application/apptest"
	appidentity "github.com/clearbook/backend/internal/application/identity"
	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/auth"
	"github.com/clearbook/backend/internal/infrastructure/config"
)

const adminPassword = "Secret123!"

func TestMain(m *testing.M) {
	identity.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type services struct {
	f         *apptest.Fixture
	jwt       *auth.JWTService
	blacklist *auth.MemoryTokenBlacklist
	auth      *appidentity.AuthService
	tenants   *appidentity.TenantService
	users     *appidentity.UserService
	roles     *appidentity.RoleService
}

func setup(t *testing.T) *services {
	f := apptest.New(t)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-with-at-least-32-characters",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "clearbook-test",
		MaxRefreshCount:        5,
	})
	blacklist := auth.NewMemoryTokenBlacklist()
	return &services{
		f:         f,
		jwt:       jwtService,
		blacklist: blacklist,
		auth:      appidentity.NewAuthService(f.Repos, jwtService, blacklist, f.Events, nil),
		tenants:   appidentity.NewTenantService(f.Scope, f.Repos, jwtService, f.Events, nil),
		users:     appidentity.NewUserService(f.Repos, jwtService, blacklist, f.Events, nil),
		roles:     appidentity.NewRoleService(f.Repos, nil),
	}
}

func (s *services) register(t *testing.T) *appidentity.RegisterTenantResult {
	t.Helper()
	res, err := s.tenants.Register(context.Background(), appidentity.RegisterTenantInput{
		TenantCode:       "globex",
		TenantName:       "Globex Corporation",
		BaseCurrency:     "eur",
		FiscalStartMonth: 4,
		AdminUsername:    "Admin",
		AdminEmail:       "admin@globex.test",
		AdminPassword:    adminPassword,
	})
	require.NoError(t, err)
	return res
}

func (s *services) login(username, password string) (*appidentity.LoginResult, error) {
	return s.auth.Login(context.Background(), appidentity.LoginInput{
		TenantCode: "globex",
		Username:   username,
		Password:   password,
		IP:         "127.0.0.1",
	})
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.GetDomainError(err)
	require.Truef(t, ok, "expected domain error %s, got %v", code, err)
	assert.Equal(t, code, de.Code)
}

func TestTenantService_RegisterSeedsBooks(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	res := s.register(t)
	assert.Equal(t, "globex", res.Tenant.Code)
	assert.Equal(t, "EUR", res.Tenant.BaseCurrency)
	assert.Equal(t, "admin", res.User.Username)
	require.NotNil(t, res.Tokens)
	assert.NotEmpty(t, res.Tokens.AccessToken)

	all := identity.AllPermissions()
	assert.Len(t, res.User.Permissions, len(all))

	claims, err := s.jwt.ValidateAccessToken(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.Tenant.ID, claims.TenantUUID())
	assert.True(t, claims.HasPermission(identity.PermVoucherPost))

	roles, err := s.roles.List(ctx, res.Tenant.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 4)

	settings, err := s.f.Repos.Settings().FindByTenant(ctx, res.Tenant.ID)
	require.NoError(t, err)
	for _, key := range ledger.SettingKeys {
		_, err := settings.Require(key)
		assert.NoErrorf(t, err, "setting %s", key)
	}

	now := time.Now()
	year := (&identity.Tenant{FiscalYearStartMonth: 4}).FiscalYearOf(now.Year(), int(now.Month()))
	periods, err := s.f.Repos.Periods().FindByYear(ctx, res.Tenant.ID, year)
	require.NoError(t, err)
	require.Len(t, periods, 12)
	assert.Equal(t, time.April, periods[0].StartDate.Month())

	wh, err := s.f.Repos.Warehouses().FindDefault(ctx, res.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, appidentity.DefaultWarehouseCode, wh.Code)

	assert.Contains(t, s.f.Publisher.Types(), identity.EventTypeTenantRegistered)
}

func TestTenantService_RegisterRejectsTakenCode(t *testing.T) {
	s := setup(t)
	_, err := s.tenants.Register(context.Background(), appidentity.RegisterTenantInput{
		TenantCode:    "acme",
		TenantName:    "Another Acme",
		AdminUsername: "admin",
		AdminPassword: adminPassword,
	})
	assertCode(t, err, "ALREADY_EXISTS")
}

func TestAuthService_Login(t *testing.T) {
	s := setup(t)
	reg := s.register(t)

	res, err := s.login("ADMIN", adminPassword)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotNil(t, res.User.LastLoginAt)
	assert.Equal(t, "Bearer", res.Tokens.TokenType)

	_, err = s.login("admin", "wrong-password1")
	assertCode(t, err, "INVALID_CREDENTIALS")

	_, err = s.login("nobody", adminPassword)
	assertCode(t, err, "INVALID_CREDENTIALS")

	_, err = s.auth.Login(context.Background(), appidentity.LoginInput{TenantCode: "initech", Username: "admin", Password: adminPassword})
	assertCode(t, err, "INVALID_CREDENTIALS")
}

func TestAuthService_LoginLocksAfterRepeatedFailures(t *testing.T) {
	s := setup(t)
	reg := s.register(t)

	for i := 1; i < identity.MaxFailedLogins; i++ {
		_, err := s.login("admin", "wrong-password1")
		assertCode(t, err, "INVALID_CREDENTIALS")
	}
	_, err := s.login("admin", "wrong-password1")
	assertCode(t, err, "ACCOUNT_LOCKED")

	_, err = s.login("admin", adminPassword)
	assertCode(t, err, "ACCOUNT_LOCKED")

	user, err := s.f.Repos.Users().FindByIDForTenant(context.Background(), reg.Tenant.ID, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.UserStatusLocked, user.Status)
	assert.Contains(t, s.f.Publisher.Types(), identity.EventTypeUserLocked)
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	reg := s.register(t)

	tokens, err := s.auth.Refresh(ctx, reg.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, reg.Tokens.RefreshToken, tokens.RefreshToken)

	_, err = s.auth.Refresh(ctx, reg.Tokens.RefreshToken)
	assertCode(t, err, "UNAUTHORIZED")

	_, err = s.auth.Refresh(ctx, "not-a-token")
	assertCode(t, err, "INVALID_TOKEN")

	_, err = s.auth.Refresh(ctx, reg.Tokens.AccessToken)
	assertCode(t, err, "INVALID_TOKEN")
}

func TestAuthService_LogoutRevokesTokens(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	reg := s.register(t)

	claims, err := s.jwt.ValidateAccessToken(reg.Tokens.AccessToken)
	require.NoError(t, err)
	revoked, err := s.auth.IsRevoked(ctx, claims)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.auth.Logout(ctx, appidentity.LogoutInput{AccessClaims: claims, RefreshToken: reg.Tokens.RefreshToken}))

	revoked, err = s.auth.IsRevoked(ctx, claims)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = s.auth.Refresh(ctx, reg.Tokens.RefreshToken)
	assertCode(t, err, "UNAUTHORIZED")
}

func TestAuthService_ChangePassword(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	reg := s.register(t)

	err := s.auth.ChangePassword(ctx, appidentity.ChangePasswordInput{
		TenantID: reg.Tenant.ID, UserID: reg.User.ID,
		OldPassword: "not-my-password1", NewPassword: "NewSecret456",
	})
	assertCode(t, err, "INVALID_PASSWORD")

	err = s.auth.ChangePassword(ctx, appidentity.ChangePasswordInput{
		TenantID: reg.Tenant.ID, UserID: reg.User.ID,
		OldPassword: adminPassword, NewPassword: "short",
	})
	assertCode(t, err, "INVALID_PASSWORD")

	require.NoError(t, s.auth.ChangePassword(ctx, appidentity.ChangePasswordInput{
		TenantID: reg.Tenant.ID, UserID: reg.User.ID,
		OldPassword: adminPassword, NewPassword: "NewSecret456",
	}))

	claims, err := s.jwt.ValidateAccessToken(reg.Tokens.AccessToken)
	require.NoError(t, err)
	revoked, err := s.auth.IsRevoked(ctx, claims)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = s.login("admin", adminPassword)
	assertCode(t, err, "INVALID_CREDENTIALS")
	_, err = s.login("admin", "NewSecret456")
	require.NoError(t, err)
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	s := setup(t)
	reg := s.register(t)

	me, err := s.auth.GetCurrentUser(context.Background(), reg.Tenant.ID, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin@globex.test", me.Email)
	assert.Contains(t, me.Permissions, identity.PermUserCreate)

	_, err = s.auth.GetCurrentUser(context.Background(), s.f.TenantID(), reg.User.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
