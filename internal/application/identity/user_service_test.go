package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appidentity "github.com/clearbook/backend/internal/application/identity"
	"github.com/clearbook/backend/internal/domain/identity"
)

func roleID(t *testing.T, s *services, tenantID uuid.UUID, code string) uuid.UUID {
	t.Helper()
	role, err := s.f.Repos.Roles().FindByCode(context.Background(), tenantID, code)
	require.NoError(t, err)
	return role.ID
}

func TestUserService_CreateAndList(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	reg := s.register(t)
	tenantID := reg.Tenant.ID
	viewer := roleID(t, s, tenantID, identity.RoleViewer)

	_, err := s.users.Create(ctx, tenantID, appidentity.CreateUserInput{
		Username: "carol", Password: adminPassword, RoleIDs: []uuid.UUID{uuid.New()},
	})
	assertCode(t, err, "ROLE_NOT_FOUND")

	carol, err := s.users.Create(ctx, tenantID, appidentity.CreateUserInput{
		Username:    "carol",
		Email:       "carol@globex.test",
		DisplayName: "Carol",
		Password:    adminPassword,
		RoleIDs:     []uuid.UUID{viewer},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{viewer}, carol.RoleIDs)
	assert.Contains(t, carol.Permissions, identity.PermReportRead)
	assert.NotContains(t, carol.Permissions, identity.PermVoucherPost)

	_, err = s.users.Create(ctx, tenantID, appidentity.CreateUserInput{Username: "Carol", Password: adminPassword})
	assertCode(t, err, "USERNAME_EXISTS")

	page, err := s.users.List(ctx, tenantID, appidentity.UserListInput{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, "admin", page.Items[0].Username)

	page, err = s.users.List(ctx, tenantID, appidentity.UserListInput{RoleID: &viewer})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "carol", page.Items[0].Username)

	page, err = s.users.List(ctx, tenantID, appidentity.UserListInput{Search: "globex"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	page, err = s.users.List(ctx, s.f.TenantID(), appidentity.UserListInput{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestUserService_UpdateRoles(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	reg := s.register(t)
	tenantID := reg.Tenant.ID

	dave, err := s.users.Create(ctx, tenantID, appidentity.CreateUserInput{Username: "dave", Password: adminPassword})
	require.NoError(t, err)
	assert.Empty(t, dave.Permissions)

	accountant := roleID(t, s, tenantID, identity.RoleAccountant)
	updated, err := s.users.Update(ctx, tenantID, dave.ID, appidentity.UpdateUserInput{
		Email: "dave@globex.test", DisplayName: "Dave", RoleIDs: []uuid.UUID{accountant},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dave", updated.DisplayName)
	assert.Contains(t, updated.Permissions, identity.PermVoucherPost)

	kept, err := s.users.Update(ctx, tenantID, dave.ID, appidentity.UpdateUserInput{Email: "d@globex.test"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{accountant}, kept.RoleIDs)

	_, err = s.users.Update(ctx, tenantID, dave.ID, appidentity.UpdateUserInput{Email: "not-an-email"})
	assertCode(t, err, "INVALID_EMAIL")
}

func TestUserService_DeactivateBlocksLogin(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	reg := s.register(t)
	tenantID := reg.Tenant.ID

	_, err := s.users.Deactivate(ctx, tenantID, reg.User.ID, reg.User.ID)
	assertCode(t, err, "CANNOT_DEACTIVATE_SELF")

	erin, err := s.users.Create(ctx, tenantID, appidentity.CreateUserInput{Username: "erin", Password: adminPassword})
	require.NoError(t, err)
	login, err := s.login("erin", adminPassword)
	require.NoError(t, err)

	info, err := s.users.Deactivate(ctx, tenantID, reg.User.ID, erin.ID)
	require.NoError(t, err)
	assert.Equal(t, string(identity.UserStatusDeactivated), info.Status)

	_, err = s.login("erin", adminPassword)
	assertCode(t, err, "ACCOUNT_DEACTIVATED")

	claims, err := s.jwt.ValidateAccessToken(login.Tokens.AccessToken)
	require.NoError(t, err)
	revoked, err := s.auth.IsRevoked(ctx, claims)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = s.users.Activate(ctx, tenantID, erin.ID)
	require.NoError(t, err)
	_, err = s.users.Activate(ctx, tenantID, erin.ID)
	assertCode(t, err, "ALREADY_ACTIVE")
}

func TestUserService_Unlock(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	reg := s.register(t)

	_, err := s.users.Unlock(ctx, reg.Tenant.ID, reg.User.ID)
	assertCode(t, err, "NOT_LOCKED")

	for i := 0; i < identity.MaxFailedLogins; i++ {
		_, _ = s.login("admin", "wrong-password1")
	}
	_, err = s.login("admin", adminPassword)
	assertCode(t, err, "ACCOUNT_LOCKED")

	info, err := s.users.Unlock(ctx, reg.Tenant.ID, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, string(identity.UserStatusActive), info.Status)

	_, err = s.login("admin", adminPassword)
	require.NoError(t, err)
}

func TestRoleService_Lifecycle(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	reg := s.register(t)
	tenantID := reg.Tenant.ID

	_, err := s.roles.Create(ctx, tenantID, appidentity.RoleInput{
		Code: "auditor", Name: "Auditor", Permissions: []string{"voucher:fly"},
	})
	assertCode(t, err, "INVALID_PERMISSION_CODE")

	role, err := s.roles.Create(ctx, tenantID, appidentity.RoleInput{
		Code:        "auditor",
		Name:        "Auditor",
		Description: "External auditor",
		Permissions: []string{identity.PermVoucherRead, identity.PermReportRead, identity.PermVoucherRead},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{identity.PermReportRead, identity.PermVoucherRead}, role.Permissions)
	assert.False(t, role.IsSystem)

	_, err = s.roles.Create(ctx, tenantID, appidentity.RoleInput{Code: "auditor", Name: "Dup"})
	assertCode(t, err, "ROLE_CODE_EXISTS")

	updated, err := s.roles.Update(ctx, tenantID, role.ID, appidentity.RoleInput{
		Name: "Senior Auditor", Permissions: []string{identity.PermReportRead},
	})
	require.NoError(t, err)
	assert.Equal(t, "Senior Auditor", updated.Name)
	assert.Equal(t, []string{identity.PermReportRead}, updated.Permissions)

	_, err = s.users.Create(ctx, tenantID, appidentity.CreateUserInput{
		Username: "frank", Password: adminPassword, RoleIDs: []uuid.UUID{role.ID},
	})
	require.NoError(t, err)

	got, err := s.roles.GetByID(ctx, tenantID, role.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.UserCount)

	err = s.roles.Delete(ctx, tenantID, role.ID)
	assertCode(t, err, "ROLE_IN_USE")

	admin := roleID(t, s, tenantID, identity.RoleAdmin)
	_, err = s.roles.Update(ctx, tenantID, admin, appidentity.RoleInput{Name: "Boss"})
	assertCode(t, err, "ROLE_IMMUTABLE")
	err = s.roles.Delete(ctx, tenantID, roleID(t, s, tenantID, identity.RoleViewer))
	assertCode(t, err, "SYSTEM_ROLE")

	assert.Len(t, s.roles.ListPermissions(), len(identity.AllPermissions()))
}
