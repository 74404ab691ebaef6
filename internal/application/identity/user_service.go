package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/auth"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// UserService handles user management operations
type UserService struct {
	repos      appshared.Repositories
	blacklist  auth.TokenBlacklist
	jwtService *auth.JWTService
	events     *appshared.EventDispatcher
	logger     *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	repos appshared.Repositories,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events *appshared.EventDispatcher,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		repos:      repos,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		logger:     logger,
	}
}

// Create creates a new active user in the tenant
func (s *UserService) Create(ctx context.Context, tenantID uuid.UUID, input CreateUserInput) (*UserInfo, error) {
	log := logger.Enrich(ctx, s.logger)
	log.Info("Creating new user", zap.String("username", input.Username))

	exists, err := s.repos.Users().ExistsByUsername(ctx, tenantID, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("USERNAME_EXISTS", "Username already exists")
	}
	if err := s.checkRoles(ctx, tenantID, input.RoleIDs); err != nil {
		return nil, err
	}

	user, err := identity.NewUser(tenantID, input.Username, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(input.Email, input.DisplayName); err != nil {
		return nil, err
	}
	if err := user.SetRoles(input.RoleIDs); err != nil {
		return nil, err
	}
	if err := s.repos.Users().Save(ctx, user); err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, shared.CollectEvents(user))

	log.Info("User created successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))
	return s.info(ctx, user)
}

// GetByID returns one user
func (s *UserService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*UserInfo, error) {
	user, err := s.repos.Users().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.info(ctx, user)
}

// List returns a page of users. Permissions are not expanded in lists.
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, input UserListInput) (*shared.Paginated[UserInfo], error) {
	filter := shared.DefaultFilter()
	if input.Page > 0 {
		filter.Page = input.Page
	}
	if input.PageSize > 0 {
		filter.PageSize = input.PageSize
	}
	filter.OrderBy = "username"
	filter.OrderDir = "asc"
	if input.OrderBy != "" {
		filter.OrderBy = input.OrderBy
	}
	if input.OrderDir != "" {
		filter.OrderDir = input.OrderDir
	}
	filter.Search = strings.TrimSpace(input.Search)
	filter = filter.With("status", input.Status)
	if input.RoleID != nil {
		filter = filter.With("role_id", *input.RoleID)
	}

	users, err := s.repos.Users().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Users().CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]UserInfo, len(users))
	for i := range users {
		items[i] = toUserInfo(&users[i], nil)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update changes the profile and, when RoleIDs is set, the role assignment
func (s *UserService) Update(ctx context.Context, tenantID, id uuid.UUID, input UpdateUserInput) (*UserInfo, error) {
	user, err := s.repos.Users().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(input.Email, input.DisplayName); err != nil {
		return nil, err
	}
	if input.RoleIDs != nil {
		if err := s.checkRoles(ctx, tenantID, input.RoleIDs); err != nil {
			return nil, err
		}
		if err := user.SetRoles(input.RoleIDs); err != nil {
			return nil, err
		}
	}
	if err := s.repos.Users().Save(ctx, user); err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, shared.CollectEvents(user))
	return s.info(ctx, user)
}

// Activate re-enables a deactivated or locked user
func (s *UserService) Activate(ctx context.Context, tenantID, id uuid.UUID) (*UserInfo, error) {
	return s.transition(ctx, tenantID, id, "activated", (*identity.User).Activate)
}

// Deactivate disables a user and revokes its tokens. Users cannot
// deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, tenantID, actorID, id uuid.UUID) (*UserInfo, error) {
	if actorID == id {
		return nil, shared.NewDomainError("CANNOT_DEACTIVATE_SELF", "You cannot deactivate your own account")
	}
	info, err := s.transition(ctx, tenantID, id, "deactivated", (*identity.User).Deactivate)
	if err != nil {
		return nil, err
	}
	if s.blacklist != nil {
		if err := s.blacklist.RevokeUser(ctx, id.String(), s.jwtService.RefreshTokenTTL()); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// Unlock clears a lock left by failed logins
func (s *UserService) Unlock(ctx context.Context, tenantID, id uuid.UUID) (*UserInfo, error) {
	return s.transition(ctx, tenantID, id, "unlocked", (*identity.User).Unlock)
}

// ResetPassword sets a new password without the old one and revokes the
// user's tokens.
func (s *UserService) ResetPassword(ctx context.Context, tenantID, id uuid.UUID, newPassword string) error {
	if _, err := s.transition(ctx, tenantID, id, "password reset", func(u *identity.User) error {
		return u.SetPassword(newPassword)
	}); err != nil {
		return err
	}
	if s.blacklist != nil {
		return s.blacklist.RevokeUser(ctx, id.String(), s.jwtService.RefreshTokenTTL())
	}
	return nil
}

func (s *UserService) transition(ctx context.Context, tenantID, id uuid.UUID, action string, apply func(*identity.User) error) (*UserInfo, error) {
	user, err := s.repos.Users().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(user); err != nil {
		return nil, err
	}
	if err := s.repos.Users().Save(ctx, user); err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, shared.CollectEvents(user))
	logger.Enrich(ctx, s.logger).Info("User "+action, zap.String("user_id", id.String()))
	return s.info(ctx, user)
}

func (s *UserService) checkRoles(ctx context.Context, tenantID uuid.UUID, roleIDs []uuid.UUID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	roles, err := s.repos.Roles().FindByIDs(ctx, tenantID, roleIDs)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]bool, len(roles))
	for _, r := range roles {
		found[r.ID] = true
	}
	for _, id := range roleIDs {
		if !found[id] {
			return shared.NewDomainError("ROLE_NOT_FOUND", "Role not found: "+id.String())
		}
	}
	return nil
}

func (s *UserService) info(ctx context.Context, user *identity.User) (*UserInfo, error) {
	perms, err := permissionsOf(ctx, s.repos, user.TenantID, user.RoleIDs)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(user, perms)
	return &info, nil
}
