package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// RoleService handles role management operations
type RoleService struct {
	repos  appshared.Repositories
	logger *zap.Logger
}

// NewRoleService creates a new role service
func NewRoleService(repos appshared.Repositories, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{repos: repos, logger: logger}
}

// Create creates a custom role
func (s *RoleService) Create(ctx context.Context, tenantID uuid.UUID, input RoleInput) (*RoleInfo, error) {
	role, err := identity.NewRole(tenantID, input.Code, input.Name)
	if err != nil {
		return nil, err
	}
	exists, err := s.repos.Roles().ExistsByCode(ctx, tenantID, role.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ROLE_CODE_EXISTS", "Role code already exists")
	}
	if err := role.Update(input.Name, input.Description); err != nil {
		return nil, err
	}
	if err := role.SetPermissions(input.Permissions); err != nil {
		return nil, err
	}
	if err := s.repos.Roles().Save(ctx, role); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("Role created",
		zap.String("role_id", role.ID.String()),
		zap.String("code", role.Code))
	info := toRoleInfo(role, 0)
	return &info, nil
}

// GetByID returns a role with its user count
func (s *RoleService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*RoleInfo, error) {
	role, err := s.repos.Roles().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repos.Users().CountByRole(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	info := toRoleInfo(role, count)
	return &info, nil
}

// List returns every role of the tenant
func (s *RoleService) List(ctx context.Context, tenantID uuid.UUID) ([]RoleInfo, error) {
	roles, err := s.repos.Roles().FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]RoleInfo, len(roles))
	for i := range roles {
		count, err := s.repos.Users().CountByRole(ctx, tenantID, roles[i].ID)
		if err != nil {
			return nil, err
		}
		out[i] = toRoleInfo(&roles[i], count)
	}
	return out, nil
}

// Update changes name, description and permissions. The admin role always
// holds every permission and cannot be edited.
func (s *RoleService) Update(ctx context.Context, tenantID, id uuid.UUID, input RoleInput) (*RoleInfo, error) {
	role, err := s.repos.Roles().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if role.Code == identity.RoleAdmin {
		return nil, shared.NewDomainError("ROLE_IMMUTABLE", "The admin role cannot be modified")
	}
	if err := role.Update(input.Name, input.Description); err != nil {
		return nil, err
	}
	if input.Permissions != nil {
		if err := role.SetPermissions(input.Permissions); err != nil {
			return nil, err
		}
	}
	if err := s.repos.Roles().Save(ctx, role); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("Role updated", zap.String("role_id", role.ID.String()))
	return s.GetByID(ctx, tenantID, id)
}

// Delete removes a custom role that no user holds
func (s *RoleService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	role, err := s.repos.Roles().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !role.CanDelete() {
		return shared.NewDomainError("SYSTEM_ROLE", "System roles cannot be deleted")
	}
	count, err := s.repos.Users().CountByRole(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainErrorf("ROLE_IN_USE", "Role is assigned to %d user(s)", count)
	}
	if err := s.repos.Roles().Delete(ctx, tenantID, id); err != nil {
		return err
	}
	logger.Enrich(ctx, s.logger).Info("Role deleted", zap.String("code", role.Code))
	return nil
}

// ListPermissions returns every permission that can be granted
func (s *RoleService) ListPermissions() []identity.Permission {
	return identity.AllPermissions()
}
