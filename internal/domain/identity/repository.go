package identity

import (
	"context"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantRepository persists tenants.
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByCode(ctx context.Context, code string) (*Tenant, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, tenant *Tenant) error
}

// UserRepository persists users and their role assignments.
type UserRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*User, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error)
	CountByRole(ctx context.Context, tenantID, roleID uuid.UUID) (int64, error)
	Save(ctx context.Context, user *User) error
}

// RoleRepository persists roles.
type RoleRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Role, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Role, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Role, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Role, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, role *Role) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
