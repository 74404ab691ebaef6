package identity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// System role codes seeded for every tenant.
const (
	RoleAdmin          = "admin"
	RoleAccountant     = "accountant"
	RoleInventoryClerk = "inventory_clerk"
	RoleViewer         = "viewer"
)

var roleCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,49}$`)

// Role groups permissions and is assigned to users.
type Role struct {
	shared.TenantAggregateRoot
	Code        string
	Name        string
	Description string
	Permissions []string
	IsSystem    bool
}

// NewRole creates a custom role.
func NewRole(tenantID uuid.UUID, code, name string) (*Role, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if !roleCodePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_ROLE_CODE", "Role code must start with a letter and contain only lowercase letters, digits and underscores")
	}
	if err := validateRoleName(name); err != nil {
		return nil, err
	}
	return &Role{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		Permissions:         make([]string, 0),
	}, nil
}

// Update changes name and description.
func (r *Role) Update(name, description string) error {
	if err := validateRoleName(name); err != nil {
		return err
	}
	r.Name = strings.TrimSpace(name)
	r.Description = strings.TrimSpace(description)
	r.IncrementVersion()
	return nil
}

// SetPermissions replaces the granted permissions.
func (r *Role) SetPermissions(codes []string) error {
	if err := ValidatePermissionCodes(codes); err != nil {
		return err
	}
	seen := make(map[string]bool, len(codes))
	unique := make([]string, 0, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	sort.Strings(unique)
	r.Permissions = unique
	r.IncrementVersion()
	return nil
}

// HasPermission checks a single permission code.
func (r *Role) HasPermission(code string) bool {
	for _, p := range r.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// CanDelete reports whether the role may be removed.
func (r *Role) CanDelete() bool {
	return !r.IsSystem
}

// DefaultRoles builds the system roles seeded for a new tenant.
func DefaultRoles(tenantID uuid.UUID) []*Role {
	all := make([]string, 0)
	for _, p := range AllPermissions() {
		all = append(all, p.Code)
	}
	clerk := append(permissionsFor([]string{"item", "warehouse", "stock", "bom", "production"}, false),
		PermAccountRead, PermReportRead)

	specs := []struct {
		code, name, description string
		permissions             []string
	}{
		{RoleAdmin, "Administrator", "Full access", all},
		{RoleAccountant, "Accountant", "Bookkeeping, sales, banking and reports",
			permissionsFor([]string{"account", "settings", "period", "voucher", "report", "customer", "invoice", "payment", "bank", "reconciliation", "audit"}, true)},
		{RoleInventoryClerk, "Inventory Clerk", "Items, stock and production", clerk},
		{RoleViewer, "Viewer", "Read-only access", permissionsFor(nil, true)},
	}

	roles := make([]*Role, 0, len(specs))
	for _, s := range specs {
		perms := append([]string(nil), s.permissions...)
		sort.Strings(perms)
		roles = append(roles, &Role{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
			Code:                s.code,
			Name:                s.name,
			Description:         s.description,
			Permissions:         perms,
			IsSystem:            true,
		})
	}
	return roles
}

func validateRoleName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return shared.NewDomainError("INVALID_ROLE_NAME", "Role name must be 1-100 characters")
	}
	return nil
}
