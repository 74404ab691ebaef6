package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/infrastructure/auth"
)

// RegisterTenantInput contains the input for self-service registration
type RegisterTenantInput struct {
	TenantCode       string
	TenantName       string
	BaseCurrency     string
	FiscalStartMonth int
	AdminUsername    string
	AdminEmail       string
	AdminPassword    string
}

// RegisterTenantResult is the new tenant with its admin, already logged in
type RegisterTenantResult struct {
	Tenant TenantInfo
	User   UserInfo
	Tokens *auth.TokenPair
}

// LoginInput contains the input for user login
type LoginInput struct {
	TenantCode string
	Username   string
	Password   string
	IP         string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Tokens *auth.TokenPair
	User   UserInfo
	Tenant TenantInfo
}

// LogoutInput revokes the presented tokens
type LogoutInput struct {
	AccessClaims *auth.Claims
	RefreshToken string // optional
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// TenantInfo contains tenant information returned to clients
type TenantInfo struct {
	ID                   uuid.UUID
	Code                 string
	Name                 string
	BaseCurrency         string
	FiscalYearStartMonth int
	Status               string
}

// UserInfo contains user information returned to clients
type UserInfo struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Username    string
	DisplayName string
	Email       string
	Status      string
	RoleIDs     []uuid.UUID
	Permissions []string
	LastLoginAt *time.Time
	LockedUntil *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserInput contains the input for creating a user
type CreateUserInput struct {
	Username    string
	Email       string
	DisplayName string
	Password    string
	RoleIDs     []uuid.UUID
}

// UpdateUserInput updates profile and roles. Nil RoleIDs keeps the roles.
type UpdateUserInput struct {
	Email       string
	DisplayName string
	RoleIDs     []uuid.UUID
}

// UserListInput filters the user list
type UserListInput struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   string
	RoleID   *uuid.UUID
}

// RoleInput creates or updates a role. Code is ignored on update.
type RoleInput struct {
	Code        string
	Name        string
	Description string
	Permissions []string
}

// RoleInfo contains role information returned to clients
type RoleInfo struct {
	ID          uuid.UUID
	Code        string
	Name        string
	Description string
	Permissions []string
	IsSystem    bool
	UserCount   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func toTenantInfo(t *identity.Tenant) TenantInfo {
	return TenantInfo{
		ID:                   t.ID,
		Code:                 t.Code,
		Name:                 t.Name,
		BaseCurrency:         t.BaseCurrency,
		FiscalYearStartMonth: t.FiscalYearStartMonth,
		Status:               string(t.Status),
	}
}

func toUserInfo(u *identity.User, permissions []string) UserInfo {
	roleIDs := append([]uuid.UUID(nil), u.RoleIDs...)
	if roleIDs == nil {
		roleIDs = []uuid.UUID{}
	}
	if permissions == nil {
		permissions = []string{}
	}
	return UserInfo{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Status:      string(u.Status),
		RoleIDs:     roleIDs,
		Permissions: permissions,
		LastLoginAt: u.LastLoginAt,
		LockedUntil: u.LockedUntil,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toRoleInfo(r *identity.Role, userCount int64) RoleInfo {
	perms := append([]string(nil), r.Permissions...)
	if perms == nil {
		perms = []string{}
	}
	return RoleInfo{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
		IsSystem:    r.IsSystem,
		UserCount:   userCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
