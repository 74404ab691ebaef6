package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/clearbook/backend/internal/application/identity"
	"github.com/clearbook/backend/internal/infrastructure/auth"
)

// RegisterRequest opens a new tenant with its first administrator
type RegisterRequest struct {
	TenantCode       string `json:"tenant_code" binding:"required,min=2,max=50"`
	TenantName       string `json:"tenant_name" binding:"required,min=1,max=200"`
	BaseCurrency     string `json:"base_currency" binding:"omitempty,len=3"`
	FiscalStartMonth int    `json:"fiscal_start_month" binding:"omitempty,min=1,max=12"`
	AdminUsername    string `json:"admin_username" binding:"required,min=3,max=100"`
	AdminEmail       string `json:"admin_email" binding:"omitempty,email"`
	AdminPassword    string `json:"admin_password" binding:"required,min=8,max=128"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	TenantCode string `json:"tenant_code" binding:"required"`
	Username   string `json:"username" binding:"required,max=100"`
	Password   string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest may name the refresh token to revoke with the access token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID                   uuid.UUID `json:"id"`
	Code                 string    `json:"code"`
	Name                 string    `json:"name"`
	BaseCurrency         string    `json:"base_currency"`
	FiscalYearStartMonth int       `json:"fiscal_year_start_month"`
	Status               string    `json:"status"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Email       string      `json:"email"`
	Status      string      `json:"status"`
	RoleIDs     []uuid.UUID `json:"role_ids"`
	Permissions []string    `json:"permissions"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	LockedUntil *time.Time  `json:"locked_until,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// SessionResponse is returned by register and login
type SessionResponse struct {
	Token  *auth.TokenPair `json:"token"`
	User   UserResponse    `json:"user"`
	Tenant TenantResponse  `json:"tenant"`
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username    string      `json:"username" binding:"required,min=3,max=100"`
	Email       string      `json:"email" binding:"omitempty,email"`
	DisplayName string      `json:"display_name" binding:"max=200"`
	Password    string      `json:"password" binding:"required,min=8,max=128"`
	RoleIDs     []uuid.UUID `json:"role_ids"`
}

// UpdateUserRequest updates profile and roles. Omitting role_ids keeps
// the current roles.
type UpdateUserRequest struct {
	Email       string      `json:"email" binding:"omitempty,email"`
	DisplayName string      `json:"display_name" binding:"max=200"`
	RoleIDs     []uuid.UUID `json:"role_ids"`
}

// ResetPasswordRequest sets a user's password without the old one
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// UserListQuery filters the user list
type UserListQuery struct {
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string     `form:"search"`
	Status   string     `form:"status" binding:"omitempty,oneof=active locked deactivated"`
	RoleID   *uuid.UUID `form:"role_id"`
}

// RoleRequest creates or updates a role
type RoleRequest struct {
	Code        string   `json:"code" binding:"max=50"`
	Name        string   `json:"name" binding:"required,min=1,max=100"`
	Description string   `json:"description" binding:"max=500"`
	Permissions []string `json:"permissions"`
}

// RoleResponse represents a role in API responses
type RoleResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	IsSystem    bool      `json:"is_system"`
	UserCount   int64     `json:"user_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTenantResponse(t identity.TenantInfo) TenantResponse {
	return TenantResponse{
		ID:                   t.ID,
		Code:                 t.Code,
		Name:                 t.Name,
		BaseCurrency:         t.BaseCurrency,
		FiscalYearStartMonth: t.FiscalYearStartMonth,
		Status:               t.Status,
	}
}

func toUserResponse(u identity.UserInfo) UserResponse {
	return UserResponse{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Status:      u.Status,
		RoleIDs:     u.RoleIDs,
		Permissions: u.Permissions,
		LastLoginAt: u.LastLoginAt,
		LockedUntil: u.LockedUntil,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toRoleResponse(r identity.RoleInfo) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Permissions: r.Permissions,
		IsSystem:    r.IsSystem,
		UserCount:   r.UserCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
