package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/identity"
	"github.com/clearbook/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles registration, login and the caller's session
type AuthHandler struct {
	BaseHandler
	authService   *identity.AuthService
	tenantService *identity.TenantService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, tenantService *identity.TenantService) *AuthHandler {
	return &AuthHandler{authService: authService, tenantService: tenantService}
}

// Register opens a tenant and logs its administrator in.
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.tenantService.Register(c.Request.Context(), identity.RegisterTenantInput{
		TenantCode:       req.TenantCode,
		TenantName:       req.TenantName,
		BaseCurrency:     req.BaseCurrency,
		FiscalStartMonth: req.FiscalStartMonth,
		AdminUsername:    req.AdminUsername,
		AdminEmail:       req.AdminEmail,
		AdminPassword:    req.AdminPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, SessionResponse{
		Token:  result.Tokens,
		User:   toUserResponse(result.User),
		Tenant: toTenantResponse(result.Tenant),
	})
}

// Login authenticates a user of a tenant.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		TenantCode: req.TenantCode,
		Username:   req.Username,
		Password:   req.Password,
		IP:         c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SessionResponse{
		Token:  result.Tokens,
		User:   toUserResponse(result.User),
		Tenant: toTenantResponse(result.Tenant),
	})
}

// Refresh exchanges a refresh token for a new pair.
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"token": tokens})
}

// Logout revokes the presented access token and optional refresh token.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		AccessClaims: middleware.GetClaims(c),
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me returns the current user with effective permissions.
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	user, err := h.authService.GetCurrentUser(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(*user))
}

// ChangePassword changes the caller's password and ends their other sessions.
// PUT /auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	err := h.authService.ChangePassword(c.Request.Context(), identity.ChangePasswordInput{
		TenantID:    tenantID,
		UserID:      userID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
