package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/identity"
	"github.com/clearbook/backend/internal/domain/shared"
)

// UserHandler manages the users of the caller's tenant
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create adds an active user.
// POST /users
func (h *UserHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Create(c.Request.Context(), tenantID, identity.CreateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		RoleIDs:     req.RoleIDs,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toUserResponse(*user))
}

// Get returns one user.
// GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(*user))
}

// List pages through users.
// GET /users
func (h *UserHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q UserListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.userService.List(c.Request.Context(), tenantID, identity.UserListInput{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
		Search:   q.Search,
		Status:   q.Status,
		RoleID:   q.RoleID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items := make([]UserResponse, len(page.Items))
	for i, u := range page.Items {
		items[i] = toUserResponse(u)
	}
	out := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	Page(c, &out)
}

// Update changes profile fields and roles.
// PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Update(c.Request.Context(), tenantID, id, identity.UpdateUserInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		RoleIDs:     req.RoleIDs,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(*user))
}

// Activate re-enables a deactivated user.
// POST /users/:id/activate
func (h *UserHandler) Activate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Activate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(*user))
}

// Deactivate blocks a user and revokes their tokens.
// POST /users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	tenantID, actorID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Deactivate(c.Request.Context(), tenantID, actorID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(*user))
}

// Unlock clears a login lockout.
// POST /users/:id/unlock
func (h *UserHandler) Unlock(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Unlock(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(*user))
}

// ResetPassword sets a new password for a user.
// PUT /users/:id/password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ResetPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.userService.ResetPassword(c.Request.Context(), tenantID, id, req.NewPassword); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
