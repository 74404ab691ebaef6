package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/identity"
)

// RoleHandler manages roles and lists grantable permissions
type RoleHandler struct {
	BaseHandler
	roleService *identity.RoleService
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(roleService *identity.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

func roleInput(req RoleRequest) identity.RoleInput {
	return identity.RoleInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	}
}

// Create adds a custom role.
// POST /roles
func (h *RoleHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req RoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.Create(c.Request.Context(), tenantID, roleInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toRoleResponse(*role))
}

// Get returns one role.
// GET /roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	role, err := h.roleService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRoleResponse(*role))
}

// List returns all roles of the tenant.
// GET /roles
func (h *RoleHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	roles, err := h.roleService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]RoleResponse, len(roles))
	for i, r := range roles {
		out[i] = toRoleResponse(r)
	}
	h.Success(c, out)
}

// Update changes a role's name, description and permissions.
// PUT /roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req RoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.Update(c.Request.Context(), tenantID, id, roleInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRoleResponse(*role))
}

// Delete removes an unused custom role.
// DELETE /roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.roleService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Permissions lists every permission a role may grant.
// GET /permissions
func (h *RoleHandler) Permissions(c *gin.Context) {
	h.Success(c, h.roleService.ListPermissions())
}
