package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/manufacturing"
)

// BOMHandler handles bills of materials
type BOMHandler struct {
	BaseHandler
	bomService *manufacturing.BOMService
}

// NewBOMHandler creates a new BOM handler
func NewBOMHandler(bomService *manufacturing.BOMService) *BOMHandler {
	return &BOMHandler{bomService: bomService}
}

// Create POST /boms
func (h *BOMHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req manufacturing.CreateBOMRequest
	if !h.bindJSON(c, &req) {
		return
	}
	bom, err := h.bomService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bom)
}

// Get GET /boms/:id
func (h *BOMHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	bom, err := h.bomService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bom)
}

// List GET /boms
func (h *BOMHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q manufacturing.BOMListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.bomService.List(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Update replaces the components of a draft BOM.
// PUT /boms/:id
func (h *BOMHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req manufacturing.UpdateBOMRequest
	if !h.bindJSON(c, &req) {
		return
	}
	bom, err := h.bomService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bom)
}

// Activate makes a BOM the product's active one.
// POST /boms/:id/activate
func (h *BOMHandler) Activate(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	bom, err := h.bomService.Activate(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bom)
}

// Deactivate POST /boms/:id/deactivate
func (h *BOMHandler) Deactivate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	bom, err := h.bomService.Deactivate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bom)
}

// Requirements explodes a BOM for a quantity and flags shortages.
// GET /boms/:id/requirements?quantity=&warehouse_id=
func (h *BOMHandler) Requirements(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var q manufacturing.RequirementsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	out, err := h.bomService.Requirements(c.Request.Context(), tenantID, id, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
