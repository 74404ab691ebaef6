package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/inventory"
)

// ItemHandler handles items and warehouses
type ItemHandler struct {
	BaseHandler
	itemService *inventory.ItemService
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemService *inventory.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// CreateItem POST /items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req inventory.CreateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.itemService.CreateItem(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// GetItem GET /items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.itemService.GetItem(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ListItems GET /items
func (h *ItemHandler) ListItems(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q inventory.ItemListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.itemService.ListItems(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// UpdateItem PUT /items/:id
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req inventory.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.itemService.UpdateItem(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// CreateWarehouse POST /warehouses
func (h *ItemHandler) CreateWarehouse(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req inventory.WarehouseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	warehouse, err := h.itemService.CreateWarehouse(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, warehouse)
}

// UpdateWarehouse PUT /warehouses/:id
func (h *ItemHandler) UpdateWarehouse(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req inventory.WarehouseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	warehouse, err := h.itemService.UpdateWarehouse(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, warehouse)
}

// ListWarehouses GET /warehouses
func (h *ItemHandler) ListWarehouses(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	warehouses, err := h.itemService.ListWarehouses(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, warehouses)
}
