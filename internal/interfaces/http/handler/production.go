package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/manufacturing"
)

// ProductionHandler handles production orders
type ProductionHandler struct {
	BaseHandler
	productionService *manufacturing.ProductionService
}

// NewProductionHandler creates a new production handler
func NewProductionHandler(productionService *manufacturing.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: productionService}
}

// Create POST /production-orders
func (h *ProductionHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req manufacturing.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.productionService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Get GET /production-orders/:id
func (h *ProductionHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.productionService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List GET /production-orders
func (h *ProductionHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q manufacturing.OrderListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.productionService.List(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Update PUT /production-orders/:id
func (h *ProductionHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req manufacturing.UpdateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.productionService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Release POST /production-orders/:id/release
func (h *ProductionHandler) Release(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.productionService.Release(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Complete consumes components, receives the product and posts the
// production voucher.
// POST /production-orders/:id/complete
func (h *ProductionHandler) Complete(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req manufacturing.CompleteOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	order, err := h.productionService.Complete(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel POST /production-orders/:id/cancel
func (h *ProductionHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req manufacturing.CancelOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	order, err := h.productionService.Cancel(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
