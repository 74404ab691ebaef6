package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/sales"
)

// CustomerHandler handles customers
type CustomerHandler struct {
	BaseHandler
	customerService *sales.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *sales.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// Create POST /customers
func (h *CustomerHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req sales.CustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// Get GET /customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// List GET /customers
func (h *CustomerHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q sales.CustomerListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.customerService.List(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Update PUT /customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req sales.CustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}
