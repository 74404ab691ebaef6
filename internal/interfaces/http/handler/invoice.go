package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/sales"
)

// InvoiceHandler handles sales invoices
type InvoiceHandler struct {
	BaseHandler
	invoiceService *sales.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *sales.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Create POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req sales.InvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	invoice, err := h.invoiceService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// Get GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q sales.InvoiceListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.invoiceService.List(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Update replaces a draft invoice.
// PUT /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req sales.InvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	invoice, err := h.invoiceService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Delete DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.invoiceService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Post numbers the invoice, issues stock and posts the revenue voucher.
// POST /invoices/:id/post
func (h *InvoiceHandler) Post(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.Post(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Void reverses an unpaid posted invoice.
// POST /invoices/:id/void
func (h *InvoiceHandler) Void(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req sales.VoidInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	invoice, err := h.invoiceService.Void(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}
