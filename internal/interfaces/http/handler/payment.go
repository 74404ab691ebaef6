package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/sales"
)

// PaymentHandler handles customer payments
type PaymentHandler struct {
	BaseHandler
	paymentService *sales.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *sales.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Record books a receipt and allocates it to invoices.
// POST /payments
func (h *PaymentHandler) Record(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req sales.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	payment, err := h.paymentService.Record(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Get GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payment, err := h.paymentService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// List GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q sales.PaymentListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.paymentService.List(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
