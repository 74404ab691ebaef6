package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/ledger"
)

// VoucherHandler handles journal vouchers
type VoucherHandler struct {
	BaseHandler
	voucherService *ledger.VoucherService
}

// NewVoucherHandler creates a new voucher handler
func NewVoucherHandler(voucherService *ledger.VoucherService) *VoucherHandler {
	return &VoucherHandler{voucherService: voucherService}
}

// Create saves a draft voucher.
// POST /vouchers
func (h *VoucherHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req ledger.CreateVoucherRequest
	if !h.bindJSON(c, &req) {
		return
	}
	voucher, err := h.voucherService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, voucher)
}

// Get returns one voucher with its lines.
// GET /vouchers/:id
func (h *VoucherHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	voucher, err := h.voucherService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// List pages through vouchers.
// GET /vouchers
func (h *VoucherHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q ledger.VoucherListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.voucherService.List(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Update replaces a draft voucher.
// PUT /vouchers/:id
func (h *VoucherHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ledger.UpdateVoucherRequest
	if !h.bindJSON(c, &req) {
		return
	}
	voucher, err := h.voucherService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// Delete removes a draft voucher.
// DELETE /vouchers/:id
func (h *VoucherHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.voucherService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Post numbers and posts a draft voucher.
// POST /vouchers/:id/post
func (h *VoucherHandler) Post(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	voucher, err := h.voucherService.Post(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// Reverse posts a mirror voucher and marks the original reversed.
// POST /vouchers/:id/reverse
func (h *VoucherHandler) Reverse(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ledger.ReverseVoucherRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	reversal, err := h.voucherService.Reverse(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, reversal)
}
