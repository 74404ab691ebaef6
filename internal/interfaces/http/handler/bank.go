package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/banking"
)

// BankAccountHandler handles bank accounts
type BankAccountHandler struct {
	BaseHandler
	bankService *banking.BankAccountService
}

// NewBankAccountHandler creates a new bank account handler
func NewBankAccountHandler(bankService *banking.BankAccountService) *BankAccountHandler {
	return &BankAccountHandler{bankService: bankService}
}

// Create POST /bank-accounts
func (h *BankAccountHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req banking.CreateBankAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	bank, err := h.bankService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bank)
}

// Get returns a bank account with its ledger balance.
// GET /bank-accounts/:id
func (h *BankAccountHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	bank, err := h.bankService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bank)
}

// List GET /bank-accounts
func (h *BankAccountHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	banks, err := h.bankService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, banks)
}

// Update PUT /bank-accounts/:id
func (h *BankAccountHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req banking.UpdateBankAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	bank, err := h.bankService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bank)
}
