package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/ledger"
)

// AccountHandler handles the chart of accounts
type AccountHandler struct {
	BaseHandler
	accountService *ledger.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *ledger.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// Create adds an account.
// POST /accounts
func (h *AccountHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req ledger.CreateAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	account, err := h.accountService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Get returns one account.
// GET /accounts/:id
func (h *AccountHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	account, err := h.accountService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// List pages through accounts.
// GET /accounts
func (h *AccountHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q ledger.AccountListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.accountService.List(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Update renames an account or toggles it.
// PUT /accounts/:id
func (h *AccountHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ledger.UpdateAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	account, err := h.accountService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Delete removes an unused account.
// DELETE /accounts/:id
func (h *AccountHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.accountService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Ledger returns the posted lines of an account with running balance.
// GET /accounts/:id/ledger
func (h *AccountHandler) Ledger(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var q ledger.AccountLedgerQuery
	if !h.bindQuery(c, &q) {
		return
	}
	out, err := h.accountService.GetLedger(c.Request.Context(), tenantID, id, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
