package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clearbook/backend/internal/application/inventory"
)

// StockHandler handles stock movements and balances
type StockHandler struct {
	BaseHandler
	stockService *inventory.StockService
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stockService *inventory.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// runStockOperation binds R and books it as the calling user
func runStockOperation[R any](h *StockHandler, c *gin.Context, op func(context.Context, uuid.UUID, uuid.UUID, R) (*inventory.StockOperationResponse, error)) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req R
	if !h.bindJSON(c, &req) {
		return
	}
	out, err := op(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// Receive books incoming stock at cost.
// POST /stock/receipts
func (h *StockHandler) Receive(c *gin.Context) {
	runStockOperation(h, c, h.stockService.Receive)
}

// Issue books stock out to an expense account.
// POST /stock/issues
func (h *StockHandler) Issue(c *gin.Context) {
	runStockOperation(h, c, h.stockService.Issue)
}

// Adjust books a stock count difference.
// POST /stock/adjustments
func (h *StockHandler) Adjust(c *gin.Context) {
	runStockOperation(h, c, h.stockService.Adjust)
}

// Balances GET /stock/balances
func (h *StockHandler) Balances(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q inventory.BalanceListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	balances, err := h.stockService.ListBalances(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balances)
}

// Movements GET /stock/movements
func (h *StockHandler) Movements(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q inventory.MovementListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.stockService.ListMovements(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
