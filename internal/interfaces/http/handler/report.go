package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clearbook/backend/internal/application/report"
)

// ReportHandler serves the financial and stock reports
type ReportHandler struct {
	BaseHandler
	reportService *report.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *report.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// serveReport binds the query into Q, runs build for the caller's tenant
// and writes the result
func serveReport[Q, R any](h *ReportHandler, c *gin.Context, build func(context.Context, uuid.UUID, Q) (R, error)) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q Q
	if !h.bindQuery(c, &q) {
		return
	}
	out, err := build(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// TrialBalance GET /reports/trial-balance?as_of=
func (h *ReportHandler) TrialBalance(c *gin.Context) {
	serveReport(h, c, h.reportService.TrialBalance)
}

// BalanceSheet GET /reports/balance-sheet?as_of=
func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	serveReport(h, c, h.reportService.BalanceSheet)
}

// IncomeStatement GET /reports/income-statement?from=&to=
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	serveReport(h, c, h.reportService.IncomeStatement)
}

// StockValuation GET /reports/stock-valuation?warehouse_id=
func (h *ReportHandler) StockValuation(c *gin.Context) {
	serveReport(h, c, h.reportService.StockValuation)
}

// ARAging GET /reports/ar-aging?as_of=
func (h *ReportHandler) ARAging(c *gin.Context) {
	serveReport(h, c, h.reportService.ARAging)
}
