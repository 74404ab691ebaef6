package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/ledger"
)

// PeriodHandler handles fiscal periods and accounting settings
type PeriodHandler struct {
	BaseHandler
	periodService *ledger.PeriodService
}

// NewPeriodHandler creates a new period handler
func NewPeriodHandler(periodService *ledger.PeriodService) *PeriodHandler {
	return &PeriodHandler{periodService: periodService}
}

// OpenFiscalYear creates the periods of a fiscal year.
// POST /fiscal-years
func (h *PeriodHandler) OpenFiscalYear(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req ledger.OpenFiscalYearRequest
	if !h.bindJSON(c, &req) {
		return
	}
	periods, err := h.periodService.OpenFiscalYear(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, periods)
}

// List returns periods, optionally for one fiscal year.
// GET /fiscal-periods
func (h *PeriodHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q ledger.PeriodListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	periods, err := h.periodService.ListPeriods(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, periods)
}

// Close closes a period to posting.
// POST /fiscal-periods/:id/close
func (h *PeriodHandler) Close(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	period, err := h.periodService.ClosePeriod(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// Reopen reopens the latest closed period.
// POST /fiscal-periods/:id/reopen
func (h *PeriodHandler) Reopen(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	period, err := h.periodService.ReopenPeriod(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// GetSettings returns the default posting accounts.
// GET /settings/accounting
func (h *PeriodHandler) GetSettings(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	settings, err := h.periodService.GetSettings(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// UpdateSettings changes default posting accounts.
// PUT /settings/accounting
func (h *PeriodHandler) UpdateSettings(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req ledger.UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	settings, err := h.periodService.UpdateSettings(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}
