package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/audit"
)

// AuditHandler lists the audit trail
type AuditHandler struct {
	BaseHandler
	auditService *audit.Service
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *audit.Service) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List GET /audit-logs
func (h *AuditHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q audit.ListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.auditService.List(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
