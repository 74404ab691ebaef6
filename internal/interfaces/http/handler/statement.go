package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clearbook/backend/internal/application/banking"
	"github.com/clearbook/backend/internal/interfaces/http/dto"
)

// statementFileField is the multipart field carrying the bank export
const statementFileField = "file"

// StatementHandler handles statement import and reconciliation
type StatementHandler struct {
	BaseHandler
	statementService *banking.StatementService
}

// NewStatementHandler creates a new statement handler
func NewStatementHandler(statementService *banking.StatementService) *StatementHandler {
	return &StatementHandler{statementService: statementService}
}

// Import creates a statement from JSON lines.
// POST /bank-accounts/:id/statements
func (h *StatementHandler) Import(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	bankID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req banking.ImportStatementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	statement, err := h.statementService.Import(c.Request.Context(), tenantID, userID, bankID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, statement)
}

// ImportFile creates a statement from an uploaded CSV export. The header
// balances travel as form fields next to the file.
// POST /bank-accounts/:id/statements/import
func (h *StatementHandler) ImportFile(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	bankID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req banking.ImportFileRequest
	if !h.bind(c, c.ShouldBind(&req), "Invalid form fields") {
		return
	}

	header, err := c.FormFile(statementFileField)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		h.BadRequest(c, "A statement file is required in field \""+statementFileField+"\"")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	req.FileName = header.Filename
	req.Data = data

	statement, err := h.statementService.ImportFile(c.Request.Context(), tenantID, userID, bankID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, statement)
}

// List GET /bank-accounts/:id/statements
func (h *StatementHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	bankID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var q banking.StatementListFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.statementService.List(c.Request.Context(), tenantID, bankID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get GET /statements/:id
func (h *StatementHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	statement, err := h.statementService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}

// SourceFile returns a temporary download link for the uploaded export.
// GET /statements/:id/source-file
func (h *StatementHandler) SourceFile(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	link, err := h.statementService.SourceFile(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// AutoMatch POST /statements/:id/auto-match
func (h *StatementHandler) AutoMatch(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.statementService.AutoMatch(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Reconciliation GET /statements/:id/reconciliation
func (h *StatementHandler) Reconciliation(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.statementService.Summary(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Complete marks a fully matched statement reconciled.
// POST /statements/:id/complete
func (h *StatementHandler) Complete(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	statement, err := h.statementService.Complete(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}

// MatchLine POST /statement-lines/:id/match
func (h *StatementHandler) MatchLine(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req banking.MatchLineRequest
	if !h.bindJSON(c, &req) {
		return
	}
	statement, err := h.statementService.MatchLine(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}

// UnmatchLine POST /statement-lines/:id/unmatch
func (h *StatementHandler) UnmatchLine(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	statement, err := h.statementService.UnmatchLine(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}

// CreateEntry posts a voucher for an unmatched line and matches it.
// POST /statement-lines/:id/create-entry
func (h *StatementHandler) CreateEntry(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req banking.CreateEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	statement, err := h.statementService.CreateEntry(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}
