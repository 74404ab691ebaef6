// Package handler adapts HTTP requests to the application services.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
	"github.com/clearbook/backend/internal/interfaces/http/dto"
	"github.com/clearbook/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Page sends one page of a list with pagination meta
func Page[T any](c *gin.Context, p *shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPageResponse(p))
}

// Error sends an error envelope
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError maps domain errors to their status by code. Anything else
// is logged and reported as a 500 without details.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.HTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}
	if details := middleware.ValidationDetails(err); details != nil {
		h.validationError(c, details)
		return
	}

	logger.L(c.Request.Context()).Error("request failed", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

func (h *BaseHandler) validationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// bindJSON decodes and validates the body into obj, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, obj any) bool {
	return h.bind(c, c.ShouldBindJSON(obj), "Invalid request body")
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty
func (h *BaseHandler) bindOptionalJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return h.bind(c, err, "Invalid request body")
}

// bindQuery decodes and validates the query string into obj
func (h *BaseHandler) bindQuery(c *gin.Context, obj any) bool {
	return h.bind(c, c.ShouldBindQuery(obj), "Invalid query parameters")
}

func (h *BaseHandler) bind(c *gin.Context, err error, message string) bool {
	if err == nil {
		return true
	}
	if details := middleware.ValidationDetails(err); details != nil {
		h.validationError(c, details)
		return false
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size")
		return false
	}
	h.BadRequest(c, message)
	return false
}

// pathID parses a uuid route parameter
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// caller returns the tenant and user of an authenticated request
func (h *BaseHandler) caller(c *gin.Context) (tenantID, userID uuid.UUID, ok bool) {
	tenantID, tok := middleware.GetTenantID(c)
	userID, uok := middleware.GetUserID(c)
	if !tok || !uok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, userID, true
}

// tenant returns the tenant of an authenticated request
func (h *BaseHandler) tenant(c *gin.Context) (uuid.UUID, bool) {
	tenantID, _, ok := h.caller(c)
	return tenantID, ok
}
