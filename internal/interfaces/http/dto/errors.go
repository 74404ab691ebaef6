package dto

import (
	"net/http"
	"strings"
)

// Codes raised by the HTTP layer itself. Everything else comes from
// shared.DomainError.Code.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeTooLarge         = "REQUEST_TOO_LARGE"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

var statusByCode = map[string]int{
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,
	"INVALID_INPUT":          http.StatusBadRequest,
	ErrCodeUnauthorized:      http.StatusUnauthorized,
	"INVALID_CREDENTIALS":    http.StatusUnauthorized,
	"INVALID_TOKEN":          http.StatusUnauthorized,
	"TOKEN_EXPIRED":          http.StatusUnauthorized,
	"TOKEN_REVOKED":          http.StatusUnauthorized,
	"REFRESH_LIMIT_EXCEEDED": http.StatusUnauthorized,
	ErrCodeForbidden:         http.StatusForbidden,
	"ACCOUNT_LOCKED":         http.StatusForbidden,
	"ACCOUNT_DEACTIVATED":    http.StatusForbidden,
	"TENANT_SUSPENDED":       http.StatusForbidden,
	ErrCodeNotFound:          http.StatusNotFound,
	"PERIOD_NOT_FOUND":       http.StatusUnprocessableEntity,
	"ALREADY_EXISTS":         http.StatusConflict,
	"CONCURRENCY_CONFLICT":   http.StatusConflict,
	"INVALID_STATE":          http.StatusConflict,
	ErrCodeDuplicateRequest:  http.StatusConflict,
	ErrCodeTooLarge:          http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:       http.StatusTooManyRequests,
	ErrCodeInternal:          http.StatusInternalServerError,
}

// HTTPStatus maps an error code to its response status. Codes without an
// explicit entry fall into families by shape; anything left over is a
// business rule violation (422).
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "ALREADY_"), strings.HasSuffix(code, "_EXISTS"):
		return http.StatusConflict
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
