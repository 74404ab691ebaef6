package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbook/backend/internal/domain/shared"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"INVALID_INPUT", http.StatusBadRequest},
		{"INVALID_AMOUNT", http.StatusBadRequest},
		{ErrCodeValidation, http.StatusBadRequest},
		{"INVALID_CREDENTIALS", http.StatusUnauthorized},
		{"TOKEN_EXPIRED", http.StatusUnauthorized},
		{"FORBIDDEN", http.StatusForbidden},
		{"NOT_FOUND", http.StatusNotFound},
		{"ACCOUNT_NOT_FOUND", http.StatusNotFound},
		{"PERIOD_NOT_FOUND", http.StatusUnprocessableEntity},
		{"ALREADY_EXISTS", http.StatusConflict},
		{"ALREADY_POSTED", http.StatusConflict},
		{"USERNAME_EXISTS", http.StatusConflict},
		{"CONCURRENCY_CONFLICT", http.StatusConflict},
		{"INVALID_STATE", http.StatusConflict},
		{"DUPLICATE_REQUEST", http.StatusConflict},
		{"UNBALANCED_VOUCHER", http.StatusUnprocessableEntity},
		{"PERIOD_CLOSED", http.StatusUnprocessableEntity},
		{"INSUFFICIENT_STOCK", http.StatusUnprocessableEntity},
		{"RECONCILIATION_DIFFERENCE", http.StatusUnprocessableEntity},
		{"RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	require.NotNil(t, resp.Meta)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	empty := NewSuccessResponseWithMeta(nil, 0, 1, 0)
	assert.Zero(t, empty.Meta.TotalPages)
}

func TestNewPageResponse_EmptyItemsEncodeAsArray(t *testing.T) {
	page := shared.NewPaginated[string](nil, 0, 1, 20)
	body, err := json.Marshal(NewPageResponse(&page))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":[],"meta":{"total":0,"page":1,"page_size":20,"total_pages":0}}`, string(body))
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{{Field: "code", Message: "This field is required"}})
	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "VALIDATION_ERROR",
			"message": "Request validation failed",
			"request_id": "req-1",
			"details": [{"field": "code", "message": "This field is required"}]
		}
	}`, string(body))
}
