package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Allowed sort fields per list endpoint. Anything else falls back to the
// endpoint default.

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"email":         true,
	"display_name":  true,
	"status":        true,
	"last_login_at": true,
}

// AccountSortFields contains allowed sort fields for ledger accounts
var AccountSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"type":       true,
}

// VoucherSortFields contains allowed sort fields for journal vouchers
var VoucherSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"number":     true,
	"date":       true,
	"type":       true,
	"status":     true,
	"posted_at":  true,
}

// ItemSortFields contains allowed sort fields for items
var ItemSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"sku":        true,
	"name":       true,
	"type":       true,
	"sale_price": true,
}

// StockBalanceSortFields contains allowed sort fields for stock balances
var StockBalanceSortFields = map[string]bool{
	"id":           true,
	"updated_at":   true,
	"quantity":     true,
	"average_cost": true,
}

// MovementSortFields contains allowed sort fields for stock movements
var MovementSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"date":       true,
	"type":       true,
	"quantity":   true,
	"total_cost": true,
}

// BOMSortFields contains allowed sort fields for bills of materials
var BOMSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"revision":   true,
	"name":       true,
}

// ProductionOrderSortFields contains allowed sort fields for production orders
var ProductionOrderSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"number":         true,
	"planned_date":   true,
	"completed_date": true,
	"status":         true,
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"code":         true,
	"name":         true,
	"email":        true,
	"credit_limit": true,
}

// InvoiceSortFields contains allowed sort fields for sales invoices
var InvoiceSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"number":       true,
	"invoice_date": true,
	"due_date":     true,
	"total":        true,
	"status":       true,
}

// PaymentSortFields contains allowed sort fields for customer payments
var PaymentSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"number":       true,
	"payment_date": true,
	"amount":       true,
}

// StatementSortFields contains allowed sort fields for bank statements
var StatementSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"statement_date": true,
	"status":         true,
}

// AuditLogSortFields contains allowed sort fields for audit logs
var AuditLogSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"occurred_at": true,
	"event_type":  true,
}
