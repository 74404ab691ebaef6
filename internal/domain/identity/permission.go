package identity

import (
	"sort"
	"strings"

	"github.com/clearbook/backend/internal/domain/shared"
)

// Permission is a functional permission in resource:action form.
type Permission struct {
	Code        string `json:"code"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// Permission codes checked by the API.
const (
	PermUserRead   = "user:read"
	PermUserCreate = "user:create"
	PermUserUpdate = "user:update"

	PermRoleRead   = "role:read"
	PermRoleCreate = "role:create"
	PermRoleUpdate = "role:update"
	PermRoleDelete = "role:delete"

	PermAccountRead   = "account:read"
	PermAccountCreate = "account:create"
	PermAccountUpdate = "account:update"
	PermAccountDelete = "account:delete"

	PermSettingsRead   = "settings:read"
	PermSettingsUpdate = "settings:update"

	PermPeriodRead   = "period:read"
	PermPeriodCreate = "period:create"
	PermPeriodClose  = "period:close"

	PermVoucherRead    = "voucher:read"
	PermVoucherCreate  = "voucher:create"
	PermVoucherUpdate  = "voucher:update"
	PermVoucherDelete  = "voucher:delete"
	PermVoucherPost    = "voucher:post"
	PermVoucherReverse = "voucher:reverse"

	PermReportRead = "report:read"

	PermItemRead   = "item:read"
	PermItemCreate = "item:create"
	PermItemUpdate = "item:update"
	PermItemDelete = "item:delete"

	PermWarehouseRead   = "warehouse:read"
	PermWarehouseCreate = "warehouse:create"
	PermWarehouseUpdate = "warehouse:update"

	PermStockRead    = "stock:read"
	PermStockReceive = "stock:receive"
	PermStockIssue   = "stock:issue"
	PermStockAdjust  = "stock:adjust"

	PermBOMRead   = "bom:read"
	PermBOMCreate = "bom:create"
	PermBOMUpdate = "bom:update"

	PermProductionRead     = "production:read"
	PermProductionCreate   = "production:create"
	PermProductionRelease  = "production:release"
	PermProductionComplete = "production:complete"
	PermProductionCancel   = "production:cancel"

	PermCustomerRead   = "customer:read"
	PermCustomerCreate = "customer:create"
	PermCustomerUpdate = "customer:update"

	PermInvoiceRead   = "invoice:read"
	PermInvoiceCreate = "invoice:create"
	PermInvoiceUpdate = "invoice:update"
	PermInvoiceDelete = "invoice:delete"
	PermInvoicePost   = "invoice:post"
	PermInvoiceVoid   = "invoice:void"

	PermPaymentRead   = "payment:read"
	PermPaymentCreate = "payment:create"

	PermBankRead   = "bank:read"
	PermBankCreate = "bank:create"
	PermBankUpdate = "bank:update"
	PermBankImport = "bank:import"

	PermReconciliationRead     = "reconciliation:read"
	PermReconciliationMatch    = "reconciliation:match"
	PermReconciliationComplete = "reconciliation:complete"

	PermAuditRead = "audit:read"
)

var permissionDescriptions = map[string]string{
	PermUserRead:               "View users",
	PermUserCreate:             "Create users",
	PermUserUpdate:             "Update, activate and deactivate users",
	PermRoleRead:               "View roles",
	PermRoleCreate:             "Create roles",
	PermRoleUpdate:             "Update roles",
	PermRoleDelete:             "Delete roles",
	PermAccountRead:            "View the chart of accounts and account ledgers",
	PermAccountCreate:          "Create accounts",
	PermAccountUpdate:          "Update accounts",
	PermAccountDelete:          "Delete unused accounts",
	PermSettingsRead:           "View accounting settings",
	PermSettingsUpdate:         "Change default posting accounts",
	PermPeriodRead:             "View fiscal periods",
	PermPeriodCreate:           "Open fiscal years",
	PermPeriodClose:            "Close and reopen fiscal periods",
	PermVoucherRead:            "View journal vouchers",
	PermVoucherCreate:          "Create draft vouchers",
	PermVoucherUpdate:          "Edit draft vouchers",
	PermVoucherDelete:          "Delete draft vouchers",
	PermVoucherPost:            "Post vouchers to the ledger",
	PermVoucherReverse:         "Reverse posted vouchers",
	PermReportRead:             "View financial and stock reports",
	PermItemRead:               "View items",
	PermItemCreate:             "Create items",
	PermItemUpdate:             "Update items",
	PermItemDelete:             "Delete items",
	PermWarehouseRead:          "View warehouses",
	PermWarehouseCreate:        "Create warehouses",
	PermWarehouseUpdate:        "Update warehouses",
	PermStockRead:              "View stock balances and movements",
	PermStockReceive:           "Receive stock",
	PermStockIssue:             "Issue stock",
	PermStockAdjust:            "Adjust stock to counted quantities",
	PermBOMRead:                "View bills of materials",
	PermBOMCreate:              "Create bills of materials",
	PermBOMUpdate:              "Update and activate bills of materials",
	PermProductionRead:         "View production orders",
	PermProductionCreate:       "Create production orders",
	PermProductionRelease:      "Release production orders",
	PermProductionComplete:     "Complete production orders",
	PermProductionCancel:       "Cancel production orders",
	PermCustomerRead:           "View customers",
	PermCustomerCreate:         "Create customers",
	PermCustomerUpdate:         "Update customers",
	PermInvoiceRead:            "View sales invoices",
	PermInvoiceCreate:          "Create draft invoices",
	PermInvoiceUpdate:          "Edit draft invoices",
	PermInvoiceDelete:          "Delete draft invoices",
	PermInvoicePost:            "Post invoices",
	PermInvoiceVoid:            "Void posted invoices",
	PermPaymentRead:            "View customer payments",
	PermPaymentCreate:          "Record customer payments",
	PermBankRead:               "View bank accounts and statements",
	PermBankCreate:             "Create bank accounts",
	PermBankUpdate:             "Update bank accounts",
	PermBankImport:             "Import bank statements",
	PermReconciliationRead:     "View reconciliation status",
	PermReconciliationMatch:    "Match and unmatch statement lines",
	PermReconciliationComplete: "Complete bank reconciliations",
	PermAuditRead:              "View the audit log",
}

// AllPermissions returns the permission catalogue sorted by code.
func AllPermissions() []Permission {
	codes := make([]string, 0, len(permissionDescriptions))
	for code := range permissionDescriptions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	perms := make([]Permission, 0, len(codes))
	for _, code := range codes {
		resource, action, _ := strings.Cut(code, ":")
		perms = append(perms, Permission{
			Code:        code,
			Resource:    resource,
			Action:      action,
			Description: permissionDescriptions[code],
		})
	}
	return perms
}

// IsKnownPermission reports whether code is in the catalogue.
func IsKnownPermission(code string) bool {
	_, ok := permissionDescriptions[code]
	return ok
}

// ValidatePermissionCodes rejects unknown codes.
func ValidatePermissionCodes(codes []string) error {
	for _, code := range codes {
		if !IsKnownPermission(code) {
			return shared.NewDomainErrorf("INVALID_PERMISSION_CODE", "Unknown permission %q", code)
		}
	}
	return nil
}

// permissionsFor collects catalogue codes whose resource is in resources,
// or whose action is read when includeAllReads is set.
func permissionsFor(resources []string, includeAllReads bool) []string {
	want := make(map[string]bool, len(resources))
	for _, r := range resources {
		want[r] = true
	}
	var codes []string
	for _, p := range AllPermissions() {
		if want[p.Resource] || (includeAllReads && p.Action == "read") {
			codes = append(codes, p.Code)
		}
	}
	return codes
}
