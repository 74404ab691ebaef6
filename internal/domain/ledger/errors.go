package ledger

import "github.com/clearbook/backend/internal/domain/shared"

// Error codes raised by the ledger.
const (
	CodeUnbalancedVoucher  = "UNBALANCED_VOUCHER"
	CodePeriodClosed       = "PERIOD_CLOSED"
	CodePeriodNotFound     = "PERIOD_NOT_FOUND"
	CodeAccountNotPostable = "ACCOUNT_NOT_POSTABLE"
	CodeAccountInUse       = "ACCOUNT_IN_USE"
	CodeVoucherNotDraft    = "VOUCHER_NOT_DRAFT"
)

var (
	ErrPeriodNotFound  = shared.NewDomainError(CodePeriodNotFound, "No fiscal period covers the voucher date")
	ErrPeriodClosed    = shared.NewDomainError(CodePeriodClosed, "The fiscal period is closed")
	ErrVoucherNotDraft = shared.NewDomainError(CodeVoucherNotDraft, "Only draft vouchers can be changed")
	ErrAccountInUse    = shared.NewDomainError(CodeAccountInUse, "Account has postings or child accounts")
)
