package sales

const (
	CodeCreditLimitExceeded = "CREDIT_LIMIT_EXCEEDED"
	CodeInvalidAllocation   = "INVALID_ALLOCATION"
)
