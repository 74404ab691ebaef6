package banking

const (
	CodeStatementUnbalanced       = "STATEMENT_UNBALANCED"
	CodeAmountMismatch            = "AMOUNT_MISMATCH"
	CodeReconciliationDifference  = "RECONCILIATION_DIFFERENCE"
	CodeStatementReconciled       = "STATEMENT_RECONCILED"
	CodeLineAlreadyMatched        = "LINE_ALREADY_MATCHED"
	CodeJournalLineAlreadyCleared = "JOURNAL_LINE_ALREADY_CLEARED"
)
