package ledger

import "fmt"

// Document number prefixes. Vouchers use one prefix per type.
const (
	PrefixGeneralJournal    = "JV"
	PrefixSalesJournal      = "SJ"
	PrefixCashReceipt       = "CR"
	PrefixInventoryJournal  = "IJ"
	PrefixProductionJournal = "PJ"
	PrefixBankJournal       = "BJ"
	PrefixReversalJournal   = "RJ"

	PrefixInvoice         = "INV"
	PrefixPayment         = "PAY"
	PrefixProductionOrder = "MO"
)

// FormatDocumentNumber renders PREFIX-YYYY-NNNNN. Sequences above 99999
// simply grow wider.
func FormatDocumentNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%05d", prefix, year, seq)
}
