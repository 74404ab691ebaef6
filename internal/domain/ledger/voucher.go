package ledger

import (
	"strings"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherType classifies vouchers and selects their number prefix.
type VoucherType string

const (
	VoucherTypeGeneral    VoucherType = "general"
	VoucherTypeSales      VoucherType = "sales"
	VoucherTypeReceipt    VoucherType = "receipt"
	VoucherTypeInventory  VoucherType = "inventory"
	VoucherTypeProduction VoucherType = "production"
	VoucherTypeBank       VoucherType = "bank"
	VoucherTypeReversal   VoucherType = "reversal"
)

// IsValid checks if the voucher type is known
func (t VoucherType) IsValid() bool {
	_, ok := voucherPrefixes[t]
	return ok
}

// Prefix returns the numbering prefix for the type.
func (t VoucherType) Prefix() string {
	return voucherPrefixes[t]
}

var voucherPrefixes = map[VoucherType]string{
	VoucherTypeGeneral:    PrefixGeneralJournal,
	VoucherTypeSales:      PrefixSalesJournal,
	VoucherTypeReceipt:    PrefixCashReceipt,
	VoucherTypeInventory:  PrefixInventoryJournal,
	VoucherTypeProduction: PrefixProductionJournal,
	VoucherTypeBank:       PrefixBankJournal,
	VoucherTypeReversal:   PrefixReversalJournal,
}

// VoucherStatus is the lifecycle state of a voucher.
type VoucherStatus string

const (
	VoucherStatusDraft    VoucherStatus = "draft"
	VoucherStatusPosted   VoucherStatus = "posted"
	VoucherStatusReversed VoucherStatus = "reversed"
)

// PostedStatuses are the statuses whose lines count in balances. A reversed
// voucher stays in the ledger next to its reversal.
var PostedStatuses = []VoucherStatus{VoucherStatusPosted, VoucherStatusReversed}

// SourceType names the document that produced a voucher.
type SourceType string

const (
	SourceManual          SourceType = "manual"
	SourceSalesInvoice    SourceType = "sales_invoice"
	SourceCustomerPayment SourceType = "customer_payment"
	SourceStockMovement   SourceType = "stock_movement"
	SourceProductionOrder SourceType = "production_order"
	SourceBankStatement   SourceType = "bank_statement"
	SourceReversal        SourceType = "reversal"
)

// JournalLine is one debit or credit of a voucher.
type JournalLine struct {
	ID          uuid.UUID
	VoucherID   uuid.UUID
	LineNo      int
	AccountID   uuid.UUID
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// SignedAmount returns debit minus credit.
func (l JournalLine) SignedAmount() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// LineInput describes a line to add to a voucher.
type LineInput struct {
	AccountID   uuid.UUID
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// JournalVoucher is a balanced set of debits and credits posted together.
type JournalVoucher struct {
	shared.TenantAggregateRoot
	Number       string
	Type         VoucherType
	Date         time.Time
	Reference    string
	Description  string
	SourceType   SourceType
	SourceID     *uuid.UUID
	Status       VoucherStatus
	Lines        []JournalLine
	PostedAt     *time.Time
	PostedBy     *uuid.UUID
	ReversalOfID *uuid.UUID
	ReversedByID *uuid.UUID
}

// NewJournalVoucher creates an empty draft voucher.
func NewJournalVoucher(tenantID uuid.UUID, voucherType VoucherType, date time.Time, description string) (*JournalVoucher, error) {
	if !voucherType.IsValid() {
		return nil, shared.NewDomainError("INVALID_VOUCHER_TYPE", "Unknown voucher type")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_VOUCHER_DATE", "Voucher date is required")
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	return &JournalVoucher{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                voucherType,
		Date:                shared.DateOnly(date),
		Description:         strings.TrimSpace(description),
		SourceType:          SourceManual,
		Status:              VoucherStatusDraft,
		Lines:               make([]JournalLine, 0),
	}, nil
}

// SetSource links the voucher to the document that produced it.
func (v *JournalVoucher) SetSource(sourceType SourceType, sourceID uuid.UUID) {
	v.SourceType = sourceType
	v.SourceID = &sourceID
}

// SetReference sets the external reference (check number, invoice number).
func (v *JournalVoucher) SetReference(reference string) {
	v.Reference = strings.TrimSpace(reference)
}

// IsDraft returns true while the voucher may be edited.
func (v *JournalVoucher) IsDraft() bool {
	return v.Status == VoucherStatusDraft
}

// IsPosted returns true once the voucher affects balances.
func (v *JournalVoucher) IsPosted() bool {
	return v.Status == VoucherStatusPosted || v.Status == VoucherStatusReversed
}

// AddLine appends a line. Exactly one of debit and credit must be positive.
func (v *JournalVoucher) AddLine(in LineInput) error {
	if !v.IsDraft() {
		return ErrVoucherNotDraft
	}
	if in.AccountID == uuid.Nil {
		return shared.NewDomainError("INVALID_LINE", "Journal line account is required")
	}
	debit := shared.RoundMoney(in.Debit)
	credit := shared.RoundMoney(in.Credit)
	if debit.IsNegative() || credit.IsNegative() {
		return shared.NewDomainError("INVALID_LINE", "Journal line amounts cannot be negative")
	}
	if debit.IsPositive() == credit.IsPositive() {
		return shared.NewDomainError("INVALID_LINE", "Journal line must have either a debit or a credit amount")
	}
	v.Lines = append(v.Lines, JournalLine{
		ID:          uuid.New(),
		VoucherID:   v.ID,
		LineNo:      len(v.Lines) + 1,
		AccountID:   in.AccountID,
		Description: strings.TrimSpace(in.Description),
		Debit:       debit,
		Credit:      credit,
	})
	return nil
}

// Debit appends a debit line.
func (v *JournalVoucher) Debit(accountID uuid.UUID, amount decimal.Decimal, description string) error {
	return v.AddLine(LineInput{AccountID: accountID, Debit: amount, Description: description})
}

// Credit appends a credit line.
func (v *JournalVoucher) Credit(accountID uuid.UUID, amount decimal.Decimal, description string) error {
	return v.AddLine(LineInput{AccountID: accountID, Credit: amount, Description: description})
}

// ReplaceLines swaps all lines of a draft.
func (v *JournalVoucher) ReplaceLines(lines []LineInput) error {
	if !v.IsDraft() {
		return ErrVoucherNotDraft
	}
	previous := v.Lines
	v.Lines = make([]JournalLine, 0, len(lines))
	for _, in := range lines {
		if err := v.AddLine(in); err != nil {
			v.Lines = previous
			return err
		}
	}
	v.IncrementVersion()
	return nil
}

// UpdateHeader changes date, reference and description of a draft.
func (v *JournalVoucher) UpdateHeader(date time.Time, reference, description string) error {
	if !v.IsDraft() {
		return ErrVoucherNotDraft
	}
	if date.IsZero() {
		return shared.NewDomainError("INVALID_VOUCHER_DATE", "Voucher date is required")
	}
	if len(description) > 500 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	v.Date = shared.DateOnly(date)
	v.Reference = strings.TrimSpace(reference)
	v.Description = strings.TrimSpace(description)
	v.IncrementVersion()
	return nil
}

// Totals returns the sum of debits and credits.
func (v *JournalVoucher) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range v.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// Validate checks the double-entry invariants.
func (v *JournalVoucher) Validate() error {
	if len(v.Lines) < 2 {
		return shared.NewDomainError(CodeUnbalancedVoucher, "A voucher needs at least two lines")
	}
	debit, credit := v.Totals()
	if !debit.Equal(credit) {
		return shared.NewDomainErrorf(CodeUnbalancedVoucher, "Debits %s do not equal credits %s",
			debit.StringFixed(2), credit.StringFixed(2))
	}
	if !debit.IsPositive() {
		return shared.NewDomainError(CodeUnbalancedVoucher, "Voucher total must be greater than zero")
	}
	return nil
}

// AccountIDs returns the distinct accounts referenced by the lines.
func (v *JournalVoucher) AccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0, len(v.Lines))
	for _, l := range v.Lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	return ids
}

// Post assigns the number and freezes the voucher. Account and period
// checks are done by the caller, which has access to repositories.
func (v *JournalVoucher) Post(number string, userID uuid.UUID, at time.Time) error {
	if !v.IsDraft() {
		return shared.NewDomainError("ALREADY_POSTED", "Voucher is already posted")
	}
	if err := v.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(number) == "" {
		return shared.NewDomainError("INVALID_VOUCHER_NUMBER", "Voucher number is required")
	}
	v.Number = number
	v.Status = VoucherStatusPosted
	v.PostedAt = &at
	if userID != uuid.Nil {
		v.PostedBy = &userID
	}
	v.IncrementVersion()
	v.AddDomainEvent(NewVoucherPostedEvent(v, userID))
	return nil
}

// NewReversal builds a draft that undoes a posted voucher.
func (v *JournalVoucher) NewReversal(date time.Time, reason string) (*JournalVoucher, error) {
	if v.Status == VoucherStatusReversed || v.ReversedByID != nil {
		return nil, shared.NewDomainError("ALREADY_REVERSED", "Voucher has already been reversed")
	}
	if v.Status != VoucherStatusPosted {
		return nil, shared.NewDomainError("NOT_POSTED", "Only posted vouchers can be reversed")
	}
	if v.Type == VoucherTypeReversal {
		return nil, shared.NewDomainError("INVALID_STATE", "A reversal voucher cannot itself be reversed")
	}
	if date.IsZero() {
		date = v.Date
	}
	if shared.DateOnly(date).Before(v.Date) {
		return nil, shared.NewDomainError("INVALID_VOUCHER_DATE", "Reversal date cannot precede the original voucher date")
	}

	description := "Reversal of " + v.Number
	if reason = strings.TrimSpace(reason); reason != "" {
		description += ": " + reason
	}
	rev, err := NewJournalVoucher(v.TenantID, VoucherTypeReversal, date, description)
	if err != nil {
		return nil, err
	}
	rev.Reference = v.Number
	rev.SetSource(SourceReversal, v.ID)
	origID := v.ID
	rev.ReversalOfID = &origID
	for _, l := range v.Lines {
		if err := rev.AddLine(LineInput{
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Credit,
			Credit:      l.Debit,
		}); err != nil {
			return nil, err
		}
	}
	return rev, nil
}

// MarkReversed records the voucher that reversed this one.
func (v *JournalVoucher) MarkReversed(reversal *JournalVoucher, userID uuid.UUID) error {
	if v.Status != VoucherStatusPosted {
		return shared.NewDomainError("NOT_POSTED", "Only posted vouchers can be reversed")
	}
	if !reversal.IsPosted() {
		return shared.NewDomainError("INVALID_STATE", "Reversal voucher must be posted first")
	}
	id := reversal.ID
	v.ReversedByID = &id
	v.Status = VoucherStatusReversed
	v.IncrementVersion()
	v.AddDomainEvent(NewVoucherReversedEvent(v, reversal, userID))
	return nil
}
