package ledger

import (
	"context"
	"errors"
	"time"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingService posts vouchers inside a transaction owned by the caller.
// Every module that produces journal entries goes through it, so numbering,
// account and period checks live in one place.
type PostingService struct {
	now func() time.Time
}

// NewPostingService creates a new PostingService
func NewPostingService() *PostingService {
	return &PostingService{now: time.Now}
}

// Post validates the voucher, checks its accounts and fiscal period,
// assigns the next number for its type and saves it as posted.
func (p *PostingService) Post(ctx context.Context, r appshared.Repositories, tenantID, userID uuid.UUID, v *ledger.JournalVoucher) error {
	if !v.BelongsTo(tenantID) {
		return shared.ErrNotFound
	}
	if !v.IsDraft() {
		return shared.NewDomainError("ALREADY_POSTED", "Voucher is already posted")
	}
	if err := v.Validate(); err != nil {
		return err
	}
	if err := p.checkAccounts(ctx, r, tenantID, v.AccountIDs()); err != nil {
		return err
	}
	if err := CheckPeriod(ctx, r, tenantID, v.Date); err != nil {
		return err
	}

	prefix := v.Type.Prefix()
	year := v.Date.Year()
	seq, err := r.Sequences().Next(ctx, tenantID, prefix, year)
	if err != nil {
		return err
	}
	if err := v.Post(ledger.FormatDocumentNumber(prefix, year, seq), userID, p.now()); err != nil {
		return err
	}
	return r.Vouchers().Save(ctx, v)
}

// Reverse posts the reversal of a posted voucher and marks the original
// reversed. Both vouchers are saved; the reversal is returned.
func (p *PostingService) Reverse(ctx context.Context, r appshared.Repositories, tenantID, userID uuid.UUID, original *ledger.JournalVoucher, date time.Time, reason string) (*ledger.JournalVoucher, error) {
	reversal, err := original.NewReversal(date, reason)
	if err != nil {
		return nil, err
	}
	reversal.SetCreatedBy(userID)
	if err := p.Post(ctx, r, tenantID, userID, reversal); err != nil {
		return nil, err
	}
	if err := original.MarkReversed(reversal, userID); err != nil {
		return nil, err
	}
	if err := r.Vouchers().Save(ctx, original); err != nil {
		return nil, err
	}
	return reversal, nil
}

// Document describes a voucher generated by a business document such as an
// invoice or a stock movement.
type Document struct {
	Type        ledger.VoucherType
	Date        time.Time
	Description string
	Reference   string
	SourceType  ledger.SourceType
	SourceID    uuid.UUID
	Lines       []ledger.LineInput
}

// PostDocument builds and posts the voucher of a document. Lines without
// an amount are dropped; when none remain no voucher is created and nil
// is returned.
func (p *PostingService) PostDocument(ctx context.Context, r appshared.Repositories, tenantID, userID uuid.UUID, doc Document) (*ledger.JournalVoucher, error) {
	lines := make([]ledger.LineInput, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		if shared.RoundMoney(l.Debit).IsZero() && shared.RoundMoney(l.Credit).IsZero() {
			continue
		}
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return nil, nil
	}
	v, err := ledger.NewJournalVoucher(tenantID, doc.Type, doc.Date, doc.Description)
	if err != nil {
		return nil, err
	}
	v.SetSource(doc.SourceType, doc.SourceID)
	v.SetReference(doc.Reference)
	v.SetCreatedBy(userID)
	if err := v.ReplaceLines(lines); err != nil {
		return nil, err
	}
	if err := p.Post(ctx, r, tenantID, userID, v); err != nil {
		return nil, err
	}
	return v, nil
}

// LineSet collects voucher lines and merges amounts posted to the same
// account on the same side, keeping first-seen order.
type LineSet struct {
	lines []ledger.LineInput
	index map[lineKey]int
}

type lineKey struct {
	account uuid.UUID
	debit   bool
}

// Debit adds amount to the debit line of account.
func (s *LineSet) Debit(account uuid.UUID, amount decimal.Decimal, description string) {
	s.add(lineKey{account: account, debit: true}, amount, description)
}

// Credit adds amount to the credit line of account.
func (s *LineSet) Credit(account uuid.UUID, amount decimal.Decimal, description string) {
	s.add(lineKey{account: account}, amount, description)
}

func (s *LineSet) add(key lineKey, amount decimal.Decimal, description string) {
	amount = shared.RoundMoney(amount)
	if s.index == nil {
		s.index = make(map[lineKey]int)
	}
	i, ok := s.index[key]
	if !ok {
		i = len(s.lines)
		s.index[key] = i
		s.lines = append(s.lines, ledger.LineInput{AccountID: key.account, Description: description})
	}
	if key.debit {
		s.lines[i].Debit = s.lines[i].Debit.Add(amount)
	} else {
		s.lines[i].Credit = s.lines[i].Credit.Add(amount)
	}
}

// Lines returns the merged lines.
func (s *LineSet) Lines() []ledger.LineInput {
	return s.lines
}

func (p *PostingService) checkAccounts(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, ids []uuid.UUID) error {
	accounts, err := r.Accounts().FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]bool, len(accounts))
	for i := range accounts {
		if err := accounts[i].CanPost(); err != nil {
			return err
		}
		found[accounts[i].ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return shared.NewDomainErrorf("ACCOUNT_NOT_FOUND", "Account %s does not exist", id)
		}
	}
	return nil
}

// CheckPeriod returns nil when date falls into an open fiscal period.
func CheckPeriod(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, date time.Time) error {
	period, err := r.Periods().FindForDate(ctx, tenantID, date)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return ledger.CheckPostable(period, date)
}
