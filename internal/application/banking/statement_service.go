package banking

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appledger "github.com/clearbook/backend/internal/application/ledger"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/banking"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// StatementParser reads a bank export into statement lines
type StatementParser interface {
	Parse(r io.Reader) ([]banking.LineInput, error)
}

// StatementArchive keeps the raw files of imported statements
type StatementArchive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, key string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// StatementOption configures a StatementService
type StatementOption func(*StatementService)

// WithArchive stores uploaded statement files in archive
func WithArchive(archive StatementArchive) StatementOption {
	return func(s *StatementService) {
		s.archive = archive
	}
}

// WithDateWindow sets how many days a book date may differ from the bank
// date during auto-match
func WithDateWindow(days int) StatementOption {
	return func(s *StatementService) {
		s.matcher = banking.NewMatcher(banking.WithDateWindow(days))
	}
}

// StatementService imports bank statements and reconciles them with the
// bank's ledger account
type StatementService struct {
	scope   appshared.TransactionScope
	repos   appshared.Repositories
	posting *appledger.PostingService
	events  *appshared.EventDispatcher
	parser  StatementParser
	archive StatementArchive
	matcher *banking.Matcher
	logger  *zap.Logger
	now     func() time.Time
}

// NewStatementService creates a new StatementService
func NewStatementService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	posting *appledger.PostingService,
	events *appshared.EventDispatcher,
	parser StatementParser,
	l *zap.Logger,
	opts ...StatementOption,
) *StatementService {
	if l == nil {
		l = zap.NewNop()
	}
	s := &StatementService{
		scope:   scope,
		repos:   repos,
		posting: posting,
		events:  events,
		parser:  parser,
		matcher: banking.NewMatcher(),
		logger:  l,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import creates a statement from JSON lines
func (s *StatementService) Import(ctx context.Context, tenantID, userID, bankAccountID uuid.UUID, req ImportStatementRequest) (*StatementResponse, error) {
	inputs := make([]banking.LineInput, len(req.Lines))
	for i, l := range req.Lines {
		date, err := appshared.ParseRequiredDate(fmt.Sprintf("lines[%d].date", i), l.Date)
		if err != nil {
			return nil, err
		}
		inputs[i] = banking.LineInput{Date: date, Description: l.Description, Reference: l.Reference, Amount: l.Amount}
	}
	header := ImportFileRequest{
		StatementDate:  req.StatementDate,
		OpeningBalance: req.OpeningBalance,
		ClosingBalance: req.ClosingBalance,
	}
	return s.create(ctx, tenantID, userID, bankAccountID, header, inputs)
}

// ImportFile creates a statement from an uploaded CSV export. When an
// archive is configured the raw file is kept under
// statements/{tenant}/{bank account}/{statement}.csv.
func (s *StatementService) ImportFile(ctx context.Context, tenantID, userID, bankAccountID uuid.UUID, req ImportFileRequest) (*StatementResponse, error) {
	inputs, err := s.parser.Parse(bytes.NewReader(req.Data))
	if err != nil {
		return nil, err
	}
	return s.create(ctx, tenantID, userID, bankAccountID, req, inputs)
}

func (s *StatementService) create(ctx context.Context, tenantID, userID, bankAccountID uuid.UUID, req ImportFileRequest, inputs []banking.LineInput) (*StatementResponse, error) {
	date, err := appshared.ParseRequiredDate("statement_date", req.StatementDate)
	if err != nil {
		return nil, err
	}
	bank, err := s.repos.BankAccounts().FindByIDForTenant(ctx, tenantID, bankAccountID)
	if err != nil {
		return nil, err
	}
	if !bank.IsActive {
		return nil, shared.NewDomainErrorf("BANK_ACCOUNT_INACTIVE", "Bank account %s is inactive", bank.Name)
	}
	statement, err := banking.NewBankStatement(tenantID, bank.ID, date, req.OpeningBalance, req.ClosingBalance, inputs)
	if err != nil {
		return nil, err
	}

	key := ""
	if s.archive != nil && len(req.Data) > 0 {
		key = fmt.Sprintf("statements/%s/%s/%s.csv", tenantID, bank.ID, statement.ID)
		if err := s.archive.Upload(ctx, key, req.Data, "text/csv"); err != nil {
			return nil, fmt.Errorf("archive statement file: %w", err)
		}
	}
	statement.SetSource(key, userID)
	if err := s.repos.Statements().Save(ctx, statement); err != nil {
		if key != "" {
			if derr := s.archive.DeleteObject(ctx, key); derr != nil {
				logger.Enrich(ctx, s.logger).Warn("failed to remove orphaned statement file",
					zap.String("key", key), zap.Error(derr))
			}
		}
		return nil, err
	}
	s.events.Dispatch(ctx, []shared.DomainEvent{banking.NewStatementImportedEvent(statement, userID)})
	logger.Enrich(ctx, s.logger).Info("bank statement imported",
		zap.String("statement_id", statement.ID.String()),
		zap.Int("lines", len(statement.Lines)),
		zap.Bool("archived", key != ""))
	resp := ToStatementResponse(statement)
	return &resp, nil
}

// AutoMatch clears unmatched statement lines against uncleared book
// entries of equal amount within the date window
func (s *StatementService) AutoMatch(ctx context.Context, tenantID, userID, statementID uuid.UUID) (*AutoMatchResponse, error) {
	var (
		statement *banking.BankStatement
		result    banking.AutoMatchResult
	)
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		statement, err = r.Statements().FindByIDForTenant(ctx, tenantID, statementID)
		if err != nil {
			return err
		}
		if !statement.IsOpen() {
			return shared.NewDomainError(banking.CodeStatementReconciled, "Statement is reconciled and cannot be changed")
		}
		bank, err := r.BankAccounts().FindByIDForTenant(ctx, tenantID, statement.BankAccountID)
		if err != nil {
			return err
		}
		unmatched := statement.UnmatchedLines()
		if len(unmatched) == 0 {
			result = banking.Summarize(nil, 0)
			return nil
		}
		window := time.Duration(s.matcher.Window()) * 24 * time.Hour
		from := unmatched[0].Date.Add(-window)
		to := unmatched[0].Date
		for _, l := range unmatched {
			if l.Date.After(to) {
				to = l.Date
			}
		}
		candidates, err := r.BookEntries().UnclearedEntries(ctx, tenantID, bank.LedgerAccountID, from, to.Add(window))
		if err != nil {
			return err
		}
		matches := s.matcher.Match(unmatched, candidates)
		at := s.now()
		for _, m := range matches {
			if err := statement.MatchLine(m.StatementLineID, m.Entry, banking.MatchMethodAuto, at); err != nil {
				return err
			}
		}
		result = banking.Summarize(matches, len(statement.UnmatchedLines()))
		if result.Matched == 0 {
			return nil
		}
		return r.Statements().Save(ctx, statement)
	})
	if err != nil {
		return nil, err
	}
	if result.Matched > 0 {
		s.events.Dispatch(ctx, []shared.DomainEvent{banking.NewStatementAutoMatchedEvent(statement, result.Matched, userID)})
	}
	logger.Enrich(ctx, s.logger).Info("statement auto-matched",
		zap.String("statement_id", statementID.String()),
		zap.Int("matched", result.Matched),
		zap.Int("by_reference", result.ByReference),
		zap.Int("by_amount_date", result.ByAmount),
		zap.Int("unmatched", result.Unmatched))
	return &AutoMatchResponse{AutoMatchResult: result, Statement: ToStatementResponse(statement)}, nil
}

// MatchLine clears a statement line against a posted journal line on the
// bank's ledger account
func (s *StatementService) MatchLine(ctx context.Context, tenantID, lineID uuid.UUID, req MatchLineRequest) (*StatementResponse, error) {
	var statement *banking.BankStatement
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		statement, err = r.Statements().FindByLineID(ctx, tenantID, lineID)
		if err != nil {
			return err
		}
		bank, err := r.BankAccounts().FindByIDForTenant(ctx, tenantID, statement.BankAccountID)
		if err != nil {
			return err
		}
		entry, accountID, err := r.BookEntries().EntryByJournalLine(ctx, tenantID, req.JournalLineID)
		if err != nil {
			return err
		}
		if accountID != bank.LedgerAccountID {
			return shared.NewDomainError("ACCOUNT_MISMATCH", "Journal line is not on the bank's ledger account")
		}
		cleared, err := r.Statements().IsJournalLineCleared(ctx, tenantID, req.JournalLineID)
		if err != nil {
			return err
		}
		if cleared {
			return shared.NewDomainError(banking.CodeJournalLineAlreadyCleared, "Journal line is already matched to a statement line")
		}
		if err := statement.MatchLine(lineID, *entry, banking.MatchMethodManual, s.now()); err != nil {
			return err
		}
		return r.Statements().Save(ctx, statement)
	})
	if err != nil {
		return nil, err
	}
	resp := ToStatementResponse(statement)
	return &resp, nil
}

// UnmatchLine reverts the match of a statement line
func (s *StatementService) UnmatchLine(ctx context.Context, tenantID, lineID uuid.UUID) (*StatementResponse, error) {
	statement, err := s.repos.Statements().FindByLineID(ctx, tenantID, lineID)
	if err != nil {
		return nil, err
	}
	if err := statement.UnmatchLine(lineID); err != nil {
		return nil, err
	}
	if err := s.repos.Statements().Save(ctx, statement); err != nil {
		return nil, err
	}
	resp := ToStatementResponse(statement)
	return &resp, nil
}

// CreateEntry posts a bank voucher for a statement line missing from the
// books, such as a bank charge, and matches the line to it. A deposit
// debits the bank and credits the contra account; a withdrawal the reverse.
func (s *StatementService) CreateEntry(ctx context.Context, tenantID, userID, lineID uuid.UUID, req CreateEntryRequest) (*StatementResponse, error) {
	var (
		statement *banking.BankStatement
		events    []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		statement, err = r.Statements().FindByLineID(ctx, tenantID, lineID)
		if err != nil {
			return err
		}
		if !statement.IsOpen() {
			return shared.NewDomainError(banking.CodeStatementReconciled, "Statement is reconciled and cannot be changed")
		}
		line, err := statement.Line(lineID)
		if err != nil {
			return err
		}
		if line.IsMatched() {
			return shared.NewDomainError(banking.CodeLineAlreadyMatched, "Statement line is already matched")
		}
		bank, err := r.BankAccounts().FindByIDForTenant(ctx, tenantID, statement.BankAccountID)
		if err != nil {
			return err
		}
		if req.ContraAccountID == bank.LedgerAccountID {
			return shared.NewDomainError("INVALID_ACCOUNT", "Contra account must differ from the bank's ledger account")
		}
		if err := appledger.CheckPeriod(ctx, r, tenantID, line.Date); err != nil {
			return err
		}

		desc := req.Description
		if desc == "" {
			desc = line.Description
		}
		if desc == "" {
			desc = "Bank statement line " + line.Date.Format(appshared.DateLayout)
		}
		amount := line.Amount.Abs()
		var lines appledger.LineSet
		if line.Amount.IsPositive() {
			lines.Debit(bank.LedgerAccountID, amount, desc)
			lines.Credit(req.ContraAccountID, amount, desc)
		} else {
			lines.Debit(req.ContraAccountID, amount, desc)
			lines.Credit(bank.LedgerAccountID, amount, desc)
		}
		voucher, err := s.posting.PostDocument(ctx, r, tenantID, userID, appledger.Document{
			Type:        ledger.VoucherTypeBank,
			Date:        line.Date,
			Description: desc,
			Reference:   line.Reference,
			SourceType:  ledger.SourceBankStatement,
			SourceID:    statement.ID,
			Lines:       lines.Lines(),
		})
		if err != nil {
			return err
		}
		entry, err := bankEntry(voucher, bank.LedgerAccountID)
		if err != nil {
			return err
		}
		if err := statement.MatchLine(lineID, entry, banking.MatchMethodManual, s.now()); err != nil {
			return err
		}
		if err := r.Statements().Save(ctx, statement); err != nil {
			return err
		}
		events = shared.CollectEvents(voucher)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	resp := ToStatementResponse(statement)
	return &resp, nil
}

// bankEntry picks the voucher's line on the bank account
func bankEntry(v *ledger.JournalVoucher, bankAccountID uuid.UUID) (banking.BookEntry, error) {
	for _, l := range v.Lines {
		if l.AccountID == bankAccountID {
			return banking.BookEntry{
				JournalLineID: l.ID,
				VoucherID:     v.ID,
				VoucherNumber: v.Number,
				Reference:     v.Reference,
				Description:   v.Description,
				Date:          v.Date,
				Debit:         l.Debit,
				Credit:        l.Credit,
			}, nil
		}
	}
	return banking.BookEntry{}, fmt.Errorf("voucher %s has no line on the bank account", v.Number)
}

// Summary compares the statement with the books as of the statement date
func (s *StatementService) Summary(ctx context.Context, tenantID, statementID uuid.UUID) (*banking.ReconciliationSummary, error) {
	statement, err := s.repos.Statements().FindByIDForTenant(ctx, tenantID, statementID)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, s.repos, tenantID, statement)
}

func summarize(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, statement *banking.BankStatement) (*banking.ReconciliationSummary, error) {
	bank, err := r.BankAccounts().FindByIDForTenant(ctx, tenantID, statement.BankAccountID)
	if err != nil {
		return nil, err
	}
	balance, err := bookBalance(ctx, r, tenantID, bank.LedgerAccountID, shared.DateRange{To: statement.StatementDate})
	if err != nil {
		return nil, err
	}
	uncleared, err := r.BookEntries().UnclearedEntries(ctx, tenantID, bank.LedgerAccountID, time.Time{}, statement.StatementDate)
	if err != nil {
		return nil, err
	}
	return banking.BuildReconciliationSummary(statement, balance, uncleared), nil
}

// Complete marks the statement reconciled. Every line must be matched and
// the adjusted balances must agree.
func (s *StatementService) Complete(ctx context.Context, tenantID, userID, statementID uuid.UUID) (*StatementResponse, error) {
	var (
		statement *banking.BankStatement
		events    []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		statement, err = r.Statements().FindByIDForTenant(ctx, tenantID, statementID)
		if err != nil {
			return err
		}
		summary, err := summarize(ctx, r, tenantID, statement)
		if err != nil {
			return err
		}
		if err := statement.Complete(summary, userID, s.now()); err != nil {
			return err
		}
		if err := r.Statements().Save(ctx, statement); err != nil {
			return err
		}
		events = shared.CollectEvents(statement)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info("bank reconciliation completed",
		zap.String("statement_id", statementID.String()),
		zap.String("closing_balance", statement.ClosingBalance.StringFixed(2)))
	resp := ToStatementResponse(statement)
	return &resp, nil
}

// Get returns one statement with its lines
func (s *StatementService) Get(ctx context.Context, tenantID, id uuid.UUID) (*StatementResponse, error) {
	statement, err := s.repos.Statements().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToStatementResponse(statement)
	return &resp, nil
}

// List returns a page of statements of one bank account, newest first
func (s *StatementService) List(ctx context.Context, tenantID, bankAccountID uuid.UUID, q StatementListFilter) (*shared.Paginated[StatementResponse], error) {
	if _, err := s.repos.BankAccounts().FindByIDForTenant(ctx, tenantID, bankAccountID); err != nil {
		return nil, err
	}
	from, err := appshared.ParseDate("from", q.From)
	if err != nil {
		return nil, err
	}
	to, err := appshared.ParseDate("to", q.To)
	if err != nil {
		return nil, err
	}
	filter := q.ToFilter()
	if q.OrderBy == "" {
		filter.OrderBy = "statement_date"
	}
	filter = filter.With("status", q.Status).With("from", from).With("to", to)
	statements, err := s.repos.Statements().FindAllForBankAccount(ctx, tenantID, bankAccountID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Statements().CountForBankAccount(ctx, tenantID, bankAccountID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]StatementResponse, len(statements))
	for i := range statements {
		out[i] = ToStatementResponse(&statements[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// SourceFile returns a temporary link to the archived export of a statement
func (s *StatementService) SourceFile(ctx context.Context, tenantID, id uuid.UUID) (*SourceFileResponse, error) {
	statement, err := s.repos.Statements().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if s.archive == nil || statement.SourceObjectKey == "" {
		return nil, shared.ErrNotFound
	}
	url, expiresAt, err := s.archive.GenerateDownloadURL(ctx, statement.SourceObjectKey, 0)
	if err != nil {
		return nil, err
	}
	return &SourceFileResponse{URL: url, ExpiresAt: expiresAt}, nil
}
