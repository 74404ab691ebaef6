package ledger

import (
	"context"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountService manages the chart of accounts and account ledgers
type AccountService struct {
	repos  appshared.Repositories
	logger *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(repos appshared.Repositories, l *zap.Logger) *AccountService {
	if l == nil {
		l = zap.NewNop()
	}
	return &AccountService{repos: repos, logger: l}
}

// Create adds an account to the chart
func (s *AccountService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateAccountRequest) (*AccountResponse, error) {
	exists, err := s.repos.Accounts().ExistsByCode(ctx, tenantID, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Account code %s already exists", req.Code)
	}

	account, err := ledger.NewAccount(tenantID, req.Code, req.Name, ledger.AccountType(req.Type), req.IsGroup)
	if err != nil {
		return nil, err
	}
	account.Description = req.Description
	if req.ParentID != nil && *req.ParentID != uuid.Nil {
		parent, err := s.repos.Accounts().FindByIDForTenant(ctx, tenantID, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if err := account.SetParent(parent); err != nil {
			return nil, err
		}
	}
	account.SetCreatedBy(userID)

	if err := s.repos.Accounts().Save(ctx, account); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("account created",
		zap.String("code", account.Code),
		zap.String("type", string(account.Type)),
	)
	resp := ToAccountResponse(account)
	return &resp, nil
}

// Update changes name, description, parent and active flag
func (s *AccountService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateAccountRequest) (*AccountResponse, error) {
	account, err := s.repos.Accounts().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := account.Update(req.Name, req.Description); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		var parent *ledger.Account
		if *req.ParentID != uuid.Nil {
			parent, err = s.repos.Accounts().FindByIDForTenant(ctx, tenantID, *req.ParentID)
			if err != nil {
				return nil, err
			}
		}
		if err := account.SetParent(parent); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil {
		if *req.IsActive {
			account.Activate()
		} else {
			account.Deactivate()
		}
	}
	if err := s.repos.Accounts().Save(ctx, account); err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// Delete removes an account that has never been used
func (s *AccountService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	account, err := s.repos.Accounts().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	hasChildren, err := s.repos.Accounts().HasChildren(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.NewDomainErrorf(ledger.CodeAccountInUse, "Account %s has child accounts", account.Code)
	}
	used, err := s.repos.Vouchers().HasLinesForAccount(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if used {
		return shared.NewDomainErrorf(ledger.CodeAccountInUse, "Account %s has journal lines; deactivate it instead", account.Code)
	}
	settings, err := s.repos.Settings().FindByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, key := range ledger.SettingKeys {
		if settings.Get(key) == id {
			return shared.NewDomainErrorf(ledger.CodeAccountInUse, "Account %s is the default %s account", account.Code, key)
		}
	}
	linked, err := s.repos.BankAccounts().ExistsByLedgerAccount(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if linked {
		return shared.NewDomainErrorf(ledger.CodeAccountInUse, "Account %s is linked to a bank account", account.Code)
	}
	if err := s.repos.Accounts().Delete(ctx, tenantID, id); err != nil {
		return err
	}
	logger.Enrich(ctx, s.logger).Info("account deleted", zap.String("code", account.Code))
	return nil
}

// GetByID returns one account
func (s *AccountService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*AccountResponse, error) {
	account, err := s.repos.Accounts().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// List returns a page of accounts ordered by code
func (s *AccountService) List(ctx context.Context, tenantID uuid.UUID, q AccountListFilter) (*shared.Paginated[AccountResponse], error) {
	filter := q.ToFilter()
	if q.OrderBy == "" {
		filter.OrderBy = "code"
		filter.OrderDir = "asc"
	}
	if q.Type != "" {
		filter = filter.With("type", q.Type)
	}
	if q.IsActive != nil {
		filter = filter.With("is_active", *q.IsActive)
	}
	if q.IsGroup != nil {
		filter = filter.With("is_group", *q.IsGroup)
	}
	if q.ParentID != nil {
		filter = filter.With("parent_id", *q.ParentID)
	}

	accounts, err := s.repos.Accounts().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Accounts().CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToAccountResponses(accounts), total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetLedger returns the posted history of an account with running
// balances. The opening balance sums every posted line before from.
func (s *AccountService) GetLedger(ctx context.Context, tenantID, id uuid.UUID, q AccountLedgerQuery) (*ledger.AccountLedger, error) {
	from, err := appshared.ParseDate("from", q.From)
	if err != nil {
		return nil, err
	}
	to, err := appshared.ParseDate("to", q.To)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, shared.NewDomainError("INVALID_INPUT", "to must not precede from")
	}

	account, err := s.repos.Accounts().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	openDebit, openCredit := decimal.Zero, decimal.Zero
	if !from.IsZero() {
		openDebit, openCredit, err = s.repos.Ledger().AccountTotals(ctx, tenantID, id,
			shared.DateRange{To: from.AddDate(0, 0, -1)})
		if err != nil {
			return nil, err
		}
	}
	entries, err := s.repos.Ledger().AccountEntries(ctx, tenantID, id, shared.DateRange{From: from, To: to})
	if err != nil {
		return nil, err
	}
	return ledger.BuildAccountLedger(account, from, to, openDebit, openCredit, entries), nil
}
