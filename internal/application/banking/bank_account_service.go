package banking

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/banking"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// BankAccountService manages bank accounts
type BankAccountService struct {
	repos  appshared.Repositories
	logger *zap.Logger
}

// NewBankAccountService creates a new BankAccountService
func NewBankAccountService(repos appshared.Repositories, l *zap.Logger) *BankAccountService {
	if l == nil {
		l = zap.NewNop()
	}
	return &BankAccountService{repos: repos, logger: l}
}

// Create links a new bank account to an unused asset account
func (s *BankAccountService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateBankAccountRequest) (*BankAccountResponse, error) {
	account, err := s.repos.Accounts().FindByIDForTenant(ctx, tenantID, req.LedgerAccountID)
	if err != nil {
		return nil, err
	}
	taken, err := s.repos.BankAccounts().ExistsByLedgerAccount(ctx, tenantID, account.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Ledger account %s is already linked to a bank account", account.Code)
	}
	bank, err := banking.NewBankAccount(tenantID, req.Name, req.BankName, req.AccountNumber, account)
	if err != nil {
		return nil, err
	}
	bank.SetCreatedBy(userID)
	if err := s.repos.BankAccounts().Save(ctx, bank); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("bank account created",
		zap.String("name", bank.Name),
		zap.String("ledger_account", account.Code))
	return s.withBalance(ctx, tenantID, bank)
}

// Update changes the descriptive fields and the active flag
func (s *BankAccountService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateBankAccountRequest) (*BankAccountResponse, error) {
	bank, err := s.repos.BankAccounts().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := bank.Update(req.Name, req.BankName, req.AccountNumber); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		bank.SetActive(*req.IsActive)
	}
	if err := s.repos.BankAccounts().Save(ctx, bank); err != nil {
		return nil, err
	}
	return s.withBalance(ctx, tenantID, bank)
}

// Get returns one bank account with its current book balance
func (s *BankAccountService) Get(ctx context.Context, tenantID, id uuid.UUID) (*BankAccountResponse, error) {
	bank, err := s.repos.BankAccounts().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.withBalance(ctx, tenantID, bank)
}

// List returns every bank account of the tenant
func (s *BankAccountService) List(ctx context.Context, tenantID uuid.UUID) ([]BankAccountResponse, error) {
	accounts, err := s.repos.BankAccounts().FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]BankAccountResponse, 0, len(accounts))
	for i := range accounts {
		resp, err := s.withBalance(ctx, tenantID, &accounts[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *BankAccountService) withBalance(ctx context.Context, tenantID uuid.UUID, bank *banking.BankAccount) (*BankAccountResponse, error) {
	balance, err := bookBalance(ctx, s.repos, tenantID, bank.LedgerAccountID, shared.DateRange{})
	if err != nil {
		return nil, err
	}
	resp := ToBankAccountResponse(bank)
	resp.BookBalance = &balance
	return &resp, nil
}

// bookBalance is the posted debit minus credit of the ledger account
func bookBalance(ctx context.Context, r appshared.Repositories, tenantID, accountID uuid.UUID, period shared.DateRange) (decimal.Decimal, error) {
	debit, credit, err := r.Ledger().AccountTotals(ctx, tenantID, accountID, period)
	if err != nil {
		return decimal.Zero, err
	}
	return debit.Sub(credit), nil
}
