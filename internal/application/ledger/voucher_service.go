package ledger

import (
	"context"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VoucherService manages manual journal vouchers
type VoucherService struct {
	scope   appshared.TransactionScope
	repos   appshared.Repositories
	posting *PostingService
	events  *appshared.EventDispatcher
	logger  *zap.Logger
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	posting *PostingService,
	events *appshared.EventDispatcher,
	l *zap.Logger,
) *VoucherService {
	if l == nil {
		l = zap.NewNop()
	}
	return &VoucherService{scope: scope, repos: repos, posting: posting, events: events, logger: l}
}

// Create saves a draft general journal voucher. Drafts may be unbalanced;
// balance is enforced at posting.
func (s *VoucherService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateVoucherRequest) (*VoucherResponse, error) {
	date, err := appshared.ParseRequiredDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	v, err := ledger.NewJournalVoucher(tenantID, ledger.VoucherTypeGeneral, date, req.Description)
	if err != nil {
		return nil, err
	}
	v.SetReference(req.Reference)
	v.SetCreatedBy(userID)
	if err := v.ReplaceLines(toLineInputs(req.Lines)); err != nil {
		return nil, err
	}
	if err := s.checkLineAccounts(ctx, s.repos, tenantID, v); err != nil {
		return nil, err
	}
	if err := s.repos.Vouchers().Save(ctx, v); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, s.repos, v)
}

// Update replaces header and lines of a draft
func (s *VoucherService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateVoucherRequest) (*VoucherResponse, error) {
	date, err := appshared.ParseRequiredDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	var resp *VoucherResponse
	err = s.scope.Execute(ctx, func(r appshared.Repositories) error {
		v, err := r.Vouchers().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := v.UpdateHeader(date, req.Reference, req.Description); err != nil {
			return err
		}
		if err := v.ReplaceLines(toLineInputs(req.Lines)); err != nil {
			return err
		}
		if err := s.checkLineAccounts(ctx, r, tenantID, v); err != nil {
			return err
		}
		if err := r.Vouchers().Save(ctx, v); err != nil {
			return err
		}
		resp, err = s.toResponse(ctx, r, v)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Delete removes a draft voucher
func (s *VoucherService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(r appshared.Repositories) error {
		v, err := r.Vouchers().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if !v.IsDraft() {
			return ledger.ErrVoucherNotDraft
		}
		return r.Vouchers().Delete(ctx, tenantID, id)
	})
}

// Post posts a draft voucher
func (s *VoucherService) Post(ctx context.Context, tenantID, userID, id uuid.UUID) (*VoucherResponse, error) {
	var (
		resp   *VoucherResponse
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		v, err := r.Vouchers().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := s.posting.Post(ctx, r, tenantID, userID, v); err != nil {
			return err
		}
		events = shared.CollectEvents(v)
		resp, err = s.toResponse(ctx, r, v)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info("voucher posted",
		zap.String("number", resp.Number),
		zap.String("amount", resp.TotalDebit.StringFixed(2)),
	)
	return resp, nil
}

// Reverse posts a reversal of a posted voucher and returns the reversal
func (s *VoucherService) Reverse(ctx context.Context, tenantID, userID, id uuid.UUID, req ReverseVoucherRequest) (*VoucherResponse, error) {
	date, err := appshared.ParseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	var (
		resp   *VoucherResponse
		events []shared.DomainEvent
	)
	err = s.scope.Execute(ctx, func(r appshared.Repositories) error {
		original, err := r.Vouchers().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		reversal, err := s.posting.Reverse(ctx, r, tenantID, userID, original, date, req.Reason)
		if err != nil {
			return err
		}
		events = shared.CollectEvents(reversal, original)
		resp, err = s.toResponse(ctx, r, reversal)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info("voucher reversed",
		zap.String("voucher_id", id.String()),
		zap.String("reversal", resp.Number),
	)
	return resp, nil
}

// GetByID returns a voucher with account codes on its lines
func (s *VoucherService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*VoucherResponse, error) {
	v, err := s.repos.Vouchers().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, s.repos, v)
}

// List returns a page of vouchers
func (s *VoucherService) List(ctx context.Context, tenantID uuid.UUID, q VoucherListFilter) (*shared.Paginated[VoucherResponse], error) {
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
		filter.OrderBy = "date"
	}
	filter = filter.With("status", q.Status).
		With("type", q.Type).
		With("source_type", q.SourceType).
		With("from", from).
		With("to", to)
	if q.SourceID != nil {
		filter = filter.With("source_id", *q.SourceID)
	}

	vouchers, err := s.repos.Vouchers().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Vouchers().CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToVoucherResponses(vouchers), total, filter.Page, filter.PageSize)
	return &page, nil
}

// checkLineAccounts makes sure every line points at an account of the
// tenant. Postability is checked again at posting.
func (s *VoucherService) checkLineAccounts(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, v *ledger.JournalVoucher) error {
	ids := v.AccountIDs()
	accounts, err := r.Accounts().FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	if len(accounts) != len(ids) {
		return shared.NewDomainError("ACCOUNT_NOT_FOUND", "One or more accounts do not exist")
	}
	for i := range accounts {
		if accounts[i].IsGroup {
			return accounts[i].CanPost()
		}
	}
	return nil
}

func (s *VoucherService) toResponse(ctx context.Context, r appshared.Repositories, v *ledger.JournalVoucher) (*VoucherResponse, error) {
	accounts, err := r.Accounts().FindByIDs(ctx, v.TenantID, v.AccountIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]ledger.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	resp := ToVoucherResponse(v, byID)
	return &resp, nil
}
