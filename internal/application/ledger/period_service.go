package ledger

import (
	"context"
	"errors"
	"time"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PeriodService manages fiscal periods and the default posting accounts
type PeriodService struct {
	scope  appshared.TransactionScope
	repos  appshared.Repositories
	events *appshared.EventDispatcher
	logger *zap.Logger
	now    func() time.Time
}

// NewPeriodService creates a new PeriodService
func NewPeriodService(scope appshared.TransactionScope, repos appshared.Repositories, events *appshared.EventDispatcher, l *zap.Logger) *PeriodService {
	if l == nil {
		l = zap.NewNop()
	}
	return &PeriodService{scope: scope, repos: repos, events: events, logger: l, now: time.Now}
}

// OpenFiscalYear creates the twelve monthly periods of a fiscal year,
// starting in the tenant's fiscal start month.
func (s *PeriodService) OpenFiscalYear(ctx context.Context, tenantID uuid.UUID, req OpenFiscalYearRequest) ([]PeriodResponse, error) {
	var created []*ledger.FiscalPeriod
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		periods, err := OpenFiscalYear(ctx, r, tenantID, req.FiscalYear)
		created = periods
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("fiscal year opened", zap.Int("fiscal_year", req.FiscalYear))
	out := make([]PeriodResponse, len(created))
	for i, p := range created {
		out[i] = ToPeriodResponse(p)
	}
	return out, nil
}

// OpenFiscalYear creates and saves the periods of a fiscal year using the
// caller's repositories. Tenant registration reuses it.
func OpenFiscalYear(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, fiscalYear int) ([]*ledger.FiscalPeriod, error) {
	tenant, err := r.Tenants().FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	periods, err := ledger.NewFiscalYear(tenantID, fiscalYear, tenant.FiscalYearStartMonth)
	if err != nil {
		return nil, err
	}
	existing, err := r.Periods().FindByYear(ctx, tenantID, fiscalYear)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Fiscal year %d is already open", fiscalYear)
	}
	for _, p := range []*ledger.FiscalPeriod{periods[0], periods[len(periods)-1]} {
		overlap, err := r.Periods().FindForDate(ctx, tenantID, p.StartDate)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if overlap != nil {
			return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Period %s already covers %s",
				overlap.Name(), appshared.FormatDate(p.StartDate))
		}
	}
	if err := r.Periods().SaveBatch(ctx, periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// ListPeriods returns the periods in date order, optionally for one year
func (s *PeriodService) ListPeriods(ctx context.Context, tenantID uuid.UUID, q PeriodListFilter) ([]PeriodResponse, error) {
	var (
		periods []ledger.FiscalPeriod
		err     error
	)
	if q.FiscalYear > 0 {
		periods, err = s.repos.Periods().FindByYear(ctx, tenantID, q.FiscalYear)
	} else {
		periods, err = s.repos.Periods().FindAllForTenant(ctx, tenantID)
	}
	if err != nil {
		return nil, err
	}
	return ToPeriodResponses(periods), nil
}

// ClosePeriod blocks postings into a period. Draft vouchers dated in the
// period must be posted or deleted first.
func (s *PeriodService) ClosePeriod(ctx context.Context, tenantID, userID, id uuid.UUID) (*PeriodResponse, error) {
	var period *ledger.FiscalPeriod
	var events []shared.DomainEvent
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		period, err = r.Periods().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		drafts, err := r.Vouchers().CountDraftsBetween(ctx, tenantID, period.StartDate, period.EndDate)
		if err != nil {
			return err
		}
		if drafts > 0 {
			return shared.NewDomainErrorf("DRAFT_VOUCHERS_EXIST",
				"Period %s has %d draft voucher(s); post or delete them before closing", period.Name(), drafts)
		}
		if err := period.Close(userID, s.now()); err != nil {
			return err
		}
		if err := r.Periods().Save(ctx, period); err != nil {
			return err
		}
		events = shared.CollectEvents(period)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info("fiscal period closed", zap.String("period", period.Name()))
	resp := ToPeriodResponse(period)
	return &resp, nil
}

// ReopenPeriod allows postings into a closed period again
func (s *PeriodService) ReopenPeriod(ctx context.Context, tenantID, userID, id uuid.UUID) (*PeriodResponse, error) {
	var period *ledger.FiscalPeriod
	var events []shared.DomainEvent
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		period, err = r.Periods().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := period.Reopen(userID); err != nil {
			return err
		}
		if err := r.Periods().Save(ctx, period); err != nil {
			return err
		}
		events = shared.CollectEvents(period)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info("fiscal period reopened", zap.String("period", period.Name()))
	resp := ToPeriodResponse(period)
	return &resp, nil
}

// GetSettings returns every default account together with whether it is
// still usable for postings.
func (s *PeriodService) GetSettings(ctx context.Context, tenantID uuid.UUID) (*SettingsResponse, error) {
	settings, err := s.repos.Settings().FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.settingsResponse(ctx, s.repos, settings)
}

// UpdateSettings assigns default accounts. Each account must be postable
// and of the type the setting expects.
func (s *PeriodService) UpdateSettings(ctx context.Context, tenantID uuid.UUID, req UpdateSettingsRequest) (*SettingsResponse, error) {
	var resp *SettingsResponse
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		settings, err := r.Settings().FindByTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		for rawKey, accountID := range req.Accounts {
			key, ok := settingKey(rawKey)
			if !ok {
				return shared.NewDomainErrorf("INVALID_SETTING", "Unknown setting %q", rawKey)
			}
			var account *ledger.Account
			if accountID != uuid.Nil {
				account, err = r.Accounts().FindByIDForTenant(ctx, tenantID, accountID)
				if err != nil {
					return err
				}
			}
			if err := settings.Assign(key, account); err != nil {
				return err
			}
		}
		if err := r.Settings().Save(ctx, settings); err != nil {
			return err
		}
		resp, err = s.settingsResponse(ctx, r, settings)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("accounting settings updated", zap.Int("changed", len(req.Accounts)))
	return resp, nil
}

func (s *PeriodService) settingsResponse(ctx context.Context, r appshared.Repositories, settings *ledger.AccountingSettings) (*SettingsResponse, error) {
	ids := make([]uuid.UUID, 0, len(settings.Accounts))
	for _, id := range settings.Accounts {
		ids = append(ids, id)
	}
	byID := make(map[uuid.UUID]ledger.Account, len(ids))
	if len(ids) > 0 {
		accounts, err := r.Accounts().FindByIDs(ctx, settings.TenantID, ids)
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			byID[a.ID] = a
		}
	}

	resp := &SettingsResponse{
		Accounts:  make([]SettingAccountResponse, 0, len(ledger.SettingKeys)),
		Complete:  true,
		UpdatedAt: settings.UpdatedAt,
	}
	for _, key := range ledger.SettingKeys {
		entry := SettingAccountResponse{Key: string(key), ExpectedType: string(key.ExpectedType())}
		id := settings.Get(key)
		switch acc, found := byID[id]; {
		case id == uuid.Nil:
			entry.Problem = "not configured"
		case !found:
			entry.AccountID = &id
			entry.Problem = "account no longer exists"
		default:
			entry.AccountID = &id
			entry.Code = acc.Code
			entry.Name = acc.Name
			if err := acc.CanPost(); err != nil {
				entry.Problem = err.Error()
			} else if acc.Type != key.ExpectedType() {
				entry.Problem = "account type is " + string(acc.Type)
			}
		}
		entry.Valid = entry.Problem == ""
		if !entry.Valid {
			resp.Complete = false
		}
		resp.Accounts = append(resp.Accounts, entry)
	}
	return resp, nil
}

func settingKey(raw string) (ledger.SettingKey, bool) {
	for _, k := range ledger.SettingKeys {
		if string(k) == raw {
			return k, true
		}
	}
	return "", false
}
