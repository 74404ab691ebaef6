package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/sales"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

var (
	balanceSheetTypes  = []ledger.AccountType{ledger.AccountTypeAsset, ledger.AccountTypeLiability, ledger.AccountTypeEquity}
	profitAndLossTypes = []ledger.AccountType{ledger.AccountTypeRevenue, ledger.AccountTypeExpense}
)

// ReportService builds the financial and operational reports
type ReportService struct {
	repos  appshared.Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(repos appshared.Repositories, l *zap.Logger) *ReportService {
	if l == nil {
		l = zap.NewNop()
	}
	return &ReportService{repos: repos, logger: l, now: time.Now}
}

// AsOfQuery holds the as_of parameter shared by point-in-time reports
type AsOfQuery struct {
	AsOf string `form:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

// PeriodQuery holds the range of the income statement
type PeriodQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// StockValuationQuery optionally restricts the valuation to one warehouse
type StockValuationQuery struct {
	WarehouseID *uuid.UUID `form:"warehouse_id"`
}

// StockValuationReport values on-hand stock at moving average cost
type StockValuationReport struct {
	AsOf          time.Time                 `json:"as_of"`
	WarehouseID   *uuid.UUID                `json:"warehouse_id,omitempty"`
	Lines         []inventory.ValuationLine `json:"lines"`
	TotalQuantity decimal.Decimal           `json:"total_quantity"`
	TotalValue    decimal.Decimal           `json:"total_value"`
}

func (s *ReportService) asOf(q AsOfQuery) (time.Time, error) {
	return appshared.DateOrToday("as_of", q.AsOf, s.now())
}

// TrialBalance lists posted totals per account up to the as-of date
func (s *ReportService) TrialBalance(ctx context.Context, tenantID uuid.UUID, q AsOfQuery) (*ledger.TrialBalance, error) {
	asOf, err := s.asOf(q)
	if err != nil {
		return nil, err
	}
	balances, err := s.repos.Ledger().AccountBalances(ctx, tenantID, nil, shared.DateRange{To: asOf})
	if err != nil {
		return nil, err
	}
	tb := ledger.BuildTrialBalance(asOf, balances)
	if !tb.IsBalanced() {
		logger.Enrich(ctx, s.logger).Error("trial balance out of balance",
			zap.String("as_of", appshared.FormatDate(asOf)),
			zap.String("difference", tb.Difference.String()))
	}
	return tb, nil
}

// BalanceSheet reports assets, liabilities and equity with current earnings
// folded into equity
func (s *ReportService) BalanceSheet(ctx context.Context, tenantID uuid.UUID, q AsOfQuery) (*ledger.BalanceSheet, error) {
	asOf, err := s.asOf(q)
	if err != nil {
		return nil, err
	}
	period := shared.DateRange{To: asOf}

	var positions, earnings []ledger.AccountBalance
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		positions, err = s.repos.Ledger().AccountBalances(gctx, tenantID, balanceSheetTypes, period)
		return err
	})
	g.Go(func() error {
		var err error
		earnings, err = s.repos.Ledger().AccountBalances(gctx, tenantID, profitAndLossTypes, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ledger.BuildBalanceSheet(asOf, positions, earnings), nil
}

// IncomeStatement reports revenue and expenses over a range. From defaults
// to the first day of the year of To; To defaults to today.
func (s *ReportService) IncomeStatement(ctx context.Context, tenantID uuid.UUID, q PeriodQuery) (*ledger.IncomeStatement, error) {
	to, err := appshared.DateOrToday("to", q.To, s.now())
	if err != nil {
		return nil, err
	}
	from, err := appshared.ParseDate("from", q.From)
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = time.Date(to.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if from.After(to) {
		return nil, shared.NewDomainError("INVALID_INPUT", "from must not be after to")
	}
	period := shared.DateRange{From: from, To: to}

	var revenue, expenses []ledger.AccountBalance
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		revenue, err = s.repos.Ledger().AccountBalances(gctx, tenantID, []ledger.AccountType{ledger.AccountTypeRevenue}, period)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.repos.Ledger().AccountBalances(gctx, tenantID, []ledger.AccountType{ledger.AccountTypeExpense}, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ledger.BuildIncomeStatement(from, to, append(revenue, expenses...)), nil
}

// StockValuation values current on-hand quantities
func (s *ReportService) StockValuation(ctx context.Context, tenantID uuid.UUID, q StockValuationQuery) (*StockValuationReport, error) {
	if q.WarehouseID != nil {
		if _, err := s.repos.Warehouses().FindByIDForTenant(ctx, tenantID, *q.WarehouseID); err != nil {
			return nil, err
		}
	}
	lines, err := s.repos.StockBalances().Valuation(ctx, tenantID, q.WarehouseID)
	if err != nil {
		return nil, err
	}
	report := &StockValuationReport{
		AsOf:          s.now(),
		WarehouseID:   q.WarehouseID,
		Lines:         lines,
		TotalQuantity: decimal.Zero,
		TotalValue:    decimal.Zero,
	}
	if report.Lines == nil {
		report.Lines = []inventory.ValuationLine{}
	}
	for _, l := range lines {
		report.TotalQuantity = report.TotalQuantity.Add(l.Quantity)
		report.TotalValue = report.TotalValue.Add(l.Value)
	}
	report.TotalValue = shared.RoundMoney(report.TotalValue)
	return report, nil
}

// ARAging buckets outstanding posted invoices by days past due
func (s *ReportService) ARAging(ctx context.Context, tenantID uuid.UUID, q AsOfQuery) (*sales.AgingReport, error) {
	asOf, err := s.asOf(q)
	if err != nil {
		return nil, err
	}
	invoices, err := s.repos.Invoices().FindOutstandingAsOf(ctx, tenantID, asOf)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	for _, inv := range invoices {
		if !seen[inv.CustomerID] {
			seen[inv.CustomerID] = true
			ids = append(ids, inv.CustomerID)
		}
	}
	customers := make(map[uuid.UUID]*sales.Customer, len(ids))
	if len(ids) > 0 {
		found, err := s.repos.Customers().FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, err
		}
		for i := range found {
			customers[found[i].ID] = &found[i]
		}
	}
	return sales.BuildAgingReport(asOf, invoices, customers), nil
}
