package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appledger "github.com/clearbook/backend/internal/application/ledger"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/sales"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// PaymentService records customer payments against posted invoices
type PaymentService struct {
	scope   appshared.TransactionScope
	repos   appshared.Repositories
	posting *appledger.PostingService
	events  *appshared.EventDispatcher
	logger  *zap.Logger
	now     func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	posting *appledger.PostingService,
	events *appshared.EventDispatcher,
	l *zap.Logger,
) *PaymentService {
	if l == nil {
		l = zap.NewNop()
	}
	return &PaymentService{scope: scope, repos: repos, posting: posting, events: events, logger: l, now: time.Now}
}

// Record allocates a payment to open invoices of the customer and posts
// the receipt voucher (Dr bank ledger account, Cr receivable). Invoice
// balances and statuses change in the same transaction.
func (s *PaymentService) Record(ctx context.Context, tenantID, userID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	date, err := appshared.DateOrToday("payment_date", req.PaymentDate, s.now())
	if err != nil {
		return nil, err
	}
	var (
		payment *sales.CustomerPayment
		events  []shared.DomainEvent
	)
	err = s.scope.Execute(ctx, func(r appshared.Repositories) error {
		customer, err := r.Customers().FindByIDForTenant(ctx, tenantID, req.CustomerID)
		if err != nil {
			return err
		}
		bank, err := r.BankAccounts().FindByIDForTenant(ctx, tenantID, req.BankAccountID)
		if err != nil {
			return err
		}
		if !bank.IsActive {
			return shared.NewDomainErrorf("BANK_ACCOUNT_INACTIVE", "Bank account %s is inactive", bank.Name)
		}
		if err := appledger.CheckPeriod(ctx, r, tenantID, date); err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(req.Allocations))
		inputs := make([]sales.AllocationInput, len(req.Allocations))
		for i, a := range req.Allocations {
			ids[i] = a.InvoiceID
			inputs[i] = sales.AllocationInput{InvoiceID: a.InvoiceID, Amount: a.Amount}
		}
		locked, err := r.Invoices().FindByIDsForUpdate(ctx, tenantID, ids)
		if err != nil {
			return err
		}
		invoices := make(map[uuid.UUID]*sales.SalesInvoice, len(locked))
		for i := range locked {
			invoices[locked[i].ID] = &locked[i]
		}

		seq, err := r.Sequences().Next(ctx, tenantID, ledger.PrefixPayment, date.Year())
		if err != nil {
			return err
		}
		number := ledger.FormatDocumentNumber(ledger.PrefixPayment, date.Year(), seq)
		payment, err = sales.NewCustomerPayment(tenantID, number, customer, bank.ID, date, req.Amount, req.Reference, inputs, invoices)
		if err != nil {
			return err
		}
		payment.Notes = req.Notes

		settings, err := r.Settings().FindByTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		receivable, err := settings.Require(ledger.SettingReceivable)
		if err != nil {
			return err
		}
		desc := "Payment " + number + " from " + customer.Code
		var lines appledger.LineSet
		lines.Debit(bank.LedgerAccountID, payment.Amount, desc)
		lines.Credit(receivable, payment.Amount, desc)
		voucher, err := s.posting.PostDocument(ctx, r, tenantID, userID, appledger.Document{
			Type:        ledger.VoucherTypeReceipt,
			Date:        date,
			Description: desc,
			Reference:   payment.Reference,
			SourceType:  ledger.SourceCustomerPayment,
			SourceID:    payment.ID,
			Lines:       lines.Lines(),
		})
		if err != nil {
			return err
		}
		payment.Record(voucher.ID, userID)
		if err := r.Payments().Save(ctx, payment); err != nil {
			return err
		}
		for _, a := range payment.Allocations {
			if err := r.Invoices().Save(ctx, invoices[a.InvoiceID]); err != nil {
				return err
			}
		}
		events = append(shared.CollectEvents(voucher), shared.CollectEvents(payment)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info("payment recorded",
		zap.String("number", payment.Number),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.Int("allocations", len(payment.Allocations)))
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// Get returns one payment with its allocations
func (s *PaymentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.repos.Payments().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// List returns a page of payments, newest first
func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, q PaymentListFilter) (*shared.Paginated[PaymentResponse], error) {
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
		filter.OrderBy = "payment_date"
	}
	filter = filter.With("from", from).With("to", to)
	if q.CustomerID != nil {
		filter = filter.With("customer_id", *q.CustomerID)
	}
	if q.InvoiceID != nil {
		filter = filter.With("invoice_id", *q.InvoiceID)
	}
	payments, err := s.repos.Payments().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Payments().CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}
