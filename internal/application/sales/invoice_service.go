package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appinventory "github.com/clearbook/backend/internal/application/inventory"
	appledger "github.com/clearbook/backend/internal/application/ledger"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/domain/sales"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// InvoiceService manages sales invoices. Posting issues the stock and
// books revenue, tax, receivable and cost of sales in one transaction.
type InvoiceService struct {
	scope   appshared.TransactionScope
	repos   appshared.Repositories
	posting *appledger.PostingService
	events  *appshared.EventDispatcher
	logger  *zap.Logger
	now     func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	posting *appledger.PostingService,
	events *appshared.EventDispatcher,
	l *zap.Logger,
) *InvoiceService {
	if l == nil {
		l = zap.NewNop()
	}
	return &InvoiceService{scope: scope, repos: repos, posting: posting, events: events, logger: l, now: time.Now}
}

// Create saves a draft invoice
func (s *InvoiceService) Create(ctx context.Context, tenantID, userID uuid.UUID, req InvoiceRequest) (*InvoiceResponse, error) {
	var invoice *sales.SalesInvoice
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		customer, warehouseID, invoiceDate, dueDate, err := s.resolve(ctx, r, tenantID, req)
		if err != nil {
			return err
		}
		invoice, err = sales.NewSalesInvoice(tenantID, customer, warehouseID, invoiceDate, dueDate, req.Notes, req.lineInputs())
		if err != nil {
			return err
		}
		invoice.SetCreatedBy(userID)
		return r.Invoices().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// Update replaces header and lines of a draft invoice
func (s *InvoiceService) Update(ctx context.Context, tenantID, id uuid.UUID, req InvoiceRequest) (*InvoiceResponse, error) {
	var invoice *sales.SalesInvoice
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		invoice, err = r.Invoices().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if !invoice.IsDraft() {
			return shared.NewDomainErrorf("INVALID_STATE", "Cannot modify invoice in %s status", invoice.Status)
		}
		customer, warehouseID, invoiceDate, dueDate, err := s.resolve(ctx, r, tenantID, req)
		if err != nil {
			return err
		}
		if err := invoice.Update(customer, warehouseID, invoiceDate, dueDate, req.Notes, req.lineInputs()); err != nil {
			return err
		}
		return r.Invoices().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// resolve loads the customer, checks the line items and parses the dates
// of an invoice request.
func (s *InvoiceService) resolve(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, req InvoiceRequest) (*sales.Customer, uuid.UUID, time.Time, time.Time, error) {
	invoiceDate, err := appshared.DateOrToday("invoice_date", req.InvoiceDate, s.now())
	if err != nil {
		return nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	dueDate, err := appshared.ParseDate("due_date", req.DueDate)
	if err != nil {
		return nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	customer, err := r.Customers().FindByIDForTenant(ctx, tenantID, req.CustomerID)
	if err != nil {
		return nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	warehouseID, err := appinventory.ResolveWarehouse(ctx, r, tenantID, req.WarehouseID)
	if err != nil {
		return nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	ids := make([]uuid.UUID, len(req.Lines))
	for i, l := range req.Lines {
		ids[i] = l.ItemID
	}
	items, err := loadItems(ctx, r, tenantID, ids)
	if err != nil {
		return nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	for i, l := range req.Lines {
		item, ok := items[l.ItemID]
		if !ok {
			return nil, uuid.Nil, time.Time{}, time.Time{}, shared.NewDomainErrorf("INVALID_LINE", "Line %d: item not found", i+1)
		}
		if !item.IsActive {
			return nil, uuid.Nil, time.Time{}, time.Time{}, shared.NewDomainErrorf("ITEM_INACTIVE", "Line %d: item %s is inactive", i+1, item.SKU)
		}
	}
	return customer, warehouseID, invoiceDate, dueDate, nil
}

// Delete removes a draft invoice
func (s *InvoiceService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(r appshared.Repositories) error {
		invoice, err := r.Invoices().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if !invoice.IsDraft() {
			return shared.NewDomainErrorf("INVALID_STATE", "Cannot delete invoice in %s status", invoice.Status)
		}
		return r.Invoices().Delete(ctx, tenantID, id)
	})
}

// Post numbers the invoice, issues its stock lines at average cost and
// posts the sales voucher:
//
//	Dr receivable           total
//	Cr revenue (per account) net amounts
//	Cr sales tax            tax total
//	Dr cost of sales / Cr inventory for the issued cost
func (s *InvoiceService) Post(ctx context.Context, tenantID, userID, id uuid.UUID) (*InvoiceResponse, error) {
	var (
		invoice *sales.SalesInvoice
		events  []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		invoice, err = r.Invoices().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if !invoice.IsDraft() {
			return shared.NewDomainErrorf("INVALID_STATE", "Cannot post invoice in %s status", invoice.Status)
		}
		customer, err := r.Customers().FindByIDForTenant(ctx, tenantID, invoice.CustomerID)
		if err != nil {
			return err
		}
		if !customer.IsActive {
			return shared.NewDomainError("CUSTOMER_INACTIVE", "Customer is inactive")
		}
		outstanding, err := r.Invoices().OutstandingForCustomer(ctx, tenantID, customer.ID)
		if err != nil {
			return err
		}
		if err := customer.CheckCredit(outstanding, invoice.Total); err != nil {
			return err
		}
		if err := appledger.CheckPeriod(ctx, r, tenantID, invoice.InvoiceDate); err != nil {
			return err
		}
		settings, err := r.Settings().FindByTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		items, err := loadItems(ctx, r, tenantID, invoice.ItemIDs())
		if err != nil {
			return err
		}

		year := invoice.InvoiceDate.Year()
		seq, err := r.Sequences().Next(ctx, tenantID, ledger.PrefixInvoice, year)
		if err != nil {
			return err
		}
		number := ledger.FormatDocumentNumber(ledger.PrefixInvoice, year, seq)

		receivable, err := settings.Require(ledger.SettingReceivable)
		if err != nil {
			return err
		}
		desc := "Invoice " + number
		var lines appledger.LineSet
		lines.Debit(receivable, invoice.Total, desc)

		invoiceID := invoice.ID
		source := inventory.MovementSource{
			Type:      string(ledger.SourceSalesInvoice),
			ID:        &invoiceID,
			Reference: number,
			UserID:    userID,
		}
		var applied []*appinventory.Applied
		for _, line := range invoice.Lines {
			item, ok := items[line.ItemID]
			if !ok {
				return shared.NewDomainErrorf("INVALID_LINE", "Line %d: item not found", line.LineNo)
			}
			revenue, err := appinventory.RevenueAccount(settings, item)
			if err != nil {
				return err
			}
			lines.Credit(revenue, line.NetAmount, desc)
			if !item.IsStocked() {
				continue
			}
			issued, err := appinventory.ApplyMove(ctx, r, tenantID, appinventory.Move{
				Item:        item,
				WarehouseID: invoice.WarehouseID,
				Type:        inventory.MovementSale,
				Quantity:    line.Quantity,
				Date:        invoice.InvoiceDate,
				Source:      source,
			})
			if err != nil {
				return err
			}
			applied = append(applied, issued)
			invoice.SetLineCost(line.ID, issued.Movement.TotalCost)

			cogs, err := appinventory.CostOfSalesAccount(settings, item)
			if err != nil {
				return err
			}
			inv, err := appinventory.InventoryAccount(settings, item)
			if err != nil {
				return err
			}
			lines.Debit(cogs, issued.Movement.TotalCost, desc)
			lines.Credit(inv, issued.Movement.TotalCost, desc)
		}
		if invoice.TaxTotal.IsPositive() {
			tax, err := settings.Require(ledger.SettingSalesTax)
			if err != nil {
				return err
			}
			lines.Credit(tax, invoice.TaxTotal, desc)
		}

		voucher, err := s.posting.PostDocument(ctx, r, tenantID, userID, appledger.Document{
			Type:        ledger.VoucherTypeSales,
			Date:        invoice.InvoiceDate,
			Description: desc,
			Reference:   number,
			SourceType:  ledger.SourceSalesInvoice,
			SourceID:    invoice.ID,
			Lines:       lines.Lines(),
		})
		if err != nil {
			return err
		}
		if voucher == nil {
			return shared.NewDomainError("INVALID_AMOUNT", "Invoice total must be positive")
		}
		moved, err := appinventory.RecordMoves(ctx, r, voucher, applied...)
		if err != nil {
			return err
		}
		if err := invoice.Post(number, voucher.ID, userID, s.now()); err != nil {
			return err
		}
		if err := r.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		events = append(moved, shared.CollectEvents(voucher)...)
		events = append(events, shared.CollectEvents(invoice)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info("invoice posted",
		zap.String("number", invoice.Number),
		zap.String("total", invoice.Total.StringFixed(2)),
		zap.String("cost", invoice.TotalCost().StringFixed(2)))
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// Void reverses the sales voucher, returns the sold stock at its original
// cost and marks the invoice void. Invoices with payments cannot be voided.
func (s *InvoiceService) Void(ctx context.Context, tenantID, userID, id uuid.UUID, req VoidInvoiceRequest) (*InvoiceResponse, error) {
	date, err := appshared.DateOrToday("date", req.Date, s.now())
	if err != nil {
		return nil, err
	}
	var (
		invoice *sales.SalesInvoice
		events  []shared.DomainEvent
	)
	err = s.scope.Execute(ctx, func(r appshared.Repositories) error {
		var err error
		invoice, err = r.Invoices().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := invoice.CanVoid(); err != nil {
			return err
		}
		if invoice.VoucherID == nil {
			return shared.NewDomainError("INVALID_STATE", "Invoice has no voucher to reverse")
		}
		original, err := r.Vouchers().FindByIDForUpdate(ctx, tenantID, *invoice.VoucherID)
		if err != nil {
			return err
		}
		reversal, err := s.posting.Reverse(ctx, r, tenantID, userID, original, date, "Void "+invoice.Number)
		if err != nil {
			return err
		}

		sold, err := r.Movements().FindBySource(ctx, tenantID, string(ledger.SourceSalesInvoice), invoice.ID)
		if err != nil {
			return err
		}
		itemIDs := make([]uuid.UUID, 0, len(sold))
		for _, m := range sold {
			itemIDs = append(itemIDs, m.ItemID)
		}
		items, err := loadItems(ctx, r, tenantID, itemIDs)
		if err != nil {
			return err
		}
		invoiceID := invoice.ID
		source := inventory.MovementSource{
			Type:      string(ledger.SourceSalesInvoice),
			ID:        &invoiceID,
			Reference: "Void " + invoice.Number,
			UserID:    userID,
		}
		var applied []*appinventory.Applied
		for _, m := range sold {
			if m.Type != inventory.MovementSale {
				continue
			}
			returned, err := appinventory.ApplyMove(ctx, r, tenantID, appinventory.Move{
				Item:        items[m.ItemID],
				WarehouseID: m.WarehouseID,
				Type:        inventory.MovementSaleReturn,
				Quantity:    m.Quantity,
				UnitCost:    m.UnitCost,
				Date:        date,
				Source:      source,
			})
			if err != nil {
				return err
			}
			applied = append(applied, returned)
		}
		moved, err := appinventory.RecordMoves(ctx, r, reversal, applied...)
		if err != nil {
			return err
		}

		if err := invoice.Void(req.Reason, userID, s.now()); err != nil {
			return err
		}
		if err := r.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		events = append(moved, shared.CollectEvents(original, reversal)...)
		events = append(events, shared.CollectEvents(invoice)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, events)
	logger.Enrich(ctx, s.logger).Info("invoice voided",
		zap.String("number", invoice.Number),
		zap.String("reason", invoice.VoidReason))
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// Get returns one invoice with its lines
func (s *InvoiceService) Get(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.repos.Invoices().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// List returns a page of invoices, newest first
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, q InvoiceListFilter) (*shared.Paginated[InvoiceResponse], error) {
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
		filter.OrderBy = "invoice_date"
	}
	filter = filter.With("status", q.Status).
		With("from", from).
		With("to", to)
	if q.CustomerID != nil {
		filter = filter.With("customer_id", *q.CustomerID)
	}
	if q.Overdue {
		filter = filter.With("overdue_as_of", shared.DateOnly(s.now()))
	}
	invoices, err := s.repos.Invoices().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Invoices().CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

func loadItems(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*inventory.Item, error) {
	items, err := r.Items().FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*inventory.Item, len(items))
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}
