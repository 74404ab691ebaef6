package persistence

import (
	"context"
	"time"

	"github.com/clearbook/backend/internal/domain/sales"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements sales.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func preloadInvoiceLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no")
}

// FindByIDForTenant finds an invoice with its lines
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesInvoice, error) {
	return r.find(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds an invoice and locks its row. Post, void, update
// and delete go through it so concurrent calls on one invoice serialize.
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesInvoice, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormInvoiceRepository) find(db *gorm.DB, tenantID, id uuid.UUID) (*sales.SalesInvoice, error) {
	var model models.SalesInvoiceModel
	if err := db.
		Preload("Lines", preloadInvoiceLines).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDsForUpdate loads and locks invoices being paid
func (r *GormInvoiceRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]sales.SalesInvoice, error) {
	if len(ids) == 0 {
		return []sales.SalesInvoice{}, nil
	}
	var invoiceModels []models.SalesInvoiceModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Preload("Lines", preloadInvoiceLines).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(invoiceModels), nil
}

// FindAllForTenant lists invoices, newest first by default
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.SalesInvoice, error) {
	var invoiceModels []models.SalesInvoiceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SalesInvoiceModel{}).Where("tenant_id = ?", tenantID), filter)
	query = orderBy(query, filter, InvoiceSortFields, "invoice_date", "DESC")
	if err := paginate(query, filter).Preload("Lines", preloadInvoiceLines).Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(invoiceModels), nil
}

// CountForTenant counts invoices matching the filter
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.SalesInvoiceModel{}).Where("tenant_id = ?", tenantID), filter).
		Count(&count).Error
	return count, err
}

// FindOutstandingAsOf restates invoices as they stood at the end of asOf:
// posted by then, not yet voided by a reversal dated on or before asOf, and
// paid only by allocations from payments dated on or before asOf.
func (r *GormInvoiceRepository) FindOutstandingAsOf(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]sales.SalesInvoice, error) {
	asOf = shared.DateOnly(asOf)
	var invoiceModels []models.SalesInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_date <= ? AND voucher_id IS NOT NULL", tenantID, asOf).
		Where("status IN ? OR (status = ? AND NOT EXISTS (SELECT 1 FROM journal_vouchers AS rv WHERE rv.reversal_of_id = sales_invoices.voucher_id AND rv.date <= ?))",
			[]sales.InvoiceStatus{sales.InvoiceStatusPosted, sales.InvoiceStatusPartiallyPaid, sales.InvoiceStatusPaid},
			sales.InvoiceStatusVoid, asOf).
		Order("due_date, number").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	if len(invoiceModels) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(invoiceModels))
	for i, m := range invoiceModels {
		ids[i] = m.ID
	}
	var paid []struct {
		InvoiceID uuid.UUID
		Paid      decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Table("payment_allocations AS pa").
		Select("pa.invoice_id, COALESCE(SUM(pa.amount), 0) AS paid").
		Joins("JOIN customer_payments AS cp ON cp.id = pa.payment_id").
		Where("cp.tenant_id = ? AND cp.payment_date <= ? AND pa.invoice_id IN ?", tenantID, asOf, ids).
		Group("pa.invoice_id").
		Scan(&paid).Error; err != nil {
		return nil, err
	}
	paidByInvoice := make(map[uuid.UUID]decimal.Decimal, len(paid))
	for _, p := range paid {
		paidByInvoice[p.InvoiceID] = p.Paid
	}

	invoices := invoicesToDomain(invoiceModels)
	for i := range invoices {
		amount, ok := paidByInvoice[invoices[i].ID]
		if !ok {
			amount = decimal.Zero
		}
		invoices[i].RestateAsOf(amount)
	}
	return invoices, nil
}

// OutstandingForCustomer sums total minus paid over the customer's open invoices
func (r *GormInvoiceRepository) OutstandingForCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Outstanding decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.SalesInvoiceModel{}).
		Select("COALESCE(SUM(total - amount_paid), 0) AS outstanding").
		Where("tenant_id = ? AND customer_id = ? AND status IN ?", tenantID, customerID, sales.OpenStatuses).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return shared.RoundMoney(result.Outstanding), nil
}

// Save writes the header and syncs the lines
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *sales.SalesInvoice) error {
	model := models.SalesInvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateError(err)
		}
		ids := make([]any, len(model.Lines))
		for i := range model.Lines {
			ids[i] = model.Lines[i].ID
		}
		return replaceChildren(tx, &models.InvoiceLineModel{}, "invoice_id", model.ID, ids, &model.Lines, len(model.Lines))
	})
}

// Delete removes a draft invoice and its lines
func (r *GormInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.SalesInvoiceModel{}).Where("tenant_id = ? AND id = ?", tenantID, id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		return tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.SalesInvoiceModel{}).Error
	})
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchLike(query, filter.Search, "number", "notes")
	if status, ok := filterValue(filter, "status"); ok {
		query = query.Where("status = ?", status)
	}
	if customerID, ok := filterValue(filter, "customer_id"); ok {
		query = query.Where("customer_id = ?", customerID)
	}
	if asOf, ok := filterTime(filter, "overdue_as_of"); ok {
		query = query.Where("status IN ? AND due_date < ?", sales.OpenStatuses, shared.DateOnly(asOf))
	}
	return dateBounds(query, filter, "invoice_date")
}

func invoicesToDomain(invoiceModels []models.SalesInvoiceModel) []sales.SalesInvoice {
	invoices := make([]sales.SalesInvoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices
}

var _ sales.InvoiceRepository = (*GormInvoiceRepository)(nil)
