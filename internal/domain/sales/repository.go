package sales

import (
	"context"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerRepository persists customers.
type CustomerRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Customer, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, customer *Customer) error
}

// InvoiceRepository persists invoices with their lines.
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesInvoice, error)
	// FindByIDForUpdate locks the invoice for the rest of the transaction
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*SalesInvoice, error)
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]SalesInvoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]SalesInvoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// FindOutstandingAsOf returns invoices restated to their status and
	// amount paid at the end of asOf.
	FindOutstandingAsOf(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]SalesInvoice, error)
	OutstandingForCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, invoice *SalesInvoice) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// PaymentRepository persists customer payments with allocations.
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CustomerPayment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CustomerPayment, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, payment *CustomerPayment) error
}
