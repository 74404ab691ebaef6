package persistence

import (
	"context"

	"github.com/clearbook/backend/internal/domain/sales"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements sales.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForTenant finds a payment with its allocations
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.CustomerPayment, error) {
	var model models.CustomerPaymentModel
	if err := r.db.WithContext(ctx).
		Preload("Allocations").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists payments, newest first by default
func (r *GormPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.CustomerPayment, error) {
	var paymentModels []models.CustomerPaymentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CustomerPaymentModel{}).Where("tenant_id = ?", tenantID), filter)
	query = orderBy(query, filter, PaymentSortFields, "payment_date", "DESC")
	if err := paginate(query, filter).Preload("Allocations").Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]sales.CustomerPayment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, nil
}

// CountForTenant counts payments matching the filter
func (r *GormPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.CustomerPaymentModel{}).Where("tenant_id = ?", tenantID), filter).
		Count(&count).Error
	return count, err
}

// Save writes a payment with its allocations. Payments are immutable once
// recorded, so allocations are only ever inserted.
func (r *GormPaymentRepository) Save(ctx context.Context, payment *sales.CustomerPayment) error {
	model := models.CustomerPaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateError(err)
		}
		if len(model.Allocations) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Allocations).Error
	})
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchLike(query, filter.Search, "number", "reference")
	if customerID, ok := filterValue(filter, "customer_id"); ok {
		query = query.Where("customer_id = ?", customerID)
	}
	if invoiceID, ok := filterValue(filter, "invoice_id"); ok {
		query = query.Where("id IN (?)", r.db.Model(&models.PaymentAllocationModel{}).Select("payment_id").Where("invoice_id = ?", invoiceID))
	}
	return dateBounds(query, filter, "payment_date")
}

var _ sales.PaymentRepository = (*GormPaymentRepository)(nil)
