package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceRepository hands out gapless numbers from document_sequences.
// The UPDATE takes a row lock that is held until the caller's transaction
// ends, so concurrent postings queue on the same counter.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next increments and returns the counter for (tenant, prefix, year)
func (r *GormSequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, prefix string, year int) (int64, error) {
	db := r.db.WithContext(ctx)
	for attempt := 0; attempt < 2; attempt++ {
		result := db.Model(&models.DocumentSequenceModel{}).
			Where("tenant_id = ? AND prefix = ? AND year = ?", tenantID, prefix, year).
			Updates(map[string]any{
				"last_value": gorm.Expr("last_value + 1"),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return 0, result.Error
		}
		if result.RowsAffected > 0 {
			var seq models.DocumentSequenceModel
			if err := db.Where("tenant_id = ? AND prefix = ? AND year = ?", tenantID, prefix, year).
				First(&seq).Error; err != nil {
				return 0, err
			}
			return seq.LastValue, nil
		}

		created := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.DocumentSequenceModel{
			TenantID:  tenantID,
			Prefix:    prefix,
			Year:      year,
			LastValue: 1,
			UpdatedAt: time.Now(),
		})
		if created.Error != nil {
			return 0, created.Error
		}
		if created.RowsAffected == 1 {
			return 1, nil
		}
		// another transaction created the row first; take the update path
	}
	return 0, fmt.Errorf("sequence %s/%d: could not allocate a number", prefix, year)
}

var _ ledger.SequenceRepository = (*GormSequenceRepository)(nil)
