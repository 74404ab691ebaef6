package persistence

import (
	"context"
	"time"

	"github.com/clearbook/backend/internal/domain/ledger"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSettingsRepository stores one row per configured default account.
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// FindByTenant loads the settings. A tenant without rows gets empty settings.
func (r *GormSettingsRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*ledger.AccountingSettings, error) {
	var rows []models.AccountingSettingModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&rows).Error; err != nil {
		return nil, err
	}
	settings := ledger.NewAccountingSettings(tenantID)
	if len(rows) > 0 {
		settings.UpdatedAt = time.Time{}
	}
	for _, row := range rows {
		settings.Accounts[ledger.SettingKey(row.Key)] = row.AccountID
		if row.UpdatedAt.After(settings.UpdatedAt) {
			settings.UpdatedAt = row.UpdatedAt
		}
	}
	return settings, nil
}

// Save replaces every row of the tenant
func (r *GormSettingsRepository) Save(ctx context.Context, settings *ledger.AccountingSettings) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", settings.TenantID).Delete(&models.AccountingSettingModel{}).Error; err != nil {
			return err
		}
		rows := make([]models.AccountingSettingModel, 0, len(settings.Accounts))
		for _, key := range ledger.SettingKeys {
			id, ok := settings.Accounts[key]
			if !ok || id == uuid.Nil {
				continue
			}
			rows = append(rows, models.AccountingSettingModel{
				TenantID:  settings.TenantID,
				Key:       string(key),
				AccountID: id,
				UpdatedAt: time.Now(),
			})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

var _ ledger.SettingsRepository = (*GormSettingsRepository)(nil)
