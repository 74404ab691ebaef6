package persistence

import (
	"context"
	"time"

	"github.com/clearbook/backend/internal/domain/inventory"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockBalanceRepository implements inventory.StockBalanceRepository using GORM
type GormStockBalanceRepository struct {
	db *gorm.DB
}

// NewGormStockBalanceRepository creates a new GormStockBalanceRepository
func NewGormStockBalanceRepository(db *gorm.DB) *GormStockBalanceRepository {
	return &GormStockBalanceRepository{db: db}
}

// Find loads a balance; a missing row is ErrNotFound
func (r *GormStockBalanceRepository) Find(ctx context.Context, tenantID, itemID, warehouseID uuid.UUID) (*inventory.StockBalance, error) {
	var model models.StockBalanceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND item_id = ? AND warehouse_id = ?", tenantID, itemID, warehouseID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindForUpdate loads and locks a balance, or returns a new empty one
func (r *GormStockBalanceRepository) FindForUpdate(ctx context.Context, tenantID, itemID, warehouseID uuid.UUID) (*inventory.StockBalance, error) {
	var model models.StockBalanceModel
	err := forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND item_id = ? AND warehouse_id = ?", tenantID, itemID, warehouseID).
		First(&model).Error
	if err != nil {
		if translateError(err) == shared.ErrNotFound {
			return inventory.NewStockBalance(tenantID, itemID, warehouseID), nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists balances, optionally by item or warehouse
func (r *GormStockBalanceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockBalance, error) {
	query := r.db.WithContext(ctx).Model(&models.StockBalanceModel{}).Where("tenant_id = ?", tenantID)
	if itemID, ok := filterValue(filter, "item_id"); ok {
		query = query.Where("item_id = ?", itemID)
	}
	if warehouseID, ok := filterValue(filter, "warehouse_id"); ok {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	query = orderBy(query, filter, StockBalanceSortFields, "updated_at", "DESC")

	var balanceModels []models.StockBalanceModel
	if err := paginate(query, filter).Find(&balanceModels).Error; err != nil {
		return nil, err
	}
	balances := make([]inventory.StockBalance, len(balanceModels))
	for i := range balanceModels {
		balances[i] = *balanceModels[i].ToDomain()
	}
	return balances, nil
}

type valuationRow struct {
	ItemID        uuid.UUID
	SKU           string
	ItemName      string
	WarehouseID   uuid.UUID
	WarehouseCode string
	Quantity      decimal.Decimal
	AverageCost   decimal.Decimal
}

// Valuation lists non-zero balances with their value at average cost
func (r *GormStockBalanceRepository) Valuation(ctx context.Context, tenantID uuid.UUID, warehouseID *uuid.UUID) ([]inventory.ValuationLine, error) {
	query := r.db.WithContext(ctx).
		Table("stock_balances AS b").
		Select("b.item_id, i.sku, i.name AS item_name, b.warehouse_id, w.code AS warehouse_code, b.quantity, b.average_cost").
		Joins("JOIN items AS i ON i.id = b.item_id").
		Joins("JOIN warehouses AS w ON w.id = b.warehouse_id").
		Where("b.tenant_id = ? AND b.quantity <> 0", tenantID).
		Order("i.sku, w.code")
	if warehouseID != nil {
		query = query.Where("b.warehouse_id = ?", *warehouseID)
	}
	var rows []valuationRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]inventory.ValuationLine, len(rows))
	for i, row := range rows {
		lines[i] = inventory.ValuationLine{
			ItemID:        row.ItemID,
			SKU:           row.SKU,
			ItemName:      row.ItemName,
			WarehouseID:   row.WarehouseID,
			WarehouseCode: row.WarehouseCode,
			Quantity:      row.Quantity,
			AverageCost:   row.AverageCost,
			Value:         shared.RoundMoney(row.Quantity.Mul(row.AverageCost)),
		}
	}
	return lines, nil
}

// Save writes a balance. The version guard rejects a write based on a
// stale read when the database did not lock the row.
func (r *GormStockBalanceRepository) Save(ctx context.Context, balance *inventory.StockBalance) error {
	model := models.StockBalanceModelFromDomain(balance)
	db := r.db.WithContext(ctx)
	result := db.Model(&models.StockBalanceModel{}).
		Where("id = ? AND version < ?", model.ID, model.Version).
		Updates(map[string]any{
			"quantity":     model.Quantity,
			"average_cost": model.AverageCost,
			"version":      model.Version,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var exists int64
	if err := db.Model(&models.StockBalanceModel{}).Where("id = ?", model.ID).Count(&exists).Error; err != nil {
		return err
	}
	if exists > 0 {
		return shared.ErrConcurrencyConflict
	}
	if err := db.Create(model).Error; err != nil {
		if translateError(err) == shared.ErrAlreadyExists {
			return shared.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// GormMovementRepository implements inventory.MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Save appends a movement
func (r *GormMovementRepository) Save(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error
}

// SaveBatch appends movements
func (r *GormMovementRepository) SaveBatch(ctx context.Context, movements []*inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	movementModels := make([]*models.StockMovementModel, len(movements))
	for i, m := range movements {
		movementModels[i] = models.StockMovementModelFromDomain(m)
	}
	return r.db.WithContext(ctx).CreateInBatches(movementModels, 100).Error
}

// FindBySource lists the movements a document produced
func (r *GormMovementRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) ([]inventory.StockMovement, error) {
	var movementModels []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		Order("created_at, id").
		Find(&movementModels).Error; err != nil {
		return nil, err
	}
	return movementsToDomain(movementModels), nil
}

// FindAllForTenant lists movements, newest first by default
func (r *GormMovementRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movementModels []models.StockMovementModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockMovementModel{}).Where("tenant_id = ?", tenantID), filter)
	query = orderBy(query, filter, MovementSortFields, "date", "DESC")
	if err := paginate(query, filter).Find(&movementModels).Error; err != nil {
		return nil, err
	}
	return movementsToDomain(movementModels), nil
}

// CountForTenant counts movements matching the filter
func (r *GormMovementRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockMovementModel{}).Where("tenant_id = ?", tenantID), filter).
		Count(&count).Error
	return count, err
}

func (r *GormMovementRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchLike(query, filter.Search, "reference")
	if itemID, ok := filterValue(filter, "item_id"); ok {
		query = query.Where("item_id = ?", itemID)
	}
	if warehouseID, ok := filterValue(filter, "warehouse_id"); ok {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	if t, ok := filterValue(filter, "type"); ok {
		query = query.Where("type = ?", t)
	}
	if st, ok := filterValue(filter, "source_type"); ok {
		query = query.Where("source_type = ?", st)
	}
	return dateBounds(query, filter, "date")
}

func movementsToDomain(movementModels []models.StockMovementModel) []inventory.StockMovement {
	movements := make([]inventory.StockMovement, len(movementModels))
	for i := range movementModels {
		movements[i] = movementModels[i].ToDomain()
	}
	return movements
}

var (
	_ inventory.StockBalanceRepository = (*GormStockBalanceRepository)(nil)
	_ inventory.MovementRepository     = (*GormMovementRepository)(nil)
)
