package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockSummary holds the current quantity for one (subject, warehouse) pair.
// The subject is either a simple product ('S') or a variation ('V').
// The composite unique index makes the create path an atomic upsert, never a
// read-then-create.
type StockSummary struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"uniqueIndex:idx_stock_subject;size:191;not null" json:"business_id"`
	WarehouseId int             `gorm:"uniqueIndex:idx_stock_subject;not null" json:"warehouse_id"`
	ProductId   int             `gorm:"uniqueIndex:idx_stock_subject;not null" json:"product_id"`
	ProductType ProductType     `gorm:"uniqueIndex:idx_stock_subject;type:enum('S','V');default:S" json:"product_type"`
	CurrentQty  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_qty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj StockSummary) GetBusinessId() string {
	return obj.BusinessId
}

// LockStockSummary upserts the row for (subject, warehouse) and returns it
// locked FOR UPDATE within tx. The insert relies on the composite unique
// index: a concurrent insert loses the race harmlessly and both callers then
// queue on the row lock.
func LockStockSummary(tx *gorm.DB, businessId string, warehouseId int, productId int, productType ProductType) (*StockSummary, error) {

	seed := StockSummary{
		BusinessId:  businessId,
		WarehouseId: warehouseId,
		ProductId:   productId,
		ProductType: productType,
		CurrentQty:  decimal.Zero,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}

	var stockSummary StockSummary
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND product_id = ? AND product_type = ? AND warehouse_id = ?",
			businessId, productId, productType, warehouseId).
		First(&stockSummary).Error
	if err != nil {
		return nil, err
	}
	return &stockSummary, nil
}

func GetAvailableStocks(ctx context.Context, warehouseId int) ([]*StockSummary, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	// check if warehouse exists and belong to the business
	if err := utils.ValidateResourceId[InventoryLocation](ctx, businessId, warehouseId); err != nil {
		return nil, errors.New("warehouse not found")
	}

	var stockSummaries []*StockSummary
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Where("warehouse_id = ?", warehouseId).
		Not("current_qty = 0").
		Find(&stockSummaries).Error; err != nil {
		return nil, err
	}
	return stockSummaries, nil
}

// GetStockInHand sums current quantity of a subject across all warehouses.
func GetStockInHand(ctx context.Context, productId int, productType ProductType) (decimal.Decimal, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return decimal.Zero, errors.New("business id is required")
	}

	var stockInHand decimal.Decimal
	db := config.GetDB()

	err := db.WithContext(ctx).
		Model(&StockSummary{}).
		Select("COALESCE(SUM(current_qty), 0)").
		Where("business_id = ?", businessId).
		Where("product_id = ?", productId).
		Where("product_type = ?", productType).
		Scan(&stockInHand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	return stockInHand, nil
}
