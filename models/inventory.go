package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* snapshot */

// InventorySnapshot is the denormalized per-tenant stock view. It is built
// wholesale on every request and never mutated afterwards; a failed rebuild
// leaves the caller's previous snapshot untouched.
type InventorySnapshot struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Warehouses  []*InventoryLocation `json:"warehouses"`
	Products    []*SnapshotProduct   `json:"products"`
}

type SnapshotProduct struct {
	Product    *Product             `json:"product"`
	Options    []string             `json:"options,omitempty"`
	Stocks     []SnapshotStockRow   `json:"stocks,omitempty"`
	Variations []*SnapshotVariation `json:"variations,omitempty"`
}

type SnapshotVariation struct {
	Variation  *ProductVariation  `json:"variation"`
	Attributes []OptionPair       `json:"attributes"`
	Stocks     []SnapshotStockRow `json:"stocks"`
}

type SnapshotStockRow struct {
	WarehouseId int             `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type stockKey struct {
	productId   int
	productType ProductType
	warehouseId int
}

// LoadInventorySnapshot builds the view: simple and variable products, their
// variations, the active warehouses, and one quantity per (subject,
// warehouse) defaulting to zero. All stock rows come from a single batched
// query, not one round trip per variation.
func LoadInventorySnapshot(ctx context.Context) (*InventorySnapshot, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	warehouses, err := ListActiveWarehouses(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var products []*Product
	err = db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Where("kind IN ?", []ProductKind{ProductKindSimple, ProductKindVariable}).
		Where("is_active = ?", true).
		Preload("Variations").
		Order("name").
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	warehouseIds := make([]int, 0, len(warehouses))
	for _, warehouse := range warehouses {
		warehouseIds = append(warehouseIds, warehouse.ID)
	}

	// one query for every stock row of the tenant's active warehouses
	quantities := make(map[stockKey]decimal.Decimal)
	if len(warehouseIds) > 0 {
		var summaries []*StockSummary
		err = db.WithContext(ctx).
			Where("business_id = ?", businessId).
			Where("warehouse_id IN ?", warehouseIds).
			Find(&summaries).Error
		if err != nil {
			return nil, err
		}
		for _, summary := range summaries {
			quantities[stockKey{summary.ProductId, summary.ProductType, summary.WarehouseId}] = summary.CurrentQty
		}
	}

	stockRowsFor := func(productId int, productType ProductType) []SnapshotStockRow {
		rows := make([]SnapshotStockRow, 0, len(warehouseIds))
		for _, warehouseId := range warehouseIds {
			qty, exists := quantities[stockKey{productId, productType, warehouseId}]
			if !exists {
				qty = decimal.Zero
			}
			rows = append(rows, SnapshotStockRow{WarehouseId: warehouseId, Quantity: qty})
		}
		return rows
	}

	snapshot := InventorySnapshot{
		GeneratedAt: time.Now(),
		Warehouses:  warehouses,
	}
	for _, product := range products {
		snapshotProduct := SnapshotProduct{Product: product}
		if product.Kind == ProductKindVariable {
			variantNames := make([]string, 0, len(product.Variations))
			for i := range product.Variations {
				variation := &product.Variations[i]
				variantNames = append(variantNames, variation.Name)
				snapshotProduct.Variations = append(snapshotProduct.Variations, &SnapshotVariation{
					Variation:  variation,
					Attributes: variation.Attributes(),
					Stocks:     stockRowsFor(variation.ID, ProductTypeVariation),
				})
			}
			snapshotProduct.Options = ProductOptionNames(variantNames)
		} else {
			snapshotProduct.Stocks = stockRowsFor(product.ID, ProductTypeSingle)
		}
		snapshot.Products = append(snapshot.Products, &snapshotProduct)
	}

	return &snapshot, nil
}

/* mutations */

type StockAdjustInput struct {
	ProductId   int             `json:"product_id" binding:"required"`
	ProductType ProductType     `json:"product_type"`
	WarehouseId int             `json:"warehouse_id" binding:"required"`
	Delta       decimal.Decimal `json:"delta"`
	Note        string          `json:"note"`
}

type StockSetInput struct {
	ProductId   int             `json:"product_id" binding:"required"`
	ProductType ProductType     `json:"product_type"`
	WarehouseId int             `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Note        string          `json:"note"`
}

type BulkStockResult struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`
}

// validateStockSubject checks the warehouse and subject before any write.
func validateStockSubject(ctx context.Context, businessId string, productId int, productType ProductType, warehouseId int) error {

	if warehouseId <= 0 {
		return errors.New("warehouse is required")
	}
	warehouse, err := utils.FetchModel[InventoryLocation](ctx, businessId, warehouseId)
	if err != nil {
		return errors.New("warehouse not found")
	}
	if warehouse.Type != LocationTypeWarehouse {
		return errors.New("location is not a warehouse")
	}
	if warehouse.IsActive == nil || !*warehouse.IsActive {
		return errors.New("warehouse is inactive")
	}

	switch productType {
	case ProductTypeSingle:
		product, err := utils.FetchModel[Product](ctx, businessId, productId)
		if err != nil {
			return errors.New("product not found")
		}
		if product.Kind == ProductKindVariable {
			return errors.New("variable product stock is tracked per variation")
		}
		if product.Kind != ProductKindSimple {
			return errors.New("product kind does not track stock")
		}
	case ProductTypeVariation:
		if err := utils.ValidateResourceId[ProductVariation](ctx, businessId, productId); err != nil {
			return errors.New("variation not found")
		}
	default:
		return errors.New("invalid product type")
	}
	return nil
}

// adjustStockTx applies a delta inside tx: upsert+lock the row, move the
// quantity, append the ledger entry. One commit covers all three.
func adjustStockTx(tx *gorm.DB, businessId string, input *StockAdjustInput, reason StockMovementReason) (*StockSummary, error) {

	stockSummary, err := LockStockSummary(tx, businessId, input.WarehouseId, input.ProductId, input.ProductType)
	if err != nil {
		return nil, err
	}

	newQty := stockSummary.CurrentQty.Add(input.Delta)
	if config.StrictNonNegativeStock() && newQty.IsNegative() {
		return nil, fmt.Errorf("stock cannot go below zero (current %s, delta %s)",
			stockSummary.CurrentQty.String(), input.Delta.String())
	}

	if err := tx.Model(stockSummary).UpdateColumn("CurrentQty", newQty).Error; err != nil {
		return nil, err
	}
	if err := createStockMovement(tx, businessId, input.WarehouseId, input.ProductId, input.ProductType,
		stockSummary.CurrentQty, input.Delta, reason, input.Note); err != nil {
		return nil, err
	}

	stockSummary.CurrentQty = newQty
	return stockSummary, nil
}

// setStockTx writes an absolute quantity; the ledger delta is target-current,
// which is zero when the set is a no-op (still recorded).
func setStockTx(tx *gorm.DB, businessId string, input *StockSetInput, reason StockMovementReason) (*StockSummary, error) {

	stockSummary, err := LockStockSummary(tx, businessId, input.WarehouseId, input.ProductId, input.ProductType)
	if err != nil {
		return nil, err
	}

	delta := input.Quantity.Sub(stockSummary.CurrentQty)
	if err := tx.Model(stockSummary).UpdateColumn("CurrentQty", input.Quantity).Error; err != nil {
		return nil, err
	}
	if err := createStockMovement(tx, businessId, input.WarehouseId, input.ProductId, input.ProductType,
		stockSummary.CurrentQty, delta, reason, input.Note); err != nil {
		return nil, err
	}

	stockSummary.CurrentQty = input.Quantity
	return stockSummary, nil
}

func (input *StockAdjustInput) normalize() {
	if input.ProductType == "" {
		input.ProductType = ProductTypeSingle
	}
}

func (input *StockSetInput) normalize() {
	if input.ProductType == "" {
		input.ProductType = ProductTypeSingle
	}
}

// AdjustStock applies a delta to one (subject, warehouse) pair.
func AdjustStock(ctx context.Context, input *StockAdjustInput) (*StockSummary, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	input.normalize()
	if err := validateStockSubject(ctx, businessId, input.ProductId, input.ProductType, input.WarehouseId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	result, err := adjustStockTx(tx.WithContext(ctx), businessId, input, MovementReasonAdjust)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return result, tx.Commit().Error
}

// SetStock writes an absolute quantity for one (subject, warehouse) pair,
// creating the stock row if missing.
func SetStock(ctx context.Context, input *StockSetInput) (*StockSummary, error) {
	return setStockWithReason(ctx, input, MovementReasonSet)
}

func setStockWithReason(ctx context.Context, input *StockSetInput, reason StockMovementReason) (*StockSummary, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	input.normalize()
	if input.Quantity.IsNegative() {
		return nil, errors.New("quantity cannot be negative")
	}
	if err := validateStockSubject(ctx, businessId, input.ProductId, input.ProductType, input.WarehouseId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	result, err := setStockTx(tx.WithContext(ctx), businessId, input, reason)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return result, tx.Commit().Error
}

// RebuildStockSummaries recomputes every stock row of a business from the
// movement ledger. A drifted row is corrected and the correction itself is
// logged with reason "rebuild", so the ledger stays the source of truth.
func RebuildStockSummaries(ctx context.Context, businessId string) (int, error) {

	db := config.GetDB()

	type ledgerKey struct {
		WarehouseId int
		ProductId   int
		ProductType ProductType
		Total       decimal.Decimal
	}
	var keys []ledgerKey
	err := db.WithContext(ctx).
		Model(&StockMovement{}).
		Select("warehouse_id, product_id, product_type, COALESCE(SUM(delta), 0) AS total").
		Where("business_id = ?", businessId).
		Group("warehouse_id, product_id, product_type").
		Scan(&keys).Error
	if err != nil {
		return 0, err
	}

	corrected := 0
	for _, key := range keys {
		err := func() error {
			tx := db.Begin()
			txCtx := tx.WithContext(ctx)
			stockSummary, err := LockStockSummary(txCtx, businessId, key.WarehouseId, key.ProductId, key.ProductType)
			if err != nil {
				tx.Rollback()
				return err
			}
			if stockSummary.CurrentQty.Equal(key.Total) {
				tx.Rollback()
				return nil
			}
			delta := key.Total.Sub(stockSummary.CurrentQty)
			if err := txCtx.Model(stockSummary).UpdateColumn("CurrentQty", key.Total).Error; err != nil {
				tx.Rollback()
				return err
			}
			if err := createStockMovement(txCtx, businessId, key.WarehouseId, key.ProductId, key.ProductType,
				stockSummary.CurrentQty, delta, MovementReasonRebuild, "ledger rebuild"); err != nil {
				tx.Rollback()
				return err
			}
			corrected++
			return tx.Commit().Error
		}()
		if err != nil {
			return corrected, err
		}
	}
	return corrected, nil
}

// BulkAdjustStock applies deltas row by row. Each row commits on its own; a
// failed row is counted and the loop moves on, never aborting early.
func BulkAdjustStock(ctx context.Context, inputs []*StockAdjustInput) (*BulkStockResult, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	// best-effort tenant lock; proceed when not obtained
	release, err := utils.BusinessLock(ctx, businessId, "BulkStock", "models", "BulkAdjustStock")
	if err == nil {
		defer release()
	}

	result := BulkStockResult{}
	for i, input := range inputs {
		if err := func() error {
			input.normalize()
			if err := validateStockSubject(ctx, businessId, input.ProductId, input.ProductType, input.WarehouseId); err != nil {
				return err
			}
			db := config.GetDB()
			tx := db.Begin()
			if _, err := adjustStockTx(tx.WithContext(ctx), businessId, input, MovementReasonAdjust); err != nil {
				tx.Rollback()
				return err
			}
			return tx.Commit().Error
		}(); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.SuccessCount++
	}
	return &result, nil
}

// BulkSetStock writes absolute quantities row by row with the same failure
// isolation as BulkAdjustStock.
func BulkSetStock(ctx context.Context, inputs []*StockSetInput) (*BulkStockResult, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	release, err := utils.BusinessLock(ctx, businessId, "BulkStock", "models", "BulkSetStock")
	if err == nil {
		defer release()
	}

	result := BulkStockResult{}
	for i, input := range inputs {
		if err := func() error {
			input.normalize()
			if input.Quantity.IsNegative() {
				return errors.New("quantity cannot be negative")
			}
			if err := validateStockSubject(ctx, businessId, input.ProductId, input.ProductType, input.WarehouseId); err != nil {
				return err
			}
			db := config.GetDB()
			tx := db.Begin()
			if _, err := setStockTx(tx.WithContext(ctx), businessId, input, MovementReasonSet); err != nil {
				tx.Rollback()
				return err
			}
			return tx.Commit().Error
		}(); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.SuccessCount++
	}
	return &result, nil
}
