package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null" json:"business_id"`
	Name       string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Sku        string          `gorm:"size:100" json:"sku"`
	Kind       ProductKind     `gorm:"type:enum('simple','variable','event');default:simple" json:"kind"`
	SalesPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Variations []ProductVariation `gorm:"foreignKey:ProductId" json:"variations,omitempty"`
}

type NewProduct struct {
	Name       string                `json:"name" binding:"required"`
	Sku        string                `json:"sku"`
	Kind       ProductKind           `json:"kind"`
	SalesPrice decimal.Decimal       `json:"sales_price"`
	Variations []NewProductVariation `json:"variations"`
}

func (obj Product) GetBusinessId() string {
	return obj.BusinessId
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProduct) validate(ctx context.Context, businessId string, id int) error {
	// name
	if err := utils.ValidateUnique[Product](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// sku
	if len(strings.TrimSpace(input.Sku)) > 0 {
		if err := utils.ValidateUnique[Product](ctx, businessId, "sku", input.Sku, id); err != nil {
			return err
		}
	}
	// kind
	switch input.Kind {
	case "", ProductKindSimple, ProductKindEvent:
		if len(input.Variations) > 0 {
			return errors.New("only variable products can have variations")
		}
	case ProductKindVariable:
		if id == 0 && len(input.Variations) == 0 {
			return errors.New("variable product requires at least one variation")
		}
		if err := validateVariationInputs(input.Variations); err != nil {
			return err
		}
	default:
		return errors.New("invalid product kind")
	}
	// price
	if input.SalesPrice.IsNegative() {
		return errors.New("sales price cannot be negative")
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	kind := input.Kind
	if kind == "" {
		kind = ProductKindSimple
	}

	product := Product{
		BusinessId: businessId,
		Name:       input.Name,
		Sku:        input.Sku,
		Kind:       kind,
		SalesPrice: input.SalesPrice,
		IsActive:   utils.NewTrue(),
	}

	db := config.GetDB()
	tx := db.Begin()
	txCtx := tx.WithContext(ctx)

	if err := txCtx.Create(&product).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for i := range input.Variations {
		variation := input.Variations[i].toModel(businessId, product.ID)
		if err := txCtx.Create(&variation).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		product.Variations = append(product.Variations, variation)
	}

	if err := SaveHistoryCreate(txCtx, product.ID, "products", &product, "created product "+product.Name); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	// clear list cache
	if err := utils.RemoveRedisList[AllProduct](businessId); err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if input.Kind != "" && product.Kind != input.Kind {
		return nil, errors.New("product kind cannot be changed")
	}

	before := *product

	db := config.GetDB()
	tx := db.Begin()
	txCtx := tx.WithContext(ctx)
	err = txCtx.Model(&product).Updates(map[string]interface{}{
		"Name":       input.Name,
		"Sku":        input.Sku,
		"SalesPrice": input.SalesPrice,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(txCtx, id, "products", &before, product, "updated product "+product.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*product); err != nil {
		return nil, err
	}
	return product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	product, err := utils.FetchModel[Product](ctx, businessId, id, "Variations")
	if err != nil {
		return nil, err
	}

	// check if product still holds stock
	var count int64
	if err := db.WithContext(ctx).Model(&StockSummary{}).
		Where("product_id = ? AND product_type = ? AND current_qty <> 0", id, ProductTypeSingle).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("product has stock")
	}

	tx := db.Begin()
	txCtx := tx.WithContext(ctx)

	if product.Kind == ProductKindVariable {
		if err := txCtx.Where("product_id = ?", id).Delete(&ProductVariation{}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := txCtx.Delete(&Product{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryDelete(txCtx, id, "products", product, "deleted product "+product.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*product); err != nil {
		return nil, err
	}
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return GetResource[Product](ctx, id, "Variations")
}

func ListProduct(ctx context.Context, name *string, kind *ProductKind) ([]*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*Product

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if kind != nil && len(*kind) > 0 {
		dbCtx = dbCtx.Where("kind = ?", *kind)
	}
	err := dbCtx.Preload("Variations").Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveProduct(ctx context.Context, id int, isActive bool) (*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return ToggleActiveModel[Product](ctx, businessId, id, isActive)
}
