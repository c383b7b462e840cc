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

type ProductVariation struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null" json:"business_id"`
	ProductId  int             `gorm:"index;not null" json:"product_id"`
	Name       string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Sku        string          `gorm:"size:100" json:"sku"`
	SalesPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductVariation struct {
	Name       string          `json:"name" binding:"required"`
	Sku        string          `json:"sku"`
	SalesPrice decimal.Decimal `json:"sales_price"`
}

func (obj ProductVariation) GetBusinessId() string {
	return obj.BusinessId
}

// Attributes derives the option pairs from Name, with canonical option keys.
func (obj ProductVariation) Attributes() []OptionPair {
	pairs := ParseVariantName(obj.Name)
	for i := range pairs {
		pairs[i].Name = CanonicalOptionName(pairs[i].Name)
	}
	return pairs
}

// DisplayName synthesizes "<product> - <attr values joined by comma>".
func (obj ProductVariation) DisplayName(productName string) string {
	pairs := ParseVariantName(obj.Name)
	if len(pairs) == 0 {
		return productName
	}
	values := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		values = append(values, pair.Value)
	}
	return productName + " - " + strings.Join(values, ", ")
}

func (input *NewProductVariation) toModel(businessId string, productId int) ProductVariation {
	return ProductVariation{
		BusinessId: businessId,
		ProductId:  productId,
		Name:       input.Name,
		Sku:        input.Sku,
		SalesPrice: input.SalesPrice,
		IsActive:   utils.NewTrue(),
	}
}

// validateVariationInputs checks a batch of variation inputs for a variable product.
// Every name must parse to at least one option pair and names must not repeat.
func validateVariationInputs(inputs []NewProductVariation) error {
	seen := make(map[string]bool, len(inputs))
	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return errors.New("variation name is required")
		}
		if len(ParseVariantName(name)) == 0 {
			return errors.New("variation name has no options: " + name)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return errors.New("duplicate variation name: " + name)
		}
		seen[key] = true
		if input.SalesPrice.IsNegative() {
			return errors.New("sales price cannot be negative")
		}
	}
	return nil
}

// AddProductVariation appends one variation to an existing variable product.
func AddProductVariation(ctx context.Context, productId int, input *NewProductVariation) (*ProductVariation, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	product, err := utils.FetchModel[Product](ctx, businessId, productId)
	if err != nil {
		return nil, errors.New("product not found")
	}
	if product.Kind != ProductKindVariable {
		return nil, errors.New("only variable products can have variations")
	}
	if err := validateVariationInputs([]NewProductVariation{*input}); err != nil {
		return nil, err
	}
	// reject a second variation with the same option string
	if err := utils.ValidateUnique[ProductVariation](ctx, businessId, "name", input.Name, 0); err != nil {
		return nil, err
	}

	variation := input.toModel(businessId, productId)
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&variation).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Product](productId); err != nil {
		return nil, err
	}
	return &variation, nil
}

func UpdateProductVariation(ctx context.Context, id int, input *NewProductVariation) (*ProductVariation, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := validateVariationInputs([]NewProductVariation{*input}); err != nil {
		return nil, err
	}

	variation, err := utils.FetchModel[ProductVariation](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&variation).Updates(map[string]interface{}{
		"Name":       input.Name,
		"Sku":        input.Sku,
		"SalesPrice": input.SalesPrice,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[Product](variation.ProductId); err != nil {
		return nil, err
	}
	return variation, nil
}

func DeleteProductVariation(ctx context.Context, id int) (*ProductVariation, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	variation, err := utils.FetchModel[ProductVariation](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// check remaining stock
	var count int64
	if err := db.WithContext(ctx).Model(&StockSummary{}).
		Where("product_id = ? AND product_type = ? AND current_qty <> 0", id, ProductTypeVariation).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("variation has stock")
	}

	if err := db.WithContext(ctx).Delete(&variation).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Product](variation.ProductId); err != nil {
		return nil, err
	}
	return variation, nil
}

func ListProductVariations(ctx context.Context, productId int) ([]*ProductVariation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*ProductVariation
	err := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Where("product_id = ?", productId).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
