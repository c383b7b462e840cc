package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
)

// InventoryLocation is a physical place stock can sit: a warehouse or an
// event venue. Only active warehouse rows participate in reconciliation.
type InventoryLocation struct {
	ID         int          `gorm:"primary_key" json:"id"`
	BusinessId string       `gorm:"index;not null" json:"business_id"`
	Type       LocationType `gorm:"type:enum('warehouse','venue');default:warehouse" json:"type"`
	Name       string       `gorm:"size:100;not null" json:"name" binding:"required"`
	Phone      string       `gorm:"size:20" json:"phone"`
	Address    string       `gorm:"type:text" json:"address"`
	IsActive   *bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInventoryLocation struct {
	Type    LocationType `json:"type"`
	Name    string       `json:"name" binding:"required"`
	Phone   string       `json:"phone"`
	Address string       `json:"address"`
}

func (obj InventoryLocation) GetBusinessId() string {
	return obj.BusinessId
}

// validate input for both create & update. (id = 0 for create)
func (input *NewInventoryLocation) validate(ctx context.Context, businessId string, id int) error {
	// name
	if err := utils.ValidateUnique[InventoryLocation](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// type
	switch input.Type {
	case "", LocationTypeWarehouse, LocationTypeVenue:
	default:
		return errors.New("invalid location type")
	}
	// phone
	if len(strings.TrimSpace(input.Phone)) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

func CreateInventoryLocation(ctx context.Context, input *NewInventoryLocation) (*InventoryLocation, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	locationType := input.Type
	if locationType == "" {
		locationType = LocationTypeWarehouse
	}

	location := InventoryLocation{
		BusinessId: businessId,
		Type:       locationType,
		Name:       input.Name,
		Phone:      input.Phone,
		Address:    input.Address,
		IsActive:   utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&location).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[AllInventoryLocation](businessId); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisMap[AllInventoryLocation](businessId); err != nil {
		return nil, err
	}
	return &location, nil
}

func UpdateInventoryLocation(ctx context.Context, id int, input *NewInventoryLocation) (*InventoryLocation, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	location, err := utils.FetchModel[InventoryLocation](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	before := *location

	// db action
	db := config.GetDB()
	tx := db.Begin()
	txCtx := tx.WithContext(ctx)
	err = txCtx.Model(&location).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Phone":   input.Phone,
		"Address": input.Address,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveHistoryUpdate(txCtx, id, "inventory_locations", &before, location, "updated location "+location.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*location); err != nil {
		return nil, err
	}
	return location, nil
}

func DeleteInventoryLocation(ctx context.Context, id int) (*InventoryLocation, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	result, err := utils.FetchModel[InventoryLocation](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// check if location still holds stock
	var count int64
	if err := db.WithContext(ctx).Model(&StockSummary{}).
		Where("warehouse_id = ? AND current_qty <> 0", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("location has stock")
	}

	// db action
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}
	return result, nil
}

func GetInventoryLocation(ctx context.Context, id int) (*InventoryLocation, error) {
	return GetResource[InventoryLocation](ctx, id)
}

func ListInventoryLocation(ctx context.Context, name *string, locationType *LocationType) ([]*InventoryLocation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*InventoryLocation

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if locationType != nil && len(*locationType) > 0 {
		dbCtx = dbCtx.Where("type = ?", *locationType)
	}
	// db query
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveInventoryLocation(ctx context.Context, id int, isActive bool) (*InventoryLocation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return ToggleActiveModel[InventoryLocation](ctx, businessId, id, isActive)
}

// ListActiveWarehouses returns the active warehouse-typed locations only.
// Venues and inactive rows never participate in stock reconciliation.
func ListActiveWarehouses(ctx context.Context) ([]*InventoryLocation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*InventoryLocation
	err := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Where("type = ?", LocationTypeWarehouse).
		Where("is_active = ?", true).
		Order("name").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ResolveWarehouse finds a warehouse by id, or failing that by
// case-insensitive name among the given candidates.
func ResolveWarehouse(warehouses []*InventoryLocation, id int, name string) (*InventoryLocation, bool) {
	if id > 0 {
		for _, warehouse := range warehouses {
			if warehouse.ID == id {
				return warehouse, true
			}
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	for _, warehouse := range warehouses {
		if strings.EqualFold(warehouse.Name, name) {
			return warehouse, true
		}
	}
	return nil, false
}
