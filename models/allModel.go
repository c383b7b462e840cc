package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
)

// get AllModelMap for lookups, redis or db
func MapAllModel[ModelT any, AllT Identifier](ctx context.Context) (map[int]*AllT, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	key := utils.GetTypeName[AllT]() + "Map:" + businessId

	var allMap map[int]*AllT

	// retrieve from redis
	if exists, err := config.GetRedisObject(key, &allMap); err != nil {
		return nil, err
	} else if !exists {
		// if the map has not been cached yet
		// fetch resources and construct the map, cache the result

		allMap = make(map[int]*AllT)
		var allSlice []*AllT
		db := config.GetDB()
		var m ModelT
		dbCtx := db.WithContext(ctx).Model(&m).Where("business_id = ?", businessId)
		if err := dbCtx.Find(&allSlice).Error; err != nil {
			return nil, err
		}

		// fill the map
		for _, allModel := range allSlice {
			allMap[(*allModel).GetId()] = allModel
		}

		var duration time.Duration
		if err := config.SetRedisObject(key, &allMap, duration); err != nil {
			return nil, err
		}
	}

	return allMap, nil
}

// embedding struct will receive ID field, satisfy Identifier interface
type HasId struct {
	ID int `json:"id"`
}

func (h HasId) GetId() int {
	return h.ID
}

type AllProduct struct {
	HasId
	Name       string          `json:"name"`
	Sku        string          `json:"sku"`
	Kind       ProductKind     `json:"kind"`
	SalesPrice decimal.Decimal `json:"sales_price"`
	IsActive   bool            `json:"is_active"`
}

type AllInventoryLocation struct {
	HasId
	Name     string       `json:"name"`
	Type     LocationType `json:"type"`
	IsActive bool         `json:"is_active"`
}

type AllUser struct {
	HasId
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func ListAllProduct(ctx context.Context) ([]*AllProduct, error) {
	return ListAllResource[Product, AllProduct](ctx, "name")
}

func ListAllInventoryLocation(ctx context.Context) ([]*AllInventoryLocation, error) {
	return ListAllResource[InventoryLocation, AllInventoryLocation](ctx, "name")
}

func MapAllInventoryLocation(ctx context.Context) (map[int]*AllInventoryLocation, error) {
	return MapAllModel[InventoryLocation, AllInventoryLocation](ctx)
}

func ListAllUser(ctx context.Context) ([]*AllUser, error) {
	return ListAllResource[User, AllUser](ctx)
}
