package models

import (
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove list if exists
}

// remove both item & list
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

func (obj Product) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Product](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Product) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllProduct](obj.BusinessId); err != nil {
		return err
	}
	return nil
}

func (obj ProductVariation) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[ProductVariation](obj.ID); err != nil {
		return err
	}
	// cached parent still embeds this variation
	return utils.RemoveRedisItem[Product](obj.ProductId)
}

func (obj ProductVariation) RemoveAllRedis() error {
	return nil
}

func (obj InventoryLocation) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[InventoryLocation](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj InventoryLocation) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllInventoryLocation](obj.BusinessId); err != nil {
		return err
	}
	return utils.RemoveRedisMap[AllInventoryLocation](obj.BusinessId)
}
