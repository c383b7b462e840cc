package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/google/uuid"
)

type Business struct {
	ID                 uuid.UUID `gorm:"primary_key" json:"id"`
	LogoUrl            string    `json:"logo_url"`
	Name               string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	ContactName        string    `gorm:"size:100" json:"contact_name"`
	Email              string    `gorm:"size:255" json:"email"`
	Phone              string    `gorm:"size:20" json:"phone"`
	Website            string    `gorm:"size:255" json:"website"`
	About              string    `gorm:"type:text" json:"about"`
	Address            string    `gorm:"type:text" json:"address"`
	Country            string    `gorm:"size:100"  json:"country"`
	City               string    `gorm:"size:100"  json:"city"`
	Timezone           string    `gorm:"size:50" json:"timezone"`
	PrimaryWarehouseId int       `gorm:"not null;default:0" json:"primary_warehouse_id"`
	IsActive           *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	LogoUrl     string `json:"logo_url"`
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	About       string `json:"about"`
	Address     string `json:"address"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
}

func (business *Business) StoreRedis() error {
	return config.SetRedisObject("Business:"+fmt.Sprint(business.ID), business, 0)
}

func (business *Business) RemoveRedis() error {
	return config.RemoveRedisKey("Business:" + fmt.Sprint(business.ID))
}

func (input *NewBusiness) validate(ctx context.Context, id string) error {
	// name
	if err := utils.ValidateUnique[Business](ctx, "", "name", input.Name, id); err != nil {
		return err
	}
	// email
	if !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	if err := utils.ValidateUnique[Business](ctx, "", "email", input.Email, id); err != nil {
		return err
	}
	// phone
	if len(strings.TrimSpace(input.Phone)) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
		if err := utils.ValidateUnique[Business](ctx, "", "phone", input.Phone, id); err != nil {
			return err
		}
	}
	return nil
}

// CreateBusiness registers a tenant and seeds its primary warehouse so stock
// operations work out of the box.
func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {

	if err := input.validate(ctx, ""); err != nil {
		return nil, err
	}

	business := Business{
		ID:          uuid.New(),
		LogoUrl:     input.LogoUrl,
		Name:        input.Name,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Website:     input.Website,
		About:       input.About,
		Address:     input.Address,
		Country:     input.Country,
		City:        input.City,
		Timezone:    input.Timezone,
		IsActive:    utils.NewTrue(),
	}

	db := config.GetDB()
	tx := db.Begin()
	txCtx := tx.WithContext(ctx)

	if err := txCtx.Create(&business).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// seed the primary warehouse
	warehouse := InventoryLocation{
		BusinessId: business.ID.String(),
		Type:       LocationTypeWarehouse,
		Name:       "Primary Warehouse",
		IsActive:   utils.NewTrue(),
	}
	if err := txCtx.Create(&warehouse).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := txCtx.Model(&business).UpdateColumn("PrimaryWarehouseId", warehouse.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func UpdateBusiness(ctx context.Context, id string, input *NewBusiness) (*Business, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if businessId != id {
		return nil, errors.New("cannot update other business")
	}

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	business, err := GetBusinessById(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&business).Updates(map[string]interface{}{
		"LogoUrl":     input.LogoUrl,
		"Name":        input.Name,
		"ContactName": input.ContactName,
		"Email":       input.Email,
		"Phone":       input.Phone,
		"Website":     input.Website,
		"About":       input.About,
		"Address":     input.Address,
		"Country":     input.Country,
		"City":        input.City,
		"Timezone":    input.Timezone,
	}).Error
	if err != nil {
		return nil, err
	}

	// refresh cache
	if err := business.RemoveRedis(); err != nil {
		return nil, err
	}
	return business, nil
}

// GetBusinessById finds a business in redis or db. The tenant guard is
// bypassed since businesses table has no business_id column.
func GetBusinessById(ctx context.Context, id string) (*Business, error) {

	var business Business
	exists, err := config.GetRedisObject("Business:"+id, &business)
	if err != nil {
		return nil, err
	}
	if exists {
		return &business, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", id).First(&business).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := business.StoreRedis(); err != nil {
		return nil, err
	}
	return &business, nil
}

func GetBusiness(ctx context.Context) (*Business, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return GetBusinessById(ctx, businessId)
}
