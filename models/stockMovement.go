package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovement is the append-only audit ledger. A row is written in the SAME
// transaction as the stock write it documents, so a committed quantity change
// always has its trail.
type StockMovement struct {
	ID          int                 `gorm:"primary_key" json:"id"`
	BusinessId  string              `gorm:"index;not null" json:"business_id"`
	WarehouseId int                 `gorm:"index;not null" json:"warehouse_id"`
	ProductId   int                 `gorm:"index;not null" json:"product_id"`
	ProductType ProductType         `gorm:"type:enum('S','V');default:S" json:"product_type"`
	UserId      int                 `gorm:"index" json:"user_id"`
	UserName    string              `gorm:"size:100" json:"user_name"`
	BeforeQty   decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"before_qty"`
	Delta       decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"delta"`
	Reason      StockMovementReason `gorm:"type:enum('adjust','set','import','opening','rebuild');default:adjust" json:"reason"`
	Note        string              `gorm:"type:text" json:"note"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"created_at"`

	WarehouseName string `gorm:"-" json:"warehouse_name,omitempty"`
}

func (obj StockMovement) GetId() int {
	return obj.ID
}

func (obj StockMovement) GetCursor() string {
	return obj.CreatedAt.String()
}

// createStockMovement appends a ledger row inside the caller's transaction.
// Actor identity comes from the transaction's context.
func createStockMovement(tx *gorm.DB,
	businessId string,
	warehouseId int,
	productId int,
	productType ProductType,
	beforeQty decimal.Decimal,
	delta decimal.Decimal,
	reason StockMovementReason,
	note string) error {

	if config.SkipMovementLogFor(string(reason)) {
		return nil
	}

	ctx := tx.Statement.Context
	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)

	movement := StockMovement{
		BusinessId:  businessId,
		WarehouseId: warehouseId,
		ProductId:   productId,
		ProductType: productType,
		UserId:      userId,
		UserName:    userName,
		BeforeQty:   beforeQty,
		Delta:       delta,
		Reason:      reason,
		Note:        note,
	}
	return tx.Create(&movement).Error
}

type StockMovementsConnection struct {
	Edges    []*StockMovementsEdge `json:"edges"`
	PageInfo *PageInfo             `json:"pageInfo"`
}

type StockMovementsEdge Edge[StockMovement]

// PaginateStockMovements lists ledger rows newest first with a composite
// (created_at, id) cursor.
func PaginateStockMovements(ctx context.Context,
	limit int,
	after *string,
	warehouseId *int,
	productId *int,
	productType *ProductType,
	reason *StockMovementReason,
) (*StockMovementsConnection, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 {
		limit = config.SearchLimit
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if warehouseId != nil && *warehouseId > 0 {
		dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	if productId != nil && *productId > 0 {
		dbCtx.Where("product_id = ?", *productId)
	}
	if productType != nil && *productType != "" {
		dbCtx.Where("product_type = ?", *productType)
	}
	if reason != nil && *reason != "" {
		dbCtx.Where("reason = ?", *reason)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[StockMovement](dbCtx, limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	// decorate warehouse names from the cached location map
	locations, err := MapAllInventoryLocation(ctx)
	if err != nil {
		return nil, err
	}

	var connection StockMovementsConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		if location, exists := locations[edge.Node.WarehouseId]; exists {
			edge.Node.WarehouseName = location.Name
		}
		movementsEdge := StockMovementsEdge(edge)
		connection.Edges = append(connection.Edges, &movementsEdge)
	}
	return &connection, nil
}
