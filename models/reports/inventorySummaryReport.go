package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
)

type InventorySummaryResponse struct {
	ProductId     int             `json:"product_id"`
	ProductName   string          `json:"product_name"`
	ProductType   string          `json:"product_type"`
	WarehouseId   int             `json:"warehouse_id"`
	WarehouseName string          `json:"warehouse_name"`
	CurrentQty    decimal.Decimal `json:"current_qty"`
}

// GetInventorySummaryReport lists every non-zero stock row joined with its
// product or variation name and its warehouse.
func GetInventorySummaryReport(ctx context.Context) ([]*InventorySummaryResponse, error) {
	start := time.Now()
	defer logSlowReport(ctx, "inventory_summary_report", start, nil)

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if reportCacheEnabled() {
		key := fmt.Sprintf("report:inventory_summary:%s", businessId)
		var cached []*InventorySummaryResponse
		if ok, err := cacheGet(key, &cached); err == nil && ok && cached != nil {
			return cached, nil
		}
		rows, err := queryInventorySummary(ctx, businessId)
		if err != nil {
			return nil, err
		}
		_ = cacheSet(key, rows, reportCacheTTL())
		return rows, nil
	}

	return queryInventorySummary(ctx, businessId)
}

func queryInventorySummary(ctx context.Context, businessId string) ([]*InventorySummaryResponse, error) {

	sql := `
SELECT
    ss.product_id,
    ss.product_type,
    ss.warehouse_id,
    ss.current_qty,
    COALESCE(p.name, pv.name) AS product_name,
    il.name AS warehouse_name
FROM
    stock_summaries ss
    LEFT JOIN products p ON ss.product_type = 'S' AND p.id = ss.product_id
    LEFT JOIN product_variations pv ON ss.product_type = 'V' AND pv.id = ss.product_id
    LEFT JOIN inventory_locations il ON il.id = ss.warehouse_id
WHERE
    ss.business_id = ?
    AND ss.current_qty <> 0
ORDER BY
    product_name, il.name;
`

	var records []*InventorySummaryResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, businessId).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
