package models

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
)

var inventoryCsvHeader = []string{
	"product_id", "product_name", "warehouse_id", "warehouse_name", "stock_quantity",
}

// BuildInventoryCSVRows flattens a snapshot into export rows, header included.
// Variable products export one row per (variation, warehouse) with the
// synthesized display name; simple products one row per warehouse. An empty
// snapshot yields a single template row after the header so the file can be
// filled in and re-imported.
func BuildInventoryCSVRows(snapshot *InventorySnapshot) [][]string {

	rows := [][]string{inventoryCsvHeader}

	for _, snapshotProduct := range snapshot.Products {
		product := snapshotProduct.Product
		for _, variation := range snapshotProduct.Variations {
			for _, stock := range variation.Stocks {
				warehouse := warehouseById(snapshot.Warehouses, stock.WarehouseId)
				if warehouse == nil {
					continue
				}
				rows = append(rows, []string{
					strconv.Itoa(variation.Variation.ID),
					variation.Variation.DisplayName(product.Name),
					strconv.Itoa(warehouse.ID),
					warehouse.Name,
					stock.Quantity.String(),
				})
			}
		}
		for _, stock := range snapshotProduct.Stocks {
			warehouse := warehouseById(snapshot.Warehouses, stock.WarehouseId)
			if warehouse == nil {
				continue
			}
			rows = append(rows, []string{
				strconv.Itoa(product.ID),
				product.Name,
				strconv.Itoa(warehouse.ID),
				warehouse.Name,
				stock.Quantity.String(),
			})
		}
	}

	if len(rows) == 1 {
		rows = append(rows, []string{"1", "Sample Product", "1", "Primary Warehouse", "0"})
	}
	return rows
}

func warehouseById(warehouses []*InventoryLocation, id int) *InventoryLocation {
	for _, warehouse := range warehouses {
		if warehouse.ID == id {
			return warehouse
		}
	}
	return nil
}

func WriteInventoryCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportInventoryCSV renders the current snapshot as an RFC 4180 document.
func ExportInventoryCSV(ctx context.Context) ([]byte, error) {

	snapshot, err := LoadInventorySnapshot(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteInventoryCSV(&buf, BuildInventoryCSVRows(snapshot)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type InventoryImportRow struct {
	Line          int
	ProductId     int
	ProductName   string
	WarehouseId   int
	WarehouseName string
	Quantity      decimal.Decimal
}

// ParseInventoryCSV reads rows from an import file. The file must carry the
// header plus at least one data row; a row whose product id or quantity does
// not parse is returned as an error string, never aborting the rest.
func ParseInventoryCSV(r io.Reader) ([]InventoryImportRow, []string, error) {

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, errors.New("file must contain a header row and at least one data row")
	}

	var rows []InventoryImportRow
	var badRows []string
	for i, record := range records[1:] {
		line := i + 2
		if len(record) < 5 {
			badRows = append(badRows, fmt.Sprintf("line %d: expected 5 columns, got %d", line, len(record)))
			continue
		}
		productId, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil || productId <= 0 {
			badRows = append(badRows, fmt.Sprintf("line %d: invalid product id %q", line, record[0]))
			continue
		}
		warehouseId, _ := strconv.Atoi(strings.TrimSpace(record[2]))
		quantity, err := utils.ParseDecimal(record[4])
		if err != nil {
			badRows = append(badRows, fmt.Sprintf("line %d: invalid quantity %q", line, record[4]))
			continue
		}
		if quantity.IsNegative() {
			badRows = append(badRows, fmt.Sprintf("line %d: negative quantity %q", line, record[4]))
			continue
		}
		rows = append(rows, InventoryImportRow{
			Line:          line,
			ProductId:     productId,
			ProductName:   strings.TrimSpace(record[1]),
			WarehouseId:   warehouseId,
			WarehouseName: strings.TrimSpace(record[3]),
			Quantity:      quantity,
		})
	}
	return rows, badRows, nil
}

// resolveImportSubject decides whether a row's product id refers to a simple
// product or a variation. Variations win when both exist under the same id.
func resolveImportSubject(ctx context.Context, businessId string, productId int) (ProductType, error) {
	if err := utils.ValidateResourceId[ProductVariation](ctx, businessId, productId); err == nil {
		return ProductTypeVariation, nil
	}
	product, err := utils.FetchModel[Product](ctx, businessId, productId)
	if err != nil {
		return "", errors.New("product not found")
	}
	if product.Kind == ProductKindVariable {
		return "", errors.New("variable product stock is tracked per variation")
	}
	if product.Kind != ProductKindSimple {
		return "", errors.New("product kind does not track stock")
	}
	return ProductTypeSingle, nil
}

// ImportInventoryCSV replays a stock file through absolute sets. Each row
// resolves its warehouse by id first, then by case-insensitive name, and is
// applied in its own transaction; failed rows are counted and skipped.
func ImportInventoryCSV(ctx context.Context, r io.Reader) (*BulkStockResult, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	rows, badRows, err := ParseInventoryCSV(r)
	if err != nil {
		return nil, err
	}

	warehouses, err := ListActiveWarehouses(ctx)
	if err != nil {
		return nil, err
	}

	release, err := utils.BusinessLock(ctx, businessId, "BulkStock", "models", "ImportInventoryCSV")
	if err == nil {
		defer release()
	}

	result := BulkStockResult{
		ErrorCount: len(badRows),
		Errors:     badRows,
	}
	for _, row := range rows {
		if err := func() error {
			warehouse, found := ResolveWarehouse(warehouses, row.WarehouseId, row.WarehouseName)
			if !found {
				return fmt.Errorf("warehouse %q not found", row.WarehouseName)
			}
			productType, err := resolveImportSubject(ctx, businessId, row.ProductId)
			if err != nil {
				return err
			}
			input := StockSetInput{
				ProductId:   row.ProductId,
				ProductType: productType,
				WarehouseId: warehouse.ID,
				Quantity:    row.Quantity,
				Note:        "csv import",
			}
			_, err = setStockWithReason(ctx, &input, MovementReasonImport)
			return err
		}(); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", row.Line, err))
			continue
		}
		result.SuccessCount++
	}
	return &result, nil
}
