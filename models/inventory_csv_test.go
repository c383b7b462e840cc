package models_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/marketplace_backend/models"
	"github.com/shopspring/decimal"
)

func sampleSnapshot() *models.InventorySnapshot {
	yangon := &models.InventoryLocation{ID: 1, Name: "Yangon Warehouse", Type: models.LocationTypeWarehouse}
	mandalay := &models.InventoryLocation{ID: 2, Name: "Mandalay Warehouse", Type: models.LocationTypeWarehouse}

	shirt := &models.Product{ID: 10, Name: "T-Shirt", Kind: models.ProductKindVariable}
	redM := &models.ProductVariation{ID: 101, ProductId: 10, Name: "Color: Red / Size: M"}
	mug := &models.Product{ID: 20, Name: "Coffee Mug", Kind: models.ProductKindSimple}

	return &models.InventorySnapshot{
		GeneratedAt: time.Now(),
		Warehouses:  []*models.InventoryLocation{yangon, mandalay},
		Products: []*models.SnapshotProduct{
			{
				Product: shirt,
				Variations: []*models.SnapshotVariation{
					{
						Variation:  redM,
						Attributes: redM.Attributes(),
						Stocks: []models.SnapshotStockRow{
							{WarehouseId: 1, Quantity: decimal.NewFromInt(5)},
							{WarehouseId: 2, Quantity: decimal.Zero},
						},
					},
				},
			},
			{
				Product: mug,
				Stocks: []models.SnapshotStockRow{
					{WarehouseId: 1, Quantity: decimal.NewFromInt(12)},
					{WarehouseId: 2, Quantity: decimal.NewFromInt(3)},
				},
			},
		},
	}
}

func TestBuildInventoryCSVRows(t *testing.T) {
	rows := models.BuildInventoryCSVRows(sampleSnapshot())

	// header + 2 variation rows + 2 simple rows
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows; got %d", len(rows))
	}
	header := strings.Join(rows[0], ",")
	if header != "product_id,product_name,warehouse_id,warehouse_name,stock_quantity" {
		t.Fatalf("unexpected header: %s", header)
	}

	// variation row synthesizes "<product> - <values joined by comma>"
	if rows[1][1] != "T-Shirt - Red, M" {
		t.Fatalf("unexpected variable name: %q", rows[1][1])
	}
	if rows[1][0] != "101" || rows[1][2] != "1" || rows[1][4] != "5" {
		t.Fatalf("unexpected variation row: %v", rows[1])
	}

	// missing stock rows default to zero
	if rows[2][4] != "0" {
		t.Fatalf("expected zero quantity; got %q", rows[2][4])
	}
}

func TestBuildInventoryCSVRowsEmptySnapshot(t *testing.T) {
	rows := models.BuildInventoryCSVRows(&models.InventorySnapshot{})
	if len(rows) != 2 {
		t.Fatalf("expected header plus template row; got %d rows", len(rows))
	}
	if rows[1][1] != "Sample Product" {
		t.Fatalf("unexpected template row: %v", rows[1])
	}
}

func TestInventoryCSVRoundTrip(t *testing.T) {
	rows := models.BuildInventoryCSVRows(sampleSnapshot())

	var buf bytes.Buffer
	if err := models.WriteInventoryCSV(&buf, rows); err != nil {
		t.Fatalf("WriteInventoryCSV: %v", err)
	}

	parsed, badRows, err := models.ParseInventoryCSV(&buf)
	if err != nil {
		t.Fatalf("ParseInventoryCSV: %v", err)
	}
	if len(badRows) != 0 {
		t.Fatalf("unexpected bad rows: %v", badRows)
	}
	if len(parsed) != len(rows)-1 {
		t.Fatalf("expected %d parsed rows; got %d", len(rows)-1, len(parsed))
	}
	if parsed[0].ProductId != 101 || parsed[0].WarehouseName != "Yangon Warehouse" {
		t.Fatalf("unexpected first row: %+v", parsed[0])
	}
	if !parsed[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected quantity: %s", parsed[0].Quantity.String())
	}
}

func TestParseInventoryCSVBadRows(t *testing.T) {
	file := strings.Join([]string{
		"product_id,product_name,warehouse_id,warehouse_name,stock_quantity",
		"10,Coffee Mug,1,Yangon Warehouse,12",
		"abc,Broken,1,Yangon Warehouse,5",
		"20,Coffee Mug,1,Yangon Warehouse,not-a-number",
		"30,Negative,1,Yangon Warehouse,-4",
	}, "\n")

	rows, badRows, err := models.ParseInventoryCSV(strings.NewReader(file))
	if err != nil {
		t.Fatalf("ParseInventoryCSV: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 good row; got %d", len(rows))
	}
	if len(badRows) != 3 {
		t.Fatalf("expected 3 bad rows; got %d: %v", len(badRows), badRows)
	}
}

func TestParseInventoryCSVRequiresDataRow(t *testing.T) {
	header := "product_id,product_name,warehouse_id,warehouse_name,stock_quantity\n"
	if _, _, err := models.ParseInventoryCSV(strings.NewReader(header)); err == nil {
		t.Fatalf("expected error for header-only file")
	}
	if _, _, err := models.ParseInventoryCSV(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty file")
	}
}

func TestResolveWarehouse(t *testing.T) {
	warehouses := []*models.InventoryLocation{
		{ID: 1, Name: "Yangon Warehouse"},
		{ID: 2, Name: "Mandalay Warehouse"},
	}

	if w, ok := models.ResolveWarehouse(warehouses, 2, ""); !ok || w.ID != 2 {
		t.Fatalf("expected id match for 2")
	}
	// name fallback is case-insensitive
	if w, ok := models.ResolveWarehouse(warehouses, 0, "yangon warehouse"); !ok || w.ID != 1 {
		t.Fatalf("expected case-insensitive name match")
	}
	// id miss with unknown name fails
	if _, ok := models.ResolveWarehouse(warehouses, 99, "Nowhere"); ok {
		t.Fatalf("expected no match")
	}
}
