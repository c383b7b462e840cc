package reports

import (
	"context"
	"fmt"
	"io"

	"bitbucket.org/mmdatafocus/marketplace_backend/models"
	"github.com/xuri/excelize/v2"
)

// ExportInventoryExcel writes the current stock snapshot as an XLSX workbook.
// Same rows as the CSV export, one sheet.
func ExportInventoryExcel(ctx context.Context, w io.Writer) error {

	snapshot, err := models.LoadInventorySnapshot(ctx)
	if err != nil {
		return err
	}
	rows := models.BuildInventoryCSVRows(snapshot)

	f := excelize.NewFile()
	sheetName := "Inventory"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for rowNo, row := range rows {
		col := 'A'
		for _, value := range row {
			f.SetCellValue(sheetName, string(col)+fmt.Sprint(rowNo+1), value)
			col++
		}
	}

	return f.Write(w)
}
