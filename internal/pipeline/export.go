package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"excel2web/internal"
	"excel2web/internal/util"
)

func ExportResultsToXLSX(rows []internal.ResultExportRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"row_no", "query", "price_text", "source", "origin_url"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.RowNo)
		set(2, row.Query)
		set(3, row.PriceText)
		set(4, row.Source)
		set(5, derefString(row.OriginURL))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// ToExportRows numbers results from 1 in input order.
func ToExportRows(results []internal.PriceResult) []internal.ResultExportRow {
	out := make([]internal.ResultExportRow, 0, len(results))
	for i, res := range results {
		row := internal.ResultExportRow{
			RowNo:     i + 1,
			Query:     res.Query,
			PriceText: res.PriceText,
			Source:    string(res.Source),
		}
		if res.OriginURL != "" {
			row.OriginURL = util.StringPtr(res.OriginURL)
		}
		out = append(out, row)
	}
	return out
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
