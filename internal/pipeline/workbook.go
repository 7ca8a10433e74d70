package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"excel2web/internal"
	"excel2web/internal/util"
)

type WorkbookOptions struct {
	// Sheet is a sheet name or 0-based index; empty means the first sheet.
	Sheet string
	// Column is the 0-based query column; results go to Column+1.
	Column int
}

// ReadColumn returns one value per sheet row, "" for rows without a cell.
func ReadColumn(f *excelize.File, opts WorkbookOptions) (string, []string, error) {
	if opts.Column < 0 {
		return "", nil, fmt.Errorf("column must be >= 0, got %d", opts.Column)
	}
	sheet, err := util.ResolveSheet(f, opts.Sheet)
	if err != nil {
		return "", nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", nil, err
	}

	values := make([]string, 0, len(rows))
	for _, row := range rows {
		value := ""
		if opts.Column < len(row) {
			value = row[opts.Column]
		}
		values = append(values, value)
	}
	return sheet, values, nil
}

func WriteResults(f *excelize.File, sheet string, column int, results []internal.PriceResult) error {
	for i, res := range results {
		cell, err := excelize.CoordinatesToCellName(column+2, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, res.PriceText); err != nil {
			return err
		}
	}
	return nil
}

// ProcessWorkbook resolves every row of the query column and saves a copy of
// the input workbook with price texts in the adjacent column.
func ProcessWorkbook(ctx context.Context, input, output string, opts WorkbookOptions, resolver *Resolver) (internal.RunSummary, []internal.PriceResult, error) {
	start := time.Now()
	summary := internal.RunSummary{
		RunID:  uuid.NewString(),
		Mode:   resolver.Mode(),
		Input:  input,
		Output: output,
		Counts: map[internal.PriceSource]int{},
	}

	f, err := excelize.OpenFile(input)
	if err != nil {
		return summary, nil, fmt.Errorf("open input workbook: %w", err)
	}
	defer f.Close()

	sheet, values, err := ReadColumn(f, opts)
	if err != nil {
		return summary, nil, fmt.Errorf("read input workbook: %w", err)
	}

	results := resolver.Resolve(ctx, values)
	for _, res := range results {
		summary.Counts[res.Source]++
	}
	summary.Rows = len(results)

	if err := WriteResults(f, sheet, opts.Column, results); err != nil {
		return summary, results, fmt.Errorf("write results: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return summary, results, err
	}
	if err := f.SaveAs(output); err != nil {
		return summary, results, fmt.Errorf("save output workbook: %w", err)
	}

	summary.Duration = time.Since(start)
	return summary, results, nil
}
