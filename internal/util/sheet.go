package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned when a workbook has no sheet matching the request.
var ErrNoSheet = errors.New("sheet not found")

// ResolveSheet picks a sheet by 0-based index or by name. An integer-like
// value is always an index, even when a sheet carries that name. An empty
// value selects the first sheet.
func ResolveSheet(f *excelize.File, sheet string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook is empty: %w", ErrNoSheet)
	}

	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return sheets[0], nil
	}
	if idx, err := strconv.Atoi(sheet); err == nil {
		if idx < 0 || idx >= len(sheets) {
			return "", fmt.Errorf("sheet index %d out of range (%d sheets): %w", idx, len(sheets), ErrNoSheet)
		}
		return sheets[idx], nil
	}
	for _, name := range sheets {
		if name == sheet {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoSheet, sheet)
}

func CellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func HeaderIndex(header []string, label string) int {
	label = strings.TrimSpace(label)
	if label == "" {
		return -1
	}
	for i, h := range header {
		if strings.TrimSpace(h) == label {
			return i
		}
	}
	return -1
}
