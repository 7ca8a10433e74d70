package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"excel2web/internal/util"
)

type IndexOptions struct {
	// Sheet is a sheet name or 0-based index; empty means the first sheet.
	Sheet       string
	NameColumn  string
	PriceColumn string
	CodeColumn  string
	Normalize   func(string) string
	Logger      *slog.Logger
}

type IndexStats struct {
	FilesScanned int
	FilesUsed    int
	FilesSkipped int
	Duplicates   int
}

// BuildIndex reads every *.xlsx in dir in filename order. A key defined by
// more than one file keeps the value from the file that sorts first.
// A missing dir yields an empty index.
func BuildIndex(dir string, opts IndexOptions) (*Index, IndexStats, error) {
	idx := NewIndex(opts.Normalize)
	stats := IndexStats{}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	if strings.TrimSpace(dir) == "" {
		return idx, stats, nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return idx, stats, nil
	}

	files, err := listWorkbooks(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("list master data dir %s: %w", dir, err)
	}

	for _, path := range files {
		stats.FilesScanned++
		used, dups, err := idx.loadWorkbook(path, opts)
		if err != nil {
			log.Debug("master data file skipped", "file", path, "error", err)
			stats.FilesSkipped++
			continue
		}
		if !used {
			log.Debug("master data file skipped", "file", path, "reason", "missing columns")
			stats.FilesSkipped++
			continue
		}
		stats.FilesUsed++
		stats.Duplicates += dups
	}

	return idx, stats, nil
}

func listWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "~$") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".xlsx") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// loadWorkbook reports used=false when the name or price header is absent.
func (idx *Index) loadWorkbook(path string, opts IndexOptions) (used bool, duplicates int, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return false, 0, err
	}
	defer f.Close()

	sheet, err := util.ResolveSheet(f, opts.Sheet)
	if err != nil {
		return false, 0, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return false, 0, err
	}
	if len(rows) == 0 {
		return false, 0, nil
	}

	header := rows[0]
	nameIdx := util.HeaderIndex(header, opts.NameColumn)
	priceIdx := util.HeaderIndex(header, opts.PriceColumn)
	if nameIdx < 0 || priceIdx < 0 {
		return false, 0, nil
	}
	codeIdx := util.HeaderIndex(header, opts.CodeColumn)

	for _, row := range rows[1:] {
		price := util.CellAt(row, priceIdx)
		if price == "" {
			continue
		}
		if name := util.CellAt(row, nameIdx); name != "" {
			if !idx.addName(name, price) {
				duplicates++
			}
		}
		if codeIdx >= 0 {
			idx.addCode(util.CellAt(row, codeIdx), price)
		}
	}
	return true, duplicates, nil
}
