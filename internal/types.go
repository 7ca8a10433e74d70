package internal

import "time"

type QueryMode string

const (
	ModeName QueryMode = "name"
	ModeCode QueryMode = "code"
)

type PriceSource string

const (
	SourceLocal    PriceSource = "local"
	SourceRemote   PriceSource = "remote"
	SourceNotFound PriceSource = "not_found"
	SourceError    PriceSource = "error"
)

// Sentinel price texts written in place of a price.
const (
	PriceNotFound = "Not Found"
	PriceError    = "Error"
)

type PriceQuery struct {
	Value string
	Mode  QueryMode
}

// PriceResult carries the price text exactly as found at its source.
// Callers must not parse PriceText; Source tells sentinels apart.
type PriceResult struct {
	Query     string      `json:"query"`
	PriceText string      `json:"priceText"`
	Source    PriceSource `json:"source"`
	OriginURL string      `json:"originUrl,omitempty"`
}

type RunSummary struct {
	RunID    string
	Mode     QueryMode
	Input    string
	Output   string
	Rows     int
	Counts   map[PriceSource]int
	Duration time.Duration
}

type ResultExportRow struct {
	RowNo     int
	Query     string
	PriceText string
	Source    string
	OriginURL *string
}

func ParseQueryMode(v string) (QueryMode, bool) {
	switch QueryMode(v) {
	case ModeName, ModeCode:
		return QueryMode(v), true
	default:
		return "", false
	}
}
