package models

import "github.com/guregu/null/v6"

// Table is a generic parsed tabular upload. Every row has len(Headers) cells.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ColumnSummary holds descriptive statistics for one numeric column.
// Std is the sample standard deviation, null when fewer than two values exist.
type ColumnSummary struct {
	Column string     `json:"column"`
	Count  int        `json:"count"`
	Mean   float64    `json:"mean"`
	Std    null.Float `json:"std"`
	Min    float64    `json:"min"`
	Q25    float64    `json:"25%"`
	Median float64    `json:"50%"`
	Q75    float64    `json:"75%"`
	Max    float64    `json:"max"`
}

// TableSummary is the result of summarizing an upload.
type TableSummary struct {
	Rows    int             `json:"rows"`
	Preview Table           `json:"preview"`
	Columns []ColumnSummary `json:"columns"`
}
