package models

import (
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// ColumnKey names a frame column. Flat frames use a single level; some
// upstreams group columns per field per symbol, e.g. {"Close", "AAPL"}.
type ColumnKey []string

// Top returns the first level of the key.
func (k ColumnKey) Top() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// String joins the levels with a slash.
func (k ColumnKey) String() string {
	return strings.Join(k, "/")
}

// Frame is a raw date-indexed table as returned by an upstream provider.
// Cells[c][r] holds column c at Index[r].
type Frame struct {
	Index   []time.Time
	Columns []ColumnKey
	Cells   [][]null.Float
}

// NewFrame creates an empty frame with the given columns.
func NewFrame(columns ...ColumnKey) *Frame {
	return &Frame{
		Columns: columns,
		Cells:   make([][]null.Float, len(columns)),
	}
}

// AppendRow adds a row; values are positional against Columns.
func (f *Frame) AppendRow(date time.Time, values ...null.Float) {
	f.Index = append(f.Index, date)
	for c := range f.Columns {
		v := null.Float{}
		if c < len(values) {
			v = values[c]
		}
		f.Cells[c] = append(f.Cells[c], v)
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Index)
}

// IsMultiLevel reports whether any column key has more than one level.
func (f *Frame) IsMultiLevel() bool {
	for _, k := range f.Columns {
		if len(k) > 1 {
			return true
		}
	}
	return false
}

// Flatten collapses every column key to its top level. When two columns share
// a top-level name only the first is kept, so the result never has duplicates.
// Flat frames pass through with the same guarantee.
func (f *Frame) Flatten() *Frame {
	out := &Frame{Index: append([]time.Time(nil), f.Index...)}
	seen := make(map[string]bool, len(f.Columns))
	for c, key := range f.Columns {
		name := key.Top()
		if seen[name] {
			continue
		}
		seen[name] = true
		out.Columns = append(out.Columns, ColumnKey{name})
		out.Cells = append(out.Cells, append([]null.Float(nil), f.Cells[c]...))
	}
	return out
}

// ColumnNames returns the joined name of every column.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, k := range f.Columns {
		names[i] = k.String()
	}
	return names
}

// Column looks up a column by name, matched case-insensitively against the
// joined key. Returns nil when absent.
func (f *Frame) Column(name string) []null.Float {
	for c, k := range f.Columns {
		if strings.EqualFold(k.String(), name) {
			return f.Cells[c]
		}
	}
	return nil
}
