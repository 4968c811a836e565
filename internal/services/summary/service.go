// Package summary parses uploaded CSV files and computes descriptive statistics
package summary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/ternarybob/arbor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
)

// DefaultPreviewRows is the number of leading rows returned with a summary.
const DefaultPreviewRows = 20

// ErrEmptyUpload is returned when the upload has no header row.
var ErrEmptyUpload = errors.New("upload is empty")

// missingTokens are cell values read as missing rather than text.
var missingTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true, "#n/a": true, "-nan": true,
}

// Service implements SummaryService
type Service struct {
	previewRows int
	logger      arbor.ILogger
}

// NewService creates a new summary service. A non-positive previewRows uses the default.
func NewService(previewRows int, logger arbor.ILogger) *Service {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}
	return &Service{
		previewRows: previewRows,
		logger:      logger,
	}
}

// Summarize reads a CSV with a header row and describes every numeric column.
// A column is numeric when it has at least one value and every non-missing
// cell parses as a number.
func (s *Service) Summarize(r io.Reader) (*models.TableSummary, error) {
	table, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}

	summary := &models.TableSummary{
		Rows:    len(table.Rows),
		Preview: models.Table{Headers: table.Headers, Rows: table.Rows[:min(len(table.Rows), s.previewRows)]},
		Columns: []models.ColumnSummary{},
	}

	for c, name := range table.Headers {
		values, ok := numericColumn(table, c)
		if !ok {
			continue
		}
		summary.Columns = append(summary.Columns, Describe(name, values))
	}

	s.logger.Info().
		Int("rows", summary.Rows).
		Int("columns", len(table.Headers)).
		Int("numeric_columns", len(summary.Columns)).
		Msg("CSV summarized")

	return summary, nil
}

// ParseCSV reads a header row followed by data rows. Short rows are padded
// with empty cells; rows longer than the header are rejected.
func ParseCSV(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyUpload
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	table := &models.Table{Headers: uniqueHeaders(header), Rows: [][]string{}}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(record))
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// uniqueHeaders names blank headers by position and suffixes repeats with
// ".1", ".2", and so on.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for seen[name] > 0 {
			name = fmt.Sprintf("%s.%d", h, seen[h])
			seen[h]++
		}
		seen[name]++
		out[i] = name
	}
	return out
}

func numericColumn(table *models.Table, c int) ([]float64, bool) {
	values := make([]float64, 0, len(table.Rows))
	for _, row := range table.Rows {
		cell := strings.TrimSpace(row[c])
		if missingTokens[strings.ToLower(cell)] {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values = append(values, v)
	}
	return values, len(values) > 0
}

// Describe computes count, mean, sample standard deviation, extremes and
// linearly interpolated quartiles of values, which must be non-empty.
func Describe(name string, values []float64) models.ColumnSummary {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	summary := models.ColumnSummary{
		Column: name,
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Q25:    Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q75:    Quantile(sorted, 0.75),
		Max:    floats.Max(sorted),
	}
	if len(sorted) > 1 {
		summary.Std = null.FloatFrom(stat.StdDev(sorted, nil))
	}
	return summary
}

// Quantile returns the p-quantile of sorted values, interpolating linearly
// between the two closest ranks at position p*(n-1).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

var _ interfaces.SummaryService = (*Service)(nil)
