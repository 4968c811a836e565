// Package timeseries retrieves and normalizes daily price series
package timeseries

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
)

// ErrNoCloseColumn is returned when an upstream frame carries no close prices.
var ErrNoCloseColumn = errors.New("price data has no close column")

// ErrInvalidRange is returned when the start date falls after the end date.
var ErrInvalidRange = errors.New("start date is after end date")

// fieldAliases maps canonical column names to the spellings upstreams use,
// compared after lower-casing and stripping spaces and underscores.
var fieldAliases = map[string][]string{
	"open":     {"open"},
	"high":     {"high"},
	"low":      {"low"},
	"close":    {"close"},
	"adjclose": {"adjclose", "adjustedclose"},
	"volume":   {"volume"},
}

// Service implements TimeSeriesFetcher
type Service struct {
	provider interfaces.PriceProvider
	logger   arbor.ILogger
}

// NewService creates a new time series service
func NewService(provider interfaces.PriceProvider, logger arbor.ILogger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// Fetch retrieves daily bars for symbol between start and end. It never
// returns an error: failures come back as an empty series with a failed outcome.
func (s *Service) Fetch(ctx context.Context, symbol string, start, end time.Time) models.PriceSection {
	symbol = models.NormalizeSymbol(symbol)
	if start.After(end) {
		return s.failed(symbol, ErrInvalidRange)
	}

	frame, err := s.provider.GetDailyFrame(ctx, symbol, start, end)
	if err != nil {
		return s.failed(symbol, err)
	}
	return s.build(symbol, frame)
}

// FetchTrailing retrieves daily bars for a trailing period ending today, with
// the same contract as Fetch.
func (s *Service) FetchTrailing(ctx context.Context, symbol string, period models.Period) models.PriceSection {
	symbol = models.NormalizeSymbol(symbol)

	frame, err := s.provider.GetTrailingFrame(ctx, symbol, period)
	if err != nil {
		return s.failed(symbol, err)
	}
	return s.build(symbol, frame)
}

func (s *Service) build(symbol string, frame *models.Frame) models.PriceSection {
	series, err := Normalize(symbol, frame)
	if err != nil {
		return s.failed(symbol, err)
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Str("provider", s.provider.Name()).
		Int("bars", len(series.Bars)).
		Str("price_field", series.PriceField).
		Msg("Price series fetched")

	return models.PriceSection{Outcome: models.Succeeded(series.Empty()), Data: series}
}

func (s *Service) failed(symbol string, err error) models.PriceSection {
	s.logger.Warn().
		Str("symbol", symbol).
		Str("provider", s.provider.Name()).
		Err(err).
		Msg("Price fetch failed")

	return models.PriceSection{
		Outcome: models.FailedWith(err),
		Data:    emptySeries(symbol),
	}
}

func emptySeries(symbol string) *models.PriceSeries {
	return &models.PriceSeries{Symbol: symbol, PriceField: models.PriceFieldClose, Bars: []models.PriceBar{}}
}

// Normalize flattens frame to single-level columns and converts it into an
// ascending, duplicate-free price series. Rows without a close are dropped;
// for repeated dates the last row wins. The pricing field is adjusted close
// when that column exists, otherwise close.
func Normalize(symbol string, frame *models.Frame) (*models.PriceSeries, error) {
	series := emptySeries(symbol)
	if frame == nil {
		return series, nil
	}

	flat := frame.Flatten()
	cols := locateColumns(flat)
	closeCol, ok := cols["close"]
	if !ok {
		if flat.Len() == 0 && len(flat.Columns) == 0 {
			return series, nil
		}
		return nil, fmt.Errorf("%w (columns: %s)", ErrNoCloseColumn, strings.Join(flat.ColumnNames(), ", "))
	}

	adjCol, hasAdj := cols["adjclose"]
	if hasAdj {
		series.PriceField = models.PriceFieldAdjClose
	}

	byDate := make(map[time.Time]int, flat.Len())
	for r, date := range flat.Index {
		closeVal := flat.Cells[closeCol][r]
		if !closeVal.Valid {
			continue
		}
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

		bar := models.PriceBar{
			Date:   date,
			Open:   cellValue(flat, cols, "open", r),
			High:   cellValue(flat, cols, "high", r),
			Low:    cellValue(flat, cols, "low", r),
			Close:  closeVal.Float64,
			Volume: int64(cellValue(flat, cols, "volume", r)),
		}
		if hasAdj {
			bar.AdjClose = flat.Cells[adjCol][r]
		}

		if i, dup := byDate[date]; dup {
			series.Bars[i] = bar
			continue
		}
		byDate[date] = len(series.Bars)
		series.Bars = append(series.Bars, bar)
	}

	sort.SliceStable(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})

	return series, nil
}

// locateColumns maps canonical field names to column positions in a flat frame.
func locateColumns(flat *models.Frame) map[string]int {
	cols := make(map[string]int)
	for c, key := range flat.Columns {
		name := canonical(key.Top())
		for field, aliases := range fieldAliases {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, alias := range aliases {
				if name == alias {
					cols[field] = c
				}
			}
		}
	}
	return cols
}

func canonical(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "_", "")
}

func cellValue(flat *models.Frame, cols map[string]int, field string, row int) float64 {
	c, ok := cols[field]
	if !ok {
		return 0
	}
	return flat.Cells[c][row].Float64
}

var _ interfaces.TimeSeriesFetcher = (*Service)(nil)
