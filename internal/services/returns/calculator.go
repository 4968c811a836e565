// Package returns computes calendar-year returns from a daily price series
package returns

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Calculator implements AnnualReturnCalculator. It is stateless.
type Calculator struct{}

// NewCalculator creates a new annual return calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

type yearSpan struct {
	firstDate, lastDate   time.Time
	firstPrice, lastPrice float64
}

// Compute groups the series by calendar year and reports the first and last
// price of each year with the percentage change between them. Years appear in
// ascending order; years without trading days are not emitted. Prices come
// from the series' pricing field.
func (c *Calculator) Compute(series *models.PriceSeries) []models.AnnualReturn {
	out := []models.AnnualReturn{}
	if series.Empty() {
		return out
	}

	spans := make(map[int]*yearSpan)
	for _, bar := range series.Bars {
		price := series.Price(bar)
		span, ok := spans[bar.Date.Year()]
		if !ok {
			spans[bar.Date.Year()] = &yearSpan{
				firstDate: bar.Date, lastDate: bar.Date,
				firstPrice: price, lastPrice: price,
			}
			continue
		}
		if bar.Date.Before(span.firstDate) {
			span.firstDate, span.firstPrice = bar.Date, price
		}
		if !bar.Date.Before(span.lastDate) {
			span.lastDate, span.lastPrice = bar.Date, price
		}
	}

	years := make([]int, 0, len(spans))
	for y := range spans {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, y := range years {
		span := spans[y]
		out = append(out, models.AnnualReturn{
			Year:       y,
			FirstClose: span.firstPrice,
			LastClose:  span.lastPrice,
			ReturnPct:  PercentChange(span.firstPrice, span.lastPrice),
		})
	}
	return out
}

// PercentChange returns (last-first)/first*100 at full precision. It is null
// when first is zero.
func PercentChange(first, last float64) null.Float {
	if first == 0 {
		return null.Float{}
	}
	f := decimal.NewFromFloat(first)
	l := decimal.NewFromFloat(last)
	pct, _ := l.Sub(f).Div(f).Mul(hundred).Float64()
	return null.FloatFrom(pct)
}

var _ interfaces.AnnualReturnCalculator = (*Calculator)(nil)
