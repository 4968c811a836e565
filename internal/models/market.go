// Package models defines data structures for stockdash
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/guregu/null/v6"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DateLayout is the wire format for trading dates.
const DateLayout = "2006-01-02"

// Pricing fields a PriceSeries can be charted and measured on.
const (
	PriceFieldAdjClose = "adjusted_close"
	PriceFieldClose    = "close"
)

// Request identifies one dashboard invocation.
type Request struct {
	Symbol    string    `json:"symbol" validate:"required,max=32"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
}

// Validate checks the request's struct tags: a symbol is present and the
// end date does not precede the start date.
func (r Request) Validate() error {
	return validate.Struct(r)
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// PriceBar is one trading day of OHLCV data.
type PriceBar struct {
	Date     time.Time  `json:"date"`
	Open     float64    `json:"open"`
	High     float64    `json:"high"`
	Low      float64    `json:"low"`
	Close    float64    `json:"close"`
	AdjClose null.Float `json:"adjusted_close"`
	Volume   int64      `json:"volume"`
}

// PriceSeries is a normalized daily series, ascending by date with unique dates.
// PriceField records which column downstream consumers price on.
type PriceSeries struct {
	Symbol     string     `json:"symbol"`
	PriceField string     `json:"price_field"`
	Bars       []PriceBar `json:"bars"`
}

// Empty reports whether the series has no bars.
func (s *PriceSeries) Empty() bool {
	return s == nil || len(s.Bars) == 0
}

// Price returns the bar's value for the series' pricing field.
// A bar missing its adjusted close falls back to close.
func (s *PriceSeries) Price(bar PriceBar) float64 {
	if s.PriceField == PriceFieldAdjClose && bar.AdjClose.Valid {
		return bar.AdjClose.Float64
	}
	return bar.Close
}

// PriceLabel is the display name of the pricing field.
func (s *PriceSeries) PriceLabel() string {
	if s.PriceField == PriceFieldAdjClose {
		return "Adj Close"
	}
	return "Close"
}

// Period is a trailing history window such as "5y", "6mo" or "30d".
type Period string

// DefaultReturnWindow is the trailing window annual returns are computed over.
const DefaultReturnWindow Period = "5y"

// Start returns the first date covered by the period when it ends at now.
func (p Period) Start(now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(string(p)))
	var unit string
	for _, suffix := range []string{"mo", "y", "d"} {
		if strings.HasSuffix(s, suffix) {
			unit = suffix
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	n, err := strconv.Atoi(s)
	if unit == "" || err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid period %q", string(p))
	}
	switch unit {
	case "y":
		return now.AddDate(-n, 0, 0), nil
	case "mo":
		return now.AddDate(0, -n, 0), nil
	default:
		return now.AddDate(0, 0, -n), nil
	}
}
