package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/guregu/null/v6"

	"github.com/bobmcallan/stockdash/internal/models"
)

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string     `json:"date"`
	Open          null.Float `json:"open"`
	High          null.Float `json:"high"`
	Low           null.Float `json:"low"`
	Close         null.Float `json:"close"`
	AdjustedClose null.Float `json:"adjusted_close"`
	Volume        null.Float `json:"volume"`
}

// eodColumns is the flat column set EODHD reports.
var eodColumns = []models.ColumnKey{
	{"open"}, {"high"}, {"low"}, {"close"}, {"adjusted_close"}, {"volume"},
}

// GetDailyFrame retrieves daily end-of-day bars between from and to.
func (c *Client) GetDailyFrame(ctx context.Context, symbol string, from, to time.Time) (*models.Frame, error) {
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	if !from.IsZero() {
		params.Set("from", from.Format(models.DateLayout))
	}
	if !to.IsZero() {
		params.Set("to", to.Format(models.DateLayout))
	}

	path := "/eod/" + ticker(symbol)
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var bars []eodBarResponse
	if err := json.Unmarshal(body, &bars); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	frame := models.NewFrame(eodColumns...)
	for _, bar := range bars {
		date, err := time.Parse(models.DateLayout, bar.Date)
		if err != nil {
			c.logger.Debug().Str("symbol", symbol).Str("date", bar.Date).Msg("Skipping EOD bar with unparseable date")
			continue
		}
		frame.AppendRow(date, bar.Open, bar.High, bar.Low, bar.Close, bar.AdjustedClose, bar.Volume)
	}

	return frame, nil
}

// GetTrailingFrame retrieves daily bars for period ending today.
func (c *Client) GetTrailingFrame(ctx context.Context, symbol string, period models.Period) (*models.Frame, error) {
	now := c.now()
	from, err := period.Start(now)
	if err != nil {
		return nil, err
	}
	return c.GetDailyFrame(ctx, symbol, from, now)
}
