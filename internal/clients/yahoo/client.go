// Package yahoo provides a price client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// quoteFields maps chart indicator arrays to the column names the frame uses.
var quoteFields = []struct {
	path   string
	column string
}{
	{"open", "Open"},
	{"high", "High"},
	{"low", "Low"},
	{"close", "Close"},
	{"volume", "Volume"},
}

// Client implements PriceProvider using the public chart endpoint. No API key
// is required.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo chart client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the provider
func (c *Client) Name() string { return "yahoo" }

// GetDailyFrame retrieves daily bars between from and to, inclusive.
func (c *Client) GetDailyFrame(ctx context.Context, symbol string, from, to time.Time) (*models.Frame, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("events", "div,split")
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	// period2 is exclusive upstream
	params.Set("period2", strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10))
	return c.chart(ctx, symbol, params)
}

// GetTrailingFrame retrieves daily bars for a trailing range such as "5y".
func (c *Client) GetTrailingFrame(ctx context.Context, symbol string, period models.Period) (*models.Frame, error) {
	if _, err := period.Start(time.Now()); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("events", "div,split")
	params.Set("range", string(period))
	return c.chart(ctx, symbol, params)
}

// chart calls the chart endpoint and converts the nested indicator arrays into
// a frame keyed by (field, symbol), the way multi-ticker downloads are shaped.
func (c *Client) chart(ctx context.Context, symbol string, params url.Values) (*models.Frame, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("yahoo: status %d, invalid JSON body", resp.StatusCode)
	}

	doc := gjson.ParseBytes(body)
	if desc := doc.Get("chart.error.description"); desc.Exists() && desc.String() != "" {
		return nil, fmt.Errorf("yahoo api error: %s", desc.String())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}

	return parseChart(symbol, doc.Get("chart.result.0")), nil
}

// parseChart builds the frame from one chart result. A missing result or
// empty timestamp array yields an empty frame.
func parseChart(symbol string, result gjson.Result) *models.Frame {
	if name := result.Get("meta.symbol").String(); name != "" {
		symbol = name
	}

	quote := result.Get("indicators.quote.0")
	adj := result.Get("indicators.adjclose.0.adjclose")

	var columns []models.ColumnKey
	var arrays []gjson.Result
	for _, f := range quoteFields {
		columns = append(columns, models.ColumnKey{f.column, symbol})
		arrays = append(arrays, quote.Get(f.path))
		if f.path == "close" && adj.IsArray() {
			columns = append(columns, models.ColumnKey{"Adj Close", symbol})
			arrays = append(arrays, adj)
		}
	}

	frame := models.NewFrame(columns...)
	loc := exchangeLocation(result.Get("meta"))

	cols := make([][]gjson.Result, len(arrays))
	for i, a := range arrays {
		cols[i] = a.Array()
	}

	for r, ts := range result.Get("timestamp").Array() {
		local := time.Unix(ts.Int(), 0).In(loc)
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

		values := make([]null.Float, len(cols))
		for i, col := range cols {
			if r < len(col) && col[r].Type == gjson.Number {
				values[i] = null.FloatFrom(col[r].Num)
			}
		}
		frame.AppendRow(date, values...)
	}

	return frame
}

// exchangeLocation resolves the exchange timezone so timestamps map to the
// trading date, falling back to the reported GMT offset.
func exchangeLocation(meta gjson.Result) *time.Location {
	if name := meta.Get("exchangeTimezoneName").String(); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if off := meta.Get("gmtoffset"); off.Exists() {
		return time.FixedZone(meta.Get("timezone").String(), int(off.Int()))
	}
	return time.UTC
}

var _ interfaces.PriceProvider = (*Client)(nil)
