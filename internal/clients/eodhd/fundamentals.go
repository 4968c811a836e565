package eodhd

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/tidwall/gjson"

	"github.com/bobmcallan/stockdash/internal/models"
)

// profileSections limits the fundamentals payload to what the profile reads.
const profileSections = "General,Highlights,Valuation,Technicals"

// statementFilters maps each statement to its fundamentals filter path.
var statementFilters = map[models.StatementKind]string{
	models.BalanceSheet:    "Financials::Balance_Sheet",
	models.IncomeStatement: "Financials::Income_Statement",
	models.CashFlow:        "Financials::Cash_Flow",
}

// statementMetaKeys are per-period fields that are not line items.
var statementMetaKeys = map[string]bool{
	"date":            true,
	"filing_date":     true,
	"currency_symbol": true,
}

// GetProfile retrieves company metadata. Previous close is not part of the
// fundamentals payload and comes from the real-time endpoint; if that lookup
// fails the field is left absent.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	params := url.Values{}
	params.Set("filter", profileSections)

	body, err := c.get(ctx, "/fundamentals/"+ticker(symbol), params)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to decode fundamentals: invalid JSON")
	}

	doc := gjson.ParseBytes(body)
	profile := &models.CompanyProfile{
		Name:             jsonString(doc.Get("General.Name")),
		Sector:           jsonString(doc.Get("General.Sector")),
		Industry:         jsonString(doc.Get("General.Industry")),
		MarketCap:        jsonFloat(doc.Get("Highlights.MarketCapitalization")),
		TrailingPE:       jsonFloat(doc.Get("Valuation.TrailingPE")),
		FiftyTwoWeekHigh: jsonFloat(doc.Get("Technicals.52WeekHigh")),
		FiftyTwoWeekLow:  jsonFloat(doc.Get("Technicals.52WeekLow")),
	}

	prev, err := c.getPreviousClose(ctx, symbol)
	if err != nil {
		c.logger.Warn().Str("symbol", symbol).Err(err).Msg("Previous close unavailable")
	} else {
		profile.PreviousClose = prev
	}

	return profile, nil
}

// getPreviousClose reads previousClose from the real-time quote endpoint.
func (c *Client) getPreviousClose(ctx context.Context, symbol string) (null.Float, error) {
	body, err := c.get(ctx, "/real-time/"+ticker(symbol), nil)
	if err != nil {
		return null.Float{}, err
	}
	return jsonFloat(gjson.GetBytes(body, "previousClose")), nil
}

// GetStatement retrieves the yearly figures of one financial statement.
// A payload without yearly data yields an empty statement, not an error.
func (c *Client) GetStatement(ctx context.Context, symbol string, kind models.StatementKind) (*models.FinancialStatement, error) {
	filter, ok := statementFilters[kind]
	if !ok {
		return nil, fmt.Errorf("unknown statement kind %q", kind)
	}

	params := url.Values{}
	params.Set("filter", filter)

	body, err := c.get(ctx, "/fundamentals/"+ticker(symbol), params)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to decode %s: invalid JSON", kind)
	}

	return parseStatement(kind, gjson.ParseBytes(body)), nil
}

// parseStatement converts {"yearly": {"2023-09-30": {...}}} into a line-item
// table. Periods are newest first; rows keep the order items first appear in.
func parseStatement(kind models.StatementKind, doc gjson.Result) *models.FinancialStatement {
	stmt := &models.FinancialStatement{
		Kind:     kind,
		Currency: doc.Get("currency_symbol").String(),
		Periods:  []time.Time{},
		Rows:     []models.LineItem{},
	}

	yearly := doc.Get("yearly")
	if !yearly.IsObject() {
		return stmt
	}

	type period struct {
		date   time.Time
		values gjson.Result
	}
	var periods []period
	yearly.ForEach(func(key, value gjson.Result) bool {
		date, err := time.Parse(models.DateLayout, key.String())
		if err == nil && value.IsObject() {
			periods = append(periods, period{date: date, values: value})
		}
		return true
	})
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].date.After(periods[j].date) })

	var items []string
	seen := map[string]bool{}
	for _, p := range periods {
		stmt.Periods = append(stmt.Periods, p.date)
		p.values.ForEach(func(key, _ gjson.Result) bool {
			name := key.String()
			if !statementMetaKeys[name] && !seen[name] {
				seen[name] = true
				items = append(items, name)
			}
			return true
		})
	}

	for _, item := range items {
		row := models.LineItem{Item: item, Values: make([]null.Float, len(periods))}
		for i, p := range periods {
			row.Values[i] = jsonFloat(p.values.Get(gjson.Escape(item)))
		}
		stmt.Rows = append(stmt.Rows, row)
	}

	return stmt
}

// jsonFloat reads a number that may be encoded as a JSON number or string.
// Missing, null, placeholder and non-finite values are absent rather than zero.
func jsonFloat(r gjson.Result) null.Float {
	switch r.Type {
	case gjson.Number:
		return null.FloatFrom(r.Num)
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		switch strings.ToUpper(s) {
		case "", "NA", "N/A", "NONE", "NULL":
			return null.Float{}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return null.Float{}
		}
		return null.FloatFrom(f)
	}
	return null.Float{}
}

// jsonString reads a non-empty string; anything else is absent.
func jsonString(r gjson.Result) null.String {
	if r.Type != gjson.String || strings.TrimSpace(r.Str) == "" {
		return null.String{}
	}
	return null.StringFrom(r.Str)
}
