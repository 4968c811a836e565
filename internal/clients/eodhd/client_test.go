package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/bobmcallan/stockdash/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestGetDailyFrame_ParsesBars(t *testing.T) {
	var capturedPath, capturedFrom, capturedTo, capturedToken string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedFrom = r.URL.Query().Get("from")
		capturedTo = r.URL.Query().Get("to")
		capturedToken = r.URL.Query().Get("api_token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2024-01-02","open":10,"high":12,"low":9,"close":11,"adjusted_close":10.5,"volume":1000},
			{"date":"2024-01-03","open":11,"high":13,"low":10,"close":12,"adjusted_close":null,"volume":2000},
			{"date":"bad-date","open":1,"high":1,"low":1,"close":1,"adjusted_close":1,"volume":1}
		]`))
	})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	frame, err := client.GetDailyFrame(context.Background(), "AAPL", from, to)
	require.NoError(t, err)

	assert.Equal(t, "/eod/AAPL.US", capturedPath)
	assert.Equal(t, "2024-01-01", capturedFrom)
	assert.Equal(t, "2024-01-31", capturedTo)
	assert.Equal(t, "test-key", capturedToken)

	require.Equal(t, 2, frame.Len())
	assert.False(t, frame.IsMultiLevel())
	assert.Equal(t, []string{"open", "high", "low", "close", "adjusted_close", "volume"}, frame.ColumnNames())
	assert.Equal(t, 11.0, frame.Column("close")[0].Float64)
	assert.True(t, frame.Column("adjusted_close")[0].Valid)
	assert.False(t, frame.Column("adjusted_close")[1].Valid)
	assert.Equal(t, 2000.0, frame.Column("volume")[1].Float64)
}

func TestGetDailyFrame_KeepsExchangeSuffix(t *testing.T) {
	var capturedPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		w.Write([]byte(`[]`))
	})

	frame, err := client.GetDailyFrame(context.Background(), "BHP.AU", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "/eod/BHP.AU", capturedPath)
	assert.Equal(t, 0, frame.Len())
}

func TestGetDailyFrame_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Ticker Not Found.", http.StatusNotFound)
	})

	_, err := client.GetDailyFrame(context.Background(), "NOPE", time.Time{}, time.Time{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.NotFound())
	assert.Equal(t, "/eod/NOPE.US", apiErr.Endpoint)
	assert.Contains(t, apiErr.Error(), "Ticker Not Found.")
}

func TestGetDailyFrame_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"`))
	})

	_, err := client.GetDailyFrame(context.Background(), "AAPL", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestGetTrailingFrame_UsesClock(t *testing.T) {
	var capturedFrom, capturedTo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedFrom = r.URL.Query().Get("from")
		capturedTo = r.URL.Query().Get("to")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	client := NewClient("k", WithBaseURL(srv.URL), WithClock(func() time.Time { return now }))

	_, err := client.GetTrailingFrame(context.Background(), "AAPL", "5y")
	require.NoError(t, err)
	assert.Equal(t, "2021-10-17", capturedFrom)
	assert.Equal(t, "2026-10-17", capturedTo)

	_, err = client.GetTrailingFrame(context.Background(), "AAPL", "forever")
	assert.Error(t, err)
}

func TestGetProfile_PresenceAware(t *testing.T) {
	var filters []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/fundamentals/"):
			filters = append(filters, r.URL.Query().Get("filter"))
			w.Write([]byte(`{
				"General": {"Name": "Apple Inc", "Sector": "Technology", "Industry": ""},
				"Highlights": {"MarketCapitalization": 3000000000000},
				"Valuation": {"TrailingPE": "29.5"},
				"Technicals": {"52WeekHigh": 199.62, "52WeekLow": null}
			}`))
		case strings.HasPrefix(r.URL.Path, "/real-time/"):
			w.Write([]byte(`{"code":"AAPL.US","previousClose":189.98}`))
		default:
			http.NotFound(w, r)
		}
	})

	profile, err := client.GetProfile(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, []string{profileSections}, filters)
	assert.Equal(t, "Apple Inc", profile.Name.String)
	assert.Equal(t, "Technology", profile.Sector.String)
	assert.False(t, profile.Industry.Valid, "empty string is absent")
	assert.Equal(t, 3e12, profile.MarketCap.Float64)
	assert.Equal(t, 29.5, profile.TrailingPE.Float64)
	assert.Equal(t, 189.98, profile.PreviousClose.Float64)
	assert.Equal(t, 199.62, profile.FiftyTwoWeekHigh.Float64)
	assert.False(t, profile.FiftyTwoWeekLow.Valid, "null is absent")
}

func TestGetProfile_QuoteFailureLeavesPreviousCloseAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/real-time/") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"General": {"Name": "Apple Inc"}}`))
	})

	profile, err := client.GetProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", profile.Name.String)
	assert.False(t, profile.PreviousClose.Valid)
	assert.False(t, profile.MarketCap.Valid)
}

func TestGetProfile_FundamentalsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := client.GetProfile(context.Background(), "AAPL")
	require.Error(t, err)
}

func TestGetStatement_ParsesYearly(t *testing.T) {
	var capturedFilter string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		capturedFilter = r.URL.Query().Get("filter")
		w.Write([]byte(`{
			"currency_symbol": "USD",
			"quarterly": {"2024-03-31": {"date": "2024-03-31", "totalAssets": "1"}},
			"yearly": {
				"2022-09-30": {"date": "2022-09-30", "filing_date": "2022-10-28", "currency_symbol": "USD",
					"totalAssets": "352755000000.00", "cash": "23646000000.00"},
				"2023-09-30": {"date": "2023-09-30", "filing_date": "2023-11-03", "currency_symbol": "USD",
					"totalAssets": "352583000000.00", "cash": null, "goodWill": "N/A"}
			}
		}`))
	})

	stmt, err := client.GetStatement(context.Background(), "AAPL", models.BalanceSheet)
	require.NoError(t, err)

	assert.Equal(t, "Financials::Balance_Sheet", capturedFilter)
	assert.Equal(t, models.BalanceSheet, stmt.Kind)
	assert.Equal(t, "USD", stmt.Currency)
	require.Len(t, stmt.Periods, 2)
	assert.Equal(t, 2023, stmt.Periods[0].Year(), "newest period first")
	assert.Equal(t, 2022, stmt.Periods[1].Year())

	require.Len(t, stmt.Rows, 3)
	assert.Equal(t, "totalAssets", stmt.Rows[0].Item)
	assert.Equal(t, 352583000000.0, stmt.Rows[0].Values[0].Float64)
	assert.Equal(t, 352755000000.0, stmt.Rows[0].Values[1].Float64)

	assert.Equal(t, "cash", stmt.Rows[1].Item)
	assert.False(t, stmt.Rows[1].Values[0].Valid)
	assert.Equal(t, 23646000000.0, stmt.Rows[1].Values[1].Float64)

	assert.Equal(t, "goodWill", stmt.Rows[2].Item)
	assert.False(t, stmt.Rows[2].Values[0].Valid)
	assert.False(t, stmt.Rows[2].Values[1].Valid, "item missing from period is absent")
	assert.False(t, stmt.Empty())
}

func TestGetStatement_NonFiniteValuesAreAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"yearly": {
				"2023-09-30": {"date": "2023-09-30",
					"netIncome": "NaN", "totalRevenue": "Infinity", "ebit": "-inf", "taxProvision": "16741000000.00"}
			}
		}`))
	})

	stmt, err := client.GetStatement(context.Background(), "AAPL", models.IncomeStatement)
	require.NoError(t, err)
	require.Len(t, stmt.Rows, 4)

	for _, row := range stmt.Rows[:3] {
		assert.False(t, row.Values[0].Valid, row.Item)
	}
	assert.Equal(t, "taxProvision", stmt.Rows[3].Item)
	assert.Equal(t, 16741000000.0, stmt.Rows[3].Values[0].Float64)

	_, err = json.Marshal(stmt)
	assert.NoError(t, err)
}

func TestJSONFloat(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
		want  float64
	}{
		{`12.5`, true, 12.5},
		{`"29.5"`, true, 29.5},
		{`"-3"`, true, -3},
		{`"NaN"`, false, 0},
		{`"nan"`, false, 0},
		{`"Infinity"`, false, 0},
		{`"inf"`, false, 0},
		{`"-Inf"`, false, 0},
		{`"N/A"`, false, 0},
		{`""`, false, 0},
		{`null`, false, 0},
		{`"abc"`, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := jsonFloat(gjson.Parse(tt.raw))
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Float64)
			}
		})
	}
}

func TestGetProfile_NonFiniteValuesAreAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/real-time/") {
			w.Write([]byte(`{"previousClose":"NaN"}`))
			return
		}
		w.Write([]byte(`{"General": {"Name": "Apple Inc"}, "Valuation": {"TrailingPE": "Infinity"}}`))
	})

	profile, err := client.GetProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.False(t, profile.TrailingPE.Valid)
	assert.False(t, profile.PreviousClose.Valid)

	_, err = json.Marshal(profile)
	assert.NoError(t, err)
}

func TestGetStatement_NoYearlyIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	stmt, err := client.GetStatement(context.Background(), "SPY", models.CashFlow)
	require.NoError(t, err)
	assert.True(t, stmt.Empty())
	assert.Equal(t, models.CashFlow, stmt.Kind)
}

func TestGetStatement_UnknownKind(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.GetStatement(context.Background(), "AAPL", models.StatementKind("equity"))
	assert.Error(t, err)
}

func TestGetStatement_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"yearly":`))
	})

	_, err := client.GetStatement(context.Background(), "AAPL", models.IncomeStatement)
	assert.Error(t, err)
}
