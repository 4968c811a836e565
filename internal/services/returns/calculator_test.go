package returns

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockdash/internal/models"
)

func bar(y int, m time.Month, d int, close float64) models.PriceBar {
	return models.PriceBar{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Close: close}
}

func closeSeries(bars ...models.PriceBar) *models.PriceSeries {
	return &models.PriceSeries{Symbol: "TEST", PriceField: models.PriceFieldClose, Bars: bars}
}

func TestCompute_TwoYears(t *testing.T) {
	series := closeSeries(
		bar(2022, 1, 3, 100),
		bar(2022, 6, 1, 130),
		bar(2022, 12, 30, 150),
		bar(2023, 1, 3, 150),
		bar(2023, 7, 3, 135),
		bar(2023, 12, 29, 120),
	)

	got := NewCalculator().Compute(series)

	want := []models.AnnualReturn{
		{Year: 2022, FirstClose: 100, LastClose: 150, ReturnPct: null.FloatFrom(50)},
		{Year: 2023, FirstClose: 150, LastClose: 120, ReturnPct: null.FloatFrom(-20)},
	}
	assert.Equal(t, want, got)
}

func TestCompute_SingleDayYear(t *testing.T) {
	got := NewCalculator().Compute(closeSeries(bar(2024, 3, 1, 42)))

	require.Len(t, got, 1)
	assert.Equal(t, 42.0, got[0].FirstClose)
	assert.Equal(t, 42.0, got[0].LastClose)
	assert.Equal(t, 0.0, got[0].ReturnPct.Float64)
	assert.True(t, got[0].ReturnPct.Valid)
}

func TestCompute_ZeroFirstCloseIsNull(t *testing.T) {
	got := NewCalculator().Compute(closeSeries(bar(2021, 1, 4, 0), bar(2021, 12, 31, 5)))

	require.Len(t, got, 1)
	assert.False(t, got[0].ReturnPct.Valid)
	assert.Equal(t, 5.0, got[0].LastClose)
}

func TestCompute_EmptyHistory(t *testing.T) {
	calc := NewCalculator()

	got := calc.Compute(closeSeries())
	require.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, calc.Compute(nil))
}

func TestCompute_GapYearsOmitted(t *testing.T) {
	got := NewCalculator().Compute(closeSeries(bar(2019, 5, 1, 10), bar(2021, 5, 1, 20)))

	require.Len(t, got, 2)
	assert.Equal(t, 2019, got[0].Year)
	assert.Equal(t, 2021, got[1].Year)
}

func TestCompute_UnorderedInput(t *testing.T) {
	got := NewCalculator().Compute(closeSeries(
		bar(2023, 12, 29, 120),
		bar(2022, 1, 3, 100),
		bar(2023, 1, 3, 150),
		bar(2022, 12, 30, 150),
	))

	require.Len(t, got, 2)
	assert.Equal(t, 2022, got[0].Year)
	assert.Equal(t, 50.0, got[0].ReturnPct.Float64)
	assert.Equal(t, -20.0, got[1].ReturnPct.Float64)
}

func TestCompute_UsesAdjustedClose(t *testing.T) {
	series := &models.PriceSeries{
		PriceField: models.PriceFieldAdjClose,
		Bars: []models.PriceBar{
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 200, AdjClose: null.FloatFrom(100)},
			{Date: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), Close: 220, AdjClose: null.FloatFrom(110)},
		},
	}

	got := NewCalculator().Compute(series)
	require.Len(t, got, 1)
	assert.Equal(t, 100.0, got[0].FirstClose)
	assert.Equal(t, 10.0, got[0].ReturnPct.Float64)
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name        string
		first, last float64
		want        null.Float
	}{
		{"gain", 100, 150, null.FloatFrom(50)},
		{"loss", 150, 120, null.FloatFrom(-20)},
		{"flat", 7, 7, null.FloatFrom(0)},
		{"thirds", 3, 4, null.FloatFrom(100.0 / 3)},
		{"small move", 187.25, 187.31, null.FloatFrom(0.06 / 187.25 * 100)},
		{"zero base", 0, 10, null.Float{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentChange(tt.first, tt.last)
			require.Equal(t, tt.want.Valid, got.Valid)
			assert.InDelta(t, tt.want.Float64, got.Float64, 1e-9)
		})
	}
}

func TestPercentChange_KeepsFullPrecision(t *testing.T) {
	got := PercentChange(3, 4)
	require.True(t, got.Valid)
	assert.NotEqual(t, 33.3333, got.Float64)
	assert.InDelta(t, 33.333333333, got.Float64, 1e-8)
}
