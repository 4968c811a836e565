package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/bobmcallan/stockdash/internal/models"
)

// TimeSeriesFetcher retrieves and normalizes price series. It never returns
// an error; failures are reported on the section's outcome.
type TimeSeriesFetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) models.PriceSection
	FetchTrailing(ctx context.Context, symbol string, period models.Period) models.PriceSection
}

// FundamentalsFetcher retrieves the company profile and statements, each in isolation.
type FundamentalsFetcher interface {
	FetchProfile(ctx context.Context, symbol string) models.ProfileSection
	FetchStatements(ctx context.Context, symbol string) models.StatementSet
	FetchStatement(ctx context.Context, symbol string, kind models.StatementKind) models.StatementSection
}

// AnnualReturnCalculator derives per-calendar-year returns from a price series.
type AnnualReturnCalculator interface {
	Compute(series *models.PriceSeries) []models.AnnualReturn
}

// AnalyticsEngine assembles one result bundle per request.
type AnalyticsEngine interface {
	Run(ctx context.Context, req models.Request) (*models.ResultBundle, error)
}

// SummaryService parses tabular uploads and computes descriptive statistics.
type SummaryService interface {
	Summarize(r io.Reader) (*models.TableSummary, error)
}

// ChartRenderer renders a bundle's price series as PNG images.
type ChartRenderer interface {
	RenderPrice(series *models.PriceSeries) ([]byte, error)
	RenderVolume(series *models.PriceSeries) ([]byte, error)
}
