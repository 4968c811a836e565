// Package dashboard assembles the per-request result bundle
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
)

// ErrInvalidRequest is returned by Run before any fetch is attempted.
var ErrInvalidRequest = errors.New("invalid request")

// Engine implements AnalyticsEngine. It holds no per-request state, so one
// Engine serves any number of concurrent Run calls.
type Engine struct {
	prices       interfaces.TimeSeriesFetcher
	fundamentals interfaces.FundamentalsFetcher
	returns      interfaces.AnnualReturnCalculator
	logger       arbor.ILogger
	window       models.Period
	concurrent   bool
}

// Option configures the engine
type Option func(*Engine)

// WithReturnWindow sets the trailing history annual returns are computed on.
func WithReturnWindow(window models.Period) Option {
	return func(e *Engine) {
		if window != "" {
			e.window = window
		}
	}
}

// WithConcurrency runs the independent sub-fetches in parallel.
func WithConcurrency(concurrent bool) Option {
	return func(e *Engine) {
		e.concurrent = concurrent
	}
}

// NewEngine creates a new analytics engine
func NewEngine(
	prices interfaces.TimeSeriesFetcher,
	fundamentals interfaces.FundamentalsFetcher,
	returns interfaces.AnnualReturnCalculator,
	logger arbor.ILogger,
	opts ...Option,
) *Engine {
	e := &Engine{
		prices:       prices,
		fundamentals: fundamentals,
		returns:      returns,
		logger:       logger,
		window:       models.DefaultReturnWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReturnWindow reports the trailing window used for annual returns.
func (e *Engine) ReturnWindow() models.Period {
	return e.window
}

// Run validates req and produces its bundle. Each of the six sub-fetches
// (price range, profile, three statements, trailing history) is attempted
// exactly once; a failure degrades only its own field. Sequential runs fetch
// the statements through FetchStatements; concurrent runs give each statement
// its own branch. The only error returned is ErrInvalidRequest.
func (e *Engine) Run(ctx context.Context, req models.Request) (*models.ResultBundle, error) {
	req.Symbol = models.NormalizeSymbol(req.Symbol)
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	corrID := common.CorrelationID(ctx)
	if corrID == "" {
		corrID = uuid.New().String()[:8]
	}
	logger := e.logger.WithCorrelationId(corrID)
	logger.Info().
		Str("symbol", req.Symbol).
		Str("start", req.StartDate.Format(models.DateLayout)).
		Str("end", req.EndDate.Format(models.DateLayout)).
		Str("return_window", string(e.window)).
		Bool("concurrent", e.concurrent).
		Msg("Dashboard run started")

	bundle := &models.ResultBundle{Request: req}

	tasks := []task{
		{"prices", []*models.Outcome{&bundle.Prices.Outcome}, func() {
			bundle.Prices = e.prices.Fetch(ctx, req.Symbol, req.StartDate, req.EndDate)
		}},
		{"profile", []*models.Outcome{&bundle.Profile.Outcome}, func() {
			bundle.Profile = e.fundamentals.FetchProfile(ctx, req.Symbol)
		}},
		{"annual_returns", []*models.Outcome{&bundle.AnnualReturns.Outcome}, func() {
			bundle.AnnualReturns = e.annualReturns(ctx, req.Symbol)
		}},
	}

	if e.concurrent {
		// One branch per statement so the three upstream calls overlap.
		for _, kind := range models.StatementKinds {
			section := bundle.Statements.Get(kind)
			tasks = append(tasks, task{string(kind), []*models.Outcome{&section.Outcome}, func() {
				*section = e.fundamentals.FetchStatement(ctx, req.Symbol, kind)
			}})
		}

		var wg sync.WaitGroup
		for _, t := range tasks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				guard(logger, t.name, t.outcomes, t.run)
			}()
		}
		wg.Wait()
	} else {
		tasks = append(tasks, task{"statements", statementOutcomes(&bundle.Statements), func() {
			bundle.Statements = e.fundamentals.FetchStatements(ctx, req.Symbol)
		}})

		for _, t := range tasks {
			guard(logger, t.name, t.outcomes, t.run)
		}
	}

	fillEmpty(bundle)
	logOutcomes(logger, bundle)

	return bundle, nil
}

// annualReturns fetches the trailing history and folds it into per-year
// returns. The window is independent of the request's date range.
func (e *Engine) annualReturns(ctx context.Context, symbol string) models.ReturnsSection {
	history := e.prices.FetchTrailing(ctx, symbol, e.window)
	if history.Failed() {
		return models.ReturnsSection{
			Outcome: models.Outcome{Status: models.StatusFailed, Error: history.Error},
			Data:    []models.AnnualReturn{},
		}
	}

	rows := e.returns.Compute(history.Data)
	if rows == nil {
		rows = []models.AnnualReturn{}
	}
	return models.ReturnsSection{Outcome: models.Succeeded(len(rows) == 0), Data: rows}
}

// task is one sub-fetch and the bundle outcomes it owns.
type task struct {
	name     string
	outcomes []*models.Outcome
	run      func()
}

func statementOutcomes(set *models.StatementSet) []*models.Outcome {
	outcomes := make([]*models.Outcome, 0, len(models.StatementKinds))
	for _, kind := range models.StatementKinds {
		outcomes = append(outcomes, &set.Get(kind).Outcome)
	}
	return outcomes
}

// guard runs fn, converting a panic into a failed outcome for the fields that
// task owns only.
func guard(logger arbor.ILogger, name string, outcomes []*models.Outcome, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in %s: %v", name, r)
			logger.Error().Str("section", name).Err(err).Msg("Recovered from sub-fetch panic")
			for _, outcome := range outcomes {
				*outcome = models.FailedWith(err)
			}
		}
	}()
	fn()
}

// fillEmpty replaces nil data left behind by a recovered panic so every field
// of the bundle is safe to read.
func fillEmpty(b *models.ResultBundle) {
	if b.Prices.Data == nil {
		b.Prices.Data = &models.PriceSeries{Symbol: b.Request.Symbol, PriceField: models.PriceFieldClose, Bars: []models.PriceBar{}}
	}
	if b.Profile.Data == nil {
		b.Profile.Data = &models.CompanyProfile{}
	}
	for _, kind := range models.StatementKinds {
		section := b.Statements.Get(kind)
		if section.Data == nil {
			section.Data = &models.FinancialStatement{Kind: kind, Periods: []time.Time{}, Rows: []models.LineItem{}}
		}
	}
	if b.AnnualReturns.Data == nil {
		b.AnnualReturns.Data = []models.AnnualReturn{}
	}
}

func logOutcomes(logger arbor.ILogger, b *models.ResultBundle) {
	logger.Info().
		Str("symbol", b.Request.Symbol).
		Str("prices", string(b.Prices.Status)).
		Str("profile", string(b.Profile.Status)).
		Str("balance_sheet", string(b.Statements.BalanceSheet.Status)).
		Str("income_statement", string(b.Statements.IncomeStatement.Status)).
		Str("cash_flow", string(b.Statements.CashFlow.Status)).
		Str("annual_returns", string(b.AnnualReturns.Status)).
		Int("bars", len(b.Prices.Data.Bars)).
		Msg("Dashboard run complete")
}

var _ interfaces.AnalyticsEngine = (*Engine)(nil)
