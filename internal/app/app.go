package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/bobmcallan/stockdash/internal/clients/eodhd"
	"github.com/bobmcallan/stockdash/internal/clients/yahoo"
	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
	"github.com/bobmcallan/stockdash/internal/services/charts"
	"github.com/bobmcallan/stockdash/internal/services/dashboard"
	"github.com/bobmcallan/stockdash/internal/services/fundamentals"
	"github.com/bobmcallan/stockdash/internal/services/returns"
	"github.com/bobmcallan/stockdash/internal/services/summary"
	"github.com/bobmcallan/stockdash/internal/services/timeseries"
)

// ErrFundamentalsUnavailable is reported for every fundamentals fetch when no
// EODHD API key is configured.
var ErrFundamentalsUnavailable = errors.New("fundamentals unavailable: EODHD API key not configured")

// App holds all initialized clients and services.
type App struct {
	Config               *common.Config
	Logger               arbor.ILogger
	PriceProvider        interfaces.PriceProvider
	FundamentalsProvider interfaces.FundamentalsProvider
	TimeSeries           interfaces.TimeSeriesFetcher
	Fundamentals         interfaces.FundamentalsFetcher
	Returns              interfaces.AnnualReturnCalculator
	Engine               interfaces.AnalyticsEngine
	Summary              interfaces.SummaryService
	Charts               interfaces.ChartRenderer
	StartupTime          time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes every client and service.
// configPath may be empty, in which case STOCKDASH_CONFIG, then
// stockdash.toml beside the binary, then config/stockdash.toml are tried.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("STOCKDASH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "stockdash.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockdash.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig wires clients and services from an already loaded config.
func NewAppWithConfig(config *common.Config, logger arbor.ILogger) (*App, error) {
	startupStart := time.Now()

	window := models.Period(config.Market.ReturnWindow)
	if _, err := window.Start(startupStart); err != nil {
		return nil, fmt.Errorf("market.return_window: %w", err)
	}

	for _, missing := range config.ValidateRequired() {
		logger.Warn().Str("setting", missing).Msg("Required setting missing - fundamentals will be unavailable")
	}

	var eodhdClient *eodhd.Client
	if config.Clients.EODHD.APIKey != "" {
		eodhdClient = eodhd.NewClient(config.Clients.EODHD.APIKey,
			eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
			eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
		)
	}

	priceProvider := selectPriceProvider(config, eodhdClient, logger)

	var fundamentalsProvider interfaces.FundamentalsProvider = unavailableFundamentals{}
	if eodhdClient != nil {
		fundamentalsProvider = eodhdClient
	}

	timeSeriesService := timeseries.NewService(priceProvider, logger)
	fundamentalsService := fundamentals.NewService(fundamentalsProvider, logger)
	calculator := returns.NewCalculator()
	engine := dashboard.NewEngine(timeSeriesService, fundamentalsService, calculator, logger,
		dashboard.WithReturnWindow(window),
		dashboard.WithConcurrency(config.Engine.Concurrent),
	)

	a := &App{
		Config:               config,
		Logger:               logger,
		PriceProvider:        priceProvider,
		FundamentalsProvider: fundamentalsProvider,
		TimeSeries:           timeSeriesService,
		Fundamentals:         fundamentalsService,
		Returns:              calculator,
		Engine:               engine,
		Summary:              summary.NewService(config.Upload.PreviewRows, logger),
		Charts:               charts.NewRenderer(),
		StartupTime:          startupStart,
	}

	logger.Info().
		Str("price_source", priceProvider.Name()).
		Str("return_window", string(window)).
		Bool("concurrent", config.Engine.Concurrent).
		Msg("App initialized")

	return a, nil
}

// selectPriceProvider honours market.price_source, falling back to Yahoo when
// EODHD is requested without an API key.
func selectPriceProvider(config *common.Config, eodhdClient *eodhd.Client, logger arbor.ILogger) interfaces.PriceProvider {
	if config.Market.PriceSource == common.PriceSourceEODHD && eodhdClient != nil {
		return eodhdClient
	}
	if config.Market.PriceSource == common.PriceSourceEODHD {
		logger.Warn().Msg("EODHD API key not configured - using Yahoo for prices")
	}
	return yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)
}

// unavailableFundamentals fails every call so the affected sections degrade
// while prices and returns still render.
type unavailableFundamentals struct{}

func (unavailableFundamentals) GetProfile(context.Context, string) (*models.CompanyProfile, error) {
	return nil, ErrFundamentalsUnavailable
}

func (unavailableFundamentals) GetStatement(context.Context, string, models.StatementKind) (*models.FinancialStatement, error) {
	return nil, ErrFundamentalsUnavailable
}
