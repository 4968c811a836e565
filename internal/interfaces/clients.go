// Package interfaces defines service contracts for stockdash
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/stockdash/internal/models"
)

// PriceProvider supplies raw daily price tables. The returned frame may use
// single- or multi-level column keys; callers normalize it.
type PriceProvider interface {
	// Name identifies the provider in logs
	Name() string

	// GetDailyFrame retrieves daily bars between from and to, inclusive
	GetDailyFrame(ctx context.Context, symbol string, from, to time.Time) (*models.Frame, error)

	// GetTrailingFrame retrieves daily bars for a trailing period ending today
	GetTrailingFrame(ctx context.Context, symbol string, period models.Period) (*models.Frame, error)
}

// FundamentalsProvider supplies company metadata and financial statements.
// Each method is an independent upstream call.
type FundamentalsProvider interface {
	// GetProfile retrieves point-in-time company metadata
	GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)

	// GetStatement retrieves one financial statement (yearly periods)
	GetStatement(ctx context.Context, symbol string, kind models.StatementKind) (*models.FinancialStatement, error)
}
