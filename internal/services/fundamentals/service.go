// Package fundamentals retrieves company profiles and financial statements
package fundamentals

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
)

// Service implements FundamentalsFetcher. Every fetch is isolated: an error
// degrades only the item it belongs to.
type Service struct {
	provider interfaces.FundamentalsProvider
	logger   arbor.ILogger
}

// NewService creates a new fundamentals service
func NewService(provider interfaces.FundamentalsProvider, logger arbor.ILogger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// FetchProfile retrieves company metadata. On failure the section carries an
// empty profile and a failed outcome.
func (s *Service) FetchProfile(ctx context.Context, symbol string) (section models.ProfileSection) {
	symbol = models.NormalizeSymbol(symbol)
	section.Data = &models.CompanyProfile{}
	defer recoverSection(&section.Outcome, s.logger, symbol, "profile")

	profile, err := s.provider.GetProfile(ctx, symbol)
	if err != nil {
		s.logger.Warn().Str("symbol", symbol).Str("section", "profile").Err(err).Msg("Profile fetch failed")
		return models.ProfileSection{Outcome: models.FailedWith(err), Data: &models.CompanyProfile{}}
	}
	if profile == nil {
		profile = &models.CompanyProfile{}
	}

	return models.ProfileSection{Outcome: models.Succeeded(profile.IsEmpty()), Data: profile}
}

// FetchStatements retrieves the three statements one after another. Each is
// fetched exactly once and fails on its own.
func (s *Service) FetchStatements(ctx context.Context, symbol string) models.StatementSet {
	var set models.StatementSet
	for _, kind := range models.StatementKinds {
		*set.Get(kind) = s.FetchStatement(ctx, symbol, kind)
	}
	return set
}

// FetchStatement retrieves one statement. A statement with no periods or no
// rows is empty, not failed.
func (s *Service) FetchStatement(ctx context.Context, symbol string, kind models.StatementKind) (section models.StatementSection) {
	symbol = models.NormalizeSymbol(symbol)
	section.Data = emptyStatement(kind)
	defer recoverSection(&section.Outcome, s.logger, symbol, string(kind))

	stmt, err := s.provider.GetStatement(ctx, symbol, kind)
	if err != nil {
		s.logger.Warn().Str("symbol", symbol).Str("section", string(kind)).Err(err).Msg("Statement fetch failed")
		return models.StatementSection{Outcome: models.FailedWith(err), Data: emptyStatement(kind)}
	}
	if stmt == nil {
		stmt = emptyStatement(kind)
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Str("section", string(kind)).
		Int("periods", len(stmt.Periods)).
		Int("rows", len(stmt.Rows)).
		Msg("Statement fetched")

	return models.StatementSection{Outcome: models.Succeeded(stmt.Empty()), Data: stmt}
}

func emptyStatement(kind models.StatementKind) *models.FinancialStatement {
	return &models.FinancialStatement{Kind: kind, Periods: []time.Time{}, Rows: []models.LineItem{}}
}

// recoverSection turns a provider panic into a failed outcome so a single
// malformed payload cannot take down sibling fetches.
func recoverSection(outcome *models.Outcome, logger arbor.ILogger, symbol, section string) {
	if r := recover(); r != nil {
		err := fmt.Errorf("panic: %v", r)
		logger.Error().Str("symbol", symbol).Str("section", section).Err(err).Msg("Recovered from fetch panic")
		*outcome = models.FailedWith(err)
	}
}

var _ interfaces.FundamentalsFetcher = (*Service)(nil)
