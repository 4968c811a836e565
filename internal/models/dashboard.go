package models

import (
	"github.com/guregu/null/v6"
)

// Status is the outcome of one sub-fetch within a dashboard request.
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Outcome records how a bundle field was produced. Error is set only when
// Status is StatusFailed.
type Outcome struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// OK reports whether the field holds data.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Failed reports whether retrieval failed.
func (o Outcome) Failed() bool { return o.Status == StatusFailed }

// Succeeded builds an ok or empty outcome.
func Succeeded(empty bool) Outcome {
	if empty {
		return Outcome{Status: StatusEmpty}
	}
	return Outcome{Status: StatusOK}
}

// FailedWith builds a failed outcome from err.
func FailedWith(err error) Outcome {
	o := Outcome{Status: StatusFailed}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// Section pairs a bundle field with its outcome.
type Section[T any] struct {
	Outcome
	Data T `json:"data"`
}

// PriceSection is the price-series field of a bundle.
type PriceSection = Section[*PriceSeries]

// ProfileSection is the company-profile field of a bundle.
type ProfileSection = Section[*CompanyProfile]

// StatementSection is one financial-statement field of a bundle.
type StatementSection = Section[*FinancialStatement]

// ReturnsSection is the annual-returns field of a bundle.
type ReturnsSection = Section[[]AnnualReturn]

// StatementSet holds the three statements, each with its own outcome.
type StatementSet struct {
	BalanceSheet    StatementSection `json:"balance_sheet"`
	IncomeStatement StatementSection `json:"income_statement"`
	CashFlow        StatementSection `json:"cash_flow"`
}

// Get returns the section for kind.
func (s *StatementSet) Get(kind StatementKind) *StatementSection {
	switch kind {
	case BalanceSheet:
		return &s.BalanceSheet
	case IncomeStatement:
		return &s.IncomeStatement
	case CashFlow:
		return &s.CashFlow
	}
	return nil
}

// AnnualReturn is one calendar year's first/last close and percentage change.
// ReturnPct is null when FirstClose is zero.
type AnnualReturn struct {
	Year       int        `json:"year"`
	FirstClose float64    `json:"first_close"`
	LastClose  float64    `json:"last_close"`
	ReturnPct  null.Float `json:"return_pct"`
}

// ResultBundle is everything the engine produced for one request. Fields fail
// or come back empty independently of one another.
type ResultBundle struct {
	Request       Request        `json:"request"`
	Prices        PriceSection   `json:"prices"`
	Profile       ProfileSection `json:"profile"`
	Statements    StatementSet   `json:"statements"`
	AnnualReturns ReturnsSection `json:"annual_returns"`
}
