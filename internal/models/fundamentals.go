package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// CompanyProfile is point-in-time company metadata. Every field is optional:
// a field the upstream did not report stays invalid rather than zero.
type CompanyProfile struct {
	Name             null.String `json:"company_name"`
	Sector           null.String `json:"sector"`
	Industry         null.String `json:"industry"`
	MarketCap        null.Float  `json:"market_cap"`
	TrailingPE       null.Float  `json:"trailing_pe"`
	PreviousClose    null.Float  `json:"previous_close"`
	FiftyTwoWeekHigh null.Float  `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  null.Float  `json:"fifty_two_week_low"`
}

// ProfileAttribute is one labelled profile value for key-value display.
type ProfileAttribute struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Attributes lists the profile in display order. Absent values are nil.
func (p *CompanyProfile) Attributes() []ProfileAttribute {
	return []ProfileAttribute{
		{"Company Name", stringValue(p.Name)},
		{"Sector", stringValue(p.Sector)},
		{"Industry", stringValue(p.Industry)},
		{"Market Cap", floatValue(p.MarketCap)},
		{"PE Ratio", floatValue(p.TrailingPE)},
		{"Previous Close", floatValue(p.PreviousClose)},
		{"52 Week High", floatValue(p.FiftyTwoWeekHigh)},
		{"52 Week Low", floatValue(p.FiftyTwoWeekLow)},
	}
}

// IsEmpty reports whether no attribute is present.
func (p *CompanyProfile) IsEmpty() bool {
	for _, a := range p.Attributes() {
		if a.Value != nil {
			return false
		}
	}
	return true
}

func stringValue(s null.String) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

func floatValue(f null.Float) any {
	if !f.Valid {
		return nil
	}
	return f.Float64
}

// StatementKind identifies one of the three financial statements.
type StatementKind string

const (
	BalanceSheet    StatementKind = "balance_sheet"
	IncomeStatement StatementKind = "income_statement"
	CashFlow        StatementKind = "cash_flow"
)

// StatementKinds lists the statements in display order.
var StatementKinds = []StatementKind{BalanceSheet, IncomeStatement, CashFlow}

// Title is the human name of the statement.
func (k StatementKind) Title() string {
	switch k {
	case BalanceSheet:
		return "Balance Sheet"
	case IncomeStatement:
		return "Income Statement"
	case CashFlow:
		return "Cash Flow Statement"
	}
	return string(k)
}

// LineItem is one statement row; Values align with FinancialStatement.Periods.
type LineItem struct {
	Item   string       `json:"item"`
	Values []null.Float `json:"values"`
}

// FinancialStatement is a line-item table over reporting periods, newest period first.
type FinancialStatement struct {
	Kind     StatementKind `json:"kind"`
	Currency string        `json:"currency,omitempty"`
	Periods  []time.Time   `json:"periods"`
	Rows     []LineItem    `json:"rows"`
}

// Empty reports whether the statement carries no data.
func (s *FinancialStatement) Empty() bool {
	return s == nil || len(s.Periods) == 0 || len(s.Rows) == 0
}
