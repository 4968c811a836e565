package server

import (
	"github.com/bobmcallan/stockdash/internal/models"
	"github.com/bobmcallan/stockdash/internal/services/charts"
)

// Notice levels, mirroring how the dashboard styles each message.
const (
	NoticeInfo    = "info"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a user-facing message attached to one dashboard section.
type Notice struct {
	Section string `json:"section"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// sectionMessages holds the failure and empty wording for each section.
var sectionMessages = map[string]struct{ failed, empty string }{
	"profile":                      {"Error fetching company info.", "No company info available."},
	string(models.BalanceSheet):    {"Error fetching balance sheet.", "No balance sheet data available."},
	string(models.IncomeStatement): {"Error fetching income statement.", "No income statement data available."},
	string(models.CashFlow):        {"Error fetching cash flow statement.", "No cash flow data available."},
	"annual_returns":               {"Error fetching annual returns.", "No historical data to calculate annual returns."},
}

// DashboardView is the JSON payload of GET /api/dashboard: the bundle plus
// the display strings a client needs to render it.
type DashboardView struct {
	*models.ResultBundle
	Heading     string                    `json:"heading"`
	PriceTitle  string                    `json:"price_title"`
	VolumeTitle string                    `json:"volume_title"`
	CompanyInfo []models.ProfileAttribute `json:"company_info"`
	Notices     []Notice                  `json:"notices"`
}

// NewDashboardView derives display strings and notices from a bundle.
func NewDashboardView(bundle *models.ResultBundle) *DashboardView {
	view := &DashboardView{
		ResultBundle: bundle,
		Heading:      "Stock Data for " + bundle.Request.Symbol,
		PriceTitle:   charts.PriceTitle(bundle.Prices.Data),
		VolumeTitle:  charts.VolumeTitle(bundle.Prices.Data),
		CompanyInfo:  bundle.Profile.Data.Attributes(),
		Notices:      []Notice{},
	}

	switch bundle.Prices.Status {
	case models.StatusFailed:
		view.Notices = append(view.Notices, Notice{"prices", NoticeError, "Error fetching data: " + bundle.Prices.Error})
	case models.StatusEmpty:
		view.Notices = append(view.Notices, Notice{"prices", NoticeWarning, "No data found for the selected period."})
	}

	view.addNotice("profile", bundle.Profile.Outcome)
	for _, kind := range models.StatementKinds {
		view.addNotice(string(kind), bundle.Statements.Get(kind).Outcome)
	}
	view.addNotice("annual_returns", bundle.AnnualReturns.Outcome)

	return view
}

func (v *DashboardView) addNotice(section string, outcome models.Outcome) {
	msgs := sectionMessages[section]
	switch outcome.Status {
	case models.StatusFailed:
		v.Notices = append(v.Notices, Notice{section, NoticeError, msgs.failed})
	case models.StatusEmpty:
		v.Notices = append(v.Notices, Notice{section, NoticeInfo, msgs.empty})
	}
}
