package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bobmcallan/stockdash/internal/models"
	"github.com/bobmcallan/stockdash/internal/services/charts"
	"github.com/bobmcallan/stockdash/internal/services/dashboard"
)

// --- Dashboard handlers ---

// handleDashboard handles GET /api/dashboard?symbol=&start=&end=.
// Partial failures still return 200; each section reports its own outcome.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	req, err := ParseDashboardRequest(r, s.now())
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}

	bundle, err := s.app.Engine.Run(r.Context(), req)
	if err != nil {
		if errors.Is(err, dashboard.ErrInvalidRequest) {
			WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_request")
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error building dashboard: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, NewDashboardView(bundle))
}

func (s *Server) handlePriceChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, s.app.Charts.RenderPrice)
}

func (s *Server) handleVolumeChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, s.app.Charts.RenderVolume)
}

// serveChart fetches the requested range and renders it as a PNG. Only the
// price series is fetched; fundamentals are not touched.
func (s *Server) serveChart(w http.ResponseWriter, r *http.Request, render func(*models.PriceSeries) ([]byte, error)) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	req, err := ParseDashboardRequest(r, s.now())
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}

	section := s.app.TimeSeries.Fetch(r.Context(), req.Symbol, req.StartDate, req.EndDate)
	switch {
	case section.Failed():
		WriteError(w, http.StatusBadGateway, "Error fetching data: "+section.Error)
		return
	case section.Data.Empty():
		WriteError(w, http.StatusNotFound, "No data found for the selected period.")
		return
	}

	png, err := render(section.Data)
	if err != nil {
		if errors.Is(err, charts.ErrNotEnoughData) {
			WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error().Str("symbol", req.Symbol).Err(err).Msg("Chart render failed")
		WriteError(w, http.StatusInternalServerError, "Chart render failed")
		return
	}

	WritePNG(w, png)
}
