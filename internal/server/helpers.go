package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/stockdash/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code. The payload is
// encoded before any header is sent; an encode failure becomes a 500.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "Failed to encode response", Code: "encode_failed"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(append(body, '\n'))
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WritePNG writes raw PNG bytes.
func WritePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// Defaults applied when dashboard query parameters are omitted.
const (
	DefaultSymbol    = "AAPL"
	DefaultStartDate = "2023-01-01"
)

// ParseDashboardRequest reads symbol, start and end from the query string.
// Missing values take the defaults; end defaults to today.
func ParseDashboardRequest(r *http.Request, now time.Time) (models.Request, error) {
	q := r.URL.Query()

	symbol := strings.TrimSpace(q.Get("symbol"))
	if symbol == "" {
		symbol = DefaultSymbol
	}

	start, err := parseDateParam(q.Get("start"), DefaultStartDate)
	if err != nil {
		return models.Request{}, fmt.Errorf("start: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end, err := parseDateParam(q.Get("end"), today.Format(models.DateLayout))
	if err != nil {
		return models.Request{}, fmt.Errorf("end: %w", err)
	}

	return models.Request{
		Symbol:    models.NormalizeSymbol(symbol),
		StartDate: start,
		EndDate:   end,
	}, nil
}

func parseDateParam(value, fallback string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}
