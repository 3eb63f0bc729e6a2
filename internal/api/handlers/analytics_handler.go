package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/finance-tracker-be/internal/charts"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AnalyticsHandler serves the aggregated views of transactions.
type AnalyticsHandler struct {
	service services.AnalyticsServiceProvider
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(service services.AnalyticsServiceProvider) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Monthly handles GET /api/analytics/monthly?year=.
func (h *AnalyticsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	year, err := services.ParseYear(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, r, err, errorMessages{})
		return
	}

	months, err := h.service.Monthly(r.Context(), p, year)
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error fetching monthly analytics"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"months": months})
}

// Category handles GET /api/analytics/category?startDate=&endDate=.
func (h *AnalyticsHandler) Category(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	categories, err := h.service.CategoryBreakdown(r.Context(), p, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error fetching category breakdown"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// Trends handles GET /api/analytics/trends.
func (h *AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	trends, err := h.service.Trends(r.Context(), p)
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error fetching trends"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"trends": trends})
}

// Summary handles GET /api/analytics/summary, the three views in one response.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	year, err := services.ParseYear(q.Get("year"))
	if err != nil {
		writeError(w, r, err, errorMessages{})
		return
	}

	summary, err := h.service.Summary(r.Context(), p, year, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error fetching analytics summary"})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// TrendsChart renders the trends as a PNG line chart.
func (h *AnalyticsHandler) TrendsChart(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	trends, err := h.service.Trends(r.Context(), p)
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error fetching trends"})
		return
	}
	writePNG(w, r, func() ([]byte, error) { return charts.TrendsPNG(trends) })
}

// CategoryChart renders the expense breakdown as a PNG pie chart.
func (h *AnalyticsHandler) CategoryChart(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	categories, err := h.service.CategoryBreakdown(r.Context(), p, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error fetching category breakdown"})
		return
	}
	writePNG(w, r, func() ([]byte, error) { return charts.CategoryPNG(categories) })
}

func writePNG(w http.ResponseWriter, r *http.Request, render func() ([]byte, error)) {
	png, err := render()
	if errors.Is(err, charts.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to render chart")
		writeMessage(w, http.StatusInternalServerError, "Server error rendering chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
