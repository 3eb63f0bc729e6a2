package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/finance-tracker-be/internal/services"
)

// EventHandler handles HTTP requests related to the audit trail.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get recent activity/events.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}
	limit = min(limit, 100)

	events, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error fetching events"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
