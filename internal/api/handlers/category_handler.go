package handlers

import (
	"net/http"

	"github.com/isdelr/finance-tracker-be/internal/services"
)

// CategoryHandler serves the reference categories.
type CategoryHandler struct {
	service services.CategoryServiceProvider
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service services.CategoryServiceProvider) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error fetching categories"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}
