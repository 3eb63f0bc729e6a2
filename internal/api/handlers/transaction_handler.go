package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/services"
)

// TransactionHandler handles HTTP requests for transactions.
type TransactionHandler struct {
	service services.TransactionServiceProvider
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(service services.TransactionServiceProvider) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// List handles GET /api/transactions with optional filters and paging.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	// Unparseable paging values fall back to the defaults.
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.service.List(r.Context(), p, models.TransactionFilter{
		Category:    q.Get("category"),
		Description: q.Get("description"),
		StartDate:   q.Get("startDate"),
		EndDate:     q.Get("endDate"),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error fetching transactions"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Create handles POST /api/transactions.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var payload services.TransactionInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	t, err := h.service.Create(r.Context(), p, payload)
	if err != nil {
		writeError(w, r, err, errorMessages{
			forbidden: "Forbidden: You are not allowed to create transactions",
			server:    "Server error creating transaction",
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"transaction": t})
}

// Update handles PATCH /api/transactions/{id}.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var payload services.TransactionPatch
	if !decodeJSON(w, r, &payload) {
		return
	}

	t, err := h.service.Update(r.Context(), p, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, r, err, errorMessages{
			notFound:  "Transaction not found",
			forbidden: "Forbidden: You are not allowed to update this transaction",
			server:    "Server error updating transaction",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transaction": t})
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, errorMessages{
			notFound:  "Transaction not found",
			forbidden: "Forbidden: You are not allowed to delete this transaction",
			server:    "Server error deleting transaction",
		})
		return
	}

	writeMessage(w, http.StatusOK, "Transaction deleted successfully")
}
