package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// MessageResponse is the body of every error and of plain confirmations.
type MessageResponse struct {
	Message string                `json:"message"`
	Errors  []services.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// decodeJSON reads the request body into dst, answering 400 itself when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// principal returns the caller attached by auth.Authenticate.
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "User is not authenticated")
	}
	return p, ok
}

// errorMessages holds the client-facing text for one operation.
type errorMessages struct {
	notFound  string
	forbidden string
	server    string
}

// writeError maps a service error onto a status code. Unexpected errors are logged
// and answered with a generic message so no internal detail reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, msgs errorMessages) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Validation failed", Errors: verr.Fields})
	case errors.Is(err, services.ErrAlreadyRegistered):
		writeMessage(w, http.StatusBadRequest, "User already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, "Invalid email or password")
	case errors.Is(err, services.ErrInvalidRole):
		writeMessage(w, http.StatusBadRequest, "Invalid role specified")
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, orDefault(msgs.notFound, "Not found"))
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, orDefault(msgs.forbidden, "Forbidden"))
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(msgs.server)
		writeMessage(w, http.StatusInternalServerError, orDefault(msgs.server, "Server error"))
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
