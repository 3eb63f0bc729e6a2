package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for user administration.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// RolePayload is the body of a role update.
type RolePayload struct {
	Role string `json:"role"`
}

// List handles GET /api/users/profile.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error fetching users"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// UpdateRole handles PUT /api/users/profile/{id}.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var payload RolePayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	id := chi.URLParam(r, "id")
	user, err := h.service.UpdateRole(r.Context(), p, id, payload.Role)
	if err != nil {
		writeError(w, r, err, errorMessages{notFound: "User not found", server: "Server error updating user role"})
		return
	}

	log.Info().Str("user_id", id).Str("role", string(user.Role)).Str("by", p.UserID).Msg("User role updated")
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
