package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and the current-user lookup.
type AuthHandler struct {
	service services.AuthServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.AuthServiceProvider) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload services.RegisterInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	res, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, errorMessages{server: "Server error during registration"})
		return
	}

	log.Info().Str("user_id", res.User.ID).Str("role", string(res.User.Role)).Msg("User registered")
	writeJSON(w, http.StatusCreated, res)
}

// Login handles user authentication and JWT generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload services.LoginInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	res, err := h.service.Login(r.Context(), payload)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("ip", r.RemoteAddr).Msg("Failed authentication attempt")
		}
		writeError(w, r, err, errorMessages{server: "Server error during login"})
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Me returns the account of the authenticated caller.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	user, err := h.service.Me(r.Context(), p)
	if err != nil {
		writeError(w, r, err, errorMessages{notFound: "User not found", server: "Server error fetching user"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
