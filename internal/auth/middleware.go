package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/rs/zerolog/log"
)

type contextKey string

// PrincipalKey is the context key for the authenticated caller.
const PrincipalKey = contextKey("principal")

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromContext retrieves the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(models.Principal)
	return p, ok
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate verifies the bearer token and attaches the caller to the request context.
// A missing token is answered with 401, an invalid or expired one with 403.
func Authenticate(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := issuer.Verify(BearerToken(r.Header.Get("Authorization")))
			switch {
			case errors.Is(err, ErrMissingToken):
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			case err != nil:
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected bearer token")
				writeMessage(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRoles rejects callers whose role is not in allowed. It must run after Authenticate.
func RequireRoles(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal.Role == "" {
				writeMessage(w, http.StatusUnauthorized, "User is not authenticated")
				return
			}
			if !slices.Contains(allowed, principal.Role) {
				writeMessage(w, http.StatusForbidden, "Forbidden: Not Valid Role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
