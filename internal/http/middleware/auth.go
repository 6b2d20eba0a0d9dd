package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/moneyflow/internal/http/render"
	"github.com/MrJamesThe3rd/moneyflow/internal/identity"
)

// TokenVerifier resolves a bearer token to the user it was issued for.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Authenticate requires an "Authorization: Bearer <token>" header and stores the verified
// user id in the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				render.Message(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				render.Message(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			userID, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				render.Message(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithUserID(r.Context(), userID)))
		})
	}
}

// UserID returns the authenticated user. Handlers only run behind Authenticate, so a
// missing id means a wiring error.
func UserID(r *http.Request) uuid.UUID {
	id, ok := identity.UserID(r.Context())
	if !ok {
		panic("middleware: handler mounted without Authenticate")
	}

	return id
}
