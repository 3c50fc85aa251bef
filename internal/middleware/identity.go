package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/xpboard/internal/auth"
)

// SessionCookieName is the cookie the identity provider's frontend SDK sets.
const SessionCookieName = "__session"

// TokenVerifier checks a session token and returns the identity it asserts.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequireIdentity verifies the bearer token or session cookie and stores the
// caller's Identity in the request context. Requests without a valid token
// get a 401 JSON response.
func RequireIdentity(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := auth.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "unauthorized"})
}
