package auth

import (
	"context"
	"net/http"
	"strings"

	"storegate/internal/models"
)

// SessionValidator resolves an opaque bearer token to a request principal.
type SessionValidator interface {
	Principal(ctx context.Context, token string) (Principal, bool)
}

// SessionAuth authenticates requests by bearer token. A missing or invalid
// session yields 401; expired and revoked sessions are indistinguishable to
// the caller.
func SessionAuth(v SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(h, "Bearer ")
			p, ok := v.Principal(r.Context(), token)
			if !ok {
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole gates a route on the principal's current role.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := FromContext(r.Context())
			for _, role := range roles {
				if p.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}
