package middleware

import (
	"net/http"
	"strings"

	"fastcontrol/internal/domain"
)

// Authenticate requires a valid "Authorization: Bearer <jwt>" header and
// stores the caller as a domain.ContextPrincipal in the request context.
func Authenticate(v JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized: bearer token required")
				return
			}
			claims, err := v.Validate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized: invalid token")
				return
			}
			ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{
				Name:    claims.Subject,
				IsAdmin: claims.Admin,
				Type:    "user",
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose principal is not an admin. It must run
// after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := domain.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized: bearer token required")
			return
		}
		if !p.IsAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
