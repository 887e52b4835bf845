package middleware

import (
	"net/http"
	"slices"
)

// RequireRole returns middleware that allows access only to callers whose JWT
// role matches one of the provided role names (e.g. domain.RoleTrigger).
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "unauthorized")
				return
			}
			if !slices.Contains(allowedRoles, claims.Role) {
				writeJSONError(w, http.StatusForbidden, "permission-denied", "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
