package jwt

import (
	"encoding/json"
	"net/http"

	"ride-console/internal/domain/user"
)

// AuthMiddlewareFunc validates bearer tokens and injects claims into the request context.
func AuthMiddlewareFunc(mgr *Manager, allowedRoles ...user.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, err := FromAuthorization(r)
			if err != nil {
				deny(w, http.StatusUnauthorized, err)
				return
			}

			claims, err := mgr.ParseAndValidate(raw)
			if err != nil {
				deny(w, http.StatusUnauthorized, err)
				return
			}

			if err := RoleAllowed(claims, allowedRoles...); err != nil {
				deny(w, http.StatusForbidden, err)
				return
			}

			next(w, r.WithContext(InjectClaims(r.Context(), claims)))
		}
	}
}

// deny writes the same {"error": ...} body the admin handlers use.
func deny(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
