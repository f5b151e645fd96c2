// Package middleware provides HTTP middleware shared across route groups.
package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AdminSecretHeader is the header carrying the admin API secret.
const AdminSecretHeader = "X-Admin-Secret"

// AdminSecret returns middleware that guards admin routes with a static
// shared secret. Comparison is constant-time.
func AdminSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeJSONError(w, http.StatusServiceUnavailable, "admin secret not configured")
				return
			}

			got := r.Header.Get(AdminSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				writeJSONError(w, http.StatusForbidden, "Invalid admin secret")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":` + quote(msg) + `}`))
}

// quote wraps msg in JSON string quotes. Messages here are static and
// contain no characters needing escape.
func quote(msg string) string {
	return `"` + msg + `"`
}
