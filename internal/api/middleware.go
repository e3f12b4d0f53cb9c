// Package api implements the mealtime REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OriginGuard rejects requests whose Origin header the CORS policy does not
// allow. Simple cross-site requests skip the preflight.
func OriginGuard(c *cors.Cors) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Origin") != "" && !c.OriginAllowed(r) {
				writeJSON(w, http.StatusForbidden, errorBody("origin not allowed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
