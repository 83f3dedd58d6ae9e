package mcp

import (
	"net/http"
	"strings"
)

// AuthMiddleware validates incoming requests against a shared API key.
// The key may arrive as a Bearer token or in the X-API-Key header, so
// both agent frameworks and plain HTTP clients can connect. An empty
// key disables authentication.
func AuthMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.Header.Get("X-API-Key")
		}
		if token == "" {
			http.Error(w, "missing credentials", http.StatusUnauthorized)
			return
		}
		if token != apiKey {
			http.Error(w, "invalid credentials", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
