package middleware

import "net/http"

// SecurityHeaders returns a middleware that adds response headers appropriate
// for a JSON-only service API. Risk verdicts and lockout state must never be
// served from an intermediary cache.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Cache-Control", "no-store")

			next.ServeHTTP(w, r)
		})
	}
}
