package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/jmcallister/riskgate/internal/auth"
	"github.com/jmcallister/riskgate/internal/handlers"
	"github.com/jmcallister/riskgate/internal/middleware"
)

// RegisterRoutes registers all risk API routes. Every endpoint requires a
// service bearer token; rate limiting sits in front of the write paths.
func RegisterRoutes(
	router chi.Router,
	riskHandler *handlers.RiskHandler,
	tokenManager *auth.TokenManager,
) {
	rateLimitConfig := middleware.DefaultAnalyzeRateLimit()

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Route("/v1/risk", func(r chi.Router) {
			r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/analyze", riskHandler.Analyze)
			r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/outcomes", riskHandler.RecordOutcome)

			r.Get("/users/{id}/last", riskHandler.LastAnalysis)
			r.Get("/identities/{identity}/lockout", riskHandler.LockoutStatus)
		})
	})
}
