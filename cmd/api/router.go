package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/smarttravel/itinerary-api/pkg/middleware"
)

// SetupRouter configures all routes and returns the HTTP handler chain.
func SetupRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/assistant/command", deps.AssistantHandler.ProcessCommand)
	mux.HandleFunc("POST /api/route/optimize", deps.RouteHandler.OptimizeRoute)
	deps.Logger.Info("registered API routes",
		"assistant", "/api/assistant/command",
		"route", "/api/route/optimize")

	registerUtilityRoutes(mux, deps)

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Recovery(deps.Logger),
		middleware.Logging(deps.Logger),
	}
	if deps.Config.Server.RateLimitPerSecond > 0 && deps.Config.Server.RateLimitBurst > 0 {
		chain = append(chain, middleware.RateLimit(
			float64(deps.Config.Server.RateLimitPerSecond),
			deps.Config.Server.RateLimitBurst,
		))
	}
	handler := middleware.Chain(mux, chain...)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept-Encoding",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
	})

	return corsHandler.Handler(handler)
}

// registerUtilityRoutes registers health check, metrics, and other utility routes
func registerUtilityRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Health(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unhealthy"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	deps.Logger.Info("registered health check", "path", "/health")

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	deps.Logger.Info("registered readiness check", "path", "/ready")

	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}
