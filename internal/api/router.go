// Package api provides the HTTP API server: routing and the middleware chain.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/demskies/demskies/internal/api/handler"
	"github.com/demskies/demskies/internal/api/middleware"
	"github.com/demskies/demskies/internal/api/response"
	"github.com/demskies/demskies/internal/astronomy"
	"github.com/demskies/demskies/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	// WeatherService answers /v1/weather lookups.
	WeatherService handler.WeatherService

	// Catalog backs the astronomy endpoints (default: astronomy.DefaultCatalog).
	Catalog *astronomy.Catalog

	// Registry reports provider health on /v1/ops/status. Optional.
	Registry *resilience.Registry

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "demskies-api"
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = astronomy.DefaultCatalog()
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a load balancer

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, req, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.MethodNotAllowed(w, req)
	})

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, catalog)
	weatherHandler := handler.NewWeatherHandler(cfg.WeatherService)
	astronomyHandler := handler.NewAstronomyHandler(catalog, cfg.Now)

	// Lookups call the weather provider and get the tighter limit.
	lookupRateLimit := middleware.RateLimitByIP(middleware.LookupRateLimit)     // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.With(lookupRateLimit).Get("/weather", weatherHandler.GetWeather)

		r.Route("/astronomy", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/moon", astronomyHandler.GetMoonPhase)
			r.Get("/events", astronomyHandler.ListEvents)
		})
	})

	return r
}
