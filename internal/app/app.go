// Package app assembles the lookup pipeline from configuration. Both the API
// server and the command-line client are built from it.
package app

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/demskies/demskies/internal/astronomy"
	"github.com/demskies/demskies/internal/config"
	"github.com/demskies/demskies/internal/location"
	"github.com/demskies/demskies/internal/provider/resilience"
	"github.com/demskies/demskies/internal/skies"
	"github.com/demskies/demskies/internal/telemetry"
	"github.com/demskies/demskies/internal/weather/weatherapi"
)

// Components are the wired parts of the lookup pipeline.
type Components struct {
	Service  *skies.Service
	Catalog  *astronomy.Catalog
	Registry *resilience.Registry
	Provider *weatherapi.Client
}

// Build wires the WeatherAPI.com client, the postal resolver, the astronomy
// catalog and the lookup service from cfg.
func Build(cfg *config.Config, log zerolog.Logger) (*Components, error) {
	catalog := astronomy.DefaultCatalog()
	if cfg.CatalogPath != "" {
		c, err := astronomy.LoadCatalogFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("loading astronomy catalog: %w", err)
		}
		catalog = c
	}
	log.Info().
		Str("version", catalog.Version()).
		Int("events", catalog.Len()).
		Msg("astronomy catalog loaded")

	metrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		return nil, fmt.Errorf("creating provider metrics: %w", err)
	}

	registry := resilience.NewRegistry()

	clientCfg := resilience.DefaultClientConfig(weatherapi.ProviderName)
	clientCfg.Timeout = cfg.WeatherAPI.Timeout
	clientCfg.Registry = registry
	clientCfg.CircuitBreaker.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().
			Str("provider", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
	}

	provider := weatherapi.NewClient(weatherapi.ClientConfig{
		APIKey:     cfg.WeatherAPI.APIKey,
		BaseURL:    cfg.WeatherAPI.BaseURL,
		HTTPClient: resilience.NewClient(clientCfg),
		Limiter:    rate.NewLimiter(rate.Limit(cfg.WeatherAPI.RequestsPerSecond), cfg.WeatherAPI.Burst),
		Metrics:    metrics,
		Logger:     log.With().Str("component", "weatherapi").Logger(),
	})

	resolver := location.NewResolver(location.ResolverConfig{
		Geocoder: provider,
		Logger:   log.With().Str("component", "resolver").Logger(),
	})

	service := skies.NewService(skies.ServiceConfig{
		Resolver: resolver,
		Provider: provider,
		Catalog:  catalog,
		Logger:   log.With().Str("component", "skies").Logger(),
	})

	return &Components{
		Service:  service,
		Catalog:  catalog,
		Registry: registry,
		Provider: provider,
	}, nil
}
