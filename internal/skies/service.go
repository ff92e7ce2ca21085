package skies

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/demskies/demskies/internal/astronomy"
	"github.com/demskies/demskies/internal/location"
	"github.com/demskies/demskies/internal/weather"
)

const tracerName = "github.com/demskies/demskies/internal/skies"

var errNoForecastDays = errors.New("provider returned no forecast days")

// PostalResolver resolves a postal code to a position.
type PostalResolver interface {
	ResolvePostal(ctx context.Context, code string) (*location.ResolvedLocation, error)
}

// ServiceConfig holds configuration for the lookup service.
type ServiceConfig struct {
	// Resolver resolves postal codes before the forecast call.
	Resolver PostalResolver

	// Provider fetches the forecast.
	Provider weather.ForecastProvider

	// Catalog supplies celestial events (default: astronomy.DefaultCatalog).
	Catalog *astronomy.Catalog

	// Logger for service operations.
	Logger zerolog.Logger

	// Now returns the current time (default: time.Now). The moon phase and
	// event cutoff use its calendar date.
	Now func() time.Time
}

// Service performs lookups. It holds no per-call state, so concurrent calls
// are independent; discarding a superseded result is up to the caller (see Latest).
type Service struct {
	resolver PostalResolver
	provider weather.ForecastProvider
	catalog  *astronomy.Catalog
	logger   zerolog.Logger
	now      func() time.Time
	tracer   trace.Tracer
}

// NewService creates a new lookup service.
func NewService(cfg ServiceConfig) *Service {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = astronomy.DefaultCatalog()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		resolver: cfg.Resolver,
		provider: cfg.Provider,
		catalog:  catalog,
		logger:   cfg.Logger,
		now:      now,
		tracer:   otel.Tracer(tracerName),
	}
}

// FetchWeather looks up rawInput and returns its view model. Every failure is
// a *weather.QueryError; nothing is retried and no partial result is returned.
// Blank input fails with weather.KindValidation before any network call.
func (s *Service) FetchWeather(ctx context.Context, rawInput string) (*ViewModel, error) {
	input := strings.TrimSpace(rawInput)
	if input == "" {
		return nil, &weather.QueryError{Kind: weather.KindValidation, Err: weather.ErrValidation}
	}

	kind := location.Classify(input)

	ctx, span := s.tracer.Start(ctx, "skies.FetchWeather",
		trace.WithAttributes(attribute.String("query.kind", kind.String())),
	)
	defer span.End()

	vm, err := s.fetch(ctx, input, kind)
	if err != nil {
		qerr := &weather.QueryError{
			Kind:   weather.KindOf(err),
			Input:  input,
			Postal: kind == location.KindPostal,
			Err:    err,
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, string(qerr.Kind))
		s.logger.Warn().
			Err(err).
			Str("query_kind", kind.String()).
			Str("error_kind", string(qerr.Kind)).
			Msg("weather lookup failed")

		return nil, qerr
	}

	s.logger.Info().
		Str("query_kind", kind.String()).
		Str("location", vm.Location).
		Int("forecast_days", len(vm.Forecast)).
		Msg("weather lookup completed")

	return vm, nil
}

func (s *Service) fetch(ctx context.Context, input string, kind location.Kind) (*ViewModel, error) {
	loc := weather.ForPlace(input)

	var resolved *location.ResolvedLocation
	if kind == location.KindPostal {
		var err error
		resolved, err = s.resolver.ResolvePostal(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("resolving postal code: %w", err)
		}
		loc = resolved.Locator()
	}

	payload, err := s.provider.Forecast(ctx, loc, weather.ForecastDays)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}

	vm, err := s.normalize(payload)
	if err != nil {
		return nil, err
	}
	vm.Query = input
	vm.QueryKind = kind
	vm.Resolved = resolved

	return vm, nil
}

// normalize builds the view model from a provider payload and merges the
// astronomy data for today.
func (s *Service) normalize(p *weather.Payload) (*ViewModel, error) {
	if len(p.Days) == 0 {
		return nil, fmt.Errorf("%w: %w", weather.ErrServiceUnavailable, errNoForecastDays)
	}

	today := p.Days[0]
	now := s.now()

	vm := &ViewModel{
		Location:        fmt.Sprintf("%s, %s, %s", p.Location.Name, p.Location.Region, p.Location.Country),
		TempF:           round(p.Current.TempF),
		TempC:           round(p.Current.TempC),
		FeelsLikeF:      round(p.Current.FeelsLikeF),
		FeelsLikeC:      round(p.Current.FeelsLikeC),
		Humidity:        p.Current.Humidity,
		Condition:       p.Current.Condition,
		Sunrise:         today.Sunrise,
		Sunset:          today.Sunset,
		TodayHighF:      round(today.MaxTempF),
		TodayLowF:       round(today.MinTempF),
		TodayHighC:      round(today.MaxTempC),
		TodayLowC:       round(today.MinTempC),
		Forecast:        forecastDays(p.Days),
		MoonPhase:       astronomy.PhaseFor(now),
		AstronomyEvents: s.catalog.Upcoming(now),
		GeneratedAt:     now,
	}

	return vm, nil
}

// forecastDays converts days 1..MaxForecastDays; day 0 is today.
func forecastDays(days []weather.Day) []DailyForecast {
	n := min(MaxForecastDays, len(days)-1)
	out := make([]DailyForecast, 0, n)

	for _, d := range days[1 : n+1] {
		label := d.Date
		if date, err := d.ParseDate(); err == nil {
			label = date.Weekday().String()[:3]
		}

		out = append(out, DailyForecast{
			Date:      d.Date,
			DayLabel:  label,
			HighF:     round(d.MaxTempF),
			LowF:      round(d.MinTempF),
			HighC:     round(d.MaxTempC),
			LowC:      round(d.MinTempC),
			Condition: d.Condition,
		})
	}

	return out
}

// round rounds half away from zero.
func round(v float64) int {
	return int(math.Round(v))
}
