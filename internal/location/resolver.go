package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/demskies/demskies/internal/weather"
)

// Country names that identify a US match.
var usCountryNames = map[string]struct{}{
	"United States":            {},
	"USA":                      {},
	"United States of America": {},
}

// Match is one result of a geocode search.
type Match struct {
	Name    string
	Region  string
	Country string
	Lat     float64
	Lon     float64
}

// IsUS reports whether the match's country is a US name variant.
func (m Match) IsUS() bool {
	_, ok := usCountryNames[m.Country]
	return ok
}

// ResolvedLocation is a postal code resolved to a position.
type ResolvedLocation struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Region      string
	Country     string
}

// Locator returns the forecast locator for the resolved position.
func (r *ResolvedLocation) Locator() weather.Locator {
	return weather.ForCoordinates(r.Latitude, r.Longitude)
}

// Geocoder searches the provider for places matching a query.
type Geocoder interface {
	// Search returns matches in provider order. A non-2xx response is
	// reported as a *weather.StatusError.
	Search(ctx context.Context, query string) ([]Match, error)
}

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	Geocoder Geocoder
	Logger   zerolog.Logger
}

// Resolver resolves postal codes with a single geocode search.
type Resolver struct {
	geocoder Geocoder
	logger   zerolog.Logger
}

// NewResolver creates a new resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		geocoder: cfg.Geocoder,
		logger:   cfg.Logger,
	}
}

// ResolvePostal searches for code and picks the best match. It fails with
// weather.ErrLocationNotFound when the search has no results or the
// provider answers with a non-success status. Transport failures are
// returned as reported by the geocoder.
func (r *Resolver) ResolvePostal(ctx context.Context, code string) (*ResolvedLocation, error) {
	matches, err := r.geocoder.Search(ctx, code)
	if err != nil {
		var statusErr *weather.StatusError
		if errors.As(err, &statusErr) {
			return nil, fmt.Errorf("searching %q: %w: %w", code, weather.ErrLocationNotFound, err)
		}
		return nil, fmt.Errorf("searching %q: %w", code, err)
	}

	best, ok := PickMatch(matches)
	if !ok {
		return nil, fmt.Errorf("searching %q: no results: %w", code, weather.ErrLocationNotFound)
	}

	r.logger.Debug().
		Str("postal_code", code).
		Int("matches", len(matches)).
		Str("country", best.Country).
		Float64("lat", best.Lat).
		Float64("lon", best.Lon).
		Msg("resolved postal code")

	return &ResolvedLocation{
		Latitude:    best.Lat,
		Longitude:   best.Lon,
		DisplayName: best.Name,
		Region:      best.Region,
		Country:     best.Country,
	}, nil
}

// PickMatch returns the first US match, or the first match when none is in
// the US. ok is false for an empty slice.
func PickMatch(matches []Match) (Match, bool) {
	if len(matches) == 0 {
		return Match{}, false
	}
	for _, m := range matches {
		if m.IsUS() {
			return m, true
		}
	}
	return matches[0], true
}
