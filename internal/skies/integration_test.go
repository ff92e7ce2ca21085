package skies_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demskies/demskies/internal/location"
	"github.com/demskies/demskies/internal/provider/resilience"
	"github.com/demskies/demskies/internal/skies"
	"github.com/demskies/demskies/internal/weather"
	"github.com/demskies/demskies/internal/weather/weatherapi"
)

// fakeWeatherAPI serves /search.json and /forecast.json the way WeatherAPI.com does.
type fakeWeatherAPI struct {
	searches  atomic.Int32
	forecasts atomic.Int32
	lastQuery atomic.Value
}

func (f *fakeWeatherAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/search.json":
		f.searches.Add(1)
		if q != "34638" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"name": "Lillian", "region": "Alabama", "country": "United States", "lat": 30.5, "lon": -87.0},
		})
	case "/forecast.json":
		f.forecasts.Add(1)
		f.lastQuery.Store(q)
		if q == "Nowhereville" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
			return
		}

		days := make([]map[string]interface{}, 0, 6)
		for i := 0; i < 6; i++ {
			days = append(days, map[string]interface{}{
				"date":  time.Date(2024, time.June, 1+i, 0, 0, 0, 0, time.UTC).Format(time.DateOnly),
				"day":   map[string]interface{}{"maxtemp_f": 90.2, "mintemp_f": 71.6, "condition": map[string]string{"text": "Sunny"}},
				"astro": map[string]string{"sunrise": "05:48 AM", "sunset": "07:52 PM"},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"location": map[string]string{"name": "Lillian", "region": "Alabama", "country": "United States of America"},
			"current": map[string]interface{}{
				"temp_f": 84.9, "temp_c": 29.4, "feelslike_f": 91.2, "humidity": 70,
				"condition": map[string]string{"text": "Sunny"},
			},
			"forecast": map[string]interface{}{"forecastday": days},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newPipeline(t *testing.T, baseURL string) *skies.Service {
	t.Helper()
	logger := zerolog.New(io.Discard)

	client := weatherapi.NewClient(weatherapi.ClientConfig{
		APIKey:     "****",
		BaseURL:    baseURL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
		Logger:     logger,
	})

	return skies.NewService(skies.ServiceConfig{
		Resolver: location.NewResolver(location.ResolverConfig{Geocoder: client, Logger: logger}),
		Provider: client,
		Logger:   logger,
		Now:      func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func TestPipeline_PostalCode(t *testing.T) {
	api := &fakeWeatherAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	vm, err := newPipeline(t, server.URL).FetchWeather(context.Background(), "34638")
	require.NoError(t, err)

	assert.Equal(t, int32(1), api.searches.Load())
	assert.Equal(t, int32(1), api.forecasts.Load())
	assert.Equal(t, "30.5,-87", api.lastQuery.Load())

	assert.Contains(t, vm.Location, "Lillian")
	assert.Len(t, vm.Forecast, 5)
	assert.Equal(t, 85, vm.TempF)
	assert.Equal(t, 90, vm.TodayHighF)
	assert.Equal(t, 72, vm.TodayLowF)
	assert.Equal(t, 7, vm.MoonPhase.Index, "2024-06-01 is a waning crescent")
}

func TestPipeline_PostalCodeNotFound(t *testing.T) {
	api := &fakeWeatherAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	_, err := newPipeline(t, server.URL).FetchWeather(context.Background(), "00000")
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)
	assert.EqualError(t, err, `ZIP code "00000" not found`)
	assert.Zero(t, api.forecasts.Load())
}

func TestPipeline_PlaceNotFound(t *testing.T) {
	api := &fakeWeatherAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	_, err := newPipeline(t, server.URL).FetchWeather(context.Background(), "Nowhereville")

	var qerr *weather.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, weather.KindLocationNotFound, qerr.Kind)
	assert.Contains(t, qerr.Error(), "Nowhereville")
	assert.Zero(t, api.searches.Load())
}

func TestPipeline_Unreachable(t *testing.T) {
	server := httptest.NewServer(&fakeWeatherAPI{})
	baseURL := server.URL
	server.Close()

	_, err := newPipeline(t, baseURL).FetchWeather(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrNetwork)
}
