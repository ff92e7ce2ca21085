package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demskies/demskies/internal/api"
	"github.com/demskies/demskies/internal/api/models"
	"github.com/demskies/demskies/internal/app"
	"github.com/demskies/demskies/internal/astronomy"
	"github.com/demskies/demskies/internal/config"
	"github.com/demskies/demskies/internal/location"
	"github.com/demskies/demskies/internal/provider/resilience"
	"github.com/demskies/demskies/internal/skies"
	"github.com/demskies/demskies/internal/weather"
)

var fixedNow = time.Date(2026, time.August, 1, 15, 0, 0, 0, time.UTC)

type stubWeatherService struct {
	vm    *skies.ViewModel
	err   error
	calls int
	last  string
}

func (s *stubWeatherService) FetchWeather(_ context.Context, raw string) (*skies.ViewModel, error) {
	s.calls++
	s.last = raw
	return s.vm, s.err
}

func testViewModel() *skies.ViewModel {
	return &skies.ViewModel{
		Query:     "34638",
		QueryKind: location.KindPostal,
		Resolved: &location.ResolvedLocation{
			Latitude:    30.5,
			Longitude:   -87,
			DisplayName: "Lillian",
			Region:      "Alabama",
			Country:     "United States of America",
		},
		Location:   "Lillian, Alabama, United States of America",
		TempF:      85,
		TempC:      29,
		FeelsLikeF: 91,
		FeelsLikeC: 33,
		Humidity:   70,
		Condition:  "Partly cloudy",
		Sunrise:    "06:02 AM",
		Sunset:     "07:52 PM",
		TodayHighF: 90,
		TodayLowF:  72,
		TodayHighC: 32,
		TodayLowC:  22,
		Forecast: []skies.DailyForecast{
			{Date: "2026-08-02", DayLabel: "Sun", HighF: 91, LowF: 73, HighC: 33, LowC: 23, Condition: "Sunny"},
		},
		MoonPhase:       astronomy.PhaseFor(fixedNow),
		AstronomyEvents: astronomy.DefaultCatalog().Upcoming(fixedNow),
		GeneratedAt:     fixedNow,
	}
}

func newTestRouter(svc *stubWeatherService, registry *resilience.Registry) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Version:        "test",
		BuildTime:      "2026-01-01T00:00:00Z",
		Logger:         zerolog.New(io.Discard),
		WeatherService: svc,
		Registry:       registry,
		Now:            func() time.Time { return fixedNow },
	})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthCheck(t *testing.T) {
	w := get(t, newTestRouter(&stubWeatherService{}, nil), "/v1/ops/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Version)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	w := get(t, newTestRouter(&stubWeatherService{}, nil), "/v1/ops/ready")

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_ReadinessCheck_EmptyCatalog(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Logger:  zerolog.New(io.Discard),
		Catalog: astronomy.NewCatalog("empty", nil),
	})

	w := get(t, router, "/v1/ops/ready")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_SystemStatus(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("weatherapi")
	cfg.Registry = registry
	resilience.NewClient(cfg)
	registry.Record("weatherapi", nil)

	w := get(t, newTestRouter(&stubWeatherService{}, registry), "/v1/ops/status")

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, "astronomy-catalog", status.Subsystems[0].Name)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, "weatherapi", status.Providers[0].Provider)
	assert.Equal(t, "closed", status.Providers[0].CircuitState)
	assert.NotNil(t, status.Providers[0].LastSuccessAt)
}

func TestRouter_SystemStatus_OpenCircuit(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("weatherapi")
	cfg.CircuitBreaker.ReadyToTrip = resilience.TripAfterConsecutiveFailures(1)
	cfg.Registry = registry
	client := resilience.NewClient(cfg)

	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1/unreachable", http.NoBody)
	require.NoError(t, err)
	_, err = client.Do(req)
	require.Error(t, err)

	w := get(t, newTestRouter(&stubWeatherService{}, registry), "/v1/ops/status")

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	assert.Equal(t, models.HealthStatusFail, status.Status)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, models.HealthStatusFail, status.Providers[0].Status)
	assert.Equal(t, "open", status.Providers[0].CircuitState)
	assert.Equal(t, uint32(0), status.Providers[0].Requests, "counts reset on trip")
	assert.NotNil(t, status.Providers[0].Message)
}

func TestRouter_GetWeather(t *testing.T) {
	svc := &stubWeatherService{vm: testViewModel()}

	w := get(t, newTestRouter(svc, nil), "/v1/weather?q=34638")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, "34638", svc.last)

	var resp models.WeatherResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "postal", resp.QueryKind)
	require.NotNil(t, resp.Resolved)
	assert.Equal(t, "Lillian", resp.Resolved.DisplayName)
	assert.Equal(t, "Lillian, Alabama, United States of America", resp.Location)
	assert.Equal(t, 85, resp.Current.TempF)
	assert.Equal(t, 90, resp.Today.HighF)
	require.Len(t, resp.Forecast, 1)
	assert.Equal(t, "Sun", resp.Forecast[0].DayLabel)
	assert.Equal(t, astronomy.PhaseFor(fixedNow).Name, resp.MoonPhase.Name)
	require.NotEmpty(t, resp.AstronomyEvents)
	assert.Equal(t, "Total Solar Eclipse", resp.AstronomyEvents[0].Title)
	assert.Equal(t, "2026-08-12", time.Time(resp.AstronomyEvents[0].Date).Format(time.DateOnly))
}

func TestRouter_GetWeather_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantDetail string
	}{
		{
			name:       "blank query",
			err:        &weather.QueryError{Kind: weather.KindValidation},
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation_error",
			wantDetail: "Please enter a city name or ZIP code",
		},
		{
			name:       "unknown zip",
			err:        &weather.QueryError{Kind: weather.KindLocationNotFound, Input: "00000", Postal: true},
			wantStatus: http.StatusNotFound,
			wantKind:   "location_not_found",
			wantDetail: `ZIP code "00000" not found`,
		},
		{
			name:       "provider down",
			err:        &weather.QueryError{Kind: weather.KindServiceUnavailable, Input: "Paris"},
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   "service_unavailable",
			wantDetail: "Unable to fetch weather data",
		},
		{
			name:       "provider unreachable",
			err:        &weather.QueryError{Kind: weather.KindNetwork, Input: "Paris"},
			wantStatus: http.StatusBadGateway,
			wantKind:   "network_error",
			wantDetail: "Unable to reach the weather service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, newTestRouter(&stubWeatherService{err: tt.err}, nil), "/v1/weather?q=x")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

			var problem models.Problem
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantKind, problem.Kind)
			assert.Equal(t, tt.wantDetail, problem.Detail)
			assert.Equal(t, "/v1/weather", problem.Instance)
			assert.NotEmpty(t, problem.TraceID)
		})
	}
}

func TestRouter_GetWeather_RateLimited(t *testing.T) {
	router := newTestRouter(&stubWeatherService{vm: testViewModel()}, nil)

	var last int
	for i := 0; i <= 30; i++ {
		last = get(t, router, "/v1/weather?q=Paris").Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRouter_GetMoonPhase(t *testing.T) {
	w := get(t, newTestRouter(&stubWeatherService{}, nil), "/v1/astronomy/moon?date=2024-06-01")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.MoonPhaseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "2024-06-01", time.Time(resp.Date).Format(time.DateOnly))
	assert.Equal(t, 7, resp.Index)
	assert.Equal(t, "Waning Crescent", resp.Name)
	assert.Equal(t, "🌘", resp.Glyph)
}

func TestRouter_GetMoonPhase_DefaultsToToday(t *testing.T) {
	w := get(t, newTestRouter(&stubWeatherService{}, nil), "/v1/astronomy/moon")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.MoonPhaseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "2026-08-01", time.Time(resp.Date).Format(time.DateOnly))
	assert.Equal(t, astronomy.PhaseForDate(2026, time.August, 1).Index, resp.Index)
}

func TestRouter_GetMoonPhase_InvalidDate(t *testing.T) {
	w := get(t, newTestRouter(&stubWeatherService{}, nil), "/v1/astronomy/moon?date=06/01/2024")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "date", problem.Errors[0].Field)
}

func TestRouter_ListEvents(t *testing.T) {
	w := get(t, newTestRouter(&stubWeatherService{}, nil), "/v1/astronomy/events?limit=3")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.EventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "2026-08-01", time.Time(resp.AsOf).Format(time.DateOnly))
	assert.NotEmpty(t, resp.CatalogVersion)
	assert.Equal(t, 3, resp.Meta.Limit)
	assert.Equal(t, 9, resp.Meta.Total)

	titles := make([]string, 0, len(resp.Items))
	for _, e := range resp.Items {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"Total Solar Eclipse", "Perseids Meteor Shower", "Mars at Opposition"}, titles)
}

func TestRouter_ListEvents_AsOf(t *testing.T) {
	w := get(t, newTestRouter(&stubWeatherService{}, nil), "/v1/astronomy/events?asOf=2027-01-03")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.EventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "2027-01-03", time.Time(resp.Items[0].Date).Format(time.DateOnly))
	assert.Equal(t, 10, resp.Meta.Limit)
}

func TestRouter_ListEvents_InvalidParams(t *testing.T) {
	tests := map[string]string{
		"limit not a number": "/v1/astronomy/events?limit=ten",
		"limit zero":         "/v1/astronomy/events?limit=0",
		"limit too large":    "/v1/astronomy/events?limit=51",
		"asOf malformed":     "/v1/astronomy/events?asOf=2026-13-01",
	}

	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			w := get(t, newTestRouter(&stubWeatherService{}, nil), target)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var problem models.Problem
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.Equal(t, models.ProblemTypeValidation, problem.Type)
			assert.NotEmpty(t, problem.Errors)
		})
	}
}

func TestRouter_RequestID_Generated(t *testing.T) {
	w := get(t, newTestRouter(&stubWeatherService{}, nil), "/v1/ops/health")

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter(&stubWeatherService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	w := get(t, newTestRouter(&stubWeatherService{}, nil), "/v1/nonexistent")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(&stubWeatherService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/weather?q=Paris", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "POST is not supported")
}

func TestRouter_SystemStatus_HidesProviderURL(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	baseURL := down.URL
	down.Close()

	components, err := app.Build(&config.Config{
		Port: "8080",
		WeatherAPI: config.WeatherAPIConfig{
			APIKey:            "SECRETKEY",
			BaseURL:           baseURL,
			Timeout:           time.Second,
			RequestsPerSecond: 100,
			Burst:             10,
		},
	}, zerolog.Nop())
	require.NoError(t, err)

	_, err = components.Service.FetchWeather(context.Background(), "London")
	require.ErrorIs(t, err, weather.ErrNetwork)

	router := api.NewRouter(api.RouterConfig{
		Logger:         zerolog.Nop(),
		WeatherService: components.Service,
		Catalog:        components.Catalog,
		Registry:       components.Registry,
		Now:            func() time.Time { return fixedNow },
	})
	w := get(t, router, "/v1/ops/status")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.NotContains(t, body, "SECRETKEY")
	assert.NotContains(t, body, "London")
	assert.NotContains(t, body, baseURL)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Len(t, status.Providers, 1)
	require.NotNil(t, status.Providers[0].Message)
	assert.Contains(t, *status.Providers[0].Message, "request failed")
}
