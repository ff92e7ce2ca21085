// Package weatherapi implements the forecast provider and geocoder on top of
// the WeatherAPI.com v1 endpoints.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/demskies/demskies/internal/location"
	"github.com/demskies/demskies/internal/provider/resilience"
	"github.com/demskies/demskies/internal/telemetry"
	"github.com/demskies/demskies/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "weatherapi"

	// DefaultBaseURL is the WeatherAPI.com v1 base URL.
	DefaultBaseURL = "https://api.weatherapi.com/v1"

	tracerName = "github.com/demskies/demskies/internal/weather/weatherapi"
)

// Endpoint names used in errors, logs and metrics.
const (
	EndpointSearch   = "search"
	EndpointForecast = "forecast"
)

var (
	_ weather.ForecastProvider = (*Client)(nil)
	_ location.Geocoder        = (*Client)(nil)
)

// ClientConfig holds configuration for the WeatherAPI.com client.
type ClientConfig struct {
	// APIKey is the WeatherAPI.com key (required). Sent with every call, never logged.
	APIKey string

	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a single-attempt resilient client.
	HTTPClient *resilience.Client

	// Limiter throttles outbound calls (optional, unlimited if nil).
	Limiter *rate.Limiter

	// Metrics records call durations (optional).
	Metrics *telemetry.ProviderMetrics

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a WeatherAPI.com client. It is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	limiter    *rate.Limiter
	metrics    *telemetry.ProviderMetrics
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewClient creates a new WeatherAPI.com client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
		metrics:    cfg.Metrics,
		tracer:     telemetry.Tracer(tracerName),
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Search looks up places matching query. Results keep provider order.
// A non-2xx response is returned as a *weather.StatusError.
func (c *Client) Search(ctx context.Context, query string) ([]location.Match, error) {
	params := url.Values{}
	params.Set("q", query)

	var results []searchResult
	status, err := c.get(ctx, EndpointSearch, "/search.json", params, &results)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, &weather.StatusError{Endpoint: EndpointSearch, StatusCode: status}
	}

	matches := make([]location.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, location.Match{
			Name:    r.Name,
			Region:  r.Region,
			Country: r.Country,
			Lat:     r.Lat,
			Lon:     r.Lon,
		})
	}
	return matches, nil
}

// Forecast fetches current conditions and a days-long forecast with air
// quality and alerts disabled. A 400 from the provider means it could not
// resolve the location and is reported as weather.ErrLocationNotFound; any
// other non-2xx status is weather.ErrServiceUnavailable.
func (c *Client) Forecast(ctx context.Context, loc weather.Locator, days int) (*weather.Payload, error) {
	params := url.Values{}
	params.Set("q", loc.Query())
	params.Set("days", strconv.Itoa(days))
	params.Set("aqi", "no")
	params.Set("alerts", "no")

	var resp forecastResponse
	status, err := c.get(ctx, EndpointForecast, "/forecast.json", params, &resp)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %w", weather.ErrLocationNotFound,
			&weather.StatusError{Endpoint: EndpointForecast, StatusCode: status})
	case !success(status):
		return nil, fmt.Errorf("%w: %w", weather.ErrServiceUnavailable,
			&weather.StatusError{Endpoint: EndpointForecast, StatusCode: status})
	}

	return toPayload(&resp), nil
}

// get performs one GET and decodes a 2xx body into out. Any other status is
// returned with a nil error; the caller decides what it means.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) (status int, err error) {
	ctx, span := c.tracer.Start(ctx, "weatherapi."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("provider.name", ProviderName)),
	)
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		c.metrics.RecordRequest(ctx, ProviderName, endpoint, status, duration, err)
		c.logger.Debug().
			Str("provider", ProviderName).
			Str("endpoint", endpoint).
			Int("status", status).
			Dur("duration", duration).
			Err(err).
			Msg("provider call completed")
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: waiting for rate limiter: %w", weather.ErrNetwork, err)
	}

	params.Set("key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return 0, fmt.Errorf("%w: %w", weather.ErrServiceUnavailable, err)
		}
		return 0, fmt.Errorf("%w: executing %s request: %w", weather.ErrNetwork, endpoint, redact(err))
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decoding %s response: %w", weather.ErrServiceUnavailable, endpoint, err)
	}
	return resp.StatusCode, nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// redact strips the request URL (which carries the API key) from transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// toPayload converts the WeatherAPI.com response to the normalized payload.
func toPayload(resp *forecastResponse) *weather.Payload {
	payload := &weather.Payload{
		Location: weather.PayloadLocation{
			Name:    resp.Location.Name,
			Region:  resp.Location.Region,
			Country: resp.Location.Country,
			Lat:     resp.Location.Lat,
			Lon:     resp.Location.Lon,
		},
		Current: weather.Current{
			TempF:      resp.Current.TempF,
			TempC:      resp.Current.TempC,
			FeelsLikeF: resp.Current.FeelsLikeF,
			FeelsLikeC: resp.Current.FeelsLikeC,
			Humidity:   resp.Current.Humidity,
			Condition:  resp.Current.Condition.Text,
		},
		Days:      make([]weather.Day, 0, len(resp.Forecast.ForecastDay)),
		FetchedAt: time.Now(),
	}

	for _, fd := range resp.Forecast.ForecastDay {
		payload.Days = append(payload.Days, weather.Day{
			Date:      fd.Date,
			MaxTempF:  fd.Day.MaxTempF,
			MinTempF:  fd.Day.MinTempF,
			MaxTempC:  fd.Day.MaxTempC,
			MinTempC:  fd.Day.MinTempC,
			Condition: fd.Day.Condition.Text,
			Sunrise:   fd.Astro.Sunrise,
			Sunset:    fd.Astro.Sunset,
		})
	}

	return payload
}
