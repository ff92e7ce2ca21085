package models

import (
	"time"

	"github.com/demskies/demskies/internal/astronomy"
	"github.com/demskies/demskies/internal/skies"
)

// WeatherResponse is the body of GET /v1/weather.
type WeatherResponse struct {
	Query     string            `json:"query"`
	QueryKind string            `json:"queryKind"`
	Resolved  *ResolvedLocation `json:"resolved,omitempty"`
	Location  string            `json:"location"`

	Current CurrentConditions `json:"current"`
	Today   TodayOutlook      `json:"today"`

	Forecast        []DailyForecast  `json:"forecast"`
	MoonPhase       MoonPhase        `json:"moonPhase"`
	AstronomyEvents []AstronomyEvent `json:"astronomyEvents"`

	GeneratedAt Timestamp `json:"generatedAt"`
}

// ResolvedLocation is the geocoder match a postal code resolved to.
type ResolvedLocation struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"displayName"`
	Region      string  `json:"region,omitempty"`
	Country     string  `json:"country,omitempty"`
}

// CurrentConditions holds rounded current readings.
type CurrentConditions struct {
	TempF      int    `json:"tempF"`
	TempC      int    `json:"tempC"`
	FeelsLikeF int    `json:"feelsLikeF"`
	FeelsLikeC int    `json:"feelsLikeC"`
	Humidity   int    `json:"humidity"`
	Condition  string `json:"condition"`
}

// TodayOutlook holds today's extremes and sun times.
type TodayOutlook struct {
	HighF   int    `json:"highF"`
	LowF    int    `json:"lowF"`
	HighC   int    `json:"highC"`
	LowC    int    `json:"lowC"`
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
}

// DailyForecast summarizes one future day.
type DailyForecast struct {
	Date      string `json:"date"`
	DayLabel  string `json:"dayLabel"`
	HighF     int    `json:"highF"`
	LowF      int    `json:"lowF"`
	HighC     int    `json:"highC"`
	LowC      int    `json:"lowC"`
	Condition string `json:"condition"`
}

// MoonPhase is a phase of the lunar cycle.
type MoonPhase struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
}

// AstronomyEvent is a dated celestial event.
type AstronomyEvent struct {
	Title       string `json:"title"`
	Date        Date   `json:"date"`
	Description string `json:"description"`
}

// NewWeatherResponse converts a lookup result to its wire form.
func NewWeatherResponse(vm *skies.ViewModel) WeatherResponse {
	resp := WeatherResponse{
		Query:     vm.Query,
		QueryKind: vm.QueryKind.String(),
		Location:  vm.Location,
		Current: CurrentConditions{
			TempF:      vm.TempF,
			TempC:      vm.TempC,
			FeelsLikeF: vm.FeelsLikeF,
			FeelsLikeC: vm.FeelsLikeC,
			Humidity:   vm.Humidity,
			Condition:  vm.Condition,
		},
		Today: TodayOutlook{
			HighF:   vm.TodayHighF,
			LowF:    vm.TodayLowF,
			HighC:   vm.TodayHighC,
			LowC:    vm.TodayLowC,
			Sunrise: vm.Sunrise,
			Sunset:  vm.Sunset,
		},
		Forecast:        make([]DailyForecast, 0, len(vm.Forecast)),
		MoonPhase:       NewMoonPhase(vm.MoonPhase),
		AstronomyEvents: NewAstronomyEvents(vm.AstronomyEvents),
		GeneratedAt:     Timestamp(vm.GeneratedAt),
	}

	if r := vm.Resolved; r != nil {
		resp.Resolved = &ResolvedLocation{
			Lat:         r.Latitude,
			Lon:         r.Longitude,
			DisplayName: r.DisplayName,
			Region:      r.Region,
			Country:     r.Country,
		}
	}

	for _, d := range vm.Forecast {
		resp.Forecast = append(resp.Forecast, DailyForecast{
			Date:      d.Date,
			DayLabel:  d.DayLabel,
			HighF:     d.HighF,
			LowF:      d.LowF,
			HighC:     d.HighC,
			LowC:      d.LowC,
			Condition: d.Condition,
		})
	}

	return resp
}

// NewMoonPhase converts a phase to its wire form.
func NewMoonPhase(p astronomy.MoonPhase) MoonPhase {
	return MoonPhase{Index: p.Index, Name: p.Name, Glyph: p.Glyph}
}

// NewAstronomyEvents converts events to their wire form. The result is never nil.
func NewAstronomyEvents(events []astronomy.Event) []AstronomyEvent {
	out := make([]AstronomyEvent, 0, len(events))
	for _, e := range events {
		out = append(out, AstronomyEvent{
			Title:       e.Title,
			Date:        Date(e.Date),
			Description: e.Description,
		})
	}
	return out
}

// MoonPhaseResponse is the body of GET /v1/astronomy/moon.
type MoonPhaseResponse struct {
	Date Date `json:"date"`
	MoonPhase
}

// NewMoonPhaseResponse computes the phase for the calendar date of t.
func NewMoonPhaseResponse(t time.Time) MoonPhaseResponse {
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return MoonPhaseResponse{
		Date:      Date(date),
		MoonPhase: NewMoonPhase(astronomy.PhaseFor(t)),
	}
}

// EventsQuery holds the query parameters of GET /v1/astronomy/events.
type EventsQuery struct {
	AsOf  string `validate:"omitempty,datetime=2006-01-02"`
	Limit int    `validate:"gte=1,lte=50"`
}

// EventsResponse is the body of GET /v1/astronomy/events.
type EventsResponse struct {
	AsOf           Date              `json:"asOf"`
	CatalogVersion string            `json:"catalogVersion"`
	Items          []AstronomyEvent  `json:"items"`
	Meta           PagedResponseMeta `json:"meta"`
}
