// Package skies turns a free-text location into the weather view shown to
// users: current conditions, a five-day outlook, the moon phase and the next
// celestial events.
package skies

import (
	"time"

	"github.com/demskies/demskies/internal/astronomy"
	"github.com/demskies/demskies/internal/location"
)

// MaxForecastDays caps the outlook that follows today.
const MaxForecastDays = 5

// ViewModel is the result of one successful lookup. It is built fresh for
// every call and not modified afterwards.
type ViewModel struct {
	// Query is the trimmed input and QueryKind its classification.
	Query     string
	QueryKind location.Kind

	// Resolved is set when a postal code was resolved through the geocoder.
	Resolved *location.ResolvedLocation

	// Location is the label "<name>, <region>, <country>" reported by the provider.
	Location string

	// Temperatures are rounded to whole degrees.
	TempF      int
	TempC      int
	FeelsLikeF int
	FeelsLikeC int

	Humidity  int
	Condition string

	Sunrise string
	Sunset  string

	TodayHighF int
	TodayLowF  int
	TodayHighC int
	TodayLowC  int

	// Forecast holds at most MaxForecastDays days, starting tomorrow.
	Forecast []DailyForecast

	MoonPhase astronomy.MoonPhase

	// AstronomyEvents lists every catalog event from today on, soonest first.
	AstronomyEvents []astronomy.Event

	GeneratedAt time.Time
}

// NextEvents returns at most n upcoming events.
func (v *ViewModel) NextEvents(n int) []astronomy.Event {
	if n > len(v.AstronomyEvents) {
		n = len(v.AstronomyEvents)
	}
	return v.AstronomyEvents[:n:n]
}

// DailyForecast summarizes one future day.
type DailyForecast struct {
	Date      string // YYYY-MM-DD
	DayLabel  string // short weekday name, e.g. "Mon"
	HighF     int
	LowF      int
	HighC     int
	LowC      int
	Condition string
}
