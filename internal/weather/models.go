// Package weather defines the forecast provider contract, the normalized
// provider payload, and the failure taxonomy shared by every lookup stage.
package weather

import (
	"context"
	"strconv"
	"time"
)

// ForecastDays is the number of days requested from the provider: today plus five.
const ForecastDays = 6

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// String formats the pair the way the provider accepts it in a query ("lat,lon").
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// Locator identifies what to fetch a forecast for: either resolved
// coordinates or a free-text place passed through to the provider.
type Locator struct {
	Coordinates *Coordinates
	Place       string
}

// ForCoordinates returns a locator for a resolved position.
func ForCoordinates(lat, lon float64) Locator {
	return Locator{Coordinates: &Coordinates{Lat: lat, Lon: lon}}
}

// ForPlace returns a locator that forwards a place string as-is.
func ForPlace(place string) Locator {
	return Locator{Place: place}
}

// Query returns the provider "q" parameter value.
func (l Locator) Query() string {
	if l.Coordinates != nil {
		return l.Coordinates.String()
	}
	return l.Place
}

// Payload is a forecast response normalized out of the provider's wire format.
type Payload struct {
	Location PayloadLocation
	Current  Current

	// Days is ordered as returned by the provider; Days[0] is today.
	Days []Day

	FetchedAt time.Time
}

// PayloadLocation is the place the provider reports the forecast for.
type PayloadLocation struct {
	Name    string
	Region  string
	Country string
	Lat     float64
	Lon     float64
}

// Current holds current conditions.
type Current struct {
	TempF      float64
	TempC      float64
	FeelsLikeF float64
	FeelsLikeC float64

	// Humidity is a whole percentage (0-100).
	Humidity int

	Condition string
}

// Day is one forecast day.
type Day struct {
	// Date is the provider's calendar date (YYYY-MM-DD).
	Date string

	MaxTempF  float64
	MinTempF  float64
	MaxTempC  float64
	MinTempC  float64
	Condition string

	// Sunrise and Sunset are passed through as the provider formats them ("06:12 AM").
	Sunrise string
	Sunset  string
}

// ParseDate returns the day's date as midnight UTC.
func (d Day) ParseDate() (time.Time, error) {
	return time.Parse(time.DateOnly, d.Date)
}

// ForecastProvider fetches current conditions and a multi-day forecast.
type ForecastProvider interface {
	// Forecast performs exactly one round trip to the provider.
	Forecast(ctx context.Context, loc Locator, days int) (*Payload, error)

	// Name returns the provider name for logging.
	Name() string
}
