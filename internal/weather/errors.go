package weather

import (
	"errors"
	"fmt"
	"net/http"
)

// Query failure kinds. Every failure of a lookup is classified as exactly one of these.
var (
	ErrValidation         = errors.New("invalid query")
	ErrLocationNotFound   = errors.New("location not found")
	ErrServiceUnavailable = errors.New("weather service unavailable")
	ErrNetwork            = errors.New("weather service unreachable")
)

// Kind tags a failed lookup for the presentation layer.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindLocationNotFound   Kind = "location_not_found"
	KindServiceUnavailable Kind = "service_unavailable"
	KindNetwork            Kind = "network_error"
)

// Sentinel returns the sentinel error matching the kind.
func (k Kind) Sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindLocationNotFound:
		return ErrLocationNotFound
	case KindNetwork:
		return ErrNetwork
	default:
		return ErrServiceUnavailable
	}
}

// KindOf classifies an error. Errors that carry no known sentinel are treated
// as a service failure.
func KindOf(err error) Kind {
	var qe *QueryError
	switch {
	case errors.As(err, &qe):
		return qe.Kind
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrLocationNotFound):
		return KindLocationNotFound
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	default:
		return KindServiceUnavailable
	}
}

// StatusError records a non-2xx response from a provider endpoint.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// QueryError is the terminal failure of a single lookup.
type QueryError struct {
	Kind Kind

	// Input is the trimmed query that failed.
	Input string

	// Postal is set when the input was classified as a postal code.
	Postal bool

	// Err is the underlying cause, if any.
	Err error
}

// Error returns the message shown to the user.
func (e *QueryError) Error() string {
	switch e.Kind {
	case KindValidation:
		return "Please enter a city name or ZIP code"
	case KindLocationNotFound:
		if e.Postal {
			return fmt.Sprintf("ZIP code %q not found", e.Input)
		}
		return fmt.Sprintf("Location %q not found", e.Input)
	case KindNetwork:
		return "Unable to reach the weather service"
	default:
		return "Unable to fetch weather data"
	}
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *QueryError) Is(target error) bool {
	return target == e.Kind.Sentinel()
}
