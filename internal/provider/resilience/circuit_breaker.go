// Package resilience wraps outbound provider calls in a circuit breaker with
// per-request timeouts, optional retries, and a health registry.
package resilience

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the circuit breaker in state change callbacks.
	Name string

	// MaxRequests is the number of probe requests let through while half-open.
	MaxRequests uint32

	// Interval clears the counts periodically while closed. Zero never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// ReadyToTrip decides when to open. Nil means DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// IsExcluded reports errors that count as neither success nor failure.
	// Nil excludes calls abandoned by their caller.
	IsExcluded func(err error) bool

	// OnStateChange, if set, is called on every state transition.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig returns the configuration used for the forecast
// provider: counts reset every minute, the breaker opens per DefaultReadyToTrip,
// and a single probe goes out after 30 seconds.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: DefaultReadyToTrip,
	}
}

// DefaultReadyToTrip opens the breaker once half of at least 5 requests in
// the current interval have failed, or after 5 failures in a row.
var DefaultReadyToTrip = anyOf(TripOnFailureRatio(5, 0.5), TripAfterConsecutiveFailures(5))

// TripOnFailureRatio returns a ReadyToTrip func that opens the breaker once
// at least minRequests were made and the failed share reaches ratio.
func TripOnFailureRatio(minRequests uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests == 0 || counts.Requests < minRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
}

// TripAfterConsecutiveFailures returns a ReadyToTrip func that opens the
// breaker after n failures in a row.
func TripAfterConsecutiveFailures(n uint32) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= n
	}
}

func anyOf(conds ...func(gobreaker.Counts) bool) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		for _, c := range conds {
			if c(counts) {
				return true
			}
		}
		return false
	}
}

func abandoned(err error) bool {
	return errors.Is(err, errAbandoned)
}

// NewCircuitBreaker creates a circuit breaker for calls returning T.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	readyToTrip := cfg.ReadyToTrip
	if readyToTrip == nil {
		readyToTrip = DefaultReadyToTrip
	}
	isExcluded := cfg.IsExcluded
	if isExcluded == nil {
		isExcluded = abandoned
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   readyToTrip,
		IsExcluded:    isExcluded,
		OnStateChange: cfg.OnStateChange,
	})
}
