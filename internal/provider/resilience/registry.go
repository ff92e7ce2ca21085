package resilience

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Condition summarizes a provider's circuit state for status reporting.
type Condition int

const (
	Healthy     Condition = iota // closed
	Degraded                     // half-open, probing
	Unavailable                  // open, calls rejected
)

func (c Condition) String() string {
	switch c {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	default:
		return "unavailable"
	}
}

// Health is a point-in-time view of one provider.
type Health struct {
	Name         string
	CircuitState gobreaker.State
	Counts       gobreaker.Counts

	// LastSuccessAt and LastFailureAt are nil until the first call of that outcome.
	LastSuccessAt *time.Time
	LastFailureAt *time.Time

	// LastError is the message of the most recent failure. Clients strip
	// request URLs before recording, so it is safe to expose on the status endpoint.
	LastError string
}

// Condition maps the circuit state.
func (h *Health) Condition() Condition {
	switch h.CircuitState {
	case gobreaker.StateClosed:
		return Healthy
	case gobreaker.StateHalfOpen:
		return Degraded
	default:
		return Unavailable
	}
}

// Registry tracks provider clients and the outcome of their most recent calls.
// Clients created with ClientConfig.Registry set register and report themselves.
type Registry struct {
	mu        sync.RWMutex
	now       func() time.Time
	providers map[string]*providerEntry
}

type providerEntry struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		now:       time.Now,
		providers: make(map[string]*providerEntry),
	}
}

// Register adds client under its name, replacing any earlier client of that name.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[client.Name()] = &providerEntry{client: client}
}

// Record stores the outcome of one call: nil err is a success. Unknown names are ignored.
func (r *Registry) Record(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[name]
	if !ok {
		return
	}
	now := r.now()
	if err == nil {
		p.lastSuccessAt = &now
		return
	}
	p.lastFailureAt = &now
	p.lastError = err.Error()
}

// Health returns the named provider's health, or nil if it is not registered.
func (r *Registry) Health(name string) *Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil
	}
	return p.health(name)
}

// Snapshot returns every provider's health, ordered by name.
func (r *Registry) Snapshot() []*Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Health, 0, len(r.providers))
	for name, p := range r.providers {
		out = append(out, p.health(name))
	}
	slices.SortFunc(out, func(a, b *Health) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (p *providerEntry) health(name string) *Health {
	return &Health{
		Name:          name,
		CircuitState:  p.client.CircuitBreakerState(),
		Counts:        p.client.CircuitBreakerCounts(),
		LastSuccessAt: p.lastSuccessAt,
		LastFailureAt: p.lastFailureAt,
		LastError:     p.lastError,
	}
}
