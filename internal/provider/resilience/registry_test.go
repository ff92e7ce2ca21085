package resilience_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demskies/demskies/internal/provider/resilience"
)

func registered(registry *resilience.Registry, names ...string) {
	for _, name := range names {
		cfg := resilience.DefaultClientConfig(name)
		cfg.Registry = registry
		resilience.NewClient(cfg)
	}
}

func TestRegistry_ClientRegistersItself(t *testing.T) {
	registry := resilience.NewRegistry()
	registered(registry, "weatherapi")

	assert.Equal(t, []string{"weatherapi"}, registry.Names())

	health := registry.Health("weatherapi")
	require.NotNil(t, health)
	assert.Equal(t, "weatherapi", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.Equal(t, resilience.Healthy, health.Condition())
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
	assert.Empty(t, health.LastError)
}

func TestRegistry_Record(t *testing.T) {
	registry := resilience.NewRegistry()
	registered(registry, "weatherapi")

	registry.Record("weatherapi", nil)
	health := registry.Health("weatherapi")
	require.NotNil(t, health.LastSuccessAt)
	assert.WithinDuration(t, time.Now(), *health.LastSuccessAt, time.Second)
	assert.Nil(t, health.LastFailureAt)

	registry.Record("weatherapi", errors.New("server error: Bad Gateway"))
	health = registry.Health("weatherapi")
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "server error: Bad Gateway", health.LastError)

	// a later success keeps the last error for the status page
	registry.Record("weatherapi", nil)
	health = registry.Health("weatherapi")
	assert.Equal(t, "server error: Bad Gateway", health.LastError)
	assert.False(t, health.LastSuccessAt.Before(*health.LastFailureAt))
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()

	assert.NotPanics(t, func() {
		registry.Record("nonexistent", nil)
		registry.Record("nonexistent", assert.AnError)
	})
	assert.Nil(t, registry.Health("nonexistent"))
	assert.Empty(t, registry.Names())
	assert.Empty(t, registry.Snapshot())
}

func TestRegistry_SnapshotSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	registered(registry, "zeta", "alpha", "mid")

	snapshot := registry.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "alpha", snapshot[0].Name)
	assert.Equal(t, "mid", snapshot[1].Name)
	assert.Equal(t, "zeta", snapshot[2].Name)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, registry.Names())
}

func TestRegistry_ReRegisterReplaces(t *testing.T) {
	registry := resilience.NewRegistry()
	registered(registry, "weatherapi")
	registry.Record("weatherapi", assert.AnError)

	registered(registry, "weatherapi")

	health := registry.Health("weatherapi")
	require.NotNil(t, health)
	assert.Nil(t, health.LastFailureAt)
}

func TestRegistry_TracksClientCalls(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("weatherapi")
	cfg.Registry = registry
	client := resilience.NewClient(cfg)

	do := func() {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	do()
	health := registry.Health("weatherapi")
	require.NotNil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)

	status = http.StatusBadGateway
	do()
	health = registry.Health("weatherapi")
	require.NotNil(t, health.LastFailureAt)
	assert.Contains(t, health.LastError, "Bad Gateway")

	// 4xx is a successful round trip as far as provider health goes
	status = http.StatusBadRequest
	do()
	health = registry.Health("weatherapi")
	assert.False(t, health.LastSuccessAt.Before(*health.LastFailureAt))
	assert.Equal(t, uint32(3), health.Counts.Requests)
}

func TestHealth_Condition(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  resilience.Condition
	}{
		{gobreaker.StateClosed, resilience.Healthy},
		{gobreaker.StateHalfOpen, resilience.Degraded},
		{gobreaker.StateOpen, resilience.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.Health{CircuitState: tt.state}
			assert.Equal(t, tt.want, h.Condition())
			assert.NotEmpty(t, h.Condition().String())
		})
	}
}
