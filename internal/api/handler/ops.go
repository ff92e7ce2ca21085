// Package handler provides the HTTP handlers of the API server.
package handler

import (
	"net/http"
	"time"

	"github.com/demskies/demskies/internal/api/models"
	"github.com/demskies/demskies/internal/api/response"
	"github.com/demskies/demskies/internal/astronomy"
	"github.com/demskies/demskies/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	catalog   *astronomy.Catalog
}

// NewOpsHandler creates a new OpsHandler. registry may be nil when no
// provider clients are tracked.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, catalog *astronomy.Catalog) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		catalog:   catalog,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Version:   h.version,
		BuildTime: h.buildTime,
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the
// astronomy catalog is loaded; provider outages degrade lookups but do not
// take the instance out of rotation.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil || h.catalog.Len() == 0 {
		response.ServiceUnavailable(w, r, "astronomy catalog not loaded")
		return
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.catalogStatus()},
		Providers:  []models.ProviderStatus{},
	}

	if h.registry != nil {
		for _, ph := range h.registry.Snapshot() {
			ps := providerStatus(ph)
			status.Providers = append(status.Providers, ps)
			status.Status = worst(status.Status, ps.Status)
		}
	}
	for _, s := range status.Subsystems {
		status.Status = worst(status.Status, s.Status)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) catalogStatus() models.SubsystemStatus {
	if h.catalog == nil || h.catalog.Len() == 0 {
		detail := "no events loaded"
		return models.SubsystemStatus{Name: "astronomy-catalog", Status: models.HealthStatusFail, Detail: &detail}
	}
	detail := "version " + h.catalog.Version()
	return models.SubsystemStatus{Name: "astronomy-catalog", Status: models.HealthStatusOK, Detail: &detail}
}

func providerStatus(ph *resilience.Health) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            ph.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        ph.CircuitState.String(),
		Requests:            ph.Counts.Requests,
		ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
	}

	switch ph.Condition() {
	case resilience.Unavailable:
		ps.Status = models.HealthStatusFail
	case resilience.Degraded:
		ps.Status = models.HealthStatusDegraded
	}

	if ph.LastSuccessAt != nil {
		ts := models.Timestamp(*ph.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if ph.LastFailureAt != nil {
		ts := models.Timestamp(*ph.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}

	return ps
}

var severity = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}
