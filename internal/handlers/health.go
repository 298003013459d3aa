package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/univerify/univerify/internal/metrics"
	"github.com/univerify/univerify/internal/repository"
	univerify "github.com/univerify/univerify/sdk/go"
)

// healthCheckTimeout bounds the backend and database probes.
const healthCheckTimeout = 5 * time.Second

// BackendProber reports the health of the UniVerify backend.
type BackendProber interface {
	Health(ctx context.Context) (*univerify.HealthStatus, error)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     repository.HealthStatus      `json:"status"`
	Version    string                       `json:"version"`
	Timestamp  int64                        `json:"timestamp"`
	Uptime     string                       `json:"uptime"`
	Backend    *univerify.HealthStatus      `json:"backend,omitempty"`
	Components []repository.ComponentHealth `json:"components"`
	Details    map[string]any               `json:"details,omitempty"`
}

// HealthHandler probes the local database and the backend. The server is
// unhealthy (503) when the database fails and degraded (200) when only the
// backend is unreachable or reports a problem.
func HealthHandler(backend BackendProber, healthRepo repository.HealthRepository, version string, startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			metrics.HealthCheckDuration.Observe(time.Since(start).Seconds())
		}()

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		response := HealthResponse{
			Status:    repository.HealthStatusHealthy,
			Version:   version,
			Timestamp: time.Now().Unix(),
			Uptime:    time.Since(startTime).Round(time.Second).String(),
		}

		dbHealth, err := healthRepo.CheckHealth(ctx)
		if err != nil {
			slog.Error("health check: database probe failed", "error", err)
		}
		if dbHealth == nil {
			dbHealth = &repository.ComponentHealth{Name: "database", Status: repository.HealthStatusUnhealthy}
			if err != nil {
				dbHealth.Message = err.Error()
			}
		}
		response.Components = append(response.Components, *dbHealth)
		response.Status = worse(response.Status, dbHealth.Status)

		// Database stats are informational and never change the status
		if dbHealth.Status != repository.HealthStatusUnhealthy {
			stats, err := healthRepo.GetDatabaseStats(ctx)
			if err != nil {
				slog.Warn("failed to get database stats", "error", err)
			} else if stats != nil {
				response.Details = stats
			}
		}

		backendHealth := probeBackend(ctx, backend)
		response.Components = append(response.Components, backendHealth.component)
		response.Backend = backendHealth.status
		if backendHealth.component.Status != repository.HealthStatusHealthy {
			response.Status = worse(response.Status, repository.HealthStatusDegraded)
		}

		updateHealthStatusGauge(response.Status)

		httpCode := http.StatusOK
		if response.Status == repository.HealthStatusUnhealthy {
			httpCode = http.StatusServiceUnavailable
		}

		setNoCacheHeaders(w)
		sendJSON(w, httpCode, response)
	}
}

// HealthLivenessHandler answers 200 while the database connection works.
func HealthLivenessHandler(healthRepo repository.HealthRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setNoCacheHeaders(w)
		if err := healthRepo.Ping(r.Context()); err != nil {
			slog.Error("liveness check failed: database ping error", "error", err)
			sendJSON(w, http.StatusServiceUnavailable, map[string]string{"status": string(repository.HealthStatusUnhealthy)})
			return
		}
		sendJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

type backendProbe struct {
	component repository.ComponentHealth
	status    *univerify.HealthStatus
}

func probeBackend(ctx context.Context, backend BackendProber) backendProbe {
	start := time.Now()
	status, err := backend.Health(ctx)
	probe := backendProbe{
		component: repository.ComponentHealth{
			Name:    "backend",
			Status:  repository.HealthStatusHealthy,
			Latency: time.Since(start),
		},
		status: status,
	}

	switch {
	case err != nil:
		slog.Warn("health check: backend probe failed", "error", err)
		probe.component.Status = repository.HealthStatusUnhealthy
		probe.component.Message = err.Error()
	case !status.Healthy():
		probe.component.Status = repository.HealthStatusDegraded
		probe.component.Message = "backend reported status " + status.Status
	}
	return probe
}

var healthRank = map[repository.HealthStatus]int{
	repository.HealthStatusHealthy:   0,
	repository.HealthStatusDegraded:  1,
	repository.HealthStatusUnhealthy: 2,
}

// worse returns the more severe of two statuses.
func worse(a, b repository.HealthStatus) repository.HealthStatus {
	if healthRank[b] > healthRank[a] {
		return b
	}
	return a
}

// updateHealthStatusGauge sets the gauge (0 = unhealthy, 1 = degraded, 2 = healthy).
func updateHealthStatusGauge(status repository.HealthStatus) {
	switch status {
	case repository.HealthStatusHealthy:
		metrics.HealthStatus.Set(2)
	case repository.HealthStatusDegraded:
		metrics.HealthStatus.Set(1)
	default:
		metrics.HealthStatus.Set(0)
	}
}
