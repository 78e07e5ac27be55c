package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/mstgnz/carepay/infra/response"
)

// failingOutboxThreshold marks the hand-off degraded once this many tasks keep failing
const failingOutboxThreshold = 10

// HealthStore is the storage surface the readiness check probes
type HealthStore interface {
	Ping(ctx context.Context) error
	OutboxStats(ctx context.Context) (pending int, failing int, err error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	store       HealthStore
	environment string
	version     string
	startTime   time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string          `json:"status"`
	Version     string          `json:"version"`
	Timestamp   time.Time       `json:"timestamp"`
	Uptime      string          `json:"uptime"`
	Environment string          `json:"environment"`
	Database    *DatabaseHealth `json:"database"`
	Outbox      *OutboxHealth   `json:"outbox"`
	System      *SystemHealth   `json:"system"`
}

// DatabaseHealth represents database health status
type DatabaseHealth struct {
	Status       string `json:"status"`
	Connected    bool   `json:"connected"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// OutboxHealth reports the rebalancing hand-off backlog
type OutboxHealth struct {
	Status  string `json:"status"`
	Pending int    `json:"pending"`
	Failing int    `json:"failing"`
	Error   string `json:"error,omitempty"`
}

// SystemHealth represents process resource usage
type SystemHealth struct {
	Alloc      string `json:"alloc"`
	Sys        string `json:"sys"`
	GCRuns     uint32 `json:"gc_runs"`
	GoRoutines int    `json:"goroutines"`
}

// NewHealthHandler creates a new health handler; store may be nil
func NewHealthHandler(store HealthStore, environment, version string) *HealthHandler {
	return &HealthHandler{
		store:       store,
		environment: environment,
		version:     version,
		startTime:   time.Now(),
	}
}

// Ping handles GET /health_check/ping
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	_ = response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CheckHealth reports readiness of the store and the outbox relay backlog
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := &HealthStatus{
		Version:     h.version,
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: h.environment,
		Database:    h.checkDatabase(ctx),
		Outbox:      h.checkOutbox(ctx),
		System:      checkSystem(),
	}
	health.Status = determineOverallStatus(health)

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	_ = response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) *DatabaseHealth {
	if h.store == nil {
		return &DatabaseHealth{Status: "not_configured", Error: "Database not configured"}
	}

	start := time.Now()
	err := h.store.Ping(ctx)
	elapsed := time.Since(start)

	db := &DatabaseHealth{ResponseTime: fmt.Sprintf("%.0fms", float64(elapsed.Microseconds())/1e3)}
	switch {
	case err != nil:
		db.Status = "unhealthy"
		db.Error = err.Error()
	case elapsed > time.Second:
		db.Status = "degraded"
		db.Connected = true
	default:
		db.Status = "healthy"
		db.Connected = true
	}
	return db
}

func (h *HealthHandler) checkOutbox(ctx context.Context) *OutboxHealth {
	if h.store == nil {
		return &OutboxHealth{Status: "not_configured"}
	}

	pending, failing, err := h.store.OutboxStats(ctx)
	if err != nil {
		return &OutboxHealth{Status: "unknown", Error: err.Error()}
	}

	outbox := &OutboxHealth{Status: "healthy", Pending: pending, Failing: failing}
	if failing >= failingOutboxThreshold {
		outbox.Status = "degraded"
	}
	return outbox
}

func checkSystem() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemHealth{
		Alloc:      formatBytes(memStats.Alloc),
		Sys:        formatBytes(memStats.Sys),
		GCRuns:     memStats.NumGC,
		GoRoutines: runtime.NumGoroutine(),
	}
}

func determineOverallStatus(health *HealthStatus) string {
	if health.Database == nil || health.Database.Status == "unhealthy" || health.Database.Status == "not_configured" {
		return "unhealthy"
	}
	if health.Database.Status == "degraded" || health.Outbox.Status != "healthy" {
		return "degraded"
	}
	return "healthy"
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
