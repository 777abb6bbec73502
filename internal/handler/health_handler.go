package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks connectivity to the backing store. Nil when the service runs
// on the file backend, which has nothing to ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles service health and readiness checks
type HealthHandler struct {
	pinger    Pinger
	backend   string
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(pinger Pinger, backend, version string) *HealthHandler {
	return &HealthHandler{
		pinger:    pinger,
		backend:   backend,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	Store         string `json:"store"`
	StoreStatus   string `json:"store_status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Ready       bool   `json:"ready"`
	Store       string `json:"store"`
	StoreStatus string `json:"store_status"`
}

func (h *HealthHandler) storeStatus(ctx context.Context) (string, bool) {
	if h.pinger == nil {
		return "local", true
	}
	if err := h.pinger.Ping(ctx); err != nil {
		return "disconnected", false
	}
	return "connected", true
}

// Health returns the service health status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	storeStatus, _ := h.storeStatus(r.Context())

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Store:         h.backend,
		StoreStatus:   storeStatus,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	})
}

// Ready returns the service readiness status
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	storeStatus, ready := h.storeStatus(r.Context())

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadyResponse{
		Ready:       ready,
		Store:       h.backend,
		StoreStatus: storeStatus,
	})
}
