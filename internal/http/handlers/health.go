package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks a dependency's liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and datastore health.
type HealthHandler struct {
	db      Pinger
	version string
}

// NewHealthHandler creates a health check handler. db may be nil when the
// service runs without a datastore (tests, dry runs).
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database,omitempty"`
	Time     string `json:"time"`
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	writeJSON(w, status, resp)
}
