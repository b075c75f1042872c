package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/oratio-labs/oratio-svc/types"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /api/health. A nil pinger degrades to a pure
// liveness check.
type HealthHandler struct {
	pinger  Pinger
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates the health endpoint.
func NewHealthHandler(pinger Pinger, version string, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{pinger: pinger, version: version, logger: logger}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, types.ErrServiceUnavailable, "database unreachable", h.logger)
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: h.version}, h.logger)
}
