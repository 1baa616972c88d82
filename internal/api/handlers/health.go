package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/firmaria/docsign/internal/store"
)

// HealthHandler reports service liveness and database reachability.
type HealthHandler struct {
	store   store.Store
	version string
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(st store.Store, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:   st,
		version: version,
		logger:  logger,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Version: h.version, Database: "ok"}
	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("health check database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	WriteJSON(w, status, resp)
}
