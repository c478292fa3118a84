package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/utils"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SchedulerState reports whether the plan expiration cron is running
type SchedulerState interface {
	IsRunning() bool
}

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	db             Pinger
	scheduler      SchedulerState
	storageBackend string
	logger         *logger.Logger
}

// NewHealthHandler creates a new health handler. scheduler may be nil.
func NewHealthHandler(db Pinger, scheduler SchedulerState, storageBackend string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:             db,
		scheduler:      scheduler,
		storageBackend: storageBackend,
		logger:         log,
	}
}

// Healthz handles liveness probe
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Readyz reports database connectivity plus the scheduler and receipt
// storage in use. Only the database decides readiness.
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} utils.ErrorResponse
// @Router /ready [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorWithErr(err, "Database ping failed")
		utils.WriteErrorMessage(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database connection failed")
		return
	}

	scheduler := "disabled"
	if h.scheduler != nil && h.scheduler.IsRunning() {
		scheduler = "running"
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":          "ready",
		"database":        "connected",
		"scheduler":       scheduler,
		"receipt_storage": h.storageBackend,
	})
}
