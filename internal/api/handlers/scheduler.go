package handlers

import (
	"context"
	"net/http"

	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/utils"
	"github.com/imovlocal/backend/internal/worker"
)

// SweepRunner runs one plan expiration sweep
type SweepRunner interface {
	RunOnce(ctx context.Context) *worker.SweepResult
}

// SchedulerHandler exposes manual scheduler runs to admins
type SchedulerHandler struct {
	runner SweepRunner
	logger *logger.Logger
}

func NewSchedulerHandler(runner SweepRunner, log *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{runner: runner, logger: log}
}

// Run sweeps expired and expiring plans now
// @Summary Run plan expiration sweep
// @Tags Admin
// @Produce json
// @Success 200 {object} worker.SweepResult
// @Failure 403 {object} utils.ErrorResponse "Admin only"
// @Security BearerAuth
// @Router /admin/scheduler/run [post]
func (h *SchedulerHandler) Run(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	res := h.runner.RunOnce(r.Context())
	h.logger.WithFields(map[string]interface{}{
		"admin_id":      u.ID,
		"expired":       res.Expired,
		"expiring_soon": res.ExpiringSoon,
		"errors":        res.Errors,
	}).Info("Manual plan expiration sweep")

	utils.WriteSuccess(w, http.StatusOK, res)
}
