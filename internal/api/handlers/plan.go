package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/imovlocal/backend/internal/api/dto"
	"github.com/imovlocal/backend/internal/domain/plan"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/utils"
)

// PlanHandler serves the plan catalog and listing limits
type PlanHandler struct {
	service plan.Service
	logger  *logger.Logger
}

func NewPlanHandler(service plan.Service, log *logger.Logger) *PlanHandler {
	return &PlanHandler{service: service, logger: log}
}

// List returns the plan catalog
// @Summary List plans
// @Tags Plans
// @Produce json
// @Success 200 {object} dto.PlanListDTO
// @Router /plans [get]
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, dto.PlanListDTO{Plans: h.service.List(r.Context())})
}

// Get returns one plan
// @Summary Get plan
// @Tags Plans
// @Produce json
// @Param planID path string true "Plan ID"
// @Success 200 {object} plan.Plan
// @Failure 404 {object} utils.ErrorResponse "Plan not found"
// @Router /plans/{planID} [get]
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		respondError(w, h.logger, err, "Failed to get plan")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, p)
}

// Limits reports the caller's listing quota
// @Summary Check listing limits
// @Tags Plans
// @Produce json
// @Success 200 {object} plan.Limits
// @Security BearerAuth
// @Router /payments/plans/limits [get]
func (h *PlanHandler) Limits(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	limits, err := h.service.CheckLimits(r.Context(), u.ID)
	if err != nil {
		respondError(w, h.logger, err, "Failed to check limits")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, limits)
}
