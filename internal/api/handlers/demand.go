package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/imovlocal/backend/internal/api/dto"
	"github.com/imovlocal/backend/internal/domain/demand"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/utils"
	"github.com/imovlocal/backend/internal/pkg/validator"
)

// DemandHandler serves the opportunity board
type DemandHandler struct {
	service   demand.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewDemandHandler(service demand.Service, log *logger.Logger, val *validator.Validator) *DemandHandler {
	return &DemandHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// Create posts a new demand and triggers matchmaking
// @Summary Create demand
// @Description Post a "looking for" request on the opportunity board. Owners of matching listings are notified.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param request body dto.CreateDemandRequest true "Demand"
// @Success 201 {object} demand.Demand
// @Failure 400 {object} utils.ErrorResponse "Validation error"
// @Failure 403 {object} utils.ErrorResponse "Not a broker or agency"
// @Security BearerAuth
// @Router /demands [post]
func (h *DemandHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateDemandRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	d, err := h.service.CreateDemand(r.Context(), u, req.ToInput())
	if err != nil {
		respondError(w, h.logger, err, "Failed to create demand")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, d)
}

// List returns board demands
// @Summary List demands
// @Tags Opportunities
// @Produce json
// @Param status query string false "Demand status (default: active)"
// @Param property_type query string false "Property type"
// @Param neighborhood query string false "Neighborhood"
// @Param price_min query number false "Keep demands whose lower bound is at most this"
// @Param price_max query number false "Keep demands whose upper bound is at least this"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} demand.Demand
// @Security BearerAuth
// @Router /demands [get]
func (h *DemandHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	priceMin, okMin := utils.QueryFloat(r, "price_min")
	priceMax, okMax := utils.QueryFloat(r, "price_max")
	if !okMin || !okMax {
		utils.WriteError(w, errors.ValidationError("Price filters must be numbers", nil))
		return
	}
	page := utils.ParsePaginationParams(r)

	demands, err := h.service.ListDemands(r.Context(), u, demand.Filter{
		Status:       demand.Status(q.Get("status")),
		PropertyType: q.Get("property_type"),
		Neighborhood: q.Get("neighborhood"),
		PriceMin:     priceMin,
		PriceMax:     priceMax,
		Skip:         page.Skip,
		Limit:        page.Limit,
	})
	if err != nil {
		respondError(w, h.logger, err, "Failed to list demands")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, emptyIfNil(demands))
}

// Mine returns the caller's own demands in any status
// @Summary List my demands
// @Tags Opportunities
// @Produce json
// @Success 200 {array} demand.Demand
// @Security BearerAuth
// @Router /demands/mine [get]
func (h *DemandHandler) Mine(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	demands, err := h.service.ListMine(r.Context(), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to list own demands")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, emptyIfNil(demands))
}

// Get returns one demand and counts a view
// @Summary Get demand
// @Tags Opportunities
// @Produce json
// @Param id path string true "Demand ID"
// @Success 200 {object} demand.Demand
// @Failure 404 {object} utils.ErrorResponse "Demand not found"
// @Security BearerAuth
// @Router /demands/{id} [get]
func (h *DemandHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	d, err := h.service.GetDemand(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err, "Failed to get demand")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, d)
}

// Update edits a demand. Only the creator may do it.
// @Summary Update demand
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Demand ID"
// @Param request body dto.UpdateDemandRequest true "Fields to change"
// @Success 200 {object} demand.Demand
// @Failure 400 {object} utils.ErrorResponse "Validation error"
// @Failure 403 {object} utils.ErrorResponse "Not the creator"
// @Failure 404 {object} utils.ErrorResponse "Demand not found"
// @Security BearerAuth
// @Router /demands/{id} [put]
func (h *DemandHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.UpdateDemandRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	d, err := h.service.UpdateDemand(r.Context(), chi.URLParam(r, "id"), u, req.ToUpdate())
	if err != nil {
		respondError(w, h.logger, err, "Failed to update demand")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, d)
}

// Delete removes a demand and its proposals
// @Summary Delete demand
// @Tags Opportunities
// @Param id path string true "Demand ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse "Not the creator"
// @Failure 404 {object} utils.ErrorResponse "Demand not found"
// @Security BearerAuth
// @Router /demands/{id} [delete]
func (h *DemandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDemand(r.Context(), chi.URLParam(r, "id"), u); err != nil {
		respondError(w, h.logger, err, "Failed to delete demand")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Demand deleted", nil)
}

// CreateProposal answers a demand
// @Summary Create proposal
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Demand ID"
// @Param request body dto.CreateProposalRequest true "Proposal"
// @Success 201 {object} demand.Proposal
// @Failure 400 {object} utils.ErrorResponse "Validation error"
// @Failure 403 {object} utils.ErrorResponse "Own demand or not a broker"
// @Failure 404 {object} utils.ErrorResponse "Demand not found"
// @Failure 409 {object} utils.ErrorResponse "Already proposed"
// @Security BearerAuth
// @Router /demands/{id}/proposals [post]
func (h *DemandHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateProposalRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	p, err := h.service.CreateProposal(r.Context(), chi.URLParam(r, "id"), u, req.ToInput())
	if err != nil {
		respondError(w, h.logger, err, "Failed to create proposal")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, p)
}

// ListProposals returns the proposals on a demand. Creator only.
// @Summary List proposals
// @Tags Opportunities
// @Produce json
// @Param id path string true "Demand ID"
// @Success 200 {array} demand.Proposal
// @Failure 403 {object} utils.ErrorResponse "Not the creator"
// @Failure 404 {object} utils.ErrorResponse "Demand not found"
// @Security BearerAuth
// @Router /demands/{id}/proposals [get]
func (h *DemandHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	proposals, err := h.service.ListProposals(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to list proposals")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, emptyIfNil(proposals))
}

// AcceptProposal accepts a proposal and moves the demand to negotiation
// @Summary Accept proposal
// @Tags Opportunities
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} dto.ProposalActionResponse
// @Failure 403 {object} utils.ErrorResponse "Not the demand creator"
// @Failure 404 {object} utils.ErrorResponse "Proposal not found"
// @Security BearerAuth
// @Router /proposals/{id}/accept [put]
func (h *DemandHandler) AcceptProposal(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	p, err := h.service.AcceptProposal(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to accept proposal")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.ProposalActionResponse{Message: "Proposta aceita", Proposal: p})
}

// RejectProposal rejects a proposal
// @Summary Reject proposal
// @Tags Opportunities
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} dto.ProposalActionResponse
// @Failure 403 {object} utils.ErrorResponse "Not the demand creator"
// @Failure 404 {object} utils.ErrorResponse "Proposal not found"
// @Security BearerAuth
// @Router /proposals/{id}/reject [put]
func (h *DemandHandler) RejectProposal(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	p, err := h.service.RejectProposal(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to reject proposal")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.ProposalActionResponse{Message: "Proposta recusada", Proposal: p})
}

// Stats returns the caller's board activity
// @Summary My board stats
// @Tags Opportunities
// @Produce json
// @Success 200 {object} demand.Stats
// @Security BearerAuth
// @Router /demands/stats [get]
func (h *DemandHandler) Stats(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to get board stats")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, stats)
}

// BoardReport is the admin overview of the board
// @Summary Opportunity board report
// @Tags Admin
// @Produce json
// @Success 200 {object} demand.BoardReport
// @Failure 403 {object} utils.ErrorResponse "Admin only"
// @Security BearerAuth
// @Router /admin/opportunities [get]
func (h *DemandHandler) BoardReport(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	report, err := h.service.BoardReport(r.Context(), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to build board report")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, report)
}
