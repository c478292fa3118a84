package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imovlocal/backend/internal/domain/demand"
	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/domain/property"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/metrics"
	"github.com/imovlocal/backend/internal/pkg/utils"
)

const (
	boardReportRecent = 10
	boardReportTop    = 5
)

// DemandService implements demand.Service
type DemandService struct {
	demands    demand.Repository
	proposals  demand.ProposalRepository
	properties property.Repository
	matcher    demand.Matcher
	notifier   Notifier
	policy     demand.Policy
	logger     *logger.Logger
	now        func() time.Time
}

// NewDemandService creates a new demand service
func NewDemandService(
	demands demand.Repository,
	proposals demand.ProposalRepository,
	properties property.Repository,
	matcher demand.Matcher,
	notifier Notifier,
	policy demand.Policy,
	log *logger.Logger,
) *DemandService {
	return &DemandService{
		demands:    demands,
		proposals:  proposals,
		properties: properties,
		matcher:    matcher,
		notifier:   notifier,
		policy:     policy,
		logger:     log.WithComponent("opportunities"),
		now:        time.Now,
	}
}

func requireProfessional(u *user.User, action string) error {
	if u == nil || !u.IsProfessional() {
		return errors.Forbidden("Only brokers and agencies can " + action)
	}
	return nil
}

func cleanNeighborhoods(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, n := range in {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// validateDemand checks the invariants every stored demand must satisfy
func validateDemand(d *demand.Demand) error {
	if d.PropertyType == "" {
		return errors.ValidationError("Property type is required", map[string]string{"field": "property_type"})
	}
	if len(d.Neighborhoods) == 0 {
		return errors.ValidationError("At least one neighborhood is required", map[string]string{"field": "neighborhoods"})
	}
	if d.PriceMin < 0 {
		return errors.ValidationError("Minimum price cannot be negative", map[string]string{"field": "price_min"})
	}
	if d.PriceMin >= d.PriceMax {
		return errors.ValidationError("Minimum price must be lower than maximum price", map[string]string{"field": "price_min"})
	}
	if d.Commission < 0 || d.Commission > 100 {
		return errors.ValidationError("Commission must be between 0 and 100", map[string]string{"field": "commission"})
	}
	if d.MinBedrooms != nil && *d.MinBedrooms < 0 {
		return errors.ValidationError("Minimum bedrooms cannot be negative", map[string]string{"field": "min_bedrooms"})
	}
	if d.MinGarage != nil && *d.MinGarage < 0 {
		return errors.ValidationError("Minimum garage spaces cannot be negative", map[string]string{"field": "min_garage"})
	}
	if d.MinArea != nil && *d.MinArea < 0 {
		return errors.ValidationError("Minimum area cannot be negative", map[string]string{"field": "min_area"})
	}
	return nil
}

// CreateDemand posts a demand and runs matchmaking once it is stored
func (s *DemandService) CreateDemand(ctx context.Context, creator *user.User, input demand.CreateInput) (*demand.Demand, error) {
	if err := requireProfessional(creator, "post demands"); err != nil {
		return nil, err
	}

	d := &demand.Demand{
		CreatorID:     creator.ID,
		CreatorName:   creator.Name,
		CreatorPhone:  creator.Phone,
		CreatorCreci:  creator.Creci,
		PropertyType:  strings.TrimSpace(input.PropertyType),
		State:         strings.TrimSpace(input.State),
		City:          strings.TrimSpace(input.City),
		Neighborhoods: cleanNeighborhoods(input.Neighborhoods),
		PriceMin:      input.PriceMin,
		PriceMax:      input.PriceMax,
		MinBedrooms:   input.MinBedrooms,
		MinGarage:     input.MinGarage,
		MinArea:       input.MinArea,
		MustHave:      strings.TrimSpace(input.MustHave),
		Commission:    input.Commission,
		Status:        demand.StatusActive,
	}
	if err := validateDemand(d); err != nil {
		return nil, err
	}

	if err := s.demands.Create(ctx, d); err != nil {
		return nil, err
	}
	metrics.RecordDemandCreated(d.PropertyType)

	s.logger.WithFields(map[string]interface{}{
		"demand_id":  d.ID,
		"creator_id": creator.ID,
	}).Info("Demand created")

	if s.matcher != nil {
		s.matcher.MatchDemand(ctx, d)
	}
	return d, nil
}

// ListDemands lists the board. Status defaults to active.
func (s *DemandService) ListDemands(ctx context.Context, requester *user.User, filter demand.Filter) ([]*demand.Demand, error) {
	if err := requireProfessional(requester, "access the opportunity board"); err != nil {
		return nil, err
	}
	if filter.Status == "" {
		filter.Status = demand.StatusActive
	} else if !filter.Status.IsValid() {
		return nil, errors.ValidationError("Invalid status", map[string]string{"field": "status", "value": string(filter.Status)})
	}
	if filter.Limit <= 0 {
		filter.Limit = utils.DefaultLimit
	}
	if filter.Limit > utils.MaxLimit {
		filter.Limit = utils.MaxLimit
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	return s.demands.List(ctx, filter)
}

// ListMine lists every demand the requester created, in any status
func (s *DemandService) ListMine(ctx context.Context, requester *user.User) ([]*demand.Demand, error) {
	if err := requireProfessional(requester, "access the opportunity board"); err != nil {
		return nil, err
	}
	return s.demands.List(ctx, demand.Filter{CreatorID: requester.ID})
}

// GetDemand returns a demand and counts the read as a view
func (s *DemandService) GetDemand(ctx context.Context, id string) (*demand.Demand, error) {
	if err := s.demands.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	return s.demands.GetByID(ctx, id)
}

func (s *DemandService) getOwned(ctx context.Context, id string, requester *user.User, action string) (*demand.Demand, error) {
	d, err := s.demands.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if requester == nil || d.CreatorID != requester.ID {
		return nil, errors.Forbidden("Only the demand creator can " + action)
	}
	return d, nil
}

// UpdateDemand edits a demand. Only its creator may do so.
func (s *DemandService) UpdateDemand(ctx context.Context, id string, requester *user.User, update demand.Update) (*demand.Demand, error) {
	d, err := s.getOwned(ctx, id, requester, "update it")
	if err != nil {
		return nil, err
	}
	if d.Status.IsTerminal() {
		return nil, errors.ValidationError("Demand is "+string(d.Status)+" and can no longer change",
			map[string]string{"field": "status"})
	}

	if update.PropertyType != nil {
		d.PropertyType = strings.TrimSpace(*update.PropertyType)
	}
	if update.State != nil {
		d.State = strings.TrimSpace(*update.State)
	}
	if update.City != nil {
		d.City = strings.TrimSpace(*update.City)
	}
	if update.Neighborhoods != nil {
		d.Neighborhoods = cleanNeighborhoods(update.Neighborhoods)
	}
	if update.PriceMin != nil {
		d.PriceMin = *update.PriceMin
	}
	if update.PriceMax != nil {
		d.PriceMax = *update.PriceMax
	}
	if update.MinBedrooms != nil {
		d.MinBedrooms = update.MinBedrooms
	}
	if update.MinGarage != nil {
		d.MinGarage = update.MinGarage
	}
	if update.MinArea != nil {
		d.MinArea = update.MinArea
	}
	if update.MustHave != nil {
		d.MustHave = strings.TrimSpace(*update.MustHave)
	}
	if update.Commission != nil {
		d.Commission = *update.Commission
	}
	from := d.Status
	if update.Status != nil && *update.Status != from {
		if !update.Status.IsValid() || !from.CanTransitionTo(*update.Status) {
			return nil, errors.ValidationError(
				fmt.Sprintf("Cannot move demand from %s to %s", from, *update.Status),
				map[string]string{"field": "status"})
		}
		d.Status = *update.Status
	}
	if err := validateDemand(d); err != nil {
		return nil, err
	}

	// The status moves only from the value read above, so a concurrent
	// accept is never overwritten.
	now := s.now().UTC()
	if d.Status != from {
		if err := s.demands.UpdateStatus(ctx, d.ID, from, d.Status, now); err != nil {
			return nil, err
		}
	}
	if err := s.demands.Update(ctx, d); err != nil {
		return nil, err
	}
	return s.demands.GetByID(ctx, d.ID)
}

// DeleteDemand removes a demand and its proposals. Only its creator may do so.
func (s *DemandService) DeleteDemand(ctx context.Context, id string, requester *user.User) error {
	if _, err := s.getOwned(ctx, id, requester, "delete it"); err != nil {
		return err
	}
	if err := s.demands.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(map[string]interface{}{
		"demand_id":  id,
		"creator_id": requester.ID,
	}).Info("Demand deleted")
	return nil
}

// CreateProposal answers a demand on behalf of offerer
func (s *DemandService) CreateProposal(ctx context.Context, demandID string, offerer *user.User, input demand.ProposalInput) (*demand.Proposal, error) {
	d, err := s.demands.GetByID(ctx, demandID)
	if err != nil {
		return nil, err
	}
	if d.Status != demand.StatusActive {
		return nil, errors.ValidationError("Demand is not active", map[string]string{"field": "status"})
	}
	if err := requireProfessional(offerer, "send proposals"); err != nil {
		return nil, err
	}
	if d.CreatorID == offerer.ID {
		return nil, errors.ValidationError("You cannot send a proposal to your own demand", map[string]string{"field": "demand_id"})
	}
	exists, err := s.proposals.Exists(ctx, demandID, offerer.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Conflict("You have already submitted a proposal for this demand")
	}

	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, errors.ValidationError("Message is required", map[string]string{"field": "message"})
	}

	p := &demand.Proposal{
		DemandID:     demandID,
		OffererID:    offerer.ID,
		OffererName:  offerer.Name,
		OffererPhone: offerer.Phone,
		OffererCreci: offerer.Creci,
		Message:      message,
		Status:       demand.ProposalPending,
	}
	if input.PropertyID != "" {
		prop, err := s.properties.GetByID(ctx, input.PropertyID)
		if err != nil {
			return nil, err
		}
		if prop.OwnerID != offerer.ID {
			return nil, errors.Forbidden("You can only offer your own listings")
		}
		price := prop.Price
		p.PropertyID = prop.ID
		p.PropertyTitle = prop.Title
		p.PropertyPrice = &price
	}

	if err := s.proposals.Create(ctx, p); err != nil {
		return nil, err
	}
	metrics.RecordProposal(string(p.Status))

	s.notify(ctx, d.CreatorID, notification.TypeProposal,
		"Nova proposta recebida",
		fmt.Sprintf("%s enviou uma proposta para sua demanda de %s.", offerer.Name, d.PropertyType),
		map[string]interface{}{
			"demand_id":      d.ID,
			"proposal_id":    p.ID,
			"property_title": p.PropertyTitle,
		})

	return p, nil
}

// ListProposals lists a demand's proposals. Only its creator may see them.
func (s *DemandService) ListProposals(ctx context.Context, demandID string, requester *user.User) ([]*demand.Proposal, error) {
	if _, err := s.getOwned(ctx, demandID, requester, "view its proposals"); err != nil {
		return nil, err
	}
	return s.proposals.ListByDemand(ctx, demandID)
}

func (s *DemandService) proposalForCreator(ctx context.Context, proposalID string, requester *user.User, action string) (*demand.Proposal, *demand.Demand, error) {
	p, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	d, err := s.getOwned(ctx, p.DemandID, requester, action)
	if err != nil {
		return nil, nil, err
	}
	return p, d, nil
}

// AcceptProposal accepts a pending proposal and moves its demand to
// in_negotiation
func (s *DemandService) AcceptProposal(ctx context.Context, proposalID string, requester *user.User) (*demand.Proposal, error) {
	p, d, err := s.proposalForCreator(ctx, proposalID, requester, "accept proposals")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.proposals.Accept(ctx, p.ID, now); err != nil {
		return nil, err
	}
	p.Status = demand.ProposalAccepted
	p.UpdatedAt = &now
	metrics.RecordProposal(string(p.Status))

	s.notify(ctx, p.OffererID, notification.TypeProposalAccepted,
		"Proposta aceita!",
		fmt.Sprintf("%s aceitou sua proposta. Entre em contato pelo telefone %s.", requester.Name, requester.Phone),
		map[string]interface{}{
			"demand_id":      d.ID,
			"proposal_id":    p.ID,
			"acceptor_name":  requester.Name,
			"acceptor_phone": requester.Phone,
		})

	if s.policy.RejectSiblingsOnAccept {
		siblings, err := s.proposals.RejectPending(ctx, d.ID, p.ID, now)
		if err != nil {
			s.logger.With("demand_id", d.ID).ErrorWithErr(err, "Failed to reject competing proposals")
		}
		for _, sib := range siblings {
			metrics.RecordProposal(string(sib.Status))
			s.notifyRejected(ctx, sib, d)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"demand_id":   d.ID,
		"proposal_id": p.ID,
	}).Info("Proposal accepted")
	return p, nil
}

// RejectProposal rejects a pending proposal
func (s *DemandService) RejectProposal(ctx context.Context, proposalID string, requester *user.User) (*demand.Proposal, error) {
	p, d, err := s.proposalForCreator(ctx, proposalID, requester, "reject proposals")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.proposals.Reject(ctx, p.ID, now); err != nil {
		return nil, err
	}
	p.Status = demand.ProposalRejected
	p.UpdatedAt = &now
	metrics.RecordProposal(string(p.Status))

	s.notifyRejected(ctx, p, d)
	return p, nil
}

func (s *DemandService) notifyRejected(ctx context.Context, p *demand.Proposal, d *demand.Demand) {
	if !s.policy.NotifyOnReject {
		return
	}
	s.notify(ctx, p.OffererID, notification.TypeProposalRejected,
		"Proposta recusada",
		fmt.Sprintf("Sua proposta para a demanda de %s não foi aceita.", d.PropertyType),
		map[string]interface{}{
			"demand_id":   d.ID,
			"proposal_id": p.ID,
		})
}

// notify sends a notification after a committed transition; failures are
// logged only
func (s *DemandService) notify(ctx context.Context, userID string, t notification.Type, title, message string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Create(ctx, userID, t, title, message, data); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"type":    t,
		}).ErrorWithErr(err, "Failed to send notification")
	}
}

// Stats summarises the requester's board activity
func (s *DemandService) Stats(ctx context.Context, requester *user.User) (*demand.Stats, error) {
	if err := requireProfessional(requester, "access the opportunity board"); err != nil {
		return nil, err
	}
	return s.demands.Stats(ctx, requester.ID)
}

// BoardReport is the admin overview of the board
func (s *DemandService) BoardReport(ctx context.Context, requester *user.User) (*demand.BoardReport, error) {
	if requester == nil || !requester.IsAdmin() {
		return nil, errors.Forbidden("Only admins can view the board report")
	}
	return s.demands.BoardReport(ctx, boardReportRecent, boardReportTop)
}
