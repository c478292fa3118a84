package demand

import (
	"context"

	"github.com/imovlocal/backend/internal/domain/user"
)

// Service defines the opportunity board operations
type Service interface {
	CreateDemand(ctx context.Context, creator *user.User, input CreateInput) (*Demand, error)
	ListDemands(ctx context.Context, requester *user.User, filter Filter) ([]*Demand, error)
	ListMine(ctx context.Context, requester *user.User) ([]*Demand, error)
	// GetDemand counts a view on every call
	GetDemand(ctx context.Context, id string) (*Demand, error)
	UpdateDemand(ctx context.Context, id string, requester *user.User, update Update) (*Demand, error)
	DeleteDemand(ctx context.Context, id string, requester *user.User) error

	CreateProposal(ctx context.Context, demandID string, offerer *user.User, input ProposalInput) (*Proposal, error)
	ListProposals(ctx context.Context, demandID string, requester *user.User) ([]*Proposal, error)
	AcceptProposal(ctx context.Context, proposalID string, requester *user.User) (*Proposal, error)
	RejectProposal(ctx context.Context, proposalID string, requester *user.User) (*Proposal, error)

	Stats(ctx context.Context, requester *user.User) (*Stats, error)
	BoardReport(ctx context.Context, requester *user.User) (*BoardReport, error)
}

// Matcher runs matchmaking for a freshly created demand. Failures are
// handled internally.
type Matcher interface {
	MatchDemand(ctx context.Context, d *Demand) int
}

// CreateInput carries the fields of a new demand
type CreateInput struct {
	PropertyType  string
	State         string
	City          string
	Neighborhoods []string
	PriceMin      float64
	PriceMax      float64
	MinBedrooms   *int
	MinGarage     *int
	MinArea       *float64
	MustHave      string
	Commission    float64
}

// ProposalInput carries the fields of a new proposal
type ProposalInput struct {
	Message    string
	PropertyID string
}

// Policy holds the switches for behaviour that is still under discussion
type Policy struct {
	// NotifyOnReject sends proposal_rejected to the offerer
	NotifyOnReject bool
	// RejectSiblingsOnAccept rejects the other pending proposals of a
	// demand when one is accepted
	RejectSiblingsOnAccept bool
}
