package demand

import (
	"context"
	"time"
)

// Repository defines the interface for demand data access
type Repository interface {
	// Create inserts a demand together with its neighborhoods
	Create(ctx context.Context, d *Demand) error

	// GetByID retrieves a demand by ID
	GetByID(ctx context.Context, id string) (*Demand, error)

	// List returns demands matching filter, newest first
	List(ctx context.Context, filter Filter) ([]*Demand, error)

	// Update persists the editable fields of an open demand. Status and
	// counters are left untouched.
	Update(ctx context.Context, d *Demand) error

	// UpdateStatus moves a demand from one status to another. It fails with
	// Conflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status, now time.Time) error

	// Delete removes a demand and all of its proposals
	Delete(ctx context.Context, id string) error

	// IncrementViews atomically bumps view_count
	IncrementViews(ctx context.Context, id string) error

	// Stats computes the board summary for one user
	Stats(ctx context.Context, userID string) (*Stats, error)

	// BoardReport aggregates board-wide figures
	BoardReport(ctx context.Context, recent, top int) (*BoardReport, error)
}

// ProposalRepository defines the interface for proposal data access
type ProposalRepository interface {
	// Create inserts a proposal and bumps the demand's proposal_count in the
	// same transaction. A duplicate (demand, offerer) pair is a Conflict.
	Create(ctx context.Context, p *Proposal) error

	// GetByID retrieves a proposal by ID
	GetByID(ctx context.Context, id string) (*Proposal, error)

	// ListByDemand returns a demand's proposals, newest first
	ListByDemand(ctx context.Context, demandID string) ([]*Proposal, error)

	// Exists reports whether offererID already proposed on demandID
	Exists(ctx context.Context, demandID, offererID string) (bool, error)

	// Accept moves a pending proposal to accepted and its demand to
	// in_negotiation atomically.
	Accept(ctx context.Context, id string, now time.Time) error

	// Reject moves a pending proposal to rejected
	Reject(ctx context.Context, id string, now time.Time) error

	// RejectPending rejects every pending proposal of demandID except
	// exceptID and returns the affected proposals.
	RejectPending(ctx context.Context, demandID, exceptID string, now time.Time) ([]*Proposal, error)
}
