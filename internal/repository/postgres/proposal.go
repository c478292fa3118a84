package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/imovlocal/backend/internal/domain/demand"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

// ProposalRepository implements demand.ProposalRepository
type ProposalRepository struct {
	db *DB
}

// NewProposalRepository creates a new proposal repository
func NewProposalRepository(db *DB) demand.ProposalRepository {
	return &ProposalRepository{db: db}
}

const proposalColumns = `id, demand_id, property_id, property_title, property_price, offerer_id, offerer_name,
	offerer_phone, offerer_creci, message, status, created_at, updated_at`

func scanProposal(row rowScanner) (*demand.Proposal, error) {
	var p demand.Proposal
	var price sql.NullFloat64
	var updatedAt sql.NullTime
	err := row.Scan(&p.ID, &p.DemandID, &p.PropertyID, &p.PropertyTitle, &price, &p.OffererID, &p.OffererName,
		&p.OffererPhone, &p.OffererCreci, &p.Message, &p.Status, &p.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		v := price.Float64
		p.PropertyPrice = &v
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = timePtr(updatedAt)
	return &p, nil
}

// Create inserts the proposal and bumps the demand counter. The counter
// update only succeeds while the demand is still active.
func (r *ProposalRepository) Create(ctx context.Context, p *demand.Proposal) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = demand.ProposalPending
	}
	p.CreatedAt = time.Now().UTC()

	return r.db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO proposals (`+proposalColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.DemandID, p.PropertyID, p.PropertyTitle, nullFloat(p.PropertyPrice), p.OffererID, p.OffererName,
			p.OffererPhone, p.OffererCreci, p.Message, p.Status, p.CreatedAt, nullTime(p.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return errors.Conflict("You have already submitted a proposal for this demand")
		}
		if err != nil {
			return errors.DatabaseError("Failed to create proposal", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE demands SET proposal_count = proposal_count + 1 WHERE id = ? AND status = ?`,
			p.DemandID, demand.StatusActive,
		)
		if err != nil {
			return errors.DatabaseError("Failed to update proposal count", err)
		}
		changed, err := rowsChanged(res)
		if err != nil {
			return errors.DatabaseError("Failed to get affected rows", err)
		}
		if !changed {
			return errors.ValidationError("Demand is not active", map[string]string{"field": "status"})
		}
		return nil
	})
}

func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*demand.Proposal, error) {
	p, err := scanProposal(r.db.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Proposal")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get proposal", err)
	}
	return p, nil
}

func (r *ProposalRepository) ListByDemand(ctx context.Context, demandID string) ([]*demand.Proposal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE demand_id = ? ORDER BY created_at DESC, id DESC`, demandID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list proposals", err)
	}
	defer rows.Close()
	return collectProposals(rows)
}

func collectProposals(rows *sql.Rows) ([]*demand.Proposal, error) {
	proposals := []*demand.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan proposal", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list proposals", err)
	}
	return proposals, nil
}

func (r *ProposalRepository) Exists(ctx context.Context, demandID, offererID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM proposals WHERE demand_id = ? AND offerer_id = ?`, demandID, offererID,
	).Scan(&n)
	if err != nil {
		return false, errors.DatabaseError("Failed to check proposal", err)
	}
	return n > 0, nil
}

// Accept flips the proposal and its demand in one transaction
func (r *ProposalRepository) Accept(ctx context.Context, id string, now time.Time) error {
	now = now.UTC()
	return r.db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE proposals SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			demand.ProposalAccepted, now, id, demand.ProposalPending,
		)
		if err != nil {
			return errors.DatabaseError("Failed to accept proposal", err)
		}
		if changed, err := rowsChanged(res); err != nil {
			return errors.DatabaseError("Failed to get affected rows", err)
		} else if !changed {
			return errors.ValidationError("Proposal is not pending", map[string]string{"field": "status"})
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE demands SET status = ?, updated_at = ?
			WHERE id = (SELECT demand_id FROM proposals WHERE id = ?) AND status IN (?, ?)`,
			demand.StatusInNegotiation, now, id, demand.StatusActive, demand.StatusInNegotiation,
		)
		if err != nil {
			return errors.DatabaseError("Failed to update demand status", err)
		}
		if changed, err := rowsChanged(res); err != nil {
			return errors.DatabaseError("Failed to get affected rows", err)
		} else if !changed {
			return errors.ValidationError("Demand is no longer open for negotiation", map[string]string{"field": "status"})
		}
		return nil
	})
}

func (r *ProposalRepository) Reject(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE proposals SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		demand.ProposalRejected, now.UTC(), id, demand.ProposalPending,
	)
	if err != nil {
		return errors.DatabaseError("Failed to reject proposal", err)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if !changed {
		return errors.ValidationError("Proposal is not pending", map[string]string{"field": "status"})
	}
	return nil
}

func (r *ProposalRepository) RejectPending(ctx context.Context, demandID, exceptID string, now time.Time) ([]*demand.Proposal, error) {
	var rejected []*demand.Proposal
	err := r.db.WithTx(ctx, func(tx *Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT `+proposalColumns+` FROM proposals WHERE demand_id = ? AND id <> ? AND status = ?`,
			demandID, exceptID, demand.ProposalPending,
		)
		if err != nil {
			return errors.DatabaseError("Failed to list pending proposals", err)
		}
		rejected, err = collectProposals(rows)
		rows.Close()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE proposals SET status = ?, updated_at = ? WHERE demand_id = ? AND id <> ? AND status = ?`,
			demand.ProposalRejected, now.UTC(), demandID, exceptID, demand.ProposalPending,
		)
		if err != nil {
			return errors.DatabaseError("Failed to reject pending proposals", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, p := range rejected {
		p.Status = demand.ProposalRejected
	}
	return rejected, nil
}
