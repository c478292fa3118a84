package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imovlocal/backend/internal/domain/demand"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

// DemandRepository implements demand.Repository
type DemandRepository struct {
	db *DB
}

// NewDemandRepository creates a new demand repository
func NewDemandRepository(db *DB) demand.Repository {
	return &DemandRepository{db: db}
}

const demandColumns = `id, creator_id, creator_name, creator_phone, creator_creci, property_type, state, city,
	price_min, price_max, min_bedrooms, min_garage, min_area, must_have, commission, status,
	proposal_count, view_count, created_at, updated_at`

func scanDemand(row rowScanner) (*demand.Demand, error) {
	var d demand.Demand
	var minBedrooms, minGarage sql.NullInt64
	var minArea sql.NullFloat64
	var updatedAt sql.NullTime

	err := row.Scan(
		&d.ID, &d.CreatorID, &d.CreatorName, &d.CreatorPhone, &d.CreatorCreci, &d.PropertyType, &d.State, &d.City,
		&d.PriceMin, &d.PriceMax, &minBedrooms, &minGarage, &minArea, &d.MustHave, &d.Commission, &d.Status,
		&d.ProposalCount, &d.ViewCount, &d.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if minBedrooms.Valid {
		v := int(minBedrooms.Int64)
		d.MinBedrooms = &v
	}
	if minGarage.Valid {
		v := int(minGarage.Int64)
		d.MinGarage = &v
	}
	if minArea.Valid {
		v := minArea.Float64
		d.MinArea = &v
	}
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = timePtr(updatedAt)
	return &d, nil
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func (r *DemandRepository) Create(ctx context.Context, d *demand.Demand) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = time.Now().UTC()

	return r.db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO demands (`+demandColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.CreatorID, d.CreatorName, d.CreatorPhone, d.CreatorCreci, d.PropertyType, d.State, d.City,
			d.PriceMin, d.PriceMax, nullInt(d.MinBedrooms), nullInt(d.MinGarage), nullFloat(d.MinArea),
			d.MustHave, d.Commission, d.Status, d.ProposalCount, d.ViewCount, d.CreatedAt, nullTime(d.UpdatedAt),
		)
		if err != nil {
			return errors.DatabaseError("Failed to create demand", err)
		}
		return insertNeighborhoods(ctx, tx, d.ID, d.Neighborhoods)
	})
}

func insertNeighborhoods(ctx context.Context, tx *Tx, demandID string, neighborhoods []string) error {
	seen := make(map[string]bool, len(neighborhoods))
	for i, n := range neighborhoods {
		if seen[n] {
			continue
		}
		seen[n] = true
		_, err := tx.ExecContext(ctx,
			`INSERT INTO demand_neighborhoods (demand_id, neighborhood, sort_order) VALUES (?, ?, ?)`,
			demandID, n, i,
		)
		if err != nil {
			return errors.DatabaseError("Failed to store demand neighborhoods", err)
		}
	}
	return nil
}

func (r *DemandRepository) GetByID(ctx context.Context, id string) (*demand.Demand, error) {
	d, err := scanDemand(r.db.QueryRowContext(ctx, `SELECT `+demandColumns+` FROM demands WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Demand")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get demand", err)
	}
	if err := r.loadNeighborhoods(ctx, []*demand.Demand{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DemandRepository) List(ctx context.Context, filter demand.Filter) ([]*demand.Demand, error) {
	var where []string
	var args []interface{}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.PropertyType != "" {
		where = append(where, "property_type = ?")
		args = append(args, filter.PropertyType)
	}
	if filter.Neighborhood != "" {
		where = append(where, `EXISTS (SELECT 1 FROM demand_neighborhoods dn
			WHERE dn.demand_id = demands.id AND dn.neighborhood = ?)`)
		args = append(args, filter.Neighborhood)
	}
	if filter.PriceMin != nil {
		where = append(where, "price_min <= ?")
		args = append(args, *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		where = append(where, "price_max >= ?")
		args = append(args, *filter.PriceMax)
	}
	if filter.CreatorID != "" {
		where = append(where, "creator_id = ?")
		args = append(args, filter.CreatorID)
	}

	query := `SELECT ` + demandColumns + ` FROM demands`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Skip)
	}

	return r.queryDemands(ctx, query, args...)
}

func (r *DemandRepository) queryDemands(ctx context.Context, query string, args ...interface{}) ([]*demand.Demand, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list demands", err)
	}

	var demands []*demand.Demand
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			rows.Close()
			return nil, errors.DatabaseError("Failed to scan demand", err)
		}
		demands = append(demands, d)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, errors.DatabaseError("Failed to list demands", err)
	}

	// rows must be closed first: sqlite runs on a single connection
	if err := r.loadNeighborhoods(ctx, demands); err != nil {
		return nil, err
	}
	return demands, nil
}

func (r *DemandRepository) loadNeighborhoods(ctx context.Context, demands []*demand.Demand) error {
	if len(demands) == 0 {
		return nil
	}
	byID := make(map[string]*demand.Demand, len(demands))
	args := make([]interface{}, 0, len(demands))
	for _, d := range demands {
		d.Neighborhoods = []string{}
		byID[d.ID] = d
		args = append(args, d.ID)
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT demand_id, neighborhood FROM demand_neighborhoods WHERE demand_id IN (%s) ORDER BY demand_id, sort_order`,
		placeholders(len(args))), args...)
	if err != nil {
		return errors.DatabaseError("Failed to load demand neighborhoods", err)
	}
	defer rows.Close()

	for rows.Next() {
		var demandID, name string
		if err := rows.Scan(&demandID, &name); err != nil {
			return errors.DatabaseError("Failed to scan demand neighborhood", err)
		}
		if d, ok := byID[demandID]; ok {
			d.Neighborhoods = append(d.Neighborhoods, name)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.DatabaseError("Failed to load demand neighborhoods", err)
	}
	return nil
}

func (r *DemandRepository) Update(ctx context.Context, d *demand.Demand) error {
	now := time.Now().UTC()
	d.UpdatedAt = &now

	return r.db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE demands SET property_type = ?, state = ?, city = ?, price_min = ?, price_max = ?,
				min_bedrooms = ?, min_garage = ?, min_area = ?, must_have = ?, commission = ?, updated_at = ?
			WHERE id = ? AND status IN (?, ?)`,
			d.PropertyType, d.State, d.City, d.PriceMin, d.PriceMax,
			nullInt(d.MinBedrooms), nullInt(d.MinGarage), nullFloat(d.MinArea), d.MustHave, d.Commission, now,
			d.ID, demand.StatusActive, demand.StatusInNegotiation,
		)
		if err != nil {
			return errors.DatabaseError("Failed to update demand", err)
		}
		changed, err := rowsChanged(res)
		if err != nil {
			return errors.DatabaseError("Failed to get affected rows", err)
		}
		if !changed {
			if err := demandExists(ctx, tx, d.ID); err != nil {
				return err
			}
			return errors.ValidationError("Demand can no longer change", map[string]string{"field": "status"})
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM demand_neighborhoods WHERE demand_id = ?`, d.ID); err != nil {
			return errors.DatabaseError("Failed to update demand neighborhoods", err)
		}
		return insertNeighborhoods(ctx, tx, d.ID, d.Neighborhoods)
	})
}

func (r *DemandRepository) UpdateStatus(ctx context.Context, id string, from, to demand.Status, now time.Time) error {
	return r.db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE demands SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			to, now, id, from,
		)
		if err != nil {
			return errors.DatabaseError("Failed to update demand status", err)
		}
		changed, err := rowsChanged(res)
		if err != nil {
			return errors.DatabaseError("Failed to get affected rows", err)
		}
		if !changed {
			if err := demandExists(ctx, tx, id); err != nil {
				return err
			}
			return errors.Conflict("Demand status changed since it was read")
		}
		return nil
	})
}

func demandExists(ctx context.Context, tx *Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM demands WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return errors.NotFound("Demand")
	}
	if err != nil {
		return errors.DatabaseError("Failed to get demand", err)
	}
	return nil
}

func (r *DemandRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM proposals WHERE demand_id = ?`, id); err != nil {
			return errors.DatabaseError("Failed to delete demand proposals", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM demand_neighborhoods WHERE demand_id = ?`, id); err != nil {
			return errors.DatabaseError("Failed to delete demand neighborhoods", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM demands WHERE id = ?`, id)
		if err != nil {
			return errors.DatabaseError("Failed to delete demand", err)
		}
		changed, err := rowsChanged(res)
		if err != nil {
			return errors.DatabaseError("Failed to get affected rows", err)
		}
		if !changed {
			return errors.NotFound("Demand")
		}
		return nil
	})
}

func (r *DemandRepository) IncrementViews(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE demands SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to count demand view", err)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if !changed {
		return errors.NotFound("Demand")
	}
	return nil
}

func (r *DemandRepository) Stats(ctx context.Context, userID string) (*demand.Stats, error) {
	var s demand.Stats
	queries := []struct {
		dest  *int64
		query string
		args  []interface{}
	}{
		{&s.MyDemands, `SELECT COUNT(*) FROM demands WHERE creator_id = ?`, []interface{}{userID}},
		{&s.MyActiveDemands, `SELECT COUNT(*) FROM demands WHERE creator_id = ? AND status = ?`,
			[]interface{}{userID, demand.StatusActive}},
		{&s.MyProposals, `SELECT COUNT(*) FROM proposals WHERE offerer_id = ?`, []interface{}{userID}},
		{&s.MyAccepted, `SELECT COUNT(*) FROM proposals WHERE offerer_id = ? AND status = ?`,
			[]interface{}{userID, demand.ProposalAccepted}},
		{&s.ReceivedProposals, `SELECT COUNT(*) FROM proposals p JOIN demands d ON d.id = p.demand_id
			WHERE d.creator_id = ?`, []interface{}{userID}},
	}
	for _, q := range queries {
		if err := r.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return nil, errors.DatabaseError("Failed to compute board stats", err)
		}
	}
	return &s, nil
}

func (r *DemandRepository) BoardReport(ctx context.Context, recent, top int) (*demand.BoardReport, error) {
	report := &demand.BoardReport{DemandsByStatus: map[demand.Status]int64{}}

	byStatus, err := r.buckets(ctx, `SELECT status, COUNT(*) FROM demands GROUP BY status`)
	if err != nil {
		return nil, err
	}
	for _, b := range byStatus {
		report.DemandsByStatus[demand.Status(b.Key)] = b.Count
		report.TotalDemands += b.Count
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM proposals`).Scan(&report.TotalProposals); err != nil {
		return nil, errors.DatabaseError("Failed to count proposals", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM proposals WHERE status = ?`,
		demand.ProposalAccepted).Scan(&report.AcceptedProposals); err != nil {
		return nil, errors.DatabaseError("Failed to count proposals", err)
	}

	if report.RecentDemands, err = r.List(ctx, demand.Filter{Limit: recent}); err != nil {
		return nil, err
	}
	if report.TopCreators, err = r.buckets(ctx, `SELECT creator_name, COUNT(*) AS n FROM demands
		GROUP BY creator_id, creator_name ORDER BY n DESC, creator_name LIMIT ?`, top); err != nil {
		return nil, err
	}
	if report.ByPropertyType, err = r.buckets(ctx, `SELECT property_type, COUNT(*) AS n FROM demands
		GROUP BY property_type ORDER BY n DESC, property_type`); err != nil {
		return nil, err
	}
	if report.TopCities, err = r.buckets(ctx, `SELECT city, COUNT(*) AS n FROM demands WHERE city <> ''
		GROUP BY city ORDER BY n DESC, city LIMIT ?`, top); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *DemandRepository) buckets(ctx context.Context, query string, args ...interface{}) ([]demand.Bucket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to aggregate demands", err)
	}
	defer rows.Close()

	out := []demand.Bucket{}
	for rows.Next() {
		var b demand.Bucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, errors.DatabaseError("Failed to scan aggregate", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to aggregate demands", err)
	}
	return out, nil
}
