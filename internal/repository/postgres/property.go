package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imovlocal/backend/internal/domain/property"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

// PropertyRepository implements property.Repository
type PropertyRepository struct {
	db *DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *DB) property.Repository {
	return &PropertyRepository{db: db}
}

const propertyColumns = `id, owner_id, title, property_type, price, neighborhood, city, bedrooms, garage, area, status, created_at`

func scanProperty(row rowScanner) (*property.Property, error) {
	var p property.Property
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.PropertyType, &p.Price, &p.Neighborhood, &p.City,
		&p.Bedrooms, &p.Garage, &p.Area, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (r *PropertyRepository) Create(ctx context.Context, p *property.Property) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = property.StatusActive
	}
	p.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (`+propertyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Title, p.PropertyType, p.Price, p.Neighborhood, p.City,
		p.Bedrooms, p.Garage, p.Area, p.Status, p.CreatedAt,
	)
	if err != nil {
		return errors.DatabaseError("Failed to create property", err)
	}
	return nil
}

func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*property.Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Property")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get property", err)
	}
	return p, nil
}

// FindMatching translates property.MatchCriteria to SQL
func (r *PropertyRepository) FindMatching(ctx context.Context, c property.MatchCriteria, limit int) ([]*property.Property, error) {
	if len(c.Neighborhoods) == 0 {
		return nil, nil
	}

	where := []string{
		"status = ?",
		"property_type = ?",
		"price >= ?",
		"price <= ?",
		fmt.Sprintf("neighborhood IN (%s)", placeholders(len(c.Neighborhoods))),
	}
	args := []interface{}{property.StatusActive, c.PropertyType, c.PriceMin, c.PriceMax}
	for _, n := range c.Neighborhoods {
		args = append(args, n)
	}

	if c.City != "" {
		where = append(where, "city = ?")
		args = append(args, c.City)
	}
	if c.MinBedrooms != nil {
		where = append(where, "bedrooms >= ?")
		args = append(args, *c.MinBedrooms)
	}
	if c.MinGarage != nil {
		where = append(where, "garage >= ?")
		args = append(args, *c.MinGarage)
	}
	if c.MinArea != nil {
		where = append(where, "area >= ?")
		args = append(args, *c.MinArea)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM properties WHERE %s ORDER BY created_at DESC LIMIT ?`,
		propertyColumns, strings.Join(where, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to find matching properties", err)
	}
	defer rows.Close()

	var props []*property.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan property", err)
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to find matching properties", err)
	}
	return props, nil
}

func (r *PropertyRepository) CountActiveByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM properties WHERE owner_id = ? AND status = ?`, ownerID, property.StatusActive,
	).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count properties", err)
	}
	return n, nil
}
