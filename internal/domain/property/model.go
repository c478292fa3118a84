package property

import (
	"slices"
	"time"
)

// Property is a listing. Only the attributes used for matchmaking and
// quota checks are modelled here.
type Property struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	PropertyType string    `json:"property_type"`
	Price        float64   `json:"price"`
	Neighborhood string    `json:"neighborhood"`
	City         string    `json:"city"`
	Bedrooms     int       `json:"bedrooms"`
	Garage       int       `json:"garage"`
	Area         float64   `json:"area"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Status is the listing status
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusSold     Status = "sold"
	StatusRented   Status = "rented"
	StatusInactive Status = "inactive"
)

// MatchCriteria holds the hard filters a listing must satisfy to be
// offered as an opportunity for a demand.
type MatchCriteria struct {
	PropertyType  string
	PriceMin      float64
	PriceMax      float64
	Neighborhoods []string
	City          string
	MinBedrooms   *int
	MinGarage     *int
	MinArea       *float64
}

// Matches evaluates the criteria against p. Repositories translate the
// same predicate to SQL; this is the reference used by in-memory stores.
func (c MatchCriteria) Matches(p *Property) bool {
	if p.Status != StatusActive {
		return false
	}
	if p.PropertyType != c.PropertyType {
		return false
	}
	if p.Price < c.PriceMin || p.Price > c.PriceMax {
		return false
	}
	if !slices.Contains(c.Neighborhoods, p.Neighborhood) {
		return false
	}
	if c.City != "" && p.City != c.City {
		return false
	}
	if c.MinBedrooms != nil && p.Bedrooms < *c.MinBedrooms {
		return false
	}
	if c.MinGarage != nil && p.Garage < *c.MinGarage {
		return false
	}
	if c.MinArea != nil && p.Area < *c.MinArea {
		return false
	}
	return true
}
