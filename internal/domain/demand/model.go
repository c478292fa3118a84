package demand

import (
	"slices"
	"time"

	"github.com/imovlocal/backend/internal/domain/property"
)

// Demand is a "looking for" request posted on the opportunity board.
// Creator contact fields are copied at creation and never refreshed.
type Demand struct {
	ID            string     `json:"id"`
	CreatorID     string     `json:"creator_id"`
	CreatorName   string     `json:"creator_name"`
	CreatorPhone  string     `json:"creator_phone"`
	CreatorCreci  string     `json:"creator_creci,omitempty"`
	PropertyType  string     `json:"property_type"`
	State         string     `json:"state,omitempty"`
	City          string     `json:"city,omitempty"`
	Neighborhoods []string   `json:"neighborhoods"`
	PriceMin      float64    `json:"price_min"`
	PriceMax      float64    `json:"price_max"`
	MinBedrooms   *int       `json:"min_bedrooms,omitempty"`
	MinGarage     *int       `json:"min_garage,omitempty"`
	MinArea       *float64   `json:"min_area,omitempty"`
	MustHave      string     `json:"must_have,omitempty"`
	Commission    float64    `json:"commission"`
	Status        Status     `json:"status"`
	ProposalCount int        `json:"proposal_count"`
	ViewCount     int        `json:"view_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Status is the demand lifecycle status
type Status string

const (
	StatusActive        Status = "active"
	StatusInNegotiation Status = "in_negotiation"
	StatusClosed        Status = "closed"
	StatusCancelled     Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusActive:        {StatusInNegotiation, StatusCancelled},
	StatusInNegotiation: {StatusClosed, StatusCancelled},
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInNegotiation, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows s -> next
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// MatchCriteria derives the listing filters for matchmaking
func (d *Demand) MatchCriteria() property.MatchCriteria {
	return property.MatchCriteria{
		PropertyType:  d.PropertyType,
		PriceMin:      d.PriceMin,
		PriceMax:      d.PriceMax,
		Neighborhoods: d.Neighborhoods,
		City:          d.City,
		MinBedrooms:   positiveInt(d.MinBedrooms),
		MinGarage:     positiveInt(d.MinGarage),
		MinArea:       positiveFloat(d.MinArea),
	}
}

// zero minimums impose nothing
func positiveInt(v *int) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func positiveFloat(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

// Proposal is a partner broker's answer to a demand
type Proposal struct {
	ID            string         `json:"id"`
	DemandID      string         `json:"demand_id"`
	PropertyID    string         `json:"property_id,omitempty"`
	PropertyTitle string         `json:"property_title,omitempty"`
	PropertyPrice *float64       `json:"property_price,omitempty"`
	OffererID     string         `json:"offerer_id"`
	OffererName   string         `json:"offerer_name"`
	OffererPhone  string         `json:"offerer_phone"`
	OffererCreci  string         `json:"offerer_creci,omitempty"`
	Message       string         `json:"message"`
	Status        ProposalStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`
}

// ProposalStatus is the proposal lifecycle status
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
	ProposalExpired  ProposalStatus = "expired"
)

// Filter contains board listing options
type Filter struct {
	Status       Status
	PropertyType string
	Neighborhood string
	// PriceMin keeps demands whose lower bound is at most this value.
	PriceMin *float64
	// PriceMax keeps demands whose upper bound is at least this value.
	PriceMax  *float64
	CreatorID string
	Skip      int
	Limit     int
}

// Matches applies the filter to a single demand
func (f Filter) Matches(d *Demand) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.PropertyType != "" && d.PropertyType != f.PropertyType {
		return false
	}
	if f.Neighborhood != "" && !slices.Contains(d.Neighborhoods, f.Neighborhood) {
		return false
	}
	if f.PriceMin != nil && d.PriceMin > *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && d.PriceMax < *f.PriceMax {
		return false
	}
	if f.CreatorID != "" && d.CreatorID != f.CreatorID {
		return false
	}
	return true
}

// Update carries the editable demand fields. Nil fields are left as is.
type Update struct {
	PropertyType  *string
	State         *string
	City          *string
	Neighborhoods []string
	PriceMin      *float64
	PriceMax      *float64
	MinBedrooms   *int
	MinGarage     *int
	MinArea       *float64
	MustHave      *string
	Commission    *float64
	Status        *Status
}

// Stats summarises a broker's board activity
type Stats struct {
	MyDemands         int64 `json:"my_demands"`
	MyActiveDemands   int64 `json:"my_active_demands"`
	MyProposals       int64 `json:"my_proposals"`
	MyAccepted        int64 `json:"my_accepted_proposals"`
	ReceivedProposals int64 `json:"received_proposals"`
}

// Bucket is one row of a grouped count
type Bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// BoardReport is the admin overview of the opportunity board
type BoardReport struct {
	TotalDemands      int64            `json:"total_demands"`
	DemandsByStatus   map[Status]int64 `json:"demands_by_status"`
	TotalProposals    int64            `json:"total_proposals"`
	AcceptedProposals int64            `json:"accepted_proposals"`
	RecentDemands     []*Demand        `json:"recent_demands"`
	TopCreators       []Bucket         `json:"top_creators"`
	ByPropertyType    []Bucket         `json:"by_property_type"`
	TopCities         []Bucket         `json:"top_cities"`
}
