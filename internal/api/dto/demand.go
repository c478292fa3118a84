package dto

import (
	"github.com/imovlocal/backend/internal/domain/demand"
)

// CreateDemandRequest represents a demand creation request
type CreateDemandRequest struct {
	PropertyType  string   `json:"property_type" validate:"required,max=50"`
	State         string   `json:"state,omitempty" validate:"omitempty,max=50"`
	City          string   `json:"city,omitempty" validate:"omitempty,max=100"`
	Neighborhoods []string `json:"neighborhoods" validate:"required,min=1,max=20,dive,max=100"`
	PriceMin      float64  `json:"price_min" validate:"gte=0"`
	PriceMax      float64  `json:"price_max" validate:"gt=0"`
	MinBedrooms   *int     `json:"min_bedrooms,omitempty" validate:"omitempty,gte=0"`
	MinGarage     *int     `json:"min_garage,omitempty" validate:"omitempty,gte=0"`
	MinArea       *float64 `json:"min_area,omitempty" validate:"omitempty,gte=0"`
	MustHave      string   `json:"must_have,omitempty" validate:"omitempty,max=1000"`
	Commission    float64  `json:"commission" validate:"gte=0,lte=100"`
}

// ToInput converts the request to the service input
func (r CreateDemandRequest) ToInput() demand.CreateInput {
	return demand.CreateInput{
		PropertyType:  r.PropertyType,
		State:         r.State,
		City:          r.City,
		Neighborhoods: r.Neighborhoods,
		PriceMin:      r.PriceMin,
		PriceMax:      r.PriceMax,
		MinBedrooms:   r.MinBedrooms,
		MinGarage:     r.MinGarage,
		MinArea:       r.MinArea,
		MustHave:      r.MustHave,
		Commission:    r.Commission,
	}
}

// UpdateDemandRequest represents a partial demand update
type UpdateDemandRequest struct {
	PropertyType  *string  `json:"property_type,omitempty" validate:"omitempty,min=1,max=50"`
	State         *string  `json:"state,omitempty" validate:"omitempty,max=50"`
	City          *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	Neighborhoods []string `json:"neighborhoods,omitempty" validate:"omitempty,max=20,dive,max=100"`
	PriceMin      *float64 `json:"price_min,omitempty" validate:"omitempty,gte=0"`
	PriceMax      *float64 `json:"price_max,omitempty" validate:"omitempty,gt=0"`
	MinBedrooms   *int     `json:"min_bedrooms,omitempty" validate:"omitempty,gte=0"`
	MinGarage     *int     `json:"min_garage,omitempty" validate:"omitempty,gte=0"`
	MinArea       *float64 `json:"min_area,omitempty" validate:"omitempty,gte=0"`
	MustHave      *string  `json:"must_have,omitempty" validate:"omitempty,max=1000"`
	Commission    *float64 `json:"commission,omitempty" validate:"omitempty,gte=0,lte=100"`
	Status        *string  `json:"status,omitempty" validate:"omitempty,oneof=active in_negotiation closed cancelled"`
}

// ToUpdate converts the request to the service update
func (r UpdateDemandRequest) ToUpdate() demand.Update {
	u := demand.Update{
		PropertyType:  r.PropertyType,
		State:         r.State,
		City:          r.City,
		Neighborhoods: r.Neighborhoods,
		PriceMin:      r.PriceMin,
		PriceMax:      r.PriceMax,
		MinBedrooms:   r.MinBedrooms,
		MinGarage:     r.MinGarage,
		MinArea:       r.MinArea,
		MustHave:      r.MustHave,
		Commission:    r.Commission,
	}
	if r.Status != nil {
		s := demand.Status(*r.Status)
		u.Status = &s
	}
	return u
}

// CreateProposalRequest represents a proposal on a demand
type CreateProposalRequest struct {
	Message    string `json:"message" validate:"required,min=1,max=2000"`
	PropertyID string `json:"property_id,omitempty" validate:"omitempty,max=36"`
}

// ToInput converts the request to the service input
func (r CreateProposalRequest) ToInput() demand.ProposalInput {
	return demand.ProposalInput{Message: r.Message, PropertyID: r.PropertyID}
}

// ProposalActionResponse is returned after accepting or rejecting a proposal
type ProposalActionResponse struct {
	Message  string           `json:"message"`
	Proposal *demand.Proposal `json:"proposal"`
}
