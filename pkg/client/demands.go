package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// DemandService handles opportunity board operations
type DemandService struct {
	client *Client
}

// List retrieves board demands with optional filters
func (s *DemandService) List(ctx context.Context, opts *DemandListOptions) ([]Demand, error) {
	query := url.Values{}
	if opts != nil {
		query.Set("status", opts.Status)
		query.Set("property_type", opts.PropertyType)
		query.Set("neighborhood", opts.Neighborhood)
		if opts.PriceMin != nil {
			query.Set("price_min", strconv.FormatFloat(*opts.PriceMin, 'f', -1, 64))
		}
		if opts.PriceMax != nil {
			query.Set("price_max", strconv.FormatFloat(*opts.PriceMax, 'f', -1, 64))
		}
		if opts.Skip > 0 {
			query.Set("skip", strconv.Itoa(opts.Skip))
		}
		if opts.Limit > 0 {
			query.Set("limit", strconv.Itoa(opts.Limit))
		}
	}

	var demands []Demand
	if err := s.client.doRequest(ctx, "GET", withQuery(APIPrefix+"/demands", query), nil, &demands); err != nil {
		return nil, err
	}
	return demands, nil
}

// Mine retrieves the caller's own demands
func (s *DemandService) Mine(ctx context.Context) ([]Demand, error) {
	var demands []Demand
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/demands/mine", nil, &demands); err != nil {
		return nil, err
	}
	return demands, nil
}

// Get retrieves a single demand by ID
func (s *DemandService) Get(ctx context.Context, id string) (*Demand, error) {
	var d Demand
	if err := s.client.doRequest(ctx, "GET", demandPath(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create posts a new demand
func (s *DemandService) Create(ctx context.Context, req CreateDemandRequest) (*Demand, error) {
	var d Demand
	if err := s.client.doRequest(ctx, "POST", APIPrefix+"/demands", req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Update changes a demand the caller created
func (s *DemandService) Update(ctx context.Context, id string, req UpdateDemandRequest) (*Demand, error) {
	var d Demand
	if err := s.client.doRequest(ctx, "PUT", demandPath(id), req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Delete removes a demand
func (s *DemandService) Delete(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "DELETE", demandPath(id), nil, nil)
}

// Propose answers a demand with a proposal
func (s *DemandService) Propose(ctx context.Context, demandID string, req CreateProposalRequest) (*Proposal, error) {
	var p Proposal
	if err := s.client.doRequest(ctx, "POST", demandPath(demandID)+"/proposals", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Proposals lists the proposals received on a demand
func (s *DemandService) Proposals(ctx context.Context, demandID string) ([]Proposal, error) {
	var proposals []Proposal
	if err := s.client.doRequest(ctx, "GET", demandPath(demandID)+"/proposals", nil, &proposals); err != nil {
		return nil, err
	}
	return proposals, nil
}

// Accept accepts a proposal
func (s *DemandService) Accept(ctx context.Context, proposalID string) (*ProposalAction, error) {
	return s.decide(ctx, proposalID, "accept")
}

// Reject rejects a proposal
func (s *DemandService) Reject(ctx context.Context, proposalID string) (*ProposalAction, error) {
	return s.decide(ctx, proposalID, "reject")
}

func (s *DemandService) decide(ctx context.Context, proposalID, action string) (*ProposalAction, error) {
	var res ProposalAction
	path := fmt.Sprintf("%s/proposals/%s/%s", APIPrefix, url.PathEscape(proposalID), action)
	if err := s.client.doRequest(ctx, "PUT", path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stats returns the caller's board summary
func (s *DemandService) Stats(ctx context.Context) (*DemandStats, error) {
	var stats DemandStats
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/demands/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Report returns the admin board overview
func (s *DemandService) Report(ctx context.Context) (*BoardReport, error) {
	var report BoardReport
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/admin/opportunities", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func demandPath(id string) string {
	return fmt.Sprintf("%s/demands/%s", APIPrefix, url.PathEscape(id))
}
