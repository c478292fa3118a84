package client

import "context"

// Health checks the liveness of the API
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.doRequest(ctx, "GET", "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Ready checks that the API can reach its database
func (c *Client) Ready(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.doRequest(ctx, "GET", "/ready", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Ping is a simple connectivity test
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Health(ctx)
	return err
}

// RunScheduler triggers one plan expiration sweep (admin only)
func (c *Client) RunScheduler(ctx context.Context) (*SweepResult, error) {
	var res SweepResult
	if err := c.doRequest(ctx, "POST", APIPrefix+"/admin/scheduler/run", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
