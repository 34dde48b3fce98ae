// Package client calls the aggregation service on behalf of the console pollers.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ride-console/internal/general/logger"
	"ride-console/internal/ports"

	"github.com/google/uuid"
)

const maxErrorBody = 4 << 10

// TokenSource returns a bearer token for the next request.
type TokenSource func() (string, error)

// APIError is a non-200 answer from the aggregation service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aggregation service returned %d: %s", e.Status, e.Message)
}

// Client is a thin HTTP client for the monitoring endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	logger  *logger.Logger
}

// New builds a client for baseURL (no trailing slash). token may be nil.
func New(baseURL string, httpClient *http.Client, token TokenSource, logger *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		token:   token,
		logger:  logger,
	}
}

// ActiveRides fetches GET /admin/rides/active.
func (c *Client) ActiveRides(ctx context.Context) (ports.ActiveRidesResult, error) {
	var res ports.ActiveRidesResult
	if err := c.get(ctx, "/admin/rides/active", &res); err != nil {
		return ports.ActiveRidesResult{}, err
	}
	if res.Count != len(res.Rides) {
		c.logger.Warn(ctx, "active_rides_count_mismatch", "Count does not match list length", nil,
			map[string]any{"count": res.Count, "rides": len(res.Rides)})
		res.Count = len(res.Rides)
	}
	return res, nil
}

// Summary fetches GET /admin/overview.
func (c *Client) Summary(ctx context.Context) (ports.SummaryResult, error) {
	var res ports.SummaryResult
	if err := c.get(ctx, "/admin/overview", &res); err != nil {
		return ports.SummaryResult{}, err
	}
	return res, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	reqID := uuid.NewString()
	ctx = c.logger.WithRequestID(ctx, reqID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.token != nil {
		tok, err := c.token()
		if err != nil {
			return fmt.Errorf("bearer token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	c.logger.Debug(ctx, "poll_response", "Aggregation response received", map[string]any{"path": path})
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// IsAPIError reports whether err carries an aggregation service error status.
func IsAPIError(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
