// Package client is a Go consumer of the SprintDeck API: it keeps an
// in-memory ticket store fed by fetches and pushed events, applies
// optimistic board transitions, and orchestrates the sprint lifecycle.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// APIError is a non-success response from the API
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Client is an HTTP client for the SprintDeck API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an API client. The token is sent as a bearer token on
// every request.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// do issues one request and decodes the JSON response into out (when out is
// non-nil). Non-2xx responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// ListTickets fetches a project's tickets
func (c *Client) ListTickets(ctx context.Context, projectID int64) ([]Ticket, error) {
	var tickets []Ticket
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/projects/%d/tickets", projectID), nil, &tickets)
	return tickets, err
}

// TransitionTicket asks the server to move a ticket between board columns
func (c *Client) TransitionTicket(ctx context.Context, ticketID int64, from, to string) (*Ticket, error) {
	var ticket Ticket
	body := map[string]string{"from": from, "to": to}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tickets/%d/transition", ticketID), body, &ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CreateSprint creates a planning sprint
func (c *Client) CreateSprint(ctx context.Context, projectID int64, name string, goal *string) (*Sprint, error) {
	var sprint Sprint
	body := map[string]interface{}{"name": name}
	if goal != nil {
		body["goal"] = *goal
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/projects/%d/sprints", projectID), body, &sprint)
	if err != nil {
		return nil, err
	}
	return &sprint, nil
}

// StartSprint moves a planning sprint to active with the given dates
// (YYYY-MM-DD)
func (c *Client) StartSprint(ctx context.Context, sprintID int64, startDate, endDate string) (*Sprint, error) {
	var sprint Sprint
	body := map[string]string{"start_date": startDate, "end_date": endDate}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/sprints/%d/start", sprintID), body, &sprint)
	if err != nil {
		return nil, err
	}
	return &sprint, nil
}

// GetSprint fetches one sprint
func (c *Client) GetSprint(ctx context.Context, sprintID int64) (*Sprint, error) {
	var sprint Sprint
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sprints/%d", sprintID), nil, &sprint)
	if err != nil {
		return nil, err
	}
	return &sprint, nil
}

// AddTicketToSprint attaches a ticket to a sprint
func (c *Client) AddTicketToSprint(ctx context.Context, sprintID, ticketID int64) (*Ticket, error) {
	var ticket Ticket
	body := map[string]int64{"ticket_id": ticketID}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/sprints/%d/tickets", sprintID), body, &ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// RemoveTicketFromSprint detaches a ticket from a sprint
func (c *Client) RemoveTicketFromSprint(ctx context.Context, sprintID, ticketID int64) (*Ticket, error) {
	var ticket Ticket
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/sprints/%d/tickets/%d", sprintID, ticketID), nil, &ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CompleteSprintAtomic invokes the server-side completion endpoint, which
// applies the disposition and completes the sprint in one transaction.
func (c *Client) CompleteSprintAtomic(ctx context.Context, sprintID int64, disposition string) (*Sprint, error) {
	var resp struct {
		Sprint     *Sprint `json:"sprint"`
		NextSprint *Sprint `json:"next_sprint"`
		MovedCount int     `json:"moved_count"`
	}
	body := map[string]string{"disposition": disposition}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/sprints/%d/complete", sprintID), body, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Sprint, nil
}

// markSprintComplete is the bare completion call used by the client-side
// lifecycle orchestration after it has disposed of the tickets itself
func (c *Client) markSprintComplete(ctx context.Context, sprintID int64) (*Sprint, error) {
	return c.CompleteSprintAtomic(ctx, sprintID, "keep")
}

// SprintStats fetches the derived stats for a sprint
func (c *Client) SprintStats(ctx context.Context, sprintID int64) (*SprintStats, error) {
	var stats SprintStats
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sprints/%d/stats", sprintID), nil, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// SprintBurndown fetches the burndown series for a sprint
func (c *Client) SprintBurndown(ctx context.Context, sprintID int64) ([]BurndownPoint, error) {
	var series []BurndownPoint
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sprints/%d/burndown", sprintID), nil, &series)
	return series, err
}

// GetCapacity fetches the project's planning capacity
func (c *Client) GetCapacity(ctx context.Context, projectID int64) (*Capacity, error) {
	var out Capacity
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/projects/%d/capacity", projectID), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetCapacity stores an explicit capacity preference. A non-positive value
// is rejected locally without a network call.
func (c *Client) SetCapacity(ctx context.Context, projectID int64, capacity int) (*Capacity, error) {
	if capacity <= 0 {
		return nil, &ValidationError{Reason: "capacity must be a positive integer"}
	}
	var out Capacity
	body := map[string]int{"capacity": capacity}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/projects/%d/capacity", projectID), body, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidationError is a local input error; nothing was sent to the server
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}
