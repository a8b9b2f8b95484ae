// Package client provides a JSON HTTP client for the close-out server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/closeout/internal/metrics"
	"github.com/raphaelgruber/closeout/internal/models"
)

// DefaultEndpoint is used when no server URL is configured.
const DefaultEndpoint = "http://localhost:5000"

// Client talks to one campaign of a close-out server.
type Client struct {
	endpoint   string
	campaign   string
	httpClient *http.Client
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.StatusCode, e.Message)
}

// New creates a client. An empty endpoint falls back to DefaultEndpoint;
// a zero timeout means two minutes, enough for two generation round trips.
func New(endpoint, campaign string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		campaign:   campaign,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// do sends a request and decodes the JSON response into result.
// The body of a non-2xx response is returned as an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *Client) campaignPath(action string) string {
	return "/" + c.campaign + "/" + action
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Status is the server health response.
type Status struct {
	Status   string `json:"status"`
	Campaign string `json:"campaign"`
	Timezone string `json:"timezone"`
	Version  string `json:"version"`
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns the server metrics snapshot.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var out metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveDatetime resolves natural-language date and time on the server.
func (c *Client) ResolveDatetime(ctx context.Context, visitDate, visitTime string) (*models.ResolutionResult, error) {
	body := map[string]string{"visit_date": visitDate, "visit_time": visitTime}
	var out models.ResolutionResult
	if err := c.do(ctx, http.MethodPost, c.campaignPath("resolve-datetime"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summarize returns the server's summary of a transcript.
func (c *Client) Summarize(ctx context.Context, turns []models.Turn) (string, error) {
	body := map[string]any{"transcript": turns}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := c.do(ctx, http.MethodPost, c.campaignPath("summarize"), body, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// Quote is an event price estimate.
type Quote struct {
	Status    string `json:"status"`
	EventType string `json:"tipo_evento"`
	Guests    int    `json:"numero_invitados"`
	PriceMXN  int    `json:"estimated_price_mxn"`
	Message   string `json:"message"`
}

// Quote asks the server to price an event.
func (c *Client) Quote(ctx context.Context, eventType string, guests int) (*Quote, error) {
	body := map[string]any{"tipo_evento": eventType, "numero_invitados": guests}
	var out Quote
	if err := c.do(ctx, http.MethodPost, c.campaignPath("cotizar-evento"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
