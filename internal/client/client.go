// Package client talks to a running ragpipe HTTP server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/api"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/service"
)

// DefaultURL is used when neither an argument nor RAGPIPE_SERVER_URL is set.
const DefaultURL = "http://localhost:8080"

// Client is an HTTP client for the ragpipe API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. An empty baseURL falls back to RAGPIPE_SERVER_URL, then
// DefaultURL. RAGPIPE_CLIENT_TIMEOUT overrides the 5 minute request timeout.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("RAGPIPE_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}

	timeout := 5 * time.Minute // answers can wait on a slow local model
	if t := os.Getenv("RAGPIPE_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, e.Message)
}

// do sends body as JSON to path and decodes the response into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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
		var apiErr api.Error
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Healthy checks the liveness endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/check/healthy", nil, nil)
}

// Query returns the chunks most similar to the question.
func (c *Client) Query(ctx context.Context, params api.QueryParams) (*api.QueryResponse, error) {
	var resp api.QueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/query", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ask answers the question from retrieved chunks.
func (c *Client) Ask(ctx context.Context, params api.QueryParams) (*retrieval.Answer, error) {
	var resp retrieval.Answer
	if err := c.do(ctx, http.MethodPost, "/ask", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns the vector count and runtime statistics.
func (c *Client) Stats(ctx context.Context) (*api.StatsResponse, error) {
	var resp api.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartIngest starts a background ingest job. No names means all sources.
func (c *Client) StartIngest(ctx context.Context, sources ...string) (*service.JobView, error) {
	var job service.JobView
	if err := c.do(ctx, http.MethodPost, "/api/v1/ingest", api.IngestParams{Sources: sources}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJob returns one job.
func (c *Client) GetJob(ctx context.Context, id string) (*service.JobView, error) {
	var job service.JobView
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns all jobs, most recent first.
func (c *Client) ListJobs(ctx context.Context) ([]service.JobView, error) {
	var jobs []service.JobView
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
