package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxErrorBody = 2048

// Client posts GraphQL documents to a single endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Config controls optional overrides for the client.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Error is a single entry of the GraphQL "errors" array.
type Error struct {
	Message string `json:"message"`
}

// Errors is returned when the server answers with a non-empty "errors" array.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors Errors          `json:"errors"`
}

// NewClient builds a client; the endpoint is required.
func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("graphql: endpoint is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}, nil
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Do executes a query or mutation and decodes the "data" member into dst
// (dst may be nil). Variables are sent separately from the document, so
// caller-supplied text never becomes part of the query itself.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, dst any) error {
	if c == nil {
		return fmt.Errorf("graphql: client is nil")
	}
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("graphql: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("graphql: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graphql: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("graphql: %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("graphql: decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		return out.Errors
	}
	if dst == nil || len(out.Data) == 0 || string(out.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(out.Data, dst); err != nil {
		return fmt.Errorf("graphql: decode data: %w", err)
	}
	return nil
}
