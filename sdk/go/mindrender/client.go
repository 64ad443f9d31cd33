// Package mindrender is the Go client for the mindrender HTTP API.
package mindrender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client calls a mindrender server. Safe for concurrent use.
type Client struct {
	cfg clientConfig
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{
		baseURL: "http://localhost:8080",
		http:    http.DefaultClient,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.baseURL == "" {
		return nil, fmt.Errorf("mindrender: base URL is required")
	}
	return &Client{cfg: cfg}, nil
}

// Simulate requests a simulation for the prompt. The server always answers
// 200 with a renderable payload; a non-empty Simulation.Error means the
// canvas and explanation carry placeholder content instead of a simulation.
func (c *Client) Simulate(ctx context.Context, prompt, subject string) (*Simulation, error) {
	body, err := json.Marshal(map[string]string{
		"prompt":  prompt,
		"subject": subject,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.baseURL+"/simulate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.cfg.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mindrender: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("mindrender: unexpected status %d", resp.StatusCode)
	}

	var sim Simulation
	if err := json.NewDecoder(resp.Body).Decode(&sim); err != nil {
		return nil, fmt.Errorf("mindrender: decode response: %w", err)
	}
	return &sim, nil
}

// TokenTotal reports the caller's token usage against the quota ceiling.
func (c *Client) TokenTotal(ctx context.Context) (*Quota, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.baseURL+"/get_token_total", nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.cfg.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mindrender: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("mindrender: unexpected status %d", resp.StatusCode)
	}

	var q Quota
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return nil, fmt.Errorf("mindrender: decode response: %w", err)
	}
	return &q, nil
}

// FrameURL returns the URL of the sandbox frame page for embedding.
func (c *Client) FrameURL() string {
	return c.cfg.baseURL + "/sim-frame"
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.token)
	}
}
