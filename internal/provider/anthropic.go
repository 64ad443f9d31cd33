package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mindrender/mindrender/internal/model"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
)

// Anthropic calls the Anthropic messages API.
type Anthropic struct {
	APIKey   string
	Model    string
	Endpoint string // overridable for tests
	Client   *http.Client
}

// NewAnthropic creates an Anthropic provider for the given model.
func NewAnthropic(apiKey, modelID string) *Anthropic {
	return &Anthropic{
		APIKey:   apiKey,
		Model:    modelID,
		Endpoint: anthropicEndpoint,
		Client:   &http.Client{Timeout: DefaultTimeout},
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends one messages-API request and returns the reply text with
// usage counters.
func (a *Anthropic) Complete(ctx context.Context, req Request) (*Reply, error) {
	body, _ := json.Marshal(anthropicRequest{
		Model:       a.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.Client.Do(httpReq)
	if err != nil {
		return nil, &model.TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, respBody)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Content) == 0 {
		return nil, &model.ExtractionError{Missing: []string{"reply text"}}
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		sb.WriteString(block.Text)
	}

	return &Reply{
		Text: strings.TrimSpace(sb.String()),
		Usage: model.Usage{
			InputTokens:  parsed.Usage.InputTokens,
			OutputTokens: parsed.Usage.OutputTokens,
		},
	}, nil
}

// statusError maps a non-2xx reply to the error taxonomy. 429 additionally
// carries the rate-limit sentinel so callers can defer.
func statusError(status int, body []byte) error {
	perr := &model.ProviderError{Status: status, Body: strings.TrimSpace(string(body))}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrRateLimited, perr)
	}
	return perr
}
