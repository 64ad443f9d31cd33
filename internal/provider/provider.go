// Package provider holds the model-provider port and its adapters.
// All adapters speak the same contract: one bounded, low-temperature
// completion per call, with usage counters in the reply.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/mindrender/mindrender/internal/model"
)

// ErrRateLimited marks upstream throttling. Callers check it with
// errors.Is to decide whether to defer instead of failing outright.
var ErrRateLimited = errors.New("model provider rate limited")

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 60 * time.Second

// Request is one completion request. System may be empty; Prompt is the
// user-role content.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Reply is the provider's free-text reply plus its usage record.
type Reply struct {
	Text  string
	Usage model.Usage
}

// Provider is the model-provider port.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Reply, error)
}

// Name identifies a configured provider backend.
type Name string

const (
	NameAnthropic Name = "anthropic"
	NameOpenAI    Name = "openai"
	NameBedrock   Name = "bedrock"
)
