package model

import "fmt"

// ModerationError rejects a prompt before any model call. Reason is
// user-facing and specific; there are no silent rejections.
type ModerationError struct {
	Reason string
}

func (e *ModerationError) Error() string {
	return e.Reason
}

// ProviderError reports a non-2xx reply from the model provider.
// The upstream body is kept for logs but never shown to users.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("model provider returned HTTP %d", e.Status)
}

// TransportError reports a network-level failure or timeout reaching the
// provider. Not retried automatically; the caller decides.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model provider unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExtractionError means the model reply could not be parsed into a complete
// artifact. Fails closed: no partial simulation is ever delivered, and the
// raw reply is never surfaced to users.
type ExtractionError struct {
	Missing []string
}

func (e *ExtractionError) Error() string {
	if len(e.Missing) == 0 {
		return "could not extract code sections from model reply"
	}
	return fmt.Sprintf("could not extract code sections from model reply: missing %v", e.Missing)
}

// QuotaError rejects a generation because the user's running total already
// meets the ceiling. The generation that crosses the ceiling is allowed to
// complete; this error only blocks the attempt after it.
type QuotaError struct {
	Total int
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("token limit exceeded: %d/%d tokens used", e.Total, e.Limit)
}
