package mindrender

import "errors"

// ErrUnauthorized is returned when the server rejects the bearer token.
var ErrUnauthorized = errors.New("mindrender: unauthorized")

// Usage reports token consumption for one generation.
type Usage struct {
	TotalTokens int `json:"totalTokens"`
}

// Simulation is the server's answer to a simulate request. Error is empty
// on success; when set, CanvasHTML and Explanation hold placeholder content.
type Simulation struct {
	CanvasHTML  string `json:"canvasHtml"`
	JSCode      string `json:"jsCode"`
	Explanation string `json:"explanation"`
	Error       string `json:"error,omitempty"`
	RequestID   string `json:"requestId,omitempty"`
	Usage       Usage  `json:"usage"`
}

// Blocked reports whether the server refused to generate.
func (s *Simulation) Blocked() bool {
	return s.Error != ""
}

// Quota is the caller's usage against the token ceiling.
type Quota struct {
	Total int `json:"total"`
	Limit int `json:"limit"`
}
