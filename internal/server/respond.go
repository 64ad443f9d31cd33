package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
)

// simulateRequest is the body of POST /simulate.
type simulateRequest struct {
	Prompt  string `json:"prompt"`
	Subject string `json:"subject,omitempty"`
}

type usagePayload struct {
	TotalTokens int `json:"totalTokens"`
}

// simulateResponse is always returned with status 200. On failure the
// canvas and explanation fields still carry well-formed HTML so the client
// renders something instead of branching on status codes.
type simulateResponse struct {
	CanvasHTML  string       `json:"canvasHtml"`
	JSCode      string       `json:"jsCode"`
	Explanation string       `json:"explanation"`
	Error       string       `json:"error,omitempty"`
	RequestID   string       `json:"requestId,omitempty"`
	Usage       usagePayload `json:"usage"`
}

// placeholderCanvas is rendered when no simulation could be produced.
const placeholderCanvas = `<canvas id="simCanvas" width="400" height="300" style="width:100%; height:100%; display:block; background:#1a1a2e;"></canvas>`

// scrollHTML wraps explanation text in the scrollable container the client
// expects. The text is escaped; only our own markup reaches the page.
func scrollHTML(text string) string {
	return `<div style="max-height: 300px; overflow-y: auto; padding: 12px;">` + html.EscapeString(text) + `</div>`
}

func failureResponse(errLabel, explanation string) simulateResponse {
	return simulateResponse{
		CanvasHTML:  placeholderCanvas,
		JSCode:      "",
		Explanation: scrollHTML(explanation),
		Error:       errLabel,
	}
}

func quotaResponse(total, limit int) simulateResponse {
	return failureResponse(
		"Token limit exceeded",
		fmt.Sprintf("Token limit reached. You have used %d of %d tokens. Limits reset periodically.", total, limit),
	)
}

func decodeSimulate(r *http.Request) (simulateRequest, error) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.New("invalid request body")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return req, errors.New("prompt is required")
	}
	return req, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
