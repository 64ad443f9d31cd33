package mcp

import (
	"context"
	"errors"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mindrender/mindrender/internal/audit"
	"github.com/mindrender/mindrender/internal/model"
)

// SimulateInput defines parameters for the mindrender_simulate tool.
type SimulateInput struct {
	Prompt  string `json:"prompt" jsonschema:"what to simulate"`
	Subject string `json:"subject,omitempty" jsonschema:"Physics, Biology or Computer Science"`
}

// SimulateOutput carries the generated simulation or refusal details.
type SimulateOutput struct {
	CanvasHTML  string `json:"canvasHtml,omitempty"`
	JSCode      string `json:"jsCode,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	Tokens      int    `json:"tokens,omitempty"`
	Blocked     bool   `json:"blocked,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// ModerateInput defines parameters for the mindrender_moderate tool.
type ModerateInput struct {
	Prompt  string `json:"prompt" jsonschema:"prompt to check"`
	Subject string `json:"subject,omitempty" jsonschema:"Physics, Biology or Computer Science"`
}

// ModerateOutput contains the moderation verdict.
type ModerateOutput struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// QuotaInput is empty.
type QuotaInput struct{}

// QuotaOutput reports token usage against the ceiling.
type QuotaOutput struct {
	Total int `json:"total"`
	Limit int `json:"limit"`
}

func subjectOrDefault(s string) model.Subject {
	if s == "" {
		return model.DefaultSubject
	}
	return model.Subject(s)
}

func (s *Server) handleSimulate(ctx context.Context, req *mcpsdk.CallToolRequest, input SimulateInput) (*mcpsdk.CallToolResult, SimulateOutput, error) {
	subject := subjectOrDefault(input.Subject)

	verdict := s.gate.Evaluate(input.Prompt, subject)
	if !verdict.Accepted {
		s.record(audit.Entry{
			UserID: s.userID, Subject: string(subject),
			Decision: audit.DecisionBlocked, Reason: verdict.Reason,
		})
		return &mcpsdk.CallToolResult{IsError: true},
			SimulateOutput{Blocked: true, Reason: verdict.Reason}, nil
	}

	artifact, usage, err := s.orch.Generate(ctx, input.Prompt, subject)
	if err != nil {
		s.record(audit.Entry{
			UserID: s.userID, Subject: string(subject),
			Decision: audit.DecisionFailed, Reason: err.Error(), Tokens: usage.Total(),
		})
		return nil, SimulateOutput{}, err
	}

	prompt := model.Prompt{Text: input.Prompt, Subject: subject, UserID: s.userID}
	if _, err := s.ledger.CheckAndCharge(ctx, prompt, usage.Total(), false); err != nil {
		var qe *model.QuotaError
		if errors.As(err, &qe) {
			s.record(audit.Entry{
				UserID: s.userID, Subject: string(subject),
				Decision: audit.DecisionQuota, Tokens: usage.Total(),
			})
			return &mcpsdk.CallToolResult{IsError: true},
				SimulateOutput{Blocked: true, Reason: qe.Error()}, nil
		}
		return nil, SimulateOutput{}, err
	}

	s.record(audit.Entry{
		UserID: s.userID, Subject: string(subject),
		Decision: audit.DecisionGenerated, Tokens: usage.Total(),
	})
	return nil, SimulateOutput{
		CanvasHTML:  artifact.Markup,
		JSCode:      artifact.Script,
		Explanation: artifact.Explanation,
		Tokens:      usage.Total(),
	}, nil
}

func (s *Server) handleModerate(_ context.Context, _ *mcpsdk.CallToolRequest, input ModerateInput) (*mcpsdk.CallToolResult, ModerateOutput, error) {
	verdict := s.gate.Evaluate(input.Prompt, subjectOrDefault(input.Subject))
	return nil, ModerateOutput{Accepted: verdict.Accepted, Reason: verdict.Reason}, nil
}

func (s *Server) handleQuota(ctx context.Context, _ *mcpsdk.CallToolRequest, _ QuotaInput) (*mcpsdk.CallToolResult, QuotaOutput, error) {
	total, err := s.ledger.Total(ctx, s.userID)
	if err != nil {
		return nil, QuotaOutput{}, err
	}
	return nil, QuotaOutput{Total: total, Limit: s.ledger.Ceiling()}, nil
}

func (s *Server) record(entry audit.Entry) {
	if s.auditLog == nil {
		return
	}
	_ = s.auditLog.Record(entry)
}
