// Package mcp exposes the generation pipeline as MCP tools over stdio, so
// agent runtimes can request simulations, dry-run moderation checks and
// quota lookups without going through the HTTP API.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mindrender/mindrender/internal/audit"
	"github.com/mindrender/mindrender/internal/moderation"
	"github.com/mindrender/mindrender/internal/orchestrator"
	"github.com/mindrender/mindrender/internal/quota"
)

// Config holds the wired pipeline components for the MCP server.
type Config struct {
	Gate   *moderation.Gate
	Orch   *orchestrator.Orchestrator
	Ledger *quota.Ledger
	Audit  *audit.Log
	// UserID is the principal all tool calls are accounted against.
	UserID string
}

// Server wraps the MCP SDK server around the generation pipeline.
type Server struct {
	mcpServer *mcpsdk.Server
	gate      *moderation.Gate
	orch      *orchestrator.Orchestrator
	ledger    *quota.Ledger
	auditLog  *audit.Log
	userID    string
}

// New creates an MCP server and registers its tools.
func New(cfg Config) *Server {
	userID := cfg.UserID
	if userID == "" {
		userID = "mcp"
	}
	s := &Server{
		gate:     cfg.Gate,
		orch:     cfg.Orch,
		ledger:   cfg.Ledger,
		auditLog: cfg.Audit,
		userID:   userID,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "mindrender",
			Version: "0.1.0",
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP on stdio. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close closes the audit log if configured.
func (s *Server) Close() error {
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mindrender_simulate",
		Description: "Generate an interactive educational simulation from a prompt. Returns canvas markup, script and an explanation, or a refusal reason.",
	}, s.handleSimulate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mindrender_moderate",
		Description: "Check whether a prompt would pass content moderation without generating anything (dry-run).",
	}, s.handleModerate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mindrender_quota",
		Description: "Report current token usage against the quota ceiling.",
	}, s.handleQuota)
}
