package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mindmcp "github.com/mindrender/mindrender/internal/mcp"
)

var mcpUserID string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpUserID, "user", "mcp", "Principal quota usage is accounted against")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs mindrender as an MCP (Model Context Protocol) server over stdio.\nExposes tools: simulate, moderate, quota.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadValidated()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, cleanup, err := buildDeps(ctx, cfg, newLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer cleanup()

	srv := mindmcp.New(mindmcp.Config{
		Gate:   deps.Gate,
		Orch:   deps.Orch,
		Ledger: deps.Ledger,
		Audit:  deps.Audit,
		UserID: mcpUserID,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	return srv.Run(ctx)
}
