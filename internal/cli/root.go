// Package cli implements the mindrender command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mindrender",
	Short: "LLM-generated educational simulations",
	Long:  "Generates interactive canvas simulations for Physics, Biology and ComputerScience prompts: moderation gate, model call, token quota, sandboxed delivery.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.mindrender/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
