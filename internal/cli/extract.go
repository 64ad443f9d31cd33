package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindrender/mindrender/internal/orchestrator"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract canvas, script and explanation from a raw model reply",
	Long:  "Parses a saved model reply (file argument, or stdin) the same way the\ngeneration pipeline does. Useful when debugging replies that fail extraction.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return err
	}

	artifact, err := orchestrator.Extract(string(data))
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	out, _ := json.MarshalIndent(artifact, "", "  ")
	fmt.Println(string(out))
	return nil
}
