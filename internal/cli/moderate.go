package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mindrender/mindrender/internal/config"
	"github.com/mindrender/mindrender/internal/model"
	"github.com/mindrender/mindrender/internal/moderation"
)

var moderateSubject string

func init() {
	rootCmd.AddCommand(moderateCmd)
	moderateCmd.Flags().StringVar(&moderateSubject, "subject", string(model.DefaultSubject), "Subject the prompt targets")
}

var moderateCmd = &cobra.Command{
	Use:   "moderate <prompt>",
	Short: "Run the content gate against a prompt without generating",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runModerate,
}

func runModerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	gate, err := moderation.Load(cfg.Moderation.PatternsPath)
	if err != nil {
		return err
	}

	prompt := strings.Join(args, " ")
	verdict := gate.Evaluate(prompt, model.Subject(moderateSubject))

	out, _ := json.MarshalIndent(map[string]any{
		"accepted": verdict.Accepted,
		"reason":   verdict.Reason,
	}, "", "  ")
	fmt.Println(string(out))
	return nil
}
