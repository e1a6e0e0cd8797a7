// Package health handles the health subcommand.
package health

import (
	"fmt"

	"github.com/spf13/cobra"

	"hishab/cmd/root"
)

// Cmd represents the health command. It probes the AI backend; the rest of
// the pipeline has no external dependencies to check.
var Cmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the AI backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := root.App().Orchestrator().HealthCheck(root.Context(cmd)); err != nil {
			return fmt.Errorf("AI backend unavailable: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "AI backend reachable")
		return nil
	},
}
