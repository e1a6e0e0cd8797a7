// Package root contains the root command for the application and the shared
// wiring every subcommand depends on.
package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hishab/internal/config"
	"hishab/internal/container"
	"hishab/internal/logging"
)

var app *container.Container

// Cmd is the root command.
var Cmd = &cobra.Command{
	Use:   "hishab",
	Short: "Parse everyday phrases into transactions and tasks.",
	Long: `hishab turns natural-language phrases like "spent 500 taka on groceries"
into structured transactions and tasks. Parsing uses the Gemini API when a
key is configured and falls back to deterministic rules otherwise. Every
parse attempt is recorded in an audit log for review.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()

		cfg, err := config.InitializeConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		app, err = container.NewContainer(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("initializing application: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			if err := app.Close(); err != nil {
				logging.GetLogger().WithError(err).Warn("shutdown cleanup failed")
			}
		}
	},
}

// App returns the wired dependency container. It panics when called before
// the root command's PersistentPreRunE, which is a programming error.
func App() *container.Container {
	if app == nil {
		panic("container accessed before initialization")
	}
	return app
}

// SetApp replaces the container, for command tests.
func SetApp(c *container.Container) { app = c }

// Context returns a base context for command execution.
func Context(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
