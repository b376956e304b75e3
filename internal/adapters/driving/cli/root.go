// Package cli implements the medisimplify command tree.
// Commands are thin drivers over the core driving ports, which are
// injected by the main package through SetServices.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/medisimplify/medisimplify/internal/adapters/driving/inbox"
	"github.com/medisimplify/medisimplify/internal/core/ports/driving"
	"github.com/medisimplify/medisimplify/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var verbose bool

var (
	documentStore   driving.DocumentRecordStore
	settingsService driving.SettingsService
	inboxConfig     inbox.WatcherConfig
)

// Services holds the ports and resolved settings the commands run against.
type Services struct {
	Documents driving.DocumentRecordStore
	Settings  driving.SettingsService

	// Inbox is the resolved watcher configuration; Dir may be overridden
	// per invocation with --dir.
	Inbox inbox.WatcherConfig
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	documentStore = s.Documents
	settingsService = s.Settings
	inboxConfig = s.Inbox
}

var rootCmd = &cobra.Command{
	Use:   "medisimplify",
	Short: "Local store for simplified medical documents",
	Long: `medisimplify keeps processed medical documents on this machine.

Each document pairs a scanned image with its original text and a plain
language simplification. Documents can be listed, searched, exported,
browsed in a terminal UI, served to AI assistants over MCP, or imported
automatically from a pipeline inbox.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which long-running
// commands watch for cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
