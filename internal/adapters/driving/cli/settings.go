package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/medisimplify/medisimplify/internal/core/domain"
)

var errNoSettingsService = errors.New("settings service not configured")

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change storage, inbox and logging settings.

Settings live in config.toml under the medisimplify home directory.
MEDISIMPLIFY_HOME, MEDISIMPLIFY_STORAGE and MEDISIMPLIFY_REDIS_URL
override the file for a single run.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Change a single setting. An empty value restores the default.

Keys:
  storage.backend        sqlite, redis or memory
  storage.data_dir       directory for the database and documents
  storage.redis_url      redis://[:password@]host:port/db
  storage.redis_prefix   key prefix for the redis backend
  inbox.dir              directory watched for pipeline hand-offs
  inbox.rate_per_second  maximum imports per second
  inbox.burst            imports allowed at once
  logging.verbose        true or false`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend.Description())
	cmd.Printf("  Data dir: %s\n", orDefault(settings.Storage.DataDir))
	if settings.Storage.Backend == domain.StorageBackendRedis {
		cmd.Printf("  Redis URL: %s\n", maskURL(settings.Storage.RedisURL))
		cmd.Printf("  Redis prefix: %s\n", settings.Storage.RedisPrefix)
	}
	cmd.Println()

	cmd.Println("[Inbox]")
	cmd.Printf("  Dir: %s\n", orDefault(settings.Inbox.Dir))
	cmd.Printf("  Rate: %g/s (burst %d)\n", settings.Inbox.RatePerSecond, settings.Inbox.Burst)
	cmd.Println()

	cmd.Println("[Logging]")
	cmd.Printf("  Verbose: %t\n", settings.Logging.Verbose)
	cmd.Println()

	if path := settingsService.ConfigPath(); path != "" {
		cmd.Printf("Config file: %s\n", path)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if value == "" {
		cmd.Printf("Reset %s to default\n", key)
		return nil
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func orDefault(v string) string {
	if v == "" {
		return "(default)"
	}
	return v
}

// maskURL hides any password in a connection URL.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(invalid url)"
	}
	return u.Redacted()
}
