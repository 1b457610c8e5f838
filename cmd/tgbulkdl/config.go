package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tgbulkdl/pkg/config"
	"tgbulkdl/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tgbulkdl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TGBULKDL_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as 'tgbulkdl.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# tgbulkdl configuration file
#
# Every option can also be set with an environment variable prefixed with
# TGBULKDL_, for example TGBULKDL_API_ID or TGBULKDL_GATEWAY_URL.

telegram:
  # From https://my.telegram.org; usually entered once and stored encrypted
  api_id: 0
  api_hash: ""
  # MTProto gateway the downloader talks to
  gateway_url: "http://127.0.0.1:8081"
  timeout: 60s

storage:
  # SQLite file with credentials and active jobs
  # Default: the per-user data directory
  path: ""

download:
  # Messages per page, 1-100. A page shorter than this ends a media type.
  page_size: 100
  progress: true

rate_limit:
  requests_per_minute: 120
  burst_size: 5

retry:
  max_attempts: 3
  base_delay: 1s
  max_delay: 30s

notifications:
  enabled: true

logging:
  level: "info"
  # Rotated log file; empty logs to the console only
  file: ""
  max_size: 50
  max_backups: 3
  max_age: 14
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "tgbulkdl.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(ui.Output, "\nNext steps:")
	fmt.Fprintln(ui.Output, "1. Set gateway_url to your gateway")
	fmt.Fprintln(ui.Output, "2. Run 'tgbulkdl config validate' to check the configuration")
	fmt.Fprintln(ui.Output, "3. Run 'tgbulkdl auth login' to sign in")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return err
	}

	shown := *cfg
	if shown.Telegram.APIHash != "" {
		shown.Telegram.APIHash = "***"
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Output)
	fmt.Fprint(ui.Output, string(data))

	path, err := cfg.StoragePath()
	if err == nil {
		fmt.Fprintln(ui.Output)
		ui.PrintInfo("Storage", path)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed")
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			for _, e := range joined.Unwrap() {
				fmt.Fprintf(ui.Output, "  - %v\n", e)
			}
		}
		return err
	}

	var warnings []string
	if cfg.Telegram.APIID == 0 || cfg.Telegram.APIHash == "" {
		warnings = append(warnings, "API credentials not configured; stored credentials will be used")
	}
	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(ui.Output, "  - %s\n", w)
		}
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Fprintln(ui.Output, "\nConfiguration summary:")
	fmt.Fprintf(ui.Output, "  Gateway: %s\n", cfg.Telegram.GatewayURL)
	fmt.Fprintf(ui.Output, "  Page size: %d\n", cfg.Download.PageSize)
	fmt.Fprintf(ui.Output, "  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Fprintf(ui.Output, "  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Fprintf(ui.Output, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
