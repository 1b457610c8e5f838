package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"tgbulkdl/internal/downloader"
	"tgbulkdl/pkg/checkpoint"
	"tgbulkdl/pkg/interrupt"
	"tgbulkdl/pkg/jobs"
	"tgbulkdl/pkg/logger"
	"tgbulkdl/pkg/ui"
	"tgbulkdl/pkg/ui/tui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	logFile       string
	gatewayURL    string
	storagePath   string
	pageSize      int
	notifications bool
	progress      bool
	noLogo        bool
)

// rootCmd runs the interactive downloader when called without subcommands
var rootCmd = &cobra.Command{
	Use:   "tgbulkdl",
	Short: "Bulk download media from Telegram chats with resumable progress",
	Long: `tgbulkdl downloads pictures, videos, documents, music, voice messages
and GIFs from a Telegram chat, channel or forum topic.

Progress is committed after every page of 100 messages, so an interrupted
download resumes exactly where it stopped:
  - Press Ctrl+C during a download to stop after the current checkpoint
  - Choose "Resume active download" to continue later

Credentials are stored encrypted; the session created at sign-in is reused.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noLogo {
			return
		}
		if cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
	RunE: runInteractive,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fatal("Command failed", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/tgbulkdl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file, rotated")
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway-url", "", "Telegram gateway base URL")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage-path", "", "SQLite file holding credentials and jobs")
	rootCmd.PersistentFlags().BoolVar(&noLogo, "no-logo", false, "do not print the logo")

	rootCmd.Flags().IntVar(&pageSize, "page-size", 0, "messages requested per page (1-100)")
	rootCmd.Flags().BoolVar(&notifications, "notifications", true, "enable desktop notifications")
	rootCmd.Flags().BoolVar(&progress, "progress", true, "show the per-file progress line")

	rootCmd.SetVersionTemplate(`tgbulkdl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// flagOverrides collects the flags the user actually set
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name string, value interface{}) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			flags[name] = value
		}
	}
	set("log-level", logLevel)
	set("log-file", logFile)
	set("gateway-url", gatewayURL)
	set("storage-path", storagePath)
	set("page-size", pageSize)
	set("notifications", notifications)
	set("progress", progress)
	return flags
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	intr := interrupt.NewController(a.log)
	intr.Watch(ctx)

	prompter := tui.NewPrompter()
	client, err := a.connect(ctx, prompter)
	if err != nil {
		return err
	}
	defer client.Close(context.WithoutCancel(ctx))

	jobStore := checkpoint.NewStore(a.state, a.log)
	display := ui.NewProgressDisplay(os.Stdout, a.cfg.Download.Progress)
	engine := downloader.NewEngine(client, jobStore, intr, downloader.Options{
		PageSize: a.cfg.Download.PageSize,
		Progress: display,
		Logger:   a.log,
	})
	orchestrator := jobs.New(client, jobStore, engine, prompter, jobs.Options{
		Notifier: ui.NewNotifier(a.cfg.Notifications.Enabled),
		Logger:   a.log,
	})

	logger.LogComponentStart(a.log, "session", map[string]interface{}{
		"page_size":     a.cfg.Download.PageSize,
		"notifications": a.cfg.Notifications.Enabled,
	})
	err = orchestrator.Run(ctx)
	logger.LogComponentStop(a.log, "session", stopReason(err))

	if errors.Is(err, downloader.ErrInterrupted) {
		display.Complete("Stopped")
		ui.PrintWarning("Download interrupted, progress saved. Choose \"Resume active download\" to continue.")
		return nil
	}
	if err != nil {
		if errors.Is(err, downloader.ErrNoClient) {
			a.log.WithError(err).Error("Downloader is not connected")
		}
		return err
	}
	if display.Stats().Files() > 0 {
		display.Complete("Finished")
	}
	return nil
}

func stopReason(err error) string {
	switch {
	case err == nil:
		return "done"
	case errors.Is(err, downloader.ErrInterrupted):
		return "interrupted"
	default:
		return "error"
	}
}
