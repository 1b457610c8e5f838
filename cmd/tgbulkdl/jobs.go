package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tgbulkdl/pkg/checkpoint"
	"tgbulkdl/pkg/jobs"
	"tgbulkdl/pkg/ui"
	"tgbulkdl/pkg/ui/tui"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and remove active downloads",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active downloads and their cursors",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsRemoveCmd = &cobra.Command{
	Use:   "remove <job-id>",
	Short: "Forget an active download without running it",
	Long: `Remove an active download. Files already downloaded are kept; the job
can no longer be resumed.`,
	Example: `  tgbulkdl jobs list
  tgbulkdl jobs remove 1234567890`,
	Args: cobra.ExactArgs(1),
	RunE: runJobsRemove,
}

var assumeYes bool

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsRemoveCmd)

	jobsRemoveCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

func (a *app) offlineJobs() *jobs.Orchestrator {
	return jobs.New(nil, checkpoint.NewStore(a.state, a.log), nil, nil, jobs.Options{Logger: a.log})
}

func runJobsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	active, err := a.offlineJobs().ActiveJobs()
	if err != nil {
		return err
	}
	if len(active) == 0 {
		ui.PrintWarning("No active downloads")
		return nil
	}

	for _, aj := range active {
		ui.PrintHighlight(fmt.Sprintf("%s  %s", aj.ID, aj.Job.Label(aj.ID)))
		ui.PrintInfo("  Output", aj.Job.OutputDir)

		cursors := make([]string, 0, len(aj.Job.MediaTypes))
		for _, c := range aj.Job.MediaTypes {
			cursors = append(cursors, fmt.Sprintf("%s@%d", c.Type.Label(), c.Offset))
		}
		ui.PrintInfo("  Pending", strings.Join(cursors, ", "))
		if !aj.Job.UpdatedAt.IsZero() {
			ui.PrintInfo("  Updated", humanize.Time(aj.Job.UpdatedAt))
		}
	}
	return nil
}

func runJobsRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	jobID := strings.TrimSpace(args[0])
	if !assumeYes {
		ok, err := tui.NewPrompter().Confirm(ctx, fmt.Sprintf("Remove job %s?", jobID), false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	err = a.offlineJobs().Discard(ctx, jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		ui.PrintWarning("No active download with id", jobID)
		return nil
	}
	if err != nil {
		return err
	}
	ui.PrintSuccess("Job removed")
	return nil
}
