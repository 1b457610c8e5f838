package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tgbulkdl/pkg/logger"
	"tgbulkdl/pkg/rename"
	"tgbulkdl/pkg/ui"
	"tgbulkdl/pkg/ui/tui"
)

var (
	renameOutput string
	renameMP3    bool
	renameLog    bool
)

var renameCmd = &cobra.Command{
	Use:   "rename <download-dir>",
	Short: "Copy downloaded audio to files named after the original upload",
	Long: `Downloads are saved as {message id}.{ext}. When metadata.json was recorded,
this command copies every audio file (.mpga .m4a .wav .aiff .mp3 .ogg) into an
output directory under the file name it was uploaded with.`,
	Example: `  tgbulkdl rename ./music --output ./music-named --mp3`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRename,
}

func init() {
	rootCmd.AddCommand(renameCmd)

	renameCmd.Flags().StringVarP(&renameOutput, "output", "o", "", "output directory (prompted when empty)")
	renameCmd.Flags().BoolVar(&renameMP3, "mp3", false, "save .mpga files with the .mp3 extension")
	renameCmd.Flags().BoolVar(&renameLog, "log", false, "write "+rename.LogFileName+" into the output directory")
}

func runRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.GetLogger().WithField("component", "rename")
	prompter := tui.NewPrompter()

	inputDir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	plan, err := rename.NewPlan(inputDir)
	if err != nil {
		return fmt.Errorf("metadata.json not usable in %s: %w", inputDir, err)
	}

	fmt.Fprintln(ui.Output, "\nAudio files found:")
	for _, ext := range rename.AudioFormats {
		if n := plan.ByFormat[ext]; n > 0 {
			fmt.Fprintf(ui.Output, "%s: %d files\n", ext, n)
		}
	}
	fmt.Fprintf(ui.Output, "\nFound %d matching files out of %d total audio files\n", plan.Matching(), len(plan.Files))
	if len(plan.Files) == 0 {
		return nil
	}

	outputDir := renameOutput
	if outputDir == "" {
		outputDir, err = prompter.Input(ctx, "Enter the output directory path", filepath.Join(inputDir, "renamed"), nil)
		if err != nil {
			return err
		}
	}
	if outputDir, err = filepath.Abs(strings.TrimSpace(outputDir)); err != nil {
		return err
	}

	if !cmd.Flags().Changed("mp3") && plan.ByFormat[".mpga"] > 0 {
		renameMP3, err = prompter.Confirm(ctx, "Do you want to save MPGA files with the .mp3 extension?", false)
		if err != nil {
			return err
		}
	}

	ok, err := prompter.Confirm(ctx, "Do you want to continue with the renaming process?", false)
	if err != nil {
		return err
	}
	if !ok {
		ui.PrintWarning("Operation cancelled")
		return nil
	}

	res, err := rename.Apply(plan, outputDir, renameMP3)
	if err != nil {
		return err
	}
	for _, f := range res.Failures {
		ui.PrintWarning(f)
	}

	log.WithFields(map[string]interface{}{
		"input":   inputDir,
		"output":  outputDir,
		"renamed": res.Renamed,
		"failed":  len(res.Failures),
	}).Info("Rename finished")
	ui.PrintSuccess(fmt.Sprintf("Renamed %d of %d files into %s", res.Renamed, res.Total, outputDir))

	if renameLog {
		path := filepath.Join(outputDir, rename.LogFileName)
		if err := rename.WriteLog(res, path); err != nil {
			return err
		}
		ui.PrintInfo("Log file", path)
	}
	return nil
}
