package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/ledger"
)

func newHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs recorded in the ledger",
		Long: `Show the runs recorded in the ledger, newest first. With --run the
per-volume results of a single run are listed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(runID) != "" {
				return showRunDetail(cmd, cfg, strings.TrimSpace(runID))
			}
			return showRunList(cmd, cfg, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show the volumes of a single run")

	return cmd
}

func showRunList(cmd *cobra.Command, cfg *config.Config, limit int) error {
	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	runValues := make([]ledger.Run, len(runs))
	for i, run := range runs {
		runValues[i] = *run
	}

	headers := []string{"Run", "Started", "Volumes", "Mode", "Model"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
	fmt.Fprintln(out, renderTable(headers, buildRunListRows(runValues), aligns))
	return nil
}

func showRunDetail(cmd *cobra.Command, cfg *config.Config, runID string) error {
	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	run, err := store.RunByID(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	volumes, err := store.VolumesForRun(cmd.Context(), runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "Started:  %s (%s)\n", formatDisplayTime(run.StartedAt), humanize.Time(run.StartedAt))
	if run.Finished() {
		fmt.Fprintf(out, "Finished: %s\n", formatDisplayTime(*run.FinishedAt))
	} else {
		fmt.Fprintln(out, "Finished: still running")
	}
	fmt.Fprintf(out, "Mode:     %s\n", formatRunMode(run.OCRDisabled))
	if run.Model != "" {
		fmt.Fprintf(out, "Model:    %s\n", run.Model)
	}
	fmt.Fprintf(out, "Volumes:  %d/%d succeeded\n\n", run.Succeeded, run.Total)

	if len(volumes) == 0 {
		fmt.Fprintln(out, "No volumes recorded for this run.")
		return nil
	}

	volumeValues := make([]ledger.Volume, len(volumes))
	for i, vol := range volumes {
		volumeValues[i] = *vol
	}

	headers := []string{"#", "Volume", "Status", "Pages", "Duration", "Error"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	fmt.Fprintln(out, renderTable(headers, buildVolumeRows(volumeValues), aligns))
	return nil
}
