package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/ledger"
	"github.com/Kanjirito/mokuro/internal/preflight"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, readiness checks, and the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("mokuro", colorize) {
				fmt.Fprintln(out, line)
			}

			configPath, usedFile := cmdCtx.configSource()
			if usedFile {
				fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configPath, colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Config", statusWarn, fmt.Sprintf("defaults (no file at %s)", configPath), colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Ledger", statusInfo, cfg.LedgerPath(), colorize))

			checks := []preflight.Result{
				preflight.CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
				preflight.CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
				preflight.CheckOCRFromConfig(cfg),
			}
			for _, check := range checks {
				fmt.Fprintln(out, renderCheckLine(check, colorize))
			}

			fmt.Fprintln(out, renderLastRunLine(cmd, cfg, colorize))
			return nil
		},
	}
}

func renderLastRunLine(cmd *cobra.Command, cfg *config.Config, colorize bool) string {
	const label = "Last run"

	store, err := ledger.Open(cfg)
	if err != nil {
		return renderStatusLine(label, statusError, err.Error(), colorize)
	}
	defer store.Close()

	runs, err := store.RecentRuns(cmd.Context(), 1)
	if err != nil {
		return renderStatusLine(label, statusError, err.Error(), colorize)
	}
	if len(runs) == 0 {
		return renderStatusLine(label, statusInfo, "none recorded", colorize)
	}

	run := runs[0]
	if !run.Finished() {
		return renderStatusLine(label, statusWarn, fmt.Sprintf("in progress, started %s", humanize.Time(run.StartedAt)), colorize)
	}
	kind := statusOK
	if run.Succeeded < run.Total {
		kind = statusWarn
	}
	detail := fmt.Sprintf("%d/%d succeeded, %s", run.Succeeded, run.Total, humanize.Time(run.StartedAt))
	return renderStatusLine(label, kind, detail, colorize)
}
