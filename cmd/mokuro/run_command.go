package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Kanjirito/mokuro/internal/batch"
	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/ledger"
	"github.com/Kanjirito/mokuro/internal/logging"
	"github.com/Kanjirito/mokuro/internal/ocr"
	"github.com/Kanjirito/mokuro/internal/overlay"
	"github.com/Kanjirito/mokuro/internal/preflight"
	"github.com/Kanjirito/mokuro/internal/reader"
	"github.com/Kanjirito/mokuro/internal/volume"
)

type runFlags struct {
	parentDir           string
	model               string
	forceCPU            bool
	disableOCR          bool
	disableConfirmation bool
	asOneFile           bool
	jobs                int

	rightToLeft        bool
	doublePageView     bool
	hasCover           bool
	ctrlToPan          bool
	displayOCR         bool
	textboxBorders     bool
	editableText       bool
	fontSize           string
	einkMode           bool
	toggleOCRTextBoxes bool
	backgroundColor    string
}

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [path...]",
		Short: "Process manga volumes into overlay artifacts",
		Long: `Process manga volume directories with OCR and write a .mokuro artifact
next to each volume. Paths name volume directories directly; --parent-dir
adds every child directory of the given parent to the working set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, cmdCtx, flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.parentDir, "parent-dir", "", "Directory whose child directories are processed as volumes")
	cmd.Flags().StringVar(&flags.model, "model", ocr.DefaultModel, "manga-ocr model requested from the inference service")
	cmd.Flags().BoolVar(&flags.forceCPU, "force-cpu", false, "Ask the OCR service to run on CPU even if CUDA is available")
	cmd.Flags().BoolVar(&flags.disableOCR, "disable-ocr", false, "Skip OCR and generate artifacts without text results")
	cmd.Flags().BoolVar(&flags.disableConfirmation, "disable-confirmation", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&flags.asOneFile, "as-one-file", true, "Embed every page result in the volume artifact")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 1, "Number of volumes processed in parallel")

	cmd.Flags().BoolVar(&flags.rightToLeft, "right-to-left", true, "Reader default for right to left reading")
	cmd.Flags().BoolVar(&flags.doublePageView, "double-page-view", true, "Reader default for double page view")
	cmd.Flags().BoolVar(&flags.hasCover, "has-cover", false, "Reader default for treating the first page as a cover")
	cmd.Flags().BoolVar(&flags.ctrlToPan, "ctrl-to-pan", false, "Reader default for Ctrl+mouse panning")
	cmd.Flags().BoolVar(&flags.displayOCR, "display-ocr", true, "Reader default for OCR text display")
	cmd.Flags().BoolVar(&flags.textboxBorders, "textbox-borders", false, "Reader default for text box borders")
	cmd.Flags().BoolVar(&flags.editableText, "editable-text", false, "Reader default for editable text")
	cmd.Flags().StringVar(&flags.fontSize, "font-size", "auto", "Reader default font size")
	cmd.Flags().BoolVar(&flags.einkMode, "eink-mode", false, "Reader default for e-ink mode")
	cmd.Flags().BoolVar(&flags.toggleOCRTextBoxes, "toggle-ocr-textboxes", false, "Reader default for click-to-toggle text boxes")
	cmd.Flags().StringVar(&flags.backgroundColor, "background-color", "#C4C3D0", "Reader default background color")

	return cmd
}

func runBatch(cmd *cobra.Command, cmdCtx *commandContext, flags *runFlags, args []string) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg, flags)

	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return err
	}

	volumes, err := volume.Resolve(args, flags.parentDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := batch.Confirm(cmd.InOrStdin(), out, volumes, cfg.Runner.DisableConfirmation); err != nil {
		switch {
		case errors.Is(err, batch.ErrNoVolumes):
			logger.Error("found no paths to process; did you set the paths correctly?")
			return nil
		case errors.Is(err, batch.ErrDeclined):
			logger.Info("run declined by operator")
			return nil
		default:
			return err
		}
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another mokuro run is already in progress (lock %s)", cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := preflight.RunAll(ctx, cfg, volumes, !flags.disableOCR)
	if failed := preflight.Failures(checks); len(failed) > 0 {
		for _, result := range failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "preflight %s: %s\n", result.Name, result.Detail)
		}
		return fmt.Errorf("%d preflight checks failed", len(failed))
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	runID := uuid.NewString()
	if err := store.BeginRun(ctx, ledger.Run{
		ID:          runID,
		StartedAt:   time.Now().UTC(),
		Total:       len(volumes),
		Model:       cfg.OCR.Model,
		OCRDisabled: flags.disableOCR,
	}); err != nil {
		return fmt.Errorf("record run start: %w", err)
	}

	generator := overlay.New(newOCRClient(cfg), logger, overlay.Options{
		DisableOCR: flags.disableOCR,
		AsOneFile:  cfg.Output.AsOneFile,
		Reader:     reader.FromConfig(cfg.Reader),
		Progress:   pageProgress(cmd.ErrOrStderr(), cfg.Runner.Jobs),
	})
	runner := batch.New(generator, logger, batch.Config{
		RunID:    runID,
		Jobs:     cfg.Runner.Jobs,
		Recorder: store,
	})

	outcome := runner.Run(ctx, volumes)

	// The run context may already be cancelled; the final tallies still
	// need to land.
	if err := store.FinishRun(context.Background(), runID, outcome.Succeeded); err != nil {
		logger.Warn("failed to finalize run record", logging.Error(err))
	}

	fmt.Fprintf(out, "\nProcessed successfully: %d/%d\n", outcome.Succeeded, outcome.Total)
	if failed := outcome.Failed(); failed > 0 {
		fmt.Fprintf(out, "Failed: %d (details: mokuro history --run %s)\n", failed, runID)
	}
	if outcome.Skipped > 0 {
		fmt.Fprintf(out, "Skipped: %d\n", outcome.Skipped)
	}
	return nil
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config, flags *runFlags) {
	set := cmd.Flags()
	if set.Changed("model") {
		cfg.OCR.Model = flags.model
	}
	if set.Changed("force-cpu") {
		cfg.OCR.ForceCPU = flags.forceCPU
	}
	if set.Changed("jobs") {
		cfg.Runner.Jobs = flags.jobs
	}
	if set.Changed("disable-confirmation") {
		cfg.Runner.DisableConfirmation = flags.disableConfirmation
	}
	if set.Changed("as-one-file") {
		cfg.Output.AsOneFile = flags.asOneFile
	}
	if set.Changed("right-to-left") {
		cfg.Reader.RightToLeft = flags.rightToLeft
	}
	if set.Changed("double-page-view") {
		cfg.Reader.DoublePageView = flags.doublePageView
	}
	if set.Changed("has-cover") {
		cfg.Reader.HasCover = flags.hasCover
	}
	if set.Changed("ctrl-to-pan") {
		cfg.Reader.CtrlToPan = flags.ctrlToPan
	}
	if set.Changed("display-ocr") {
		cfg.Reader.DisplayOCR = flags.displayOCR
	}
	if set.Changed("textbox-borders") {
		cfg.Reader.TextBoxBorders = flags.textboxBorders
	}
	if set.Changed("editable-text") {
		cfg.Reader.EditableText = flags.editableText
	}
	if set.Changed("font-size") {
		cfg.Reader.FontSize = flags.fontSize
	}
	if set.Changed("eink-mode") {
		cfg.Reader.EInkMode = flags.einkMode
	}
	if set.Changed("toggle-ocr-textboxes") {
		cfg.Reader.ToggleOCRTextBoxes = flags.toggleOCRTextBoxes
	}
	if set.Changed("background-color") {
		cfg.Reader.BackgroundColor = flags.backgroundColor
	}
}

func newOCRClient(cfg *config.Config) *ocr.Client {
	opts := make([]ocr.Option, 0, 2)
	if cfg.OCR.MaxAttempts > 0 {
		opts = append(opts, ocr.WithRetryMaxAttempts(cfg.OCR.MaxAttempts))
	}
	if cfg.OCR.RetryDelaySeconds > 0 {
		opts = append(opts, ocr.WithRetryBackoff(time.Duration(cfg.OCR.RetryDelaySeconds)*time.Second, 0))
	}
	return ocr.NewClient(ocr.Config{
		BaseURL:        cfg.OCR.BaseURL,
		Model:          cfg.OCR.Model,
		ForceCPU:       cfg.OCR.ForceCPU,
		TimeoutSeconds: cfg.OCR.TimeoutSeconds,
	}, opts...)
}

// pageProgress renders a per-volume page bar. Only sequential terminal runs
// get one; parallel workers would interleave writes on the same line.
func pageProgress(out io.Writer, jobs int) func(string, int, int) {
	if jobs > 1 || !shouldColorize(out) {
		return nil
	}
	var bar *progressbar.ProgressBar
	var current string
	return func(volumePath string, page, total int) {
		if bar == nil || current != volumePath {
			current = volumePath
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(volume.Name(volumePath)),
				progressbar.OptionSetWriter(out),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(false),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(page)
	}
}
