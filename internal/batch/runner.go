package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kanjirito/mokuro/internal/logging"
	"github.com/Kanjirito/mokuro/internal/services"
)

// Processor handles one volume directory and reports how many pages it
// completed. Implementations are shared across workers and must be safe for
// concurrent use.
type Processor interface {
	Process(ctx context.Context, volumePath string) (pages int, err error)
}

// Config adjusts runner behavior.
type Config struct {
	// Jobs bounds the worker pool; values below 1 run sequentially.
	Jobs int
	// RunID overrides the generated run identifier.
	RunID string
	// Recorder receives per-volume outcomes; nil disables recording.
	Recorder Recorder
}

// Runner processes working sets with per-volume fault isolation.
type Runner struct {
	processor Processor
	logger    *slog.Logger
	cfg       Config
}

// New constructs a runner around the given processor.
func New(processor Processor, logger *slog.Logger, cfg Config) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "batch"),
		cfg:       cfg,
	}
}

type task struct {
	index int
	path  string
}

// Run processes every volume in the working set and returns the accounting.
// One volume's failure never aborts the rest. Cancellation stops dispatch;
// undispatched and interrupted volumes count as skipped.
func (r *Runner) Run(ctx context.Context, volumes []string) Outcome {
	runID := strings.TrimSpace(r.cfg.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	outcome := Outcome{
		RunID:   runID,
		Total:   len(volumes),
		Results: make([]VolumeResult, len(volumes)),
	}
	for i, path := range volumes {
		outcome.Results[i] = VolumeResult{Path: path, Index: i + 1}
	}

	started := time.Now()
	if len(volumes) > 0 {
		logger.Debug("batch run started",
			logging.Int(logging.FieldVolumeCount, len(volumes)),
			logging.Int("jobs", r.jobs(len(volumes))))
		r.runPool(ctx, logger, volumes, &outcome)
	}
	outcome.Skipped = outcome.Total - outcome.Attempted
	outcome.Duration = time.Since(started)

	logger.Info("processed successfully",
		logging.Int("succeeded", outcome.Succeeded),
		logging.Int(logging.FieldVolumeCount, outcome.Total),
		logging.Int("failed", outcome.Failed()),
		logging.Int("skipped", outcome.Skipped),
		logging.Duration("run_duration", outcome.Duration))
	return outcome
}

func (r *Runner) jobs(total int) int {
	jobs := r.cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}
	if jobs > total {
		jobs = total
	}
	return jobs
}

// runPool fans volumes out to the workers and folds every result back
// through a single collector so counter updates never race.
func (r *Runner) runPool(ctx context.Context, logger *slog.Logger, volumes []string, outcome *Outcome) {
	tasks := make(chan task)
	results := make(chan VolumeResult)

	var wg sync.WaitGroup
	for w := 0; w < r.jobs(len(volumes)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range tasks {
				if ctx.Err() != nil {
					// Dispatched before cancellation landed; hand the
					// slot back untouched.
					results <- VolumeResult{Path: tk.path, Index: tk.index + 1}
					continue
				}
				results <- r.processVolume(ctx, tk.index, tk.path, len(volumes))
			}
		}()
	}

	go func() {
		defer close(tasks)
		for i, path := range volumes {
			select {
			case <-ctx.Done():
				return
			case tasks <- task{index: i, path: path}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		outcome.Results[result.Index-1] = result
		if !result.Attempted {
			continue
		}
		outcome.Attempted++
		if result.Err == nil {
			outcome.Succeeded++
		}
		r.record(ctx, logger, outcome.RunID, result)
	}
}

func (r *Runner) processVolume(ctx context.Context, index int, path string, total int) VolumeResult {
	volCtx := services.WithVolume(ctx, path)
	volCtx = services.WithVolumeIndex(volCtx, index+1)
	logger := logging.WithContext(volCtx, r.logger)

	logger.Info("processing volume", logging.Int(logging.FieldVolumeCount, total))

	result := VolumeResult{Path: path, Index: index + 1, Attempted: true}
	start := time.Now()
	pages, err := r.safeProcess(volCtx, path)
	result.Duration = time.Since(start)
	result.Pages = pages

	switch {
	case err == nil:
		logger.Info("volume processed",
			logging.Int("pages", pages),
			logging.Duration("volume_duration", result.Duration))
	case errors.Is(err, context.Canceled):
		logger.Debug("volume interrupted by shutdown")
		result.Attempted = false
		result.Err = err
	default:
		result.Err = err
		logger.Error("volume failed",
			logging.Alert("volume_failure"),
			logging.String(logging.FieldEventType, "volume_failure"),
			logging.String(logging.FieldErrorKind, services.FailureKind(err)),
			logging.Error(err))
	}
	return result
}

// safeProcess converts a processor panic into a per-volume error so one bad
// volume cannot take down the batch.
func (r *Runner) safeProcess(ctx context.Context, path string) (pages int, err error) {
	if r.processor == nil {
		return 0, errors.New("volume processor unavailable")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("volume processor panic: %v", rec)
		}
	}()
	return r.processor.Process(ctx, path)
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, runID string, result VolumeResult) {
	if r.cfg.Recorder == nil {
		return
	}
	// Outcomes finishing mid-shutdown must still land in the ledger.
	ctx = context.WithoutCancel(ctx)
	if err := r.cfg.Recorder.RecordVolume(ctx, runID, result); err != nil {
		logger.Warn("failed to record volume outcome",
			logging.String(logging.FieldVolume, result.Path),
			logging.Error(err))
	}
}
