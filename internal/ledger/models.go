package ledger

import "time"

// Status labels a recorded volume outcome.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one invocation of the batch processor.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Total       int
	Succeeded   int
	Model       string
	OCRDisabled bool
}

// Finished reports whether the run recorded its final tallies.
func (r *Run) Finished() bool {
	return r != nil && r.FinishedAt != nil
}

// Volume is one attempted volume within a run.
type Volume struct {
	ID           int64
	RunID        string
	Path         string
	Title        string
	Status       Status
	ErrorMessage string
	Pages        int
	Duration     time.Duration
	ProcessedAt  time.Time
}
