package batch

import "time"

// VolumeResult is one volume's slot in the outcome, in working-set order.
type VolumeResult struct {
	Path      string
	Index     int // 1-based position in the working set
	Attempted bool
	Pages     int
	Duration  time.Duration
	Err       error
}

// Outcome accumulates the result of one batch run.
type Outcome struct {
	RunID     string
	Total     int
	Attempted int
	Succeeded int
	Skipped   int
	Duration  time.Duration
	Results   []VolumeResult
}

// Failed returns how many attempted volumes ended in an error.
func (o Outcome) Failed() int {
	return o.Attempted - o.Succeeded
}
