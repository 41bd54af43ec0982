package batch

import "context"

// Recorder persists per-volume outcomes as a run progresses. Implementations
// must tolerate concurrent calls when the runner uses more than one worker.
type Recorder interface {
	RecordVolume(ctx context.Context, runID string, result VolumeResult) error
}
