package services

import "context"

type contextKey string

const (
	runIDKey       contextKey = "run_id"
	volumeKey      contextKey = "volume"
	volumeIndexKey contextKey = "volume_index"
)

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithVolume annotates context with the volume path being processed.
func WithVolume(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, volumeKey, path)
}

// VolumeFromContext returns the volume path if present.
func VolumeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(volumeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithVolumeIndex annotates context with the 1-based position of the volume
// within the working set.
func WithVolumeIndex(ctx context.Context, index int) context.Context {
	if index <= 0 {
		return ctx
	}
	return context.WithValue(ctx, volumeIndexKey, index)
}

// VolumeIndexFromContext extracts the 1-based volume position if present.
func VolumeIndexFromContext(ctx context.Context) (int, bool) {
	switch v := ctx.Value(volumeIndexKey).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}
