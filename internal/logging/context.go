package logging

import (
	"context"
	"log/slog"

	"github.com/Kanjirito/mokuro/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for batch run identifiers.
	FieldRunID = "run_id"
	// FieldVolume is the standardized structured logging key for volume paths.
	FieldVolume = "volume"
	// FieldVolumeIndex is the standardized structured logging key for 1-based volume position within a batch.
	FieldVolumeIndex = "volume_index"
	// FieldVolumeCount is the standardized structured logging key for total volumes in a batch.
	FieldVolumeCount = "volume_count"
	// FieldPage is the standardized structured logging key for page image names.
	FieldPage = "page"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorKind is the standardized structured logging key for failure taxonomy classifications.
	FieldErrorKind = "error_kind"
	// FieldErrorHint is the standardized structured logging key for operator-facing remediation hints.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if vol, ok := services.VolumeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldVolume, vol))
	}
	if idx, ok := services.VolumeIndexFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldVolumeIndex, idx))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
