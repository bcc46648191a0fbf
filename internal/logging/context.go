package logging

import (
	"context"
	"log/slog"

	"platen/internal/services"
)

// Shared structured logging keys. The stream handler promotes these onto
// dedicated LogEvent fields, so producers must spell them through the
// constants rather than as literals.
const (
	// FieldComponent names the subsystem emitting the record.
	FieldComponent = "component"
	// FieldItemID carries the input item identifier.
	FieldItemID = "item_id"
	// FieldStage carries the pipeline stage name.
	FieldStage = "stage"
	// FieldAttempt carries the 1-based attempt number.
	FieldAttempt = "attempt"
	// FieldCorrelationID carries the per-attempt request identifier.
	FieldCorrelationID = "correlation_id"
	// FieldEventType carries a machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator next step for a failure.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts the item, stage, attempt, and request identifiers
// the services package stored on ctx, as slog attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.ItemIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldItemID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if attempt, ok := services.AttemptFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldAttempt, attempt))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext derives a logger carrying the attributes ContextFields finds
// on ctx. A nil logger starts from the nop logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
