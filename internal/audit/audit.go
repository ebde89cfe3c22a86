// Package audit defines the audit event collaborator invoked on account
// lifecycle events.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/morelo/writeback/internal/model"
)

// Recorder receives audit events. Recording is fire-and-forget: callers do
// not consume a result and must not fail because an event was dropped.
type Recorder interface {
	Record(ctx context.Context, event string, subject model.AccountID)
}

// LogRecorder emits audit events to the structured log.
type LogRecorder struct {
	log zerolog.Logger
}

func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Record(ctx context.Context, event string, subject model.AccountID) {
	r.log.Info().
		Str("event", event).
		Int64("account_id", int64(subject)).
		Msg("Audit event")
}
