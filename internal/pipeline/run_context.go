package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sitepix/internal/logging"
)

// RunContext carries the identity and timing of one run. It replaces any
// process-wide start time: elapsed durations are measured from Start.
type RunContext struct {
	RunID  string
	Start  time.Time
	Logger *slog.Logger
}

// NewRunContext stamps a fresh run ID and start time.
func NewRunContext(logger *slog.Logger) RunContext {
	return RunContext{
		RunID:  uuid.NewString(),
		Start:  time.Now(),
		Logger: logger,
	}
}

// Elapsed returns the time since the run started.
func (rc RunContext) Elapsed() time.Duration {
	if rc.Start.IsZero() {
		return 0
	}
	return time.Since(rc.Start)
}

// Context attaches the run ID to ctx for downstream loggers.
func (rc RunContext) Context(ctx context.Context) context.Context {
	return logging.WithRunID(ctx, rc.RunID)
}

// RunLogger returns the run's logger tagged with its run ID.
func (rc RunContext) RunLogger(ctx context.Context) *slog.Logger {
	return logging.WithContext(rc.Context(ctx), rc.Logger)
}
