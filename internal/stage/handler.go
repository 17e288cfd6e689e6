package stage

import (
	"context"

	"slidecast/internal/queue"
)

// Handler describes the contract the workflow manager needs from each
// pipeline stage. Execute mutates the run in place; the manager persists it.
type Handler interface {
	Execute(context.Context, *queue.Run) error
	HealthCheck(context.Context) Health
}

// Progress receives per-stage progress updates scoped to one run.
type Progress func(percent float64, message string)

type progressKey struct{}

// WithProgress attaches a progress callback to the stage context.
func WithProgress(ctx context.Context, progress Progress) context.Context {
	if progress == nil {
		return ctx
	}
	return context.WithValue(ctx, progressKey{}, progress)
}

// Report invokes the progress callback attached to ctx, if any.
func Report(ctx context.Context, percent float64, message string) {
	if progress, ok := ctx.Value(progressKey{}).(Progress); ok {
		progress(percent, message)
	}
}
