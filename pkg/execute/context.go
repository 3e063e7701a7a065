package execute

import "context"

type executionDataKey struct{}

type workerKey struct{}

// WithExecutionData attaches caller-defined per-statement data, visible to
// callbacks through ExecutionDataFrom.
func WithExecutionData(ctx context.Context, data map[string]any) context.Context {
	return context.WithValue(ctx, executionDataKey{}, data)
}

// ExecutionDataFrom returns the data attached by WithExecutionData, or nil.
func ExecutionDataFrom(ctx context.Context) map[string]any {
	data, _ := ctx.Value(executionDataKey{}).(map[string]any)
	return data
}

func inWorker(ctx context.Context) bool {
	v, _ := ctx.Value(workerKey{}).(bool)
	return v
}

func workerContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, workerKey{}, true)
}

// forSubmission drops execution data for fan-outs started from inside a
// pool worker.
func forSubmission(ctx context.Context) context.Context {
	if !inWorker(ctx) {
		return ctx
	}
	ctx = context.WithValue(ctx, executionDataKey{}, nil)
	return context.WithValue(ctx, workerKey{}, false)
}
