package execute

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/shardlog"
	"github.com/pg-sharding/shardcore/pkg/statistics"
	"go.uber.org/atomic"
)

// Callback runs a statement against one target.
type Callback[T any, R any] func(ctx context.Context, target T) (R, error)

// Execute runs cb for every target and returns the results in target order.
// The first target runs on the calling goroutine, the rest on ex. When a
// callback fails, the first failure by completion order is returned once
// every started callback has finished; the context passed to the callbacks
// is cancelled after that failure.
func Execute[T any, R any](ctx context.Context, ex *Executor, targets []T, cb Callback[T, R]) ([]R, error) {
	groups := make([][]T, len(targets))
	for i, t := range targets {
		groups[i] = []T{t}
	}
	return GroupExecute(ctx, ex, groups, cb)
}

// GroupExecute runs the targets of one group sequentially, in order, and
// different groups concurrently. Results are flattened in group order.
func GroupExecute[T any, R any](ctx context.Context, ex *Executor, groups [][]T, cb Callback[T, R]) ([]R, error) {
	if ex == nil {
		ex = DefaultExecutor()
	}

	offsets := make([]int, len(groups))
	total := 0
	for i, g := range groups {
		offsets[i] = total
		total += len(g)
	}
	if total == 0 {
		return nil, nil
	}
	statistics.ExecutionStarted()

	nested := inWorker(ctx)
	ctx = forSubmission(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := make([]R, total)
	j := &join{cancel: cancel}

	runGroup := func(ctx context.Context, gi int) {
		for k, target := range groups[gi] {
			if ctx.Err() != nil {
				j.fail(ctx.Err())
				return
			}
			r, err := runTarget(ctx, ex, target, cb)
			if err != nil {
				j.fail(err)
				return
			}
			res[offsets[gi]+k] = r
		}
	}

	if nested {
		// Nested fan-outs run on the worker itself so a bounded pool
		// cannot starve on its own callers.
		for gi := range groups {
			runGroup(ctx, gi)
		}
		return finish(res, j)
	}

	var wg sync.WaitGroup
	for gi := 1; gi < len(groups); gi++ {
		if len(groups[gi]) == 0 {
			continue
		}
		wg.Add(1)
		go func(gi int) {
			defer wg.Done()
			if err := ex.acquire(ctx); err != nil {
				j.fail(err)
				return
			}
			defer ex.release()
			runGroup(workerContext(ctx), gi)
		}(gi)
	}

	runGroup(ctx, 0)
	wg.Wait()

	return finish(res, j)
}

func finish[R any](res []R, j *join) ([]R, error) {
	if j.failed.Load() {
		return nil, j.err
	}
	return res, nil
}

// join keeps the first failure by completion order.
type join struct {
	failed atomic.Bool
	err    error
	cancel context.CancelFunc
}

func (j *join) fail(err error) {
	if !j.failed.CompareAndSwap(false, true) {
		return
	}
	j.err = err
	j.cancel()
}

func runTarget[T any, R any](ctx context.Context, ex *Executor, target T, cb Callback[T, R]) (R, error) {
	name := fmt.Sprint(target)

	span, ctx := opentracing.StartSpanFromContext(ctx, "execute target")
	span.SetTag("target", name)
	defer span.Finish()

	ex.inFlight.Inc()
	statistics.TargetStarted()
	start := time.Now()

	r, err := cb(ctx, target)

	statistics.RecordTargetTime(name, time.Since(start))
	statistics.TargetFinished(err != nil)
	ex.inFlight.Dec()

	if err != nil {
		span.SetTag("error", true)
		shardlog.Zero.Error().Err(err).Str("target", name).Msg("target execution failed")
		return r, shardingerror.Wrap(shardingerror.SHARD_EXECUTION_FAILURE, err)
	}
	return r, nil
}
