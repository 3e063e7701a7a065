package execute

import (
	"context"
	"sync"

	"github.com/pg-sharding/shardcore/pkg/config"
	"github.com/pg-sharding/shardcore/pkg/shardlog"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

// Executor is the worker pool shared by every fan-out. A zero size means
// no bound on concurrently running targets.
type Executor struct {
	size     int64
	sem      *semaphore.Weighted
	inFlight *atomic.Int64
}

func NewExecutor(size int) *Executor {
	ex := &Executor{
		size:     int64(size),
		inFlight: atomic.NewInt64(0),
	}
	if size > 0 {
		ex.sem = semaphore.NewWeighted(int64(size))
	}
	return ex
}

var (
	defaultOnce     sync.Once
	defaultExecutor *Executor
)

// DefaultExecutor returns the process-wide executor sized by the loaded
// sharding configuration.
func DefaultExecutor() *Executor {
	defaultOnce.Do(func() {
		size := config.ShardingConfig().ExecuterCfg.PoolSize
		shardlog.Zero.Debug().Int("pool-size", size).Msg("initializing executor")
		defaultExecutor = NewExecutor(size)
	})
	return defaultExecutor
}

func (ex *Executor) Size() int {
	return int(ex.size)
}

// InFlight returns the number of targets currently running on the pool.
func (ex *Executor) InFlight() int64 {
	return ex.inFlight.Load()
}

func (ex *Executor) acquire(ctx context.Context) error {
	if ex.sem == nil {
		return nil
	}
	return ex.sem.Acquire(ctx, 1)
}

func (ex *Executor) release() {
	if ex.sem != nil {
		ex.sem.Release(1)
	}
}
