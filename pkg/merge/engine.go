package merge

import (
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/shardlog"
	"go.uber.org/multierr"
)

type Strategy int

const (
	StrategyIteratorStream Strategy = iota
	StrategyOrderByStream
	StrategyGroupByStream
	StrategyGroupByMemory
)

func (s Strategy) String() string {
	switch s {
	case StrategyIteratorStream:
		return "iterator-stream"
	case StrategyOrderByStream:
		return "order-by-stream"
	case StrategyGroupByStream:
		return "group-by-stream"
	case StrategyGroupByMemory:
		return "group-by-memory"
	default:
		return "unknown"
	}
}

// SelectStrategy picks the base merge strategy for n results.
func SelectStrategy(n int, shape *Shape) Strategy {
	switch {
	case n <= 1:
		return StrategyIteratorStream
	case shape.hasGroupBy():
		if shape.groupByIsOrderPrefix() {
			return StrategyGroupByStream
		}
		return StrategyGroupByMemory
	case shape.hasAggregations():
		return StrategyGroupByMemory
	case shape.hasOrderBy():
		return StrategyOrderByStream
	default:
		return StrategyIteratorStream
	}
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Merge combines the per-target results of one statement. On error every
// result is closed.
func (e *Engine) Merge(results []QueryResult, shape *Shape) (MergedResult, error) {
	if shape == nil {
		shape = &Shape{}
	}
	strategy := SelectStrategy(len(results), shape)

	shardlog.Zero.Debug().
		Int("results", len(results)).
		Str("strategy", strategy.String()).
		Msg("merging query results")

	merged, err := build(strategy, results, shape)
	if err != nil {
		return nil, err
	}
	if len(results) <= 1 || shape.Pagination == nil {
		return merged, nil
	}

	decorated, err := decorate(merged, shape.Pagination)
	if err != nil {
		return nil, multierr.Append(err, merged.Close())
	}
	return decorated, nil
}

func build(strategy Strategy, results []QueryResult, shape *Shape) (MergedResult, error) {
	switch strategy {
	case StrategyIteratorStream:
		return NewIteratorStreamResult(results), nil
	case StrategyOrderByStream:
		return NewOrderByStreamResult(results, shape.OrderBy)
	case StrategyGroupByStream:
		return NewGroupByStreamResult(results, shape)
	case StrategyGroupByMemory:
		return NewGroupByMemoryResult(results, shape)
	default:
		err := shardingerror.Newf(shardingerror.SHARD_UNEXPECTED, "unknown merge strategy %d", strategy)
		return nil, (&resultSet{results: results}).failed(err)
	}
}

func decorate(merged MergedResult, p *Pagination) (MergedResult, error) {
	switch p.Dialect {
	case "", DialectPostgreSQL, DialectMySQL, DialectOpenGauss, DialectH2:
		return NewLimitDecorator(merged, p), nil
	case DialectOracle:
		return NewRowNumberDecorator(merged, p), nil
	case DialectSQLServer:
		return NewTopAndRowNumberDecorator(merged, p), nil
	default:
		return nil, shardingerror.Newf(shardingerror.SHARD_NOT_IMPLEMENTED, "pagination for dialect %q", p.Dialect)
	}
}
