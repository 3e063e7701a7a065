package merge

import (
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"go.uber.org/multierr"
)

//go:generate mockgen -destination=../mock/merge/mock_result.go -package=mock github.com/pg-sharding/shardcore/pkg/merge QueryResult

// QueryResult is the cursor over the rows one target returned. Column
// indexes are 0-based.
type QueryResult interface {
	Next() (bool, error)
	Value(index int) (any, error)
	ColumnCount() int
	Close() error
}

// MergedResult is the single logical cursor produced by Engine.Merge.
// Callers must Close it; Close is idempotent and closes every underlying
// QueryResult.
type MergedResult interface {
	Next() (bool, error)
	Value(index int) (any, error)
	Close() error
}

type State int

const (
	StateUnstarted State = iota
	StateIterating
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "UNSTARTED"
	case StateIterating:
		return "ITERATING"
	case StateExhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// guard enforces UNSTARTED -> ITERATING -> EXHAUSTED.
type guard struct {
	state State
}

func (g *guard) State() State {
	return g.state
}

func (g *guard) exhausted() bool {
	return g.state == StateExhausted
}

func (g *guard) advance(ok bool, err error) (bool, error) {
	if err != nil || !ok {
		g.state = StateExhausted
		return false, err
	}
	g.state = StateIterating
	return true, nil
}

func (g *guard) checkState() error {
	if g.state != StateIterating {
		return shardingerror.Newf(shardingerror.SHARD_MERGE_USAGE, "value requested in state %s", g.state)
	}
	return nil
}

func (g *guard) checkValue(index, columns int) error {
	if err := g.checkState(); err != nil {
		return err
	}
	if index < 0 || index >= columns {
		return shardingerror.Newf(shardingerror.SHARD_MERGE_USAGE, "column index %d out of range [0, %d)", index, columns)
	}
	return nil
}

// resultSet owns the underlying query results. Each result is closed
// exactly once, either when it runs out of rows or on Close.
type resultSet struct {
	results  []QueryResult
	released []bool
	closed   bool
}

// release closes results[i] if it is still open.
func (rs *resultSet) release(i int) error {
	if rs.released == nil {
		rs.released = make([]bool, len(rs.results))
	}
	if rs.released[i] || rs.results[i] == nil {
		return nil
	}
	rs.released[i] = true
	return rs.results[i].Close()
}

func (rs *resultSet) Close() error {
	if rs.closed {
		return nil
	}
	rs.closed = true
	var err error
	for i := range rs.results {
		err = multierr.Append(err, rs.release(i))
	}
	return err
}

// failed closes the results after an error and reports both.
func (rs *resultSet) failed(err error) error {
	return multierr.Append(err, rs.Close())
}

func columnCount(results []QueryResult) int {
	if len(results) == 0 {
		return 0
	}
	return results[0].ColumnCount()
}

func readRow(r QueryResult, columns int) ([]any, error) {
	row := make([]any, columns)
	for i := range row {
		v, err := r.Value(i)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// base is shared by the strategies that own query results directly.
type base struct {
	guard
	resultSet
	columns int
}

func newBase(results []QueryResult) base {
	return base{
		resultSet: resultSet{results: results},
		columns:   columnCount(results),
	}
}

func (b *base) Close() error {
	b.state = StateExhausted
	return b.resultSet.Close()
}

// fail moves to EXHAUSTED, closes the results and returns err with any
// close error appended.
func (b *base) fail(err error) (bool, error) {
	b.state = StateExhausted
	return false, b.failed(err)
}
