package merge_test

import (
	"fmt"

	"github.com/pg-sharding/shardcore/pkg/merge"
)

type memoryResult struct {
	rows    [][]any
	columns int
	pos     int
	closed  int
}

func newMemoryResult(columns int, rows ...[]any) *memoryResult {
	return &memoryResult{rows: rows, columns: columns, pos: -1}
}

// ints builds a one-column result.
func ints(values ...int64) *memoryResult {
	rows := make([][]any, len(values))
	for i, v := range values {
		rows[i] = []any{v}
	}
	return newMemoryResult(1, rows...)
}

func (r *memoryResult) Next() (bool, error) {
	if r.pos+1 >= len(r.rows) {
		r.pos = len(r.rows)
		return false, nil
	}
	r.pos++
	return true, nil
}

func (r *memoryResult) Value(index int) (any, error) {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil, fmt.Errorf("no current row")
	}
	return r.rows[r.pos][index], nil
}

func (r *memoryResult) ColumnCount() int {
	return r.columns
}

func (r *memoryResult) Close() error {
	r.closed++
	return nil
}

func asResults(rs ...*memoryResult) []merge.QueryResult {
	out := make([]merge.QueryResult, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

// drain reads every row of a merged result.
func drain(mr merge.MergedResult, columns int) ([][]any, error) {
	var rows [][]any
	for {
		ok, err := mr.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		row := make([]any, columns)
		for i := range row {
			if row[i], err = mr.Value(i); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
}

func column(rows [][]any, index int) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row[index]
	}
	return out
}
