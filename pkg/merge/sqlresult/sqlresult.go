package sqlresult

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pg-sharding/shardcore/pkg/merge"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/shopspring/decimal"
)

// decimalTypes are driver type names whose values arrive as decimal text.
var decimalTypes = map[string]struct{}{
	"DECIMAL":    {},
	"NUMERIC":    {},
	"NEWDECIMAL": {},
}

// Result adapts *sql.Rows to merge.QueryResult.
type Result struct {
	rows     *sql.Rows
	values   []any
	ptrs     []any
	decimals []bool
	ok       bool
}

var _ merge.QueryResult = &Result{}

func New(rows *sql.Rows) (*Result, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	r := &Result{
		rows:     rows,
		values:   make([]any, len(cols)),
		ptrs:     make([]any, len(cols)),
		decimals: make([]bool, len(cols)),
	}
	for i, c := range cols {
		r.ptrs[i] = &r.values[i]
		_, r.decimals[i] = decimalTypes[strings.ToUpper(c.DatabaseTypeName())]
	}
	return r, nil
}

type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Query runs query on q and wraps the rows.
func Query(ctx context.Context, q Querier, query string, args ...any) (*Result, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return New(rows)
}

func (r *Result) Next() (bool, error) {
	r.ok = r.rows.Next()
	if !r.ok {
		return false, r.rows.Err()
	}
	if err := r.rows.Scan(r.ptrs...); err != nil {
		r.ok = false
		return false, err
	}
	return true, nil
}

// Value returns the column of the current row. Text arrives as string,
// DECIMAL and NUMERIC columns as decimal.Decimal.
func (r *Result) Value(index int) (any, error) {
	if !r.ok {
		return nil, shardingerror.New(shardingerror.SHARD_MERGE_USAGE, "no current row")
	}
	if index < 0 || index >= len(r.values) {
		return nil, shardingerror.Newf(shardingerror.SHARD_MERGE_USAGE, "column index %d out of range [0, %d)", index, len(r.values))
	}
	v := r.values[index]
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if text, ok := v.(string); ok && r.decimals[index] {
		d, err := decimal.NewFromString(text)
		if err != nil {
			return nil, shardingerror.Wrap(shardingerror.SHARD_TYPE_COERCION, err)
		}
		return d, nil
	}
	return v, nil
}

func (r *Result) ColumnCount() int {
	return len(r.values)
}

func (r *Result) Close() error {
	return r.rows.Close()
}
