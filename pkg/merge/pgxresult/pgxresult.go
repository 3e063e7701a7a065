package pgxresult

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pg-sharding/shardcore/pkg/merge"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/shopspring/decimal"
)

// Result adapts pgx.Rows to merge.QueryResult. Values are decoded by pgx
// into their Go types; numeric becomes decimal.Decimal and uuid becomes
// uuid.UUID so that the merge can compare and aggregate them.
type Result struct {
	rows   pgx.Rows
	values []any
}

var _ merge.QueryResult = &Result{}

func New(rows pgx.Rows) *Result {
	return &Result{rows: rows}
}

type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Query runs sql on q, which is usually a *pgx.Conn or a pool.
func Query(ctx context.Context, q Querier, sql string, args ...any) (*Result, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return New(rows), nil
}

func (r *Result) Next() (bool, error) {
	r.values = nil
	if !r.rows.Next() {
		return false, r.rows.Err()
	}
	values, err := r.rows.Values()
	if err != nil {
		return false, err
	}
	for i, v := range values {
		values[i] = convert(v)
	}
	r.values = values
	return true, nil
}

func convert(v any) any {
	switch n := v.(type) {
	case pgtype.Numeric:
		return numeric(n)
	case *pgtype.Numeric:
		if n == nil {
			return nil
		}
		return numeric(*n)
	case [16]byte:
		return uuid.UUID(n)
	}
	return v
}

// numeric maps NaN and infinities onto float64, the only representation
// that has them.
func numeric(n pgtype.Numeric) any {
	switch {
	case !n.Valid:
		return nil
	case n.NaN:
		return math.NaN()
	case n.InfinityModifier == pgtype.Infinity:
		return math.Inf(1)
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return math.Inf(-1)
	case n.Int == nil:
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func (r *Result) Value(index int) (any, error) {
	if r.values == nil {
		return nil, shardingerror.New(shardingerror.SHARD_MERGE_USAGE, "no current row")
	}
	if index < 0 || index >= len(r.values) {
		return nil, shardingerror.Newf(shardingerror.SHARD_MERGE_USAGE, "column index %d out of range [0, %d)", index, len(r.values))
	}
	return r.values[index], nil
}

func (r *Result) ColumnCount() int {
	return len(r.rows.FieldDescriptions())
}

func (r *Result) Close() error {
	r.rows.Close()
	return r.rows.Err()
}
