package pgxresult_test

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pg-sharding/shardcore/pkg/merge"
	"github.com/pg-sharding/shardcore/pkg/merge/pgxresult"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeRows struct {
	fields []pgconn.FieldDescription
	rows   [][]any
	pos    int
	err    error
	failAt int
	closed bool
}

func newFakeRows(columns []string, rows ...[]any) *fakeRows {
	fields := make([]pgconn.FieldDescription, len(columns))
	for i, c := range columns {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return &fakeRows{fields: fields, rows: rows, pos: -1, failAt: -1}
}

func (f *fakeRows) Close() { f.closed = true }

func (f *fakeRows) Err() error { return f.err }

func (f *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }

func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return f.fields }

func (f *fakeRows) Next() bool {
	if f.closed || f.pos+1 >= len(f.rows) {
		f.closed = true
		return false
	}
	f.pos++
	if f.pos == f.failAt {
		f.closed = true
		return false
	}
	return true
}

func (f *fakeRows) Scan(dest ...any) error { return errors.New("not used") }

func (f *fakeRows) Values() ([]any, error) { return f.rows[f.pos], nil }

func (f *fakeRows) RawValues() [][]byte { return nil }

func (f *fakeRows) Conn() *pgx.Conn { return nil }

type fakeConn struct {
	rows map[string]*fakeRows
}

func (c *fakeConn) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	r, ok := c.rows[sql]
	if !ok {
		return nil, errors.New("relation does not exist")
	}
	return r, nil
}

func TestResult(t *testing.T) {
	is := assert.New(t)

	rows := newFakeRows([]string{"id", "name"}, []any{int64(1), "a"}, []any{int64(2), nil})
	r := pgxresult.New(rows)
	is.Equal(2, r.ColumnCount())

	_, err := r.Value(0)
	is.True(shardingerror.HasCode(err, shardingerror.SHARD_MERGE_USAGE))

	ok, err := r.Next()
	is.NoError(err)
	is.True(ok)
	v, err := r.Value(1)
	is.NoError(err)
	is.Equal("a", v)

	ok, err = r.Next()
	is.NoError(err)
	is.True(ok)
	v, err = r.Value(1)
	is.NoError(err)
	is.Nil(v)

	ok, err = r.Next()
	is.NoError(err)
	is.False(ok)

	is.NoError(r.Close())
	is.True(rows.closed)
}

func TestResultError(t *testing.T) {
	is := assert.New(t)

	boom := errors.New("unexpected EOF")
	rows := newFakeRows([]string{"id"}, []any{int64(1)}, []any{int64(2)})
	rows.failAt = 1
	rows.err = boom

	r := pgxresult.New(rows)
	ok, err := r.Next()
	is.NoError(err)
	is.True(ok)

	ok, err = r.Next()
	is.False(ok)
	is.ErrorIs(err, boom)

	_, err = r.Value(0)
	is.True(shardingerror.HasCode(err, shardingerror.SHARD_MERGE_USAGE))
}

func TestMergeOverPgxResults(t *testing.T) {
	is := assert.New(t)

	conn := &fakeConn{rows: map[string]*fakeRows{
		"SELECT count(*) FROM t_order_0": newFakeRows([]string{"count"}, []any{int64(3)}),
		"SELECT count(*) FROM t_order_1": newFakeRows([]string{"count"}, []any{int64(4)}),
	}}

	var results []merge.QueryResult
	for _, table := range []string{"t_order_0", "t_order_1"} {
		r, err := pgxresult.Query(context.Background(), conn, "SELECT count(*) FROM "+table)
		is.NoError(err)
		results = append(results, r)
	}

	_, err := pgxresult.Query(context.Background(), conn, "SELECT count(*) FROM t_order_9")
	is.Error(err)

	merged, err := merge.NewEngine().Merge(results, &merge.Shape{
		Aggregations: []merge.Aggregation{{Type: merge.AggCount, Index: 0}},
	})
	is.NoError(err)

	ok, err := merged.Next()
	is.NoError(err)
	is.True(ok)
	v, err := merged.Value(0)
	is.NoError(err)
	is.Equal(int64(7), v)

	ok, err = merged.Next()
	is.NoError(err)
	is.False(ok)
	is.NoError(merged.Close())
}

func TestMergeNumericSumAndAvg(t *testing.T) {
	is := assert.New(t)

	num := func(v int64, exp int32) pgtype.Numeric {
		return pgtype.Numeric{Int: big.NewInt(v), Exp: exp, Valid: true}
	}

	// sum(x), avg(x), derived sum, derived count
	results := []merge.QueryResult{
		pgxresult.New(newFakeRows([]string{"sum", "avg", "avg_sum", "avg_count"},
			[]any{num(10, 0), num(5, 0), num(10, 0), int64(2)})),
		pgxresult.New(newFakeRows([]string{"sum", "avg", "avg_sum", "avg_count"},
			[]any{num(325, -1), num(1625, -2), num(325, -1), int64(2)})),
	}

	merged, err := merge.NewEngine().Merge(results, &merge.Shape{
		Aggregations: []merge.Aggregation{
			{Type: merge.AggSum, Index: 0},
			{Type: merge.AggAvg, Index: 1, DerivedSumIndex: 2, DerivedCountIndex: 3},
		},
	})
	is.NoError(err)

	ok, err := merged.Next()
	is.NoError(err)
	is.True(ok)

	sum, err := merged.Value(0)
	is.NoError(err)
	is.True(decimal.RequireFromString("42.5").Equal(sum.(decimal.Decimal)))

	avg, err := merged.Value(1)
	is.NoError(err)
	is.True(decimal.RequireFromString("10.625").Equal(avg.(decimal.Decimal)))

	ok, err = merged.Next()
	is.NoError(err)
	is.False(ok)
	is.NoError(merged.Close())
}

func TestResultConvertsValues(t *testing.T) {
	is := assert.New(t)

	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	rows := newFakeRows([]string{"n", "nan", "inf", "null", "id"}, []any{
		pgtype.Numeric{Int: big.NewInt(1234), Exp: -2, Valid: true},
		pgtype.Numeric{NaN: true, Valid: true},
		pgtype.Numeric{InfinityModifier: pgtype.NegativeInfinity, Valid: true},
		pgtype.Numeric{},
		[16]byte(id),
	})
	r := pgxresult.New(rows)

	ok, err := r.Next()
	is.NoError(err)
	is.True(ok)

	v, err := r.Value(0)
	is.NoError(err)
	is.Equal("12.34", v.(decimal.Decimal).String())

	v, err = r.Value(1)
	is.NoError(err)
	is.True(math.IsNaN(v.(float64)))

	v, err = r.Value(2)
	is.NoError(err)
	is.Equal(math.Inf(-1), v)

	v, err = r.Value(3)
	is.NoError(err)
	is.Nil(v)

	v, err = r.Value(4)
	is.NoError(err)
	is.Equal(id, v)
}
