package sqlresult_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pg-sharding/shardcore/pkg/merge"
	"github.com/pg-sharding/shardcore/pkg/merge/sqlresult"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestResultReadsRows(t *testing.T) {
	is := assert.New(t)

	db, mock, err := sqlmock.New()
	is.NoError(err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name FROM t_order_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "first").
			AddRow(int64(2), nil)).
		RowsWillBeClosed()

	r, err := sqlresult.Query(context.Background(), db, "SELECT id, name FROM t_order_1")
	is.NoError(err)
	is.Equal(2, r.ColumnCount())

	_, err = r.Value(0)
	is.True(shardingerror.HasCode(err, shardingerror.SHARD_MERGE_USAGE))

	ok, err := r.Next()
	is.NoError(err)
	is.True(ok)
	v, err := r.Value(0)
	is.NoError(err)
	is.Equal(int64(1), v)
	v, err = r.Value(1)
	is.NoError(err)
	is.Equal("first", v)

	_, err = r.Value(2)
	is.True(shardingerror.HasCode(err, shardingerror.SHARD_MERGE_USAGE))

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
	is.NoError(mock.ExpectationsWereMet())
}

func TestResultRowError(t *testing.T) {
	is := assert.New(t)

	db, mock, err := sqlmock.New()
	is.NoError(err)
	defer db.Close()

	boom := errors.New("server closed the connection")
	mock.ExpectQuery("SELECT id FROM t_order_0").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(int64(1)).
			AddRow(int64(2)).
			RowError(1, boom))

	r, err := sqlresult.Query(context.Background(), db, "SELECT id FROM t_order_0")
	is.NoError(err)

	ok, err := r.Next()
	is.NoError(err)
	is.True(ok)

	ok, err = r.Next()
	is.False(ok)
	is.ErrorIs(err, boom)
	is.NoError(r.Close())
}

func TestMergeOverSQLResults(t *testing.T) {
	is := assert.New(t)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	is.NoError(err)
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM t_order_0 ORDER BY id DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)).AddRow(int64(5)).AddRow(int64(1)))
	mock.ExpectQuery("SELECT id FROM t_order_1 ORDER BY id DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)).AddRow(int64(6)).AddRow(int64(2)))

	var results []merge.QueryResult
	for _, table := range []string{"t_order_0", "t_order_1"} {
		r, err := sqlresult.Query(context.Background(), db, "SELECT id FROM "+table+" ORDER BY id DESC")
		is.NoError(err)
		results = append(results, r)
	}

	merged, err := merge.NewEngine().Merge(results, &merge.Shape{
		OrderBy: []merge.OrderByItem{{Index: 0, Direction: merge.Desc}},
	})
	is.NoError(err)

	var got []any
	for {
		ok, err := merged.Next()
		is.NoError(err)
		if !ok {
			break
		}
		v, err := merged.Value(0)
		is.NoError(err)
		got = append(got, v)
	}
	is.Equal([]any{int64(9), int64(8), int64(6), int64(5), int64(2), int64(1)}, got)
	is.NoError(merged.Close())
	is.NoError(mock.ExpectationsWereMet())
}

func TestMergeDecimalSum(t *testing.T) {
	is := assert.New(t)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	is.NoError(err)
	defer db.Close()

	total := func() *sqlmock.Column {
		return sqlmock.NewColumn("total").OfType("DECIMAL", []byte("0"))
	}
	mock.ExpectQuery("SELECT sum(amount) AS total FROM t_order_0").
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(total()).AddRow([]byte("10.25")))
	mock.ExpectQuery("SELECT sum(amount) AS total FROM t_order_1").
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(total()).AddRow([]byte("32.50")))

	var results []merge.QueryResult
	for _, table := range []string{"t_order_0", "t_order_1"} {
		r, err := sqlresult.Query(context.Background(), db, "SELECT sum(amount) AS total FROM "+table)
		is.NoError(err)
		results = append(results, r)
	}

	merged, err := merge.NewEngine().Merge(results, &merge.Shape{
		Aggregations: []merge.Aggregation{{Type: merge.AggSum, Index: 0}},
	})
	is.NoError(err)

	ok, err := merged.Next()
	is.NoError(err)
	is.True(ok)
	v, err := merged.Value(0)
	is.NoError(err)
	is.IsType(decimal.Decimal{}, v)
	is.Equal("42.75", v.(decimal.Decimal).String())

	ok, err = merged.Next()
	is.NoError(err)
	is.False(ok)
	is.NoError(merged.Close())
	is.NoError(mock.ExpectationsWereMet())
}

func TestResultBadDecimal(t *testing.T) {
	is := assert.New(t)

	db, mock, err := sqlmock.New()
	is.NoError(err)
	defer db.Close()

	mock.ExpectQuery("SELECT price FROM t_item").
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("price").OfType("NUMERIC", []byte("0")),
		).AddRow([]byte("not a number")))

	r, err := sqlresult.Query(context.Background(), db, "SELECT price FROM t_item")
	is.NoError(err)
	ok, err := r.Next()
	is.NoError(err)
	is.True(ok)

	_, err = r.Value(0)
	is.True(shardingerror.HasCode(err, shardingerror.SHARD_TYPE_COERCION))
	is.NoError(r.Close())
}
