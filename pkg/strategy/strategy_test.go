package strategy_test

import (
	"testing"

	"github.com/pg-sharding/shardcore/pkg/config"
	"github.com/pg-sharding/shardcore/pkg/models/hashfunction"
	"github.com/pg-sharding/shardcore/pkg/models/routevalue"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/strategy"
	"github.com/stretchr/testify/assert"
)

var (
	orderID = routevalue.NewColumn("t_order", "order_id")
	userID  = routevalue.NewColumn("t_order", "user_id")
	tables  = []string{"t_order_0", "t_order_1", "t_order_2", "t_order_3"}
)

func list(t *testing.T, col routevalue.Column, vals ...any) routevalue.RouteValue {
	t.Helper()
	rv, err := routevalue.NewListRouteValue(col, vals)
	assert.NoError(t, err)
	return rv
}

func rng(t *testing.T, col routevalue.Column, r routevalue.Range) routevalue.RouteValue {
	t.Helper()
	rv, err := routevalue.NewRangeRouteValue(col, r)
	assert.NoError(t, err)
	return rv
}

func closed(t *testing.T, l, u any) routevalue.Range {
	t.Helper()
	r, err := routevalue.ClosedRange(l, u)
	assert.NoError(t, err)
	return r
}

func TestModAlgorithm(t *testing.T) {
	is := assert.New(t)
	alg := &strategy.ModAlgorithm{Count: 4}

	type tcase struct {
		name string
		v    routevalue.RouteValue
		exp  []string
	}

	for _, tt := range []tcase{
		{name: "single value", v: list(t, orderID, 6), exp: []string{"t_order_2"}},
		{name: "negative value", v: list(t, orderID, -1), exp: []string{"t_order_3"}},
		{name: "in list keeps target order", v: list(t, orderID, 7, 4), exp: []string{"t_order_0", "t_order_3"}},
		{name: "between 10 and 20", v: rng(t, orderID, closed(t, 10, 20)), exp: tables},
		{name: "between 10 and 11", v: rng(t, orderID, closed(t, 10, 11)), exp: []string{"t_order_2", "t_order_3"}},
		{name: "open bounds", v: rng(t, orderID, routevalue.Range{
			Lower: routevalue.Bound{Value: 10, Type: routevalue.Open},
			Upper: routevalue.Bound{Value: 12, Type: routevalue.Open},
		}), exp: []string{"t_order_3"}},
		{name: "float bounds", v: rng(t, orderID, closed(t, 9.5, 10.5)), exp: []string{"t_order_2"}},
		{name: "unbounded", v: rng(t, orderID, routevalue.GreaterThan(100)), exp: tables},
		{name: "empty range", v: rng(t, orderID, closed(t, 20, 10)), exp: nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := alg.Shard(tables, tt.v)
			is.NoError(err)
			is.Equal(tt.exp, got)
		})
	}

	_, err := alg.Shard(tables, list(t, orderID, "abc"))
	is.Error(err)
	is.True(shardingerror.HasCode(err, shardingerror.SHARD_TYPE_COERCION))
}

func TestHashModAlgorithm(t *testing.T) {
	is := assert.New(t)

	for _, hf := range []hashfunction.HashFunctionType{hashfunction.HashFunctionMurmur, hashfunction.HashFunctionCity} {
		alg := &strategy.HashModAlgorithm{Count: 4, Hash: hf}

		a, err := alg.Shard(tables, list(t, orderID, "user-42"))
		is.NoError(err)
		is.Len(a, 1)

		b, err := alg.Shard(tables, list(t, orderID, "user-42"))
		is.NoError(err)
		is.Equal(a, b)

		all, err := alg.Shard(tables, rng(t, orderID, closed(t, 1, 2)))
		is.NoError(err)
		is.Equal(tables, all)
	}

	ident := &strategy.HashModAlgorithm{Count: 4, Hash: hashfunction.HashFunctionIdent}
	got, err := ident.Shard(tables, list(t, orderID, 5))
	is.NoError(err)
	is.Equal([]string{"t_order_1"}, got)
}

func TestKeyRangeAlgorithm(t *testing.T) {
	is := assert.New(t)

	alg, err := strategy.NewAlgorithm(&config.AlgorithmCfg{
		Type: config.AlgorithmKeyRange,
		KeyRanges: []*config.KeyRangeCfg{
			{ID: "kr1", LowerBound: 0, Shard: "ds_0"},
			{ID: "kr2", LowerBound: 100, Shard: "ds_1"},
			{ID: "kr3", LowerBound: 200, Shard: "ds_0"},
		},
	})
	is.NoError(err)

	sources := []string{"ds_0", "ds_1"}

	got, err := alg.Shard(sources, list(t, userID, 150))
	is.NoError(err)
	is.Equal([]string{"ds_1"}, got)

	got, err = alg.Shard(sources, list(t, userID, 50, 250))
	is.NoError(err)
	is.Equal([]string{"ds_0"}, got)

	got, err = alg.Shard(sources, rng(t, userID, closed(t, 50, 150)))
	is.NoError(err)
	is.Equal(sources, got)

	got, err = alg.Shard(sources, list(t, userID, -5))
	is.NoError(err)
	is.Empty(got)
}

func TestStrategies(t *testing.T) {
	is := assert.New(t)
	mod := &strategy.ModAlgorithm{Count: 4}

	t.Run("standard without value keeps candidates", func(t *testing.T) {
		s := &strategy.StandardStrategy{Column: "order_id", Algorithm: mod}
		got, err := s.Shard(tables, []routevalue.RouteValue{list(t, userID, 1)})
		is.NoError(err)
		is.Equal(tables, got)

		got, err = s.Shard(tables, []routevalue.RouteValue{list(t, orderID, 1)})
		is.NoError(err)
		is.Equal([]string{"t_order_1"}, got)
	})

	t.Run("complex intersects columns", func(t *testing.T) {
		s := &strategy.ComplexStrategy{Columns: []string{"order_id", "user_id"}, Algorithm: mod}
		got, err := s.Shard(tables, []routevalue.RouteValue{
			list(t, orderID, 1, 2),
			list(t, userID, 2, 3),
		})
		is.NoError(err)
		is.Equal([]string{"t_order_2"}, got)
	})

	t.Run("hint unions values", func(t *testing.T) {
		s := &strategy.HintStrategy{Algorithm: mod}
		is.True(strategy.IsHint(s))
		got, err := s.Shard(tables, []routevalue.RouteValue{list(t, routevalue.Column{}, 3, 1)})
		is.NoError(err)
		is.Equal([]string{"t_order_1", "t_order_3"}, got)

		got, err = s.Shard(tables, nil)
		is.NoError(err)
		is.Equal(tables, got)
	})

	t.Run("none", func(t *testing.T) {
		got, err := strategy.NoneStrategy{}.Shard(tables, []routevalue.RouteValue{list(t, orderID, 1)})
		is.NoError(err)
		is.Equal(tables, got)
	})
}

func TestNewStrategy(t *testing.T) {
	is := assert.New(t)

	s, err := strategy.NewStrategy(nil)
	is.NoError(err)
	is.Empty(s.ShardingColumns())

	s, err = strategy.NewStrategy(&config.StrategyCfg{
		Type:      config.StrategyStandard,
		Columns:   []string{"Order_ID"},
		Algorithm: &config.AlgorithmCfg{Type: config.AlgorithmMod, Count: 4},
	})
	is.NoError(err)
	is.Equal([]string{"order_id"}, s.ShardingColumns())

	_, err = strategy.NewStrategy(&config.StrategyCfg{Type: "magic"})
	is.Error(err)
	is.True(shardingerror.HasCode(err, shardingerror.SHARD_INVALID_CONFIG))
}
