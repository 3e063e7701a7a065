package condition_test

import (
	"testing"
	"time"

	"github.com/pg-sharding/shardcore/pkg/condition"
	"github.com/pg-sharding/shardcore/pkg/models/routevalue"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/stretchr/testify/assert"
)

var orderID = routevalue.NewColumn("t_order", "order_id")

func TestGenerateCompare(t *testing.T) {
	is := assert.New(t)
	g := condition.NewGenerator()

	type tcase struct {
		name  string
		p     condition.Predicate
		exp   string
		route bool
	}

	for _, tt := range []tcase{
		{
			name:  "equal literal",
			p:     &condition.ComparePredicate{Col: orderID, Op: "=", Value: condition.Literal{Value: 7}},
			exp:   "t_order.order_id in [7]",
			route: true,
		},
		{
			name:  "greater",
			p:     &condition.ComparePredicate{Col: orderID, Op: ">", Value: condition.Literal{Value: 10}},
			exp:   "t_order.order_id in (10..+inf)",
			route: true,
		},
		{
			name:  "at most",
			p:     &condition.ComparePredicate{Col: orderID, Op: "<=", Value: condition.Literal{Value: 10}},
			exp:   "t_order.order_id in (-inf..10]",
			route: true,
		},
		{
			name:  "not equal",
			p:     &condition.ComparePredicate{Col: orderID, Op: "<>", Value: condition.Literal{Value: 10}},
			route: false,
		},
		{
			name:  "bang not equal",
			p:     &condition.ComparePredicate{Col: orderID, Op: "!=", Value: condition.Literal{Value: 10}},
			route: false,
		},
		{
			name:  "null literal",
			p:     &condition.ComparePredicate{Col: orderID, Op: "=", Value: condition.Literal{Value: nil}},
			route: false,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rv, ok, err := g.Generate(tt.p, nil)
			is.NoError(err)
			is.Equal(tt.route, ok)
			if tt.route {
				is.Equal(tt.exp, rv.String())
			} else {
				is.Nil(rv)
			}
		})
	}
}

func TestGenerateParams(t *testing.T) {
	is := assert.New(t)
	g := condition.NewGenerator()

	rv, ok, err := g.Generate(&condition.InPredicate{
		Col:    orderID,
		Values: []condition.Expr{condition.ParamMarker{Index: 1}, condition.ParamMarker{Index: 0}, condition.Literal{Value: int32(3)}},
	}, []any{3, int64(5)})
	is.NoError(err)
	is.True(ok)
	is.Equal([]any{int64(5), int64(3)}, rv.(*routevalue.ListRouteValue).Values)

	_, _, err = g.Generate(&condition.ComparePredicate{
		Col: orderID, Op: "=", Value: condition.ParamMarker{Index: 2},
	}, []any{1})
	is.Error(err)
	is.True(shardingerror.HasCode(err, shardingerror.SHARD_ROUTING_ERROR))
}

func TestGenerateInSkipsNull(t *testing.T) {
	is := assert.New(t)
	g := condition.NewGenerator()

	rv, ok, err := g.Generate(&condition.InPredicate{
		Col:    orderID,
		Values: []condition.Expr{condition.Literal{Value: nil}},
	}, nil)
	is.NoError(err)
	is.True(ok)
	is.True(rv.IsEmpty())
}

func TestGenerateColumnOperand(t *testing.T) {
	is := assert.New(t)
	g := condition.NewGenerator()

	_, _, err := g.Generate(&condition.ComparePredicate{
		Col:   orderID,
		Op:    "=",
		Value: condition.ColumnExpr{Column: routevalue.NewColumn("t_order", "user_id")},
	}, nil)
	is.Error(err)
	is.True(shardingerror.HasCode(err, shardingerror.SHARD_UNEXPECTED_EXPRESSION))
}

func TestGenerateBetween(t *testing.T) {
	is := assert.New(t)
	g := condition.NewGenerator()

	rv, ok, err := g.Generate(&condition.BetweenPredicate{
		Col: orderID, Low: condition.Literal{Value: 10}, High: condition.Literal{Value: 20.5},
	}, nil)
	is.NoError(err)
	is.True(ok)
	r := rv.(*routevalue.RangeRouteValue)
	is.Equal(float64(10), r.Range.Lower.Value)
	is.Equal(20.5, r.Range.Upper.Value)

	rv, ok, err = g.Generate(&condition.BetweenPredicate{
		Col: orderID, Low: condition.Literal{Value: 20}, High: condition.Literal{Value: 10},
	}, nil)
	is.NoError(err)
	is.True(ok)
	is.True(rv.IsEmpty())
}

func TestGenerateNowPerBound(t *testing.T) {
	is := assert.New(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	g := &condition.Generator{Now: func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}}

	col := routevalue.NewColumn("t_order", "created_at")
	rv, ok, err := g.Generate(&condition.BetweenPredicate{
		Col: col, Low: condition.NowFunc{}, High: condition.NowFunc{},
	}, nil)
	is.NoError(err)
	is.True(ok)
	is.Equal(2, calls)

	r := rv.(*routevalue.RangeRouteValue)
	is.Equal(base.Add(time.Second), r.Range.Lower.Value)
	is.Equal(base.Add(2*time.Second), r.Range.Upper.Value)
	is.False(rv.IsEmpty())
}

func TestKindString(t *testing.T) {
	is := assert.New(t)
	is.Equal("compare", condition.KindCompare.String())
	is.Equal("in", condition.KindIn.String())
	is.Equal("between", condition.KindBetween.String())
}

func TestGenerateRejectsNil(t *testing.T) {
	g := condition.NewGenerator()

	tests := []struct {
		name string
		p    condition.Predicate
	}{
		{"nil predicate", nil},
		{"nil compare", (*condition.ComparePredicate)(nil)},
		{"nil in", (*condition.InPredicate)(nil)},
		{"nil between", (*condition.BetweenPredicate)(nil)},
		{"nil literal", &condition.ComparePredicate{Col: orderID, Op: "=", Value: (*condition.Literal)(nil)}},
		{"nil param", &condition.ComparePredicate{Col: orderID, Op: "=", Value: (*condition.ParamMarker)(nil)}},
		{"missing value", &condition.ComparePredicate{Col: orderID, Op: "="}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := assert.New(t)
			var (
				rv  routevalue.RouteValue
				err error
			)
			is.NotPanics(func() {
				rv, _, err = g.Generate(tt.p, []any{int64(1)})
			})
			is.Nil(rv)
			is.True(shardingerror.HasCode(err, shardingerror.SHARD_UNEXPECTED_EXPRESSION))
		})
	}
}
