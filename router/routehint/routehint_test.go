package routehint_test

import (
	"context"
	"testing"

	"github.com/pg-sharding/shardcore/router/routehint"
	"github.com/stretchr/testify/assert"
)

func TestRouteHintContext(t *testing.T) {
	is := assert.New(t)

	is.Equal(routehint.EmptyRouteHint{}, routehint.FromContext(context.Background()))

	h := routehint.NewShardingValuesRouteHint().
		AddDatabaseValue("T_Order", 1).
		AddTableValue("t_order", 2).
		AddTableValue("t_order", 3)

	ctx := routehint.WithHint(context.Background(), h)
	got, ok := routehint.FromContext(ctx).(*routehint.ShardingValuesRouteHint)
	is.True(ok)

	db, ok := got.DatabaseValues("t_order")
	is.True(ok)
	is.Equal([]any{1}, db)

	tbl, ok := got.TableValues("T_ORDER")
	is.True(ok)
	is.Equal([]any{2, 3}, tbl)

	_, ok = got.DatabaseValues("t_user")
	is.False(ok)
}
