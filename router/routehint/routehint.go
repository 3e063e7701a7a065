package routehint

import (
	"context"
	"strings"
)

type RouteHint interface {
	iRouteHint()
}

// EmptyRouteHint means routing is driven by statement predicates.
type EmptyRouteHint struct{}

// ShardingValuesRouteHint supplies sharding values per logic table
// instead of statement predicates, separately for the database and the
// table axis.
type ShardingValuesRouteHint struct {
	databaseValues map[string][]any
	tableValues    map[string][]any
}

func (EmptyRouteHint) iRouteHint()           {}
func (*ShardingValuesRouteHint) iRouteHint() {}

var (
	_ RouteHint = EmptyRouteHint{}
	_ RouteHint = &ShardingValuesRouteHint{}
)

func NewShardingValuesRouteHint() *ShardingValuesRouteHint {
	return &ShardingValuesRouteHint{
		databaseValues: map[string][]any{},
		tableValues:    map[string][]any{},
	}
}

func (h *ShardingValuesRouteHint) AddDatabaseValue(logicTable string, v any) *ShardingValuesRouteHint {
	t := strings.ToLower(logicTable)
	h.databaseValues[t] = append(h.databaseValues[t], v)
	return h
}

func (h *ShardingValuesRouteHint) AddTableValue(logicTable string, v any) *ShardingValuesRouteHint {
	t := strings.ToLower(logicTable)
	h.tableValues[t] = append(h.tableValues[t], v)
	return h
}

func (h *ShardingValuesRouteHint) DatabaseValues(logicTable string) ([]any, bool) {
	v, ok := h.databaseValues[strings.ToLower(logicTable)]
	return v, ok
}

func (h *ShardingValuesRouteHint) TableValues(logicTable string) ([]any, bool) {
	v, ok := h.tableValues[strings.ToLower(logicTable)]
	return v, ok
}

type hintKey struct{}

// WithHint returns a context whose routing is driven by hint.
func WithHint(ctx context.Context, hint RouteHint) context.Context {
	return context.WithValue(ctx, hintKey{}, hint)
}

// FromContext returns the route hint of ctx, EmptyRouteHint when none is set.
func FromContext(ctx context.Context) RouteHint {
	if h, ok := ctx.Value(hintKey{}).(RouteHint); ok && h != nil {
		return h
	}
	return EmptyRouteHint{}
}
