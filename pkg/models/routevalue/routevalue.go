package routevalue

import (
	"fmt"

	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/models/valuecmp"
)

// RouteValue is the set of candidate sharding values one column may take.
// Implemented by *ListRouteValue and *RangeRouteValue only.
type RouteValue interface {
	fmt.Stringer
	Column() Column
	// IsEmpty reports an always-false restriction.
	IsEmpty() bool

	iRouteValue()
}

type ListRouteValue struct {
	Col    Column
	Values []any
}

var _ RouteValue = &ListRouteValue{}

// NewListRouteValue normalizes values and drops duplicates, keeping the
// first occurrence order.
func NewListRouteValue(col Column, values []any) (*ListRouteValue, error) {
	seen := make(map[string]struct{}, len(values))
	res := make([]any, 0, len(values))
	for _, v := range values {
		nv, err := valuecmp.Normalize(v)
		if err != nil {
			return nil, err
		}
		k, err := valuecmp.Key(nv)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		res = append(res, nv)
	}
	return &ListRouteValue{Col: col, Values: res}, nil
}

func (l *ListRouteValue) Column() Column { return l.Col }
func (l *ListRouteValue) IsEmpty() bool  { return len(l.Values) == 0 }
func (l *ListRouteValue) iRouteValue()   {}

func (l *ListRouteValue) String() string {
	return fmt.Sprintf("%s in %v", l.Col, l.Values)
}

type RangeRouteValue struct {
	Col   Column
	Range Range
	empty bool
}

var _ RouteValue = &RangeRouteValue{}

func NewRangeRouteValue(col Column, r Range) (*RangeRouteValue, error) {
	if r.HasLower() && r.HasUpper() {
		l, u, err := valuecmp.Widen(r.Lower.Value, r.Upper.Value)
		if err != nil {
			return nil, err
		}
		r.Lower.Value, r.Upper.Value = l, u
	} else {
		for _, b := range []*Bound{&r.Lower, &r.Upper} {
			if b.Type == Unbounded {
				continue
			}
			if b.Value == nil {
				return nil, shardingerror.New(shardingerror.SHARD_TYPE_COERCION, "range bound must not be NULL")
			}
			v, err := valuecmp.Normalize(b.Value)
			if err != nil {
				return nil, err
			}
			b.Value = v
		}
	}
	empty, err := r.IsEmpty()
	if err != nil {
		return nil, err
	}
	return &RangeRouteValue{Col: col, Range: r, empty: empty}, nil
}

func (r *RangeRouteValue) Column() Column { return r.Col }
func (r *RangeRouteValue) IsEmpty() bool  { return r.empty }
func (r *RangeRouteValue) iRouteValue()   {}

func (r *RangeRouteValue) String() string {
	return fmt.Sprintf("%s in %s", r.Col, r.Range)
}

// Intersect combines two restrictions of the same column joined by AND.
func Intersect(a, b RouteValue) (RouteValue, error) {
	if a.Column().Name != b.Column().Name {
		return nil, shardingerror.Newf(shardingerror.SHARD_ROUTING_ERROR,
			"cannot intersect route values of columns %s and %s", a.Column(), b.Column())
	}

	switch x := a.(type) {
	case *ListRouteValue:
		switch y := b.(type) {
		case *ListRouteValue:
			return intersectLists(x, y)
		case *RangeRouteValue:
			return filterList(x, y.Range)
		}
	case *RangeRouteValue:
		switch y := b.(type) {
		case *ListRouteValue:
			return filterList(y, x.Range)
		case *RangeRouteValue:
			r, err := x.Range.Intersect(y.Range)
			if err != nil {
				return nil, err
			}
			return NewRangeRouteValue(x.Col, r)
		}
	}
	return nil, shardingerror.Newf(shardingerror.SHARD_UNEXPECTED, "unknown route value pair %T, %T", a, b)
}

func intersectLists(a, b *ListRouteValue) (*ListRouteValue, error) {
	keys := make(map[string]struct{}, len(b.Values))
	for _, v := range b.Values {
		k, err := valuecmp.Key(v)
		if err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	res := make([]any, 0, len(a.Values))
	for _, v := range a.Values {
		k, err := valuecmp.Key(v)
		if err != nil {
			return nil, err
		}
		if _, ok := keys[k]; ok {
			res = append(res, v)
		}
	}
	return &ListRouteValue{Col: a.Col, Values: res}, nil
}

func filterList(l *ListRouteValue, r Range) (*ListRouteValue, error) {
	res := make([]any, 0, len(l.Values))
	for _, v := range l.Values {
		ok, err := r.Contains(v)
		if err != nil {
			return nil, err
		}
		if ok {
			res = append(res, v)
		}
	}
	return &ListRouteValue{Col: l.Col, Values: res}, nil
}
