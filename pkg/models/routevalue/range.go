package routevalue

import (
	"fmt"

	"github.com/pg-sharding/shardcore/pkg/models/valuecmp"
)

type BoundType int

const (
	Unbounded = BoundType(iota)
	Open
	Closed
)

type Bound struct {
	Value any
	Type  BoundType
}

// Range is an interval over comparable values. The zero Range is
// unbounded on both sides.
type Range struct {
	Lower Bound
	Upper Bound
}

func All() Range {
	return Range{}
}

func AtLeast(v any) Range {
	return Range{Lower: Bound{Value: v, Type: Closed}}
}

func GreaterThan(v any) Range {
	return Range{Lower: Bound{Value: v, Type: Open}}
}

func AtMost(v any) Range {
	return Range{Upper: Bound{Value: v, Type: Closed}}
}

func LessThan(v any) Range {
	return Range{Upper: Bound{Value: v, Type: Open}}
}

// ClosedRange is [lower, upper]. Bounds are widened to one runtime type.
func ClosedRange(lower, upper any) (Range, error) {
	l, u, err := valuecmp.Widen(lower, upper)
	if err != nil {
		return Range{}, err
	}
	return Range{
		Lower: Bound{Value: l, Type: Closed},
		Upper: Bound{Value: u, Type: Closed},
	}, nil
}

func (r Range) HasLower() bool {
	return r.Lower.Type != Unbounded
}

func (r Range) HasUpper() bool {
	return r.Upper.Type != Unbounded
}

func (r Range) Contains(v any) (bool, error) {
	if v == nil {
		return false, nil
	}
	if r.HasLower() {
		c, err := valuecmp.Compare(r.Lower.Value, v)
		if err != nil {
			return false, err
		}
		if c > 0 || (c == 0 && r.Lower.Type == Open) {
			return false, nil
		}
	}
	if r.HasUpper() {
		c, err := valuecmp.Compare(v, r.Upper.Value)
		if err != nil {
			return false, err
		}
		if c > 0 || (c == 0 && r.Upper.Type == Open) {
			return false, nil
		}
	}
	return true, nil
}

// IsEmpty reports whether no value can satisfy the range.
func (r Range) IsEmpty() (bool, error) {
	if !r.HasLower() || !r.HasUpper() {
		return false, nil
	}
	c, err := valuecmp.Compare(r.Lower.Value, r.Upper.Value)
	if err != nil {
		return false, err
	}
	if c > 0 {
		return true, nil
	}
	return c == 0 && (r.Lower.Type == Open || r.Upper.Type == Open), nil
}

// Intersect returns the tightest range contained in both r and o.
func (r Range) Intersect(o Range) (Range, error) {
	res := r
	if o.HasLower() {
		if !res.HasLower() {
			res.Lower = o.Lower
		} else {
			c, err := valuecmp.Compare(o.Lower.Value, res.Lower.Value)
			if err != nil {
				return Range{}, err
			}
			if c > 0 || (c == 0 && o.Lower.Type == Open) {
				res.Lower = o.Lower
			}
		}
	}
	if o.HasUpper() {
		if !res.HasUpper() {
			res.Upper = o.Upper
		} else {
			c, err := valuecmp.Compare(o.Upper.Value, res.Upper.Value)
			if err != nil {
				return Range{}, err
			}
			if c < 0 || (c == 0 && o.Upper.Type == Open) {
				res.Upper = o.Upper
			}
		}
	}
	return res, nil
}

func (r Range) String() string {
	lower, upper := "(-inf", "+inf)"
	switch r.Lower.Type {
	case Open:
		lower = fmt.Sprintf("(%v", r.Lower.Value)
	case Closed:
		lower = fmt.Sprintf("[%v", r.Lower.Value)
	}
	switch r.Upper.Type {
	case Open:
		upper = fmt.Sprintf("%v)", r.Upper.Value)
	case Closed:
		upper = fmt.Sprintf("%v]", r.Upper.Value)
	}
	return lower + ".." + upper
}
