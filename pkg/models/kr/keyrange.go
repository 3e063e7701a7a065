package kr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pg-sharding/shardcore/pkg/models/routevalue"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/models/valuecmp"
)

// KeyRangeBound is a normalized sharding value (see valuecmp.Normalize).
type KeyRangeBound any

// KeyRange owns every key from LowerBound up to the lower bound of the
// next key range. ShardID names the target the range is routed to.
type KeyRange struct {
	LowerBound KeyRangeBound
	ShardID    string
	ID         string
}

func CmpRangesLess(kr KeyRangeBound, other KeyRangeBound) (bool, error) {
	c, err := valuecmp.Compare(kr, other)
	return c < 0, err
}

func CmpRangesLessEqual(kr KeyRangeBound, other KeyRangeBound) (bool, error) {
	c, err := valuecmp.Compare(kr, other)
	return c <= 0, err
}

func CmpRangesEqual(kr KeyRangeBound, other KeyRangeBound) (bool, error) {
	c, err := valuecmp.Compare(kr, other)
	return c == 0, err
}

// GetKRCondition renders the key range as a SQL predicate over column.
// A nil upperBound means the key range is the last one.
func GetKRCondition(column string, kRange *KeyRange, upperBound KeyRangeBound, prefix string) string {
	if prefix != "" {
		column = prefix + "." + column
	}
	cond := fmt.Sprintf("%s >= %s", column, sqlLiteral(kRange.LowerBound))
	if upperBound != nil {
		cond += fmt.Sprintf(" AND %s < %s", column, sqlLiteral(upperBound))
	}
	return cond
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func sqlLiteral(v KeyRangeBound) string {
	switch b := v.(type) {
	case string:
		return quoteLiteral(b)
	case []byte:
		return quoteLiteral(string(b))
	default:
		return fmt.Sprintf("%v", b)
	}
}

// KeyRangeSet is an ordered, non-overlapping list of key ranges.
type KeyRangeSet struct {
	ranges []*KeyRange
}

func NewKeyRangeSet(krs []*KeyRange) (*KeyRangeSet, error) {
	ranges := make([]*KeyRange, 0, len(krs))
	for _, k := range krs {
		lb, err := valuecmp.Normalize(k.LowerBound)
		if err != nil {
			return nil, err
		}
		if lb == nil {
			return nil, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "key range %s has no lower bound", k.ID)
		}
		ranges = append(ranges, &KeyRange{LowerBound: lb, ShardID: k.ShardID, ID: k.ID})
	}

	var sortErr error
	sort.SliceStable(ranges, func(i, j int) bool {
		less, err := CmpRangesLess(ranges[i].LowerBound, ranges[j].LowerBound)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return nil, shardingerror.Wrap(shardingerror.SHARD_INVALID_CONFIG, sortErr)
	}

	for i := 1; i < len(ranges); i++ {
		eq, err := CmpRangesEqual(ranges[i-1].LowerBound, ranges[i].LowerBound)
		if err != nil {
			return nil, err
		}
		if eq {
			return nil, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG,
				"key ranges %s and %s share lower bound %v", ranges[i-1].ID, ranges[i].ID, ranges[i].LowerBound)
		}
	}
	return &KeyRangeSet{ranges: ranges}, nil
}

func (s *KeyRangeSet) KeyRanges() []*KeyRange {
	return s.ranges
}

// UpperBound returns the exclusive upper bound of the i-th key range, nil
// for the last one.
func (s *KeyRangeSet) UpperBound(i int) KeyRangeBound {
	if i+1 < len(s.ranges) {
		return s.ranges[i+1].LowerBound
	}
	return nil
}

// Match returns the key range with the greatest lower bound not exceeding
// v, or nil when v is below every key range.
func (s *KeyRangeSet) Match(v any) (*KeyRange, error) {
	nv, err := valuecmp.Normalize(v)
	if err != nil {
		return nil, err
	}
	if nv == nil {
		return nil, nil
	}

	var matched *KeyRange
	for _, k := range s.ranges {
		le, err := CmpRangesLessEqual(k.LowerBound, nv)
		if err != nil {
			return nil, err
		}
		if !le {
			break
		}
		matched = k
	}
	return matched, nil
}

// MatchRange returns every key range intersecting r, in key order.
func (s *KeyRangeSet) MatchRange(r routevalue.Range) ([]*KeyRange, error) {
	var res []*KeyRange
	for i, k := range s.ranges {
		own := routevalue.Range{
			Lower: routevalue.Bound{Value: k.LowerBound, Type: routevalue.Closed},
		}
		if ub := s.UpperBound(i); ub != nil {
			own.Upper = routevalue.Bound{Value: ub, Type: routevalue.Open}
		}
		is, err := own.Intersect(r)
		if err != nil {
			return nil, err
		}
		empty, err := is.IsEmpty()
		if err != nil {
			return nil, err
		}
		if !empty {
			res = append(res, k)
		}
	}
	return res, nil
}
