package merge

import (
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/models/valuecmp"
)

// aggregationUnit folds the per-target partial aggregates of one group.
type aggregationUnit interface {
	merge(row []any) error
	// apply writes the folded value(s) into row.
	apply(row []any)
}

func newAggregationUnit(agg Aggregation) (aggregationUnit, error) {
	switch agg.Type {
	case AggSum:
		return &sumUnit{index: agg.Index}, nil
	case AggCount:
		return &sumUnit{index: agg.Index, acc: int64(0)}, nil
	case AggMin:
		return &extremeUnit{index: agg.Index, want: -1}, nil
	case AggMax:
		return &extremeUnit{index: agg.Index, want: 1}, nil
	case AggAvg:
		return &avgUnit{index: agg.Index, sumIndex: agg.DerivedSumIndex, countIndex: agg.DerivedCountIndex}, nil
	default:
		return nil, shardingerror.Newf(shardingerror.SHARD_UNEXPECTED, "unknown aggregation %d", agg.Type)
	}
}

func newAggregationUnits(aggs []Aggregation) ([]aggregationUnit, error) {
	units := make([]aggregationUnit, 0, len(aggs))
	for _, agg := range aggs {
		u, err := newAggregationUnit(agg)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// sumUnit serves SUM and COUNT: a COUNT is the sum of per-target counts.
type sumUnit struct {
	index int
	acc   any
}

func (u *sumUnit) merge(row []any) error {
	v := row[u.index]
	if v == nil {
		return nil
	}
	acc, err := valuecmp.Add(u.acc, v)
	if err != nil {
		return err
	}
	u.acc = acc
	return nil
}

func (u *sumUnit) apply(row []any) {
	row[u.index] = u.acc
}

// extremeUnit keeps the value v with Compare(v, other) == want.
type extremeUnit struct {
	index int
	want  int
	acc   any
}

func (u *extremeUnit) merge(row []any) error {
	v := row[u.index]
	if v == nil {
		return nil
	}
	if u.acc == nil {
		u.acc = v
		return nil
	}
	c, err := valuecmp.Compare(v, u.acc)
	if err != nil {
		return err
	}
	if c == u.want {
		u.acc = v
	}
	return nil
}

func (u *extremeUnit) apply(row []any) {
	row[u.index] = u.acc
}

type avgUnit struct {
	index      int
	sumIndex   int
	countIndex int
	sum        any
	count      any
}

func (u *avgUnit) merge(row []any) error {
	if s := row[u.sumIndex]; s != nil {
		sum, err := valuecmp.Add(u.sum, s)
		if err != nil {
			return err
		}
		u.sum = sum
	}
	if c := row[u.countIndex]; c != nil {
		count, err := valuecmp.Add(u.count, c)
		if err != nil {
			return err
		}
		u.count = count
	}
	return nil
}

func (u *avgUnit) apply(row []any) {
	avg, err := valuecmp.Div(u.sum, u.count)
	if err != nil {
		avg = nil
	}
	row[u.index] = avg
	row[u.sumIndex] = u.sum
	row[u.countIndex] = u.count
}

// aggregateGroup folds rows into the first one.
type aggregateGroup struct {
	row   []any
	units []aggregationUnit
}

func newAggregateGroup(row []any, aggs []Aggregation) (*aggregateGroup, error) {
	units, err := newAggregationUnits(aggs)
	if err != nil {
		return nil, err
	}
	g := &aggregateGroup{row: row, units: units}
	return g, g.merge(row)
}

func (g *aggregateGroup) merge(row []any) error {
	for _, u := range g.units {
		if err := u.merge(row); err != nil {
			return err
		}
	}
	return nil
}

// result applies the folded aggregates onto the group's first row.
func (g *aggregateGroup) result() []any {
	for _, u := range g.units {
		u.apply(g.row)
	}
	return g.row
}
