package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pg-sharding/shardcore/pkg/models/valuecmp"
)

// GroupByStreamResult merges results sorted with the GROUP BY columns
// leading, folding each run of equal group keys into one row.
type GroupByStreamResult struct {
	base
	merger       *orderByMerger
	groupBy      []OrderByItem
	aggregations []Aggregation

	pending bool
	row     []any
}

func NewGroupByStreamResult(results []QueryResult, shape *Shape) (*GroupByStreamResult, error) {
	r := &GroupByStreamResult{
		base:         newBase(results),
		groupBy:      shape.GroupBy,
		aggregations: shape.Aggregations,
	}
	merger, err := newOrderByMerger(&r.resultSet, shape.effectiveOrderBy())
	if err != nil {
		return nil, r.failed(err)
	}
	r.merger = merger
	if r.pending, err = merger.next(); err != nil {
		return nil, r.failed(err)
	}
	return r, nil
}

func (r *GroupByStreamResult) Next() (bool, error) {
	if r.exhausted() {
		return false, nil
	}
	if !r.pending {
		return r.advance(false, nil)
	}

	first, err := readRow(r.merger.current(), r.columns)
	if err != nil {
		return r.fail(err)
	}
	key := groupKey(first, r.groupBy)
	group, err := newAggregateGroup(first, r.aggregations)
	if err != nil {
		return r.fail(err)
	}

	for {
		if r.pending, err = r.merger.next(); err != nil {
			return r.fail(err)
		}
		if !r.pending {
			break
		}
		row, err := readRow(r.merger.current(), r.columns)
		if err != nil {
			return r.fail(err)
		}
		same, err := sameGroup(key, groupKey(row, r.groupBy))
		if err != nil {
			return r.fail(err)
		}
		if !same {
			break
		}
		if err := group.merge(row); err != nil {
			return r.fail(err)
		}
	}

	r.row = group.result()
	return r.advance(true, nil)
}

func (r *GroupByStreamResult) Value(index int) (any, error) {
	if err := r.checkValue(index, r.columns); err != nil {
		return nil, err
	}
	return r.row[index], nil
}

func groupKey(row []any, groupBy []OrderByItem) []any {
	key := make([]any, len(groupBy))
	for i, item := range groupBy {
		key[i] = row[item.Index]
	}
	return key
}

// GroupByMemoryResult drains every result, groups and aggregates in memory
// and then sorts the groups by the effective ORDER BY. Without GROUP BY
// all rows form one group.
type GroupByMemoryResult struct {
	base
	rows    [][]any
	current int
}

// NewGroupByMemoryResult drains and releases every result before
// returning. On error all results are closed.
func NewGroupByMemoryResult(results []QueryResult, shape *Shape) (*GroupByMemoryResult, error) {
	r := &GroupByMemoryResult{base: newBase(results), current: -1}
	if err := r.load(shape); err != nil {
		return nil, r.failed(err)
	}
	return r, nil
}

func (r *GroupByMemoryResult) load(shape *Shape) error {
	groups := make(map[string]*aggregateGroup)
	var order []*aggregateGroup
	for i, qr := range r.results {
		for {
			ok, err := qr.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			row, err := readRow(qr, r.columns)
			if err != nil {
				return err
			}
			key, err := memoryKey(row, shape.GroupBy)
			if err != nil {
				return err
			}
			if g, ok := groups[key]; ok {
				if err := g.merge(row); err != nil {
					return err
				}
				continue
			}
			g, err := newAggregateGroup(row, shape.Aggregations)
			if err != nil {
				return err
			}
			groups[key] = g
			order = append(order, g)
		}
		if err := r.release(i); err != nil {
			return err
		}
	}

	r.rows = make([][]any, 0, len(order))
	for _, g := range order {
		r.rows = append(r.rows, g.result())
	}
	return sortRows(r.rows, shape.effectiveOrderBy())
}

func (r *GroupByMemoryResult) Next() (bool, error) {
	if r.exhausted() {
		return false, nil
	}
	r.current++
	return r.advance(r.current < len(r.rows), nil)
}

func (r *GroupByMemoryResult) Value(index int) (any, error) {
	if err := r.checkValue(index, r.columns); err != nil {
		return nil, err
	}
	return r.rows[r.current][index], nil
}

func memoryKey(row []any, groupBy []OrderByItem) (string, error) {
	var sb strings.Builder
	for _, item := range groupBy {
		v := row[item.Index]
		if v == nil {
			sb.WriteString("n;")
			continue
		}
		k, err := valuecmp.Key(v)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "v%d:%s;", len(k), k)
	}
	return sb.String(), nil
}

func sortRows(rows [][]any, items []OrderByItem) error {
	if len(items) == 0 {
		return nil
	}
	var err error
	sort.SliceStable(rows, func(i, j int) bool {
		if err != nil {
			return false
		}
		c, cerr := compareRows(rows[i], rows[j], items)
		if cerr != nil {
			err = cerr
			return false
		}
		return c < 0
	})
	return err
}
