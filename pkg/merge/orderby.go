package merge

import (
	"container/heap"
)

// orderByValue is the head row of one result with its sort keys.
type orderByValue struct {
	result QueryResult
	target int
	keys   []any
}

// orderByQueue is a min-heap over the head rows; equal keys keep target
// order.
type orderByQueue struct {
	values []*orderByValue
	items  []OrderByItem
	err    error
}

func (q *orderByQueue) Len() int {
	return len(q.values)
}

func (q *orderByQueue) Less(i, j int) bool {
	if q.err != nil {
		return true
	}
	c, err := compareKeys(q.values[i].keys, q.values[j].keys, q.items)
	if err != nil {
		q.err = err
		return true
	}
	if c == 0 {
		return q.values[i].target < q.values[j].target
	}
	return c < 0
}

func (q *orderByQueue) Swap(i, j int) {
	q.values[i], q.values[j] = q.values[j], q.values[i]
}

func (q *orderByQueue) Push(x any) {
	q.values = append(q.values, x.(*orderByValue))
}

func (q *orderByQueue) Pop() any {
	n := len(q.values)
	x := q.values[n-1]
	q.values = q.values[:n-1]
	return x
}

// orderByMerger is the k-way merge shared by the order-by and group-by
// streams. The head of the queue is the current row.
// Results are released as soon as they run out of rows.
type orderByMerger struct {
	rs      *resultSet
	queue   orderByQueue
	started bool
}

func newOrderByMerger(rs *resultSet, items []OrderByItem) (*orderByMerger, error) {
	m := &orderByMerger{rs: rs, queue: orderByQueue{items: items}}
	for i, r := range rs.results {
		ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := rs.release(i); err != nil {
				return nil, err
			}
			continue
		}
		keys, err := readKeys(r, items)
		if err != nil {
			return nil, err
		}
		m.queue.values = append(m.queue.values, &orderByValue{result: r, target: i, keys: keys})
	}
	heap.Init(&m.queue)
	if m.queue.err != nil {
		return nil, m.queue.err
	}
	return m, nil
}

// next positions the merger on the following row.
func (m *orderByMerger) next() (bool, error) {
	if !m.started {
		m.started = true
		return m.queue.Len() > 0, nil
	}
	if m.queue.Len() == 0 {
		return false, nil
	}
	head := m.queue.values[0]
	ok, err := head.result.Next()
	if err != nil {
		return false, err
	}
	if ok {
		if head.keys, err = readKeys(head.result, m.queue.items); err != nil {
			return false, err
		}
		heap.Fix(&m.queue, 0)
	} else {
		heap.Pop(&m.queue)
		if err := m.rs.release(head.target); err != nil {
			return false, err
		}
	}
	if m.queue.err != nil {
		return false, m.queue.err
	}
	return m.queue.Len() > 0, nil
}

func (m *orderByMerger) current() QueryResult {
	return m.queue.values[0].result
}

// OrderByStreamResult merges results that are each sorted by the ORDER BY
// items.
type OrderByStreamResult struct {
	base
	merger *orderByMerger
}

// NewOrderByStreamResult reads the first row of every result. On error
// all results are closed.
func NewOrderByStreamResult(results []QueryResult, orderBy []OrderByItem) (*OrderByStreamResult, error) {
	r := &OrderByStreamResult{base: newBase(results)}
	merger, err := newOrderByMerger(&r.resultSet, orderBy)
	if err != nil {
		return nil, r.failed(err)
	}
	r.merger = merger
	return r, nil
}

func (r *OrderByStreamResult) Next() (bool, error) {
	if r.exhausted() {
		return false, nil
	}
	ok, err := r.merger.next()
	if err != nil {
		return r.fail(err)
	}
	return r.advance(ok, nil)
}

func (r *OrderByStreamResult) Value(index int) (any, error) {
	if err := r.checkValue(index, r.columns); err != nil {
		return nil, err
	}
	return r.merger.current().Value(index)
}
