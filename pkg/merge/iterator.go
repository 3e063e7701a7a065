package merge

// IteratorStreamResult concatenates the results in target order.
type IteratorStreamResult struct {
	base
	current int
}

func NewIteratorStreamResult(results []QueryResult) *IteratorStreamResult {
	return &IteratorStreamResult{base: newBase(results)}
}

func (r *IteratorStreamResult) Next() (bool, error) {
	if r.exhausted() {
		return false, nil
	}
	for r.current < len(r.results) {
		ok, err := r.results[r.current].Next()
		if err != nil {
			return r.fail(err)
		}
		if ok {
			return r.advance(true, nil)
		}
		if err := r.release(r.current); err != nil {
			return r.fail(err)
		}
		r.current++
	}
	return r.advance(false, nil)
}

func (r *IteratorStreamResult) Value(index int) (any, error) {
	if err := r.checkValue(index, r.columns); err != nil {
		return nil, err
	}
	return r.results[r.current].Value(index)
}
