package merge

// decorator forwards to the wrapped result with its own usage guard.
type decorator struct {
	guard
	inner   MergedResult
	skipped bool
	skipAll bool
}

// Unwrap returns the decorated result.
func (d *decorator) Unwrap() MergedResult {
	return d.inner
}

func (d *decorator) Value(index int) (any, error) {
	if err := d.checkState(); err != nil {
		return nil, err
	}
	return d.inner.Value(index)
}

func (d *decorator) Close() error {
	d.state = StateExhausted
	return d.inner.Close()
}

// skip advances past n rows once, remembering when the input ran out.
func (d *decorator) skip(n int64) error {
	if d.skipped {
		return nil
	}
	d.skipped = true
	for i := int64(0); i < n; i++ {
		ok, err := d.inner.Next()
		if err != nil {
			return err
		}
		if !ok {
			d.skipAll = true
			return nil
		}
	}
	return nil
}

// rowNumberSkip is how many rows precede the first one with a row number
// above (or at, when inclusive) the lower bound.
func rowNumberSkip(p *Pagination) int64 {
	skip := p.Offset
	if p.OffsetInclusive {
		skip--
	}
	if skip < 0 {
		return 0
	}
	return skip
}

// LimitDecorator applies OFFSET and LIMIT to the merged rows.
type LimitDecorator struct {
	decorator
	offset   int64
	rowCount int64
	returned int64
}

func NewLimitDecorator(inner MergedResult, p *Pagination) *LimitDecorator {
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return &LimitDecorator{
		decorator: decorator{inner: inner},
		offset:    offset,
		rowCount:  p.RowCount,
	}
}

func (d *LimitDecorator) Next() (bool, error) {
	if d.exhausted() {
		return false, nil
	}
	if err := d.skip(d.offset); err != nil {
		return d.advance(false, err)
	}
	if d.skipAll {
		return d.advance(false, nil)
	}
	if d.rowCount >= 0 && d.returned >= d.rowCount {
		return d.advance(false, nil)
	}
	d.returned++
	return d.advance(d.inner.Next())
}

// RowNumberDecorator keeps the rows whose 1-based row number lies within
// the row-number bounds.
type RowNumberDecorator struct {
	decorator
	p         *Pagination
	rowNumber int64
}

func NewRowNumberDecorator(inner MergedResult, p *Pagination) *RowNumberDecorator {
	return &RowNumberDecorator{decorator: decorator{inner: inner}, p: p}
}

func (d *RowNumberDecorator) Next() (bool, error) {
	if d.exhausted() {
		return false, nil
	}
	if !d.skipped {
		if err := d.skip(rowNumberSkip(d.p)); err != nil {
			return d.advance(false, err)
		}
		d.rowNumber = rowNumberSkip(d.p)
	}
	if d.skipAll {
		return d.advance(false, nil)
	}
	d.rowNumber++
	if d.p.RowCount >= 0 {
		if d.p.RowCountInclusive && d.rowNumber > d.p.RowCount {
			return d.advance(false, nil)
		}
		if !d.p.RowCountInclusive && d.rowNumber >= d.p.RowCount {
			return d.advance(false, nil)
		}
	}
	return d.advance(d.inner.Next())
}

// TopAndRowNumberDecorator applies a TOP ceiling on the row number
// together with the row-number lower bound.
type TopAndRowNumberDecorator struct {
	decorator
	p         *Pagination
	rowNumber int64
}

func NewTopAndRowNumberDecorator(inner MergedResult, p *Pagination) *TopAndRowNumberDecorator {
	return &TopAndRowNumberDecorator{decorator: decorator{inner: inner}, p: p}
}

func (d *TopAndRowNumberDecorator) Next() (bool, error) {
	if d.exhausted() {
		return false, nil
	}
	if !d.skipped {
		if err := d.skip(rowNumberSkip(d.p)); err != nil {
			return d.advance(false, err)
		}
		d.rowNumber = rowNumberSkip(d.p)
	}
	if d.skipAll {
		return d.advance(false, nil)
	}
	d.rowNumber++
	if d.p.RowCount >= 0 && d.rowNumber > d.p.RowCount {
		return d.advance(false, nil)
	}
	return d.advance(d.inner.Next())
}
