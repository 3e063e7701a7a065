package merge

import (
	"github.com/pg-sharding/shardcore/pkg/models/valuecmp"
)

// compareItem orders two column values in output order for one item.
func compareItem(a, b any, item OrderByItem) (int, error) {
	if a == nil || b == nil {
		return compareNulls(a == nil, b == nil, item), nil
	}
	c, err := valuecmp.Compare(a, b)
	if err != nil {
		return 0, err
	}
	if item.Direction == Desc {
		c = -c
	}
	return c, nil
}

func compareNulls(aNull, bNull bool, item OrderByItem) int {
	if aNull && bNull {
		return 0
	}
	nullsFirst := item.Nulls == NullsFirst ||
		(item.Nulls == NullsDefault && item.Direction == Desc)
	if aNull == nullsFirst {
		return -1
	}
	return 1
}

// compareKeys compares two rows of sort keys laid out like items.
func compareKeys(a, b []any, items []OrderByItem) (int, error) {
	for i, item := range items {
		c, err := compareItem(a[i], b[i], item)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

// compareRows compares two full rows on the item columns.
func compareRows(a, b []any, items []OrderByItem) (int, error) {
	for _, item := range items {
		c, err := compareItem(a[item.Index], b[item.Index], item)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

func readKeys(r QueryResult, items []OrderByItem) ([]any, error) {
	keys := make([]any, len(items))
	for i, item := range items {
		v, err := r.Value(item.Index)
		if err != nil {
			return nil, err
		}
		keys[i] = v
	}
	return keys, nil
}

func sameGroup(a, b []any) (bool, error) {
	for i := range a {
		if a[i] == nil || b[i] == nil {
			if a[i] != nil || b[i] != nil {
				return false, nil
			}
			continue
		}
		c, err := valuecmp.Compare(a[i], b[i])
		if err != nil {
			return false, err
		}
		if c != 0 {
			return false, nil
		}
	}
	return true, nil
}
