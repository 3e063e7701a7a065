package valuecmp

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/shopspring/decimal"
)

var errNaN = shardingerror.New(shardingerror.SHARD_TYPE_COERCION, "NaN is not comparable")

func errIncomparable(a, b any) error {
	return shardingerror.Newf(shardingerror.SHARD_TYPE_COERCION, "values of types %T and %T are not comparable", a, b)
}

// Compare orders two sharding or result values. Integers, floats and
// decimals of any width compare by mathematical value. Nil sorts before everything.
// Text may be string or []byte on either side.
func Compare(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	if isNumeric(a) && isNumeric(b) {
		return compareNumeric(a, b)
	}

	switch x := a.(type) {
	case string:
		switch y := b.(type) {
		case string:
			return strings.Compare(x, y), nil
		case []byte:
			return strings.Compare(x, string(y)), nil
		}
	case []byte:
		switch y := b.(type) {
		case []byte:
			return bytes.Compare(x, y), nil
		case string:
			return strings.Compare(string(x), y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			}
			return 1, nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	case uuid.UUID:
		if y, ok := b.(uuid.UUID); ok {
			return bytes.Compare(x[:], y[:]), nil
		}
	}
	return 0, errIncomparable(a, b)
}

// Less is Compare(a, b) < 0.
func Less(a, b any) (bool, error) {
	c, err := Compare(a, b)
	return c < 0, err
}

// Normalize maps a value onto the canonical representation used inside
// route values: signed and unsigned integers become int64 (or *big.Int
// when they do not fit), float32 becomes float64, []byte becomes string.
// decimal.Decimal is kept as is.
func Normalize(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case string, bool, time.Time, uuid.UUID, decimal.Decimal, float64:
		if f, ok := n.(float64); ok && math.IsNaN(f) {
			return nil, errNaN
		}
		return n, nil
	case float32:
		return float64(n), nil
	case []byte:
		return string(n), nil
	}
	if isInteger(v) {
		if i, ok := asInt64(v); ok {
			return i, nil
		}
		b, _ := asBigInt(v)
		return b, nil
	}
	return nil, shardingerror.Newf(shardingerror.SHARD_TYPE_COERCION, "unsupported sharding value type %T", v)
}

// Widen brings two bounds to one runtime type so interval operations
// never compare mismatched widths. Integer pairs become int64 (or
// *big.Int). Other numeric pairs become float64 when both are exact in
// float64 and neither is a decimal, otherwise decimal.Decimal.
func Widen(a, b any) (any, any, error) {
	if a == nil || b == nil {
		return nil, nil, shardingerror.New(shardingerror.SHARD_TYPE_COERCION, "range bound must not be NULL")
	}
	x, err := Normalize(a)
	if err != nil {
		return nil, nil, err
	}
	y, err := Normalize(b)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case isInteger(x) && isInteger(y):
		xi, xok := x.(int64)
		yi, yok := y.(int64)
		if xok && yok {
			return xi, yi, nil
		}
		bx, _ := asBigInt(x)
		by, _ := asBigInt(y)
		return bx, by, nil
	case isNumeric(x) && isNumeric(y):
		if (exactFloat(x) && exactFloat(y)) || isInf(x) || isInf(y) {
			fx, _ := asFloat64(x)
			fy, _ := asFloat64(y)
			return fx, fy, nil
		}
		dx, err := asDecimal(x)
		if err != nil {
			return nil, nil, err
		}
		dy, err := asDecimal(y)
		if err != nil {
			return nil, nil, err
		}
		return dx, dy, nil
	}

	if _, err := Compare(x, y); err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// exactFloat reports whether v survives a round trip through float64.
func exactFloat(v any) bool {
	switch n := v.(type) {
	case float64:
		return true
	case int64:
		return n >= -(1<<53) && n <= 1<<53
	}
	return false
}

// Key returns a canonical string for grouping: values that Compare as
// equal produce the same key.
func Key(v any) (string, error) {
	switch n := v.(type) {
	case nil:
		return "\x00null", nil
	case string:
		return "s:" + n, nil
	case []byte:
		return "s:" + string(n), nil
	case bool:
		return "b:" + strconv.FormatBool(n), nil
	case time.Time:
		return "t:" + n.UTC().Format(time.RFC3339Nano), nil
	case uuid.UUID:
		return "u:" + n.String(), nil
	}
	if i, ok := asInt64(v); ok {
		return "n:" + strconv.FormatInt(i, 10), nil
	}
	if isInf(v) {
		f, _ := asFloat64(v)
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	if isNumeric(v) {
		d, err := asDecimal(v)
		if err != nil {
			return "", err
		}
		if d.IsInteger() {
			return "n:" + d.BigInt().String(), nil
		}
		return "n:" + d.String(), nil
	}
	return "", shardingerror.Newf(shardingerror.SHARD_TYPE_COERCION, "unsupported value type %T", v)
}
