package valuecmp

import (
	"math"
	"math/big"

	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/shopspring/decimal"
)

var errInf = shardingerror.New(shardingerror.SHARD_TYPE_COERCION, "infinite value has no exact decimal form")

func isInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, *big.Int:
		return true
	}
	return false
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func isDecimal(v any) bool {
	_, ok := v.(decimal.Decimal)
	return ok
}

func isNumeric(v any) bool {
	return isInteger(v) || isFloat(v) || isDecimal(v)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case *big.Int:
		if n.IsInt64() {
			return n.Int64(), true
		}
	}
	return 0, false
}

func asBigInt(v any) (*big.Int, bool) {
	if n, ok := asInt64(v); ok {
		return big.NewInt(n), true
	}
	switch n := v.(type) {
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case *big.Int:
		return new(big.Int).Set(n), true
	}
	return nil, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	}
	if b, ok := asBigInt(v); ok {
		f, _ := new(big.Float).SetInt(b).Float64()
		return f, true
	}
	return 0, false
}

func isInf(v any) bool {
	f, ok := v.(float64)
	if !ok {
		if f32, ok32 := v.(float32); ok32 {
			f = float64(f32)
		}
	}
	return math.IsInf(f, 0)
}

func asDecimal(v any) (decimal.Decimal, error) {
	if n, ok := asInt64(v); ok {
		return decimal.NewFromInt(n), nil
	}
	if b, ok := asBigInt(v); ok {
		return decimal.NewFromBigInt(b, 0), nil
	}
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case float32:
		return decimalFromFloat(float64(n))
	case float64:
		return decimalFromFloat(n)
	}
	return decimal.Decimal{}, errIncomparable(v, v)
}

func decimalFromFloat(f float64) (decimal.Decimal, error) {
	switch {
	case math.IsNaN(f):
		return decimal.Decimal{}, errNaN
	case math.IsInf(f, 0):
		return decimal.Decimal{}, errInf
	}
	return decimal.NewFromFloat(f), nil
}

func compareFloats(x, y float64) (int, error) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, errNaN
	}
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	}
	return 0, nil
}

func compareNumeric(a, b any) (int, error) {
	if x, ok := asInt64(a); ok {
		if y, ok := asInt64(b); ok {
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			}
			return 0, nil
		}
	}
	switch {
	case isFloat(a) && isFloat(b):
		x, _ := asFloat64(a)
		y, _ := asFloat64(b)
		return compareFloats(x, y)
	case isInf(a):
		x, _ := asFloat64(a)
		return int(math.Copysign(1, x)), nil
	case isInf(b):
		y, _ := asFloat64(b)
		return -int(math.Copysign(1, y)), nil
	}
	x, err := asDecimal(a)
	if err != nil {
		return 0, err
	}
	y, err := asDecimal(b)
	if err != nil {
		return 0, err
	}
	return x.Cmp(y), nil
}

// Add sums two numeric values. Integer sums are exact and become
// *big.Int when they overflow int64. A decimal operand gives a decimal,
// otherwise a float operand gives a float64. Nil is the additive identity.
func Add(a, b any) (any, error) {
	if a == nil {
		return Normalize(b)
	}
	if b == nil {
		return Normalize(a)
	}
	if !isNumeric(a) || !isNumeric(b) {
		return nil, errIncomparable(a, b)
	}
	switch {
	case isInteger(a) && isInteger(b):
		if x, ok := asInt64(a); ok {
			if y, ok := asInt64(b); ok {
				s := x + y
				if (s > x) == (y > 0) {
					return s, nil
				}
			}
		}
		x, _ := asBigInt(a)
		y, _ := asBigInt(b)
		return shrink(x.Add(x, y)), nil
	case !isDecimal(a) && !isDecimal(b):
		x, _ := asFloat64(a)
		y, _ := asFloat64(b)
		if math.IsNaN(x) || math.IsNaN(y) {
			return nil, errNaN
		}
		return x + y, nil
	}
	x, err := asDecimal(a)
	if err != nil {
		return nil, err
	}
	y, err := asDecimal(b)
	if err != nil {
		return nil, err
	}
	return x.Add(y), nil
}

// Div returns a / b, or nil when b is zero or either is nil. A decimal
// operand gives a decimal rounded to decimal.DivisionPrecision places,
// otherwise the quotient is a float64.
func Div(a, b any) (any, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	x, err := asDecimal(a)
	if err != nil {
		return nil, err
	}
	y, err := asDecimal(b)
	if err != nil {
		return nil, err
	}
	if y.IsZero() {
		return nil, nil
	}
	q := x.Div(y)
	if isDecimal(a) || isDecimal(b) {
		return q, nil
	}
	return q.InexactFloat64(), nil
}

func shrink(n *big.Int) any {
	if n.IsInt64() {
		return n.Int64()
	}
	return n
}
