package strategy

import (
	"math"
	"math/big"
	"strconv"

	"github.com/pg-sharding/shardcore/pkg/config"
	"github.com/pg-sharding/shardcore/pkg/models/hashfunction"
	"github.com/pg-sharding/shardcore/pkg/models/kr"
	"github.com/pg-sharding/shardcore/pkg/models/routevalue"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/models/valuecmp"
	"github.com/pg-sharding/shardcore/pkg/shardlog"
	"github.com/shopspring/decimal"
)

// Algorithm picks the targets one column's route value may reach.
// Results keep the order of targets.
type Algorithm interface {
	Shard(targets []string, v routevalue.RouteValue) ([]string, error)
}

// targetSuffix returns the trailing decimal number of a target name,
// e.g. 3 for t_order_3.
func targetSuffix(target string) (int64, bool) {
	i := len(target)
	for i > 0 && target[i-1] >= '0' && target[i-1] <= '9' {
		i--
	}
	if i == len(target) {
		return 0, false
	}
	n, err := strconv.ParseInt(target[i:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// pickBySuffix keeps targets whose numeric suffix is in mods.
func pickBySuffix(targets []string, mods map[int64]struct{}) []string {
	res := make([]string, 0, len(mods))
	for _, t := range targets {
		n, ok := targetSuffix(t)
		if !ok {
			continue
		}
		if _, ok := mods[n]; ok {
			res = append(res, t)
		}
	}
	return res
}

func pickByName(targets []string, names map[string]struct{}) []string {
	res := make([]string, 0, len(names))
	for _, t := range targets {
		if _, ok := names[t]; ok {
			res = append(res, t)
		}
	}
	return res
}

// integerMod returns v mod count in [0, count).
func integerMod(v any, count int64) (int64, error) {
	nv, err := valuecmp.Normalize(v)
	if err != nil {
		return 0, err
	}
	switch n := nv.(type) {
	case int64:
		return ((n % count) + count) % count, nil
	case *big.Int:
		m := new(big.Int).Mod(n, big.NewInt(count))
		return m.Int64(), nil
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return integerMod(int64(n), count)
		}
	case decimal.Decimal:
		if n.IsInteger() {
			return integerMod(n.BigInt(), count)
		}
	}
	return 0, shardingerror.Newf(shardingerror.SHARD_TYPE_COERCION, "value %v of type %T is not an integer sharding key", v, v)
}

// integerBounds returns the closed integer interval covered by r. ok is
// false when r is unbounded or too wide to enumerate.
func integerBounds(r routevalue.Range) (lo, hi int64, ok bool, err error) {
	if !r.HasLower() || !r.HasUpper() {
		return 0, 0, false, nil
	}
	lo, ok, err = boundToInt(r.Lower, true)
	if err != nil || !ok {
		return 0, 0, ok, err
	}
	hi, ok, err = boundToInt(r.Upper, false)
	if err != nil || !ok {
		return 0, 0, ok, err
	}
	return lo, hi, true, nil
}

func boundToInt(b routevalue.Bound, lower bool) (int64, bool, error) {
	var f float64
	switch n := b.Value.(type) {
	case int64:
		if b.Type == routevalue.Open {
			if lower {
				if n == math.MaxInt64 {
					return 0, false, nil
				}
				return n + 1, true, nil
			}
			if n == math.MinInt64 {
				return 0, false, nil
			}
			return n - 1, true, nil
		}
		return n, true, nil
	case *big.Int:
		return 0, false, nil
	case decimal.Decimal:
		return decimalBoundToInt(n, b.Type, lower)
	case float64:
		f = n
	default:
		return 0, false, shardingerror.Newf(shardingerror.SHARD_TYPE_COERCION,
			"range bound %v of type %T is not numeric", b.Value, b.Value)
	}

	if math.Abs(f) >= 1<<62 {
		return 0, false, nil
	}
	if lower {
		c := math.Ceil(f)
		if b.Type == routevalue.Open && c == f {
			c++
		}
		return int64(c), true, nil
	}
	c := math.Floor(f)
	if b.Type == routevalue.Open && c == f {
		c--
	}
	return int64(c), true, nil
}

func decimalBoundToInt(d decimal.Decimal, tp routevalue.BoundType, lower bool) (int64, bool, error) {
	c := d.Floor()
	if lower {
		c = d.Ceil()
	}
	if tp == routevalue.Open && c.Equal(d) {
		if lower {
			c = c.Add(decimal.NewFromInt(1))
		} else {
			c = c.Sub(decimal.NewFromInt(1))
		}
	}
	n := c.BigInt()
	if !n.IsInt64() {
		return 0, false, nil
	}
	return n.Int64(), true, nil
}

// ModAlgorithm routes integer key k to the target whose name ends with
// k mod Count.
type ModAlgorithm struct {
	Count int64
}

var _ Algorithm = &ModAlgorithm{}

func (m *ModAlgorithm) Shard(targets []string, v routevalue.RouteValue) ([]string, error) {
	switch rv := v.(type) {
	case *routevalue.ListRouteValue:
		mods := make(map[int64]struct{}, len(rv.Values))
		for _, val := range rv.Values {
			mod, err := integerMod(val, m.Count)
			if err != nil {
				return nil, err
			}
			mods[mod] = struct{}{}
		}
		return pickBySuffix(targets, mods), nil
	case *routevalue.RangeRouteValue:
		if rv.IsEmpty() {
			return nil, nil
		}
		lo, hi, ok, err := integerBounds(rv.Range)
		if err != nil {
			return nil, err
		}
		if !ok {
			return targets, nil
		}
		if hi < lo {
			return nil, nil
		}
		/* hi-lo < 0 means the width overflowed */
		if hi-lo < 0 || hi-lo >= m.Count-1 {
			return targets, nil
		}
		mods := map[int64]struct{}{}
		for k := lo; k <= hi; k++ {
			mods[((k%m.Count)+m.Count)%m.Count] = struct{}{}
		}
		return pickBySuffix(targets, mods), nil
	}
	return nil, shardingerror.Newf(shardingerror.SHARD_UNEXPECTED, "unknown route value %T", v)
}

// HashModAlgorithm hashes the key, then routes like ModAlgorithm. Ranges
// cannot be narrowed through a hash and reach every target.
type HashModAlgorithm struct {
	Count int64
	Hash  hashfunction.HashFunctionType
}

var _ Algorithm = &HashModAlgorithm{}

func (h *HashModAlgorithm) Shard(targets []string, v routevalue.RouteValue) ([]string, error) {
	switch rv := v.(type) {
	case *routevalue.ListRouteValue:
		mods := make(map[int64]struct{}, len(rv.Values))
		for _, val := range rv.Values {
			hv, err := hashfunction.ApplyHashFunction(val, h.Hash, false)
			if err != nil {
				return nil, err
			}
			var mod int64
			if u, ok := hv.(uint64); ok {
				mod = int64(u % uint64(h.Count))
			} else if mod, err = integerMod(hv, h.Count); err != nil {
				return nil, err
			}
			mods[mod] = struct{}{}
		}
		return pickBySuffix(targets, mods), nil
	case *routevalue.RangeRouteValue:
		if rv.IsEmpty() {
			return nil, nil
		}
		return targets, nil
	}
	return nil, shardingerror.Newf(shardingerror.SHARD_UNEXPECTED, "unknown route value %T", v)
}

// KeyRangeAlgorithm routes a key to the target named by the key range
// owning it. With a non-identity hash the hashed key is matched and
// ranges reach every target.
type KeyRangeAlgorithm struct {
	KeyRanges *kr.KeyRangeSet
	Hash      hashfunction.HashFunctionType
}

var _ Algorithm = &KeyRangeAlgorithm{}

func (k *KeyRangeAlgorithm) Shard(targets []string, v routevalue.RouteValue) ([]string, error) {
	names := map[string]struct{}{}

	switch rv := v.(type) {
	case *routevalue.ListRouteValue:
		for _, val := range rv.Values {
			hv, err := hashfunction.ApplyHashFunction(val, k.Hash, false)
			if err != nil {
				return nil, err
			}
			matched, err := k.KeyRanges.Match(hv)
			if err != nil {
				return nil, err
			}
			if matched == nil {
				shardlog.Zero.Debug().
					Interface("value", val).
					Msg("value is below every key range")
				continue
			}
			names[matched.ShardID] = struct{}{}
		}
	case *routevalue.RangeRouteValue:
		if rv.IsEmpty() {
			return nil, nil
		}
		if k.Hash != hashfunction.HashFunctionIdent {
			return targets, nil
		}
		krs, err := k.KeyRanges.MatchRange(rv.Range)
		if err != nil {
			return nil, err
		}
		for _, matched := range krs {
			names[matched.ShardID] = struct{}{}
		}
	default:
		return nil, shardingerror.Newf(shardingerror.SHARD_UNEXPECTED, "unknown route value %T", v)
	}
	return pickByName(targets, names), nil
}

// NewAlgorithm builds the algorithm described by cfg.
func NewAlgorithm(cfg *config.AlgorithmCfg) (Algorithm, error) {
	switch cfg.Type {
	case config.AlgorithmMod:
		return &ModAlgorithm{Count: int64(cfg.Count)}, nil
	case config.AlgorithmHashMod:
		hf, err := hashfunction.HashFunctionByName(cfg.HashFunction)
		if err != nil {
			return nil, err
		}
		return &HashModAlgorithm{Count: int64(cfg.Count), Hash: hf}, nil
	case config.AlgorithmKeyRange:
		hf, err := hashfunction.HashFunctionByName(cfg.HashFunction)
		if err != nil {
			return nil, err
		}
		krs := make([]*kr.KeyRange, 0, len(cfg.KeyRanges))
		for _, k := range cfg.KeyRanges {
			krs = append(krs, &kr.KeyRange{ID: k.ID, LowerBound: k.LowerBound, ShardID: k.Shard})
		}
		set, err := kr.NewKeyRangeSet(krs)
		if err != nil {
			return nil, err
		}
		return &KeyRangeAlgorithm{KeyRanges: set, Hash: hf}, nil
	default:
		return nil, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "unknown sharding algorithm type %q", cfg.Type)
	}
}
