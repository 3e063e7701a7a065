package hashfunction

import (
	"encoding/binary"
	"math/big"
	"strings"

	"github.com/go-faster/city"
	"github.com/google/uuid"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/models/valuecmp"
	"github.com/shopspring/decimal"
	"github.com/spaolacci/murmur3"
)

type HashFunctionType int

/* Pre-defined hash functions */
const (
	HashFunctionIdent  = HashFunctionType(0)
	HashFunctionMurmur = HashFunctionType(1)
	HashFunctionCity   = HashFunctionType(2)
)

func errUnknownValueType(v any, hf HashFunctionType) error {
	return shardingerror.Newf(shardingerror.SHARD_TYPE_COERCION,
		"unknown type of value that the hash will be calculated from: %T for %s hash type", v, ToString(hf))
}

// EncodeUInt64 encodes an integer sharding key the way it is fed to
// murmur and city hashes: an 8-byte uvarint buffer, widened for values
// that do not fit into 56 bits.
func EncodeUInt64(input uint64) []byte {
	const ENCODING_BYTES_BIG = binary.MaxVarintLen64
	const ENCODING_BYTES = 8
	const BOUND = 1 << 56 /* 72057594037927936 */

	sz := ENCODING_BYTES
	if input >= BOUND {
		sz = ENCODING_BYTES_BIG
	}

	buf := make([]byte, sz)
	binary.PutUvarint(buf, input)
	return buf
}

// hashInput converts a normalized sharding value into hash input bytes.
func hashInput(input any, hf HashFunctionType) ([]byte, error) {
	v, err := valuecmp.Normalize(input)
	if err != nil {
		return nil, err
	}
	switch n := v.(type) {
	case int64:
		return EncodeUInt64(uint64(n)), nil
	case *big.Int:
		if n.IsUint64() {
			return EncodeUInt64(n.Uint64()), nil
		}
		return n.Bytes(), nil
	case decimal.Decimal:
		if n.IsInteger() {
			return hashInput(n.BigInt(), hf)
		}
		return nil, errUnknownValueType(input, hf)
	case string:
		return []byte(n), nil
	case uuid.UUID:
		return []byte(n.String()), nil
	default:
		return nil, errUnknownValueType(input, hf)
	}
}

func ApplyMurmurHashFunction(input any) (uint32, error) {
	buf, err := hashInput(input, HashFunctionMurmur)
	if err != nil {
		return 0, err
	}
	return murmur3.Sum32(buf), nil
}

func ApplyCityHashFunction(input any) (uint32, error) {
	buf, err := hashInput(input, HashFunctionCity)
	if err != nil {
		return 0, err
	}
	return city.Hash32(buf), nil
}

// ApplyHashFunction maps a sharding value onto the value compared against
// shard boundaries. Identity keeps the value (validating uuid strings when
// isUUID is set); murmur and city return uint64.
func ApplyHashFunction(input any, hf HashFunctionType, isUUID bool) (any, error) {
	switch hf {
	case HashFunctionIdent:
		if isUUID {
			s, ok := input.(string)
			if !ok {
				if u, ok := input.(uuid.UUID); ok {
					return u, nil
				}
				return nil, errUnknownValueType(input, hf)
			}
			if err := uuid.Validate(strings.ToLower(s)); err != nil {
				return nil, shardingerror.Wrap(shardingerror.SHARD_TYPE_COERCION, err)
			}
		}
		return valuecmp.Normalize(input)
	case HashFunctionMurmur:
		v, err := ApplyMurmurHashFunction(input)
		return uint64(v), err
	case HashFunctionCity:
		v, err := ApplyCityHashFunction(input)
		return uint64(v), err
	default:
		return nil, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "unknown hash function type: %d", hf)
	}
}

// HashFunctionByName returns the corresponding HashFunctionType based on the given hash function name.
func HashFunctionByName(hfn string) (HashFunctionType, error) {
	switch hfn {
	case "identity", "ident", "":
		return HashFunctionIdent, nil
	case "murmur":
		return HashFunctionMurmur, nil
	case "city":
		return HashFunctionCity, nil
	default:
		return 0, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "unknown hash function type: %s", hfn)
	}
}

// ToString converts a HashFunctionType to its corresponding string representation.
// If the input HashFunctionType is not recognized, an empty string is returned.
func ToString(hf HashFunctionType) string {
	switch hf {
	case HashFunctionIdent:
		return "identity"
	case HashFunctionMurmur:
		return "murmur"
	case HashFunctionCity:
		return "city"
	}
	return ""
}
