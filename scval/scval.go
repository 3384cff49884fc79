// Package scval models the tagged, self-describing values returned by the
// contract's simulation and query layer as a closed tagged union, with one
// decode helper per documented convention. Ad hoc shape sniffing belongs
// nowhere else; higher layers see either a typed value or a DecodeError.
package scval

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Type is the variant discriminator. The set is closed; anything else is a
// decode failure.
type Type string

const (
	TypeVoid    Type = "void"
	TypeBool    Type = "bool"
	TypeU32     Type = "u32"
	TypeI32     Type = "i32"
	TypeU64     Type = "u64"
	TypeI64     Type = "i64"
	TypeU128    Type = "u128"
	TypeI128    Type = "i128"
	TypeU256    Type = "u256"
	TypeI256    Type = "i256"
	TypeSymbol  Type = "symbol"
	TypeString  Type = "string"
	TypeBytes   Type = "bytes"
	TypeAddress Type = "address"
	TypeVec     Type = "vec"
	TypeMap     Type = "map"
)

// Val is one tagged value. Only the field matching Type is meaningful.
type Val struct {
	Type Type

	Bool  bool
	U32   uint32
	I32   int32
	U64   uint64
	I64   int64
	Big   *big.Int // 128- and 256-bit integers
	Str   string   // symbol, string, and flattened address
	Bytes []byte
	Vec   []Val
	Map   []MapEntry
}

// MapEntry is one key/value pair of a map value. Field lookups only honor
// symbol-typed keys.
type MapEntry struct {
	Key Val
	Val Val
}

// DecodeError is a typed decode failure for unrecognized or malformed tags.
type DecodeError struct {
	Tag    Type
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("scval: cannot decode %q: %s", e.Tag, e.Reason)
}

// Constructors.

func Void() Val                { return Val{Type: TypeVoid} }
func BoolVal(b bool) Val       { return Val{Type: TypeBool, Bool: b} }
func U32Val(v uint32) Val      { return Val{Type: TypeU32, U32: v} }
func I32Val(v int32) Val       { return Val{Type: TypeI32, I32: v} }
func U64Val(v uint64) Val      { return Val{Type: TypeU64, U64: v} }
func I64Val(v int64) Val       { return Val{Type: TypeI64, I64: v} }
func SymbolVal(s string) Val   { return Val{Type: TypeSymbol, Str: s} }
func StringVal(s string) Val   { return Val{Type: TypeString, Str: s} }
func BytesVal(b []byte) Val    { return Val{Type: TypeBytes, Bytes: b} }
func AddressVal(a string) Val  { return Val{Type: TypeAddress, Str: a} }
func VecVal(items ...Val) Val  { return Val{Type: TypeVec, Vec: items} }
func MapVal(e ...MapEntry) Val { return Val{Type: TypeMap, Map: e} }

// I128Val wraps a signed 128-bit amount. The pointer is not copied.
func I128Val(v *big.Int) Val {
	if v == nil {
		v = new(big.Int)
	}
	return Val{Type: TypeI128, Big: v}
}

// U128Val wraps an unsigned 128-bit amount.
func U128Val(v *big.Int) Val {
	if v == nil {
		v = new(big.Int)
	}
	return Val{Type: TypeU128, Big: v}
}

// Entry builds a symbol-keyed map entry.
func Entry(key string, val Val) MapEntry {
	return MapEntry{Key: SymbolVal(key), Val: val}
}

// IsVoid reports whether the value is the void variant.
func (v Val) IsVoid() bool {
	return v.Type == TypeVoid || v.Type == ""
}

// IsInt reports whether the value carries any integer variant.
func (v Val) IsInt() bool {
	switch v.Type {
	case TypeU32, TypeI32, TypeU64, TypeI64, TypeU128, TypeI128, TypeU256, TypeI256:
		return true
	}
	return false
}

// BigInt returns the integer payload as a big.Int, or an error for
// non-integer variants. The result is always a fresh value.
func (v Val) BigInt() (*big.Int, error) {
	switch v.Type {
	case TypeU32:
		return new(big.Int).SetUint64(uint64(v.U32)), nil
	case TypeI32:
		return big.NewInt(int64(v.I32)), nil
	case TypeU64:
		return new(big.Int).SetUint64(v.U64), nil
	case TypeI64:
		return big.NewInt(v.I64), nil
	case TypeU128, TypeI128, TypeU256, TypeI256:
		if v.Big == nil {
			return new(big.Int), nil
		}
		return new(big.Int).Set(v.Big), nil
	default:
		return nil, &DecodeError{Tag: v.Type, Reason: "not an integer variant"}
	}
}

// Uint64 narrows an integer variant to uint64, failing on negative or
// oversized values.
func (v Val) Uint64() (uint64, error) {
	b, err := v.BigInt()
	if err != nil {
		return 0, err
	}
	if b.Sign() < 0 || !b.IsUint64() {
		return 0, &DecodeError{Tag: v.Type, Reason: "out of uint64 range"}
	}
	return b.Uint64(), nil
}

// String renders the default string form of the value. Containers render as
// their JSON encoding; bytes render as 0x-prefixed hex.
func (v Val) String() string {
	switch v.Type {
	case TypeVoid, "":
		return ""
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	case TypeU32:
		return strconv.FormatUint(uint64(v.U32), 10)
	case TypeI32:
		return strconv.FormatInt(int64(v.I32), 10)
	case TypeU64:
		return strconv.FormatUint(v.U64, 10)
	case TypeI64:
		return strconv.FormatInt(v.I64, 10)
	case TypeU128, TypeI128, TypeU256, TypeI256:
		if v.Big == nil {
			return "0"
		}
		return v.Big.String()
	case TypeSymbol, TypeString, TypeAddress:
		return v.Str
	case TypeBytes:
		return hexutil.Encode(v.Bytes)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
