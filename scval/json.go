package scval

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Wire form of a tagged value. Integers travel as decimal strings so 128-
// and 256-bit magnitudes survive JSON; 128-bit values may alternatively
// arrive split into hi/lo 64-bit parts.
type wireVal struct {
	Type  Type            `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
	Hi    json.RawMessage `json:"hi,omitempty"`
	Lo    json.RawMessage `json:"lo,omitempty"`
}

type wireEntry struct {
	Key Val `json:"key"`
	Val Val `json:"value"`
}

func (v Val) MarshalJSON() ([]byte, error) {
	w := wireVal{Type: v.Type}
	if w.Type == "" {
		w.Type = TypeVoid
	}

	var payload any
	switch v.Type {
	case TypeVoid, "":
		payload = nil
	case TypeBool:
		payload = v.Bool
	case TypeU32:
		payload = v.U32
	case TypeI32:
		payload = v.I32
	case TypeU64:
		payload = strconv.FormatUint(v.U64, 10)
	case TypeI64:
		payload = strconv.FormatInt(v.I64, 10)
	case TypeU128, TypeI128, TypeU256, TypeI256:
		b := v.Big
		if b == nil {
			b = new(big.Int)
		}
		payload = b.String()
	case TypeSymbol, TypeString, TypeAddress:
		payload = v.Str
	case TypeBytes:
		payload = hexutil.Encode(v.Bytes)
	case TypeVec:
		payload = v.Vec
	case TypeMap:
		entries := make([]wireEntry, len(v.Map))
		for i, e := range v.Map {
			entries[i] = wireEntry{Key: e.Key, Val: e.Val}
		}
		payload = entries
	default:
		return nil, &DecodeError{Tag: v.Type, Reason: "unknown variant"}
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		w.Value = raw
	}
	return json.Marshal(w)
}

func (v *Val) UnmarshalJSON(data []byte) error {
	var w wireVal
	if err := json.Unmarshal(data, &w); err != nil {
		return &DecodeError{Tag: "", Reason: err.Error()}
	}

	out := Val{Type: w.Type}
	switch w.Type {
	case TypeVoid:
	case TypeBool:
		if err := json.Unmarshal(w.Value, &out.Bool); err != nil {
			return &DecodeError{Tag: w.Type, Reason: err.Error()}
		}
	case TypeU32:
		n, err := wireUint(w.Value)
		if err != nil {
			return &DecodeError{Tag: w.Type, Reason: err.Error()}
		}
		out.U32 = uint32(n)
	case TypeI32:
		n, err := wireInt(w.Value)
		if err != nil {
			return &DecodeError{Tag: w.Type, Reason: err.Error()}
		}
		out.I32 = int32(n)
	case TypeU64:
		n, err := wireUint(w.Value)
		if err != nil {
			return &DecodeError{Tag: w.Type, Reason: err.Error()}
		}
		out.U64 = n
	case TypeI64:
		n, err := wireInt(w.Value)
		if err != nil {
			return &DecodeError{Tag: w.Type, Reason: err.Error()}
		}
		out.I64 = n
	case TypeU128, TypeI128, TypeU256, TypeI256:
		b, err := wireBig(w)
		if err != nil {
			return err
		}
		out.Big = b
	case TypeSymbol, TypeString, TypeAddress:
		if err := json.Unmarshal(w.Value, &out.Str); err != nil {
			return &DecodeError{Tag: w.Type, Reason: err.Error()}
		}
	case TypeBytes:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return &DecodeError{Tag: w.Type, Reason: err.Error()}
		}
		b, err := hexutil.Decode(s)
		if err != nil {
			return &DecodeError{Tag: w.Type, Reason: err.Error()}
		}
		out.Bytes = b
	case TypeVec:
		if len(w.Value) > 0 {
			if err := json.Unmarshal(w.Value, &out.Vec); err != nil {
				return &DecodeError{Tag: w.Type, Reason: err.Error()}
			}
		}
	case TypeMap:
		var entries []wireEntry
		if len(w.Value) > 0 {
			if err := json.Unmarshal(w.Value, &entries); err != nil {
				return &DecodeError{Tag: w.Type, Reason: err.Error()}
			}
		}
		out.Map = make([]MapEntry, len(entries))
		for i, e := range entries {
			out.Map[i] = MapEntry{Key: e.Key, Val: e.Val}
		}
	default:
		return &DecodeError{Tag: w.Type, Reason: "unrecognized tag"}
	}

	*v = out
	return nil
}

// wireBig reads a big integer either from a decimal string/number value or
// from hi/lo 64-bit halves (result = hi<<64 + lo, hi signed).
func wireBig(w wireVal) (*big.Int, error) {
	if len(w.Value) > 0 {
		s := strings.Trim(string(w.Value), `"`)
		b, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, &DecodeError{Tag: w.Type, Reason: "malformed integer " + s}
		}
		return b, nil
	}
	if len(w.Hi) == 0 && len(w.Lo) == 0 {
		return new(big.Int), nil
	}
	hi, err := wireInt(w.Hi)
	if err != nil {
		return nil, &DecodeError{Tag: w.Type, Reason: "malformed hi part"}
	}
	lo, err := wireUint(w.Lo)
	if err != nil {
		return nil, &DecodeError{Tag: w.Type, Reason: "malformed lo part"}
	}
	out := big.NewInt(hi)
	out.Lsh(out, 64)
	return out.Add(out, new(big.Int).SetUint64(lo)), nil
}

func wireUint(raw json.RawMessage) (uint64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	return strconv.ParseUint(strings.Trim(string(raw), `"`), 10, 64)
}

func wireInt(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	return strconv.ParseInt(strings.Trim(string(raw), `"`), 10, 64)
}
