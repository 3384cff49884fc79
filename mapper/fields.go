package mapper

import (
	"math"
	"math/big"
	"strings"

	"github.com/sam-thetutor/streamr/metrics"
	"github.com/sam-thetutor/streamr/scval"
	"github.com/sam-thetutor/streamr/types"
)

// entityID validates an id field. Ids must be finite non-negative integers;
// anything else rejects the whole record.
func (m *Mapper) entityID(v any) (uint64, bool) {
	if v == nil {
		return 0, false
	}
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return 0, false
	}
	b, ok := m.norm.BigIntStrict(v)
	if !ok || b.Sign() < 0 || !b.IsUint64() {
		return 0, false
	}
	return b.Uint64(), true
}

func (m *Mapper) dropped(kind string, id any) (*types.Stream, bool) {
	m.log.Warn("dropping record with invalid id", map[string]any{"kind": kind, "id": id})
	m.rec.IncCounter(metrics.CounterRecordDropped, map[string]string{"kind": kind})
	return nil, false
}

func (m *Mapper) droppedSub(id any) (*types.Subscription, bool) {
	m.log.Warn("dropping record with invalid id", map[string]any{"kind": "subscription", "id": id})
	m.rec.IncCounter(metrics.CounterRecordDropped, map[string]string{"kind": "subscription"})
	return nil, false
}

// amountMap normalizes an address-keyed amount map.
func (m *Mapper) amountMap(in map[string]any) map[string]*big.Int {
	if in == nil {
		return nil
	}
	out := make(map[string]*big.Int, len(in))
	for addr, raw := range in {
		out[addr] = m.norm.BigInt(raw)
	}
	return out
}

// timeMap normalizes an address-keyed timestamp map.
func (m *Mapper) timeMap(in map[string]any) map[string]uint64 {
	if in == nil {
		return nil
	}
	out := make(map[string]uint64, len(in))
	for addr, raw := range in {
		out[addr] = m.timestamp(raw)
	}
	return out
}

func (m *Mapper) timestamp(v any) uint64 {
	b := m.norm.BigInt(v)
	if b.Sign() < 0 || !b.IsUint64() {
		return 0
	}
	return b.Uint64()
}

func (m *Mapper) optionalText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return trimmedOrEmpty(t)
	case scval.Val:
		s, _ := scval.DecodeOptionalText(t)
		return s
	}
	return ""
}

func (m *Mapper) text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case scval.Val:
		return scval.DecodeAddress(t)
	}
	return ""
}

func (m *Mapper) textSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := m.text(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case scval.Val:
		return scval.DecodeAddressVec(t)
	}
	return nil
}

// Raw-shape helpers: per-field decoding of tagged values.

func (m *Mapper) valAmount(v scval.Val) *big.Int {
	if v.IsVoid() {
		return new(big.Int)
	}
	b, err := v.BigInt()
	if err != nil {
		m.log.Warn("amount field failed to decode, degrading to zero", map[string]any{"error": err.Error()})
		m.rec.IncCounter(metrics.CounterDecodeFailure, nil)
		return new(big.Int)
	}
	return b
}

func (m *Mapper) valTimestamp(v scval.Val) uint64 {
	if v.IsVoid() {
		return 0
	}
	t, err := v.Uint64()
	if err != nil {
		m.log.Warn("timestamp field failed to decode, degrading to zero", map[string]any{"error": err.Error()})
		m.rec.IncCounter(metrics.CounterDecodeFailure, nil)
		return 0
	}
	return t
}

func (m *Mapper) valOptionalText(v scval.Val) string {
	s, _ := scval.DecodeOptionalText(v)
	return s
}

// valAmountMap reads an address-keyed map of amounts from a tagged map
// value. Non-address keys and malformed amounts degrade per entry.
func (m *Mapper) valAmountMap(v scval.Val) map[string]*big.Int {
	if v.Type != scval.TypeMap {
		return nil
	}
	out := make(map[string]*big.Int, len(v.Map))
	for _, entry := range v.Map {
		addr := scval.DecodeAddress(entry.Key)
		if addr == "" {
			continue
		}
		out[addr] = m.valAmount(entry.Val)
	}
	return out
}

func (m *Mapper) valTimeMap(v scval.Val) map[string]uint64 {
	if v.Type != scval.TypeMap {
		return nil
	}
	out := make(map[string]uint64, len(v.Map))
	for _, entry := range v.Map {
		addr := scval.DecodeAddress(entry.Key)
		if addr == "" {
			continue
		}
		out[addr] = m.valTimestamp(entry.Val)
	}
	return out
}

func trimmedOrEmpty(s string) string {
	return strings.TrimSpace(s)
}
