// Package numeric coerces the many wire shapes a token amount can arrive in
// into one canonical big.Int, and owns the conversion to display strings.
// All accounting upstream of the final render step happens on big.Int;
// nothing in this repository does float arithmetic on token amounts.
package numeric

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"

	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"

	"github.com/sam-thetutor/streamr/logger"
	"github.com/sam-thetutor/streamr/metrics"
)

// TokenDecimals is the fixed token exponent: 10^7 atomic units per display
// unit.
const TokenDecimals = 7

// Alternate field-name spellings under which a split 64-bit pair may arrive.
var hiLoSpellings = [][2]string{
	{"hi", "lo"},
	{"high", "low"},
	{"Hi", "Lo"},
	{"High", "Low"},
}

// Normalizer turns arbitrary numeric wire shapes into big.Int. Unparseable
// input degrades to zero rather than failing, so a single drifted field
// cannot take the dashboard down; every such degrade is logged and counted.
type Normalizer struct {
	log     logger.Logger
	metrics metrics.Recorder
}

func NewNormalizer(log logger.Logger, rec metrics.Recorder) *Normalizer {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Normalizer{log: log, metrics: rec}
}

// Default is a silent normalizer for contexts that have no logger wired.
var Default = NewNormalizer(nil, nil)

// BigInt normalizes any supported shape to a canonical signed big.Int:
// native fixed-width numbers, decimal numeric strings, hi/lo 64-bit pairs
// under several spellings, objects with a nested value, and big.Int itself.
// The result is always non-nil and safe to mutate.
func (n *Normalizer) BigInt(v any) *big.Int {
	out, ok := n.tryBigInt(v)
	if !ok {
		n.log.Warn("unparseable numeric shape, degrading to zero", map[string]any{"input": v})
		n.metrics.IncCounter(metrics.CounterNormalizeFallback, nil)
		return new(big.Int)
	}
	return out
}

// BigIntStrict is BigInt without the zero fallback: it reports whether the
// shape was parseable at all. Join keys like entity ids go through this so a
// malformed id rejects the record instead of fabricating id zero.
func (n *Normalizer) BigIntStrict(v any) (*big.Int, bool) {
	return n.tryBigInt(v)
}

func (n *Normalizer) tryBigInt(v any) (*big.Int, bool) {
	switch t := v.(type) {
	case nil:
		return new(big.Int), true
	case *big.Int:
		if t == nil {
			return new(big.Int), true
		}
		return new(big.Int).Set(t), true
	case big.Int:
		return new(big.Int).Set(&t), true
	case int:
		return big.NewInt(int64(t)), true
	case int32:
		return big.NewInt(int64(t)), true
	case int64:
		return big.NewInt(t), true
	case uint32:
		return new(big.Int).SetUint64(uint64(t)), true
	case uint64:
		return new(big.Int).SetUint64(t), true
	case float64:
		// Only exact integers pass; fractional floats are not atomic
		// amounts and there is no safe scale to assume for them here.
		// Conversion goes through big.Float so magnitudes past int64
		// keep their exact value instead of wrapping.
		if math.IsNaN(t) || math.IsInf(t, 0) || t != math.Trunc(t) {
			return nil, false
		}
		out, _ := new(big.Float).SetFloat64(t).Int(nil)
		return out, true
	case json.Number:
		return n.fromString(string(t))
	case string:
		return n.fromString(t)
	case map[string]any:
		return n.fromObject(t)
	}
	return nil, false
}

// fromString parses integer strings directly (decimal or 0x hex) and scales
// decimal-point strings by 10^7 with round-half-up. The decimal path exists
// only for user-entered display amounts, never for atomic values.
func (n *Normalizer) fromString(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if !strings.Contains(s, ".") {
		if b, ok := ethmath.ParseBig256(s); ok {
			return b, true
		}
		return nil, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, false
	}
	return d.Shift(TokenDecimals).Round(0).BigInt(), true
}

// fromObject handles hi/lo pairs and nested value wrappers. Both halves of a
// pair are normalized recursively before composing hi*2^64 + lo.
func (n *Normalizer) fromObject(obj map[string]any) (*big.Int, bool) {
	for _, spelling := range hiLoSpellings {
		hiRaw, hiOK := obj[spelling[0]]
		loRaw, loOK := obj[spelling[1]]
		if !hiOK || !loOK {
			continue
		}
		hi, ok := n.tryBigInt(hiRaw)
		if !ok {
			return nil, false
		}
		lo, ok := n.tryBigInt(loRaw)
		if !ok {
			return nil, false
		}
		out := new(big.Int).Lsh(hi, 64)
		return out.Add(out, lo), true
	}
	if inner, ok := obj["value"]; ok {
		return n.tryBigInt(inner)
	}
	return nil, false
}

// SplitHiLo decomposes a big.Int into signed-hi/unsigned-lo 64-bit halves
// such that value = hi*2^64 + lo. It is the inverse of the pair composition
// above and exists mostly for tests and call encoding.
func SplitHiLo(v *big.Int) (hi int64, lo uint64) {
	if v == nil {
		return 0, 0
	}
	loMask := new(big.Int).SetUint64(math.MaxUint64)
	rest := new(big.Int).Set(v)

	loPart := new(big.Int).And(new(big.Int).Set(rest), loMask)
	if rest.Sign() < 0 {
		// Euclidean split: lo is the non-negative remainder mod 2^64.
		loPart = new(big.Int).Mod(rest, new(big.Int).Lsh(big.NewInt(1), 64))
	}
	lo = loPart.Uint64()

	rest.Sub(rest, loPart)
	rest.Rsh(rest, 64)
	return rest.Int64(), lo
}
