package numeric

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigIntShapes(t *testing.T) {
	n := Default

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "0"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"uint64", uint64(18446744073709551615), "18446744073709551615"},
		{"integral float", float64(1000000), "1000000"},
		{"integral float at 2^63", float64(9223372036854775808), "9223372036854775808"},
		{"integral float past int64", float64(1e19), "10000000000000000000"},
		{"negative integral float past int64", float64(-1e19), "-10000000000000000000"},
		{"big.Int passthrough", big.NewInt(123), "123"},
		{"integer string", "50000000", "50000000"},
		{"negative integer string", "-5", "-5"},
		{"hex string", "0xff", "255"},
		{"decimal display string scales by 1e7", "5.0", "50000000"},
		{"decimal rounds to nearest", "0.00000004", "0"},
		{"decimal rounds half up", "0.00000005", "1"},
		{"hi/lo pair", map[string]any{"hi": int64(1), "lo": uint64(0)}, "18446744073709551616"},
		{"high/low spelling", map[string]any{"high": "2", "low": "3"}, "36893488147419103235"},
		{"capitalized spelling", map[string]any{"Hi": int64(0), "Lo": uint64(9)}, "9"},
		{"nested value", map[string]any{"value": "12"}, "12"},
		{"nested value wrapping pair", map[string]any{"value": map[string]any{"hi": int64(0), "lo": uint64(5)}}, "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.BigInt(tt.input).String())
		})
	}
}

func TestBigIntFallbackToZero(t *testing.T) {
	n := Default

	for _, input := range []any{
		"not a number",
		"",
		float64(1.5),
		map[string]any{"unrelated": 1},
		struct{}{},
		[]int{1, 2},
	} {
		assert.Equal(t, "0", n.BigInt(input).String(), "input %#v", input)
	}
}

func TestHiLoRoundTrip(t *testing.T) {
	n := Default

	cases := []string{
		"0",
		"1",
		"-1",
		"9223372036854775808",                      // 2^63
		"-9223372036854775808",                     // -2^63
		"170141183460469231731687303715884105727",  // 2^127-1
		"-170141183460469231731687303715884105728", // -2^127
	}

	for _, c := range cases {
		v, ok := new(big.Int).SetString(c, 10)
		require.True(t, ok)

		hi, lo := SplitHiLo(v)
		back := n.BigInt(map[string]any{"hi": hi, "lo": lo})
		assert.Equal(t, c, back.String(), "round trip of %s", c)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "100", FormatAmount(big.NewInt(1000000000)))
	assert.Equal(t, "5", FormatAmount(big.NewInt(50000000)))
	assert.Equal(t, "0.0000001", FormatAmount(big.NewInt(1)))
	assert.Equal(t, "-1.5", FormatAmount(big.NewInt(-15000000)))
	assert.Equal(t, "0", FormatAmount(nil))
}

func TestParseDisplayAmount(t *testing.T) {
	v, err := ParseDisplayAmount("100.0")
	require.NoError(t, err)
	assert.Equal(t, "1000000000", v.String())

	_, err = ParseDisplayAmount("abc")
	require.Error(t, err)
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "5.0%", FormatProgress(500))
	assert.Equal(t, "100.0%", FormatProgress(10000))
	assert.Equal(t, "0.0%", FormatProgress(0))
	assert.Equal(t, "33.3%", FormatProgress(3333))
}
