package mapper

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-thetutor/streamr/scval"
)

const (
	senderAddr    = "GSENDER7JQLKJP5EXAMPLEADDRESSAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	recipientAddr = "GRECIPIENTP5EXAMPLEADDRESSAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	secondAddr    = "GSECONDARYP5EXAMPLEADDRESSAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	tokenAddr     = "CTOKENCONTRACTEXAMPLEADDRESSAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
)

func richStreamInput() map[string]any {
	return map[string]any{
		"id":             float64(7),
		"sender":         senderAddr,
		"recipients":     []string{recipientAddr, secondAddr},
		"token_contract": tokenAddr,
		"recipient_rate_per_second": map[string]any{
			recipientAddr: "100",
			secondAddr:    "250",
		},
		"recipient_last_withdraw": map[string]any{
			recipientAddr: float64(1700000500),
		},
		"recipient_total_withdrawn": map[string]any{
			recipientAddr: "5000",
		},
		"deposit":    "1000000000",
		"start_time": float64(1700000000),
		"is_active":  true,
		"title":      "Payroll",
	}
}

func TestStreamRichPath(t *testing.T) {
	m := New(nil, nil)

	s, ok := m.Stream(richStreamInput())
	require.True(t, ok)

	assert.Equal(t, uint64(7), s.ID)
	assert.Equal(t, senderAddr, s.Sender)
	assert.Equal(t, []string{recipientAddr, secondAddr}, s.Recipients)
	assert.Equal(t, "1000000000", s.Deposit.String())
	assert.Equal(t, uint64(1700000000), s.StartTime)
	assert.True(t, s.IsActive)
	assert.Equal(t, "Payroll", s.Title)
	assert.Equal(t, "", s.Description)

	// Primary recipient convenience shape.
	assert.Equal(t, recipientAddr, s.Recipient)
	assert.Equal(t, "100", s.PrimaryRate.String())

	// Per-recipient state with contract read defaults.
	assert.Equal(t, "250", s.Rate(secondAddr).String())
	assert.Equal(t, uint64(1700000500), s.LastWithdrawTime(recipientAddr))
	assert.Equal(t, uint64(1700000000), s.LastWithdrawTime(secondAddr), "missing entry defaults to start time")
	assert.Equal(t, "5000", s.Withdrawn(recipientAddr).String())
	assert.Equal(t, "0", s.Withdrawn(secondAddr).String())
	assert.Equal(t, "350", s.TotalOutflowRate().String())
}

func TestStreamRawPath(t *testing.T) {
	m := New(nil, nil)

	input := scval.MapVal(
		scval.Entry("id", scval.U32Val(9)),
		scval.Entry("sender", scval.AddressVal(senderAddr)),
		scval.Entry("recipients", scval.VecVal(scval.AddressVal(recipientAddr))),
		scval.Entry("token_contract", scval.VecVal(scval.AddressVal(tokenAddr))),
		scval.Entry("recipient_rate_per_second", scval.MapVal(
			scval.MapEntry{Key: scval.AddressVal(recipientAddr), Val: scval.I128Val(big.NewInt(100))},
		)),
		scval.Entry("deposit", scval.I128Val(big.NewInt(1000000000))),
		scval.Entry("start_time", scval.U64Val(1700000000)),
		scval.Entry("is_active", scval.BoolVal(true)),
		scval.Entry("title", scval.VecVal(scval.SymbolVal("some"), scval.StringVal("  Rent  "))),
		scval.Entry("description", scval.Void()),
	)

	s, ok := m.Stream(input)
	require.True(t, ok)

	assert.Equal(t, uint64(9), s.ID)
	assert.Equal(t, senderAddr, s.Sender)
	assert.Equal(t, tokenAddr, s.TokenContract, "wrapped address flattens")
	assert.Equal(t, "100", s.Rate(recipientAddr).String())
	assert.Equal(t, "Rent", s.Title, "option-some text is unwrapped and trimmed")
	assert.Equal(t, "", s.Description, "void option is absent")
	assert.Equal(t, recipientAddr, s.Recipient)
}

func TestStreamNonFiniteIDRejectsRecord(t *testing.T) {
	m := New(nil, nil)

	for _, id := range []any{math.NaN(), math.Inf(1), "garbage", nil} {
		input := richStreamInput()
		input["id"] = id
		_, ok := m.Stream(input)
		assert.False(t, ok, "id %v must reject the whole record", id)
	}
}

func TestStreamMalformedAmountDegradesNotDrops(t *testing.T) {
	m := New(nil, nil)

	input := richStreamInput()
	input["deposit"] = "definitely not a number"

	s, ok := m.Stream(input)
	require.True(t, ok, "one malformed field degrades, the record survives")
	assert.Equal(t, "0", s.Deposit.String())
}

func TestSubscriptionBothPaths(t *testing.T) {
	m := New(nil, nil)

	rich := map[string]any{
		"id":                  float64(3),
		"subscriber":          senderAddr,
		"receiver":            recipientAddr,
		"token_contract":      tokenAddr,
		"amount_per_interval": "10000000",
		"interval_seconds":    float64(2592000),
		"next_payment_time":   float64(1700000000),
		"active":              true,
		"balance":             map[string]any{"hi": int64(0), "lo": uint64(30000000)},
	}

	raw := scval.MapVal(
		scval.Entry("id", scval.U32Val(3)),
		scval.Entry("subscriber", scval.AddressVal(senderAddr)),
		scval.Entry("receiver", scval.AddressVal(recipientAddr)),
		scval.Entry("token_contract", scval.AddressVal(tokenAddr)),
		scval.Entry("amount_per_interval", scval.I128Val(big.NewInt(10000000))),
		scval.Entry("interval_seconds", scval.U64Val(2592000)),
		scval.Entry("next_payment_time", scval.U64Val(1700000000)),
		scval.Entry("active", scval.BoolVal(true)),
		scval.Entry("balance", scval.I128Val(big.NewInt(30000000))),
	)

	fromRich, ok := m.Subscription(rich)
	require.True(t, ok)
	fromRaw, ok := m.Subscription(raw)
	require.True(t, ok)

	// Both paths must converge on the same record.
	assert.Equal(t, fromRich.ID, fromRaw.ID)
	assert.Equal(t, fromRich.Subscriber, fromRaw.Subscriber)
	assert.Equal(t, fromRich.AmountPerInterval.String(), fromRaw.AmountPerInterval.String())
	assert.Equal(t, fromRich.IntervalSeconds, fromRaw.IntervalSeconds)
	assert.Equal(t, fromRich.NextPaymentTime, fromRaw.NextPaymentTime)
	assert.Equal(t, fromRich.Balance.String(), fromRaw.Balance.String())
}

func TestSubscriptionInvalidID(t *testing.T) {
	m := New(nil, nil)

	_, ok := m.Subscription(map[string]any{"id": math.Inf(-1), "subscriber": senderAddr})
	assert.False(t, ok)
}
