package accrual

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-thetutor/streamr/types"
)

func monthly() *types.Subscription {
	return &types.Subscription{
		ID:                3,
		Subscriber:        alice,
		Receiver:          bob,
		AmountPerInterval: big.NewInt(10000000),
		IntervalSeconds:   2592000,
		NextPaymentTime:   1700000000,
		Balance:           big.NewInt(30000000),
		Active:            true,
	}
}

func TestProjectSubscriptionNotYetDue(t *testing.T) {
	sub := monthly()
	p := ProjectSubscription(sub, sub.NextPaymentTime-100)

	assert.False(t, p.IsDue)
	assert.Equal(t, uint64(100), p.TimeUntilNext)
	assert.Equal(t, uint64(0), p.DueIntervals)
	assert.Equal(t, "0", p.ProjectedCharge.String())
	assert.Equal(t, uint64(3), p.CoveredIntervals)
	assert.Equal(t, "30000000", p.Refundable.String())
}

func TestProjectSubscriptionDueExactlyAtBoundary(t *testing.T) {
	sub := monthly()
	p := ProjectSubscription(sub, sub.NextPaymentTime)

	assert.True(t, p.IsDue)
	assert.Equal(t, uint64(0), p.TimeUntilNext)
	assert.Equal(t, uint64(1), p.DueIntervals)
	assert.Equal(t, "10000000", p.ProjectedCharge.String())
}

func TestProjectSubscriptionCatchesUpMissedIntervals(t *testing.T) {
	sub := monthly()
	// Two and a half intervals past due: the due one plus two missed.
	asOf := sub.NextPaymentTime + 2*sub.IntervalSeconds + sub.IntervalSeconds/2
	p := ProjectSubscription(sub, asOf)

	assert.True(t, p.IsDue)
	assert.Equal(t, uint64(3), p.DueIntervals)
	assert.Equal(t, "30000000", p.ProjectedCharge.String())
}

func TestProjectSubscriptionInactive(t *testing.T) {
	sub := monthly()
	sub.Active = false
	p := ProjectSubscription(sub, sub.NextPaymentTime+10)

	assert.False(t, p.IsDue)
	assert.Equal(t, "30000000", p.Refundable.String(), "cancel still refunds the balance")
}

func TestProjectCharge(t *testing.T) {
	sub := monthly()
	out, err := ProjectCharge(sub, sub.NextPaymentTime+10)
	require.NoError(t, err)

	assert.Equal(t, "10000000", out.Charged.String())
	assert.Equal(t, "20000000", out.NewBalance.String())
	assert.Equal(t, uint64(1), out.IntervalsCaught)
	// The schedule stays anchored to the original grid, not to when the
	// charge happened to land.
	assert.Equal(t, sub.NextPaymentTime+sub.IntervalSeconds, out.NewNextPayment)

	assert.Equal(t, "30000000", sub.Balance.String(), "input is untouched")
}

func TestProjectChargeCatchUpAdvancesByWholeIntervals(t *testing.T) {
	sub := monthly()
	asOf := sub.NextPaymentTime + 2*sub.IntervalSeconds + 100
	out, err := ProjectCharge(sub, asOf)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), out.IntervalsCaught)
	assert.Equal(t, "30000000", out.Charged.String())
	assert.Equal(t, "0", out.NewBalance.String())
	assert.Equal(t, sub.NextPaymentTime+3*sub.IntervalSeconds, out.NewNextPayment)
	assert.Greater(t, out.NewNextPayment, asOf)
}

func TestProjectChargeErrors(t *testing.T) {
	sub := monthly()

	_, err := ProjectCharge(sub, sub.NextPaymentTime-1)
	assert.Equal(t, types.ErrNotDue, types.CodeOf(err))

	sub.Balance = big.NewInt(5)
	_, err = ProjectCharge(sub, sub.NextPaymentTime)
	assert.Equal(t, types.ErrInsufficientBalance, types.CodeOf(err))

	sub.Active = false
	_, err = ProjectCharge(sub, sub.NextPaymentTime)
	assert.Equal(t, types.ErrInactive, types.CodeOf(err))

	_, err = ProjectCharge(nil, sub.NextPaymentTime)
	assert.Equal(t, types.ErrNotFound, types.CodeOf(err))
}
