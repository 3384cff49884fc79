package accrual

import (
	"math/big"

	"github.com/sam-thetutor/streamr/types"
)

// SubscriptionProjection is the due/coverage view of a subscription at AsOf.
type SubscriptionProjection struct {
	AsOf uint64

	// IsDue reports whether a charge would succeed in being attempted right
	// now: the subscription is active and AsOf has reached NextPaymentTime.
	IsDue bool

	// TimeUntilNext is seconds until the next payment time, zero once due.
	TimeUntilNext uint64

	// DueIntervals is how many intervals a charge at AsOf would settle. The
	// contract catches up every missed interval in a single charge, so this
	// is 1 plus however many whole intervals have passed since the payment
	// came due.
	DueIntervals uint64

	// ProjectedCharge is DueIntervals times the per-interval amount.
	ProjectedCharge *big.Int

	// CoveredIntervals is how many future intervals the current balance can
	// still pay for.
	CoveredIntervals uint64

	// Refundable is what a cancel would return to the subscriber: the whole
	// remaining balance.
	Refundable *big.Int
}

// ChargeOutcome is the post-state of a successful charge projected at AsOf.
type ChargeOutcome struct {
	Charged         *big.Int
	NewBalance      *big.Int
	NewNextPayment  uint64
	IntervalsCaught uint64
}

// ProjectSubscription computes the due/coverage view of sub at asOf.
func ProjectSubscription(sub *types.Subscription, asOf uint64) SubscriptionProjection {
	p := SubscriptionProjection{
		AsOf:            asOf,
		ProjectedCharge: new(big.Int),
		Refundable:      new(big.Int),
	}
	if sub == nil {
		return p
	}

	balance := nz(sub.Balance)
	amount := nz(sub.AmountPerInterval)

	p.Refundable.Set(balance)
	if amount.Sign() > 0 {
		covered := new(big.Int).Div(balance, amount)
		if covered.Sign() > 0 && covered.IsUint64() {
			p.CoveredIntervals = covered.Uint64()
		}
	}

	if !sub.Active {
		return p
	}

	if asOf < sub.NextPaymentTime {
		p.TimeUntilNext = sub.NextPaymentTime - asOf
		return p
	}

	p.IsDue = true
	p.DueIntervals = dueIntervals(sub, asOf)
	p.ProjectedCharge.Mul(amount, new(big.Int).SetUint64(p.DueIntervals))
	return p
}

// ProjectCharge applies the contract's charge arithmetic to sub at asOf
// without touching the input: every due interval is settled in one charge,
// and the next payment time advances by whole intervals from its previous
// anchor rather than re-anchoring to asOf, so the schedule never drifts.
func ProjectCharge(sub *types.Subscription, asOf uint64) (ChargeOutcome, error) {
	if sub == nil {
		return ChargeOutcome{}, types.NewError(types.ErrNotFound, "no subscription to charge")
	}
	if !sub.Active {
		return ChargeOutcome{}, types.NewError(types.ErrInactive, "subscription is not active")
	}
	if asOf < sub.NextPaymentTime {
		return ChargeOutcome{}, &types.Error{Code: types.ErrNotDue, Message: "payment is not due yet", Data: map[string]any{
			"next_payment_time": sub.NextPaymentTime,
		}}
	}

	balance := nz(sub.Balance)
	due := dueIntervals(sub, asOf)
	charge := new(big.Int).Mul(nz(sub.AmountPerInterval), new(big.Int).SetUint64(due))
	if balance.Cmp(charge) < 0 {
		return ChargeOutcome{}, &types.Error{Code: types.ErrInsufficientBalance, Message: "balance does not cover due intervals", Data: map[string]any{
			"due_intervals": due,
			"required":      charge.String(),
			"balance":       balance.String(),
		}}
	}

	return ChargeOutcome{
		Charged:         charge,
		NewBalance:      new(big.Int).Sub(balance, charge),
		NewNextPayment:  sub.NextPaymentTime + due*sub.IntervalSeconds,
		IntervalsCaught: due,
	}, nil
}

func dueIntervals(sub *types.Subscription, asOf uint64) uint64 {
	if sub.IntervalSeconds == 0 {
		return 1
	}
	return (asOf-sub.NextPaymentTime)/sub.IntervalSeconds + 1
}

func nz(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
