// Package accrual computes client-side projections of stream and
// subscription state at an arbitrary point in time. Everything here is a
// pure function of the record and the asOf timestamp: no clocks, no I/O, no
// mutation of the input. All amount arithmetic is big.Int; progress is
// carried in basis points so no float ever touches an amount.
package accrual

import (
	"math/big"

	"github.com/sam-thetutor/streamr/types"
)

// ProgressScale is the denominator of ProgressBps: 10000 basis points is a
// fully exhausted deposit.
const ProgressScale = 10000

// RecipientProjection is the accrual view of one recipient of a stream.
type RecipientProjection struct {
	Address        string
	Rate           *big.Int
	LastWithdraw   uint64
	TotalWithdrawn *big.Int
	// Accrued is elapsed*rate since the recipient's last withdrawal,
	// uncapped. Withdrawable is Accrued capped by what the deposit still
	// covers, which is what a withdraw call would actually pay out.
	Accrued      *big.Int
	Withdrawable *big.Int
}

// StreamProjection is the full accrual view of a stream at AsOf.
type StreamProjection struct {
	AsOf       uint64
	Recipients []RecipientProjection

	// TotalStreamed is the aggregate amount the deposit has released to all
	// recipients combined, capped at the deposit.
	TotalStreamed    *big.Int
	RemainingDeposit *big.Int

	// ProgressBps is TotalStreamed/Deposit in basis points, 0..10000.
	ProgressBps int64

	// EstimatedCompletion is the timestamp at which the deposit runs out at
	// the current aggregate rate. HasCompletion is false when the aggregate
	// rate is zero, in which case the stream never completes on its own.
	EstimatedCompletion uint64
	HasCompletion       bool

	// Refundable is what a cancel would return to the sender right now.
	Refundable *big.Int
}

// ProjectStream computes the accrual view of s at asOf. An inactive stream
// projects zero accrual and zero refund; its withdrawn totals remain
// whatever the contract settled them to. asOf earlier than any anchor
// timestamp clamps elapsed time to zero rather than accruing negatively.
func ProjectStream(s *types.Stream, asOf uint64) StreamProjection {
	p := StreamProjection{
		AsOf:             asOf,
		TotalStreamed:    new(big.Int),
		RemainingDeposit: new(big.Int),
		Refundable:       new(big.Int),
	}
	if s == nil {
		return p
	}

	deposit := nz(s.Deposit)
	outflow := s.TotalOutflowRate()
	streamed := new(big.Int).Mul(elapsedBig(s.StartTime, asOf), outflow)
	if streamed.Cmp(deposit) > 0 {
		streamed.Set(deposit)
	}
	remaining := new(big.Int).Sub(deposit, streamed)

	p.Recipients = make([]RecipientProjection, 0, len(s.Recipients))
	for _, addr := range s.Recipients {
		rp := RecipientProjection{
			Address:        addr,
			Rate:           s.Rate(addr),
			LastWithdraw:   s.LastWithdrawTime(addr),
			TotalWithdrawn: s.Withdrawn(addr),
			Accrued:        new(big.Int),
			Withdrawable:   new(big.Int),
		}
		if s.IsActive {
			rp.Accrued.Mul(elapsedBig(rp.LastWithdraw, asOf), rp.Rate)
			rp.Withdrawable.Set(rp.Accrued)
			if rp.Withdrawable.Cmp(remaining) > 0 {
				rp.Withdrawable.Set(remaining)
			}
		}
		p.Recipients = append(p.Recipients, rp)
	}

	if !s.IsActive {
		return p
	}

	p.TotalStreamed = streamed
	p.RemainingDeposit = remaining
	p.Refundable = new(big.Int).Set(remaining)
	p.ProgressBps = progressBps(streamed, deposit)

	if outflow.Sign() > 0 {
		lifetime := new(big.Int).Div(deposit, outflow)
		if lifetime.IsUint64() {
			end := s.StartTime + lifetime.Uint64()
			if end >= s.StartTime {
				p.EstimatedCompletion = end
				p.HasCompletion = true
			}
		}
	}
	return p
}

// Withdrawable returns what a withdraw call by recipient would pay out at
// asOf, the single number the dashboard's withdraw button gates on.
func Withdrawable(s *types.Stream, recipient string, asOf uint64) *big.Int {
	p := ProjectStream(s, asOf)
	for _, rp := range p.Recipients {
		if rp.Address == recipient {
			return rp.Withdrawable
		}
	}
	return new(big.Int)
}

// progressBps computes part/whole in basis points on integers, capped at
// ProgressScale. A zero or negative whole reports zero progress.
func progressBps(part, whole *big.Int) int64 {
	if whole == nil || whole.Sign() <= 0 || part == nil || part.Sign() <= 0 {
		return 0
	}
	bps := new(big.Int).Mul(part, big.NewInt(ProgressScale))
	bps.Div(bps, whole)
	if bps.Cmp(big.NewInt(ProgressScale)) > 0 {
		return ProgressScale
	}
	return bps.Int64()
}

// elapsedBig is max(0, asOf-since) as a big.Int. The clamp absorbs client
// clock skew and freshly created records whose start is in the future.
func elapsedBig(since, asOf uint64) *big.Int {
	if asOf <= since {
		return new(big.Int)
	}
	return new(big.Int).SetUint64(asOf - since)
}
