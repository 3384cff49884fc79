// Package reconcile drives a mutation from simulation through signing,
// submission, and confirmation polling, and reconciles the local cache with
// the chain afterwards. The state machine itself is pure; the orchestrator
// owns all I/O and timing.
package reconcile

// State is where a mutation currently stands.
type State string

const (
	StateSimulating State = "simulating"
	StateSigning    State = "signing"
	StateFallback   State = "fallback_signing"
	StatePolling    State = "polling"
	StateSettled    State = "settled"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// Event is what just happened to the mutation.
type Event string

const (
	EventSimulated     Event = "simulated"
	EventSimFailed     Event = "simulation_failed"
	EventSigned        Event = "signed"
	EventUserRejected  Event = "user_rejected"
	EventSignerErrored Event = "signer_errored"
	EventSubmitted     Event = "submitted"
	EventSubmitFailed  Event = "submit_failed"
	EventConfirmed     Event = "confirmed"
	EventTxFailed      Event = "tx_failed"
	EventTimedOut      Event = "timed_out"
)

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateSettled || s == StateFailed || s == StateCancelled
}

// Transition is the pure state machine. It returns the next state and
// whether the event is legal in the current state. A user rejection is a
// cancellation from any signing state and never routes into the fallback.
func Transition(s State, e Event) (State, bool) {
	switch s {
	case StateSimulating:
		switch e {
		case EventSimulated:
			return StateSigning, true
		case EventSimFailed:
			return StateFailed, true
		}
	case StateSigning:
		switch e {
		case EventSigned, EventSubmitted:
			return StatePolling, true
		case EventUserRejected:
			return StateCancelled, true
		case EventSignerErrored:
			return StateFallback, true
		}
	case StateFallback:
		switch e {
		case EventSubmitted:
			return StatePolling, true
		case EventUserRejected:
			return StateCancelled, true
		case EventSimFailed, EventSubmitFailed, EventSignerErrored:
			return StateFailed, true
		}
	case StatePolling:
		switch e {
		case EventConfirmed:
			return StateSettled, true
		case EventTxFailed, EventTimedOut:
			return StateFailed, true
		}
	}
	return s, false
}
