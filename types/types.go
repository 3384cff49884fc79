// Package types holds the domain records projected from the streamer
// contract, the engine configuration, and the shared error taxonomy.
//
// Every Stream and Subscription value is a point-in-time snapshot of
// contract state. The client never owns authoritative state; records are
// stale the instant they are received and only the accrual package may
// extrapolate from them.
package types

import (
	"math/big"
	"time"
)

// EntityKind discriminates cached/queried collections.
type EntityKind string

const (
	KindStream       EntityKind = "stream"
	KindSubscription EntityKind = "subscription"
)

// Role narrows a user's relationship to an entity collection.
type Role string

const (
	RoleSender     Role = "sender"
	RoleRecipient  Role = "recipient"
	RoleSubscriber Role = "subscriber"
	RoleReceiver   Role = "receiver"
)

// Stream is a multi-recipient, continuously-accruing escrow. Per-recipient
// maps are keyed by account address; a missing last-withdraw entry defaults
// to StartTime and a missing total-withdrawn entry defaults to zero, matching
// the defaults the contract reads with.
type Stream struct {
	ID            uint64   `json:"id"`
	Sender        string   `json:"sender"`
	Recipients    []string `json:"recipients"`
	TokenContract string   `json:"tokenContract"`

	RatePerSecond  map[string]*big.Int `json:"ratePerSecond"`
	LastWithdraw   map[string]uint64   `json:"lastWithdraw"`
	TotalWithdrawn map[string]*big.Int `json:"totalWithdrawn"`

	Deposit   *big.Int `json:"deposit"`
	StartTime uint64   `json:"startTime"`
	IsActive  bool     `json:"isActive"`

	// Title and Description are absent when empty, never empty strings.
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Convenience shape for single-recipient display: the primary recipient
	// (index 0) and its rate, mirrored out of the per-recipient maps.
	Recipient   string   `json:"recipient"`
	PrimaryRate *big.Int `json:"primaryRate,omitempty"`
}

// Rate returns the per-second rate for a recipient, zero if unknown.
func (s *Stream) Rate(recipient string) *big.Int {
	if r, ok := s.RatePerSecond[recipient]; ok && r != nil {
		return r
	}
	return new(big.Int)
}

// LastWithdrawTime returns the recipient's checkpoint, defaulting to the
// stream start.
func (s *Stream) LastWithdrawTime(recipient string) uint64 {
	if t, ok := s.LastWithdraw[recipient]; ok {
		return t
	}
	return s.StartTime
}

// Withdrawn returns the recipient's lifetime withdrawn total, zero if
// unknown.
func (s *Stream) Withdrawn(recipient string) *big.Int {
	if w, ok := s.TotalWithdrawn[recipient]; ok && w != nil {
		return w
	}
	return new(big.Int)
}

// TotalOutflowRate is the sum of all per-recipient rates, the rate at which
// the shared deposit is consumed.
func (s *Stream) TotalOutflowRate() *big.Int {
	total := new(big.Int)
	for _, r := range s.Recipients {
		total.Add(total, s.Rate(r))
	}
	return total
}

// Subscription is a single-receiver, interval-gated pull payment against an
// escrow balance isolated to this subscription.
type Subscription struct {
	ID            uint64 `json:"id"`
	Subscriber    string `json:"subscriber"`
	Receiver      string `json:"receiver"`
	TokenContract string `json:"tokenContract"`

	AmountPerInterval *big.Int `json:"amountPerInterval"`
	IntervalSeconds   uint64   `json:"intervalSeconds"`
	NextPaymentTime   uint64   `json:"nextPaymentTime"`
	Balance           *big.Int `json:"balance"`
	Active            bool     `json:"active"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// MutationResult reports the outcome of a mutating contract call.
type MutationResult struct {
	Success bool   `json:"success"`
	Hash    string `json:"hash,omitempty"`
	CallID  string `json:"callId"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// CreateStreamParams carries the arguments for a create_stream call.
// Amounts are atomic units; the per-recipient rate is derived on-chain as
// amount_per_period / period_seconds.
type CreateStreamParams struct {
	Sender           string     `json:"sender" validate:"required"`
	Recipients       []string   `json:"recipients" validate:"required,min=1,unique"`
	TokenContract    string     `json:"tokenContract" validate:"required"`
	AmountsPerPeriod []*big.Int `json:"amountsPerPeriod" validate:"required,min=1"`
	PeriodSeconds    uint64     `json:"periodSeconds" validate:"required,gt=0"`
	Deposit          *big.Int   `json:"deposit" validate:"required"`
	Title            string     `json:"title,omitempty" validate:"max=120"`
	Description      string     `json:"description,omitempty" validate:"max=1024"`
}

// CreateSubscriptionParams carries the arguments for a create_subscription
// call. FirstPaymentTime is an absolute ledger timestamp.
type CreateSubscriptionParams struct {
	Subscriber        string   `json:"subscriber" validate:"required"`
	Receiver          string   `json:"receiver" validate:"required"`
	TokenContract     string   `json:"tokenContract" validate:"required"`
	AmountPerInterval *big.Int `json:"amountPerInterval" validate:"required"`
	IntervalSeconds   uint64   `json:"intervalSeconds" validate:"required,gt=0"`
	FirstPaymentTime  uint64   `json:"firstPaymentTime" validate:"required"`
	Title             string   `json:"title,omitempty" validate:"max=120"`
	Description       string   `json:"description,omitempty" validate:"max=1024"`
}

// TxStatus is the inclusion status of a submitted transaction. NotFound is a
// retriable condition distinct from failure.
type TxStatus string

const (
	TxStatusSuccess  TxStatus = "SUCCESS"
	TxStatusFailed   TxStatus = "FAILED"
	TxStatusNotFound TxStatus = "NOT_FOUND"
	TxStatusPending  TxStatus = "PENDING"
)

// TxResult is what polling for inclusion returns.
type TxResult struct {
	Status    TxStatus `json:"status"`
	Hash      string   `json:"hash"`
	Ledger    uint64   `json:"ledger,omitempty"`
	ResultXDR string   `json:"resultXdr,omitempty"`
	// ErrorCode carries the contract failure code when Status is FAILED.
	ErrorCode int64  `json:"errorCode,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Simulation is the output of a simulated contract call: the transaction
// envelope to sign, the authorization entries that may need individual
// signatures, and the decoded return value when the call is a query.
type Simulation struct {
	CallID       string    `json:"callId"`
	Method       string    `json:"method"`
	EnvelopeXDR  string    `json:"envelopeXdr"`
	AuthEntries  []string  `json:"authEntries,omitempty"`
	MinFee       int64     `json:"minFee,omitempty"`
	LatestLedger uint64    `json:"latestLedger,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Result       any       `json:"-"`
	RawResult    []byte    `json:"-"`
	Diagnostics  []string  `json:"diagnostics,omitempty"`
}
