// Package clients talks to the streamer contract through a Soroban JSON-RPC
// gateway. The RPC layer is a thin JSON-RPC 2.0 codec; the contract client
// on top of it builds call arguments, decodes tagged-value results, and maps
// them into domain records.
package clients

import (
	"context"

	"github.com/sam-thetutor/streamr/scval"
	"github.com/sam-thetutor/streamr/types"
)

// RPC is the gateway surface the contract client and the reconciliation
// loop need: simulate a contract invocation, submit a signed envelope, and
// poll for inclusion.
type RPC interface {
	SimulateCall(ctx context.Context, method string, args []scval.Val) (*types.Simulation, error)
	SubmitTransaction(ctx context.Context, envelopeXDR string) (string, error)
	GetTransaction(ctx context.Context, hash string) (*types.TxResult, error)
	LatestLedger(ctx context.Context) (LedgerInfo, error)

	// Trustline operations go through the same gateway: it knows the
	// account's trustlines and can build the change-trust envelope for the
	// wallet to sign.
	HasTrustline(ctx context.Context, account, asset string) (bool, error)
	ChangeTrustTransaction(ctx context.Context, account, asset string) (*types.Simulation, error)

	Close()
}

// LedgerInfo is the chain-side clock reference: the latest ledger sequence
// and its close time.
type LedgerInfo struct {
	Sequence  uint64
	CloseTime uint64
}

// Signer abstracts the connected wallet. SignAndSend is the wallet's own
// sign-and-submit path and is always tried first; the entry-level methods
// back the manual fallback. A wallet without per-entry authorization signing
// returns an AUTH_SIGNING_UNSUPPORTED error from SignAuthEntry and the
// fallback proceeds without it.
type Signer interface {
	Address() string
	SignAndSend(ctx context.Context, sim *types.Simulation) (*types.MutationResult, error)
	SignAuthEntry(ctx context.Context, entryXDR string) (string, error)
	SignTransaction(ctx context.Context, envelopeXDR string) (string, error)
}

// ContractClient is the read surface of the streamer contract plus the
// simulation entry point mutations go through.
type ContractClient interface {
	GetStream(ctx context.Context, id uint64) (*types.Stream, error)
	GetSubscription(ctx context.Context, id uint64) (*types.Subscription, error)
	GetUserStreams(ctx context.Context, address string, role types.Role) ([]*types.Stream, error)
	GetUserSubscriptions(ctx context.Context, address string, role types.Role) ([]*types.Subscription, error)
	GetUserStreamIDs(ctx context.Context, address string, role types.Role) ([]uint64, error)
	GetUserSubscriptionIDs(ctx context.Context, address string, role types.Role) ([]uint64, error)

	Simulate(ctx context.Context, method string, args []scval.Val) (*types.Simulation, error)
	Submit(ctx context.Context, envelopeXDR string) (string, error)
	Transaction(ctx context.Context, hash string) (*types.TxResult, error)
	LatestLedger(ctx context.Context) (LedgerInfo, error)

	HasTrustline(ctx context.Context, account string) (bool, error)
	EstablishTrustline(ctx context.Context, signer Signer) error

	Close()
}
