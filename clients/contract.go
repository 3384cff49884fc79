package clients

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/sam-thetutor/streamr/logger"
	"github.com/sam-thetutor/streamr/mapper"
	"github.com/sam-thetutor/streamr/metrics"
	"github.com/sam-thetutor/streamr/scval"
	"github.com/sam-thetutor/streamr/types"
)

// Contract is the streamer contract client: read calls are simulations
// whose decoded results run through the mapper; mutations stop at the
// simulation and hand the envelope to the reconciliation layer.
type Contract struct {
	rpc    RPC
	token  string
	mapper *mapper.Mapper
	log    logger.Logger
}

var _ ContractClient = (*Contract)(nil)

func NewContract(rpc RPC, tokenContract string, log logger.Logger, rec metrics.Recorder) *Contract {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Contract{
		rpc:    rpc,
		token:  tokenContract,
		mapper: mapper.New(log, rec),
		log:    log,
	}
}

func (c *Contract) GetStream(ctx context.Context, id uint64) (*types.Stream, error) {
	val, err := c.readCall(ctx, methodGetStream, []scval.Val{scval.U32Val(uint32(id))})
	if err != nil {
		return nil, err
	}
	s, ok := c.mapper.Stream(val)
	if !ok {
		return nil, types.NewError(types.ErrMappingRejected, "stream response could not be mapped")
	}
	return s, nil
}

func (c *Contract) GetSubscription(ctx context.Context, id uint64) (*types.Subscription, error) {
	val, err := c.readCall(ctx, methodGetSubscription, []scval.Val{scval.U32Val(uint32(id))})
	if err != nil {
		return nil, err
	}
	sub, ok := c.mapper.Subscription(val)
	if !ok {
		return nil, types.NewError(types.ErrMappingRejected, "subscription response could not be mapped")
	}
	return sub, nil
}

// GetUserStreams lists the streams address participates in under role.
// Records the mapper rejects are skipped, not fatal; the rest of the list
// still renders.
func (c *Contract) GetUserStreams(ctx context.Context, address string, role types.Role) ([]*types.Stream, error) {
	method := methodGetSentStreams
	if role == types.RoleRecipient {
		method = methodGetReceivedStreams
	}
	val, err := c.readCall(ctx, method, []scval.Val{scval.AddressVal(address)})
	if err != nil {
		return nil, err
	}

	out := make([]*types.Stream, 0, len(val.Vec))
	for _, item := range val.Vec {
		if s, ok := c.mapper.Stream(item); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *Contract) GetUserSubscriptions(ctx context.Context, address string, role types.Role) ([]*types.Subscription, error) {
	method := methodGetSentSubs
	if role == types.RoleReceiver {
		method = methodGetReceivedSubs
	}
	val, err := c.readCall(ctx, method, []scval.Val{scval.AddressVal(address)})
	if err != nil {
		return nil, err
	}

	out := make([]*types.Subscription, 0, len(val.Vec))
	for _, item := range val.Vec {
		if sub, ok := c.mapper.Subscription(item); ok {
			out = append(out, sub)
		}
	}
	return out, nil
}

// GetUserStreamIDs returns just the stream ids address participates in
// under role. Cheaper than the full-record calls when the caller only needs
// counts or wants to expand lazily.
func (c *Contract) GetUserStreamIDs(ctx context.Context, address string, role types.Role) ([]uint64, error) {
	method := methodGetSentStreamIDs
	if role == types.RoleRecipient {
		method = methodGetRcvdStreamIDs
	}
	val, err := c.readCall(ctx, method, []scval.Val{scval.AddressVal(address)})
	if err != nil {
		return nil, err
	}
	return scval.DecodeUint64Vec(val), nil
}

func (c *Contract) GetUserSubscriptionIDs(ctx context.Context, address string, role types.Role) ([]uint64, error) {
	method := methodGetSubIDs
	if role == types.RoleReceiver {
		method = methodGetRcvdSubIDs
	}
	val, err := c.readCall(ctx, method, []scval.Val{scval.AddressVal(address)})
	if err != nil {
		return nil, err
	}
	return scval.DecodeUint64Vec(val), nil
}

// ExpandStreams resolves an id list into records, one read call per id.
// Ids the contract no longer knows are skipped.
func (c *Contract) ExpandStreams(ctx context.Context, ids []uint64) ([]*types.Stream, error) {
	out := make([]*types.Stream, 0, len(ids))
	for _, id := range ids {
		s, err := c.GetStream(ctx, id)
		if err != nil {
			if types.CodeOf(err) == types.ErrNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Contract) ExpandSubscriptions(ctx context.Context, ids []uint64) ([]*types.Subscription, error) {
	out := make([]*types.Subscription, 0, len(ids))
	for _, id := range ids {
		sub, err := c.GetSubscription(ctx, id)
		if err != nil {
			if types.CodeOf(err) == types.ErrNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// readCall simulates a read method and decodes its tagged-value result.
func (c *Contract) readCall(ctx context.Context, method string, args []scval.Val) (scval.Val, error) {
	sim, err := c.rpc.SimulateCall(ctx, method, args)
	if err != nil {
		return scval.Val{}, err
	}
	if len(sim.RawResult) == 0 {
		return scval.Val{}, types.NewError(types.ErrNotFound, "empty result for "+method)
	}

	var val scval.Val
	if err := json.Unmarshal(sim.RawResult, &val); err != nil {
		return scval.Val{}, errors.Wrapf(err, "decode %s result", method)
	}
	return val, nil
}

func (c *Contract) Simulate(ctx context.Context, method string, args []scval.Val) (*types.Simulation, error) {
	return c.rpc.SimulateCall(ctx, method, args)
}

func (c *Contract) Submit(ctx context.Context, envelopeXDR string) (string, error) {
	return c.rpc.SubmitTransaction(ctx, envelopeXDR)
}

func (c *Contract) Transaction(ctx context.Context, hash string) (*types.TxResult, error) {
	return c.rpc.GetTransaction(ctx, hash)
}

func (c *Contract) LatestLedger(ctx context.Context) (LedgerInfo, error) {
	return c.rpc.LatestLedger(ctx)
}

func (c *Contract) HasTrustline(ctx context.Context, account string) (bool, error) {
	return c.rpc.HasTrustline(ctx, account, c.token)
}

// EstablishTrustline builds, signs, and submits a change-trust transaction
// for the signer's account.
func (c *Contract) EstablishTrustline(ctx context.Context, signer Signer) error {
	sim, err := c.rpc.ChangeTrustTransaction(ctx, signer.Address(), c.token)
	if err != nil {
		return err
	}
	res, err := signer.SignAndSend(ctx, sim)
	if err != nil {
		return err
	}
	if !res.Success {
		return &types.Error{Code: types.ErrSubmissionFailed, Message: "change trust failed", Data: res.Error}
	}
	c.log.Info("trustline established", map[string]any{"account": signer.Address(), "asset": c.token})
	return nil
}

func (c *Contract) Close() {
	c.rpc.Close()
}
