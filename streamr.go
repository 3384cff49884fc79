// Package streamr is a client-side engine for the streamer payment
// contract: it decodes contract state into typed records, projects accruals
// forward in time without touching the chain, and drives mutations through
// simulation, signing, and confirmation.
package streamr

import (
	"context"
	"math/big"

	"github.com/sam-thetutor/streamr/accrual"
	"github.com/sam-thetutor/streamr/cache"
	"github.com/sam-thetutor/streamr/clients"
	"github.com/sam-thetutor/streamr/logger"
	"github.com/sam-thetutor/streamr/metrics"
	"github.com/sam-thetutor/streamr/query"
	"github.com/sam-thetutor/streamr/reconcile"
	"github.com/sam-thetutor/streamr/types"
)

// Streamr is the engine facade. Reads go through the query service and its
// cache; mutations go through the reconciliation orchestrator and require a
// signer.
type Streamr struct {
	cfg    *types.Config
	log    logger.Logger
	rec    metrics.Recorder
	store  cache.Store
	client clients.ContractClient
	signer clients.Signer

	queries *query.Service
	orch    *reconcile.Orchestrator
}

// New builds an engine from cfg. The RPC URL defaults from the network when
// unset. Options override the ambient pieces; a signer is only needed once
// mutations are issued.
func New(cfg *types.Config, opts ...Option) (*Streamr, error) {
	if cfg == nil {
		return nil, types.NewError(types.ErrConfigError, "nil config")
	}
	if cfg.RPCURL == "" {
		cfg.RPCURL = cfg.Network.DefaultRPCURL()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Streamr{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.NoopLogger{}
	}
	if s.rec == nil {
		if cfg.EnableMetrics {
			s.rec = metrics.NewPrometheusRecorder()
		} else {
			s.rec = metrics.NoopRecorder{}
		}
	}
	if s.store == nil {
		if cfg.RedisURL != "" {
			store, err := cache.NewRedis(cfg.RedisURL)
			if err != nil {
				return nil, &types.Error{Code: types.ErrConfigError, Message: "redis cache unavailable", Data: err.Error()}
			}
			s.store = store
		} else {
			s.store = cache.NewMemory()
		}
	}
	if s.client == nil {
		rpc := clients.NewSorobanRPC(cfg.RPCURL, cfg.ContractID, signerAddress(s.signer), cfg.RequestTimeout, s.log)
		s.client = clients.NewContract(rpc, cfg.TokenContract, s.log, s.rec)
	}

	s.queries = query.NewService(s.client, s.store, cfg.RefreshInterval, s.log, s.rec)
	s.orch = reconcile.NewOrchestrator(s.client, s.signer, s.queries, s.log, s.rec)
	return s, nil
}

// Stream returns the snapshot for id, cache-first.
func (s *Streamr) Stream(ctx context.Context, id uint64) (*types.Stream, error) {
	return s.queries.Stream(ctx, id)
}

// StreamProjection returns the snapshot and its accrual view at the current
// reference time.
func (s *Streamr) StreamProjection(ctx context.Context, id uint64) (*types.Stream, accrual.StreamProjection, error) {
	st, err := s.queries.Stream(ctx, id)
	if err != nil {
		return nil, accrual.StreamProjection{}, err
	}
	return st, accrual.ProjectStream(st, s.queries.AsOf(ctx)), nil
}

func (s *Streamr) Subscription(ctx context.Context, id uint64) (*types.Subscription, error) {
	return s.queries.Subscription(ctx, id)
}

func (s *Streamr) SubscriptionProjection(ctx context.Context, id uint64) (*types.Subscription, accrual.SubscriptionProjection, error) {
	sub, err := s.queries.Subscription(ctx, id)
	if err != nil {
		return nil, accrual.SubscriptionProjection{}, err
	}
	return sub, accrual.ProjectSubscription(sub, s.queries.AsOf(ctx)), nil
}

func (s *Streamr) UserStreams(ctx context.Context, address string, role types.Role) ([]*types.Stream, error) {
	return s.queries.UserStreams(ctx, address, role)
}

func (s *Streamr) UserSubscriptions(ctx context.Context, address string, role types.Role) ([]*types.Subscription, error) {
	return s.queries.UserSubscriptions(ctx, address, role)
}

// UserStreamIDs returns the bare id index for address under role, without
// fetching or caching the records.
func (s *Streamr) UserStreamIDs(ctx context.Context, address string, role types.Role) ([]uint64, error) {
	return s.queries.UserStreamIDs(ctx, address, role)
}

func (s *Streamr) UserSubscriptionIDs(ctx context.Context, address string, role types.Role) ([]uint64, error) {
	return s.queries.UserSubscriptionIDs(ctx, address, role)
}

// Watch keeps address's collections refreshed in the background.
func (s *Streamr) Watch(address string)   { s.queries.Watch(address) }
func (s *Streamr) Unwatch(address string) { s.queries.Unwatch(address) }

// AsOf is the reference timestamp projections use.
func (s *Streamr) AsOf(ctx context.Context) uint64 {
	return s.queries.AsOf(ctx)
}

// Queries exposes the query service for embedding layers like the HTTP
// server.
func (s *Streamr) Queries() *query.Service {
	return s.queries
}

// CreateStream opens a new stream. The deposit moves on settlement.
func (s *Streamr) CreateStream(ctx context.Context, p *types.CreateStreamParams) (*types.MutationResult, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	if err := types.ValidateParams(p); err != nil {
		return nil, err
	}
	if len(p.Recipients) != len(p.AmountsPerPeriod) {
		return nil, types.NewError(types.ErrInvalidParameters, "recipients and amounts must pair up")
	}
	if p.Deposit == nil || p.Deposit.Sign() <= 0 {
		return nil, types.NewError(types.ErrInvalidParameters, "deposit must be positive")
	}
	if p.TokenContract == "" {
		p.TokenContract = s.cfg.TokenContract
	}
	return s.execute(ctx, reconcile.Mutation{
		Method:       clients.MethodCreateStream,
		Args:         clients.CreateStreamArgs(p),
		Kind:         types.KindStream,
		Actor:        p.Sender,
		DepositRetry: true,
	}), nil
}

// WithdrawStream pays out recipient's accrued amount on stream id.
func (s *Streamr) WithdrawStream(ctx context.Context, id uint64, recipient string) (*types.MutationResult, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	return s.execute(ctx, reconcile.Mutation{
		Method:   clients.MethodWithdrawStream,
		Args:     clients.WithdrawStreamArgs(id, recipient),
		Kind:     types.KindStream,
		EntityID: id,
		Actor:    recipient,
	}), nil
}

// CancelStream deactivates stream id and refunds the unstreamed remainder
// to the sender.
func (s *Streamr) CancelStream(ctx context.Context, id uint64) (*types.MutationResult, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	return s.execute(ctx, reconcile.Mutation{
		Method:   clients.MethodCancelStream,
		Args:     clients.CancelStreamArgs(id),
		Kind:     types.KindStream,
		EntityID: id,
		Actor:    s.signer.Address(),
	}), nil
}

func (s *Streamr) CreateSubscription(ctx context.Context, p *types.CreateSubscriptionParams) (*types.MutationResult, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	if err := types.ValidateParams(p); err != nil {
		return nil, err
	}
	if p.AmountPerInterval == nil || p.AmountPerInterval.Sign() <= 0 {
		return nil, types.NewError(types.ErrInvalidParameters, "amount per interval must be positive")
	}
	if p.TokenContract == "" {
		p.TokenContract = s.cfg.TokenContract
	}
	return s.execute(ctx, reconcile.Mutation{
		Method: clients.MethodCreateSubscription,
		Args:   clients.CreateSubscriptionArgs(p),
		Kind:   types.KindSubscription,
		Actor:  p.Subscriber,
	}), nil
}

// DepositToSubscription tops up the subscription's escrow balance.
func (s *Streamr) DepositToSubscription(ctx context.Context, id uint64, amount *big.Int) (*types.MutationResult, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, types.NewError(types.ErrInvalidParameters, "deposit amount must be positive")
	}
	return s.execute(ctx, reconcile.Mutation{
		Method:       clients.MethodDepositToSub,
		Args:         clients.DepositToSubscriptionArgs(id, amount),
		Kind:         types.KindSubscription,
		EntityID:     id,
		Actor:        s.signer.Address(),
		DepositRetry: true,
	}), nil
}

// ChargeSubscription settles every due interval of subscription id in one
// call.
func (s *Streamr) ChargeSubscription(ctx context.Context, id uint64) (*types.MutationResult, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	return s.execute(ctx, reconcile.Mutation{
		Method:   clients.MethodChargeSubscription,
		Args:     clients.ChargeSubscriptionArgs(id),
		Kind:     types.KindSubscription,
		EntityID: id,
		Actor:    s.signer.Address(),
	}), nil
}

// CancelSubscription deactivates subscription id and refunds its remaining
// balance to the subscriber.
func (s *Streamr) CancelSubscription(ctx context.Context, id uint64) (*types.MutationResult, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	return s.execute(ctx, reconcile.Mutation{
		Method:   clients.MethodCancelSubscription,
		Args:     clients.CancelSubscriptionArgs(id),
		Kind:     types.KindSubscription,
		EntityID: id,
		Actor:    s.signer.Address(),
	}), nil
}

// Close stops the background refresh loop and releases the cache and RPC
// connections.
func (s *Streamr) Close() {
	s.queries.Close()
	if err := s.store.Close(); err != nil {
		s.log.Warn("cache close failed", map[string]any{"error": err.Error()})
	}
	s.client.Close()
}

func (s *Streamr) execute(ctx context.Context, m reconcile.Mutation) *types.MutationResult {
	return s.orch.Execute(ctx, m)
}

func (s *Streamr) mutable() error {
	if s.signer == nil {
		return types.NewError(types.ErrConfigError, "no signer configured; connect a wallet first")
	}
	return nil
}

func signerAddress(s clients.Signer) string {
	if s == nil {
		return ""
	}
	return s.Address()
}
