package reconcile

import (
	"context"
	"time"

	"github.com/sam-thetutor/streamr/clients"
	"github.com/sam-thetutor/streamr/logger"
	"github.com/sam-thetutor/streamr/metrics"
	"github.com/sam-thetutor/streamr/scval"
	"github.com/sam-thetutor/streamr/types"
)

const (
	defaultPollInterval    = time.Second
	defaultPollAttempts    = 30
	defaultInvalidateDelay = 2 * time.Second
)

// Invalidator is the slice of the query layer the orchestrator needs to
// reconcile the cache after a settled mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, kind types.EntityKind, id uint64)
	InvalidateUser(ctx context.Context, address string)
}

// Mutation describes one contract mutation: the call itself plus the cache
// scope it touches once settled. EntityID zero means the entity does not
// exist yet (a create call).
type Mutation struct {
	Method   string
	Args     []scval.Val
	Kind     types.EntityKind
	EntityID uint64
	Actor    string

	// DepositRetry marks mutations that move tokens into the contract and
	// are therefore worth one retry after establishing a missing trustline.
	DepositRetry bool
}

// Orchestrator executes mutations end to end. Timing knobs exist for tests;
// zero values mean the defaults.
type Orchestrator struct {
	client clients.ContractClient
	signer clients.Signer
	inval  Invalidator
	log    logger.Logger
	rec    metrics.Recorder

	PollInterval    time.Duration
	PollAttempts    int
	InvalidateDelay time.Duration
}

func NewOrchestrator(client clients.ContractClient, signer clients.Signer, inval Invalidator, log logger.Logger, rec metrics.Recorder) *Orchestrator {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Orchestrator{
		client:          client,
		signer:          signer,
		inval:           inval,
		log:             log,
		rec:             rec,
		PollInterval:    defaultPollInterval,
		PollAttempts:    defaultPollAttempts,
		InvalidateDelay: defaultInvalidateDelay,
	}
}

// Execute runs m through the full pipeline. The returned result is always
// non-nil; Success false carries the error code and message. A missing
// trustline on a deposit-style call is remedied once and the call retried
// once.
func (o *Orchestrator) Execute(ctx context.Context, m Mutation) *types.MutationResult {
	res := o.run(ctx, m)
	if !res.Success && m.DepositRetry && o.missingTrustline(ctx, res.Code) {
		if err := o.client.EstablishTrustline(ctx, o.signer); err != nil {
			o.log.Warn("trustline remediation failed", map[string]any{"method": m.Method, "error": err.Error()})
			return res
		}
		o.rec.IncCounter(metrics.CounterTrustlineRemedied, nil)
		o.log.Info("trustline established, retrying mutation", map[string]any{"method": m.Method})
		res = o.run(ctx, m)
	}
	return res
}

// missingTrustline reports whether a failed mutation was blocked by an
// absent trustline. Wallets surface it as a typed code; the gateway only
// reports a generic simulation failure, so that case is resolved by asking
// the gateway for the signer's trustlines directly.
func (o *Orchestrator) missingTrustline(ctx context.Context, code string) bool {
	switch code {
	case types.ErrTrustlineMissing:
		return true
	case types.ErrSimulationFailed:
		has, err := o.client.HasTrustline(ctx, o.signer.Address())
		if err != nil {
			o.log.Debug("trustline check failed", map[string]any{"account": o.signer.Address(), "error": err.Error()})
			return false
		}
		return !has
	}
	return false
}

func (o *Orchestrator) run(ctx context.Context, m Mutation) *types.MutationResult {
	state := StateSimulating

	sim, err := o.client.Simulate(ctx, m.Method, m.Args)
	if err != nil {
		state, _ = Transition(state, EventSimFailed)
		return o.failed(m, "", err)
	}
	state, _ = Transition(state, EventSimulated)

	hash, state, err := o.sign(ctx, state, m, sim)
	if state == StateCancelled {
		o.rec.IncCounter(metrics.CounterMutationCancelled, map[string]string{"operation": m.Method})
		return &types.MutationResult{
			Success: false,
			CallID:  sim.CallID,
			Code:    types.ErrUserRejected,
			Error:   "signing rejected",
		}
	}
	if err != nil {
		return o.failed(m, sim.CallID, err)
	}

	txRes, err := o.poll(ctx, hash)
	if err != nil {
		return o.failed(m, sim.CallID, err)
	}
	if txRes.Status == types.TxStatusFailed {
		Transition(state, EventTxFailed)
		return o.failed(m, sim.CallID, types.FromContractCode(txRes.ErrorCode))
	}

	state, _ = Transition(state, EventConfirmed)
	o.rec.IncCounter(metrics.CounterMutationSettled, map[string]string{"operation": m.Method})
	o.log.Info("mutation settled", map[string]any{"method": m.Method, "hash": hash, "ledger": txRes.Ledger, "state": string(state)})
	o.scheduleInvalidation(m)

	return &types.MutationResult{Success: true, Hash: hash, CallID: sim.CallID}
}

// sign tries the wallet's own sign-and-submit first. A user rejection is
// final. Any other signer failure falls back to a fresh simulation, manual
// signing of each authorization entry, and direct submission.
func (o *Orchestrator) sign(ctx context.Context, state State, m Mutation, sim *types.Simulation) (string, State, error) {
	res, err := o.signer.SignAndSend(ctx, sim)
	if err == nil && res != nil && res.Success {
		state, _ = Transition(state, EventSigned)
		return res.Hash, state, nil
	}
	if types.IsUserRejected(err) {
		state, _ = Transition(state, EventUserRejected)
		return "", state, err
	}

	state, _ = Transition(state, EventSignerErrored)
	if err != nil {
		o.log.Warn("wallet sign-and-send failed, using fallback path", map[string]any{"method": m.Method, "error": err.Error()})
	}

	// The first envelope may have expired while the wallet failed, so the
	// fallback always starts from a fresh simulation.
	fresh, err := o.client.Simulate(ctx, m.Method, m.Args)
	if err != nil {
		state, _ = Transition(state, EventSimFailed)
		return "", state, err
	}

	for _, entry := range fresh.AuthEntries {
		if _, err := o.signer.SignAuthEntry(ctx, entry); err != nil {
			if types.IsUserRejected(err) {
				state, _ = Transition(state, EventUserRejected)
				return "", state, err
			}
			if types.IsAuthSigningUnsupported(err) {
				o.log.Debug("signer lacks auth entry signing, continuing", map[string]any{"method": m.Method})
				continue
			}
			state, _ = Transition(state, EventSignerErrored)
			return "", state, err
		}
	}

	signed, err := o.signer.SignTransaction(ctx, fresh.EnvelopeXDR)
	if err != nil {
		if types.IsUserRejected(err) {
			state, _ = Transition(state, EventUserRejected)
			return "", state, err
		}
		state, _ = Transition(state, EventSignerErrored)
		return "", state, err
	}

	hash, err := o.client.Submit(ctx, signed)
	if err != nil {
		state, _ = Transition(state, EventSubmitFailed)
		return "", state, err
	}
	state, _ = Transition(state, EventSubmitted)
	return hash, state, nil
}

// poll waits for the transaction to reach a terminal status. NOT_FOUND and
// PENDING keep polling; exhausting the attempts is a distinct timeout
// outcome because the mutation may still settle later.
func (o *Orchestrator) poll(ctx context.Context, hash string) (*types.TxResult, error) {
	ticker := time.NewTicker(o.PollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < o.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		res, err := o.client.Transaction(ctx, hash)
		if err != nil {
			o.log.Debug("poll attempt failed", map[string]any{"hash": hash, "error": err.Error()})
			continue
		}
		switch res.Status {
		case types.TxStatusSuccess, types.TxStatusFailed:
			return res, nil
		case types.TxStatusNotFound, types.TxStatusPending:
		}
	}

	o.rec.IncCounter(metrics.CounterConfirmationTimeout, nil)
	return nil, &types.Error{
		Code:    types.ErrConfirmationTimeout,
		Message: "transaction not confirmed in time; it may still settle",
		Data:    hash,
	}
}

// scheduleInvalidation drops the affected cache entries shortly after
// settlement, giving the RPC's view of the ledger a moment to catch up
// before the next read repopulates them.
func (o *Orchestrator) scheduleInvalidation(m Mutation) {
	if o.inval == nil {
		return
	}
	time.AfterFunc(o.InvalidateDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if m.EntityID != 0 {
			o.inval.Invalidate(ctx, m.Kind, m.EntityID)
		}
		if m.Actor != "" {
			o.inval.InvalidateUser(ctx, m.Actor)
		}
	})
}

func (o *Orchestrator) failed(m Mutation, callID string, err error) *types.MutationResult {
	code := types.CodeOf(err)
	if code == "" {
		code = types.ErrSubmissionFailed
	}
	o.rec.IncCounter(metrics.CounterMutationFailed, map[string]string{"operation": m.Method, "kind": code})
	o.log.Warn("mutation failed", map[string]any{"method": m.Method, "code": code, "error": err.Error()})
	return &types.MutationResult{Success: false, CallID: callID, Code: code, Error: err.Error()}
}
