// Package query serves entity snapshots: cache-first reads, forced
// refreshes, per-key supersession of in-flight fetches, and a background
// loop that keeps watched users' collections warm.
package query

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sam-thetutor/streamr/cache"
	"github.com/sam-thetutor/streamr/clients"
	"github.com/sam-thetutor/streamr/logger"
	"github.com/sam-thetutor/streamr/metrics"
	"github.com/sam-thetutor/streamr/types"
)

const defaultRefreshInterval = 10 * time.Second

type Service struct {
	client   clients.ContractClient
	store    cache.Store
	log      logger.Logger
	rec      metrics.Recorder
	interval time.Duration

	// inflight tracks the newest fetch per key. A newer fetch for the same
	// key cancels the older one; results of a superseded fetch are
	// discarded by its own context.
	mu       sync.Mutex
	inflight map[string]*flight

	watchMu sync.Mutex
	watched map[string]struct{}

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewService(client clients.ContractClient, store cache.Store, interval time.Duration, log logger.Logger, rec metrics.Recorder) *Service {
	if store == nil {
		store = cache.NewMemory()
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	s := &Service{
		client:   client,
		store:    store,
		log:      log,
		rec:      rec,
		interval: interval,
		inflight: map[string]*flight{},
		watched:  map[string]struct{}{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.refreshLoop()
	return s
}

// Stream returns the cached snapshot when present, fetching otherwise.
func (s *Service) Stream(ctx context.Context, id uint64) (*types.Stream, error) {
	key := cache.EntityKey(types.KindStream, id)
	if raw, ok, err := s.store.Get(ctx, key); err == nil && ok {
		var cached types.Stream
		if json.Unmarshal(raw, &cached) == nil {
			return &cached, nil
		}
	}
	return s.RefreshStream(ctx, id)
}

// RefreshStream bypasses the cache and stores the fresh snapshot.
func (s *Service) RefreshStream(ctx context.Context, id uint64) (*types.Stream, error) {
	key := cache.EntityKey(types.KindStream, id)
	ctx, done := s.supersede(ctx, key)
	defer done()

	stream, err := s.client.GetStream(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, key, stream)
	return stream, nil
}

func (s *Service) Subscription(ctx context.Context, id uint64) (*types.Subscription, error) {
	key := cache.EntityKey(types.KindSubscription, id)
	if raw, ok, err := s.store.Get(ctx, key); err == nil && ok {
		var cached types.Subscription
		if json.Unmarshal(raw, &cached) == nil {
			return &cached, nil
		}
	}
	return s.RefreshSubscription(ctx, id)
}

func (s *Service) RefreshSubscription(ctx context.Context, id uint64) (*types.Subscription, error) {
	key := cache.EntityKey(types.KindSubscription, id)
	ctx, done := s.supersede(ctx, key)
	defer done()

	sub, err := s.client.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, key, sub)
	return sub, nil
}

// UserStreams returns the user's streams for role, cache-first.
func (s *Service) UserStreams(ctx context.Context, address string, role types.Role) ([]*types.Stream, error) {
	key := cache.ListKey(types.KindStream, address, role)
	if raw, ok, err := s.store.Get(ctx, key); err == nil && ok {
		var cached []*types.Stream
		if json.Unmarshal(raw, &cached) == nil {
			return cached, nil
		}
	}
	return s.RefreshUserStreams(ctx, address, role)
}

func (s *Service) RefreshUserStreams(ctx context.Context, address string, role types.Role) ([]*types.Stream, error) {
	key := cache.ListKey(types.KindStream, address, role)
	ctx, done := s.supersede(ctx, key)
	defer done()

	streams, err := s.client.GetUserStreams(ctx, address, role)
	if err != nil {
		return nil, err
	}
	s.put(ctx, key, streams)
	for _, st := range streams {
		s.put(ctx, cache.EntityKey(types.KindStream, st.ID), st)
	}
	return streams, nil
}

func (s *Service) UserSubscriptions(ctx context.Context, address string, role types.Role) ([]*types.Subscription, error) {
	key := cache.ListKey(types.KindSubscription, address, role)
	if raw, ok, err := s.store.Get(ctx, key); err == nil && ok {
		var cached []*types.Subscription
		if json.Unmarshal(raw, &cached) == nil {
			return cached, nil
		}
	}
	return s.RefreshUserSubscriptions(ctx, address, role)
}

func (s *Service) RefreshUserSubscriptions(ctx context.Context, address string, role types.Role) ([]*types.Subscription, error) {
	key := cache.ListKey(types.KindSubscription, address, role)
	ctx, done := s.supersede(ctx, key)
	defer done()

	subs, err := s.client.GetUserSubscriptions(ctx, address, role)
	if err != nil {
		return nil, err
	}
	s.put(ctx, key, subs)
	for _, sub := range subs {
		s.put(ctx, cache.EntityKey(types.KindSubscription, sub.ID), sub)
	}
	return subs, nil
}

// UserStreamIDs returns just the id index for address under role. Ids are
// cheap on the contract side and change on every create/cancel, so they are
// never cached.
func (s *Service) UserStreamIDs(ctx context.Context, address string, role types.Role) ([]uint64, error) {
	return s.client.GetUserStreamIDs(ctx, address, role)
}

func (s *Service) UserSubscriptionIDs(ctx context.Context, address string, role types.Role) ([]uint64, error) {
	return s.client.GetUserSubscriptionIDs(ctx, address, role)
}

// Invalidate drops one entity snapshot.
func (s *Service) Invalidate(ctx context.Context, kind types.EntityKind, id uint64) {
	if err := s.store.Delete(ctx, cache.EntityKey(kind, id)); err != nil {
		s.log.Warn("cache invalidation failed", map[string]any{"kind": string(kind), "id": id, "error": err.Error()})
	}
}

// InvalidateUser drops the user's collection snapshots for every role.
func (s *Service) InvalidateUser(ctx context.Context, address string) {
	for _, role := range []types.Role{types.RoleSender, types.RoleRecipient, types.RoleSubscriber, types.RoleReceiver} {
		kind := types.KindStream
		if role == types.RoleSubscriber || role == types.RoleReceiver {
			kind = types.KindSubscription
		}
		if err := s.store.Delete(ctx, cache.ListKey(kind, address, role)); err != nil {
			s.log.Warn("cache invalidation failed", map[string]any{"address": address, "role": string(role), "error": err.Error()})
		}
	}
}

// Watch adds address to the background refresh set. Unwatch removes it.
func (s *Service) Watch(address string) {
	s.watchMu.Lock()
	s.watched[address] = struct{}{}
	s.watchMu.Unlock()
}

func (s *Service) Unwatch(address string) {
	s.watchMu.Lock()
	delete(s.watched, address)
	s.watchMu.Unlock()
}

// AsOf returns the timestamp projections should be computed at: the local
// clock, unless the chain's latest close time is ahead of it, in which case
// the chain wins and the skew is counted.
func (s *Service) AsOf(ctx context.Context) uint64 {
	local := uint64(time.Now().Unix())
	info, err := s.client.LatestLedger(ctx)
	if err != nil || info.CloseTime == 0 {
		return local
	}
	if info.CloseTime > local {
		s.rec.IncCounter(metrics.CounterClockSkew, nil)
		s.log.Debug("local clock behind ledger close time", map[string]any{
			"local": local, "ledger": info.CloseTime,
		})
		return info.CloseTime
	}
	return local
}

func (s *Service) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Service) refreshLoop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.refreshWatched()
		}
	}
}

func (s *Service) refreshWatched() {
	s.watchMu.Lock()
	addrs := make([]string, 0, len(s.watched))
	for a := range s.watched {
		addrs = append(addrs, a)
	}
	s.watchMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	for _, addr := range addrs {
		for _, role := range []types.Role{types.RoleSender, types.RoleRecipient} {
			if _, err := s.RefreshUserStreams(ctx, addr, role); err != nil {
				s.log.Debug("background stream refresh failed", map[string]any{"address": addr, "error": err.Error()})
			}
		}
		for _, role := range []types.Role{types.RoleSubscriber, types.RoleReceiver} {
			if _, err := s.RefreshUserSubscriptions(ctx, addr, role); err != nil {
				s.log.Debug("background subscription refresh failed", map[string]any{"address": addr, "error": err.Error()})
			}
		}
	}
}

type flight struct {
	cancel context.CancelFunc
}

// supersede registers a fetch for key, cancelling any older fetch still in
// flight for the same key. The returned context dies when a newer fetch
// arrives; the returned func must be deferred.
func (s *Service) supersede(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	f := &flight{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.inflight[key]; ok {
		prev.cancel()
	}
	s.inflight[key] = f
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.inflight[key] == f {
			delete(s.inflight, key)
		}
		s.mu.Unlock()
		cancel()
	}
}

// put stores a snapshot unless the writing fetch was superseded meanwhile.
func (s *Service) put(ctx context.Context, key string, v any) {
	if ctx.Err() != nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("snapshot marshal failed", map[string]any{"key": key, "error": err.Error()})
		return
	}
	if err := s.store.Set(context.WithoutCancel(ctx), key, raw); err != nil {
		s.log.Warn("snapshot store failed", map[string]any{"key": key, "error": err.Error()})
	}
}
