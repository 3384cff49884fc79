package query

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-thetutor/streamr/cache"
	"github.com/sam-thetutor/streamr/clients"
	"github.com/sam-thetutor/streamr/scval"
	"github.com/sam-thetutor/streamr/types"
)

const user = "GUSER000000000000000000000000000000000000000000000000AA"

// fakeClient serves canned records and counts fetches.
type fakeClient struct {
	mu          sync.Mutex
	streams     map[uint64]*types.Stream
	streamGets  atomic.Int64
	listGets    atomic.Int64
	listDelay   time.Duration
	listErr     error
	closeTime   uint64
	cancelledMu sync.Mutex
	cancelled   []error
}

var _ clients.ContractClient = (*fakeClient)(nil)

func (f *fakeClient) GetStream(ctx context.Context, id uint64) (*types.Stream, error) {
	f.streamGets.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.streams[id]; ok {
		return s, nil
	}
	return nil, types.NewError(types.ErrNotFound, "stream not found")
}

func (f *fakeClient) GetSubscription(ctx context.Context, id uint64) (*types.Subscription, error) {
	return nil, types.NewError(types.ErrNotFound, "subscription not found")
}

func (f *fakeClient) GetUserStreams(ctx context.Context, address string, role types.Role) ([]*types.Stream, error) {
	f.listGets.Add(1)
	f.mu.Lock()
	delay := f.listDelay
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			f.cancelledMu.Lock()
			f.cancelled = append(f.cancelled, ctx.Err())
			f.cancelledMu.Unlock()
			return nil, ctx.Err()
		}
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*types.Stream, 0, len(f.streams))
	for _, s := range f.streams {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeClient) GetUserSubscriptions(ctx context.Context, address string, role types.Role) ([]*types.Subscription, error) {
	return nil, nil
}

func (f *fakeClient) GetUserStreamIDs(ctx context.Context, address string, role types.Role) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uint64, 0, len(f.streams))
	for id := range f.streams {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeClient) GetUserSubscriptionIDs(ctx context.Context, address string, role types.Role) ([]uint64, error) {
	return nil, nil
}

func (f *fakeClient) Simulate(ctx context.Context, method string, args []scval.Val) (*types.Simulation, error) {
	return nil, nil
}

func (f *fakeClient) Submit(ctx context.Context, envelopeXDR string) (string, error) { return "", nil }

func (f *fakeClient) Transaction(ctx context.Context, hash string) (*types.TxResult, error) {
	return nil, nil
}

func (f *fakeClient) LatestLedger(ctx context.Context) (clients.LedgerInfo, error) {
	return clients.LedgerInfo{Sequence: 1, CloseTime: f.closeTime}, nil
}

func (f *fakeClient) HasTrustline(ctx context.Context, account string) (bool, error) {
	return true, nil
}

func (f *fakeClient) EstablishTrustline(ctx context.Context, signer clients.Signer) error {
	return nil
}

func (f *fakeClient) Close() {}

func testStream(id uint64) *types.Stream {
	return &types.Stream{
		ID:            id,
		Sender:        user,
		Recipients:    []string{user},
		RatePerSecond: map[string]*big.Int{user: big.NewInt(100)},
		Deposit:       big.NewInt(1000000000),
		StartTime:     1700000000,
		IsActive:      true,
		Recipient:     user,
		PrimaryRate:   big.NewInt(100),
	}
}

func newTestService(fc *fakeClient) *Service {
	return NewService(fc, cache.NewMemory(), time.Hour, nil, nil)
}

func TestStreamCacheFirst(t *testing.T) {
	fc := &fakeClient{streams: map[uint64]*types.Stream{7: testStream(7)}}
	s := newTestService(fc)
	defer s.Close()

	ctx := context.Background()
	first, err := s.Stream(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), first.ID)

	second, err := s.Stream(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "1000000000", second.Deposit.String())
	assert.Equal(t, "100", second.Rate(user).String(), "rate maps survive the cache round trip")
	assert.Equal(t, int64(1), fc.streamGets.Load(), "second read served from cache")
}

func TestInvalidateForcesRefetch(t *testing.T) {
	fc := &fakeClient{streams: map[uint64]*types.Stream{7: testStream(7)}}
	s := newTestService(fc)
	defer s.Close()

	ctx := context.Background()
	_, err := s.Stream(ctx, 7)
	require.NoError(t, err)

	s.Invalidate(ctx, types.KindStream, 7)
	_, err = s.Stream(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fc.streamGets.Load())
}

func TestListRefreshWarmsEntityCache(t *testing.T) {
	fc := &fakeClient{streams: map[uint64]*types.Stream{1: testStream(1), 2: testStream(2)}}
	s := newTestService(fc)
	defer s.Close()

	ctx := context.Background()
	list, err := s.UserStreams(ctx, user, types.RoleSender)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.Stream(ctx, 1)
	require.NoError(t, err)
	_, err = s.Stream(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fc.streamGets.Load(), "entities warmed by the list fetch")
}

func TestSupersededFetchIsCancelled(t *testing.T) {
	fc := &fakeClient{
		streams:   map[uint64]*types.Stream{1: testStream(1)},
		listDelay: 200 * time.Millisecond,
	}
	s := newTestService(fc)
	defer s.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.RefreshUserStreams(ctx, user, types.RoleSender)
	}()

	time.Sleep(50 * time.Millisecond)
	fc.mu.Lock()
	fc.listDelay = 0
	fc.mu.Unlock()

	list, err := s.RefreshUserStreams(ctx, user, types.RoleSender)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	wg.Wait()

	fc.cancelledMu.Lock()
	defer fc.cancelledMu.Unlock()
	assert.Len(t, fc.cancelled, 1, "older in-flight fetch for the same key was cancelled")
}

func TestAsOfPrefersLedgerWhenAhead(t *testing.T) {
	ahead := uint64(time.Now().Unix()) + 3600
	fc := &fakeClient{closeTime: ahead}
	s := newTestService(fc)
	defer s.Close()

	assert.Equal(t, ahead, s.AsOf(context.Background()))

	fc.closeTime = 0
	local := uint64(time.Now().Unix())
	got := s.AsOf(context.Background())
	assert.InDelta(t, float64(local), float64(got), 2)
}

func TestBackgroundRefreshWatched(t *testing.T) {
	fc := &fakeClient{streams: map[uint64]*types.Stream{1: testStream(1)}}
	s := NewService(fc, cache.NewMemory(), 20*time.Millisecond, nil, nil)
	defer s.Close()

	s.Watch(user)
	assert.Eventually(t, func() bool {
		return fc.listGets.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}
