package streamr

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-thetutor/streamr/clients"
	"github.com/sam-thetutor/streamr/scval"
	"github.com/sam-thetutor/streamr/types"
)

const testAddr = "GTEST000000000000000000000000000000000000000000000000AA"

type stubClient struct {
	stream *types.Stream
}

var _ clients.ContractClient = (*stubClient)(nil)

func (c *stubClient) GetStream(ctx context.Context, id uint64) (*types.Stream, error) {
	if c.stream != nil && c.stream.ID == id {
		return c.stream, nil
	}
	return nil, types.NewError(types.ErrNotFound, "stream not found")
}

func (c *stubClient) GetSubscription(context.Context, uint64) (*types.Subscription, error) {
	return nil, types.NewError(types.ErrNotFound, "subscription not found")
}

func (c *stubClient) GetUserStreams(context.Context, string, types.Role) ([]*types.Stream, error) {
	if c.stream == nil {
		return nil, nil
	}
	return []*types.Stream{c.stream}, nil
}

func (c *stubClient) GetUserSubscriptions(context.Context, string, types.Role) ([]*types.Subscription, error) {
	return nil, nil
}

func (c *stubClient) GetUserStreamIDs(context.Context, string, types.Role) ([]uint64, error) {
	if c.stream == nil {
		return nil, nil
	}
	return []uint64{c.stream.ID}, nil
}

func (c *stubClient) GetUserSubscriptionIDs(context.Context, string, types.Role) ([]uint64, error) {
	return nil, nil
}

func (c *stubClient) Simulate(context.Context, string, []scval.Val) (*types.Simulation, error) {
	return &types.Simulation{CallID: "call", EnvelopeXDR: "env", CreatedAt: time.Now()}, nil
}

func (c *stubClient) Submit(context.Context, string) (string, error) { return "hash", nil }

func (c *stubClient) Transaction(context.Context, string) (*types.TxResult, error) {
	return &types.TxResult{Status: types.TxStatusSuccess}, nil
}

func (c *stubClient) LatestLedger(context.Context) (clients.LedgerInfo, error) {
	return clients.LedgerInfo{Sequence: 1}, nil
}

func (c *stubClient) HasTrustline(context.Context, string) (bool, error) { return true, nil }
func (c *stubClient) EstablishTrustline(context.Context, clients.Signer) error {
	return nil
}
func (c *stubClient) Close() {}

func testConfig() *types.Config {
	return &types.Config{
		Network:    types.NetworkTestnet,
		RPCURL:     "http://localhost:8000/rpc",
		ContractID: "CCONTRACT",
	}
}

func TestNewAndQuery(t *testing.T) {
	stub := &stubClient{stream: &types.Stream{
		ID:            5,
		Sender:        testAddr,
		Recipients:    []string{testAddr},
		RatePerSecond: map[string]*big.Int{testAddr: big.NewInt(10)},
		Deposit:       big.NewInt(1000),
		StartTime:     uint64(time.Now().Unix()) - 50,
		IsActive:      true,
	}}

	s, err := New(testConfig(), WithClient(stub))
	require.NoError(t, err)
	defer s.Close()

	st, err := s.Stream(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), st.ID)

	_, proj, err := s.StreamProjection(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, proj.TotalStreamed.Sign(), "accrual has started")
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(&types.Config{})
	require.Error(t, err)
	assert.Equal(t, types.ErrConfigError, types.CodeOf(err))

	_, err = New(nil)
	assert.Equal(t, types.ErrConfigError, types.CodeOf(err))
}

func TestMutationsRequireSigner(t *testing.T) {
	s, err := New(testConfig(), WithClient(&stubClient{}))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.WithdrawStream(context.Background(), 1, testAddr)
	assert.Equal(t, types.ErrConfigError, types.CodeOf(err))
}

type stubSigner struct{}

func (stubSigner) Address() string { return testAddr }
func (stubSigner) SignAndSend(ctx context.Context, sim *types.Simulation) (*types.MutationResult, error) {
	return &types.MutationResult{Success: true, Hash: "hash"}, nil
}
func (stubSigner) SignAuthEntry(ctx context.Context, entryXDR string) (string, error) {
	return entryXDR, nil
}
func (stubSigner) SignTransaction(ctx context.Context, envelopeXDR string) (string, error) {
	return envelopeXDR, nil
}

func TestCreateStreamValidation(t *testing.T) {
	s, err := New(testConfig(), WithClient(&stubClient{}), WithSigner(stubSigner{}))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CreateStream(context.Background(), &types.CreateStreamParams{})
	assert.Equal(t, types.ErrInvalidParameters, types.CodeOf(err))

	_, err = s.CreateStream(context.Background(), &types.CreateStreamParams{
		Sender:           testAddr,
		Recipients:       []string{testAddr, "GOTHER"},
		TokenContract:    "CTOKEN",
		AmountsPerPeriod: []*big.Int{big.NewInt(1)},
		PeriodSeconds:    60,
		Deposit:          big.NewInt(100),
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidParameters, types.CodeOf(err))
}
