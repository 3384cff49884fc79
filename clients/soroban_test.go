package clients

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-thetutor/streamr/scval"
	"github.com/sam-thetutor/streamr/types"
)

const (
	testContract = "CCONTRACT0000000000000000000000000000000000000000000000"
	testToken    = "CTOKEN000000000000000000000000000000000000000000000000T"
	testSender   = "GSENDER0000000000000000000000000000000000000000000000AA"
)

// fakeGateway dispatches JSON-RPC requests to per-method handlers and
// records what it saw.
type fakeGateway struct {
	t        *testing.T
	handlers map[string]func(params json.RawMessage) (any, *rpcError)
	calls    []string
}

func newFakeGateway(t *testing.T) *fakeGateway {
	return &fakeGateway{t: t, handlers: map[string]func(json.RawMessage) (any, *rpcError){}}
}

func (g *fakeGateway) handle(method string, fn func(params json.RawMessage) (any, *rpcError)) {
	g.handlers[method] = fn
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	require.NoError(g.t, json.NewDecoder(r.Body).Decode(&req))
	assert.Equal(g.t, "2.0", req.JSONRPC)
	g.calls = append(g.calls, req.Method)

	fn, ok := g.handlers[req.Method]
	require.True(g.t, ok, "unexpected rpc method %s", req.Method)

	result, rpcErr := fn(req.Params)
	resp := map[string]any{"jsonrpc": "2.0", "id": 1}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	require.NoError(g.t, json.NewEncoder(w).Encode(resp))
}

func streamResultJSON(t *testing.T, id uint32) json.RawMessage {
	val := scval.MapVal(
		scval.Entry("id", scval.U32Val(id)),
		scval.Entry("sender", scval.AddressVal(testSender)),
		scval.Entry("recipients", scval.VecVal(scval.AddressVal(testSender))),
		scval.Entry("token_contract", scval.AddressVal(testToken)),
		scval.Entry("recipient_rate_per_second", scval.MapVal(
			scval.MapEntry{Key: scval.AddressVal(testSender), Val: scval.I128Val(big.NewInt(100))},
		)),
		scval.Entry("deposit", scval.I128Val(big.NewInt(1000000000))),
		scval.Entry("start_time", scval.U64Val(1700000000)),
		scval.Entry("is_active", scval.BoolVal(true)),
	)
	raw, err := json.Marshal(val)
	require.NoError(t, err)
	return raw
}

func TestContractGetStream(t *testing.T) {
	gw := newFakeGateway(t)
	gw.handle("simulateTransaction", func(params json.RawMessage) (any, *rpcError) {
		var p simulateParams
		require.NoError(t, json.Unmarshal(params, &p))
		assert.Equal(t, testContract, p.ContractID)
		assert.Equal(t, "get_stream", p.Method)
		require.Len(t, p.Args, 1)
		assert.Equal(t, uint32(4), p.Args[0].U32)

		return simulateResult{
			EnvelopeXDR:  "AAAA-envelope",
			LatestLedger: 123456,
			Results:      []json.RawMessage{streamResultJSON(t, 4)},
		}, nil
	})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	rpc := NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil)
	c := NewContract(rpc, testToken, nil, nil)
	defer c.Close()

	s, err := c.GetStream(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), s.ID)
	assert.Equal(t, testSender, s.Sender)
	assert.Equal(t, "1000000000", s.Deposit.String())
	assert.Equal(t, "100", s.Rate(testSender).String())
}

func TestSimulateCallFailure(t *testing.T) {
	gw := newFakeGateway(t)
	gw.handle("simulateTransaction", func(json.RawMessage) (any, *rpcError) {
		return simulateResult{
			Error:       "HostError: contract call failed",
			Diagnostics: []string{"diag-1"},
		}, nil
	})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	rpc := NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil)
	defer rpc.Close()

	_, err := rpc.SimulateCall(context.Background(), MethodChargeSubscription, ChargeSubscriptionArgs(9))
	assert.Equal(t, types.ErrSimulationFailed, types.CodeOf(err))
}

func TestSimulateCallAssignsCallIDs(t *testing.T) {
	gw := newFakeGateway(t)
	gw.handle("simulateTransaction", func(json.RawMessage) (any, *rpcError) {
		return simulateResult{EnvelopeXDR: "AAAA"}, nil
	})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	rpc := NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil)
	defer rpc.Close()

	a, err := rpc.SimulateCall(context.Background(), MethodCancelStream, CancelStreamArgs(1))
	require.NoError(t, err)
	b, err := rpc.SimulateCall(context.Background(), MethodCancelStream, CancelStreamArgs(1))
	require.NoError(t, err)
	assert.NotEmpty(t, a.CallID)
	assert.NotEqual(t, a.CallID, b.CallID)
}

func TestSubmitTransaction(t *testing.T) {
	gw := newFakeGateway(t)
	gw.handle("sendTransaction", func(params json.RawMessage) (any, *rpcError) {
		var p map[string]string
		require.NoError(t, json.Unmarshal(params, &p))
		assert.Equal(t, "signed-envelope", p["transaction"])
		return sendResult{Hash: "deadbeef", Status: "PENDING"}, nil
	})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	rpc := NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil)
	defer rpc.Close()

	hash, err := rpc.SubmitTransaction(context.Background(), "signed-envelope")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", hash)
}

func TestSubmitTransactionRejected(t *testing.T) {
	gw := newFakeGateway(t)
	gw.handle("sendTransaction", func(json.RawMessage) (any, *rpcError) {
		return sendResult{Status: "ERROR", ErrorResult: "tx malformed"}, nil
	})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	rpc := NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil)
	defer rpc.Close()

	_, err := rpc.SubmitTransaction(context.Background(), "bad")
	assert.Equal(t, types.ErrSubmissionFailed, types.CodeOf(err))
}

func TestGetTransactionStatuses(t *testing.T) {
	gw := newFakeGateway(t)
	status := "NOT_FOUND"
	gw.handle("getTransaction", func(json.RawMessage) (any, *rpcError) {
		return getTransactionResult{Status: status, Ledger: 42, ContractErrorCode: 9}, nil
	})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	rpc := NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil)
	defer rpc.Close()

	res, err := rpc.GetTransaction(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, types.TxStatusNotFound, res.Status)

	status = "FAILED"
	res, err = rpc.GetTransaction(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, types.TxStatusFailed, res.Status)
	assert.Equal(t, types.ErrNotDue, types.FromContractCode(res.ErrorCode).Code)
}

func TestRPCErrorSurfacesAsNetworkError(t *testing.T) {
	gw := newFakeGateway(t)
	gw.handle("getLatestLedger", func(json.RawMessage) (any, *rpcError) {
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	rpc := NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil)
	defer rpc.Close()

	_, err := rpc.LatestLedger(context.Background())
	assert.Equal(t, types.ErrNetworkError, types.CodeOf(err))
}

func TestHasTrustline(t *testing.T) {
	gw := newFakeGateway(t)
	gw.handle("getTrustlines", func(params json.RawMessage) (any, *rpcError) {
		var p map[string]string
		require.NoError(t, json.Unmarshal(params, &p))
		assert.Equal(t, testSender, p["account"])
		return getTrustlinesResult{Trustlines: []trustline{{Asset: testToken, Balance: "100"}}}, nil
	})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	rpc := NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil)
	c := NewContract(rpc, testToken, nil, nil)
	defer c.Close()

	ok, err := c.HasTrustline(context.Background(), testSender)
	require.NoError(t, err)
	assert.True(t, ok)

	// Native asset never needs one, and no gateway round trip happens.
	native := NewContract(NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil), "native", nil, nil)
	ok, err = native.HasTrustline(context.Background(), testSender)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserStreamIDsAndExpansion(t *testing.T) {
	gw := newFakeGateway(t)
	gw.handle("simulateTransaction", func(params json.RawMessage) (any, *rpcError) {
		var p simulateParams
		require.NoError(t, json.Unmarshal(params, &p))

		switch p.Method {
		case "get_user_sent_stream_ids":
			raw, err := json.Marshal(scval.VecVal(scval.U32Val(3), scval.U32Val(7)))
			require.NoError(t, err)
			return simulateResult{Results: []json.RawMessage{raw}}, nil
		case "get_stream":
			// Stream 7 was cancelled out from under the id index.
			if p.Args[0].U32 == 7 {
				return simulateResult{Results: nil}, nil
			}
			return simulateResult{Results: []json.RawMessage{streamResultJSON(t, p.Args[0].U32)}}, nil
		default:
			return nil, &rpcError{Code: -32601, Message: "unexpected method " + p.Method}
		}
	})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	rpc := NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil)
	c := NewContract(rpc, testToken, nil, nil)
	defer c.Close()

	ids, err := c.GetUserStreamIDs(context.Background(), testSender, types.RoleSender)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 7}, ids)

	streams, err := c.ExpandStreams(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, uint64(3), streams[0].ID)
}

func TestUserStreamsSkipsUnmappableRecords(t *testing.T) {
	gw := newFakeGateway(t)
	gw.handle("simulateTransaction", func(params json.RawMessage) (any, *rpcError) {
		var p simulateParams
		require.NoError(t, json.Unmarshal(params, &p))
		assert.Equal(t, "get_user_received_streams", p.Method)

		good := streamResultJSON(t, 1)
		var goodVal, badVal scval.Val
		require.NoError(t, json.Unmarshal(good, &goodVal))
		badVal = scval.MapVal(scval.Entry("id", scval.StringVal("not-an-id")))

		raw, err := json.Marshal(scval.VecVal(goodVal, badVal))
		require.NoError(t, err)
		return simulateResult{Results: []json.RawMessage{raw}}, nil
	})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	rpc := NewSorobanRPC(srv.URL, testContract, testSender, time.Second, nil)
	c := NewContract(rpc, testToken, nil, nil)
	defer c.Close()

	streams, err := c.GetUserStreams(context.Background(), testSender, types.RoleRecipient)
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, uint64(1), streams[0].ID)
}
