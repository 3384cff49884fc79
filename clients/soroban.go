package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sam-thetutor/streamr/logger"
	"github.com/sam-thetutor/streamr/scval"
	"github.com/sam-thetutor/streamr/types"
)

// SorobanRPC is a JSON-RPC 2.0 client for a Soroban gateway. Every request
// is a single POST; request ids are a process-local counter.
type SorobanRPC struct {
	url        string
	contractID string
	source     string
	http       *http.Client
	log        logger.Logger
	reqID      atomic.Int64
}

var _ RPC = (*SorobanRPC)(nil)

func NewSorobanRPC(url, contractID, source string, timeout time.Duration, log logger.Logger) *SorobanRPC {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &SorobanRPC{
		url:        url,
		contractID: contractID,
		source:     source,
		http:       &http.Client{Timeout: timeout},
		log:        log,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return e.Message
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

func (c *SorobanRPC) call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.reqID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &types.Error{Code: types.ErrNetworkError, Message: "rpc request failed", Data: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.Error{Code: types.ErrNetworkError, Message: "read rpc response", Data: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return &types.Error{Code: types.ErrNetworkError, Message: "rpc status " + resp.Status, Data: string(raw)}
	}

	var envelope rpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return errors.Wrap(err, "decode rpc envelope")
	}
	if envelope.Error != nil {
		return &types.Error{Code: types.ErrNetworkError, Message: envelope.Error.Message, Data: envelope.Error.Code}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return errors.Wrap(err, "decode rpc result")
		}
	}
	return nil
}

type simulateParams struct {
	ContractID string      `json:"contractId"`
	Method     string      `json:"method"`
	Args       []scval.Val `json:"args"`
	Source     string      `json:"source,omitempty"`
}

type simulateResult struct {
	EnvelopeXDR    string            `json:"envelopeXdr"`
	AuthEntries    []string          `json:"authEntries,omitempty"`
	MinResourceFee int64             `json:"minResourceFee,omitempty"`
	LatestLedger   uint64            `json:"latestLedger,omitempty"`
	Results        []json.RawMessage `json:"results,omitempty"`
	Error          string            `json:"error,omitempty"`
	Diagnostics    []string          `json:"diagnosticEvents,omitempty"`
}

// SimulateCall simulates a contract invocation and returns the envelope to
// sign plus the decoded return value for read calls. A simulation the
// gateway itself reports as failed surfaces as SIMULATION_FAILED with the
// diagnostics attached.
func (c *SorobanRPC) SimulateCall(ctx context.Context, method string, args []scval.Val) (*types.Simulation, error) {
	var res simulateResult
	err := c.call(ctx, "simulateTransaction", simulateParams{
		ContractID: c.contractID,
		Method:     method,
		Args:       args,
		Source:     c.source,
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.Error != "" {
		c.log.Warn("simulation failed", map[string]any{"method": method, "error": res.Error})
		return nil, &types.Error{
			Code:    types.ErrSimulationFailed,
			Message: res.Error,
			Data:    res.Diagnostics,
		}
	}

	sim := &types.Simulation{
		CallID:       uuid.NewString(),
		Method:       method,
		EnvelopeXDR:  res.EnvelopeXDR,
		AuthEntries:  res.AuthEntries,
		MinFee:       res.MinResourceFee,
		LatestLedger: res.LatestLedger,
		CreatedAt:    time.Now().UTC(),
		Diagnostics:  res.Diagnostics,
	}
	if len(res.Results) > 0 {
		sim.RawResult = res.Results[0]
	}
	return sim, nil
}

type sendResult struct {
	Hash        string `json:"hash"`
	Status      string `json:"status"`
	ErrorResult string `json:"errorResultXdr,omitempty"`
}

// SubmitTransaction submits a signed envelope and returns the transaction
// hash. Rejection at submission time is terminal; the caller never polls
// for a hash that was not accepted.
func (c *SorobanRPC) SubmitTransaction(ctx context.Context, envelopeXDR string) (string, error) {
	var res sendResult
	err := c.call(ctx, "sendTransaction", map[string]string{"transaction": envelopeXDR}, &res)
	if err != nil {
		return "", err
	}
	if res.Status == "ERROR" {
		return "", &types.Error{Code: types.ErrSubmissionFailed, Message: "transaction rejected", Data: res.ErrorResult}
	}
	return res.Hash, nil
}

type getTransactionResult struct {
	Status            string `json:"status"`
	Ledger            uint64 `json:"ledger,omitempty"`
	ResultXDR         string `json:"resultXdr,omitempty"`
	CreatedAt         int64  `json:"createdAt,omitempty"`
	ContractErrorCode int64  `json:"contractErrorCode,omitempty"`
	Message           string `json:"message,omitempty"`
}

// GetTransaction polls for the inclusion status of a submitted transaction.
// NOT_FOUND means the network has not seen the transaction yet and the
// caller should keep polling.
func (c *SorobanRPC) GetTransaction(ctx context.Context, hash string) (*types.TxResult, error) {
	var res getTransactionResult
	err := c.call(ctx, "getTransaction", map[string]string{"hash": hash}, &res)
	if err != nil {
		return nil, err
	}
	return &types.TxResult{
		Status:    types.TxStatus(res.Status),
		Hash:      hash,
		Ledger:    res.Ledger,
		ResultXDR: res.ResultXDR,
		ErrorCode: res.ContractErrorCode,
		CreatedAt: res.CreatedAt,
		Message:   res.Message,
	}, nil
}

type latestLedgerResult struct {
	Sequence        uint64 `json:"sequence"`
	LedgerCloseTime uint64 `json:"ledgerCloseTime,omitempty"`
}

func (c *SorobanRPC) LatestLedger(ctx context.Context) (LedgerInfo, error) {
	var res latestLedgerResult
	err := c.call(ctx, "getLatestLedger", nil, &res)
	if err != nil {
		return LedgerInfo{}, err
	}
	return LedgerInfo{Sequence: res.Sequence, CloseTime: res.LedgerCloseTime}, nil
}

func (c *SorobanRPC) Close() {
	c.http.CloseIdleConnections()
}
