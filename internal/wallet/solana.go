package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultRPCTimeout bounds a single Solana RPC round trip.
const DefaultRPCTimeout = 15 * time.Second

// SolanaClient is a minimal JSON-RPC 2.0 client for the two calls the
// deployer lookup needs. Retrying is the caller's business.
type SolanaClient struct {
	endpoint  string
	client    *http.Client
	requestID atomic.Uint64
}

// SolanaOption configures SolanaClient.
type SolanaOption func(*SolanaClient)

// WithRPCTimeout sets HTTP client timeout.
func WithRPCTimeout(d time.Duration) SolanaOption {
	return func(c *SolanaClient) {
		c.client.Timeout = d
	}
}

// WithRPCHTTPClient sets custom http.Client.
func WithRPCHTTPClient(client *http.Client) SolanaOption {
	return func(c *SolanaClient) {
		c.client = client
	}
}

// NewSolanaClient creates a new Solana RPC client.
func NewSolanaClient(endpoint string, opts ...SolanaOption) *SolanaClient {
	c := &SolanaClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultRPCTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

func (c *SolanaClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// SignatureInfo is one entry of a getSignaturesForAddress response,
// newest first.
type SignatureInfo struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
}

// GetSignaturesForAddress returns up to limit signatures touching the
// address, newest first.
func (c *SolanaClient) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	params := []interface{}{
		address,
		map[string]interface{}{"limit": limit},
	}

	var result []SignatureInfo
	if err := c.call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// accountKey tolerates both response shapes: a bare pubkey string or
// an object with a pubkey field.
type accountKey struct {
	Pubkey string
}

func (k *accountKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		k.Pubkey = s
		return nil
	}
	var obj struct {
		Pubkey string `json:"pubkey"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	k.Pubkey = obj.Pubkey
	return nil
}

type getTransactionResult struct {
	Slot        uint64 `json:"slot"`
	Transaction struct {
		Message struct {
			AccountKeys []accountKey `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

// GetTransactionFeePayer returns the first account of the transaction,
// which is its fee payer and signer. Empty string when the transaction
// is unknown.
func (c *SolanaClient) GetTransactionFeePayer(ctx context.Context, signature string) (string, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{"maxSupportedTransactionVersion": 0},
	}

	var result getTransactionResult
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return "", err
	}
	if len(result.Transaction.Message.AccountKeys) == 0 {
		return "", nil
	}
	return result.Transaction.Message.AccountKeys[0].Pubkey, nil
}
