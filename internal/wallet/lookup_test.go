package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLookup(t *testing.T, apiURL string) *Lookup {
	t.Helper()
	l := NewLookup(Options{
		EtherscanKey: "testkey",
		Logger:       zerolog.Nop(),
	})
	l.explorers["ethereum"] = explorerConfig{apiURL: apiURL, apiKey: "testkey"}
	return l
}

func TestDeployer_ContractCreationEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "contract", r.URL.Query().Get("module"))
		require.Equal(t, "getcontractcreation", r.URL.Query().Get("action"))
		json.NewEncoder(w).Encode(map[string]any{
			"status": "1",
			"result": []map[string]string{{"contractCreator": "0xdeployer"}},
		})
	}))
	defer srv.Close()

	l := newTestLookup(t, srv.URL)
	deployer, err := l.Deployer(context.Background(), "ethereum", "0xtoken")
	require.NoError(t, err)
	assert.Equal(t, "0xdeployer", deployer)
}

func TestDeployer_FallsBackToTxlist(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("action") {
		case "getcontractcreation":
			json.NewEncoder(w).Encode(map[string]any{"status": "0", "result": nil})
		case "txlist":
			require.Equal(t, "asc", r.URL.Query().Get("sort"))
			json.NewEncoder(w).Encode(map[string]any{
				"status": "1",
				"result": []map[string]string{{"from": "0xcreator", "to": ""}},
			})
		default:
			t.Errorf("unexpected action %q", r.URL.Query().Get("action"))
		}
	}))
	defer srv.Close()

	l := newTestLookup(t, srv.URL)
	deployer, err := l.Deployer(context.Background(), "ethereum", "0xtoken")
	require.NoError(t, err)
	assert.Equal(t, "0xcreator", deployer)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDeployer_MissingKeyOrChainSkipsLookup(t *testing.T) {
	l := NewLookup(Options{Logger: zerolog.Nop()})

	deployer, err := l.Deployer(context.Background(), "ethereum", "0xtoken")
	require.NoError(t, err)
	assert.Empty(t, deployer, "no api key means no lookup")

	deployer, err = l.Deployer(context.Background(), "dogechain", "0xtoken")
	require.NoError(t, err)
	assert.Empty(t, deployer, "unknown chain means no lookup")

	deployer, err = l.Deployer(context.Background(), "solana", "SoMeMint")
	require.NoError(t, err)
	assert.Empty(t, deployer, "no rpc url means no lookup")
}

func TestSolanaDeployer_WalksToOldestSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.Method {
		case "getSignaturesForAddress":
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID,
				"result": []map[string]any{
					{"signature": "newest", "slot": 300},
					{"signature": "middle", "slot": 200},
					{"signature": "mint_tx", "slot": 100},
				},
			})
		case "getTransaction":
			require.Equal(t, "mint_tx", req.Params[0])
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID,
				"result": map[string]any{
					"slot": 100,
					"transaction": map[string]any{
						"message": map[string]any{
							"accountKeys": []string{"FeePayer111", "Other222"},
						},
					},
				},
			})
		default:
			t.Errorf("unexpected method %q", req.Method)
		}
	}))
	defer srv.Close()

	l := NewLookup(Options{
		SolanaRPCURL: srv.URL,
		Logger:       zerolog.Nop(),
	})

	deployer, err := l.Deployer(context.Background(), "solana", "SoMeMint")
	require.NoError(t, err)
	assert.Equal(t, "FeePayer111", deployer)
}

func TestAccountKey_UnmarshalBothShapes(t *testing.T) {
	var bare accountKey
	require.NoError(t, json.Unmarshal([]byte(`"Pubkey111"`), &bare))
	assert.Equal(t, "Pubkey111", bare.Pubkey)

	var obj accountKey
	require.NoError(t, json.Unmarshal([]byte(`{"pubkey":"Pubkey222","signer":true}`), &obj))
	assert.Equal(t, "Pubkey222", obj.Pubkey)
}

func TestSolanaDeployer_NoHistoryMeansNoDeployer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": 1, "result": []any{},
		})
	}))
	defer srv.Close()

	l := NewLookup(Options{
		SolanaRPCURL: srv.URL,
		Logger:       zerolog.Nop(),
	})

	deployer, err := l.Deployer(context.Background(), "solana", "SoMeMint")
	require.NoError(t, err)
	assert.Empty(t, deployer)
}
