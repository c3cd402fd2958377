// Package wallet resolves the deployer wallet of a token contract via
// Etherscan-compatible explorers and the Solana RPC.
package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"dexlead/internal/metrics"
	"dexlead/internal/ratelimit"
	"dexlead/internal/retry"
)

const (
	explorerTimeout = 15 * time.Second
	explorerLimit   = 4 // free-tier Etherscan APIs allow 5/s
	signatureLimit  = 1000
)

type explorerConfig struct {
	apiURL string
	apiKey string
}

// Lookup finds deployer wallets. Chains without an explorer config or
// API key resolve to "not found" rather than an error.
type Lookup struct {
	explorers map[string]explorerConfig
	solana    *SolanaClient
	http      *http.Client
	limiter   *ratelimit.Limiter
	counters  *metrics.Counters
	log       zerolog.Logger
}

// Options configures a Lookup.
type Options struct {
	EtherscanKey string
	BasescanKey  string
	BscscanKey   string
	SolanaRPCURL string

	Limiters *ratelimit.Group
	Counters *metrics.Counters
	Logger   zerolog.Logger
	// HTTPClient overrides the explorer client, for tests.
	HTTPClient *http.Client
}

// NewLookup creates a Lookup.
func NewLookup(opts Options) *Lookup {
	limiters := opts.Limiters
	if limiters == nil {
		limiters = ratelimit.NewGroup()
	}
	counters := opts.Counters
	if counters == nil {
		counters = metrics.NewCounters()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: explorerTimeout}
	}

	var solana *SolanaClient
	if opts.SolanaRPCURL != "" {
		solana = NewSolanaClient(opts.SolanaRPCURL, WithRPCHTTPClient(httpClient))
	}

	return &Lookup{
		explorers: map[string]explorerConfig{
			"ethereum": {apiURL: "https://api.etherscan.io/api", apiKey: opts.EtherscanKey},
			"bsc":      {apiURL: "https://api.bscscan.com/api", apiKey: opts.BscscanKey},
			"base":     {apiURL: "https://api.basescan.org/api", apiKey: opts.BasescanKey},
		},
		solana:   solana,
		http:     httpClient,
		limiter:  limiters.Get("explorer", explorerLimit, time.Second),
		counters: counters,
		log:      opts.Logger.With().Str("component", "wallet").Logger(),
	}
}

// Deployer returns the wallet that deployed the contract, or "" when it
// cannot be determined. The error is non-nil only for service failures
// that survived retrying.
func (l *Lookup) Deployer(ctx context.Context, chain, contractAddress string) (string, error) {
	if chain == "solana" {
		return l.solanaDeployer(ctx, contractAddress)
	}

	explorer, ok := l.explorers[chain]
	if !ok {
		l.log.Warn().Str("chain", chain).Msg("no explorer for chain")
		return "", nil
	}
	if explorer.apiKey == "" {
		l.log.Warn().Str("chain", chain).Msg("no explorer api key, skipping wallet lookup")
		return "", nil
	}

	// getcontractcreation is authoritative when available.
	deployer, err := l.contractCreation(ctx, explorer, contractAddress)
	if err != nil {
		return "", err
	}
	if deployer != "" {
		return deployer, nil
	}
	return l.txlistFallback(ctx, explorer, contractAddress)
}

// explorerResponse is the common Etherscan envelope. Result is kept raw
// because its shape depends on the action.
type explorerResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (l *Lookup) contractCreation(ctx context.Context, explorer explorerConfig, contractAddress string) (string, error) {
	params := url.Values{
		"module":            {"contract"},
		"action":            {"getcontractcreation"},
		"contractaddresses": {contractAddress},
		"apikey":            {explorer.apiKey},
	}

	resp, err := l.getExplorer(ctx, explorer.apiURL, params)
	if err != nil {
		return "", err
	}
	if resp.Status != "1" || len(resp.Result) == 0 {
		return "", nil
	}

	var result []struct {
		ContractCreator string `json:"contractCreator"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil || len(result) == 0 {
		return "", nil
	}
	if creator := result[0].ContractCreator; creator != "" {
		l.log.Info().Str("deployer", shorten(creator)).Msg("found deployer via contractcreation")
		return creator, nil
	}
	return "", nil
}

func (l *Lookup) txlistFallback(ctx context.Context, explorer explorerConfig, contractAddress string) (string, error) {
	params := url.Values{
		"module":     {"account"},
		"action":     {"txlist"},
		"address":    {contractAddress},
		"startblock": {"0"},
		"endblock":   {"99999999"},
		"page":       {"1"},
		"offset":     {"1"},
		"sort":       {"asc"},
		"apikey":     {explorer.apiKey},
	}

	resp, err := l.getExplorer(ctx, explorer.apiURL, params)
	if err != nil {
		return "", err
	}
	if resp.Status != "1" || len(resp.Result) == 0 {
		return "", nil
	}

	var result []struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil || len(result) == 0 {
		return "", nil
	}
	// The earliest transaction either created the contract (empty "to")
	// or came from the deployer anyway.
	if from := result[0].From; from != "" {
		if result[0].To == "" {
			l.log.Info().Str("deployer", shorten(from)).Msg("found deployer via txlist")
		}
		return from, nil
	}
	return "", nil
}

// getExplorer performs one rate-limited, retried GET against an
// explorer API.
func (l *Lookup) getExplorer(ctx context.Context, apiURL string, params url.Values) (*explorerResponse, error) {
	var out explorerResponse
	op := func() error {
		if err := l.limiter.Acquire(ctx); err != nil {
			return err
		}
		defer l.limiter.Release()

		l.counters.Inc(metrics.Attempt("explorer"))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := l.http.Do(req)
		if err != nil {
			l.counters.Inc(metrics.Failure("explorer"))
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			l.counters.Inc(metrics.Failure("explorer"))
			return err
		}
		if resp.StatusCode != http.StatusOK {
			l.counters.Inc(metrics.Failure("explorer"))
			return fmt.Errorf("explorer status %d: %s", resp.StatusCode, shorten(string(body)))
		}
		return json.Unmarshal(body, &out)
	}

	err := retry.Do(ctx, op, func(err error, next time.Duration) {
		l.counters.Inc(metrics.EventRetryEvents)
		l.log.Warn().Err(err).Dur("next_try", next).Msg("explorer call retrying")
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (l *Lookup) solanaDeployer(ctx context.Context, tokenAddress string) (string, error) {
	if l.solana == nil {
		return "", nil
	}

	var sigs []SignatureInfo
	err := l.rpcCall(ctx, func() error {
		var err error
		sigs, err = l.solana.GetSignaturesForAddress(ctx, tokenAddress, signatureLimit)
		return err
	})
	if err != nil {
		return "", err
	}
	if len(sigs) == 0 {
		return "", nil
	}

	// Signatures come newest first; for a token caught minutes after
	// launch the last one is the mint transaction.
	creationSig := sigs[len(sigs)-1].Signature

	var deployer string
	err = l.rpcCall(ctx, func() error {
		var err error
		deployer, err = l.solana.GetTransactionFeePayer(ctx, creationSig)
		return err
	})
	if err != nil {
		return "", err
	}
	if deployer != "" {
		l.log.Info().Str("deployer", shorten(deployer)).Msg("found solana deployer")
	}
	return deployer, nil
}

// rpcCall runs one Solana RPC operation under the explorer limiter with
// retries.
func (l *Lookup) rpcCall(ctx context.Context, op func() error) error {
	wrapped := func() error {
		if err := l.limiter.Acquire(ctx); err != nil {
			return err
		}
		defer l.limiter.Release()
		l.counters.Inc(metrics.Attempt("solana_rpc"))
		if err := op(); err != nil {
			l.counters.Inc(metrics.Failure("solana_rpc"))
			return err
		}
		return nil
	}
	return retry.Do(ctx, wrapped, func(err error, next time.Duration) {
		l.counters.Inc(metrics.EventRetryEvents)
		l.log.Warn().Err(err).Dur("next_try", next).Msg("solana rpc retrying")
	})
}

func shorten(s string) string {
	const max = 10
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
