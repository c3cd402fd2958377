// Package dexscreener discovers new token pairs from the DexScreener
// public API and enriches them with pair metadata.
//
// Monitoring strategy:
//  1. Poll GET /token-profiles/latest/v1 for recently updated profiles.
//  2. For each profile on a tracked chain, fetch pair data via
//     GET /token-pairs/v1/{chainId}/{tokenAddress}.
//  3. Keep only pairs younger than the configured maximum age.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dexlead/internal/metrics"
	"dexlead/internal/ratelimit"
	"dexlead/internal/retry"
)

// DexScreener public API rate ceilings.
const (
	profileLimit       = 55  // calls per minute on /token-profiles
	pairLimit          = 250 // calls per minute on /token-pairs
	requestTimeout     = 15 * time.Second
	defaultConcurrency = 8
)

// Client polls DexScreener under per-endpoint rate ceilings with
// retried calls and bounded-concurrency enrichment.
type Client struct {
	baseURL string
	http    *http.Client

	profileLimiter *ratelimit.Limiter
	pairLimiter    *ratelimit.Limiter

	tracked     map[string]bool
	chainOrder  []string
	maxAge      time.Duration
	maxProfiles int
	fair        bool
	concurrency int

	counters *metrics.Counters
	log      zerolog.Logger

	now func() time.Time
}

// Options configures a Client.
type Options struct {
	BaseURL              string
	TrackedChains        []string
	MaxTokenAge          time.Duration
	MaxProfilesPerPoll   int
	FairChainSampling    bool
	PairFetchConcurrency int

	Limiters *ratelimit.Group
	Counters *metrics.Counters
	Logger   zerolog.Logger

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// New creates a DexScreener client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	limiters := opts.Limiters
	if limiters == nil {
		limiters = ratelimit.NewGroup()
	}
	counters := opts.Counters
	if counters == nil {
		counters = metrics.NewCounters()
	}
	maxProfiles := opts.MaxProfilesPerPoll
	if maxProfiles < 1 {
		maxProfiles = 1
	}
	concurrency := opts.PairFetchConcurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	tracked := make(map[string]bool, len(opts.TrackedChains))
	order := make([]string, 0, len(opts.TrackedChains))
	for _, chain := range opts.TrackedChains {
		chain = strings.ToLower(chain)
		if !tracked[chain] {
			tracked[chain] = true
			order = append(order, chain)
		}
	}

	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		http:           httpClient,
		profileLimiter: limiters.Get("dex_profiles", profileLimit, time.Minute),
		pairLimiter:    limiters.Get("dex_pairs", pairLimit, time.Minute),
		tracked:        tracked,
		chainOrder:     order,
		maxAge:         opts.MaxTokenAge,
		maxProfiles:    maxProfiles,
		fair:           opts.FairChainSampling,
		concurrency:    concurrency,
		counters:       counters,
		log:            opts.Logger,
		now:            time.Now,
	}
}

// LatestTokenProfiles fetches the most recent token profiles. A body
// that is not a JSON list degrades to an empty slice, never an error.
func (c *Client) LatestTokenProfiles(ctx context.Context) ([]TokenProfile, error) {
	var profiles []TokenProfile
	err := retry.Do(ctx, func() error {
		body, err := c.get(ctx, "/token-profiles/latest/v1", c.profileLimiter, metrics.EventProfileCalls)
		if err != nil {
			return err
		}
		profiles = nil
		if err := json.Unmarshal(body, &profiles); err != nil {
			profiles = nil
		}
		return nil
	}, c.recordRetry)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// PairsByToken fetches the pairs for a token on a chain. The endpoint
// returns either a bare list or a {"pairs": [...]} wrapper; any other
// shape is treated as no data.
func (c *Client) PairsByToken(ctx context.Context, chainID, tokenAddress string) ([]Pair, error) {
	path := fmt.Sprintf("/token-pairs/v1/%s/%s", chainID, tokenAddress)
	var pairs []Pair
	err := retry.Do(ctx, func() error {
		body, err := c.get(ctx, path, c.pairLimiter, metrics.EventPairCalls)
		if err != nil {
			return err
		}
		pairs = decodePairs(body)
		return nil
	}, c.recordRetry)
	if err != nil {
		return nil, err
	}
	return pairs, nil
}

func decodePairs(body []byte) []Pair {
	var pairs []Pair
	if err := json.Unmarshal(body, &pairs); err == nil {
		return pairs
	}
	var env pairsEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		return env.Pairs
	}
	return nil
}

// get performs one rate-limited GET attempt and returns the body.
func (c *Client) get(ctx context.Context, path string, limiter *ratelimit.Limiter, callEvent string) ([]byte, error) {
	if err := limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer limiter.Release()

	c.counters.Inc(callEvent)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}
	return body, nil
}

// recordRetry counts one retry event before the backoff sleep.
func (c *Client) recordRetry(err error, next time.Duration) {
	c.counters.Inc(metrics.EventRetryEvents)
	c.log.Warn().Err(err).Dur("retry_in", next).Msg("dexscreener call failed; retrying")
}
