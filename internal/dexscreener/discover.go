package dexscreener

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dexlead/internal/domain"
	"dexlead/internal/metrics"
)

// Discovery is one enriched candidate surviving freshness and shape
// validation, ready for qualification.
type Discovery struct {
	Pair    *domain.TokenPair
	Socials domain.SocialLinks
}

// placeholderSymbols are upstream stand-ins for a missing symbol.
var placeholderSymbols = map[string]bool{
	"":    true,
	"???": true,
}

// DiscoverNewTokens runs one discovery pass: poll latest profiles,
// filter to tracked chains, fair-sample, then enrich each candidate
// concurrently under the configured gate. A profile-feed failure
// degrades the cycle to zero discoveries; it is never an error.
func (c *Client) DiscoverNewTokens(ctx context.Context) []Discovery {
	profiles, err := c.LatestTokenProfiles(ctx)
	if err != nil {
		c.counters.Inc(metrics.EventProfileFailures)
		c.log.Error().Err(err).Msg("failed to fetch token profiles")
		return nil
	}
	c.log.Debug().Int("profiles", len(profiles)).Msg("fetched token profiles")

	filtered := profiles[:0:0]
	for _, p := range profiles {
		chain := strings.ToLower(p.ChainID)
		if !c.tracked[chain] || p.TokenAddress == "" {
			continue
		}
		p.ChainID = chain
		filtered = append(filtered, p)
	}
	filtered = sampleProfiles(filtered, c.chainOrder, c.maxProfiles, c.fair)

	var (
		mu      sync.Mutex
		results []Discovery
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, profile := range filtered {
		profile := profile
		g.Go(func() error {
			// Outcomes are classified independently; a failing
			// sibling never cancels the batch.
			if d := c.enrichProfile(gctx, profile); d != nil {
				mu.Lock()
				results = append(results, *d)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// enrichProfile fetches and validates pair detail for one candidate.
// Returns nil when the candidate is dropped; every drop is counted.
func (c *Client) enrichProfile(ctx context.Context, profile TokenProfile) *Discovery {
	pairs, err := c.PairsByToken(ctx, profile.ChainID, profile.TokenAddress)
	if err != nil {
		c.counters.Inc(metrics.EventPairFailures)
		c.log.Warn().Err(err).
			Str("chain", profile.ChainID).
			Str("token", profile.TokenAddress).
			Msg("failed to get pairs")
		return nil
	}
	if len(pairs) == 0 {
		return nil
	}

	// First pair is the primary one.
	pairData := pairs[0]
	pair := c.parsePair(pairData, profile.ChainID)
	if pair == nil {
		c.counters.Inc(metrics.EventParseFailures)
		return nil
	}

	// Freshness: age equal to the maximum is still accepted.
	age := pair.Age(c.now())
	if age > c.maxAge {
		c.counters.Inc(metrics.EventFreshnessSkipped)
		return nil
	}

	socials := ExtractSocials(profile, pairData)

	c.log.Debug().
		Str("chain", pair.Chain).
		Str("symbol", pair.TokenSymbol).
		Dur("age", age).
		Msg("discovered new token")
	return &Discovery{Pair: pair, Socials: socials}
}

// parsePair validates raw pair JSON into a TokenPair. Returns nil when
// any required field is missing, a placeholder, or fails the chain's
// address grammar.
func (c *Client) parsePair(pair Pair, chainID string) *domain.TokenPair {
	if pair.PairCreatedAt == 0 {
		return nil
	}

	tokenAddress := strings.TrimSpace(pair.BaseToken.Address)
	pairAddress := strings.TrimSpace(pair.PairAddress)
	url := strings.TrimSpace(pair.URL)
	symbol := strings.TrimSpace(pair.BaseToken.Symbol)

	if tokenAddress == "" || pairAddress == "" || url == "" {
		return nil
	}
	if placeholderSymbols[symbol] {
		return nil
	}
	if !ValidAddress(chainID, tokenAddress) || !ValidAddress(chainID, pairAddress) {
		return nil
	}

	name := pair.BaseToken.Name
	if name == "" {
		name = "Unknown"
	}
	var liquidity float64
	if pair.Liquidity != nil {
		liquidity = pair.Liquidity.USD
	}

	return &domain.TokenPair{
		Chain:        chainID,
		TokenName:    name,
		TokenSymbol:  symbol,
		TokenAddress: tokenAddress,
		PairAddress:  pairAddress,
		DexID:        pair.DexID,
		URL:          url,
		CreatedAt:    time.UnixMilli(pair.PairCreatedAt).UTC(),
		LiquidityUSD: liquidity,
		FDV:          pair.FDV,
	}
}
