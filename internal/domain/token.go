package domain

import "time"

// TokenPair is the enriched view of a newly discovered DEX pair.
// It exists only within the poll cycle that produced it; the durable
// artifact is the LeadRecord (or a bare registration) in storage.
type TokenPair struct {
	Chain        string
	TokenName    string
	TokenSymbol  string
	TokenAddress string
	PairAddress  string
	DexID        string
	URL          string // canonical DexScreener pair URL
	CreatedAt    time.Time
	LiquidityUSD float64
	FDV          float64
}

// Age returns how long ago the pair was created, relative to now.
func (p *TokenPair) Age(now time.Time) time.Duration {
	return now.Sub(p.CreatedAt)
}
