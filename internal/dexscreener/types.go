package dexscreener

// Wire types for the DexScreener public API.

// TokenProfile is one entry of GET /token-profiles/latest/v1.
type TokenProfile struct {
	ChainID      string        `json:"chainId"`
	TokenAddress string        `json:"tokenAddress"`
	Description  string        `json:"description"`
	Links        []ProfileLink `json:"links"`
}

// ProfileLink is an explicitly typed link on a token profile. Some
// entries carry a type, others only a label.
type ProfileLink struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Pair is one pair object of GET /token-pairs/v1/{chainId}/{tokenAddress}.
type Pair struct {
	ChainID       string     `json:"chainId"`
	DexID         string     `json:"dexId"`
	URL           string     `json:"url"`
	PairAddress   string     `json:"pairAddress"`
	BaseToken     BaseToken  `json:"baseToken"`
	Liquidity     *Liquidity `json:"liquidity"`
	FDV           float64    `json:"fdv"`
	PairCreatedAt int64      `json:"pairCreatedAt"` // unix ms; 0 when absent
	Info          *PairInfo  `json:"info"`
}

// BaseToken identifies the traded token of a pair.
type BaseToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Liquidity is the pair's pooled liquidity.
type Liquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// PairInfo carries the pair's social metadata.
type PairInfo struct {
	Socials  []SocialEntry  `json:"socials"`
	Websites []WebsiteEntry `json:"websites"`
}

// SocialEntry is one social link on pair info. Older payloads use
// platform/handle, newer ones type/url.
type SocialEntry struct {
	Platform string `json:"platform"`
	Type     string `json:"type"`
	Handle   string `json:"handle"`
	URL      string `json:"url"`
}

// WebsiteEntry is one website link on pair info.
type WebsiteEntry struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Value string `json:"value"`
}

// pairsEnvelope is the {"pairs": [...]} wrapper some endpoints return.
type pairsEnvelope struct {
	Pairs []Pair `json:"pairs"`
}
