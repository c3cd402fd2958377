package domain

import "time"

// LeadRecord is the full qualified lead persisted to storage.
// Corresponds to the tokens/socials/admins/wallets tables.
type LeadRecord struct {
	Chain        string
	TokenName    string
	TokenSymbol  string
	TokenAddress string
	PairAddress  string
	URL          string
	CreatedAt    time.Time // pair creation time
	DiscoveredAt time.Time

	Telegram string
	Twitter  string
	Website  string

	Admins       []TelegramAdmin
	AdminsHidden bool

	DeployerWallet string // empty when unknown
}

// TokenRegistration is the minimal "seen" marker stored for tokens
// that were skipped, so they are not re-evaluated every cycle.
type TokenRegistration struct {
	Chain        string
	TokenAddress string
	TokenName    string
	TokenSymbol  string
	PairAddress  string
	URL          string
	CreatedAt    time.Time
}

// RegistrationFor builds the seen marker for a token pair.
func RegistrationFor(p *TokenPair) *TokenRegistration {
	return &TokenRegistration{
		Chain:        p.Chain,
		TokenAddress: p.TokenAddress,
		TokenName:    p.TokenName,
		TokenSymbol:  p.TokenSymbol,
		PairAddress:  p.PairAddress,
		URL:          p.URL,
		CreatedAt:    p.CreatedAt,
	}
}
