package dexscreener

import (
	"regexp"

	"github.com/mr-tron/base58"
)

var evmAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// evmChains are the tracked chains using 0x-prefixed 20-byte addresses.
var evmChains = map[string]bool{
	"ethereum": true,
	"bsc":      true,
	"base":     true,
}

// ValidAddress reports whether address matches the chain's address
// grammar: 0x + 40 hex digits for EVM chains, base58 alphabet of length
// 32-44 for Solana. Unknown chains accept any non-empty address so a
// newly tracked chain does not silently drop every candidate.
func ValidAddress(chainID, address string) bool {
	switch {
	case evmChains[chainID]:
		return evmAddressPattern.MatchString(address)
	case chainID == "solana":
		if len(address) < 32 || len(address) > 44 {
			return false
		}
		_, err := base58.Decode(address)
		return err == nil
	default:
		return address != ""
	}
}
