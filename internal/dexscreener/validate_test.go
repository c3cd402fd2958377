package dexscreener

import (
	"strings"
	"testing"
)

func TestValidAddress_EVM(t *testing.T) {
	valid := "0x" + strings.Repeat("a1", 20) // 40 hex digits
	if !ValidAddress("ethereum", valid) {
		t.Errorf("40-hex 0x address rejected: %s", valid)
	}

	short := "0x" + strings.Repeat("a", 39)
	if ValidAddress("ethereum", short) {
		t.Errorf("39-hex address accepted: %s", short)
	}

	if ValidAddress("bsc", strings.Repeat("a1", 21)) {
		t.Error("address without 0x prefix accepted")
	}
	if ValidAddress("base", "0x"+strings.Repeat("g", 40)) {
		t.Error("non-hex address accepted")
	}
}

func TestValidAddress_Solana(t *testing.T) {
	// WSOL mint: base58, 43 chars.
	if !ValidAddress("solana", "So11111111111111111111111111111111111111112") {
		t.Error("valid solana mint rejected")
	}
	// 0 and O are outside the base58 alphabet.
	if ValidAddress("solana", strings.Repeat("0", 40)) {
		t.Error("non-base58 address accepted")
	}
	if ValidAddress("solana", "abc") {
		t.Error("too-short address accepted")
	}
	if ValidAddress("solana", strings.Repeat("1", 45)) {
		t.Error("too-long address accepted")
	}
}

func TestValidAddress_UnknownChain(t *testing.T) {
	if !ValidAddress("sui", "0xanything") {
		t.Error("unknown chain should accept non-empty addresses")
	}
	if ValidAddress("sui", "") {
		t.Error("unknown chain accepted empty address")
	}
}
