package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dexlead/internal/metrics"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *metrics.Counters) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	counters := metrics.NewCounters()
	c := New(Options{
		BaseURL:              srv.URL,
		TrackedChains:        []string{"ethereum", "solana"},
		MaxTokenAge:          15 * time.Minute,
		MaxProfilesPerPoll:   30,
		PairFetchConcurrency: 4,
		Counters:             counters,
		Logger:               zerolog.Nop(),
	})
	return c, counters
}

func TestLatestTokenProfiles_List(t *testing.T) {
	c, counters := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token-profiles/latest/v1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"chainId":"ethereum","tokenAddress":"0xabc","links":[]}]`))
	}))

	profiles, err := c.LatestTokenProfiles(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 1 || profiles[0].ChainID != "ethereum" {
		t.Errorf("profiles = %+v", profiles)
	}
	if counters.Get(metrics.EventProfileCalls) != 1 {
		t.Errorf("profile_calls = %d, want 1", counters.Get(metrics.EventProfileCalls))
	}
}

func TestLatestTokenProfiles_NonListDegradesToEmpty(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"maintenance"}`))
	}))

	profiles, err := c.LatestTokenProfiles(context.Background())
	if err != nil {
		t.Fatalf("non-list body must not error: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("profiles = %+v, want empty", profiles)
	}
}

func TestPairsByToken_BareList(t *testing.T) {
	c, counters := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token-pairs/v1/ethereum/0xabc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"pairAddress":"0xdef","baseToken":{"symbol":"TKN"}}]`))
	}))

	pairs, err := c.PairsByToken(context.Background(), "ethereum", "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].BaseToken.Symbol != "TKN" {
		t.Errorf("pairs = %+v", pairs)
	}
	if counters.Get(metrics.EventPairCalls) != 1 {
		t.Errorf("pair_calls = %d, want 1", counters.Get(metrics.EventPairCalls))
	}
}

func TestPairsByToken_EnvelopeWrapper(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[{"pairAddress":"0xdef"},{"pairAddress":"0x123"}]}`))
	}))

	pairs, err := c.PairsByToken(context.Background(), "ethereum", "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 2 {
		t.Errorf("pairs = %+v, want 2 entries", pairs)
	}
}

func TestDiscoverNewTokens_ProfileFailureDegradesToZero(t *testing.T) {
	c, counters := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	// Cancel during the first backoff so the test stays fast; the
	// surfaced error is caught at the discovery boundary either way.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	discoveries := c.DiscoverNewTokens(ctx)
	if len(discoveries) != 0 {
		t.Errorf("discoveries = %d, want 0", len(discoveries))
	}
	if counters.Get(metrics.EventProfileFailures) != 1 {
		t.Errorf("profile_failures = %d, want 1", counters.Get(metrics.EventProfileFailures))
	}
}
