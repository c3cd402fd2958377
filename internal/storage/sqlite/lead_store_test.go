package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dexlead/internal/domain"
)

func openTestStore(t *testing.T) *LeadStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleLead() *domain.LeadRecord {
	return &domain.LeadRecord{
		Chain:        "solana",
		TokenName:    "Moon Cat",
		TokenSymbol:  "MCAT",
		TokenAddress: "So11111111111111111111111111111111111111112",
		PairAddress:  "PairAddr1111111111111111111111111111111111",
		URL:          "https://dexscreener.com/solana/pairaddr",
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		DiscoveredAt: time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC),
		Telegram:     "https://t.me/mooncat",
		Twitter:      "https://x.com/mooncat",
		Website:      "https://mooncat.io",
		Admins: []domain.TelegramAdmin{
			{Username: "alice", IsCreator: true},
			{Username: "bob"},
		},
		DeployerWallet: "DeployerWallet11111111111111111111111111111",
	}
}

func TestLeadStore_InsertLeadIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	lead := sampleLead()
	id1, err := store.InsertLead(ctx, lead)
	require.NoError(t, err)
	require.NotZero(t, id1)

	id2, err := store.InsertLead(ctx, lead)
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	leads, err := store.RecentLeads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	require.Len(t, leads[0].Admins, 2, "duplicate insert must not duplicate admin rows")
}

func TestLeadStore_TokenExistsIsCaseInsensitive(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	lead := sampleLead()
	lead.Chain = "ethereum"
	lead.TokenAddress = "0xAbCdEf0123456789abcdef0123456789ABCDEF01"
	_, err := store.InsertLead(ctx, lead)
	require.NoError(t, err)

	exists, err := store.TokenExists(ctx, "ethereum", "0xabcdef0123456789abcdef0123456789abcdef01")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = store.TokenExists(ctx, "ethereum", "0xABCDEF0123456789ABCDEF0123456789ABCDEF01")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = store.TokenExists(ctx, "bsc", "0xabcdef0123456789abcdef0123456789abcdef01")
	require.NoError(t, err)
	require.False(t, exists, "same address on another chain is a different token")
}

func TestLeadStore_RegisterTokenMarksSeenWithoutLead(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	reg := domain.RegistrationFor(&domain.TokenPair{
		Chain:        "base",
		TokenAddress: "0x0000000000000000000000000000000000000abc",
		TokenName:    "NoTG",
		TokenSymbol:  "NTG",
		PairAddress:  "0x0000000000000000000000000000000000000def",
		URL:          "https://dexscreener.com/base/pair",
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, store.RegisterToken(ctx, reg))
	require.NoError(t, store.RegisterToken(ctx, reg))

	exists, err := store.TokenExists(ctx, "base", reg.TokenAddress)
	require.NoError(t, err)
	require.True(t, exists)

	// Registered tokens carry no socials row and are not leads.
	leads, err := store.RecentLeads(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, leads)
}

func TestLeadStore_RecentLeadsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := sampleLead()
	second := sampleLead()
	second.TokenAddress = "So21111111111111111111111111111111111111112"
	second.TokenSymbol = "LATE"

	_, err := store.InsertLead(ctx, first)
	require.NoError(t, err)
	_, err = store.InsertLead(ctx, second)
	require.NoError(t, err)

	leads, err := store.RecentLeads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	require.Equal(t, "LATE", leads[0].TokenSymbol)
	require.Equal(t, "MCAT", leads[1].TokenSymbol)

	leads, err = store.RecentLeads(ctx, 1)
	require.NoError(t, err)
	require.Len(t, leads, 1)
}
