package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dexlead/internal/domain"
	"dexlead/internal/storage"
)

// LeadStore implements storage.LeadStore using PostgreSQL.
type LeadStore struct {
	pool *Pool
}

// NewLeadStore creates a new LeadStore.
func NewLeadStore(pool *Pool) *LeadStore {
	return &LeadStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LeadStore = (*LeadStore)(nil)

// TokenExists reports whether (chain, address) has been seen.
func (s *LeadStore) TokenExists(ctx context.Context, chain, tokenAddress string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tokens WHERE chain = $1 AND token_address = $2)`

	var exists bool
	err := s.pool.QueryRow(ctx, query, chain, strings.ToLower(tokenAddress)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check token exists: %w", err)
	}
	return exists, nil
}

// InsertLead persists a full lead in one transaction. Re-inserting an
// existing (chain, address) returns the existing id and leaves the
// dependent rows untouched.
func (s *LeadStore) InsertLead(ctx context.Context, lead *domain.LeadRecord) (int64, error) {
	if lead == nil || lead.Chain == "" || lead.TokenAddress == "" {
		return 0, fmt.Errorf("%w: lead requires chain and token address", storage.ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	addr := strings.ToLower(lead.TokenAddress)
	discovered := lead.DiscoveredAt
	if discovered.IsZero() {
		discovered = time.Now().UTC()
	}

	var tokenID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO tokens (
			chain, token_address, token_name, token_symbol,
			pair_address, dexscreener_url, pair_created_at, discovered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (chain, token_address) DO NOTHING
		RETURNING id
	`,
		lead.Chain, addr, lead.TokenName, lead.TokenSymbol,
		lead.PairAddress, lead.URL, lead.CreatedAt.UTC(), discovered,
	).Scan(&tokenID)
	if isNotFoundError(err) {
		// Conflict path: the token is already there.
		err = tx.QueryRow(ctx,
			`SELECT id FROM tokens WHERE chain = $1 AND token_address = $2`,
			lead.Chain, addr,
		).Scan(&tokenID)
		if err != nil {
			return 0, fmt.Errorf("lookup existing token: %w", err)
		}
		return tokenID, tx.Commit(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("insert token: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO socials (token_id, telegram, twitter, website)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token_id) DO NOTHING
	`, tokenID, nullStr(lead.Telegram), nullStr(lead.Twitter), nullStr(lead.Website))
	if err != nil {
		return 0, fmt.Errorf("insert socials: %w", err)
	}

	for _, admin := range lead.Admins {
		_, err = tx.Exec(ctx,
			`INSERT INTO admins (token_id, username, is_creator) VALUES ($1, $2, $3)`,
			tokenID, admin.Username, admin.IsCreator,
		)
		if err != nil {
			return 0, fmt.Errorf("insert admin: %w", err)
		}
	}

	if lead.DeployerWallet != "" {
		_, err = tx.Exec(ctx, `
			INSERT INTO wallets (token_id, deployer_wallet)
			VALUES ($1, $2)
			ON CONFLICT (token_id) DO NOTHING
		`, tokenID, lead.DeployerWallet)
		if err != nil {
			return 0, fmt.Errorf("insert wallet: %w", err)
		}
	}

	return tokenID, tx.Commit(ctx)
}

// RegisterToken marks a token as seen; no-op when already present.
func (s *LeadStore) RegisterToken(ctx context.Context, reg *domain.TokenRegistration) error {
	if reg == nil || reg.Chain == "" || reg.TokenAddress == "" {
		return fmt.Errorf("%w: registration requires chain and token address", storage.ErrInvalidInput)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (
			chain, token_address, token_name, token_symbol,
			pair_address, dexscreener_url, pair_created_at, discovered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (chain, token_address) DO NOTHING
	`,
		reg.Chain, strings.ToLower(reg.TokenAddress), reg.TokenName, reg.TokenSymbol,
		reg.PairAddress, reg.URL, reg.CreatedAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("register token: %w", err)
	}
	return nil
}

// RecentLeads returns up to limit leads (tokens with a socials row),
// newest first.
func (s *LeadStore) RecentLeads(ctx context.Context, limit int) ([]*domain.LeadRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.chain, t.token_address, t.token_name, t.token_symbol,
		       t.pair_address, t.dexscreener_url, t.pair_created_at, t.discovered_at,
		       s.telegram, s.twitter, s.website, w.deployer_wallet
		FROM tokens t
		JOIN socials s ON s.token_id = t.id
		LEFT JOIN wallets w ON w.token_id = t.id
		ORDER BY t.id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent leads: %w", err)
	}
	defer rows.Close()

	var leads []*domain.LeadRecord
	var ids []int64
	for rows.Next() {
		var (
			id                         int64
			lead                       domain.LeadRecord
			telegram, twitter, website *string
			wallet                     *string
		)
		err := rows.Scan(&id, &lead.Chain, &lead.TokenAddress, &lead.TokenName,
			&lead.TokenSymbol, &lead.PairAddress, &lead.URL,
			&lead.CreatedAt, &lead.DiscoveredAt, &telegram, &twitter, &website, &wallet)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		lead.Telegram = deref(telegram)
		lead.Twitter = deref(twitter)
		lead.Website = deref(website)
		lead.DeployerWallet = deref(wallet)
		leads = append(leads, &lead)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		admins, err := s.adminsFor(ctx, id)
		if err != nil {
			return nil, err
		}
		leads[i].Admins = admins
	}
	return leads, nil
}

// Close is a no-op; the pool is owned by the caller.
func (s *LeadStore) Close() error { return nil }

func (s *LeadStore) adminsFor(ctx context.Context, tokenID int64) ([]domain.TelegramAdmin, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT username, is_creator FROM admins WHERE token_id = $1 ORDER BY id`, tokenID)
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	var admins []domain.TelegramAdmin
	for rows.Next() {
		var a domain.TelegramAdmin
		if err := rows.Scan(&a.Username, &a.IsCreator); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
