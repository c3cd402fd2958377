// Package sqlite is the default durable lead store, backed by a single
// SQLite connection in WAL mode.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dexlead/internal/domain"
	"dexlead/internal/storage"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// LeadStore implements storage.LeadStore on SQLite.
type LeadStore struct {
	db *sql.DB
}

var _ storage.LeadStore = (*LeadStore)(nil)

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string) (*LeadStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps multi-step writes serialized; the
	// dedup check can never observe a partially-written lead.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	schema, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &LeadStore{db: db}, nil
}

// Close closes the underlying connection.
func (s *LeadStore) Close() error { return s.db.Close() }

// TokenExists reports whether (chain, address) has been seen.
func (s *LeadStore) TokenExists(ctx context.Context, chain, tokenAddress string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM tokens WHERE chain = ? AND token_address = ?",
		chain, strings.ToLower(tokenAddress),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertLead persists a full lead across tokens/socials/admins/wallets
// in one transaction. Re-inserting an existing (chain, address) returns
// the existing id without touching dependent rows.
func (s *LeadStore) InsertLead(ctx context.Context, lead *domain.LeadRecord) (int64, error) {
	if lead == nil || lead.Chain == "" || lead.TokenAddress == "" {
		return 0, fmt.Errorf("%w: lead requires chain and token address", storage.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	addr := strings.ToLower(lead.TokenAddress)
	discovered := lead.DiscoveredAt
	if discovered.IsZero() {
		discovered = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO tokens
		   (chain, token_address, token_name, token_symbol,
		    pair_address, dexscreener_url, pair_created_at, discovered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.Chain, addr, lead.TokenName, lead.TokenSymbol,
		lead.PairAddress, lead.URL,
		lead.CreatedAt.UTC().Format(time.RFC3339Nano),
		discovered.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert token: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if inserted == 0 {
		var id int64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM tokens WHERE chain = ? AND token_address = ?",
			lead.Chain, addr,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("lookup existing token: %w", err)
		}
		return id, tx.Commit()
	}

	tokenID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO socials (token_id, telegram, twitter, website)
		 VALUES (?, ?, ?, ?)`,
		tokenID, nullStr(lead.Telegram), nullStr(lead.Twitter), nullStr(lead.Website),
	); err != nil {
		return 0, fmt.Errorf("insert socials: %w", err)
	}

	for _, admin := range lead.Admins {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO admins (token_id, username, is_creator) VALUES (?, ?, ?)",
			tokenID, admin.Username, boolInt(admin.IsCreator),
		); err != nil {
			return 0, fmt.Errorf("insert admin: %w", err)
		}
	}

	if lead.DeployerWallet != "" {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO wallets (token_id, deployer_wallet) VALUES (?, ?)",
			tokenID, lead.DeployerWallet,
		); err != nil {
			return 0, fmt.Errorf("insert wallet: %w", err)
		}
	}

	return tokenID, tx.Commit()
}

// RegisterToken marks a token as seen; no-op when already present.
func (s *LeadStore) RegisterToken(ctx context.Context, reg *domain.TokenRegistration) error {
	if reg == nil || reg.Chain == "" || reg.TokenAddress == "" {
		return fmt.Errorf("%w: registration requires chain and token address", storage.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tokens
		   (chain, token_address, token_name, token_symbol,
		    pair_address, dexscreener_url, pair_created_at, discovered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.Chain, strings.ToLower(reg.TokenAddress), reg.TokenName, reg.TokenSymbol,
		reg.PairAddress, reg.URL,
		reg.CreatedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// RecentLeads returns up to limit leads (tokens with a socials row),
// newest first.
func (s *LeadStore) RecentLeads(ctx context.Context, limit int) ([]*domain.LeadRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.chain, t.token_address, t.token_name, t.token_symbol,
		        t.pair_address, t.dexscreener_url, t.pair_created_at, t.discovered_at,
		        s.telegram, s.twitter, s.website, w.deployer_wallet
		 FROM tokens t
		 JOIN socials s ON s.token_id = t.id
		 LEFT JOIN wallets w ON w.token_id = t.id
		 ORDER BY t.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*domain.LeadRecord
	for rows.Next() {
		var (
			id                         int64
			lead                       domain.LeadRecord
			createdAt, discoveredAt    string
			telegram, twitter, website sql.NullString
			wallet                     sql.NullString
		)
		if err := rows.Scan(&id, &lead.Chain, &lead.TokenAddress, &lead.TokenName,
			&lead.TokenSymbol, &lead.PairAddress, &lead.URL,
			&createdAt, &discoveredAt, &telegram, &twitter, &website, &wallet,
		); err != nil {
			return nil, err
		}
		lead.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		lead.DiscoveredAt, _ = time.Parse(time.RFC3339Nano, discoveredAt)
		lead.Telegram = telegram.String
		lead.Twitter = twitter.String
		lead.Website = website.String
		lead.DeployerWallet = wallet.String

		admins, err := s.adminsFor(ctx, id)
		if err != nil {
			return nil, err
		}
		lead.Admins = admins
		leads = append(leads, &lead)
	}
	return leads, rows.Err()
}

func (s *LeadStore) adminsFor(ctx context.Context, tokenID int64) ([]domain.TelegramAdmin, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT username, is_creator FROM admins WHERE token_id = ? ORDER BY id", tokenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []domain.TelegramAdmin
	for rows.Next() {
		var a domain.TelegramAdmin
		var creator int
		if err := rows.Scan(&a.Username, &creator); err != nil {
			return nil, err
		}
		a.IsCreator = creator != 0
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
