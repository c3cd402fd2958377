package clickhouse

import (
	"context"
	"fmt"

	"dexlead/internal/domain"
	"dexlead/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using ClickHouse.
type OutcomeStore struct {
	conn *Conn
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(conn *Conn) *OutcomeStore {
	return &OutcomeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// InsertOutcome appends one qualification outcome row.
func (s *OutcomeStore) InsertOutcome(ctx context.Context, ev *domain.OutcomeEvent) error {
	if ev == nil {
		return storage.ErrInvalidInput
	}

	err := s.conn.Exec(ctx, `
		INSERT INTO lead_outcomes (
			cycle, chain, token_address, token_symbol, outcome, reason, at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		ev.Cycle, ev.Chain, ev.TokenAddress, ev.TokenSymbol,
		string(ev.Outcome), ev.Reason, ev.At,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *OutcomeStore) Close() error {
	return s.conn.Close()
}
