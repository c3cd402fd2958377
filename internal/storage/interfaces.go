// Package storage defines the durable lead store contract.
package storage

import (
	"context"

	"dexlead/internal/domain"
)

// LeadStore persists discovered tokens and qualified leads.
// Token addresses are matched case-insensitively: implementations store
// and compare the lowercased address.
type LeadStore interface {
	// TokenExists reports whether (chain, address) has been seen.
	TokenExists(ctx context.Context, chain, tokenAddress string) (bool, error)

	// InsertLead persists a full lead and returns its token id.
	// Idempotent: re-inserting an existing (chain, address) returns the
	// existing id without duplicating dependent rows.
	InsertLead(ctx context.Context, lead *domain.LeadRecord) (int64, error)

	// RegisterToken marks a token as seen with minimal fields so it is
	// not re-evaluated. No-op if the token is already present.
	RegisterToken(ctx context.Context, reg *domain.TokenRegistration) error

	// RecentLeads returns up to limit leads, newest first.
	RecentLeads(ctx context.Context, limit int) ([]*domain.LeadRecord, error)

	Close() error
}

// OutcomeStore is the optional append-only audit sink for
// qualification outcomes.
type OutcomeStore interface {
	InsertOutcome(ctx context.Context, e *domain.OutcomeEvent) error
	Close() error
}
