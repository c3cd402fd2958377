// Package memory provides in-memory store implementations for tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"dexlead/internal/domain"
	"dexlead/internal/storage"
)

type tokenRow struct {
	id   int64
	lead *domain.LeadRecord // nil for bare registrations
}

// LeadStore is an in-memory LeadStore implementation.
type LeadStore struct {
	mu     sync.RWMutex
	tokens map[string]*tokenRow // key: chain|lower(address)
	nextID int64
}

var _ storage.LeadStore = (*LeadStore)(nil)

// NewLeadStore creates an empty in-memory lead store.
func NewLeadStore() *LeadStore {
	return &LeadStore{tokens: make(map[string]*tokenRow), nextID: 1}
}

func key(chain, tokenAddress string) string {
	return chain + "|" + strings.ToLower(tokenAddress)
}

// TokenExists reports whether (chain, address) has been seen.
func (s *LeadStore) TokenExists(_ context.Context, chain, tokenAddress string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[key(chain, tokenAddress)]
	return ok, nil
}

// InsertLead persists a lead. Re-inserting an existing (chain, address)
// returns the existing id and changes nothing.
func (s *LeadStore) InsertLead(_ context.Context, lead *domain.LeadRecord) (int64, error) {
	if lead == nil || lead.Chain == "" || lead.TokenAddress == "" {
		return 0, fmt.Errorf("%w: lead requires chain and token address", storage.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(lead.Chain, lead.TokenAddress)
	if row, ok := s.tokens[k]; ok {
		return row.id, nil
	}

	cp := *lead
	cp.TokenAddress = strings.ToLower(lead.TokenAddress)
	cp.Admins = append([]domain.TelegramAdmin(nil), lead.Admins...)
	row := &tokenRow{id: s.nextID, lead: &cp}
	s.nextID++
	s.tokens[k] = row
	return row.id, nil
}

// RegisterToken marks a token as seen; no-op when already present.
func (s *LeadStore) RegisterToken(_ context.Context, reg *domain.TokenRegistration) error {
	if reg == nil || reg.Chain == "" || reg.TokenAddress == "" {
		return fmt.Errorf("%w: registration requires chain and token address", storage.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(reg.Chain, reg.TokenAddress)
	if _, ok := s.tokens[k]; ok {
		return nil
	}
	s.tokens[k] = &tokenRow{id: s.nextID}
	s.nextID++
	return nil
}

// RecentLeads returns up to limit stored leads, newest first.
func (s *LeadStore) RecentLeads(_ context.Context, limit int) ([]*domain.LeadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*tokenRow, 0, len(s.tokens))
	for _, row := range s.tokens {
		if row.lead != nil {
			rows = append(rows, row)
		}
	}
	// Descending id is insertion order, newest first.
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			if rows[j].id > rows[i].id {
				rows[i], rows[j] = rows[j], rows[i]
			}
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]*domain.LeadRecord, len(rows))
	for i, row := range rows {
		out[i] = row.lead
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *LeadStore) Close() error { return nil }

// LeadCount reports the number of full leads stored (test helper).
func (s *LeadStore) LeadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, row := range s.tokens {
		if row.lead != nil {
			n++
		}
	}
	return n
}

// RegisteredCount reports the number of bare seen markers (test helper).
func (s *LeadStore) RegisteredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, row := range s.tokens {
		if row.lead == nil {
			n++
		}
	}
	return n
}
