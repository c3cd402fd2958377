// Package metrics provides the process-lifetime event counter accumulator.
// An explicit *Counters instance is passed into every component that
// records events; there is no global singleton.
package metrics

import (
	"sort"
	"sync"
)

// Event names recorded across the pipeline. Components may also record
// ad-hoc names (e.g. per-service attempt/error counters) built with
// Attempt/Failure.
const (
	EventPolls             = "polls"
	EventDiscoveries       = "discoveries"
	EventProcessed         = "processed"
	EventNotified          = "notified"
	EventNotifyFailed      = "notify_failed"
	EventSkippedTotal      = "skipped_total"
	EventRegisteredSkipped = "registered_skipped"

	EventProfileCalls     = "profile_calls"
	EventProfileFailures  = "profile_failures"
	EventPairCalls        = "pair_calls"
	EventPairFailures     = "pair_failures"
	EventParseFailures    = "parse_failures"
	EventFreshnessSkipped = "freshness_skipped"
	EventRetryEvents      = "retry_events"

	EventWalletLookupOK    = "wallet_lookup_ok"
	EventWalletLookupMiss  = "wallet_lookup_miss"
	EventWalletLookupError = "wallet_lookup_error"
)

// Skip reasons; each maps to the "skipped_<reason>" event.
const (
	SkipAlreadySeen     = "already_seen"
	SkipSocialError     = "social_error"
	SkipNoTelegram      = "no_telegram"
	SkipNoVisibleAdmins = "no_visible_admins"
	SkipAdminsHidden    = "admins_hidden"
)

// SkipEvent returns the counter name for a skip reason.
func SkipEvent(reason string) string { return "skipped_" + reason }

// Attempt returns the attempt counter name for a collaborator service.
func Attempt(service string) string { return "attempts_" + service }

// Failure returns the error counter name for a collaborator service.
func Failure(service string) string { return "errors_" + service }

// Counters is a set of monotonically increasing event counters.
// Counters are accumulated for the process lifetime and never reset.
// Safe for concurrent use.
type Counters struct {
	mu     sync.Mutex
	counts map[string]uint64
}

// NewCounters creates an empty accumulator.
func NewCounters() *Counters {
	return &Counters{counts: make(map[string]uint64)}
}

// Inc increments event by one.
func (c *Counters) Inc(event string) { c.Add(event, 1) }

// Add increments event by n.
func (c *Counters) Add(event string, n uint64) {
	c.mu.Lock()
	c.counts[event] += n
	c.mu.Unlock()
}

// Get returns the current value of event.
func (c *Counters) Get(event string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[event]
}

// Snapshot returns a copy of all counters.
func (c *Counters) Snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Events returns the sorted list of event names seen so far.
func (c *Counters) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.counts))
	for k := range c.counts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
