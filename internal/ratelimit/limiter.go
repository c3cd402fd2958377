// Package ratelimit provides per-resource admission control bounding
// both concurrent in-flight calls and call starts per trailing window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Limiter admits at most maxCalls concurrent callers and at most
// maxCalls call starts within any trailing period. Acquire never fails
// except on context cancellation; it only delays.
type Limiter struct {
	maxCalls int
	period   time.Duration

	sem *semaphore.Weighted

	mu     sync.Mutex
	window []time.Time // call start times within the trailing period

	now func() time.Time
}

// NewLimiter creates a limiter admitting maxCalls per period with a
// concurrency budget of maxCalls.
func NewLimiter(maxCalls int, period time.Duration) *Limiter {
	if maxCalls < 1 {
		maxCalls = 1
	}
	return &Limiter{
		maxCalls: maxCalls,
		period:   period,
		sem:      semaphore.NewWeighted(int64(maxCalls)),
		now:      time.Now,
	}
}

// Acquire blocks until the caller may start a call. Every successful
// Acquire must be paired with exactly one Release on all exit paths.
func (l *Limiter) Acquire(ctx context.Context) error {
	// Concurrency budget first; semaphore waiters are served FIFO.
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.window) < l.maxCalls {
			l.window = append(l.window, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.period - now.Sub(l.window[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.sem.Release(1)
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release returns the concurrency slot. Window entries expire on their
// own with the trailing period.
func (l *Limiter) Release() {
	l.sem.Release(1)
}

// prune drops window entries older than the trailing period.
// Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	cut := 0
	for cut < len(l.window) && now.Sub(l.window[cut]) >= l.period {
		cut++
	}
	if cut > 0 {
		l.window = append(l.window[:0], l.window[cut:]...)
	}
}

// InFlight reports the number of start times currently in the window.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.window)
}

// Group is a named collection of limiters. Distinct names never share
// budgets; repeated Get calls for a name return the same limiter.
type Group struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewGroup creates an empty limiter group.
func NewGroup() *Group {
	return &Group{limiters: make(map[string]*Limiter)}
}

// Get returns the limiter registered under name, creating it with the
// given budget on first use. Later calls ignore maxCalls/period.
func (g *Group) Get(name string, maxCalls int, period time.Duration) *Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.limiters[name]; ok {
		return l
	}
	l := NewLimiter(maxCalls, period)
	g.limiters[name] = l
	return l
}
