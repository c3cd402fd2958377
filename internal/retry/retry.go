// Package retry wraps fallible upstream calls with bounded retries and
// exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	maxAttempts     = 3
	initialInterval = 2 * time.Second
	maxInterval     = 10 * time.Second
)

// Notify observes one retry (not one attempt) before the backoff sleep.
type Notify func(err error, next time.Duration)

// Do runs op with up to 3 attempts. Between failed attempts it waits an
// exponential backoff bounded to [2s, 10s]; notify (if non-nil) fires
// once per retry before sleeping. On exhaustion the final error is
// returned unchanged.
func Do(ctx context.Context, op func() error, notify Notify) error {
	return do(ctx, op, notify, initialInterval, maxInterval)
}

func do(ctx context.Context, op func() error, notify Notify, initial, max time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.MaxInterval = max
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	var fn backoff.Notify
	if notify != nil {
		fn = func(err error, next time.Duration) { notify(err, next) }
	}
	return backoff.RetryNotify(
		op,
		backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx),
		fn,
	)
}
