package session

import (
	"context"
	"time"
)

// DefaultBackoff is the pause before the single rate-limit retry.
const DefaultBackoff = 1500 * time.Millisecond

// RetryPolicy decides how long a rate-limited sign-in waits before its one
// retry. Sleep is replaceable in tests; it must return ctx.Err() when the
// context ends first.
type RetryPolicy struct {
	Backoff time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Backoff: DefaultBackoff}
}

func (p RetryPolicy) wait(ctx context.Context) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, p.Backoff)
	}
	return sleep(ctx, p.Backoff)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
