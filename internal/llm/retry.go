package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryPolicy bounds attempts at an unreliable call. The delay after attempt n
// is Unit*2^n clamped to [MinDelay, MaxDelay], plus up to Jitter.
type RetryPolicy struct {
	MaxAttempts int
	Unit        time.Duration
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Jitter      time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy allows 3 attempts with 4-10s exponential backoff and no jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Unit:        time.Second,
		MinDelay:    4 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Backoff returns the wait after the given 1-based attempt, excluding jitter.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 30 {
		attempt = 30
	}
	d := p.Unit * time.Duration(1<<attempt)
	if d < p.MinDelay {
		d = p.MinDelay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// AttemptTimeout splits total evenly across MaxAttempts after reserving the
// worst-case waits between them.
func (p RetryPolicy) AttemptTimeout(total time.Duration) time.Duration {
	attempts := max(p.MaxAttempts, 1)
	remaining := total
	for i := 1; i < attempts; i++ {
		remaining -= p.Backoff(i) + p.Jitter
	}
	if remaining <= 0 {
		remaining = total
	}
	return remaining / time.Duration(attempts)
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Backoff(attempt)
	if p.Jitter > 0 {
		d += rand.N(p.Jitter)
	}
	return d
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext waits for d without blocking other goroutines, returning early
// with ctx.Err() if ctx is cancelled.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryObserver is told about each failed attempt that will be retried.
type RetryObserver func(attempt int, err error, wait time.Duration)

// Retry calls fn until it succeeds, returns a non-retryable error, ctx is
// done, or MaxAttempts is reached. Every failure is reported as
// *UpstreamError wrapping the last underlying error unchanged.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error), observe RetryObserver) (T, error) {
	var zero T
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, &UpstreamError{Attempts: attempt - 1, Cause: errors.Join(err, lastErr)}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts || !IsRetryable(err) {
			return zero, &UpstreamError{Attempts: attempt, Cause: err}
		}

		wait := policy.delay(attempt)
		if observe != nil {
			observe(attempt, err, wait)
		}
		if err := policy.sleep(ctx, wait); err != nil {
			return zero, &UpstreamError{Attempts: attempt, Cause: errors.Join(err, lastErr)}
		}
	}

	return zero, &UpstreamError{Attempts: attempts, Cause: lastErr}
}
