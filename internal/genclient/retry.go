package genclient

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy bounds the retry loop around every remote call. Delays double
// per attempt starting from BaseDelay, with a uniform random addition in
// [0, MaxJitter) so concurrent clients do not retry in lockstep.
type RetryPolicy struct {
	MaxRetries int           // attempts after the first; total calls = MaxRetries+1
	BaseDelay  time.Duration // delay before the first retry
	MaxJitter  time.Duration // upper bound (exclusive) of the random addition

	// Sleep waits for d or until ctx is done. Nil means a timer-backed
	// default; tests inject a recorder.
	Sleep func(ctx context.Context, d time.Duration) error

	// Jitter returns a random duration in [0, max). Nil uses math/rand.
	Jitter func(max time.Duration) time.Duration
}

// DefaultRetryPolicy matches the documented budget: 4 total attempts with
// 2000, 4000, 8000 ms base delays plus up to 1000 ms of jitter each.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  2000 * time.Millisecond,
		MaxJitter:  1000 * time.Millisecond,
	}
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
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

func (p RetryPolicy) jitter() time.Duration {
	if p.MaxJitter <= 0 {
		return 0
	}
	if p.Jitter != nil {
		return p.Jitter(p.MaxJitter)
	}
	return time.Duration(rand.Int63n(int64(p.MaxJitter)))
}

// withRetry runs fn, retrying transient failures within the policy budget.
// Retries are strictly sequential; non-retryable errors and errors that
// outlive the budget are returned unchanged.
func withRetry[T any](ctx context.Context, log zerolog.Logger, p RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if !retryable(err) || attempt >= p.MaxRetries {
			return zero, err
		}
		delay := p.BaseDelay<<attempt + p.jitter()
		log.Warn().
			Str("op", op).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(err).
			Msg("transient generation failure, retrying")
		if serr := p.sleep(ctx, delay); serr != nil {
			return zero, serr
		}
	}
}
