package genclient

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder captures requested delays without actually waiting.
func sleepRecorder(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func testPolicy(delays *[]time.Duration, jitter func(time.Duration) time.Duration) RetryPolicy {
	p := DefaultRetryPolicy()
	p.Sleep = sleepRecorder(delays)
	p.Jitter = jitter
	return p
}

func noJitter(time.Duration) time.Duration { return 0 }

func TestWithRetryExhaustsBudgetOnRateLimit(t *testing.T) {
	var delays []time.Duration
	p := testPolicy(&delays, noJitter)

	rateLimited := &StatusError{Code: http.StatusTooManyRequests, Message: "slow down"}
	calls := 0
	_, err := withRetry(context.Background(), zerolog.Nop(), p, "test", func(context.Context) (string, error) {
		calls++
		return "", rateLimited
	})

	require.Error(t, err)
	// budget exhaustion propagates the last error unchanged
	assert.Same(t, rateLimited, err)
	assert.Equal(t, 4, calls, "one initial attempt plus three retries")
	assert.Equal(t, []time.Duration{2000 * time.Millisecond, 4000 * time.Millisecond, 8000 * time.Millisecond}, delays)
}

func TestWithRetryRetriesServiceUnavailable(t *testing.T) {
	var delays []time.Duration
	p := testPolicy(&delays, noJitter)

	calls := 0
	out, err := withRetry(context.Background(), zerolog.Nop(), p, "test", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{Code: http.StatusServiceUnavailable}
		}
		return "recovered", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
}

func TestWithRetryDoesNotRetryClientErrors(t *testing.T) {
	var delays []time.Duration
	p := testPolicy(&delays, noJitter)

	badRequest := &StatusError{Code: http.StatusBadRequest, Message: "bad prompt"}
	calls := 0
	_, err := withRetry(context.Background(), zerolog.Nop(), p, "test", func(context.Context) (int, error) {
		calls++
		return 0, badRequest
	})

	assert.Same(t, badRequest, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays, "a non-retryable error never waits")
}

func TestWithRetryRetriesQuotaTextMarker(t *testing.T) {
	var delays []time.Duration
	p := testPolicy(&delays, noJitter)

	calls := 0
	_, err := withRetry(context.Background(), zerolog.Nop(), p, "test", func(context.Context) (string, error) {
		calls++
		return "", errors.New("generativelanguage: RESOURCE_EXHAUSTED for model")
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Len(t, delays, 3)
}

func TestWithRetryJitterBounds(t *testing.T) {
	var delays []time.Duration
	p := testPolicy(&delays, nil)
	rng := rand.New(rand.NewSource(42))
	p.Jitter = func(max time.Duration) time.Duration {
		return time.Duration(rng.Int63n(int64(max)))
	}

	_, err := withRetry(context.Background(), zerolog.Nop(), p, "test", func(context.Context) (string, error) {
		return "", &StatusError{Code: http.StatusTooManyRequests}
	})
	require.Error(t, err)

	var total time.Duration
	base := []time.Duration{2000 * time.Millisecond, 4000 * time.Millisecond, 8000 * time.Millisecond}
	for i, d := range delays {
		assert.GreaterOrEqual(t, d, base[i])
		assert.Less(t, d, base[i]+1000*time.Millisecond)
		total += d
	}
	assert.GreaterOrEqual(t, total, 14000*time.Millisecond)
	assert.Less(t, total, 17000*time.Millisecond)
}

func TestWithRetryStopsWhenContextCancelled(t *testing.T) {
	p := DefaultRetryPolicy()
	p.Jitter = noJitter
	p.Sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	calls := 0
	_, err := withRetry(context.Background(), zerolog.Nop(), p, "test", func(context.Context) (string, error) {
		calls++
		return "", &StatusError{Code: http.StatusServiceUnavailable}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryablePredicate(t *testing.T) {
	assert.True(t, retryable(&StatusError{Code: 429}))
	assert.True(t, retryable(&StatusError{Code: 503}))
	assert.True(t, retryable(errors.New("model quota exceeded")))
	assert.True(t, retryable(errors.New("rate limit hit, try later")))
	assert.False(t, retryable(&StatusError{Code: 400}))
	assert.False(t, retryable(&StatusError{Code: 500}))
	assert.False(t, retryable(errors.New("connection reset")))
	assert.False(t, retryable(nil))
}
