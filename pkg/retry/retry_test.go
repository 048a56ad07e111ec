package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
)

func noSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	var delays []time.Duration
	policy := Policy{MaxAttempts: 7, Base: 1.5, Extra: time.Second, Sleep: noSleep(&delays)}

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &Transient{Err: errors.New("429 quota exceeded")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, delays, 2)
	// Schedule grows: 1.5^0+1=2s, 1.5^1+1=2.5s.
	assert.Equal(t, 2*time.Second, delays[0])
	assert.Equal(t, 2500*time.Millisecond, delays[1])
	assert.Greater(t, delays[1], delays[0])
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	var delays []time.Duration
	policy := Policy{MaxAttempts: 3, Base: 1.5, Extra: time.Second, Sleep: noSleep(&delays)}

	calls := 0
	transient := &Transient{Err: errors.New("rate limited")}
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return transient
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
	assert.True(t, IsTransient(err))
}

func TestDoPassesThroughPermanentErrors(t *testing.T) {
	var delays []time.Duration
	policy := Policy{MaxAttempts: 7, Base: 1.5, Sleep: noSleep(&delays)}

	permanent := errors.New("syntax error")
	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDoRetriesRateLimitedAppError(t *testing.T) {
	var delays []time.Duration
	policy := Policy{MaxAttempts: 2, Base: 1.5, Sleep: noSleep(&delays)}

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return appErrors.ErrRateLimited
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoReportsEachRetry(t *testing.T) {
	var delays []time.Duration
	var attempts []int
	policy := Policy{MaxAttempts: 5, Base: 1.5, Sleep: noSleep(&delays), OnRetry: func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}}

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &Transient{Err: errors.New("rate limited")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 5, Base: 1.5, Sleep: func(c context.Context, _ time.Duration) error {
		cancel()
		return c.Err()
	}}

	err := policy.Do(ctx, func(ctx context.Context) error {
		return &Transient{Err: errors.New("rate limited")}
	})
	require.ErrorIs(t, err, context.Canceled)
}
