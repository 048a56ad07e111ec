package retry

import (
	"context"
	"errors"
	"math"
	"time"

	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
)

// Policy bounds the retry loop around store calls that can be rate limited.
type Policy struct {
	MaxAttempts int
	// Base is the exponent base for the backoff schedule: base^attempt + extra.
	Base  float64
	Extra time.Duration
	// Sleep is swappable for tests; defaults to a context-aware timer wait.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry fires before each backoff sleep, carrying the 1-based attempt
	// number that just failed. Used to count retries in metrics.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy mirrors the production backoff schedule (1.5^i + 1s, 7 tries).
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 7, Base: 1.5, Extra: time.Second}
}

// Transient marks an error as retryable. Store adapters wrap provider
// rate-limit responses in this before returning them.
type Transient struct {
	Err error
}

func (t *Transient) Error() string {
	if t.Err == nil {
		return "transient store error"
	}
	return t.Err.Error()
}

func (t *Transient) Unwrap() error { return t.Err }

// IsTransient reports whether the error chain contains a retryable store error.
func IsTransient(err error) bool {
	var t *Transient
	if errors.As(err, &t) {
		return true
	}
	return errors.Is(err, appErrors.ErrRateLimited)
}

// Do invokes fn until it succeeds, returns a non-transient error, or the
// attempt budget is spent. The final attempt's error propagates unchanged.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 7
	}
	base := p.Base
	if base <= 1 {
		base = 1.5
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = waitTimer
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(i+1, err)
		}
		delay := time.Duration(math.Pow(base, float64(i))*float64(time.Second)) + p.Extra
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
	}
	return err
}

func waitTimer(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
