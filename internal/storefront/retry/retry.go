// Package retry provides the bounded retry combinator shared by every
// resilience layer (clicks, checkbox verification, readiness polling).
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
)

// Budget bounds a resilience operation to Attempts tries spaced Interval
// apart. Total wall-clock time never exceeds Attempts × Interval.
type Budget struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

// Total returns the wall-clock ceiling of the budget.
func (b Budget) Total() time.Duration {
	return time.Duration(b.Attempts) * b.Interval
}

// Valid reports whether the budget allows at least one attempt.
func (b Budget) Valid() bool {
	return b.Attempts > 0 && b.Interval > 0
}

func (b Budget) String() string {
	return fmt.Sprintf("%d×%s", b.Attempts, b.Interval)
}

// Within builds a budget spanning timeout with the given interval.
func Within(timeout, interval time.Duration) Budget {
	attempts := int(timeout / interval)
	if attempts < 1 {
		attempts = 1
	}
	return Budget{Attempts: attempts, Interval: interval}
}

// Stop marks err as non-retryable; Do returns it immediately.
func Stop(err error) error {
	return backoff.Permanent(err)
}

// Do calls op until it returns nil, the budget is spent, or op returns an
// error wrapped with Stop. The context handed to op expires with the budget.
// On exhaustion the last error from op is returned.
func Do(ctx context.Context, b Budget, op func(ctx context.Context) error) error {
	if !b.Valid() {
		return fmt.Errorf("invalid retry budget %s", b)
	}

	ctx, cancel := context.WithTimeout(ctx, b.Total())
	defer cancel()

	var lastErr error
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(b.Interval), uint64(b.Attempts-1)),
		ctx,
	)

	err := backoff.Retry(func() error {
		lastErr = op(ctx)
		return lastErr
	}, policy)
	if err == nil {
		return nil
	}

	// Budget deadline hit between attempts: report what op last saw.
	if errors.Is(err, context.DeadlineExceeded) && lastErr != nil {
		return lastErr
	}
	return err
}

// Poll evaluates pred until it reports true. Exhausting the budget yields
// storefront.ErrTimeout; an error from pred is retried like a false result
// unless wrapped with Stop, in which case it is returned as is.
func Poll(ctx context.Context, b Budget, pred func(ctx context.Context) (bool, error)) error {
	var stopped, lastErr error

	err := Do(ctx, b, func(ctx context.Context) error {
		ok, err := pred(ctx)
		if err != nil {
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				stopped = perm.Err
			}
			lastErr = err
			return err
		}
		lastErr = nil
		if !ok {
			return errNotYet
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case stopped != nil:
		return stopped
	case ctx.Err() != nil:
		return ctx.Err()
	case lastErr != nil:
		return fmt.Errorf("%w after %s: %v", storefront.ErrTimeout, b.Total(), lastErr)
	default:
		return fmt.Errorf("%w after %s", storefront.ErrTimeout, b.Total())
	}
}

var errNotYet = errors.New("condition not met")
