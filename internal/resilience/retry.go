package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/spigell/meetmatch/internal/telemetry"
	"github.com/spigell/meetmatch/internal/utils"
)

const maxDelay = 60 * time.Second

var wait = utils.WaitFor

// Policy configures Retry. Delay is the initial backoff, doubled after each
// failed attempt and capped at one minute.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Retry returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry executes fn with exponential backoff and full jitter: the pause
// before each new attempt is a random duration in [0, current delay].
// It stops early when fn returns a Permanent error or ctx is done.
func Retry[T any](ctx context.Context, policy Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := policy.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	metrics := telemetry.Default()
	cur := policy.Delay

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		metrics.RetryAttempts.Add(ctx, 1)
		if err == nil {
			return v, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}

		lastErr = err
		if i == attempts-1 {
			break
		}

		if cur > maxDelay {
			cur = maxDelay
		}
		var pause time.Duration
		if cur > 0 {
			pause = time.Duration(rand.Int63n(int64(cur) + 1))
		}
		if err := wait(ctx, pause); err != nil {
			return zero, err
		}
		cur *= 2
	}

	return zero, lastErr
}
