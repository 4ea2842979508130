package assembly

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/reportgen/internal/genai"
)

// Gate bounds the total number of in-flight external calls process-wide,
// independent of how many scheduler branches are runnable.
type Gate struct {
	slots chan struct{}
}

// NewGate creates a gate admitting at most n concurrent calls.
func NewGate(n int) *Gate {
	if n <= 0 {
		n = 1
	}
	return &Gate{slots: make(chan struct{}, n)}
}

func (g *Gate) acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gate) release() {
	<-g.slots
}

// RetryPolicy controls the backoff schedule for external calls.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	CallTimeout    time.Duration
}

// DefaultRetryPolicy mirrors the generation backend limits.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		CallTimeout:    60 * time.Second,
	}
}

// backoff returns the wait before retry attempt n (0-indexed), with jitter.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	base := p.InitialBackoff << uint(attempt)
	if base > p.MaxBackoff {
		base = p.MaxBackoff
	}
	if base <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int64N(int64(base)/2 + 1))
	return base + jitter
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *genai.RetryableError
	return errors.As(err, &retryErr)
}

// Call runs op through the gate with the policy's per-attempt timeout,
// retrying retryable failures with exponential backoff. After the attempts
// are exhausted the last error is returned unchanged so the caller can apply
// its own failure policy.
func Call[T any](ctx context.Context, gate *Gate, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := range policy.MaxAttempts {
		if attempt > 0 {
			select {
			case <-time.After(policy.backoff(attempt - 1)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		if err := gate.acquire(ctx); err != nil {
			return zero, err
		}
		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if policy.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, policy.CallTimeout)
		}
		result, err := op(callCtx)
		cancel()
		gate.release()

		if err == nil {
			return result, nil
		}
		// A timed-out attempt is a transient failure like any other.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = &genai.RetryableError{Message: "call timed out"}
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}
	return zero, lastErr
}
