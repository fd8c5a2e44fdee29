package retry

import (
	"context"
	"fmt"
	"time"

	apperrors "interview-eval-go/internal/platform/errors"
)

const maxBackoff = time.Minute

// Policy is a bounded exponential backoff schedule. Only transient
// errors are retried; anything else fails on first sight.
type Policy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultPolicy matches the pipeline default of three attempts.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Backoff: 500 * time.Millisecond}
}

// Do runs fn until it succeeds, fails non-transiently, or the attempt
// ceiling is reached. An exhausted ceiling escalates to a stage failure.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	backoff := p.Backoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !apperrors.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return apperrors.Wrap(apperrors.KindStage, op, "cancelled while backing off", ctx.Err())
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	return apperrors.Wrap(apperrors.KindStage, op,
		fmt.Sprintf("failed after %d attempts", attempts), lastErr)
}
