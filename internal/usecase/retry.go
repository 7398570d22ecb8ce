package usecase

import (
	"context"
	"math"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

// RetryPolicy decides what happens after a failed attempt. It holds only
// configuration, so one value can be shared by every worker.
type RetryPolicy struct {
	BaseDelay  time.Duration
	Multiplier float64
}

// DefaultRetryPolicy waits 1s, 2s, 4s, ...
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{BaseDelay: time.Second, Multiplier: 2}
}

// Decide: attemptsSoFar is the zero-based index of the attempt that just failed.
func (p RetryPolicy) Decide(class models.Classification, attemptsSoFar, maxAttempts int) models.Action {
	switch class {
	case models.Fatal:
		return models.ActionAbort
	case models.Transient:
		if attemptsSoFar < maxAttempts-1 {
			return models.ActionRetry
		}
		return models.ActionSkip
	default:
		return models.ActionSkip
	}
}

// Backoff returns BaseDelay * Multiplier^attemptsSoFar.
func (p RetryPolicy) Backoff(attemptsSoFar int) time.Duration {
	if attemptsSoFar < 0 {
		attemptsSoFar = 0
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attemptsSoFar)))
}

// Wait blocks the calling goroutine for the backoff delay.
func (p RetryPolicy) Wait(ctx context.Context, attemptsSoFar int) error {
	return sleep(ctx, p.Backoff(attemptsSoFar))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
