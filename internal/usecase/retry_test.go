package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

func TestRetryDecide(t *testing.T) {
	cases := []struct {
		class    models.Classification
		attempts int
		max      int
		want     models.Action
	}{
		{models.Transient, 0, 3, models.ActionRetry},
		{models.Transient, 1, 3, models.ActionRetry},
		{models.Transient, 2, 3, models.ActionSkip},
		{models.Transient, 0, 1, models.ActionSkip},
		{models.Permanent, 0, 3, models.ActionSkip},
		{models.Fatal, 0, 3, models.ActionAbort},
		{models.Fatal, 5, 3, models.ActionAbort},
	}
	p := DefaultRetryPolicy()
	for _, tc := range cases {
		if got := p.Decide(tc.class, tc.attempts, tc.max); got != tc.want {
			t.Errorf("Decide(%s, %d, %d) = %s, want %s", tc.class, tc.attempts, tc.max, got, tc.want)
		}
	}
}

func TestRetryBackoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, Multiplier: 2}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := p.Backoff(i); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i, got, w)
		}
	}
	if got := p.Backoff(-1); got != time.Second {
		t.Errorf("Backoff(-1) = %v, want 1s", got)
	}
}

func TestRetryWaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := RetryPolicy{BaseDelay: time.Hour, Multiplier: 2}
	start := time.Now()
	if err := p.Wait(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("Wait did not return promptly")
	}
}
