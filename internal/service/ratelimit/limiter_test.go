package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowPerKey(t *testing.T) {
	l := New(0.001, 1)

	if !l.Allow("yahoo") {
		t.Fatal("first call should pass")
	}
	if l.Allow("yahoo") {
		t.Error("second call should be limited")
	}
	if !l.Allow("polygon") {
		t.Error("other keys have their own bucket")
	}
}

func TestUnlimited(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow("k") {
			t.Fatalf("call %d limited", i)
		}
	}
}

func TestWaitHonoursContext(t *testing.T) {
	l := New(0.001, 1)
	_ = l.Allow("k")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k"); err == nil {
		t.Error("expected wait to fail once the deadline cannot be met")
	}
}
