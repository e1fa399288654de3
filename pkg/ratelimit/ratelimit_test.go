package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestDisabledLimiterNeverBlocks(t *testing.T) {
	limiter := NewLimiter(0, 0.5)

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("limiter with 0 rps should not block")
	}
}

func TestWaitPacesRequests(t *testing.T) {
	rps := 10.0 // 100ms between requests
	limiter := NewLimiter(rps, 0)
	defer limiter.Stop()

	ctx := context.Background()

	// The ticker starts counting on creation, burn the first slot.
	_ = limiter.Wait(ctx)

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	duration := time.Since(start)
	if duration < 50*time.Millisecond || duration > 150*time.Millisecond {
		t.Errorf("expected wait around 100ms, took %v", duration)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	limiter := NewLimiter(1, 0) // 1s between requests
	defer limiter.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatalf("expected context canceled error")
	}
}

func TestWaitWithJitter(t *testing.T) {
	rps := 10.0
	limiter := NewLimiter(rps, 0.5) // +/- 50ms around the 100ms interval
	defer limiter.Stop()

	ctx := context.Background()

	_ = limiter.Wait(ctx)

	start := time.Now()
	_ = limiter.Wait(ctx)

	duration := time.Since(start)

	// Negative jitter collapses to the plain tick, so the floor is the
	// interval itself; positive jitter adds up to 50ms. Allow slack for
	// scheduling.
	if duration < 50*time.Millisecond || duration > 300*time.Millisecond {
		t.Errorf("expected jittered wait roughly between 100ms and 150ms, took %v", duration)
	}
}
