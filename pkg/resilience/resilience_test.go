package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vidquest/engine/pkg/fn"
)

func failing(_ context.Context) error { return fmt.Errorf("boom") }
func succeeding(_ context.Context) error { return nil }

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Call(context.Background(), failing); err == nil {
			t.Fatal("expected error")
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open after threshold, got %s", b.State())
	}
	if err := b.Call(context.Background(), succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker must reject, got %v", err)
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	base := time.Now()
	b.now = func() time.Time { return base }

	b.Call(context.Background(), failing)
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	base = base.Add(11 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", b.State())
	}

	if err := b.Call(context.Background(), succeeding); err != nil {
		t.Fatalf("probe should pass: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("success in half-open should close, got %s", b.State())
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})
	b.Call(context.Background(), failing)
	b.Call(context.Background(), succeeding)
	b.Call(context.Background(), failing)
	if b.State() != StateClosed {
		t.Errorf("non-consecutive failures must not trip, got %s", b.State())
	}
}

func TestBreakerStage(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})
	stage := BreakerStage(b, fn.Stage[int, int](func(_ context.Context, n int) fn.Result[int] {
		return fn.Errf[int]("stage down")
	}))

	stage(context.Background(), 1)

	r := stage(context.Background(), 1)
	if _, err := r.Unwrap(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected circuit open, got %v", err)
	}
}

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 1, Burst: 2})
	if !l.Allow() || !l.Allow() {
		t.Fatal("burst tokens should be available")
	}
	if l.Allow() {
		t.Error("third immediate call should be limited")
	}
}

func TestLimiter_Refill(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 10, Burst: 1})
	base := time.Now()
	l.now = func() time.Time { return base }

	if !l.Allow() {
		t.Fatal("first token expected")
	}
	if l.Allow() {
		t.Fatal("bucket should be empty")
	}

	base = base.Add(200 * time.Millisecond) // 2 tokens at rate 10, capped at burst 1
	if !l.Allow() {
		t.Error("token should refill over time")
	}
	if l.Allow() {
		t.Error("refill must cap at burst")
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0.001, Burst: 1})
	l.Allow() // drain

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
