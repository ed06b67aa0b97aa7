package fn

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestResult(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Error("Ok result misreported")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Errorf("unexpected unwrap: %v, %v", v, err)
	}

	e := Err[int](fmt.Errorf("boom"))
	if e.IsOk() {
		t.Error("Err result misreported")
	}
	if e.UnwrapOr(7) != 7 {
		t.Error("UnwrapOr should return fallback")
	}
}

func TestFromPair(t *testing.T) {
	if r := FromPair(1, error(nil)); r.IsErr() {
		t.Error("nil error should be Ok")
	}
	if r := FromPair(0, fmt.Errorf("x")); r.IsOk() {
		t.Error("non-nil error should be Err")
	}
}

func TestCollect(t *testing.T) {
	all := Collect([]Result[int]{Ok(1), Ok(2), Ok(3)})
	vals, err := all.Unwrap()
	if err != nil || len(vals) != 3 {
		t.Fatalf("unexpected collect: %v %v", vals, err)
	}

	failed := Collect([]Result[int]{Ok(1), Err[int](fmt.Errorf("boom")), Ok(3)})
	if failed.IsOk() {
		t.Error("collect should fail on first error")
	}
}

func TestThen(t *testing.T) {
	double := MapStage(func(n int) int { return n * 2 })
	toStr := MapStage(func(n int) string { return fmt.Sprintf("%d", n) })

	stage := Then(double, toStr)
	got, err := stage(context.Background(), 21).Unwrap()
	if err != nil || got != "42" {
		t.Errorf("unexpected: %q %v", got, err)
	}

	failing := Stage[int, int](func(_ context.Context, _ int) Result[int] {
		return Errf[int]("stage failed")
	})
	r := Then(failing, double)(context.Background(), 1)
	if r.IsOk() {
		t.Error("error should short-circuit")
	}
}

func TestBatchStage(t *testing.T) {
	square := MapStage(func(n int) int { return n * n })
	batch := BatchStage(2, square)

	got, err := batch(context.Background(), []int{1, 2, 3, 4}).Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []int{1, 4, 9, 16} {
		if got[i] != want {
			t.Errorf("order must be preserved: got[%d]=%d want %d", i, got[i], want)
		}
	}
}

func TestParMapResult_Order(t *testing.T) {
	items := []int{5, 4, 3, 2, 1}
	results := ParMapResult(items, 3, func(n int) Result[int] {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return Ok(n * 10)
	})
	for i, r := range results {
		v, _ := r.Unwrap()
		if v != items[i]*10 {
			t.Errorf("results out of order at %d: %d", i, v)
		}
	}
}

func TestRetry(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond}

	r := Retry(context.Background(), opts, func(_ context.Context) Result[string] {
		attempts++
		if attempts < 3 {
			return Errf[string]("transient")
		}
		return Ok("done")
	})

	v, err := r.Unwrap()
	if err != nil || v != "done" {
		t.Errorf("unexpected: %q %v", v, err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	opts := RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(_ context.Context) Result[int] {
		return Errf[int]("always fails")
	})
	if r.IsOk() {
		t.Error("expected failure after exhausted attempts")
	}
}
