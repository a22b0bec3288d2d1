package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/infra/resilience"
	"github.com/sony/gobreaker"
)

func TestRetryWithBackoff_Success(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_RetriesOnFailure(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		if callCount < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     2,
		InitialBackoff: 10 * time.Millisecond,
	}

	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		return errors.New("persistent error")
	})

	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
}

func TestRetryWithBackoff_RespectsContext(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     5,
		InitialBackoff: 1 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		return errors.New("error")
	})

	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestRetryWithBackoff_StopsOnPermanent(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     5,
		InitialBackoff: 10 * time.Millisecond,
	}
	cause := errors.New("bad request")

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		return resilience.Permanent(cause)
	})

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if !resilience.IsPermanent(err) {
		t.Error("expected permanent marker to survive")
	}
}

func TestRetryWithBackoff_ZeroBackoff(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 2}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		return errors.New("flaky")
	})

	if err == nil || callCount != 3 {
		t.Errorf("expected 3 failing calls, got %d (%v)", callCount, err)
	}
}

func TestPermanent_Nil(t *testing.T) {
	if resilience.Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestCircuitBreaker_IgnoresPermanentErrors(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test")

	for i := 0; i < 10; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, resilience.Permanent(errors.New("unauthorized"))
		})
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected closed breaker, got %s", cb.State())
	}

	// 10 successes on record, so it takes 15 failures to reach the 60% ratio.
	for i := 0; i < 20; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, errors.New("connection refused")
		})
	}
	if cb.State() != gobreaker.StateOpen {
		t.Errorf("expected open breaker, got %s", cb.State())
	}
}

func TestBulkhead_AcquireRelease(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}

	// Third acquire should block until the context times out
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := bh.Acquire(ctx)
	if err == nil {
		t.Fatal("expected timeout on third acquire")
	}

	// Release one slot
	bh.Release()

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
	if bh.InFlight() != 2 {
		t.Errorf("expected 2 in flight, got %d", bh.InFlight())
	}
}
