package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteNoRetries(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: true})

	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("fail")
	}, nil)

	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestExecuteBreakerOpensAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})

	boom := errors.New("backend down")
	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error {
			return boom
		}, nil)
	}

	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, nil)

	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("open breaker must not invoke the callback")
	}
}

func TestExecuteClassifierKeepsBreakerClosed(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
	})

	ignore := func(error) ErrorClassification {
		return ErrorClassification{RecordFailure: false}
	}
	for i := 0; i < 10; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error {
			return errors.New("client-side")
		}, ignore)
	}

	called := false
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		called = true
		return nil
	}, ignore)
	if err != nil || !called {
		t.Fatalf("breaker must stay closed for unrecorded failures, err=%v called=%v", err, called)
	}
}

func TestExecuteDisabledBreakerPassesThrough(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	boom := errors.New("fail")
	for i := 0; i < 20; i++ {
		if err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return boom
		}, nil); !errors.Is(err, boom) {
			t.Fatalf("expected passthrough error, got %v", err)
		}
	}
}

func TestExecuteRespectsCanceledContext(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Execute(ctx, "op", func(context.Context) error {
		called = true
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Fatalf("callback must not run on a canceled context")
	}
}

func TestExecutePerOperationIsolation(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})

	for i := 0; i < 5; i++ {
		_ = exec.Execute(context.Background(), "failing", func(context.Context) error {
			return errors.New("down")
		}, nil)
	}

	if err := exec.Execute(context.Background(), "healthy", func(context.Context) error {
		return nil
	}, nil); err != nil {
		t.Fatalf("an open breaker must not affect other operations, got %v", err)
	}
}
