package packbit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryerSucceedsFirstTry(t *testing.T) {
	r := NewRetryer(DefaultRetryConfig())
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("op ran %d times, want 1", calls)
	}
}

func TestRetryerRetriesUntilSuccess(t *testing.T) {
	r := NewRetryer(RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Fatalf("op ran %d times, want 3", calls)
	}
}

func TestRetryerExhaustsAttempts(t *testing.T) {
	r := NewRetryer(RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})
	calls := 0
	wantErr := errors.New("permanent")
	err := r.Do(context.Background(), func() error {
		calls++
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("got %v, want the last op error", err)
	}
	if calls != 3 {
		t.Fatalf("op ran %d times, want 3", calls)
	}
}

func TestRetryerRespectsRetryIf(t *testing.T) {
	fatal := errors.New("fatal")
	r := NewRetryer(RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		RetryIf:        func(err error) bool { return err != fatal },
	})
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return fatal
	})
	if err != fatal {
		t.Fatalf("got %v, want fatal error", err)
	}
	if calls != 1 {
		t.Fatalf("non-retryable error ran op %d times, want 1", calls)
	}
}

func TestRetryerHonorsContextCancel(t *testing.T) {
	r := NewRetryer(RetryConfig{
		MaxAttempts:    10,
		InitialBackoff: time.Hour,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func() error { return errors.New("transient") })
	if err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestNewRetryerFillsDefaults(t *testing.T) {
	r := NewRetryer(RetryConfig{})
	def := DefaultRetryConfig()
	if r.config.MaxAttempts != def.MaxAttempts ||
		r.config.InitialBackoff != def.InitialBackoff ||
		r.config.MaxBackoff != def.MaxBackoff ||
		r.config.BackoffMultiplier != def.BackoffMultiplier {
		t.Fatalf("zero config not filled with defaults: %+v", r.config)
	}
}
