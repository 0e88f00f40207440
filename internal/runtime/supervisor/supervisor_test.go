package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStopWaitsForGoroutines(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	released := make(chan struct{})
	s.Go("worker", func(ctx context.Context) error {
		<-ctx.Done()
		close(released)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-released:
	default:
		t.Fatal("goroutine still running after Stop")
	}
	if s.Active() != 0 {
		t.Fatalf("Active = %d", s.Active())
	}
}

func TestFirstErrCaptured(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	want := errors.New("boom")
	s.Go("failing", func(context.Context) error { return want })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.Stop(ctx)
	if got := s.FirstErr(); got != want {
		t.Fatalf("FirstErr = %v, want %v", got, want)
	}
}

func TestContextCanceledNotRecordedAsError(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	s.Go("polite", func(ctx context.Context) error {
		<-ctx.Done()
		return context.Canceled
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.Stop(ctx)
	if err := s.FirstErr(); err != nil {
		t.Fatalf("FirstErr = %v, want nil", err)
	}
}

func TestPanicRecovered(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	s.Go("panicky", func(context.Context) error { panic("oops") })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.FirstErr() == nil {
		t.Fatal("expected panic to be recorded as an error")
	}
}

func TestCancelOnError(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), WithCancelOnError(true))
	s.Go("failing", func(context.Context) error { return errors.New("fatal") })

	select {
	case <-s.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after first error")
	}
}
