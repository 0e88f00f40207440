package reminders

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"alertwatch/internal/eventbus"
	"alertwatch/pkg/logx"
)

type fakeTrigger struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{} // when set, TriggerBillReminders waits on it
}

func (f *fakeTrigger) TriggerBillReminders(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	block := f.block
	err := f.err
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeTrigger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStartDisabledIsNoop(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: false}, &fakeTrigger{}, nil, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop(context.Background())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Schedule: "not a schedule"}, &fakeTrigger{}, nil, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestStartRejectsBadTimezone(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Schedule: "@daily", Timezone: "Mars/Olympus"}, &fakeTrigger{}, nil, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected timezone error")
	}
}

func TestScanPublishesOnSuccess(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	ch, unsub := bus.Subscribe(4)
	defer unsub()

	tr := &fakeTrigger{}
	s := New(Config{Enabled: true, Schedule: "@daily"}, tr, bus, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())

	s.scan()
	if tr.callCount() != 1 {
		t.Fatalf("trigger calls = %d", tr.callCount())
	}

	var types []string
	for len(types) < 2 {
		select {
		case ev := <-ch:
			types = append(types, ev.Type)
		case <-time.After(time.Second):
			t.Fatalf("expected 2 events, got %v", types)
		}
	}
	if types[0] != eventbus.EventRemindersScanned || types[1] != eventbus.EventAlertsUpdated {
		t.Fatalf("unexpected event order: %v", types)
	}
}

func TestScanDoesNotPublishOnFailure(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	ch, unsub := bus.Subscribe(4)
	defer unsub()

	tr := &fakeTrigger{err: errors.New("backend down")}
	s := New(Config{Enabled: true, Schedule: "@daily"}, tr, bus, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())

	s.scan()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event after failed scan: %v", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOverlappingScanSkipped(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	tr := &fakeTrigger{block: block}
	s := New(Config{Enabled: true, Schedule: "@daily"}, tr, nil, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.scan()
	}()

	// Wait until the first scan is inside the trigger, then fire a second.
	deadline := time.Now().Add(2 * time.Second)
	for tr.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.scan()
	if got := tr.callCount(); got != 1 {
		t.Fatalf("overlapping scan reached trigger: calls = %d", got)
	}
	close(block)
	wg.Wait()
}

func TestStopCancelsInFlightScan(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	defer close(block)
	tr := &fakeTrigger{block: block}
	s := New(Config{Enabled: true, Schedule: "@daily"}, tr, nil, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var done atomic.Bool
	go func() {
		s.scan()
		done.Store(true)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for tr.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(ctx)

	deadline = time.Now().Add(2 * time.Second)
	for !done.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !done.Load() {
		t.Fatal("scan did not unblock after Stop")
	}
}
