package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.Publish(Event{Type: EventAlertsUpdated})

	select {
	case ev := <-ch:
		if ev.Type != EventAlertsUpdated {
			t.Fatalf("Type = %q", ev.Type)
		}
		if ev.Time.IsZero() {
			t.Fatal("Publish should stamp Time when zero")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestFanoutToAllSubscribers(t *testing.T) {
	t.Parallel()
	b := New()
	ch1, unsub1 := b.Subscribe(1)
	defer unsub1()
	ch2, unsub2 := b.Subscribe(1)
	defer unsub2()

	b.Publish(Event{Type: EventNotifySent})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != EventNotifySent {
				t.Fatalf("subscriber %d: Type = %q", i, ev.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: event not delivered", i)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub() // idempotent

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}

	// Publishing after unsubscribe must not panic.
	b.Publish(Event{Type: EventNotifyFailed})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			b.Publish(Event{Type: EventNotifyDropped})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if len(ch) != 1 {
		t.Fatalf("expected exactly buffer-size events kept, got %d", len(ch))
	}
}
