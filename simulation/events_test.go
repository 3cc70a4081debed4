package simulation

import (
	"sync"
	"testing"
)

func TestEventQueueKeepsOrder(t *testing.T) {
	q := NewEventQueue(4)
	q.Push(Event{Kind: EventReset, Source: "a"})
	q.Push(Event{Kind: EventShutdown, Source: "b"})
	q.Push(Event{Kind: EventReset, Source: "c"})

	got := q.Drain(nil)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("drained %d events, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Source != want[i] {
			t.Errorf("event %d source = %q, want %q", i, e.Source, want[i])
		}
		if e.At.IsZero() {
			t.Errorf("event %d has no timestamp", i)
		}
	}
	if q.Len() != 0 {
		t.Errorf("queue not empty after drain: %d", q.Len())
	}
}

func TestEventQueueDropsWhenFull(t *testing.T) {
	q := NewEventQueue(2)
	for i := 0; i < 5; i++ {
		accepted := q.Push(Event{Kind: EventReset})
		if want := i < 2; accepted != want {
			t.Errorf("push %d accepted = %v, want %v", i, accepted, want)
		}
	}
	if q.Dropped() != 3 {
		t.Errorf("dropped = %d, want 3", q.Dropped())
	}
	if n := len(q.Drain(nil)); n != 2 {
		t.Errorf("drained %d, want 2", n)
	}
	if !q.Push(Event{Kind: EventReset}) {
		t.Error("push rejected after drain")
	}
}

func TestEventQueueConcurrentPush(t *testing.T) {
	q := NewEventQueue(1000)
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				q.Push(Event{Kind: EventReset})
			}
		}()
	}
	wg.Wait()
	if n := len(q.Drain(nil)); n != 500 {
		t.Errorf("drained %d events, want 500", n)
	}
}

func TestEventKindString(t *testing.T) {
	tests := map[EventKind]string{
		EventReset:    "reset",
		EventShutdown: "shutdown",
		EventKind(99): "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
