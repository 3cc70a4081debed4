package simulation

import (
	"sync"
	"time"
)

// DefaultEventCapacity bounds the events staged between two frames
const DefaultEventCapacity = 64

type EventKind int

const (
	EventReset EventKind = iota + 1
	EventShutdown
)

func (k EventKind) String() string {
	switch k {
	case EventReset:
		return "reset"
	case EventShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Event is a request staged for the driver goroutine
type Event struct {
	Kind   EventKind
	Source string
	At     time.Time
}

// EventQueue stages requests from input callbacks and network handlers.
// The driver drains it at the start of each frame, so every mutation of the
// world happens on the driver goroutine.
type EventQueue struct {
	mu       sync.Mutex
	pending  []Event
	capacity int
	dropped  uint64
}

func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}
	return &EventQueue{pending: make([]Event, 0, capacity), capacity: capacity}
}

// Push stages an event without blocking. It returns false and counts the
// event as dropped when the queue is full.
func (q *EventQueue) Push(e Event) bool {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) >= q.capacity {
		q.dropped++
		return false
	}
	q.pending = append(q.pending, e)
	return true
}

// Drain appends the staged events to dst in push order and empties the queue
func (q *EventQueue) Drain(dst []Event) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	dst = append(dst, q.pending...)
	q.pending = q.pending[:0]
	return dst
}

func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Dropped returns how many events were rejected because the queue was full
func (q *EventQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
