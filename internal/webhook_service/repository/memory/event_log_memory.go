package memory

import (
	"sync"
	"time"

	"github.com/lherme-source/waba-panel/internal/webhook_service/domain"
)

// DefaultCapacity bounds the retained webhook window when no explicit
// capacity is configured.
const DefaultCapacity = 1000

// EventLog is an in-memory, mutex-serialized implementation of
// domain.EventLog. State lives for the process lifetime only; restarting the
// service loses the retained window.
type EventLog struct {
	mu      sync.Mutex
	events  []domain.RawEvent
	cap     int
	nextSeq int64
}

// NewEventLog creates a log retaining at most capacity events.
// A non-positive capacity falls back to DefaultCapacity.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &EventLog{
		events: make([]domain.RawEvent, 0, capacity),
		cap:    capacity,
	}
}

func (l *EventLog) Append(payload domain.WebhookPayload) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.events) == l.cap {
		// Evict the single oldest entry. Shifting in place keeps the backing
		// array at its original capacity.
		copy(l.events, l.events[1:])
		l.events = l.events[:l.cap-1]
	}

	seq := l.nextSeq
	l.nextSeq++
	l.events = append(l.events, domain.RawEvent{
		Seq:        seq,
		ReceivedAt: time.Now().UTC(),
		Payload:    payload,
	})
	return seq
}

func (l *EventLog) Snapshot() []domain.RawEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.RawEvent, len(l.events))
	copy(out, l.events)
	return out
}

func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = l.events[:0]
}

func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
