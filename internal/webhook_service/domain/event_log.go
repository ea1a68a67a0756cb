package domain

import "time"

// RawEvent is one verified webhook notification as it entered the system.
// Immutable once appended. Seq is assigned by the log and is monotonic across
// evictions; storage order equals arrival order, which is not guaranteed to
// match the semantic order implied by payload timestamps.
type RawEvent struct {
	Seq        int64          `json:"seq"`
	ReceivedAt time.Time      `json:"received_at"`
	Payload    WebhookPayload `json:"payload"`
}

// EventLog is the bounded, append-only, arrival-ordered buffer of verified
// webhook payloads. It is the single source of truth for the derived
// conversation and stats views. Implementations must be safe for concurrent
// use; all mutation goes through Append.
type EventLog interface {
	// Append stores the payload and returns its sequence number. Once the
	// log is at capacity the single oldest event is evicted first.
	Append(payload WebhookPayload) int64

	// Snapshot returns the retained events oldest-first. The returned slice
	// is a copy and safe to iterate while appends continue.
	Snapshot() []RawEvent

	// Clear discards all retained events.
	Clear()

	// Len reports the number of retained events.
	Len() int
}
