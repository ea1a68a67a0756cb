package domain

import "time"

// MessageStatus defines the delivery lifecycle states reported by the provider
// for outbound messages. Lifecycle: none -> {sent, failed}; sent -> delivered
// -> read; failed is terminal. The panel records the most recently applied
// value and does not reject out-of-order transitions, since provider
// redelivery can arrive in any order.
type MessageStatus string

const (
	MessageStatusNone      MessageStatus = "none"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// MessageDirection distinguishes contact-originated messages from panel-sent ones.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// Message is a single entry in a reconstructed conversation thread.
// Identity is the provider-assigned ID (wamid); replaying the same
// notification must never create a duplicate.
type Message struct {
	ID        string           `json:"id"`
	Direction MessageDirection `json:"direction"`
	Text      string           `json:"text"`
	Type      string           `json:"type,omitempty"`
	MediaID   string           `json:"media_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Status    MessageStatus    `json:"status"`
}

// Conversation is a derived, per-contact ordered message thread. It is a pure
// projection of the webhook event log and is recomputed on every read; it is
// never mutated directly.
type Conversation struct {
	ContactID        string    `json:"contact_id"`
	Phone            string    `json:"phone"`
	Name             string    `json:"name"`
	Messages         []Message `json:"messages"`
	UnreadCount      int       `json:"unread_count"`
	LastActivityTime time.Time `json:"last_activity_time"`
}

// StatsSnapshot holds flat delivery-outcome counters across the retained
// event window. Counters are not deduplicated by message ID: a status
// redelivered by the provider inflates its counter. That mirrors the raw
// notification stream and is a documented limitation, not a defect.
type StatsSnapshot struct {
	Sent      int `json:"sent"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Read      int `json:"read"`
	Replied   int `json:"replied"`
	Total     int `json:"total"`
}
