package http

import "github.com/lherme-source/waba-panel/internal/webhook_service/domain"

// ReceiveResponse acknowledges a verified webhook notification.
type ReceiveResponse struct {
	OK         bool `json:"ok"`
	EntryCount int  `json:"entry_count"`
}

// ConversationsResponse wraps the conversation projection.
type ConversationsResponse struct {
	OK            bool                  `json:"ok"`
	Conversations []domain.Conversation `json:"conversations"`
}

// StatsResponse wraps the stats projection.
type StatsResponse struct {
	OK    bool                 `json:"ok"`
	Stats domain.StatsSnapshot `json:"stats"`
}

// ErrorResponse is the structured failure envelope UI consumers receive
// instead of an unhandled crash.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
