package whatsapp

import (
	"context"
	"io"
)

// SendTemplateRequest holds the data for dispatching a template message.
type SendTemplateRequest struct {
	To         string
	Template   string
	Language   string
	Components []map[string]interface{}
}

// SendTemplateResult holds the outcome of a dispatch attempt.
type SendTemplateResult struct {
	MessageID string
	Recipient string
	Simulated bool
}

// TemplateInfo describes one approved/rejected message template.
type TemplateInfo struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Language string `json:"language"`
}

// PhoneNumber is one phone number registered to the business account.
type PhoneNumber struct {
	ID      string `json:"id"`
	Display string `json:"display"`
	Status  string `json:"status"`
}

// AccountInfo summarizes the business account and its phone numbers.
// Source reports where the data came from ("live" or "simulation").
type AccountInfo struct {
	Source string        `json:"source"`
	WABAID string        `json:"waba_id"`
	Name   string        `json:"name,omitempty"`
	Phones []PhoneNumber `json:"phones"`
}

// Media is a downloaded media binary. Body must be closed by the caller.
type Media struct {
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// Dispatcher defines the interface for the outbound side of the panel: a
// thin forward-and-relay proxy to the messaging provider.
type Dispatcher interface {
	SendTemplate(ctx context.Context, req SendTemplateRequest) (*SendTemplateResult, error)
	ListTemplates(ctx context.Context) ([]TemplateInfo, error)
	GetAccount(ctx context.Context) (*AccountInfo, error)
	FetchMedia(ctx context.Context, mediaID string) (*Media, error)
	GetName() string
}
