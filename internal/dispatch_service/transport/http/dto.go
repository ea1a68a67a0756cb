package http

import "github.com/lherme-source/waba-panel/internal/dispatch_service/adapters/whatsapp"

// SendTemplateRequest DTO for POST /send-template.
type SendTemplateRequest struct {
	To         string                   `json:"to" validate:"required"`
	Template   string                   `json:"template" validate:"required"`
	Lang       string                   `json:"lang"`
	Components []map[string]interface{} `json:"components"`
}

// SendTemplateResponse DTO.
type SendTemplateResponse struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"id"`
	To        string `json:"to"`
	Template  string `json:"template"`
	Lang      string `json:"lang"`
	Simulated bool   `json:"simulated,omitempty"`
}

// TemplatesResponse DTO for GET /templates.
type TemplatesResponse struct {
	Data []whatsapp.TemplateInfo `json:"data"`
}

// GenericErrorResponse is the error envelope for the dispatch endpoints.
type GenericErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
