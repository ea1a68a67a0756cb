package domain

// WebhookPayload mirrors the notification body the WhatsApp Cloud API posts
// to the webhook endpoint: a list of entries, each carrying changes, each
// carrying a value with inbound messages and/or status updates.
// These structs are used for deserializing the verified raw request bytes.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         Metadata          `json:"metadata"`
	Contacts         []WebhookContact  `json:"contacts,omitempty"`
	Messages         []IncomingMessage `json:"messages,omitempty"`
	Statuses         []StatusUpdate    `json:"statuses,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	Profile Profile `json:"profile"`
	WaID    string  `json:"wa_id"`
}

type Profile struct {
	Name string `json:"name"`
}

// IncomingMessage is a contact-originated message sub-entry.
// Timestamp is a unix-seconds string, as sent by the provider.
type IncomingMessage struct {
	From      string           `json:"from"`
	ID        string           `json:"id"`
	Timestamp string           `json:"timestamp"`
	Type      string           `json:"type"`
	Text      *TextBody        `json:"text,omitempty"`
	Image     *MediaAttachment `json:"image,omitempty"`
	Document  *MediaAttachment `json:"document,omitempty"`
	Video     *MediaAttachment `json:"video,omitempty"`
	Audio     *MediaAttachment `json:"audio,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

type MediaAttachment struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	Sha256   string `json:"sha256,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// StatusUpdate is a delivery-lifecycle sub-entry for a previously dispatched
// outbound message.
type StatusUpdate struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	RecipientID  string            `json:"recipient_id"`
	Conversation *ConversationRef  `json:"conversation,omitempty"`
	Pricing      *Pricing          `json:"pricing,omitempty"`
	Errors       []StatusErrorInfo `json:"errors,omitempty"`
}

type ConversationRef struct {
	ID     string              `json:"id"`
	Origin *ConversationOrigin `json:"origin,omitempty"`
}

type ConversationOrigin struct {
	Type string `json:"type"`
}

type Pricing struct {
	Billable     bool   `json:"billable"`
	PricingModel string `json:"pricing_model"`
	Category     string `json:"category"`
}

type StatusErrorInfo struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}
