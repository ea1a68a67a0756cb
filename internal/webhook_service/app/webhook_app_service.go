package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lherme-source/waba-panel/internal/platform/messagebroker"
	"github.com/lherme-source/waba-panel/internal/webhook_service/domain"
)

// SignaturePrefix is the scheme tag WhatsApp prepends to the hex HMAC digest
// in the X-Hub-Signature-256 header.
const SignaturePrefix = "sha256="

// RawEventSubject is the NATS subject verified payloads are fanned out on.
const RawEventSubject = "waba.webhook.raw"

var (
	// ErrInvalidSignature is returned when a configured secret does not match
	// the signature header. Callers must not disclose more than a generic
	// forbidden message.
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// ErrMalformedPayload is returned when the verified body is not
	// well-formed JSON; the event is not appended.
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// WebhookService gates entry into the event log: it authenticates inbound
// provider callbacks and appends verified payloads in arrival order.
// Derivation work never runs here; the HTTP ack is returned as soon as the
// append completes.
type WebhookService struct {
	eventLog    domain.EventLog
	appSecret   string
	verifyToken string
	publisher   messagebroker.Publisher // nil disables fan-out
	logger      *slog.Logger
}

// NewWebhookService creates the ingestion service. An empty appSecret puts
// the service in open trust mode: every payload is accepted without
// signature verification. publisher may be nil.
func NewWebhookService(eventLog domain.EventLog, appSecret, verifyToken string, publisher messagebroker.Publisher, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		eventLog:    eventLog,
		appSecret:   appSecret,
		verifyToken: verifyToken,
		publisher:   publisher,
		logger:      logger.With("component", "webhook_service"),
	}
}

// VerifyHandshake checks the provider's one-time subscription handshake.
func (s *WebhookService) VerifyHandshake(mode, token string) bool {
	return mode == "subscribe" && s.verifyToken != "" && token == s.verifyToken
}

// VerifySignature recomputes the HMAC-SHA256 of the exact raw request bytes
// and compares it to the header value in constant time. With no secret
// configured every payload passes.
func (s *WebhookService) VerifySignature(rawBody []byte, signatureHeader string) error {
	if s.appSecret == "" {
		return nil
	}
	if signatureHeader == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(s.appSecret))
	mac.Write(rawBody)
	expected := SignaturePrefix + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signatureHeader), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// Ingest verifies, parses and appends one webhook notification, returning the
// number of top-level entries it carried. Signature verification happens
// strictly before the body is parsed; any failure stops processing before the
// event log is touched.
func (s *WebhookService) Ingest(ctx context.Context, rawBody []byte, signatureHeader string) (int, error) {
	if err := s.VerifySignature(rawBody, signatureHeader); err != nil {
		webhooksReceivedCounter.WithLabelValues("invalid_signature").Inc()
		s.logger.WarnContext(ctx, "Webhook signature verification failed",
			"signature_present", signatureHeader != "",
			"payload_size", len(rawBody))
		return 0, err
	}

	var payload domain.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		webhooksReceivedCounter.WithLabelValues("malformed").Inc()
		s.logger.WarnContext(ctx, "Failed to decode webhook payload", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	seq := s.eventLog.Append(payload)

	webhooksReceivedCounter.WithLabelValues("accepted").Inc()
	webhookEntriesAppendedCounter.Add(float64(len(payload.Entry)))
	eventLogSizeGauge.Set(float64(s.eventLog.Len()))

	s.logger.InfoContext(ctx, "Webhook payload appended to event log",
		"seq", seq,
		"entry_count", len(payload.Entry),
		"object", payload.Object)

	s.fanOut(ctx, rawBody, seq)

	return len(payload.Entry), nil
}

// fanOut republishes the verified raw payload for external consumers.
// Failures are logged only; they never fail the provider ack.
func (s *WebhookService) fanOut(ctx context.Context, rawBody []byte, seq int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, RawEventSubject, rawBody); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish raw webhook event to NATS",
			"error", err, "subject", RawEventSubject, "seq", seq)
	}
}
