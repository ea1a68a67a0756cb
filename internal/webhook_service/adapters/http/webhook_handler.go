package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lherme-source/waba-panel/internal/webhook_service/app"
)

const MaxRequestBodySize = 1 << 20 // 1 MB

// SignatureHeader carries the provider's HMAC over the raw request bytes.
const SignatureHeader = "X-Hub-Signature-256"

// WebhookIngestor defines the interface required by the WebhookHandler for
// authenticating and buffering provider callbacks. Using an interface here
// keeps the handler testable with mocks.
type WebhookIngestor interface {
	Ingest(ctx context.Context, rawBody []byte, signatureHeader string) (int, error)
	VerifyHandshake(mode, token string) bool
}

type WebhookHandler struct {
	appService WebhookIngestor
	logger     *slog.Logger
}

func NewWebhookHandler(appService WebhookIngestor, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		appService: appService,
		logger:     logger.With("handler", "webhook"),
	}
}

// RegisterRoutes registers the webhook endpoints with the given router.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/webhook", h.handleVerification)
	r.Post("/webhook", h.handleNotification)
}

// handleVerification serves the provider's one-time subscription handshake.
// A parameterless call is treated as a liveness probe.
func (h *WebhookHandler) handleVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)

	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == "" && token == "" && challenge == "" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("WhatsApp webhook endpoint is up"))
		return
	}

	if h.appService.VerifyHandshake(mode, token) {
		logger.InfoContext(ctx, "Webhook subscription handshake verified")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}

	logger.WarnContext(ctx, "Webhook handshake rejected", "mode", mode)
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// handleNotification receives webhook notification payloads. The response is
// written as soon as the verified payload is buffered; no derivation work
// runs on this path.
func (h *WebhookHandler) handleNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)

	signature := r.Header.Get(SignatureHeader)

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read webhook request body", "error", err)
		if err.Error() == "http: request body too large" {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "Error reading request body", http.StatusBadRequest)
		}
		return
	}
	defer r.Body.Close()

	entryCount, err := h.appService.Ingest(ctx, rawBody, signature)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidSignature):
			// Generic message only; nothing further is disclosed.
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, app.ErrMalformedPayload):
			http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		default:
			logger.ErrorContext(ctx, "Unexpected error ingesting webhook", "error", err)
			http.Error(w, "Internal server error processing webhook", http.StatusInternalServerError)
		}
		return
	}

	logger.InfoContext(ctx, "Webhook notification acknowledged",
		"remote_addr", r.RemoteAddr,
		"payload_size", len(rawBody),
		"entry_count", entryCount)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ReceiveResponse{OK: true, EntryCount: entryCount})
}
