package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/lherme-source/waba-panel/internal/dispatch_service/adapters/whatsapp"
)

// PanelHandler exposes the outbound proxy endpoints the dashboard uses:
// template dispatch, template listing, account overview, and media download.
// All of them are thin forward-and-relay calls to the configured dispatcher.
type PanelHandler struct {
	dispatcher whatsapp.Dispatcher
	logger     *slog.Logger
	validate   *validator.Validate
}

func NewPanelHandler(dispatcher whatsapp.Dispatcher, logger *slog.Logger, validate *validator.Validate) *PanelHandler {
	return &PanelHandler{
		dispatcher: dispatcher,
		logger:     logger.With("handler", "panel"),
		validate:   validate,
	}
}

// RegisterRoutes registers the dispatch routes with the given router.
func (h *PanelHandler) RegisterRoutes(r chi.Router) {
	r.Post("/send-template", h.handleSendTemplate)
	r.Get("/templates", h.handleListTemplates)
	r.Get("/account", h.handleGetAccount)
	r.Get("/media/{mediaID}", h.handleFetchMedia)
}

func (h *PanelHandler) handleSendTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)

	var req SendTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(ctx, "Failed to decode send template request", "error", err)
		h.jsonError(w, logger, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Send template request failed validation", "error", err)
		h.jsonError(w, logger, "Missing 'to' or 'template'.", http.StatusBadRequest)
		return
	}

	if req.Lang == "" {
		req.Lang = "pt_BR"
	}

	result, err := h.dispatcher.SendTemplate(ctx, whatsapp.SendTemplateRequest{
		To:         req.To,
		Template:   req.Template,
		Language:   req.Lang,
		Components: req.Components,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Template dispatch failed",
			"error", err, "recipient", req.To, "template", req.Template)
		h.jsonError(w, logger, "Failed to dispatch template message", http.StatusBadGateway)
		return
	}

	logger.InfoContext(ctx, "Template message dispatched",
		"message_id", result.MessageID, "recipient", result.Recipient,
		"simulated", result.Simulated)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(SendTemplateResponse{
		OK:        true,
		MessageID: result.MessageID,
		To:        req.To,
		Template:  req.Template,
		Lang:      req.Lang,
		Simulated: result.Simulated,
	})
}

func (h *PanelHandler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)

	templates, err := h.dispatcher.ListTemplates(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list templates", "error", err)
		h.jsonError(w, logger, "Failed to fetch templates", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(TemplatesResponse{Data: templates})
}

func (h *PanelHandler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)

	account, err := h.dispatcher.GetAccount(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to fetch account overview", "error", err)
		h.jsonError(w, logger, "Failed to fetch account overview", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(account)
}

func (h *PanelHandler) handleFetchMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)

	mediaID := chi.URLParam(r, "mediaID")
	if mediaID == "" {
		h.jsonError(w, logger, "Missing media id", http.StatusBadRequest)
		return
	}

	media, err := h.dispatcher.FetchMedia(ctx, mediaID)
	if err != nil {
		logger.WarnContext(ctx, "Media fetch failed", "error", err, "media_id", mediaID)
		h.jsonError(w, logger, "Failed to fetch media", http.StatusBadGateway)
		return
	}
	defer media.Body.Close()

	w.Header().Set("Content-Type", media.ContentType)
	if media.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(media.ContentLength, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, media.Body); err != nil {
		logger.WarnContext(ctx, "Failed to stream media body", "error", err, "media_id", mediaID)
	}
}

func (h *PanelHandler) jsonError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	logger.Warn("API Error Response", "status_code", statusCode, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(GenericErrorResponse{OK: false, Error: message})
}
