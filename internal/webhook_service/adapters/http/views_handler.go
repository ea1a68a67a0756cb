package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lherme-source/waba-panel/internal/webhook_service/app"
	"github.com/lherme-source/waba-panel/internal/webhook_service/domain"
)

// ViewsHandler exposes the two projections derived from the event log: the
// per-contact conversation list and the delivery stats snapshot. Both are
// recomputed from a fresh log snapshot on every call.
type ViewsHandler struct {
	eventLog domain.EventLog
	logger   *slog.Logger
}

func NewViewsHandler(eventLog domain.EventLog, logger *slog.Logger) *ViewsHandler {
	return &ViewsHandler{
		eventLog: eventLog,
		logger:   logger.With("handler", "views"),
	}
}

// RegisterRoutes registers the read endpoints with the given router.
func (h *ViewsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations", h.handleConversations)
	r.Get("/stats", h.handleStats)
}

func (h *ViewsHandler) handleConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)

	// A fault while replaying must surface as a structured error, never as
	// an unhandled crash, and must leave the event log untouched.
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "Conversation replay panicked", "panic", rec)
			h.jsonError(w, fmt.Sprintf("conversation derivation failed: %v", rec))
		}
	}()

	conversations := app.ReconstructConversations(h.eventLog.Snapshot())
	logger.DebugContext(ctx, "Conversations reconstructed", "count", len(conversations))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ConversationsResponse{OK: true, Conversations: conversations})
}

func (h *ViewsHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "Stats replay panicked", "panic", rec)
			h.jsonError(w, fmt.Sprintf("stats derivation failed: %v", rec))
		}
	}()

	stats := app.AggregateStats(h.eventLog.Snapshot())
	logger.DebugContext(ctx, "Stats aggregated", "total", stats.Total)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(StatsResponse{OK: true, Stats: stats})
}

func (h *ViewsHandler) jsonError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(ErrorResponse{OK: false, Error: message})
}
