package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lherme-source/waba-panel/internal/dispatch_service/adapters/whatsapp"
	dispatchHttp "github.com/lherme-source/waba-panel/internal/dispatch_service/transport/http"
	"github.com/lherme-source/waba-panel/internal/platform/config"
	"github.com/lherme-source/waba-panel/internal/platform/logger"
	"github.com/lherme-source/waba-panel/internal/platform/messagebroker"
	webhookHttp "github.com/lherme-source/waba-panel/internal/webhook_service/adapters/http"
	"github.com/lherme-source/waba-panel/internal/webhook_service/app"
	"github.com/lherme-source/waba-panel/internal/webhook_service/repository/memory"
)

const serviceName = "panel_service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Panel service starting...",
		"port", cfg.ServerPort,
		"event_log_capacity", cfg.EventLogCapacity,
		"simulation_mode", cfg.SimulationMode,
		"signature_verification", cfg.AppSecret != "")

	if cfg.AppSecret == "" {
		appLogger.Warn("APP_SECRET not configured; webhook payloads are accepted without signature verification (open trust mode)")
	}

	// Optional fan-out of verified webhook payloads.
	var publisher messagebroker.Publisher
	if cfg.NATSUrl != "" {
		natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to NATS", "error", err, "url", cfg.NATSUrl)
			os.Exit(1)
		}
		defer natsClient.Close()
		publisher = natsClient
		appLogger.Info("Successfully connected to NATS")
	}

	eventLog := memory.NewEventLog(cfg.EventLogCapacity)
	webhookService := app.NewWebhookService(eventLog, cfg.AppSecret, cfg.VerifyToken, publisher, appLogger)

	var dispatcher whatsapp.Dispatcher
	if cfg.SimulationMode || cfg.WhatsAppToken == "" {
		if !cfg.SimulationMode {
			appLogger.Warn("WHATSAPP_TOKEN not configured; falling back to simulated dispatcher")
		}
		dispatcher = whatsapp.NewSimulatedDispatcher(appLogger, cfg.WABAID)
	} else {
		dispatcher = whatsapp.NewGraphClient(appLogger, whatsapp.GraphClientConfig{
			BaseURL:       cfg.GraphAPIBaseURL,
			APIVersion:    cfg.GraphAPIVersion,
			AccessToken:   cfg.WhatsAppToken,
			PhoneNumberID: cfg.PhoneNumberID,
			WABAID:        cfg.WABAID,
		}, nil)
	}
	appLogger.Info("Outbound dispatcher initialized", "provider", dispatcher.GetName())

	validate := validator.New()

	webhookHandler := webhookHttp.NewWebhookHandler(webhookService, appLogger)
	viewsHandler := webhookHttp.NewViewsHandler(eventLog, appLogger)
	panelHandler := dispatchHttp.NewPanelHandler(dispatcher, appLogger, validate)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "Panel service is healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(apiRouter chi.Router) {
		webhookHandler.RegisterRoutes(apiRouter)
		viewsHandler.RegisterRoutes(apiRouter)
		panelHandler.RegisterRoutes(apiRouter)
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	appLogger.Info(fmt.Sprintf("Panel server listening on port %d", cfg.ServerPort))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	<-quitChan
	appLogger.Info("Shutdown signal received, shutting down HTTP server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	} else {
		appLogger.Info("HTTP server shut down gracefully.")
	}
	appLogger.Info("Panel service shut down.")
}
