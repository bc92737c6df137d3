package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"muezzin_reminder_bot/internal/bot/dispatcher"
	"muezzin_reminder_bot/internal/config"
	"muezzin_reminder_bot/internal/middleware"
	"muezzin_reminder_bot/internal/storage"
	"muezzin_reminder_bot/pkg/logger"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP server hosting webhook, health and metrics
type Server struct {
	httpServer    *http.Server
	config        *config.Config
	logger        *logger.Logger
	chatLimiter   *middleware.ChatRateLimiter
	healthChecker *HealthChecker
	dispatcher    *dispatcher.Dispatcher
	telegramBot   *tgbot.Bot
}

// New creates a new HTTP server
func New(cfg *config.Config, log *logger.Logger, st storage.Storage, d *dispatcher.Dispatcher, telegramBot *tgbot.Bot) *Server {
	server := &Server{
		config:        cfg,
		logger:        log,
		chatLimiter:   middleware.NewChatRateLimiter(30, time.Minute, log),
		healthChecker: NewHealthChecker(st, "1.0.0"),
		dispatcher:    d,
		telegramBot:   telegramBot,
	}

	server.httpServer = &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        server.setupRoutes(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	return server
}

// setupRoutes wires routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthChecker.HealthHandler)
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.PrometheusMiddleware(mux)
}

// handleWebhook handles a Telegram webhook request
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var update tgmodels.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Error("Failed to decode Telegram update", logger.Error(err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if chatID, ok := updateChatID(&update); ok && !s.chatLimiter.Allow(chatID) {
		// Drop the update but acknowledge it so Telegram stops retrying.
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	s.dispatcher.HandleUpdate(ctx, s.telegramBot, &update)

	s.logger.Debug("Webhook processed",
		logger.Int64("update_id", update.ID),
		logger.Duration("took", time.Since(start)))

	w.WriteHeader(http.StatusOK)
}

// updateChatID extracts the originating chat id from an update
func updateChatID(update *tgmodels.Update) (int64, bool) {
	if update.Message != nil {
		return update.Message.Chat.ID, true
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil {
		return update.CallbackQuery.Message.Message.Chat.ID, true
	}
	return 0, false
}

// Start runs the server until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", logger.String("addr", s.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if s.chatLimiter != nil {
		s.chatLimiter.Close()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Error during server shutdown", logger.Error(err))
		return err
	}

	s.logger.Info("HTTP server shut down successfully")
	return nil
}
