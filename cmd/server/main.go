package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"muezzin_reminder_bot/internal/bot/dispatcher"
	"muezzin_reminder_bot/internal/bot/keyboard"
	"muezzin_reminder_bot/internal/bot/service"
	"muezzin_reminder_bot/internal/config"
	"muezzin_reminder_bot/internal/engine"
	"muezzin_reminder_bot/internal/server"
	"muezzin_reminder_bot/internal/storage/sqlite"
	"muezzin_reminder_bot/internal/waktusolat"
	"muezzin_reminder_bot/pkg/logger"

	tgbot "github.com/go-telegram/bot"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Muezzin Reminder Bot...")

	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(logger.LevelInfo)
	appLogger.Info("Configuration loaded successfully")

	storage, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
	}()

	appLogger.Info("Storage initialized successfully")

	telegramBot, err := tgbot.New(cfg.Telegram.Token)
	if err != nil {
		log.Fatalf("Failed to create Telegram bot: %v", err)
	}

	appLogger.Info("Telegram bot created successfully")

	prayerClient := waktusolat.New(cfg.Prayer.APIBaseURL, cfg.Prayer.FetchTimeout)

	notifier := &TelegramNotifier{bot: telegramBot}
	clock := engine.NewClock()
	availability := engine.NewAvailabilityManager(notifier, clock, appLogger)

	alertEngine := engine.New(storage, prayerClient, notifier, availability, clock, appLogger, engine.Settings{
		RetryBackoff:  cfg.Alerts.RetryBackoff,
		SafetyMargin:  cfg.Alerts.SafetyMargin,
		MidnightGrace: cfg.Alerts.MidnightGrace,
	})

	botService := service.NewService(telegramBot, storage, alertEngine, availability, prayerClient, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The zone list validates /enable arguments; without it the bot still
	// serves chats that are already configured.
	if err := botService.LoadZones(ctx); err != nil {
		appLogger.Warn("Failed to load zone list", logger.Error(err))
	} else {
		appLogger.Info("Zone list loaded successfully")
	}

	updateDispatcher := dispatcher.NewDispatcher(botService)

	if err := setupWebhook(ctx, telegramBot, cfg.Telegram.WebhookURL); err != nil {
		log.Fatalf("Failed to setup webhook: %v", err)
	}

	appLogger.Info("Webhook configured successfully")

	// Resume alert loops for every chat that had alerts enabled.
	if err := botService.RestartAlertLoops(ctx); err != nil {
		log.Printf("Failed to restart alert loops: %v", err)
	} else {
		appLogger.Info("Alert loops restarted successfully")
	}

	srv := server.New(cfg, appLogger, storage, updateDispatcher, telegramBot)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("Shutdown signal received, starting graceful shutdown...")
		cancel()
	}()

	appLogger.Info("Starting HTTP server on port " + cfg.Server.Port)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	appLogger.Info("Server stopped gracefully")
}

// setupWebhook registers the webhook with Telegram
func setupWebhook(ctx context.Context, bot *tgbot.Bot, webhookURL string) error {
	if _, err := bot.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{}); err != nil {
		log.Printf("Warning: failed to delete existing webhook: %v", err)
	}

	params := &tgbot.SetWebhookParams{
		URL: webhookURL,
	}

	if _, err := bot.SetWebhook(ctx, params); err != nil {
		return err
	}

	log.Printf("Webhook set to %s", webhookURL)
	return nil
}

// TelegramNotifier implements engine.Notifier on the Telegram API
type TelegramNotifier struct {
	bot *tgbot.Bot
}

// SendMessage sends a plain text message to a chat
func (n *TelegramNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}

	_, err := n.bot.SendMessage(ctx, params)
	return err
}

// SendAvailabilityPrompt sends a yes/no availability prompt and returns
// the prompt's message ID
func (n *TelegramNotifier) SendAvailabilityPrompt(ctx context.Context, chatID int64, text string) (int, error) {
	params := &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard.CreateAvailabilityKeyboard(),
	}

	msg, err := n.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to send availability prompt: %w", err)
	}

	return msg.ID, nil
}

// DeleteMessage deletes a previously sent message
func (n *TelegramNotifier) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	params := &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	}

	_, err := n.bot.DeleteMessage(ctx, params)
	return err
}
