package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"muezzin_reminder_bot/internal/config"
	"muezzin_reminder_bot/internal/engine"
	"muezzin_reminder_bot/internal/prayer"
	"muezzin_reminder_bot/internal/storage"
	"muezzin_reminder_bot/internal/storage/models"
	"muezzin_reminder_bot/internal/validation"
	"muezzin_reminder_bot/internal/waktusolat"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// Service is the main facade behind the command handlers. It owns the
// Telegram client, the preference store, the scheduling engine and the
// cached zone list.
type Service struct {
	bot          *bot.Bot
	storage      storage.Storage
	engine       *engine.Engine
	availability *engine.AvailabilityManager
	client       *waktusolat.Client
	config       *config.Config

	zonesMu sync.RWMutex
	zones   []string
}

// NewService creates a new bot service
func NewService(
	b *bot.Bot,
	st storage.Storage,
	eng *engine.Engine,
	availability *engine.AvailabilityManager,
	client *waktusolat.Client,
	cfg *config.Config,
) *Service {
	return &Service{
		bot:          b,
		storage:      st,
		engine:       eng,
		availability: availability,
		client:       client,
		config:       cfg,
	}
}

// LoadZones fetches the zone list once and caches it for validation
func (s *Service) LoadZones(ctx context.Context) error {
	zones, err := s.client.FetchZones(ctx)
	if err != nil {
		return fmt.Errorf("failed to load zone list: %w", err)
	}

	s.zonesMu.Lock()
	s.zones = zones
	s.zonesMu.Unlock()
	return nil
}

// Zones returns the cached zone list
func (s *Service) Zones() []string {
	s.zonesMu.RLock()
	defer s.zonesMu.RUnlock()
	return s.zones
}

// GetOrCreateConfig returns the chat's config, hydrating defaults when
// the chat has never been seen before
func (s *Service) GetOrCreateConfig(ctx context.Context, chatID int64) (*models.ChatConfig, error) {
	cfg, err := s.storage.GetChatConfig(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}

	return models.NewChatConfig(chatID, models.Defaults{
		Zone:                   s.config.Alerts.DefaultZone,
		LeadSeconds:            s.config.Alerts.DefaultLeadSeconds,
		ResponseTimeoutSeconds: s.config.Alerts.DefaultResponseTimeout,
	}), nil
}

// EnableAlerts validates the zone, enables alerts for the chat and
// restarts its scheduling loop. Returns the saved config.
func (s *Service) EnableAlerts(ctx context.Context, chatID int64, zone string) (*models.ChatConfig, error) {
	if err := validation.ValidateZone(zone, s.Zones()); err != nil {
		return nil, err
	}

	cfg, err := s.GetOrCreateConfig(ctx, chatID)
	if err != nil {
		return nil, err
	}

	cfg.Zone = zone
	cfg.AlertsEnabled = true
	if err := s.storage.SaveChatConfig(ctx, cfg); err != nil {
		return nil, err
	}

	s.engine.Restart(chatID)
	return cfg, nil
}

// SetLeadTime updates the alert lead time and restarts the chat's loop
func (s *Service) SetLeadTime(ctx context.Context, chatID int64, minutes int) error {
	cfg, err := s.GetOrCreateConfig(ctx, chatID)
	if err != nil {
		return err
	}

	cfg.LeadSeconds = minutes * 60
	if err := s.storage.SaveChatConfig(ctx, cfg); err != nil {
		return err
	}

	if cfg.AlertsEnabled {
		s.engine.Restart(chatID)
	}
	return nil
}

// SetMuezzin assigns a muezzin to a prayer in the chat's roster. The
// roster does not affect alert timing, so the loop is left running.
func (s *Service) SetMuezzin(ctx context.Context, chatID int64, prayerName, username string) error {
	cfg, err := s.GetOrCreateConfig(ctx, chatID)
	if err != nil {
		return err
	}

	cfg.Roster[prayerName] = username
	return s.storage.SaveChatConfig(ctx, cfg)
}

// FetchPrayerTimes returns today's timetable for the chat's zone
func (s *Service) FetchPrayerTimes(ctx context.Context, chatID int64) (prayer.Timetable, string, error) {
	cfg, err := s.GetOrCreateConfig(ctx, chatID)
	if err != nil {
		return prayer.Timetable{}, "", err
	}

	tt, err := s.client.FetchTimetable(ctx, cfg.Zone)
	if err != nil {
		return prayer.Timetable{}, cfg.Zone, err
	}

	return tt, cfg.Zone, nil
}

// HandleAvailabilityReply routes an inline availability reply to the
// engine. The return value reports whether the reply was accepted.
func (s *Service) HandleAvailabilityReply(ctx context.Context, chatID int64, username string, available bool) bool {
	return s.availability.HandleReply(ctx, chatID, username, available)
}

// SendMessage sends a message with optional reply markup
func (s *Service) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup tgmodels.ReplyMarkup) error {
	params := &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: replyMarkup,
	}

	_, err := s.bot.SendMessage(ctx, params)
	return err
}

// SendSimpleMessage sends a plain text message
func (s *Service) SendSimpleMessage(ctx context.Context, chatID int64, text string) error {
	return s.SendMessage(ctx, chatID, text, nil)
}

// Reply sends a message as a reply to another message
func (s *Service) Reply(ctx context.Context, chatID int64, messageID int, text string) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
		ReplyParameters: &tgmodels.ReplyParameters{
			MessageID: messageID,
		},
	}

	_, err := s.bot.SendMessage(ctx, params)
	return err
}

// SendError sends an error message to the user
func (s *Service) SendError(ctx context.Context, chatID int64, message string) {
	if err := s.SendSimpleMessage(ctx, chatID, message); err != nil {
		log.Printf("Failed to send error message to %d: %v", chatID, err)
	}
}

// AnswerCallbackQuery answers a callback query
func (s *Service) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	params := &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
		Text:            text,
	}

	_, err := s.bot.AnswerCallbackQuery(ctx, params)
	return err
}

// DeleteMessage deletes a message
func (s *Service) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	params := &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	}

	_, err := s.bot.DeleteMessage(ctx, params)
	return err
}

// RestartAlertLoops restarts the alert loop of every enabled chat
func (s *Service) RestartAlertLoops(ctx context.Context) error {
	return s.engine.StartAll(ctx)
}

// Close closes the service's resources
func (s *Service) Close() error {
	if err := s.storage.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
