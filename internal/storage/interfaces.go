package storage

import (
	"context"

	"muezzin_reminder_bot/internal/storage/models"
)

// ConfigRepository defines access to per-chat alert settings
type ConfigRepository interface {
	// GetChatConfig returns the stored config, or nil when the chat is unknown
	GetChatConfig(ctx context.Context, chatID int64) (*models.ChatConfig, error)

	// SaveChatConfig upserts the full config for a chat
	SaveChatConfig(ctx context.Context, cfg *models.ChatConfig) error

	// SetCurrentPrayerNum persists only the prayer cursor
	SetCurrentPrayerNum(ctx context.Context, chatID int64, num int) error

	// ListEnabledChats returns configs of every chat with alerts enabled
	ListEnabledChats(ctx context.Context) ([]*models.ChatConfig, error)
}

// Storage bundles the repositories into a single interface
type Storage interface {
	ConfigRepository
	Close() error
	Ping(ctx context.Context) error
}
