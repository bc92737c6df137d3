package models

import (
	"time"

	"muezzin_reminder_bot/internal/prayer"
)

// ChatConfig holds the per-chat alert settings
type ChatConfig struct {
	ChatID                 int64             `json:"chat_id" db:"chat_id"`
	Zone                   string            `json:"zone" db:"zone"`
	LeadSeconds            int               `json:"lead_seconds" db:"lead_seconds"`
	AlertsEnabled          bool              `json:"alerts_enabled" db:"alerts_enabled"`
	ResponseTimeoutSeconds int               `json:"response_timeout_seconds" db:"response_timeout_seconds"`
	NotifyOnNoResponse     bool              `json:"notify_on_no_response" db:"notify_on_no_response"`
	CurrentPrayerNum       int               `json:"current_prayer_num" db:"current_prayer_num"`
	Roster                 map[string]string `json:"roster" db:"roster"`
	CreatedAt              time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at" db:"updated_at"`
}

// Defaults describe a chat that has never been configured
type Defaults struct {
	Zone                   string
	LeadSeconds            int
	ResponseTimeoutSeconds int
}

// NewChatConfig builds a config for a chat seen for the first time.
// CurrentPrayerNum starts at -1: no prayer has been alerted today.
func NewChatConfig(chatID int64, d Defaults) *ChatConfig {
	return &ChatConfig{
		ChatID:                 chatID,
		Zone:                   d.Zone,
		LeadSeconds:            d.LeadSeconds,
		ResponseTimeoutSeconds: d.ResponseTimeoutSeconds,
		CurrentPrayerNum:       -1,
		Roster:                 make(map[string]string),
	}
}

// Muezzin returns the assigned muezzin for a prayer, if any.
func (c *ChatConfig) Muezzin(prayerName string) (string, bool) {
	m, ok := c.Roster[prayerName]
	if !ok || m == "" {
		return "", false
	}
	return m, true
}

// LeadDuration returns the alert lead time as a duration.
func (c *ChatConfig) LeadDuration() time.Duration {
	return time.Duration(c.LeadSeconds) * time.Second
}

// ResponseTimeout returns the availability prompt timeout as a duration.
func (c *ChatConfig) ResponseTimeout() time.Duration {
	return time.Duration(c.ResponseTimeoutSeconds) * time.Second
}

// AdvanceCursor moves the prayer cursor forward one slot, wrapping 4 -> 0.
func (c *ChatConfig) AdvanceCursor() int {
	c.CurrentPrayerNum = (c.CurrentPrayerNum + 1) % prayer.Count
	return c.CurrentPrayerNum
}
