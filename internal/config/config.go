package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the full application configuration
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Prayer   PrayerConfig   `json:"prayer"`
	Alerts   AlertsConfig   `json:"alerts"`
}

// TelegramConfig holds Telegram bot settings
type TelegramConfig struct {
	Token      string `json:"token"`
	WebhookURL string `json:"webhook_url"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `json:"path"`
}

// PrayerConfig holds prayer time source settings
type PrayerConfig struct {
	APIBaseURL   string        `json:"api_base_url"`
	FetchTimeout time.Duration `json:"fetch_timeout"`
}

// AlertsConfig holds alert scheduling defaults
type AlertsConfig struct {
	DefaultZone            string        `json:"default_zone"`
	DefaultLeadSeconds     int           `json:"default_lead_seconds"`
	DefaultResponseTimeout int           `json:"default_response_timeout_seconds"`
	RetryBackoff           time.Duration `json:"retry_backoff"`
	SafetyMargin           time.Duration `json:"safety_margin"`
	MidnightGrace          time.Duration `json:"midnight_grace"`
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{
			Token:      os.Getenv("TELEGRAM_TOKEN"),
			WebhookURL: os.Getenv("WEBHOOK_URL"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_FILE", "muezzin.db"),
		},
		Prayer: PrayerConfig{
			APIBaseURL:   getEnv("PRAYER_API_URL", "https://waktu-solat-api.herokuapp.com/api/v1"),
			FetchTimeout: getEnvAsDuration("PRAYER_API_TIMEOUT", 15*time.Second),
		},
		Alerts: AlertsConfig{
			DefaultZone:            getEnv("DEFAULT_ZONE", "gombak"),
			DefaultLeadSeconds:     getEnvAsInt("DEFAULT_LEAD_SECONDS", 600),
			DefaultResponseTimeout: getEnvAsInt("DEFAULT_RESPONSE_TIMEOUT_SECONDS", 300),
			RetryBackoff:           getEnvAsDuration("RETRY_BACKOFF", time.Hour),
			SafetyMargin:           getEnvAsDuration("ALERT_SAFETY_MARGIN", 5*time.Second),
			MidnightGrace:          getEnvAsDuration("MIDNIGHT_GRACE", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.Telegram.WebhookURL == "" {
		return fmt.Errorf("WEBHOOK_URL is required")
	}
	if c.Prayer.APIBaseURL == "" {
		return fmt.Errorf("PRAYER_API_URL must not be empty")
	}
	if c.Alerts.DefaultZone == "" {
		return fmt.Errorf("DEFAULT_ZONE must not be empty")
	}
	if c.Alerts.DefaultLeadSeconds < 0 {
		return fmt.Errorf("DEFAULT_LEAD_SECONDS must be non-negative")
	}
	if c.Alerts.DefaultResponseTimeout <= 0 {
		return fmt.Errorf("DEFAULT_RESPONSE_TIMEOUT_SECONDS must be positive")
	}
	if c.Alerts.RetryBackoff <= 0 {
		return fmt.Errorf("RETRY_BACKOFF must be positive")
	}

	return nil
}

// getEnv reads an environment variable with a fallback
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvAsInt reads an environment variable as an integer
func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvAsDuration reads an environment variable as a duration
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
