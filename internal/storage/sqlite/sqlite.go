package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"muezzin_reminder_bot/internal/storage/models"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements the Storage interface on SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New opens a SQLite database and runs migrations
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single write connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	storage := &SQLiteStorage{db: db}

	if err := storage.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return storage, nil
}

// migrate applies the database schema
func (s *SQLiteStorage) migrate() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS chat_configs (
			chat_id INTEGER PRIMARY KEY,
			zone TEXT NOT NULL,
			lead_seconds INTEGER NOT NULL,
			alerts_enabled INTEGER NOT NULL DEFAULT 0,
			response_timeout_seconds INTEGER NOT NULL,
			notify_on_no_response INTEGER NOT NULL DEFAULT 0,
			current_prayer_num INTEGER NOT NULL DEFAULT -1,
			roster TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_configs_enabled ON chat_configs(alerts_enabled)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetChatConfig returns the stored config for a chat, or nil when absent
func (s *SQLiteStorage) GetChatConfig(ctx context.Context, chatID int64) (*models.ChatConfig, error) {
	query := `SELECT chat_id, zone, lead_seconds, alerts_enabled, response_timeout_seconds,
			  notify_on_no_response, current_prayer_num, roster, created_at, updated_at
			  FROM chat_configs WHERE chat_id = ?`

	cfg, err := s.scanConfig(s.db.QueryRowContext(ctx, query, chatID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat config: %w", err)
	}

	return cfg, nil
}

// SaveChatConfig upserts the full config for a chat
func (s *SQLiteStorage) SaveChatConfig(ctx context.Context, cfg *models.ChatConfig) error {
	roster, err := json.Marshal(cfg.Roster)
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}

	query := `INSERT INTO chat_configs
			  (chat_id, zone, lead_seconds, alerts_enabled, response_timeout_seconds,
			   notify_on_no_response, current_prayer_num, roster, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			  ON CONFLICT(chat_id) DO UPDATE SET
			   zone = excluded.zone,
			   lead_seconds = excluded.lead_seconds,
			   alerts_enabled = excluded.alerts_enabled,
			   response_timeout_seconds = excluded.response_timeout_seconds,
			   notify_on_no_response = excluded.notify_on_no_response,
			   current_prayer_num = excluded.current_prayer_num,
			   roster = excluded.roster,
			   updated_at = CURRENT_TIMESTAMP`

	_, err = s.db.ExecContext(ctx, query,
		cfg.ChatID, cfg.Zone, cfg.LeadSeconds, cfg.AlertsEnabled,
		cfg.ResponseTimeoutSeconds, cfg.NotifyOnNoResponse,
		cfg.CurrentPrayerNum, string(roster),
	)
	if err != nil {
		return fmt.Errorf("failed to save chat config: %w", err)
	}

	return nil
}

// SetCurrentPrayerNum persists only the prayer cursor for a chat
func (s *SQLiteStorage) SetCurrentPrayerNum(ctx context.Context, chatID int64, num int) error {
	query := `UPDATE chat_configs SET current_prayer_num = ?, updated_at = CURRENT_TIMESTAMP
			  WHERE chat_id = ?`

	result, err := s.db.ExecContext(ctx, query, num, chatID)
	if err != nil {
		return fmt.Errorf("failed to set current prayer num: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("chat config %d not found", chatID)
	}

	return nil
}

// ListEnabledChats returns configs of every chat with alerts enabled
func (s *SQLiteStorage) ListEnabledChats(ctx context.Context) ([]*models.ChatConfig, error) {
	query := `SELECT chat_id, zone, lead_seconds, alerts_enabled, response_timeout_seconds,
			  notify_on_no_response, current_prayer_num, roster, created_at, updated_at
			  FROM chat_configs WHERE alerts_enabled = 1 ORDER BY chat_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled chats: %w", err)
	}
	defer rows.Close()

	var configs []*models.ChatConfig
	for rows.Next() {
		cfg, err := s.scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat config: %w", err)
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStorage) scanConfig(row rowScanner) (*models.ChatConfig, error) {
	cfg := &models.ChatConfig{}
	var roster string

	err := row.Scan(
		&cfg.ChatID, &cfg.Zone, &cfg.LeadSeconds, &cfg.AlertsEnabled,
		&cfg.ResponseTimeoutSeconds, &cfg.NotifyOnNoResponse,
		&cfg.CurrentPrayerNum, &roster, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(roster), &cfg.Roster); err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}
	if cfg.Roster == nil {
		cfg.Roster = make(map[string]string)
	}

	return cfg, nil
}
