package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"muezzin_reminder_bot/internal/config"
	"muezzin_reminder_bot/internal/engine"
	"muezzin_reminder_bot/internal/storage/models"
	"muezzin_reminder_bot/internal/waktusolat"
	"muezzin_reminder_bot/pkg/logger"
)

type memStorage struct {
	mu      sync.Mutex
	configs map[int64]*models.ChatConfig
}

func newMemStorage() *memStorage {
	return &memStorage{configs: make(map[int64]*models.ChatConfig)}
}

func (s *memStorage) GetChatConfig(ctx context.Context, chatID int64) (*models.ChatConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[chatID]
	if !ok {
		return nil, nil
	}
	cp := *cfg
	return &cp, nil
}

func (s *memStorage) SaveChatConfig(ctx context.Context, cfg *models.ChatConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cfg
	s.configs[cfg.ChatID] = &cp
	return nil
}

func (s *memStorage) SetCurrentPrayerNum(ctx context.Context, chatID int64, num int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok := s.configs[chatID]; ok {
		cfg.CurrentPrayerNum = num
	}
	return nil
}

func (s *memStorage) ListEnabledChats(ctx context.Context) ([]*models.ChatConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ChatConfig
	for _, cfg := range s.configs {
		if cfg.AlertsEnabled {
			cp := *cfg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStorage) Close() error                   { return nil }
func (s *memStorage) Ping(ctx context.Context) error { return nil }

type noopNotifier struct{}

func (noopNotifier) SendMessage(ctx context.Context, chatID int64, text string) error { return nil }
func (noopNotifier) SendAvailabilityPrompt(ctx context.Context, chatID int64, text string) (int, error) {
	return 1, nil
}
func (noopNotifier) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *memStorage, *engine.Engine) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/zones.json" {
			w.Write([]byte(`{"data": {"zon": ["gombak", "petaling"]}}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	st := newMemStorage()
	client := waktusolat.New(srv.URL, 5*time.Second)
	log := logger.New(logger.LevelError)
	clock := engine.NewClock()
	availability := engine.NewAvailabilityManager(noopNotifier{}, clock, log)
	eng := engine.New(st, client, noopNotifier{}, availability, clock, log, engine.Settings{
		RetryBackoff:  time.Hour,
		SafetyMargin:  5 * time.Second,
		MidnightGrace: time.Minute,
	})

	cfg := &config.Config{
		Alerts: config.AlertsConfig{
			DefaultZone:            "gombak",
			DefaultLeadSeconds:     600,
			DefaultResponseTimeout: 300,
		},
	}

	svc := NewService(nil, st, eng, availability, client, cfg)
	if err := svc.LoadZones(context.Background()); err != nil {
		t.Fatalf("LoadZones failed: %v", err)
	}
	return svc, st, eng
}

func TestEnableAlerts_ReturnsSavedConfig(t *testing.T) {
	svc, st, eng := newTestService(t)
	defer eng.Stop(1)
	ctx := context.Background()

	cfg, err := svc.EnableAlerts(ctx, 1, "petaling")
	if err != nil {
		t.Fatalf("EnableAlerts failed: %v", err)
	}

	if cfg.Zone != "petaling" || !cfg.AlertsEnabled {
		t.Errorf("unexpected returned config: %+v", cfg)
	}
	if cfg.LeadSeconds != 600 {
		t.Errorf("expected the default lead in the returned config, got %d", cfg.LeadSeconds)
	}

	stored, err := st.GetChatConfig(ctx, 1)
	if err != nil || stored == nil {
		t.Fatalf("config not persisted: %v", err)
	}
	if stored.Zone != "petaling" || !stored.AlertsEnabled {
		t.Errorf("persisted config does not match: %+v", stored)
	}
}

func TestEnableAlerts_RejectsUnknownZone(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.EnableAlerts(ctx, 1, "atlantis"); err == nil {
		t.Fatal("expected an error for an unknown zone")
	}

	stored, err := st.GetChatConfig(ctx, 1)
	if err != nil {
		t.Fatalf("GetChatConfig failed: %v", err)
	}
	if stored != nil {
		t.Errorf("expected no state change on rejection, got %+v", stored)
	}
}
