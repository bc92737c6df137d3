package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"muezzin_reminder_bot/internal/prayer"
	"muezzin_reminder_bot/internal/storage/models"
	"muezzin_reminder_bot/pkg/logger"
)

type fakeStorage struct {
	mu         sync.Mutex
	configs    map[int64]*models.ChatConfig
	cursorSets []int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{configs: make(map[int64]*models.ChatConfig)}
}

func (s *fakeStorage) put(cfg *models.ChatConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.ChatID] = copyConfig(cfg)
}

func copyConfig(cfg *models.ChatConfig) *models.ChatConfig {
	cp := *cfg
	cp.Roster = make(map[string]string, len(cfg.Roster))
	for k, v := range cfg.Roster {
		cp.Roster[k] = v
	}
	return &cp
}

func (s *fakeStorage) GetChatConfig(ctx context.Context, chatID int64) (*models.ChatConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[chatID]
	if !ok {
		return nil, nil
	}
	return copyConfig(cfg), nil
}

func (s *fakeStorage) SaveChatConfig(ctx context.Context, cfg *models.ChatConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.ChatID] = copyConfig(cfg)
	return nil
}

func (s *fakeStorage) SetCurrentPrayerNum(ctx context.Context, chatID int64, num int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok := s.configs[chatID]; ok {
		cfg.CurrentPrayerNum = num
	}
	s.cursorSets = append(s.cursorSets, num)
	return nil
}

func (s *fakeStorage) ListEnabledChats(ctx context.Context) ([]*models.ChatConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ChatConfig
	for _, cfg := range s.configs {
		if cfg.AlertsEnabled {
			out = append(out, copyConfig(cfg))
		}
	}
	return out, nil
}

func (s *fakeStorage) Close() error                   { return nil }
func (s *fakeStorage) Ping(ctx context.Context) error { return nil }

func (s *fakeStorage) currentPrayerNum(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok := s.configs[chatID]; ok {
		return cfg.CurrentPrayerNum
	}
	return -2
}

type fakeSource struct {
	mu    sync.Mutex
	tt    prayer.Timetable
	err   error
	calls int
	gate  chan struct{}
}

func (f *fakeSource) FetchTimetable(ctx context.Context, zone string) (prayer.Timetable, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	err := f.err
	tt := f.tt
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return prayer.Timetable{}, err
	}
	return tt, nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSource) fetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	prompts  []string
	deleted  []int
	nextID   int
}

func (n *fakeNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) SendAvailabilityPrompt(ctx context.Context, chatID int64, text string) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.prompts = append(n.prompts, text)
	return n.nextID, nil
}

func (n *fakeNotifier) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, messageID)
	return nil
}

func (n *fakeNotifier) messageCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func (n *fakeNotifier) allMessages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func (n *fakeNotifier) promptCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.prompts)
}

// waitFor polls a condition until it holds or the deadline passes. The
// loop goroutines run on their own schedule, so assertions that depend on
// them reaching a state have to poll.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testSettings() Settings {
	return Settings{
		RetryBackoff:  time.Hour,
		SafetyMargin:  5 * time.Second,
		MidnightGrace: time.Minute,
	}
}

func testEngine(t *testing.T, start time.Time) (*Engine, *fakeStorage, *fakeSource, *fakeNotifier, *fakeClock) {
	t.Helper()

	st := newFakeStorage()
	source := &fakeSource{tt: testTimetable()}
	notifier := &fakeNotifier{}
	clock := newFakeClock(start)
	log := logger.New(logger.LevelError)

	availability := NewAvailabilityManager(notifier, clock, log)
	e := New(st, source, notifier, availability, clock, log, testSettings())
	return e, st, source, notifier, clock
}

func enabledConfig(chatID int64) *models.ChatConfig {
	cfg := models.NewChatConfig(chatID, models.Defaults{
		Zone:                   "gombak",
		LeadSeconds:            600,
		ResponseTimeoutSeconds: 300,
	})
	cfg.AlertsEnabled = true
	return cfg
}

func TestEngine_FiresAlertAtLeadTime(t *testing.T) {
	// 650s before Asr: the alert is due in 50s.
	start := time.Date(2026, time.March, 2, 15, 49, 10, 0, time.UTC)
	e, st, _, notifier, clock := testEngine(t, start)
	defer e.Stop(1)

	st.put(enabledConfig(1))
	e.Restart(1)

	// The loop arms the alert timer and then sleeps through the window.
	waitFor(t, "alert timer armed", func() bool { return clock.pendingTimers() >= 2 })

	if got := notifier.messageCount(); got != 0 {
		t.Fatalf("expected no messages before the alert fires, got %d", got)
	}

	clock.Advance(50 * time.Second)

	waitFor(t, "alert message sent", func() bool { return notifier.messageCount() == 1 })

	msg := notifier.allMessages()[0]
	if msg != "Asr in 10 minutes (16:00)." {
		t.Errorf("unexpected alert text: %q", msg)
	}
	if got := st.currentPrayerNum(1); got != 2 {
		t.Errorf("expected cursor advanced to 2 after the alert, got %d", got)
	}
	if got := notifier.promptCount(); got != 0 {
		t.Errorf("expected no availability prompt without a muezzin, got %d", got)
	}
}

func TestEngine_AlertMentionsAssignedMuezzin(t *testing.T) {
	start := time.Date(2026, time.March, 2, 15, 49, 10, 0, time.UTC)
	e, st, _, notifier, clock := testEngine(t, start)
	defer e.Stop(1)

	cfg := enabledConfig(1)
	cfg.Roster["Asr"] = "bilal"
	st.put(cfg)
	e.Restart(1)

	waitFor(t, "alert timer armed", func() bool { return clock.pendingTimers() >= 2 })
	clock.Advance(50 * time.Second)

	waitFor(t, "alert message sent", func() bool { return notifier.messageCount() == 1 })

	msg := notifier.allMessages()[0]
	if !strings.HasPrefix(msg, "@bilal ") {
		t.Errorf("expected the alert to mention the muezzin, got %q", msg)
	}
	waitFor(t, "availability prompt sent", func() bool { return notifier.promptCount() == 1 })
}

func TestEngine_RestartSupersedesOldLoop(t *testing.T) {
	start := time.Date(2026, time.March, 2, 15, 49, 10, 0, time.UTC)
	e, st, _, notifier, clock := testEngine(t, start)
	defer e.Stop(1)

	st.put(enabledConfig(1))
	e.Restart(1)
	waitFor(t, "first loop armed", func() bool { return clock.pendingTimers() >= 2 })

	e.Restart(1)
	// The old alert timer is stopped; the new loop arms its own pair. The
	// old window timer stays behind but its loop is already cancelled.
	waitFor(t, "second loop armed", func() bool { return clock.pendingTimers() >= 3 })

	clock.Advance(50 * time.Second)

	waitFor(t, "alert message sent", func() bool { return notifier.messageCount() >= 1 })
	time.Sleep(20 * time.Millisecond)

	if got := notifier.messageCount(); got != 1 {
		t.Fatalf("expected exactly one alert after restart, got %d: %v", got, notifier.allMessages())
	}
}

func TestEngine_StopCancelsPendingAlert(t *testing.T) {
	start := time.Date(2026, time.March, 2, 15, 49, 10, 0, time.UTC)
	e, st, _, notifier, clock := testEngine(t, start)

	st.put(enabledConfig(1))
	e.Restart(1)
	waitFor(t, "loop armed", func() bool { return clock.pendingTimers() >= 2 })

	e.Stop(1)
	clock.Advance(50 * time.Second)
	time.Sleep(20 * time.Millisecond)

	if got := notifier.messageCount(); got != 0 {
		t.Fatalf("expected no alert after Stop, got %d: %v", got, notifier.allMessages())
	}
}

func TestEngine_LoopExitsWhenAlertsDisabled(t *testing.T) {
	start := time.Date(2026, time.March, 2, 15, 49, 10, 0, time.UTC)
	e, st, _, notifier, clock := testEngine(t, start)
	defer e.Stop(1)

	cfg := enabledConfig(1)
	cfg.AlertsEnabled = false
	st.put(cfg)
	e.Restart(1)

	time.Sleep(20 * time.Millisecond)
	if got := clock.pendingTimers(); got != 0 {
		t.Errorf("expected no timers for a disabled chat, got %d", got)
	}
	if got := notifier.messageCount(); got != 0 {
		t.Errorf("expected no messages for a disabled chat, got %d", got)
	}
}

func TestEngine_CursorPersistKeepsConcurrentConfigChanges(t *testing.T) {
	// A command can rewrite the config while the loop is inside the
	// timetable fetch. Persisting the cursor must not revert it.
	start := time.Date(2026, time.March, 2, 15, 49, 10, 0, time.UTC)
	e, st, source, _, clock := testEngine(t, start)
	defer e.Stop(1)

	gate := make(chan struct{})
	source.gate = gate

	st.put(enabledConfig(1))
	e.Restart(1)

	// The loop has read the config and is blocked in the fetch.
	waitFor(t, "loop inside fetch", func() bool { return source.fetchCalls() == 1 })

	cfg, err := st.GetChatConfig(context.Background(), 1)
	if err != nil || cfg == nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg.Roster["Asr"] = "alice"
	if err := st.SaveChatConfig(context.Background(), cfg); err != nil {
		t.Fatalf("failed to save roster change: %v", err)
	}

	close(gate)
	waitFor(t, "alert timer armed", func() bool { return clock.pendingTimers() >= 2 })

	got, err := st.GetChatConfig(context.Background(), 1)
	if err != nil || got == nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if got.Roster["Asr"] != "alice" {
		t.Errorf("roster change reverted by the cursor persist: %v", got.Roster)
	}
	if got.CurrentPrayerNum != 1 {
		t.Errorf("expected cursor 1 persisted before the alert, got %d", got.CurrentPrayerNum)
	}
}

func TestEngine_FallsBackToCachedTimetable(t *testing.T) {
	start := time.Date(2026, time.March, 2, 15, 49, 10, 0, time.UTC)
	e, st, source, notifier, clock := testEngine(t, start)
	defer e.Stop(1)

	st.put(enabledConfig(1))
	e.Restart(1)
	waitFor(t, "loop armed", func() bool { return clock.pendingTimers() >= 2 })

	// Asr fires, then the window elapses and the next fetch fails. The
	// cached timetable still drives the Maghrib alert.
	source.setErr(errors.New("api down"))
	clock.Advance(50 * time.Second)
	waitFor(t, "first alert sent", func() bool { return notifier.messageCount() == 1 })

	clock.Advance(605 * time.Second)
	waitFor(t, "loop re-armed from cache", func() bool { return source.fetchCalls() >= 2 && clock.pendingTimers() >= 2 })

	// now is 16:00:05; the Maghrib alert is due at 19:10.
	clock.Advance(3*time.Hour + 9*time.Minute + 55*time.Second)
	waitFor(t, "second alert sent", func() bool { return notifier.messageCount() == 2 })

	msg := notifier.allMessages()[1]
	if !strings.HasPrefix(msg, "Maghrib ") {
		t.Errorf("expected a Maghrib alert from the cached timetable, got %q", msg)
	}
}

func TestEngine_RetriesWhenNoTimetableAtAll(t *testing.T) {
	start := time.Date(2026, time.March, 2, 15, 49, 10, 0, time.UTC)
	e, st, source, notifier, clock := testEngine(t, start)
	defer e.Stop(1)

	source.setErr(errors.New("api down"))
	st.put(enabledConfig(1))
	e.Restart(1)

	// Nothing cached: the loop backs off and retries.
	waitFor(t, "backoff timer armed", func() bool { return clock.pendingTimers() == 1 })

	clock.Advance(time.Hour)
	waitFor(t, "fetch retried", func() bool { return source.fetchCalls() >= 2 })

	if got := notifier.messageCount(); got != 0 {
		t.Errorf("expected no messages without a timetable, got %d", got)
	}
}

func TestEngine_FiresImmediatelyInsideLeadWindow(t *testing.T) {
	// 5 minutes before Asr with a 10 minute lead: the computed delay is
	// negative and the alert fires right away.
	start := time.Date(2026, time.March, 2, 15, 55, 0, 0, time.UTC)
	e, st, _, notifier, clock := testEngine(t, start)
	defer e.Stop(1)

	st.put(enabledConfig(1))
	e.Restart(1)

	waitFor(t, "immediate alert sent", func() bool { return notifier.messageCount() == 1 })

	msg := notifier.allMessages()[0]
	if !strings.HasPrefix(msg, "Asr ") {
		t.Errorf("expected an immediate Asr alert, got %q", msg)
	}
	_ = clock
}

func TestEngine_StartAllRestartsEnabledChats(t *testing.T) {
	start := time.Date(2026, time.March, 2, 15, 49, 10, 0, time.UTC)
	e, st, _, _, clock := testEngine(t, start)
	defer e.Stop(1)
	defer e.Stop(2)

	st.put(enabledConfig(1))
	disabled := enabledConfig(2)
	disabled.AlertsEnabled = false
	st.put(disabled)

	if err := e.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}

	// Only the enabled chat arms timers.
	waitFor(t, "enabled chat loop armed", func() bool { return clock.pendingTimers() == 2 })
	time.Sleep(20 * time.Millisecond)
	if got := clock.pendingTimers(); got != 2 {
		t.Errorf("expected timers for one chat only, got %d", got)
	}
}
