package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"muezzin_reminder_bot/internal/prayer"
	"muezzin_reminder_bot/internal/storage"
	"muezzin_reminder_bot/pkg/logger"
	"muezzin_reminder_bot/pkg/metrics"
)

// Settings holds the engine-wide scheduling knobs
type Settings struct {
	// RetryBackoff is the wait before retrying when no timetable is
	// available at all, neither fresh nor cached.
	RetryBackoff time.Duration

	// SafetyMargin is added to the lead time when sleeping through the
	// alert window, so the loop does not refetch before the armed alert
	// has fired.
	SafetyMargin time.Duration

	// MidnightGrace is added to the wait-until-midnight delay when every
	// prayer has already passed today.
	MidnightGrace time.Duration
}

// session is the per-chat scheduling record: run token, in-flight alert
// timer and the cached timetable. All fields are guarded by Engine.mu.
type session struct {
	token        uint64
	alertTimer   Timer
	cancel       context.CancelFunc
	timetable    prayer.Timetable
	hasTimetable bool
}

// Engine owns the recurring compute-delay, wait, fire, recompute loop for
// every chat with alerts enabled. Each chat runs one goroutine; a run
// token per chat invalidates superseded loops on reconfiguration.
type Engine struct {
	mu       sync.Mutex
	sessions map[int64]*session

	storage      storage.Storage
	source       TimetableSource
	notifier     Notifier
	availability *AvailabilityManager
	clock        Clock
	log          *logger.Logger
	settings     Settings
}

// New creates a new scheduling engine
func New(
	st storage.Storage,
	source TimetableSource,
	notifier Notifier,
	availability *AvailabilityManager,
	clock Clock,
	log *logger.Logger,
	settings Settings,
) *Engine {
	return &Engine{
		sessions:     make(map[int64]*session),
		storage:      st,
		source:       source,
		notifier:     notifier,
		availability: availability,
		clock:        clock,
		log:          log,
		settings:     settings,
	}
}

// Restart supersedes any running loop for the chat and starts a new one.
// The token increment happens before the new loop launches, so the old
// loop is guaranteed to observe the mismatch at its next wake-up.
func (e *Engine) Restart(chatID int64) {
	e.mu.Lock()
	s, ok := e.sessions[chatID]
	if !ok {
		s = &session{}
		e.sessions[chatID] = s
	}
	s.token++
	myToken := s.token

	if s.alertTimer != nil {
		s.alertTimer.Stop()
		s.alertTimer = nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	e.mu.Unlock()

	go e.runLoop(ctx, chatID, myToken)
}

// Stop cancels the chat's loop without starting a new one
func (e *Engine) Stop(chatID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[chatID]
	if !ok {
		return
	}
	s.token++
	if s.alertTimer != nil {
		s.alertTimer.Stop()
		s.alertTimer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// StartAll restarts a loop for every chat whose alerts are enabled.
// Called on process start; failures in one chat do not affect others.
func (e *Engine) StartAll(ctx context.Context) error {
	configs, err := e.storage.ListEnabledChats(ctx)
	if err != nil {
		return fmt.Errorf("failed to list enabled chats: %w", err)
	}

	for _, cfg := range configs {
		e.Restart(cfg.ChatID)
	}

	e.log.Info("Alert loops restarted", logger.Int("chats", len(configs)))
	return nil
}

// runLoop is one loop instance for a chat, valid while its token matches
func (e *Engine) runLoop(ctx context.Context, chatID int64, myToken uint64) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Alert loop panicked",
				logger.Int64("chat_id", chatID),
				logger.Field{Key: "panic", Value: r})
			metrics.RecordError("engine", "loop_panic")
		}
	}()

	metrics.ActiveAlertLoops.Inc()
	defer metrics.ActiveAlertLoops.Dec()

	for {
		cfg, err := e.storage.GetChatConfig(ctx, chatID)
		if err != nil {
			e.log.Error("Alert loop failed to load chat config",
				logger.Int64("chat_id", chatID), logger.Error(err))
			metrics.RecordError("engine", "config_load")
			return
		}
		if cfg == nil || !cfg.AlertsEnabled {
			return
		}

		tt, ok := e.refreshTimetable(ctx, chatID, cfg.Zone)
		if !ok {
			// Nothing cached either. Come back later.
			if !e.wait(ctx, e.settings.RetryBackoff) {
				return
			}
			if !e.tokenValid(chatID, myToken) {
				return
			}
			continue
		}

		next, err := ComputeNextAlert(tt, e.clock.Now(), cfg.LeadDuration(), e.settings.MidnightGrace)
		if err != nil {
			e.log.Error("Alert loop failed to compute next delay",
				logger.Int64("chat_id", chatID), logger.Error(err))
			metrics.RecordError("engine", "delay_compute")
			if !e.wait(ctx, e.settings.RetryBackoff) {
				return
			}
			if !e.tokenValid(chatID, myToken) {
				return
			}
			continue
		}

		if next.Rollover {
			// Sleep through the rest of the day, refetch after midnight.
			if !e.wait(ctx, next.Delay) {
				return
			}
			if !e.tokenValid(chatID, myToken) {
				return
			}
			continue
		}

		// The prayer preceding the upcoming one is current until the
		// alert fires. Cursor-only write: the config read above may be
		// stale by now, and a full upsert would revert concurrent
		// command changes.
		if cfg.CurrentPrayerNum != next.Cursor {
			cfg.CurrentPrayerNum = next.Cursor
			if err := e.storage.SetCurrentPrayerNum(ctx, chatID, next.Cursor); err != nil {
				e.log.Error("Failed to persist prayer cursor",
					logger.Int64("chat_id", chatID), logger.Error(err))
			}
		}

		delay := next.Delay
		if delay < 0 {
			// The lead window has already started. Fire immediately
			// instead of scheduling a timer into the past.
			delay = 0
		}

		entry := tt[next.NextIndex]
		timer := e.clock.AfterFunc(delay, func() {
			e.fireAlert(chatID, myToken, entry)
		})

		e.mu.Lock()
		s := e.sessions[chatID]
		if s == nil || s.token != myToken {
			e.mu.Unlock()
			timer.Stop()
			return
		}
		s.alertTimer = timer
		e.mu.Unlock()

		// Sleep past the alert window so the timetable is not refetched
		// before the just-armed alert has fired.
		window := delay + cfg.LeadDuration() + e.settings.SafetyMargin
		if !e.wait(ctx, window) {
			return
		}
		if !e.tokenValid(chatID, myToken) {
			return
		}
	}
}

// fireAlert runs when the one-shot alert timer fires
func (e *Engine) fireAlert(chatID int64, myToken uint64, entry prayer.Entry) {
	if !e.tokenValid(chatID, myToken) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := e.storage.GetChatConfig(ctx, chatID)
	if err != nil || cfg == nil {
		e.log.Error("Alert fired but chat config is unavailable",
			logger.Int64("chat_id", chatID), logger.Error(err))
		metrics.RecordError("engine", "alert_config_load")
		return
	}

	// The cursor advances on every fired alert, muezzin or not.
	num := cfg.AdvanceCursor()
	if err := e.storage.SetCurrentPrayerNum(ctx, chatID, num); err != nil {
		e.log.Error("Failed to persist advanced prayer cursor",
			logger.Int64("chat_id", chatID), logger.Error(err))
	}

	prayerName := entry.Name
	text := fmt.Sprintf("%s in %d minutes (%s).", prayerName, cfg.LeadSeconds/60, entry.Time)
	if muezzin, ok := cfg.Muezzin(prayerName); ok {
		text = fmt.Sprintf("@%s %s", muezzin, text)
	}

	if err := e.notifier.SendMessage(ctx, chatID, text); err != nil {
		e.log.Error("Failed to send prayer alert",
			logger.Int64("chat_id", chatID),
			logger.String("prayer", prayerName),
			logger.Error(err))
		metrics.RecordAlert(prayerName, "error")
		return
	}

	metrics.RecordAlert(prayerName, "sent")

	if muezzin, ok := cfg.Muezzin(prayerName); ok {
		if err := e.availability.Begin(ctx, cfg, prayerName, muezzin); err != nil {
			e.log.Error("Failed to start availability sub-flow",
				logger.Int64("chat_id", chatID),
				logger.String("muezzin", muezzin),
				logger.Error(err))
			metrics.RecordError("engine", "availability_begin")
		}
	}
}

// refreshTimetable fetches a fresh timetable for the zone and caches it in
// the chat's session. On fetch failure the cached copy is used; the second
// return value is false only when neither is available.
func (e *Engine) refreshTimetable(ctx context.Context, chatID int64, zone string) (prayer.Timetable, bool) {
	tt, err := e.source.FetchTimetable(ctx, zone)
	if err == nil && !tt.IsZero() {
		e.mu.Lock()
		if s, ok := e.sessions[chatID]; ok {
			s.timetable = tt
			s.hasTimetable = true
		}
		e.mu.Unlock()
		return tt, true
	}

	if err != nil {
		e.log.Warn("Timetable fetch failed, falling back to cache",
			logger.Int64("chat_id", chatID),
			logger.String("zone", zone),
			logger.Error(err))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[chatID]; ok && s.hasTimetable {
		return s.timetable, true
	}
	return prayer.Timetable{}, false
}

// wait blocks for d or until the loop is cancelled
func (e *Engine) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-e.clock.After(d):
		return true
	}
}

// tokenValid reports whether the captured token is still the chat's
// current one
func (e *Engine) tokenValid(chatID int64, myToken uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[chatID]
	return ok && s.token == myToken
}
