package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"muezzin_reminder_bot/internal/storage/models"
	"muezzin_reminder_bot/pkg/logger"
	"muezzin_reminder_bot/pkg/metrics"
)

// Terminal availability outcomes
const (
	OutcomeConfirmed = "confirmed"
	OutcomeDeclined  = "declined"
	OutcomeExpired   = "expired"
)

// pendingAvailability is one outstanding availability prompt
type pendingAvailability struct {
	chatID          int64
	muezzin         string
	prayerName      string
	promptMessageID int
	timeout         Timer
	lead            time.Duration
	responseTimeout time.Duration
	notifyOnExpiry  bool
}

// AvailabilityManager runs the confirm/decline/timeout exchange that
// follows an alert when a muezzin is assigned. One prompt per chat is
// outstanding at a time; a new prompt supersedes the previous one.
type AvailabilityManager struct {
	mu       sync.Mutex
	pending  map[int64]*pendingAvailability
	notifier Notifier
	clock    Clock
	log      *logger.Logger
}

// NewAvailabilityManager creates a new availability manager
func NewAvailabilityManager(notifier Notifier, clock Clock, log *logger.Logger) *AvailabilityManager {
	return &AvailabilityManager{
		pending:  make(map[int64]*pendingAvailability),
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

// Begin sends the yes/no prompt to the assigned muezzin and arms the
// response timeout.
func (m *AvailabilityManager) Begin(ctx context.Context, cfg *models.ChatConfig, prayerName, muezzin string) error {
	text := fmt.Sprintf("@%s, are you available to lead %s?", muezzin, prayerName)

	messageID, err := m.notifier.SendAvailabilityPrompt(ctx, cfg.ChatID, text)
	if err != nil {
		return fmt.Errorf("failed to send availability prompt: %w", err)
	}

	p := &pendingAvailability{
		chatID:          cfg.ChatID,
		muezzin:         muezzin,
		prayerName:      prayerName,
		promptMessageID: messageID,
		lead:            cfg.LeadDuration(),
		responseTimeout: cfg.ResponseTimeout(),
		notifyOnExpiry:  cfg.NotifyOnNoResponse,
	}

	m.mu.Lock()
	if prev, ok := m.pending[cfg.ChatID]; ok {
		prev.timeout.Stop()
	}
	p.timeout = m.clock.AfterFunc(p.responseTimeout, func() {
		m.expire(cfg.ChatID, p)
	})
	m.pending[cfg.ChatID] = p
	count := len(m.pending)
	m.mu.Unlock()

	metrics.AvailabilityPrompts.Inc()
	metrics.SetPendingAvailabilityPrompts(float64(count))

	return nil
}

// HandleReply resolves an outstanding prompt with an inline yes/no reply.
// Replies from anyone other than the assigned muezzin are ignored; the
// return value reports whether the reply was accepted.
func (m *AvailabilityManager) HandleReply(ctx context.Context, chatID int64, username string, available bool) bool {
	m.mu.Lock()
	p, ok := m.pending[chatID]
	if !ok || !strings.EqualFold(username, p.muezzin) {
		m.mu.Unlock()
		return false
	}
	delete(m.pending, chatID)
	count := len(m.pending)
	m.mu.Unlock()

	p.timeout.Stop()
	metrics.SetPendingAvailabilityPrompts(float64(count))

	if err := m.notifier.DeleteMessage(ctx, chatID, p.promptMessageID); err != nil {
		m.log.Warn("Failed to delete availability prompt",
			logger.Int64("chat_id", chatID), logger.Error(err))
	}

	var text, outcome string
	if available {
		text = fmt.Sprintf("@%s has confirmed availability for %s.", p.muezzin, p.prayerName)
		outcome = OutcomeConfirmed
	} else {
		text = fmt.Sprintf("@%s is not available for %s. Please stand by to cover.", p.muezzin, p.prayerName)
		outcome = OutcomeDeclined
	}

	if err := m.notifier.SendMessage(ctx, chatID, text); err != nil {
		m.log.Error("Failed to broadcast availability outcome",
			logger.Int64("chat_id", chatID), logger.Error(err))
	}

	metrics.RecordAvailabilityOutcome(outcome)
	return true
}

// expire fires when the response timeout elapses with no qualifying reply
func (m *AvailabilityManager) expire(chatID int64, p *pendingAvailability) {
	m.mu.Lock()
	current, ok := m.pending[chatID]
	if !ok || current != p {
		// Already resolved or superseded.
		m.mu.Unlock()
		return
	}
	delete(m.pending, chatID)
	count := len(m.pending)
	m.mu.Unlock()

	metrics.SetPendingAvailabilityPrompts(float64(count))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if p.notifyOnExpiry {
		text := fmt.Sprintf("@%s has not confirmed availability for %s.", p.muezzin, p.prayerName)
		if err := m.notifier.SendMessage(ctx, chatID, text); err != nil {
			m.log.Error("Failed to broadcast no-response notice",
				logger.Int64("chat_id", chatID), logger.Error(err))
		}
	}

	// The unanswered prompt is removed lead minus responseTimeout after
	// the original alert. Expiry already consumed responseTimeout of
	// that, so the remainder is lead minus twice the timeout.
	cleanupDelay := p.lead - 2*p.responseTimeout
	if cleanupDelay < 0 {
		cleanupDelay = 0
	}
	messageID := p.promptMessageID
	m.clock.AfterFunc(cleanupDelay, func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.notifier.DeleteMessage(cleanupCtx, chatID, messageID); err != nil {
			m.log.Warn("Failed to delete expired availability prompt",
				logger.Int64("chat_id", chatID), logger.Error(err))
		}
	})

	metrics.RecordAvailabilityOutcome(OutcomeExpired)
}

// PendingCount returns the number of outstanding prompts
func (m *AvailabilityManager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
