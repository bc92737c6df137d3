package middleware

import (
	"sync"
	"time"

	"muezzin_reminder_bot/pkg/logger"
)

// ChatRateLimiter limits how many updates a single chat may send per
// window. Telegram delivers every update from its own infrastructure, so
// limiting by remote address is useless; limiting by chat id is not.
type ChatRateLimiter struct {
	mu       sync.Mutex
	counters map[int64]*chatCounter
	limit    int
	window   time.Duration
	log      *logger.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

type chatCounter struct {
	count       int
	windowStart time.Time
}

// NewChatRateLimiter creates a limiter allowing limit updates per chat
// per window
func NewChatRateLimiter(limit int, window time.Duration, log *logger.Logger) *ChatRateLimiter {
	rl := &ChatRateLimiter{
		counters: make(map[int64]*chatCounter),
		limit:    limit,
		window:   window,
		log:      log,
		stop:     make(chan struct{}),
	}

	go rl.cleanupLoop()
	return rl
}

// Allow reports whether the chat is within its rate limit
func (rl *ChatRateLimiter) Allow(chatID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.counters[chatID]
	if !ok || now.Sub(c.windowStart) >= rl.window {
		rl.counters[chatID] = &chatCounter{count: 1, windowStart: now}
		return true
	}

	c.count++
	if c.count > rl.limit {
		rl.log.Warn("Chat exceeded rate limit",
			logger.Int64("chat_id", chatID),
			logger.Int("count", c.count))
		return false
	}

	return true
}

// cleanupLoop drops counters for chats that have gone quiet
func (rl *ChatRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for chatID, c := range rl.counters {
				if now.Sub(c.windowStart) >= 2*rl.window {
					delete(rl.counters, chatID)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Close stops the cleanup loop
func (rl *ChatRateLimiter) Close() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}
