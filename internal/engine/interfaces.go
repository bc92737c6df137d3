package engine

import (
	"context"

	"muezzin_reminder_bot/internal/prayer"
)

// Notifier delivers messages to a chat
type Notifier interface {
	// SendMessage sends a plain text message
	SendMessage(ctx context.Context, chatID int64, text string) error

	// SendAvailabilityPrompt sends a yes/no prompt and returns the
	// message ID of the prompt for later deletion
	SendAvailabilityPrompt(ctx context.Context, chatID int64, text string) (int, error)

	// DeleteMessage deletes a previously sent message
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// TimetableSource provides today's prayer timetable for a zone
type TimetableSource interface {
	FetchTimetable(ctx context.Context, zone string) (prayer.Timetable, error)
}
