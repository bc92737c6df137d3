package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	botservice "muezzin_reminder_bot/internal/bot/service"
	"muezzin_reminder_bot/internal/prayer"
	"muezzin_reminder_bot/internal/validation"
	"muezzin_reminder_bot/pkg/metrics"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ScheduleHandler handles the roster and timetable commands:
// /set_muezzin, /show_schedule, /show_prayer_times, /change_alert_time
type ScheduleHandler struct {
	service *botservice.Service
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(service *botservice.Service) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// HandleSetMuezzin handles the /set_muezzin command
func (h *ScheduleHandler) HandleSetMuezzin(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	args := strings.Fields(update.Message.Text)
	if len(args) < 3 {
		h.reply(ctx, chatID, update.Message.ID,
			"Bad format. Usage: /set_muezzin PRAYER_NAME USERNAME.")
		metrics.RecordCommand("set_muezzin", "bad_format")
		return
	}

	prayerName, err := validation.ValidatePrayerName(args[1])
	if err != nil {
		h.reply(ctx, chatID, update.Message.ID,
			"Unknown prayer name. Use one of: Fajr, Dhuhr, Asr, Maghrib, Isha.")
		metrics.RecordCommand("set_muezzin", "invalid_prayer")
		return
	}

	username, err := validation.ValidateUsername(args[2])
	if err != nil {
		h.reply(ctx, chatID, update.Message.ID,
			"Invalid username. Usernames are letters, digits and underscores.")
		metrics.RecordCommand("set_muezzin", "invalid_username")
		return
	}

	if err := h.service.SetMuezzin(ctx, chatID, prayerName, username); err != nil {
		log.Printf("Failed to set muezzin for %d: %v", chatID, err)
		h.service.SendError(ctx, chatID, "Failed to save the schedule. Please try again.")
		metrics.RecordCommand("set_muezzin", "error")
		return
	}

	text := fmt.Sprintf("@%s assigned as muezzin for %s prayer.", username, prayerName)
	h.reply(ctx, chatID, update.Message.ID, text)
	metrics.RecordCommand("set_muezzin", "ok")
}

// HandleShowSchedule handles the /show_schedule command
func (h *ScheduleHandler) HandleShowSchedule(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	cfg, err := h.service.GetOrCreateConfig(ctx, chatID)
	if err != nil {
		log.Printf("Failed to load config for %d: %v", chatID, err)
		h.service.SendError(ctx, chatID, "Failed to load the schedule. Please try again.")
		metrics.RecordCommand("show_schedule", "error")
		return
	}

	var b2 strings.Builder
	b2.WriteString("Muezzin schedule:\n\n")
	for _, name := range prayer.Names {
		if muezzin, ok := cfg.Muezzin(name); ok {
			fmt.Fprintf(&b2, "%s: @%s\n", name, muezzin)
		} else {
			fmt.Fprintf(&b2, "%s: unassigned\n", name)
		}
	}

	if err := h.service.SendSimpleMessage(ctx, chatID, strings.TrimRight(b2.String(), "\n")); err != nil {
		log.Printf("Failed to send schedule to %d: %v", chatID, err)
		metrics.RecordCommand("show_schedule", "error")
		return
	}

	metrics.RecordCommand("show_schedule", "ok")
}

// HandleShowPrayerTimes handles the /show_prayer_times command
func (h *ScheduleHandler) HandleShowPrayerTimes(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	tt, zone, err := h.service.FetchPrayerTimes(ctx, chatID)
	if err != nil {
		log.Printf("Failed to fetch prayer times for %d: %v", chatID, err)
		h.service.SendError(ctx, chatID, "Could not fetch prayer times right now. Please try again later.")
		metrics.RecordCommand("show_prayer_times", "error")
		return
	}

	text := fmt.Sprintf("Prayer times for %s today:\n\n%s", zone, tt.Format())
	if err := h.service.SendSimpleMessage(ctx, chatID, text); err != nil {
		log.Printf("Failed to send prayer times to %d: %v", chatID, err)
		metrics.RecordCommand("show_prayer_times", "error")
		return
	}

	metrics.RecordCommand("show_prayer_times", "ok")
}

// HandleChangeAlertTime handles the /change_alert_time command
func (h *ScheduleHandler) HandleChangeAlertTime(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	args := strings.Fields(update.Message.Text)
	if len(args) < 2 {
		h.reply(ctx, chatID, update.Message.ID,
			"Bad format. Usage: /change_alert_time MINUTES.")
		metrics.RecordCommand("change_alert_time", "bad_format")
		return
	}

	minutes, err := validation.ValidateLeadMinutes(args[1])
	if err != nil {
		h.reply(ctx, chatID, update.Message.ID,
			"Bad format. Usage: /change_alert_time MINUTES, where MINUTES is a positive number.")
		metrics.RecordCommand("change_alert_time", "invalid_minutes")
		return
	}

	if err := h.service.SetLeadTime(ctx, chatID, minutes); err != nil {
		log.Printf("Failed to change alert time for %d: %v", chatID, err)
		h.service.SendError(ctx, chatID, "Failed to change the alert time. Please try again.")
		metrics.RecordCommand("change_alert_time", "error")
		return
	}

	text := fmt.Sprintf("Alerts will now be sent %d minutes before each azan.", minutes)
	h.reply(ctx, chatID, update.Message.ID, text)
	metrics.RecordCommand("change_alert_time", "ok")
}

func (h *ScheduleHandler) reply(ctx context.Context, chatID int64, messageID int, text string) {
	if err := h.service.Reply(ctx, chatID, messageID, text); err != nil {
		log.Printf("Failed to reply to %d: %v", chatID, err)
	}
}
