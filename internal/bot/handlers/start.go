package handlers

import (
	"context"
	"log"
	"strings"

	botservice "muezzin_reminder_bot/internal/bot/service"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// StartHandler handles the /start and /help commands
type StartHandler struct {
	service *botservice.Service
}

// NewStartHandler creates a new /start handler
func NewStartHandler(service *botservice.Service) *StartHandler {
	return &StartHandler{service: service}
}

// Handle handles the /start command
func (h *StartHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	cfg, err := h.service.GetOrCreateConfig(ctx, chatID)
	if err != nil {
		log.Printf("Failed to load config for %d: %v", chatID, err)
		h.service.SendError(ctx, chatID, "Something went wrong, please try again.")
		return
	}

	text := "السلام عليكم ورحمة الله وبركاته.\nThe Muezzin Reminder Bot is online."
	if !cfg.AlertsEnabled {
		text += " To enable alerts, send \"/enable ZONE_NAME\"."
	}

	if err := h.service.Reply(ctx, chatID, update.Message.ID, text); err != nil {
		log.Printf("Failed to send greeting to %d: %v", chatID, err)
		return
	}

	h.sendZoneList(ctx, chatID)
}

// HandleHelp handles the /help command
func (h *StartHandler) HandleHelp(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	lines := []string{
		"Usage:",
		"/enable ZONE_NAME - Enable alerts for the given zone.",
		"/change_alert_time MINUTES - Set how long before each azan the alert is sent.",
		"/set_muezzin PRAYER_NAME USERNAME - Assign a muezzin for a prayer.",
		"/show_schedule - View the current muezzin schedule.",
		"/show_prayer_times - View today's prayer times.",
		"/list_zones - View available zones.",
		"/start - Start the bot.",
	}

	if err := h.service.Reply(ctx, chatID, update.Message.ID, strings.Join(lines, "\n")); err != nil {
		log.Printf("Failed to send help to %d: %v", chatID, err)
	}
}

func (h *StartHandler) sendZoneList(ctx context.Context, chatID int64) {
	zones := h.service.Zones()
	if len(zones) == 0 {
		h.service.SendError(ctx, chatID, "Zone list is unavailable right now, try /list_zones later.")
		return
	}

	text := "Available zones:\n\n" + strings.Join(zones, ", ")
	if err := h.service.SendSimpleMessage(ctx, chatID, text); err != nil {
		log.Printf("Failed to send zone list to %d: %v", chatID, err)
	}
}
