package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	botservice "muezzin_reminder_bot/internal/bot/service"
	"muezzin_reminder_bot/pkg/metrics"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ZonesHandler handles the /list_zones and /enable commands
type ZonesHandler struct {
	service *botservice.Service
}

// NewZonesHandler creates a new zones handler
func NewZonesHandler(service *botservice.Service) *ZonesHandler {
	return &ZonesHandler{service: service}
}

// HandleListZones handles the /list_zones command
func (h *ZonesHandler) HandleListZones(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	zones := h.service.Zones()
	if len(zones) == 0 {
		h.service.SendError(ctx, chatID, "Zone list is unavailable right now. Please try again later.")
		metrics.RecordCommand("list_zones", "error")
		return
	}

	text := "Available zones:\n\n" + strings.Join(zones, ", ")
	if err := h.service.SendSimpleMessage(ctx, chatID, text); err != nil {
		log.Printf("Failed to send zone list to %d: %v", chatID, err)
		metrics.RecordCommand("list_zones", "error")
		return
	}

	metrics.RecordCommand("list_zones", "ok")
}

// HandleEnable handles the /enable command
func (h *ZonesHandler) HandleEnable(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	args := strings.Fields(update.Message.Text)
	if len(args) < 2 {
		h.reply(ctx, chatID, update.Message.ID,
			"Bad format. Usage: /enable ZONE_NAME. View valid zones with /list_zones.")
		metrics.RecordCommand("enable", "bad_format")
		return
	}

	zone := strings.ToLower(args[1])

	cfg, err := h.service.EnableAlerts(ctx, chatID, zone)
	if err != nil {
		log.Printf("Failed to enable alerts for %d in zone %q: %v", chatID, zone, err)
		h.reply(ctx, chatID, update.Message.ID,
			"Zone not found. Make sure the selected zone is valid. View valid zones with /list_zones.")
		metrics.RecordCommand("enable", "invalid_zone")
		return
	}

	text := fmt.Sprintf("Alerts enabled for %s. An alert will be sent %d minutes before the next azan.",
		zone, cfg.LeadSeconds/60)
	h.reply(ctx, chatID, update.Message.ID, text)
	metrics.RecordCommand("enable", "ok")
}

func (h *ZonesHandler) reply(ctx context.Context, chatID int64, messageID int, text string) {
	if err := h.service.Reply(ctx, chatID, messageID, text); err != nil {
		log.Printf("Failed to reply to %d: %v", chatID, err)
	}
}
