package handlers

import (
	"context"
	"log"

	botservice "muezzin_reminder_bot/internal/bot/service"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// DefaultHandler handles unrecognized messages
type DefaultHandler struct {
	service *botservice.Service
}

// NewDefaultHandler creates a new default handler
func NewDefaultHandler(service *botservice.Service) *DefaultHandler {
	return &DefaultHandler{service: service}
}

// Handle handles every message no other handler claimed
func (h *DefaultHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	// Groups chatter constantly; only nudge on unrecognized commands.
	if len(update.Message.Text) == 0 || update.Message.Text[0] != '/' {
		return
	}

	chatID := update.Message.Chat.ID

	message := "Unknown command. Send /help to see what I can do."
	if err := h.service.SendSimpleMessage(ctx, chatID, message); err != nil {
		log.Printf("Failed to send default message to %d: %v", chatID, err)
	}
}
