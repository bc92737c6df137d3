package handlers

import (
	"context"
	"log"

	"muezzin_reminder_bot/internal/bot/keyboard"
	botservice "muezzin_reminder_bot/internal/bot/service"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// CallbackHandler handles inline keyboard callback queries
type CallbackHandler struct {
	service *botservice.Service
}

// NewCallbackHandler creates a new callback query handler
func NewCallbackHandler(service *botservice.Service) *CallbackHandler {
	return &CallbackHandler{service: service}
}

// Handle handles a callback query
func (h *CallbackHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	if cb.Message.Message == nil {
		return
	}
	chatID := cb.Message.Message.Chat.ID

	switch cb.Data {
	case keyboard.CallbackAvailable:
		h.handleAvailabilityReply(ctx, cb, chatID, true)
	case keyboard.CallbackNotAvailable:
		h.handleAvailabilityReply(ctx, cb, chatID, false)
	default:
		h.service.AnswerCallbackQuery(ctx, cb.ID, "Unknown selection")
	}
}

func (h *CallbackHandler) handleAvailabilityReply(ctx context.Context, cb *models.CallbackQuery, chatID int64, available bool) {
	username := cb.From.Username

	accepted := h.service.HandleAvailabilityReply(ctx, chatID, username, available)

	// A reply from anyone but the assigned muezzin, or after the prompt
	// has resolved, is a no-op. Still answer the query so the client
	// stops its loading indicator.
	text := ""
	if accepted {
		text = "Thanks, noted."
	}
	if err := h.service.AnswerCallbackQuery(ctx, cb.ID, text); err != nil {
		log.Printf("Failed to answer callback query: %v", err)
	}
}
