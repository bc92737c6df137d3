package keyboard

import (
	"github.com/go-telegram/bot/models"
)

// Callback data for availability replies
const (
	CallbackAvailable    = "avail:yes"
	CallbackNotAvailable = "avail:no"
)

// CreateAvailabilityKeyboard builds the yes/no inline keyboard attached
// to an availability prompt
func CreateAvailabilityKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{
					Text:         "I am available",
					CallbackData: CallbackAvailable,
				},
				{
					Text:         "Not available",
					CallbackData: CallbackNotAvailable,
				},
			},
		},
	}
}

// CreateRemoveKeyboard builds the marker object that removes a custom
// reply keyboard
func CreateRemoveKeyboard() *models.ReplyKeyboardRemove {
	return &models.ReplyKeyboardRemove{
		RemoveKeyboard: true,
	}
}
