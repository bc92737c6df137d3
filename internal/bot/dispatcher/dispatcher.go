package dispatcher

import (
	"context"
	"log"
	"strings"

	"muezzin_reminder_bot/internal/bot/handlers"
	"muezzin_reminder_bot/internal/bot/service"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Dispatcher routes incoming Telegram updates to handlers
type Dispatcher struct {
	startHandler    *handlers.StartHandler
	zonesHandler    *handlers.ZonesHandler
	scheduleHandler *handlers.ScheduleHandler
	callbackHandler *handlers.CallbackHandler
	defaultHandler  *handlers.DefaultHandler
}

// NewDispatcher creates a new update dispatcher
func NewDispatcher(service *service.Service) *Dispatcher {
	return &Dispatcher{
		startHandler:    handlers.NewStartHandler(service),
		zonesHandler:    handlers.NewZonesHandler(service),
		scheduleHandler: handlers.NewScheduleHandler(service),
		callbackHandler: handlers.NewCallbackHandler(service),
		defaultHandler:  handlers.NewDefaultHandler(service),
	}
}

// HandleUpdate routes a single incoming update
func (d *Dispatcher) HandleUpdate(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		d.callbackHandler.Handle(ctx, bot, update)
		return
	}

	if update.Message == nil {
		log.Printf("Received unknown update type: %+v", update)
		return
	}

	switch command(update.Message.Text) {
	case "/start":
		d.startHandler.Handle(ctx, bot, update)
	case "/help":
		d.startHandler.HandleHelp(ctx, bot, update)
	case "/list_zones":
		d.zonesHandler.HandleListZones(ctx, bot, update)
	case "/enable":
		d.zonesHandler.HandleEnable(ctx, bot, update)
	case "/change_alert_time":
		d.scheduleHandler.HandleChangeAlertTime(ctx, bot, update)
	case "/set_muezzin":
		d.scheduleHandler.HandleSetMuezzin(ctx, bot, update)
	case "/show_schedule":
		d.scheduleHandler.HandleShowSchedule(ctx, bot, update)
	case "/show_prayer_times":
		d.scheduleHandler.HandleShowPrayerTimes(ctx, bot, update)
	default:
		d.defaultHandler.Handle(ctx, bot, update)
	}
}

// command extracts the command word from a message, dropping the
// @botname suffix used in group chats
func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	cmd := fields[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return cmd
}
