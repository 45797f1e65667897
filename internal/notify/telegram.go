// Package notify alerts the managers chat when a reconciliation declines a
// paid booking: money was captured but no commitment exists, which needs a
// human to resolve.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mannabook/internal/events"
	"mannabook/internal/reconcile"
)

// TelegramAlerter sends declined-reconciliation alerts to a managers chat.
type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegramAlerter connects the bot. Returns an error if the token is
// rejected by Telegram.
func NewTelegramAlerter(token string, chatID int64, logger zerolog.Logger) (*TelegramAlerter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramAlerter{
		bot:    bot,
		chatID: chatID,
		logger: logger.With().Str("component", "notify").Logger(),
	}, nil
}

// HandleOutcome is an events.Handler. Committed and skipped outcomes are
// quiet; rejections page the managers.
func (a *TelegramAlerter) HandleOutcome(o events.ReconcileOutcome) {
	if o.State != string(reconcile.StateRejectedFull) && o.State != string(reconcile.StateRejectedOverlap) {
		return
	}

	text := fmt.Sprintf(
		"⚠️ Paid booking declined (%s)\nOrder: %s\nCustomer: %s\nPackage: %s\nWindow: %s — %s\nPayment captured with no calendar commitment; manual follow-up required.",
		o.State, o.OrderID, o.CustomerName, o.Package,
		o.Window.BlockStart.Format("2006-01-02 15:04"), o.Window.BlockEnd.Format("15:04"),
	)

	if _, err := a.bot.Send(tgbotapi.NewMessage(a.chatID, text)); err != nil {
		a.logger.Error().Err(err).Str("order_id", o.OrderID).Msg("manager alert failed")
	}
}
