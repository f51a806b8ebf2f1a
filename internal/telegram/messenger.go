package telegram

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// Messenger sends outbound messages through the Bot API. Delivery receipts
// are not consumed; a send either succeeds or is logged by the caller.
type Messenger struct {
	bot *telebot.Bot
	log *slog.Logger
}

// NewMessenger builds a Messenger over the given bot.
func NewMessenger(bot *telebot.Bot, log *slog.Logger) *Messenger {
	if log == nil {
		log = slog.Default()
	}

	return &Messenger{
		bot: bot,
		log: log,
	}
}

// Send delivers text to the chat.
func (m *Messenger) Send(_ context.Context, chatID int64, text string) error {
	_, err := m.bot.Send(telebot.ChatID(chatID), text)
	return err
}
