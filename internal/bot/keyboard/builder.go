// Package keyboard renders the bot's inline keyboards.
package keyboard

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// CallbackCheck is the callback payload of the membership recheck button.
const CallbackCheck = "check"

// Builder produces the application's keyboards.
type Builder struct {
	log *slog.Logger
}

// NewBuilder creates a keyboard builder.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}

	return &Builder{log: log}
}

// JoinPrompt renders the gate keyboard: join links for the channel and group
// plus the recheck button.
func (b *Builder) JoinPrompt(channel, group string) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: "Join Channel", URL: fmt.Sprintf("https://t.me/%s", channel)},
			InlineButton{Text: "Join Group", URL: fmt.Sprintf("https://t.me/%s", group)},
		).
		AddRow(
			InlineButton{Text: "✅ Check", Data: CallbackCheck},
		).
		Build()
}
