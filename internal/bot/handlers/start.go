package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/applygate/applybot/internal/bot/keyboard"
	"github.com/applygate/applybot/internal/state"
)

const welcomeMessage = "Welcome! To proceed, please join both our channel and group, then tap ✅ Check."

// NewStartHandler greets the user with the join prompt and opens the
// membership gate. Restarting mid-conversation resets to the gate.
func NewStartHandler(fsm state.StateMachine, kb *keyboard.Builder, channel, group string, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("start handler invoked without sender context")
			return nil
		}

		if fsm == nil {
			log.Error("state machine is not configured for start handler")
			return c.Send("An internal error occurred. Please try again later.")
		}

		ctx := context.Background()
		userID := c.Sender().ID
		chatID := userID
		if c.Chat() != nil {
			chatID = c.Chat().ID
		}

		if err := fsm.SetState(ctx, userID, chatID, state.StateAwaitingCheck, nil); err != nil {
			log.Error("failed to open membership gate", slog.Int64("user_id", userID), slog.Any("error", err))
			return c.Send("An internal error occurred. Please try again later.")
		}

		if kb == nil {
			log.Warn("keyboard builder is not configured for start handler")
			return c.Send(welcomeMessage)
		}

		return c.Send(welcomeMessage, kb.JoinPrompt(channel, group))
	}
}
