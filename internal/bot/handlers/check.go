package handlers

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/applygate/applybot/internal/membership"
	"github.com/applygate/applybot/internal/state"
)

const (
	gatePassedMessage = "✅ Thanks! Now please enter your Batch Year/Graduation Year:"
	gateDeniedMessage = "❌ You must join both the channel and group to proceed."
)

// NewCheckHandler verifies membership in both communities when the user taps
// the recheck button. It only acts while the gate is open; stale or duplicate
// callbacks outside StateAwaitingCheck are acknowledged and dropped.
func NewCheckHandler(fsm state.StateMachine, verifier *membership.Verifier, ownerUsername string, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("check handler invoked without sender context")
			return nil
		}

		// Ack the callback so the client stops the spinner regardless of outcome.
		if err := c.Respond(); err != nil {
			log.Warn("failed to answer callback query", slog.Any("error", err))
		}

		if fsm == nil || verifier == nil {
			log.Error("check handler is missing dependencies")
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		userState, err := fsm.GetState(ctx, userID)
		if err != nil {
			if stdErrors.Is(err, state.ErrStateNotFound) {
				log.Info("check callback outside conversation, ignoring", slog.Int64("user_id", userID))
				return nil
			}
			return err
		}

		if userState.CurrentState != state.StateAwaitingCheck {
			log.Info("check callback in unexpected state, ignoring",
				slog.Int64("user_id", userID),
				slog.String("state", string(userState.CurrentState)))
			return nil
		}

		if verifier.Verify(ctx, userID) != membership.DecisionAllow {
			if clearErr := fsm.ClearState(ctx, userID); clearErr != nil {
				log.Error("failed to clear state after denial", slog.Int64("user_id", userID), slog.Any("error", clearErr))
			}

			denial := gateDeniedMessage
			if ownerUsername != "" {
				denial = fmt.Sprintf("%s\nIf you have questions, please DM the owner: @%s", gateDeniedMessage, ownerUsername)
			}

			return c.Send(denial)
		}

		if err := fsm.TransitionTo(ctx, userID, state.StateAwaitingBatch); err != nil {
			if stdErrors.Is(err, state.ErrInvalidTransition) || stdErrors.Is(err, state.ErrStateLocked) {
				// A concurrent duplicate already advanced the conversation.
				log.Info("check transition superseded", slog.Int64("user_id", userID), slog.Any("error", err))
				return nil
			}
			return err
		}

		return c.Send(gatePassedMessage)
	}
}
