package handlers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/applygate/applybot/internal/errors"
	"github.com/applygate/applybot/internal/jobs"
	"github.com/applygate/applybot/internal/state"
)

const (
	batchPromptMessage = "Please enter your Batch Year/Graduation Year:"
	batchAckMessage    = "Thanks! Your batch is noted. I’m fetching the Apply Links now — you’ll get them shortly."
)

// NewBatchHandler captures the batch token while the conversation is in
// StateAwaitingBatch. The acknowledgement is sent before the search job is
// enqueued, so the user is never left waiting on the fan-out.
func NewBatchHandler(fsm state.StateMachine, manager jobs.Manager, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil || c.Message() == nil {
			log.Warn("batch handler invoked without message context")
			return nil
		}

		batch := strings.TrimSpace(c.Text())
		if batch == "" {
			// Stay in StateAwaitingBatch and ask again.
			return c.Send(batchPromptMessage)
		}

		sender := c.Sender()
		chatID := sender.ID
		if c.Chat() != nil {
			chatID = c.Chat().ID
		}

		fullName := strings.TrimSpace(strings.Join([]string{sender.FirstName, sender.LastName}, " "))

		if err := c.Send(batchAckMessage); err != nil {
			log.Error("failed to acknowledge batch", slog.Int64("user_id", sender.ID), slog.Any("error", err))
		}

		ctx := context.Background()

		if manager != nil {
			task, err := jobs.NewApplySearchTask(jobs.ApplySearchPayload{
				ChatID:      chatID,
				FullName:    fullName,
				Username:    sender.Username,
				Batch:       batch,
				RequestedAt: time.Now().UTC(),
			})
			if err == nil {
				_, err = manager.Enqueue(ctx, task)
			}
			if err != nil {
				// Stay in the batch-capture state: the queue error's user
				// message asks for the batch again, so a resent token must
				// still have a live conversation to land in.
				return apperrors.NewQueueError(err)
			}
		} else {
			log.Error("job manager is not configured for batch handler")
		}

		if fsm != nil {
			if err := fsm.ClearState(ctx, sender.ID); err != nil {
				log.Error("failed to close conversation", slog.Int64("user_id", sender.ID), slog.Any("error", err))
			}
		}

		return nil
	}
}
