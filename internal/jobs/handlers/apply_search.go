// Package handlers contains asynq task handlers for background jobs.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/applygate/applybot/internal/jobs"
	"github.com/applygate/applybot/internal/journal"
	"github.com/applygate/applybot/internal/search"
	"github.com/applygate/applybot/internal/source"
	"github.com/applygate/applybot/pkg/metrics"
)

// ApplySearchHandler journals one captured batch token and runs the fan-out
// search. It is the error boundary for the dispatched work: nothing it does
// can reach back into the conversation that enqueued it.
type ApplySearchHandler struct {
	engine  *search.Engine
	sink    journal.Sink
	sources []source.Descriptor
	loc     *time.Location
	log     *slog.Logger
}

// NewApplySearchHandler wires the handler with its collaborators. loc is the
// display timezone used for journal timestamps.
func NewApplySearchHandler(
	engine *search.Engine,
	sink journal.Sink,
	sources []source.Descriptor,
	loc *time.Location,
	log *slog.Logger,
) *ApplySearchHandler {
	if log == nil {
		log = slog.Default()
	}

	return &ApplySearchHandler{
		engine:  engine,
		sink:    sink,
		sources: sources,
		loc:     loc,
		log:     log,
	}
}

// ProcessTask handles one apply:search task.
func (h *ApplySearchHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.ApplySearchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "apply search: failed to decode payload",
			slog.String("task_type", t.Type()),
			slog.Any("error", err),
		)
		metrics.RecordSearchJob("decode_error")
		return err
	}

	h.log.InfoContext(ctx, "apply search: starting",
		slog.Int64("chat_id", payload.ChatID),
		slog.String("batch", payload.Batch),
		slog.Int("sources", len(h.sources)),
	)

	// The journal stamps the capture moment, not the processing moment: a
	// retried or backlogged task must not drift the recorded time.
	capturedAt := payload.RequestedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	// Best effort; sink failures are logged inside and never fail the job.
	record := journal.NewRecord(payload.FullName, payload.Username, payload.Batch, capturedAt, h.loc)
	_ = h.sink.Append(ctx, record)

	start := time.Now()
	outcome := h.engine.Search(ctx, payload.Batch, h.sources, payload.ChatID)

	h.log.InfoContext(ctx, "apply search: finished",
		slog.Int64("chat_id", payload.ChatID),
		slog.String("batch", payload.Batch),
		slog.Int("matches", len(outcome.Matches)),
		slog.Bool("found", outcome.Found),
		slog.Duration("duration", time.Since(start)),
	)
	metrics.RecordSearchJob("ok")

	return nil
}
