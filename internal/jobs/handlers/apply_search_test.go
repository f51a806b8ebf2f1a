package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applygate/applybot/internal/jobs"
	"github.com/applygate/applybot/internal/journal"
	"github.com/applygate/applybot/internal/search"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type capturingSink struct {
	records []journal.Record
}

func (s *capturingSink) Append(_ context.Context, rec journal.Record) error {
	s.records = append(s.records, rec)
	return nil
}

type discardMessenger struct{}

func (discardMessenger) Send(context.Context, int64, string) error { return nil }

func testEngine() *search.Engine {
	return search.NewEngine(nil, discardMessenger{}, search.NewFormatter(time.UTC), 30*24*time.Hour, 200, "owner", testLogger())
}

func applyTask(t *testing.T, payload jobs.ApplySearchPayload) *asynq.Task {
	t.Helper()
	task, err := jobs.NewApplySearchTask(payload)
	require.NoError(t, err)
	return task
}

func TestApplySearchHandler_JournalsCaptureMoment(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	sink := &capturingSink{}
	h := NewApplySearchHandler(testEngine(), sink, nil, ist, testLogger())

	// A backlogged task carries the capture moment with it; the journal row
	// must reflect that moment, not the time ProcessTask happens to run.
	requestedAt := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	err := h.ProcessTask(context.Background(), applyTask(t, jobs.ApplySearchPayload{
		ChatID:      77,
		FullName:    "Asha Rao",
		Username:    "asharao",
		Batch:       "2025",
		RequestedAt: requestedAt,
	}))

	require.NoError(t, err)
	require.Len(t, sink.records, 1)

	rec := sink.records[0]
	assert.Equal(t, "Asha Rao", rec.Name)
	assert.Equal(t, "asharao", rec.Username)
	assert.Equal(t, "2025", rec.Batch)
	assert.Equal(t, "01/03/2026", rec.Date)
	assert.Equal(t, "04:00:00 PM", rec.Time)
}

func TestApplySearchHandler_MissingRequestedAtFallsBack(t *testing.T) {
	sink := &capturingSink{}
	h := NewApplySearchHandler(testEngine(), sink, nil, time.UTC, testLogger())

	before := time.Now().UTC()
	err := h.ProcessTask(context.Background(), applyTask(t, jobs.ApplySearchPayload{
		ChatID: 77,
		Batch:  "2025",
	}))
	require.NoError(t, err)

	require.Len(t, sink.records, 1)
	assert.Equal(t, before.Format("02/01/2006"), sink.records[0].Date)
}

func TestApplySearchHandler_MalformedPayloadFails(t *testing.T) {
	sink := &capturingSink{}
	h := NewApplySearchHandler(testEngine(), sink, nil, time.UTC, testLogger())

	err := h.ProcessTask(context.Background(), asynq.NewTask(jobs.TaskTypeApplySearch, []byte("{")))

	require.Error(t, err)
	assert.Empty(t, sink.records)

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}
