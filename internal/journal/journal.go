// Package journal records completed batch captures to append-only sinks.
// The positional field order Name, Username, Batch, Date, Time is a
// compatibility contract with the spreadsheet schema and must not change.
package journal

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/applygate/applybot/pkg/metrics"
)

// Record is one journal entry for a completed batch capture.
type Record struct {
	Name     string
	Username string
	Batch    string
	Date     string
	Time     string
}

// NewRecord stamps a record with the capture moment rendered in the display
// location.
func NewRecord(name, username, batch string, now time.Time, loc *time.Location) Record {
	if loc == nil {
		loc = time.UTC
	}

	local := now.In(loc)

	return Record{
		Name:     name,
		Username: username,
		Batch:    batch,
		Date:     local.Format("02/01/2006"),
		Time:     local.Format("03:04:05 PM"),
	}
}

// Row returns the record as a positional row.
func (r Record) Row() []string {
	return []string{r.Name, r.Username, r.Batch, r.Date, r.Time}
}

// Sink appends records somewhere durable. Failures are the caller's to log;
// they must never block the surrounding flow.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}

// FileJournal appends CSV rows to a local file.
type FileJournal struct {
	path string
	mu   sync.Mutex
	log  *slog.Logger
}

// NewFileJournal creates a journal writing to path. The file is created on
// first append.
func NewFileJournal(path string, log *slog.Logger) *FileJournal {
	if log == nil {
		log = slog.Default()
	}

	return &FileJournal{
		path: path,
		log:  log,
	}
}

// Append writes one CSV row to the journal file.
func (j *FileJournal) Append(_ context.Context, rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(rec.Row()); err != nil {
		return err
	}
	w.Flush()

	return w.Error()
}

// Multi fans an append out to every sink, best effort. Individual sink
// failures are logged and counted but never propagated: a dead spreadsheet
// must not cost the user their search.
type Multi struct {
	sinks map[string]Sink
	order []string
	log   *slog.Logger
}

// NewMulti builds an empty fan-out sink.
func NewMulti(log *slog.Logger) *Multi {
	if log == nil {
		log = slog.Default()
	}

	return &Multi{
		sinks: make(map[string]Sink),
		log:   log,
	}
}

// Add registers a named sink. Appends run in registration order.
func (m *Multi) Add(name string, sink Sink) {
	if name == "" || sink == nil {
		return
	}

	if _, exists := m.sinks[name]; !exists {
		m.order = append(m.order, name)
	}
	m.sinks[name] = sink
}

// Append delivers the record to every registered sink.
func (m *Multi) Append(ctx context.Context, rec Record) error {
	for _, name := range m.order {
		if err := m.sinks[name].Append(ctx, rec); err != nil {
			m.log.Error("journal append failed",
				slog.String("sink", name),
				slog.String("username", rec.Username),
				slog.Any("error", err),
			)
			metrics.RecordSinkAppend(name, "error")
			continue
		}

		metrics.RecordSinkAppend(name, "ok")
	}

	return nil
}
