package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/applygate/applybot/internal/errors"
	"github.com/applygate/applybot/internal/source"
	"github.com/applygate/applybot/pkg/metrics"
)

// Match is one qualifying message with its provenance prefix.
type Match struct {
	Source string
	Prefix string
	Body   string
}

// Outcome aggregates a completed search. Found is true iff at least one
// message qualified across all sources.
type Outcome struct {
	Matches []Match
	Found   bool
}

// Messenger delivers outbound messages to a chat. Delivery is fire-and-forget
// from the engine's perspective.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Engine drives the fan-out search: it scans every configured source in
// order, filters messages, and forwards each match to the requester as soon
// as it is found rather than buffering the full result set.
type Engine struct {
	client       source.Client
	messenger    Messenger
	formatter    *Formatter
	lookback     time.Duration
	perSourceCap int
	owner        string
	log          *slog.Logger
}

// NewEngine constructs an Engine. perSourceCap bounds how many messages are
// examined per source regardless of the time window; owner is the escalation
// contact named in the not-found notice.
func NewEngine(
	client source.Client,
	messenger Messenger,
	formatter *Formatter,
	lookback time.Duration,
	perSourceCap int,
	owner string,
	log *slog.Logger,
) *Engine {
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		client:       client,
		messenger:    messenger,
		formatter:    formatter,
		lookback:     lookback,
		perSourceCap: perSourceCap,
		owner:        owner,
		log:          log,
	}
}

// Search scans sources in list order for messages matching token and streams
// matches to chatID. Sources that fail to resolve or iterate are logged and
// contribute zero matches; they never abort the remaining scan. When nothing
// qualifies anywhere, a single not-found notice is sent.
func (e *Engine) Search(ctx context.Context, token string, sources []source.Descriptor, chatID int64) *Outcome {
	window := NewWindow(time.Now(), e.lookback)
	outcome := &Outcome{}

	for _, src := range sources {
		e.scanSource(ctx, src, token, window, chatID, outcome)
	}

	outcome.Found = len(outcome.Matches) > 0

	if !outcome.Found {
		notice := fmt.Sprintf(
			"No recent posts (within 1 month) found for batch %s. If you have questions, please DM the owner: @%s",
			token,
			e.owner,
		)
		if err := e.messenger.Send(ctx, chatID, notice); err != nil {
			e.log.Error("failed to send not-found notice", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}
	}

	return outcome
}

func (e *Engine) scanSource(
	ctx context.Context,
	src source.Descriptor,
	token string,
	window Window,
	chatID int64,
	outcome *Outcome,
) {
	peer, err := e.client.Resolve(ctx, src.Handle)
	if err != nil {
		e.log.Warn("could not resolve source",
			slog.String("source", src.Handle),
			slog.Any("error", apperrors.NewSourceError(src.Handle, err)),
		)
		metrics.RecordSourceScan(src.Handle, "resolve_error")
		return
	}

	examined := 0
	err = e.client.Messages(ctx, peer, func(msg source.Message) bool {
		examined++
		if e.perSourceCap > 0 && examined > e.perSourceCap {
			return false
		}

		if !Qualifies(msg, token, window) {
			return true
		}

		match := Match{
			Source: src.Handle,
			Prefix: e.formatter.ProvenancePrefix(src.Handle, msg.PostedAt),
			Body:   msg.Body,
		}
		outcome.Matches = append(outcome.Matches, match)
		metrics.RecordSearchMatch(src.Handle)

		if sendErr := e.messenger.Send(ctx, chatID, match.Prefix+"\n\n"+match.Body); sendErr != nil {
			e.log.Error("failed to forward match",
				slog.String("source", src.Handle),
				slog.Int64("chat_id", chatID),
				slog.Any("error", sendErr),
			)
		}

		return true
	})
	if err != nil {
		e.log.Warn("source iteration failed",
			slog.String("source", src.Handle),
			slog.Any("error", apperrors.NewSourceError(src.Handle, err)),
		)
		metrics.RecordSourceScan(src.Handle, "iterate_error")
		return
	}

	metrics.RecordSourceScan(src.Handle, "ok")
}
