// Package source describes the external content sources the fan-out search
// scans and loads the static source list.
package source

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Descriptor identifies one external content source by handle.
type Descriptor struct {
	Handle string
}

// Peer is an adapter-owned resolved handle, opaque to the search engine.
type Peer any

// Message is one historical message retrieved from a source.
type Message struct {
	Body     string
	PostedAt time.Time
}

// Client retrieves historical messages from a source. Messages streams
// history newest-first, invoking fn per message until the source is
// exhausted or fn returns false. Each call re-opens the source.
type Client interface {
	Resolve(ctx context.Context, handle string) (Peer, error)
	Messages(ctx context.Context, peer Peer, fn func(Message) bool) error
}

// LoadList reads the newline-delimited source list at path. Entries may be
// bare handles or t.me links; the last path segment wins. Blank lines are
// skipped. A missing file yields an empty list with a warning, not an error:
// the bot still runs, every search just comes back empty.
func LoadList(path string, log *slog.Logger) ([]Descriptor, error) {
	if log == nil {
		log = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("source list file missing, continuing with no sources", slog.String("path", path))
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var sources []Descriptor

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		handle := normalizeHandle(line)
		if handle == "" {
			continue
		}

		sources = append(sources, Descriptor{Handle: handle})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return sources, nil
}

func normalizeHandle(entry string) string {
	// "https://t.me/foo" and "t.me/foo" both reduce to "foo".
	if idx := strings.LastIndex(entry, "/"); idx >= 0 {
		entry = entry[idx+1:]
	}

	return strings.TrimPrefix(strings.TrimSpace(entry), "@")
}
