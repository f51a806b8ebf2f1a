// Package search implements the time-bounded, multi-source historical search
// for a user-supplied batch token.
package search

import (
	"strings"
	"time"

	"github.com/applygate/applybot/internal/source"
)

// Window bounds which historical messages are eligible.
type Window struct {
	Cutoff time.Time
}

// NewWindow builds a Window looking back from now by the given duration.
func NewWindow(now time.Time, lookback time.Duration) Window {
	return Window{Cutoff: now.Add(-lookback).UTC()}
}

// Qualifies reports whether a message matches the token within the window.
// The body must be non-empty, the post must not predate the cutoff, and the
// token must occur as a case-insensitive substring of the body. Messages are
// judged independently of each other.
func Qualifies(msg source.Message, token string, window Window) bool {
	if msg.Body == "" {
		return false
	}

	if msg.PostedAt.UTC().Before(window.Cutoff) {
		return false
	}

	return strings.Contains(strings.ToLower(msg.Body), strings.ToLower(token))
}
