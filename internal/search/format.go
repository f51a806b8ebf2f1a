package search

import (
	"fmt"
	"time"
)

// Formatter renders user-facing timestamps in an injected display timezone
// instead of relying on any process-wide timezone state.
type Formatter struct {
	loc *time.Location
}

// NewFormatter builds a Formatter for the given display location.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}

	return &Formatter{loc: loc}
}

// ProvenancePrefix renders the "posted on" line prepended to each forwarded
// match. The trailing zone abbreviation comes from the display location.
func (f *Formatter) ProvenancePrefix(handle string, postedAt time.Time) string {
	local := postedAt.In(f.loc)

	return fmt.Sprintf(
		"This message was posted on @%s at %s at %s.",
		handle,
		local.Format("02/01/2006"),
		local.Format("03:04:05 PM MST"),
	)
}
