package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applygate/applybot/internal/source"
)

const testOwner = "applyowner"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient serves canned histories per handle and fails configured handles.
type fakeClient struct {
	histories map[string][]source.Message
	broken    map[string]error
}

func (c *fakeClient) Resolve(_ context.Context, handle string) (source.Peer, error) {
	if err, ok := c.broken[handle]; ok {
		return nil, err
	}

	return handle, nil
}

func (c *fakeClient) Messages(_ context.Context, peer source.Peer, fn func(source.Message) bool) error {
	handle := peer.(string)
	for _, msg := range c.histories[handle] {
		if !fn(msg) {
			return nil
		}
	}

	return nil
}

// recordingMessenger captures every outbound message.
type recordingMessenger struct {
	sent []string
}

func (m *recordingMessenger) Send(_ context.Context, _ int64, text string) error {
	m.sent = append(m.sent, text)
	return nil
}

func newTestEngine(client source.Client, messenger Messenger) *Engine {
	formatter := NewFormatter(time.FixedZone("IST", 5*3600+30*60))
	return NewEngine(client, messenger, formatter, 30*24*time.Hour, 200, testOwner, testLogger())
}

func TestEngine_Search_MatchWithinWindowOnly(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{
		histories: map[string][]source.Message{
			"sourcea": {
				{Body: "Apply now 2025 batch!", PostedAt: now.Add(-5 * 24 * time.Hour)},
			},
			"sourceb": {
				{Body: "2025 open", PostedAt: now.Add(-40 * 24 * time.Hour)},
			},
		},
	}
	messenger := &recordingMessenger{}

	engine := newTestEngine(client, messenger)
	outcome := engine.Search(context.Background(), "2025", []source.Descriptor{
		{Handle: "sourcea"},
		{Handle: "sourceb"},
	}, 1001)

	require.Len(t, outcome.Matches, 1)
	assert.True(t, outcome.Found)
	assert.Equal(t, "sourcea", outcome.Matches[0].Source)
	assert.Equal(t, "Apply now 2025 batch!", outcome.Matches[0].Body)

	require.Len(t, messenger.sent, 1)
	assert.Contains(t, messenger.sent[0], "posted on @sourcea")
	assert.True(t, strings.HasSuffix(messenger.sent[0], "Apply now 2025 batch!"))
}

func TestEngine_Search_NothingFound(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{
		histories: map[string][]source.Message{
			"sourcea": {
				{Body: "Openings for 2024", PostedAt: now.Add(-time.Hour)},
			},
			"sourceb": {},
		},
	}
	messenger := &recordingMessenger{}

	engine := newTestEngine(client, messenger)
	outcome := engine.Search(context.Background(), "2026", []source.Descriptor{
		{Handle: "sourcea"},
		{Handle: "sourceb"},
	}, 1001)

	assert.False(t, outcome.Found)
	assert.Empty(t, outcome.Matches)

	require.Len(t, messenger.sent, 1)
	assert.Contains(t, messenger.sent[0], "No recent posts (within 1 month) found for batch 2026")
	assert.Contains(t, messenger.sent[0], "@"+testOwner)
}

func TestEngine_Search_BrokenSourceDoesNotAbortScan(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{
		histories: map[string][]source.Message{
			"good": {
				{Body: "2025 batch hiring", PostedAt: now.Add(-2 * 24 * time.Hour)},
			},
		},
		broken: map[string]error{
			"dead": errors.New("username not occupied"),
		},
	}
	messenger := &recordingMessenger{}

	engine := newTestEngine(client, messenger)
	outcome := engine.Search(context.Background(), "2025", []source.Descriptor{
		{Handle: "dead"},
		{Handle: "good"},
	}, 1001)

	assert.True(t, outcome.Found)
	require.Len(t, outcome.Matches, 1)
	assert.Equal(t, "good", outcome.Matches[0].Source)
	require.Len(t, messenger.sent, 1)
	assert.NotContains(t, messenger.sent[0], "No recent posts")
}

func TestEngine_Search_MatchesPreserveEncounterOrder(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{
		histories: map[string][]source.Message{
			"first": {
				{Body: "2025 post one", PostedAt: now.Add(-1 * time.Hour)},
				{Body: "2025 post two", PostedAt: now.Add(-2 * time.Hour)},
			},
			"second": {
				{Body: "2025 post three", PostedAt: now.Add(-30 * time.Minute)},
			},
		},
	}
	messenger := &recordingMessenger{}

	engine := newTestEngine(client, messenger)
	outcome := engine.Search(context.Background(), "2025", []source.Descriptor{
		{Handle: "first"},
		{Handle: "second"},
	}, 1001)

	require.Len(t, outcome.Matches, 3)
	assert.Equal(t, "2025 post one", outcome.Matches[0].Body)
	assert.Equal(t, "2025 post two", outcome.Matches[1].Body)
	assert.Equal(t, "2025 post three", outcome.Matches[2].Body)
}

func TestEngine_Search_PerSourceCapStopsIteration(t *testing.T) {
	now := time.Now().UTC()

	history := make([]source.Message, 0, 10)
	for i := 0; i < 10; i++ {
		history = append(history, source.Message{
			Body:     "2025 opening",
			PostedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}

	client := &fakeClient{histories: map[string][]source.Message{"busy": history}}
	messenger := &recordingMessenger{}

	formatter := NewFormatter(time.UTC)
	engine := NewEngine(client, messenger, formatter, 30*24*time.Hour, 3, testOwner, testLogger())

	outcome := engine.Search(context.Background(), "2025", []source.Descriptor{{Handle: "busy"}}, 1001)

	assert.Len(t, outcome.Matches, 3)
	assert.True(t, outcome.Found)
}

func TestEngine_Search_FoundTracksMatches(t *testing.T) {
	// found must equal len(matches) > 0 in both directions.
	now := time.Now().UTC()
	client := &fakeClient{
		histories: map[string][]source.Message{
			"src": {{Body: "batch 2025", PostedAt: now.Add(-time.Hour)}},
		},
	}

	engine := newTestEngine(client, &recordingMessenger{})

	withMatch := engine.Search(context.Background(), "2025", []source.Descriptor{{Handle: "src"}}, 1)
	assert.Equal(t, len(withMatch.Matches) > 0, withMatch.Found)
	assert.True(t, withMatch.Found)

	noMatch := engine.Search(context.Background(), "1999", []source.Descriptor{{Handle: "src"}}, 1)
	assert.Equal(t, len(noMatch.Matches) > 0, noMatch.Found)
	assert.False(t, noMatch.Found)
}
