package bot

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/applygate/applybot/internal/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// routeContext satisfies the slice of telebot.Context the router reads.
type routeContext struct {
	telebot.Context
	sender   *telebot.User
	text     string
	callback *telebot.Callback
}

func (c *routeContext) Sender() *telebot.User       { return c.sender }
func (c *routeContext) Text() string                { return c.text }
func (c *routeContext) Callback() *telebot.Callback { return c.callback }

// stubStateMachine returns a fixed conversation state for every user.
type stubStateMachine struct {
	state *state.UserState
	err   error
}

func (s *stubStateMachine) GetState(context.Context, int64) (*state.UserState, error) {
	return s.state, s.err
}

func (s *stubStateMachine) SetState(context.Context, int64, int64, state.State, map[string]interface{}) error {
	return nil
}

func (s *stubStateMachine) TransitionTo(context.Context, int64, state.State) error { return nil }
func (s *stubStateMachine) ClearState(context.Context, int64) error                { return nil }

func TestRouter_CommandMatching(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "bare command", text: "/start"},
		{name: "command with arguments", text: "/start ref-code"},
		{name: "command addressed to the bot", text: "/start@ApplyGateBot"},
		{name: "addressed command with arguments", text: "/start@ApplyGateBot now"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(nil, testLogger())

			var commandHits int
			router.RegisterCommand("/start", func(telebot.Context) error {
				commandHits++
				return nil
			})

			err := router.Route(&routeContext{text: tc.text})

			require.NoError(t, err)
			assert.Equal(t, 1, commandHits)
		})
	}
}

func TestRouter_UnknownCommandFallsThrough(t *testing.T) {
	fsm := &stubStateMachine{state: &state.UserState{
		UserID:       77,
		ChatID:       77,
		CurrentState: state.StateAwaitingBatch,
	}}

	var dispatched int
	dispatcher := NewDispatcher(fsm, testLogger())
	dispatcher.RegisterStateHandler(state.StateAwaitingBatch, func(telebot.Context) error {
		dispatched++
		return nil
	})

	router := NewRouter(dispatcher, testLogger())
	router.RegisterCommand("/start", func(telebot.Context) error {
		t.Fatal("unexpected command dispatch")
		return nil
	})

	err := router.Route(&routeContext{
		sender: &telebot.User{ID: 77},
		text:   "/unknown",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, dispatched)
}

func TestRouter_CallbackPrefixStripped(t *testing.T) {
	router := NewRouter(nil, testLogger())

	var callbackHits int
	router.RegisterCallback("check", func(telebot.Context) error {
		callbackHits++
		return nil
	})

	err := router.Route(&routeContext{callback: &telebot.Callback{Data: "\fcheck"}})

	require.NoError(t, err)
	assert.Equal(t, 1, callbackHits)
}

func TestCommandWord(t *testing.T) {
	assert.Equal(t, "/start", commandWord("/start"))
	assert.Equal(t, "/start", commandWord("/start 2025"))
	assert.Equal(t, "/start", commandWord("/start@ApplyGateBot"))
	assert.Equal(t, "/start", commandWord("/start@ApplyGateBot 2025"))
	assert.Equal(t, "/cancel", commandWord("  /cancel  "))
}
