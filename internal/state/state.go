package state

import "time"

// State represents a conversation state for a single user.
type State string

const (
	// StateIdle indicates that no gating conversation is in progress.
	StateIdle State = "idle"
	// StateAwaitingCheck indicates that the user was prompted to join the
	// channel and group and has not passed the membership check yet.
	StateAwaitingCheck State = "awaiting_check"
	// StateAwaitingBatch indicates that the membership check passed and the
	// bot is waiting for the batch year.
	StateAwaitingBatch State = "awaiting_batch"
	// StateError indicates that the conversation is in an error state and requires recovery.
	StateError State = "error"
)

// UserState captures the current conversation state for a Telegram user.
type UserState struct {
	UserID       int64                  `json:"user_id"`
	ChatID       int64                  `json:"chat_id"`
	CurrentState State                  `json:"current_state"`
	Context      map[string]interface{} `json:"context"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
