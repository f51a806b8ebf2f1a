package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "idle to awaiting check", from: StateIdle, to: StateAwaitingCheck, expected: true},
		{name: "awaiting check to awaiting batch", from: StateAwaitingCheck, to: StateAwaitingBatch, expected: true},
		{name: "awaiting check rejected back to idle", from: StateAwaitingCheck, to: StateIdle, expected: true},
		{name: "awaiting batch finished to idle", from: StateAwaitingBatch, to: StateIdle, expected: true},
		{name: "idle straight to awaiting batch invalid", from: StateIdle, to: StateAwaitingBatch, expected: false},
		{name: "awaiting batch back to awaiting check invalid", from: StateAwaitingBatch, to: StateAwaitingCheck, expected: false},
		{name: "re-entering awaiting check invalid", from: StateAwaitingCheck, to: StateAwaitingCheck, expected: false},
		{name: "unknown state to awaiting check invalid", from: State("unknown"), to: StateAwaitingCheck, expected: false},
		{name: "any state to idle emergency", from: State("whatever"), to: StateIdle, expected: true},
		{name: "any state to error emergency", from: StateAwaitingBatch, to: StateError, expected: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}
