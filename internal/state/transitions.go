package state

// validTransitions contains the permitted forward transitions in the
// conversation. A finished or rejected conversation returns to idle, which is
// always allowed; awaiting_batch is never reachable without passing
// awaiting_check first.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAwaitingCheck,
	},
	StateAwaitingCheck: {
		StateAwaitingBatch,
		StateIdle,
	},
	StateAwaitingBatch: {
		StateIdle,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateError || to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
