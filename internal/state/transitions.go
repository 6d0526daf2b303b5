package state

// validTransitions contains the permitted transitions of the probe lifecycle.
var validTransitions = map[State][]State{
	StateInit: {
		StateAlive,
	},
	StateAlive: {
		StateDying,
	},
	StateDying: {
		StateDead,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
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
