package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "init to alive", from: StateInit, to: StateAlive, expected: true},
		{name: "alive to dying", from: StateAlive, to: StateDying, expected: true},
		{name: "dying to dead", from: StateDying, to: StateDead, expected: true},
		{name: "init to dead invalid", from: StateInit, to: StateDead, expected: false},
		{name: "alive to dead invalid", from: StateAlive, to: StateDead, expected: false},
		{name: "dead to alive invalid", from: StateDead, to: StateAlive, expected: false},
		{name: "dying back to alive invalid", from: StateDying, to: StateAlive, expected: false},
		{name: "unknown state invalid", from: State("unknown"), to: StateAlive, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateInit, StateAlive, StateDying} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if !StateDead.Terminal() {
		t.Errorf("%s should be terminal", StateDead)
	}
}
