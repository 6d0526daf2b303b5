package state

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_FullLifecycle(t *testing.T) {
	m := NewMachine(testLogger())
	assert.Equal(t, StateInit, m.Current())

	require.NoError(t, m.TransitionTo(StateAlive))
	require.NoError(t, m.TransitionTo(StateDying))
	require.NoError(t, m.TransitionTo(StateDead))

	assert.Equal(t, StateDead, m.Current())

	history := m.History()
	require.Len(t, history, 3)
	assert.Equal(t, StateInit, history[0].From)
	assert.Equal(t, StateDead, history[2].To)
}

func TestMachine_RejectsInvalidTransition(t *testing.T) {
	testCases := []struct {
		name  string
		setup []State
		to    State
	}{
		{name: "init straight to dead", to: StateDead},
		{name: "dead is terminal", setup: []State{StateAlive, StateDying, StateDead}, to: StateAlive},
		{name: "alive twice", setup: []State{StateAlive}, to: StateAlive},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine(testLogger())
			for _, s := range tc.setup {
				require.NoError(t, m.TransitionTo(s))
			}
			before := m.Current()

			err := m.TransitionTo(tc.to)

			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, m.Current())
		})
	}
}

func TestMachine_NotifiesRecorder(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	RegisterTransitionRecorder(func(from, to string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, from+"->"+to)
	})
	t.Cleanup(func() { RegisterTransitionRecorder(nil) })

	m := NewMachine(testLogger())
	require.NoError(t, m.TransitionTo(StateAlive))
	_ = m.TransitionTo(StateDead)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"init->alive"}, seen)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
