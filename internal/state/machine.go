package state

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrInvalidTransition indicates that a requested transition is not allowed.
var ErrInvalidTransition = errors.New("invalid state transition")

var (
	recorderMu         sync.RWMutex
	transitionRecorder = func(from, to string) {}
)

// RegisterTransitionRecorder allows external packages to observe transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	recorderMu.Lock()
	defer recorderMu.Unlock()

	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

func recordTransition(from, to State) {
	recorderMu.RLock()
	recorder := transitionRecorder
	recorderMu.RUnlock()

	recorder(string(from), string(to))
}

// Machine holds the current lifecycle phase. It is safe for concurrent use.
type Machine struct {
	mu      sync.RWMutex
	current State
	history []Transition
	log     *slog.Logger
	now     func() time.Time
}

// NewMachine creates a Machine in StateInit.
func NewMachine(log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}

	return &Machine{
		current: StateInit,
		log:     log,
		now:     time.Now,
	}
}

// Current returns the current phase.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// TransitionTo moves to newState if the transition is allowed.
func (m *Machine) TransitionTo(newState State) error {
	m.mu.Lock()
	from := m.current

	if !IsTransitionAllowed(from, newState) {
		m.mu.Unlock()
		if m.log != nil {
			m.log.Warn("invalid state transition", "from", from, "to", newState)
		}
		return ErrInvalidTransition
	}

	m.current = newState
	m.history = append(m.history, Transition{From: from, To: newState, At: m.now()})
	m.mu.Unlock()

	if m.log != nil {
		m.log.Debug("state transition", "from", from, "to", newState)
	}
	recordTransition(from, newState)

	return nil
}

// History returns a copy of all transitions made so far.
func (m *Machine) History() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Transition(nil), m.history...)
}
