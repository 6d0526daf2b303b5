// Package state tracks the lifecycle phase of the probe loop.
package state

import "time"

// State represents a phase of the probe lifecycle.
type State string

const (
	// StateInit indicates that the loop has not written its first status yet.
	StateInit State = "init"
	// StateAlive indicates that the status file is being refreshed and checked.
	StateAlive State = "alive"
	// StateDying indicates that the trigger fired and the write chain is draining.
	StateDying State = "dying"
	// StateDead indicates that the status file is removed and no chain is active.
	StateDead State = "dead"
)

// Transition records a single phase change.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Terminal reports whether no further transitions can leave s.
func (s State) Terminal() bool {
	return s == StateDead
}
