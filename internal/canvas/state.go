package canvas

import "fmt"

// State is the canvas lifecycle state.
type State int

const (
	// StateUninitialized is a canvas with no render context yet.
	StateUninitialized State = iota
	// StateReady holds a render context and is between frames.
	StateReady
	// StateInFrame accepts path, paint and transform operations.
	StateInFrame
	// StateDestroyed has released its render context. It can be initialized again.
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateInFrame:
		return "in-frame"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// HasContext reports whether a render context is held in this state.
func (s State) HasContext() bool {
	return s == StateReady || s == StateInFrame
}
