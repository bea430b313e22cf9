package canvas

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// canvas's current lifecycle state.
	ErrInvalidState = errors.New("invalid canvas state")

	// ErrResourceAllocation is returned when the backend cannot create a
	// render context or load the default font. The canvas cannot render
	// without either.
	ErrResourceAllocation = errors.New("graphics resource allocation failed")

	// ErrUnbalancedScope is returned when PreDraw and PostDraw calls do not pair up.
	ErrUnbalancedScope = errors.New("unbalanced draw scope")

	// ErrNilBackend is returned when a canvas is created without a backend.
	ErrNilBackend = errors.New("render backend cannot be nil")
)

// StateError reports an operation attempted in the wrong lifecycle state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: not allowed in state %s", e.Op, e.State)
}

// Unwrap returns ErrInvalidState.
func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// ScopeError reports a draw scope imbalance. Depth is the number of scopes
// left open, or -1 for a pop with nothing to pop.
type ScopeError struct {
	Op    string
	Depth int
}

func (e *ScopeError) Error() string {
	if e.Depth < 0 {
		return fmt.Sprintf("%s: no open draw scope", e.Op)
	}
	return fmt.Sprintf("%s: %d draw scope(s) left open", e.Op, e.Depth)
}

// Unwrap returns ErrUnbalancedScope.
func (e *ScopeError) Unwrap() error {
	return ErrUnbalancedScope
}
