package vgcanvas

import "time"

// Status represents the current state of a Player.
type Status struct {
	// Loaded indicates the canvas and script are ready to render.
	Loaded bool
	// LoadTime is when the player was last loaded (zero if never loaded).
	LoadTime time.Time
	// Frames is the number of frames rendered since the last load.
	Frames uint64
	// Reloads is the number of successful script reloads.
	Reloads uint64
	// LastError is the most recent error encountered (nil if none).
	LastError error
	// ConfigSource describes where the configuration came from.
	ConfigSource string
	// Script is the script path as configured.
	Script string
	// Backend is the name of the render backend.
	Backend string
}

// ErrorHandler is a callback for runtime errors.
// It is called asynchronously when errors occur during operation.
// Do not block in the handler; perform only quick, non-blocking operations.
type ErrorHandler func(err error)

// EventHandler is a callback for lifecycle events.
// It is called asynchronously; do not block in the handler.
type EventHandler func(event Event)

// Event represents a lifecycle event.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
}

// EventType enumerates lifecycle event types.
// The underlying integer values are implementation details and should not
// be relied upon for serialization. Use the constant names for comparison.
type EventType int

const (
	// EventLoaded is emitted when the player finishes loading.
	EventLoaded EventType = iota
	// EventClosed is emitted when the player is closed.
	EventClosed
	// EventScriptReloaded is emitted after the script is reloaded.
	EventScriptReloaded
	// EventGoldenMismatch is emitted when a frame differs from its golden image.
	EventGoldenMismatch
	// EventError is emitted when a recoverable error occurs.
	EventError
)

// String returns a human-readable representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventLoaded:
		return "loaded"
	case EventClosed:
		return "closed"
	case EventScriptReloaded:
		return "script_reloaded"
	case EventGoldenMismatch:
		return "golden_mismatch"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
