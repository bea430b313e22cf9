package vgcanvas

import (
	"io"
	"time"
)

// Options configures a Player. Non-zero fields override the configuration
// file.
type Options struct {
	// Backend overrides backend.name.
	Backend string

	// Script overrides script.path. It is used as given, not resolved
	// against the configuration file's directory.
	Script string

	// Width and Height override the canvas size when positive.
	Width  int
	Height int

	// Frames overrides output.frames when positive.
	Frames int

	// OutputPath overrides output.path.
	OutputPath string

	// Golden overrides output.golden.
	Golden string

	// UpdateGolden makes RenderFrames write the last frame to the golden
	// path instead of comparing against it.
	UpdateGolden bool

	// DiffPath, when set, receives a diff image whenever a golden
	// comparison fails.
	DiffPath string

	// CompareThreshold is the per-channel difference (0-255) a golden
	// comparison ignores.
	CompareThreshold uint8

	// WindowTitle overrides window.title.
	WindowTitle string

	// LuaCPULimit overrides script.cpu_limit.
	LuaCPULimit uint64

	// LuaMemoryLimit overrides script.memory_limit.
	LuaMemoryLimit uint64

	// ScriptOutput receives Lua print output. Nil discards it.
	ScriptOutput io.Writer

	// Logger sets a custom logger for debug/info messages.
	// If nil, no logging is performed.
	Logger Logger

	// Metrics sets a custom metrics collector.
	// If nil, DefaultMetrics() is used.
	Metrics *Metrics

	// WatchScript reloads the script when its file changes on disk.
	// It has no effect for configurations loaded from an fs.FS.
	WatchScript bool

	// WatchDebounce sets the debounce interval for file change events.
	// Zero means use DefaultWatchDebounce.
	WatchDebounce time.Duration

	// CircuitBreaker tunes how Run backs off from a failing script.
	// Zero fields use DefaultCircuitBreakerConfig values.
	CircuitBreaker CircuitBreakerConfig
}

// DefaultOptions returns Options that take every setting from the
// configuration file.
func DefaultOptions() Options {
	return Options{
		CircuitBreaker: DefaultCircuitBreakerConfig(),
	}
}
