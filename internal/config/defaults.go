package config

import "image/color"

// Default values for configuration options.
const (
	// DefaultWidth is the default frame width in pixels.
	DefaultWidth = 800
	// DefaultHeight is the default frame height in pixels.
	DefaultHeight = 600
	// DefaultBackend is the headless software rasterizer.
	DefaultBackend = "gg"
	// DefaultFontName is the identifier of the default font.
	DefaultFontName = "sans"
	// DefaultEntry is the per-frame script function.
	DefaultEntry = "draw"
	// DefaultCPULimit is the per-call Lua instruction budget.
	DefaultCPULimit = 10_000_000
	// DefaultMemoryLimit is the per-call Lua memory budget (50 MB).
	DefaultMemoryLimit = 50 * 1024 * 1024
	// DefaultFrames is the number of frames rendered offscreen.
	DefaultFrames = 1
	// DefaultTPS is the window frame rate.
	DefaultTPS = 60
	// DefaultTitle is the window title.
	DefaultTitle = "vgcanvas"
)

// TransparentColor is the default background.
var TransparentColor = color.RGBA{}

// DefaultConfig returns a Config with default values: an 800x600 strict
// canvas on the gg backend, the built-in sans font and one frame.
func DefaultConfig() Config {
	return Config{
		Canvas: CanvasConfig{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			Strict:     true,
			Background: TransparentColor,
		},
		Backend: BackendConfig{
			Name:      DefaultBackend,
			AntiAlias: true,
		},
		Font: FontConfig{
			Name: DefaultFontName,
		},
		Script: ScriptConfig{
			Entry:       DefaultEntry,
			CPULimit:    DefaultCPULimit,
			MemoryLimit: DefaultMemoryLimit,
		},
		Output: OutputConfig{
			Frames: DefaultFrames,
		},
		Window: WindowConfig{
			Title: DefaultTitle,
			TPS:   DefaultTPS,
		},
	}
}
