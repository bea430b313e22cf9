// Package config provides configuration for the vgcanvas player. A
// configuration selects the render backend, the canvas size and default
// font, the drawing script and where frames go. It can be written as a Lua
// table (vgcanvas.config = {...}), as TOML or as YAML.
package config

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
)

// Config represents the complete player configuration.
type Config struct {
	// Canvas contains the drawing surface settings.
	Canvas CanvasConfig
	// Backend selects the rasterizer.
	Backend BackendConfig
	// Font selects the default font registered at context creation.
	Font FontConfig
	// Script selects the Lua drawing script.
	Script ScriptConfig
	// Output controls offscreen frame rendering.
	Output OutputConfig
	// Window controls on-screen presentation.
	Window WindowConfig
}

// CanvasConfig holds drawing surface settings.
type CanvasConfig struct {
	// Width is the frame width in pixels.
	Width int
	// Height is the frame height in pixels.
	Height int
	// Strict makes misuse of the canvas API an error instead of a logged drop.
	Strict bool
	// Background is the color behind presented frames.
	Background color.RGBA
}

// BackendConfig selects and tunes the render backend.
type BackendConfig struct {
	// Name is a registered backend name such as "gg" or "ebiten".
	Name string
	// AntiAlias enables anti-aliased edges where the backend supports it.
	AntiAlias bool
}

// FontConfig names the default font.
type FontConfig struct {
	// Name is the identifier the font is registered under.
	Name string
	// Path is a TrueType/OpenType file. Empty selects the built-in font.
	Path string
}

// ScriptConfig configures the Lua drawing script.
type ScriptConfig struct {
	// Path is the script file.
	Path string
	// Entry is the global function called once per frame.
	Entry string
	// CPULimit is the instruction budget per call. 0 means unlimited.
	CPULimit uint64
	// MemoryLimit is the memory budget in bytes per call. 0 means unlimited.
	MemoryLimit uint64
}

// OutputConfig controls offscreen rendering.
type OutputConfig struct {
	// Path is the PNG file frames are written to. With more than one frame
	// the frame index is inserted before the extension.
	Path string
	// Frames is the number of frames to render.
	Frames int
	// Golden is a reference PNG the last frame is compared with.
	Golden string
	// Tolerance is the largest fraction of differing pixels accepted by the
	// golden comparison.
	Tolerance float64
}

// WindowConfig controls on-screen presentation.
type WindowConfig struct {
	// Title is the window title.
	Title string
	// TPS is the number of frames rendered per second.
	TPS int
	// Resizable lets the user resize the window.
	Resizable bool
}

// Format identifies a configuration file format.
type Format string

// Supported formats.
const (
	FormatLua  Format = "lua"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lua":
		return FormatLua, nil
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown config format: %q (expected lua, toml or yaml)", s)
	}
}

// FormatFromPath returns the format implied by a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("config file %s has no extension", path)
	}
	return ParseFormat(ext)
}

// FramePath returns the output path for frame index i of n. A single frame
// is written to Path unchanged; otherwise "out.png" becomes "out-0003.png".
func (oc OutputConfig) FramePath(i, n int) string {
	if oc.Path == "" || n <= 1 {
		return oc.Path
	}
	ext := filepath.Ext(oc.Path)
	return fmt.Sprintf("%s-%04d%s", strings.TrimSuffix(oc.Path, ext), i, ext)
}

// Validate performs basic validation of the configuration values.
// Use Validator for detailed results including warnings.
func (c *Config) Validate() error {
	return NewValidator().Validate(c).Error()
}
