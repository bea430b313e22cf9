// This file contains fuzzing tests for the configuration parsers to ensure
// robustness against malformed or unexpected input.

package config

import (
	"testing"
)

// FuzzLuaParser tests the Lua configuration parser with arbitrary input.
// It ensures the parser handles malformed Lua code gracefully without panicking.
func FuzzLuaParser(f *testing.F) {
	f.Add([]byte(`vgcanvas.config = {
    width = 320,
    height = 240,
    backend = 'gg',
    script = 'clock.lua',
}`))
	f.Add([]byte(`vgcanvas.config = { background = '#10182080', frames = 3, tolerance = 0.5 }`))

	// Edge cases
	f.Add([]byte(""))
	f.Add([]byte("vgcanvas.config = {}"))
	f.Add([]byte("-- comment only"))
	f.Add([]byte("local x = 1"))
	f.Add([]byte("vgcanvas = nil"))

	// Malformed Lua
	f.Add([]byte("vgcanvas.config = {"))
	f.Add([]byte("vgcanvas.config = nil"))
	f.Add([]byte("error('test')"))
	f.Add([]byte("while true do end"))

	// Edge case values
	f.Add([]byte(`vgcanvas.config = { width = -1, cpu_limit = -1 }`))
	f.Add([]byte(`vgcanvas.config = { width = 1e300 }`))
	f.Add([]byte(`vgcanvas.config = { background = 'not a color' }`))

	f.Fuzz(func(t *testing.T, data []byte) {
		parser, err := NewLuaConfigParser()
		if err != nil {
			t.Skip("failed to create Lua parser")
		}
		defer parser.Close()

		cfg, err := parser.Parse(data)
		if err == nil && cfg == nil {
			t.Error("Parse returned nil config with nil error")
		}
	})
}

// FuzzParseColor tests the color parsing function with arbitrary input.
// Any color that parses must survive a round trip through formatColor when
// it is opaque.
func FuzzParseColor(f *testing.F) {
	f.Add("white")
	f.Add("transparent")
	f.Add("#FF0000")
	f.Add("FF0000")
	f.Add("#ff000080")
	f.Add("#12")
	f.Add("#GGGGGG")
	f.Add("")
	f.Add("   ")
	f.Add("#")

	f.Fuzz(func(t *testing.T, s string) {
		c, err := parseColor(s)
		if err != nil || c.A != 0xff {
			return
		}
		back, err := parseColor(formatColor(c))
		if err != nil {
			t.Fatalf("formatColor(%v) = %q does not parse: %v", c, formatColor(c), err)
		}
		if back != c {
			t.Errorf("round trip of %q: %v != %v", s, back, c)
		}
	})
}

// FuzzDetectFormat checks that every input is assigned a supported format.
func FuzzDetectFormat(f *testing.F) {
	f.Add([]byte("vgcanvas.config = {}"))
	f.Add([]byte("[canvas]\nwidth = 1"))
	f.Add([]byte("canvas:\n  width: 1"))
	f.Add([]byte(""))

	f.Fuzz(func(t *testing.T, data []byte) {
		switch DetectFormat(data) {
		case FormatLua, FormatTOML, FormatYAML:
		default:
			t.Errorf("DetectFormat(%q) returned an unknown format", data)
		}
	})
}

// FuzzParseTOML ensures the TOML decoder never panics.
func FuzzParseTOML(f *testing.F) {
	f.Add([]byte("[canvas]\nwidth = 320\nheight = 240\n"))
	f.Add([]byte("[output]\nframes = 3\ntolerance = 0.01\n"))
	f.Add([]byte("[canvas"))
	f.Add([]byte("[canvas]\nwidth = 'x'"))
	f.Add([]byte(""))

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := parseTOML(data)
		if err == nil && cfg == nil {
			t.Error("parseTOML returned nil config with nil error")
		}
	})
}

// FuzzParseYAML ensures the YAML decoder never panics.
func FuzzParseYAML(f *testing.F) {
	f.Add([]byte("canvas:\n  width: 320\n"))
	f.Add([]byte("window:\n  title: Clock\n  tps: 30\n"))
	f.Add([]byte("canvas: [1, 2"))
	f.Add([]byte("---\n...\n"))
	f.Add([]byte(""))

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := parseYAML(data)
		if err == nil && cfg == nil {
			t.Error("parseYAML returned nil config with nil error")
		}
	})
}
