package config

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Encoder writes a Config in any supported format. Settings equal to the
// defaults are left out unless WithDefaults is set.
type Encoder struct {
	// includeComments adds a header comment to Lua output.
	includeComments bool
	// preserveDefaults includes settings even when they match defaults.
	preserveDefaults bool
}

// EncoderOption is a functional option for configuring an Encoder.
type EncoderOption func(*Encoder)

// WithComments enables the header comment in Lua output.
func WithComments(include bool) EncoderOption {
	return func(e *Encoder) {
		e.includeComments = include
	}
}

// WithDefaults includes settings that match default values in the output.
func WithDefaults(preserve bool) EncoderOption {
	return func(e *Encoder) {
		e.preserveDefaults = preserve
	}
}

// NewEncoder creates a new Encoder with the given options.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{includeComments: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode returns cfg in format. The output parses back to an equal Config.
func (e *Encoder) Encode(cfg *Config, format Format) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	raw := e.toRaw(cfg)

	switch format {
	case FormatLua:
		return e.encodeLua(raw), nil
	case FormatTOML:
		out, err := toml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to encode TOML: %w", err)
		}
		return out, nil
	case FormatYAML:
		out, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (expected lua, toml or yaml)", format)
	}
}

// toRaw keeps the fields that differ from the defaults, or all of them.
func (e *Encoder) toRaw(cfg *Config) *rawConfig {
	d := DefaultConfig()
	raw := &rawConfig{}
	all := e.preserveDefaults

	raw.Canvas.Width = pick(all, cfg.Canvas.Width, d.Canvas.Width)
	raw.Canvas.Height = pick(all, cfg.Canvas.Height, d.Canvas.Height)
	raw.Canvas.Strict = pick(all, cfg.Canvas.Strict, d.Canvas.Strict)
	raw.Canvas.Background = pick(all, formatColor(cfg.Canvas.Background), formatColor(d.Canvas.Background))

	raw.Backend.Name = pick(all, cfg.Backend.Name, d.Backend.Name)
	raw.Backend.AntiAlias = pick(all, cfg.Backend.AntiAlias, d.Backend.AntiAlias)

	raw.Font.Name = pick(all, cfg.Font.Name, d.Font.Name)
	raw.Font.Path = pick(all, cfg.Font.Path, d.Font.Path)

	raw.Script.Path = pick(all, cfg.Script.Path, d.Script.Path)
	raw.Script.Entry = pick(all, cfg.Script.Entry, d.Script.Entry)
	raw.Script.CPULimit = pick(all, cfg.Script.CPULimit, d.Script.CPULimit)
	raw.Script.MemoryLimit = pick(all, cfg.Script.MemoryLimit, d.Script.MemoryLimit)

	raw.Output.Path = pick(all, cfg.Output.Path, d.Output.Path)
	raw.Output.Frames = pick(all, cfg.Output.Frames, d.Output.Frames)
	raw.Output.Golden = pick(all, cfg.Output.Golden, d.Output.Golden)
	raw.Output.Tolerance = pick(all, cfg.Output.Tolerance, d.Output.Tolerance)

	raw.Window.Title = pick(all, cfg.Window.Title, d.Window.Title)
	raw.Window.TPS = pick(all, cfg.Window.TPS, d.Window.TPS)
	raw.Window.Resizable = pick(all, cfg.Window.Resizable, d.Window.Resizable)

	return raw
}

func pick[T comparable](all bool, v, def T) *T {
	if !all && v == def {
		return nil
	}
	return &v
}

// encodeLua writes the flat vgcanvas.config table read by LuaConfigParser.
func (e *Encoder) encodeLua(raw *rawConfig) []byte {
	var buf bytes.Buffer
	if e.includeComments {
		buf.WriteString("-- vgcanvas player configuration\n\n")
	}
	buf.WriteString("vgcanvas.config = {\n")

	writeLuaInt(&buf, "width", raw.Canvas.Width)
	writeLuaInt(&buf, "height", raw.Canvas.Height)
	writeLuaBool(&buf, "strict", raw.Canvas.Strict)
	writeLuaString(&buf, "background", raw.Canvas.Background)

	writeLuaString(&buf, "backend", raw.Backend.Name)
	writeLuaBool(&buf, "anti_alias", raw.Backend.AntiAlias)

	writeLuaString(&buf, "font", raw.Font.Name)
	writeLuaString(&buf, "font_path", raw.Font.Path)

	writeLuaString(&buf, "script", raw.Script.Path)
	writeLuaString(&buf, "entry", raw.Script.Entry)
	writeLuaUint(&buf, "cpu_limit", raw.Script.CPULimit)
	writeLuaUint(&buf, "memory_limit", raw.Script.MemoryLimit)

	writeLuaString(&buf, "output", raw.Output.Path)
	writeLuaInt(&buf, "frames", raw.Output.Frames)
	writeLuaString(&buf, "golden", raw.Output.Golden)
	if raw.Output.Tolerance != nil {
		fmt.Fprintf(&buf, "    tolerance = %s,\n", strconv.FormatFloat(*raw.Output.Tolerance, 'g', -1, 64))
	}

	writeLuaString(&buf, "window_title", raw.Window.Title)
	writeLuaInt(&buf, "tps", raw.Window.TPS)
	writeLuaBool(&buf, "resizable", raw.Window.Resizable)

	buf.WriteString("}\n")
	return buf.Bytes()
}

func writeLuaInt(buf *bytes.Buffer, key string, v *int) {
	if v != nil {
		fmt.Fprintf(buf, "    %s = %d,\n", key, *v)
	}
}

func writeLuaUint(buf *bytes.Buffer, key string, v *uint64) {
	if v != nil {
		fmt.Fprintf(buf, "    %s = %d,\n", key, *v)
	}
}

func writeLuaBool(buf *bytes.Buffer, key string, v *bool) {
	if v != nil {
		fmt.Fprintf(buf, "    %s = %t,\n", key, *v)
	}
}

// writeLuaString writes a quoted string. %q escapes are valid Lua escapes
// for the printable text found in paths and names.
func writeLuaString(buf *bytes.Buffer, key string, v *string) {
	if v != nil {
		fmt.Fprintf(buf, "    %s = %q,\n", key, *v)
	}
}
