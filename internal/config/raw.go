package config

import "fmt"

// rawConfig is the decoded form shared by every format. Pointer fields
// distinguish "absent" from a zero value so defaults survive.
type rawConfig struct {
	Canvas struct {
		Width      *int    `toml:"width,omitempty" yaml:"width,omitempty"`
		Height     *int    `toml:"height,omitempty" yaml:"height,omitempty"`
		Strict     *bool   `toml:"strict,omitempty" yaml:"strict,omitempty"`
		Background *string `toml:"background,omitempty" yaml:"background,omitempty"`
	} `toml:"canvas,omitempty" yaml:"canvas,omitempty"`
	Backend struct {
		Name      *string `toml:"name,omitempty" yaml:"name,omitempty"`
		AntiAlias *bool   `toml:"anti_alias,omitempty" yaml:"anti_alias,omitempty"`
	} `toml:"backend,omitempty" yaml:"backend,omitempty"`
	Font struct {
		Name *string `toml:"name,omitempty" yaml:"name,omitempty"`
		Path *string `toml:"path,omitempty" yaml:"path,omitempty"`
	} `toml:"font,omitempty" yaml:"font,omitempty"`
	Script struct {
		Path        *string `toml:"path,omitempty" yaml:"path,omitempty"`
		Entry       *string `toml:"entry,omitempty" yaml:"entry,omitempty"`
		CPULimit    *uint64 `toml:"cpu_limit,omitempty" yaml:"cpu_limit,omitempty"`
		MemoryLimit *uint64 `toml:"memory_limit,omitempty" yaml:"memory_limit,omitempty"`
	} `toml:"script,omitempty" yaml:"script,omitempty"`
	Output struct {
		Path      *string  `toml:"path,omitempty" yaml:"path,omitempty"`
		Frames    *int     `toml:"frames,omitempty" yaml:"frames,omitempty"`
		Golden    *string  `toml:"golden,omitempty" yaml:"golden,omitempty"`
		Tolerance *float64 `toml:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	} `toml:"output,omitempty" yaml:"output,omitempty"`
	Window struct {
		Title     *string `toml:"title,omitempty" yaml:"title,omitempty"`
		TPS       *int    `toml:"tps,omitempty" yaml:"tps,omitempty"`
		Resizable *bool   `toml:"resizable,omitempty" yaml:"resizable,omitempty"`
	} `toml:"window,omitempty" yaml:"window,omitempty"`
}

// apply overlays the values present in raw onto the defaults.
func (raw *rawConfig) apply() (*Config, error) {
	cfg := DefaultConfig()

	setInt(&cfg.Canvas.Width, raw.Canvas.Width)
	setInt(&cfg.Canvas.Height, raw.Canvas.Height)
	setBool(&cfg.Canvas.Strict, raw.Canvas.Strict)
	if raw.Canvas.Background != nil {
		c, err := parseColor(*raw.Canvas.Background)
		if err != nil {
			return nil, fmt.Errorf("invalid canvas.background: %w", err)
		}
		cfg.Canvas.Background = c
	}

	setString(&cfg.Backend.Name, raw.Backend.Name)
	setBool(&cfg.Backend.AntiAlias, raw.Backend.AntiAlias)

	setString(&cfg.Font.Name, raw.Font.Name)
	setString(&cfg.Font.Path, raw.Font.Path)

	setString(&cfg.Script.Path, raw.Script.Path)
	setString(&cfg.Script.Entry, raw.Script.Entry)
	if raw.Script.CPULimit != nil {
		cfg.Script.CPULimit = *raw.Script.CPULimit
	}
	if raw.Script.MemoryLimit != nil {
		cfg.Script.MemoryLimit = *raw.Script.MemoryLimit
	}

	setString(&cfg.Output.Path, raw.Output.Path)
	setInt(&cfg.Output.Frames, raw.Output.Frames)
	setString(&cfg.Output.Golden, raw.Output.Golden)
	if raw.Output.Tolerance != nil {
		cfg.Output.Tolerance = *raw.Output.Tolerance
	}

	setString(&cfg.Window.Title, raw.Window.Title)
	setInt(&cfg.Window.TPS, raw.Window.TPS)
	setBool(&cfg.Window.Resizable, raw.Window.Resizable)

	return &cfg, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
