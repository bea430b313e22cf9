package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// parseTOML decodes a TOML configuration. Unknown keys are errors.
func parseTOML(content []byte) (*Config, error) {
	var raw rawConfig
	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("failed to parse TOML configuration at %d:%d: %w", row, col, err)
		}
		return nil, fmt.Errorf("failed to parse TOML configuration: %w", err)
	}
	return raw.apply()
}

// parseYAML decodes a YAML configuration. Unknown keys are errors and an
// empty document yields the defaults.
func parseYAML(content []byte) (*Config, error) {
	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	return raw.apply()
}
