package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
)

// Parser parses configuration files in any supported format.
type Parser struct {
	luaParser *LuaConfigParser
}

// NewParser creates a new Parser.
func NewParser() (*Parser, error) {
	luaParser, err := NewLuaConfigParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua parser: %w", err)
	}
	return &Parser{luaParser: luaParser}, nil
}

// ParseFile reads and parses a configuration file. The format follows the
// file extension; files without a known extension are detected by content.
func (p *Parser) ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return p.parseNamed(path, content)
}

// ParseFromFS reads and parses a configuration file from fsys.
func (p *Parser) ParseFromFS(fsys fs.FS, path string) (*Config, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS %s: %w", path, err)
	}
	return p.parseNamed(path, content)
}

func (p *Parser) parseNamed(path string, content []byte) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return p.Parse(content)
	}
	cfg, err := p.ParseFormat(content, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses configuration content, detecting the format: a
// vgcanvas.config assignment means Lua, a [table] header means TOML, and
// anything else is read as YAML.
func (p *Parser) Parse(content []byte) (*Config, error) {
	return p.ParseFormat(content, DetectFormat(content))
}

// ParseFormat parses content in the given format.
func (p *Parser) ParseFormat(content []byte, format Format) (*Config, error) {
	switch format {
	case FormatLua:
		return p.luaParser.Parse(content)
	case FormatTOML:
		return parseTOML(content)
	case FormatYAML:
		return parseYAML(content)
	default:
		return nil, fmt.Errorf("unknown format: %s (expected lua, toml or yaml)", format)
	}
}

// ParseReader parses configuration from r. The format must be "lua",
// "toml" or "yaml".
func (p *Parser) ParseReader(r io.Reader, format string) (*Config, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return p.ParseFormat(content, f)
}

// tomlTablePattern matches a TOML table header on its own line.
var tomlTablePattern = regexp.MustCompile(`(?m)^\s*\[[A-Za-z_][A-Za-z0-9_.]*\]\s*(#.*)?$`)

// DetectFormat guesses the format of configuration content.
func DetectFormat(content []byte) Format {
	switch {
	case isLuaConfig(content):
		return FormatLua
	case tomlTablePattern.Match(content):
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Close releases resources associated with the parser.
func (p *Parser) Close() error {
	if p.luaParser != nil {
		return p.luaParser.Close()
	}
	return nil
}
