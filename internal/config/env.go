package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR}, ${VAR:-default} and $VAR references.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv expands environment variable references in s:
//   - ${VAR} and $VAR are replaced with the value of VAR
//   - ${VAR:-default} is replaced with the value of VAR, or default if VAR
//     is unset or empty
//
// Unset variables without a default expand to the empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if groups[2] != "" {
			return os.Getenv(groups[2])
		}
		name, def, hasDefault := strings.Cut(groups[1], ":-")
		if val := os.Getenv(name); val != "" || !hasDefault {
			return val
		}
		return def
	})
}

// ExpandEnvConfig expands environment variables in every path-like
// configuration value: the font and script paths and the output and golden
// paths.
func ExpandEnvConfig(cfg *Config) {
	ExpandEnvConfigWithOptions(cfg)
}

// EnvConfigOption is a functional option for environment variable expansion.
type EnvConfigOption func(*envConfigOptions)

type envConfigOptions struct {
	expandFont   bool
	expandScript bool
	expandOutput bool
}

// defaultEnvConfigOptions returns the default options (all expansion enabled).
func defaultEnvConfigOptions() *envConfigOptions {
	return &envConfigOptions{
		expandFont:   true,
		expandScript: true,
		expandOutput: true,
	}
}

// WithExpandFont controls whether the font path is expanded.
func WithExpandFont(expand bool) EnvConfigOption {
	return func(o *envConfigOptions) {
		o.expandFont = expand
	}
}

// WithExpandScript controls whether the script path is expanded.
func WithExpandScript(expand bool) EnvConfigOption {
	return func(o *envConfigOptions) {
		o.expandScript = expand
	}
}

// WithExpandOutput controls whether the output and golden paths are expanded.
func WithExpandOutput(expand bool) EnvConfigOption {
	return func(o *envConfigOptions) {
		o.expandOutput = expand
	}
}

// ExpandEnvConfigWithOptions expands environment variables with specific options.
func ExpandEnvConfigWithOptions(cfg *Config, opts ...EnvConfigOption) {
	if cfg == nil {
		return
	}

	options := defaultEnvConfigOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.expandFont {
		cfg.Font.Path = ExpandEnv(cfg.Font.Path)
	}
	if options.expandScript {
		cfg.Script.Path = ExpandEnv(cfg.Script.Path)
	}
	if options.expandOutput {
		cfg.Output.Path = ExpandEnv(cfg.Output.Path)
		cfg.Output.Golden = ExpandEnv(cfg.Output.Golden)
	}
}
