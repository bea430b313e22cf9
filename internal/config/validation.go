package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error.
// It contains the field name and a description of the issue.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	// Errors contains all validation errors found.
	Errors []ValidationError
	// Warnings contains non-fatal issues.
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

// Limits for warnings.
const (
	maxDimension = 16384
	maxTPS       = 240
)

// Validator checks a Config.
type Validator struct {
	// backends, when set, is the list of known backend names.
	backends []string
	// requireScript makes a missing script path an error.
	requireScript bool
	// checkFiles makes missing font and script files errors.
	checkFiles bool
}

// NewValidator creates a Validator that requires a script path and does
// not touch the filesystem.
func NewValidator() *Validator {
	return &Validator{requireScript: true}
}

// WithBackends restricts Backend.Name to names.
func (v *Validator) WithBackends(names ...string) *Validator {
	v.backends = slices.Clone(names)
	return v
}

// WithRequireScript controls whether an empty Script.Path is an error.
func (v *Validator) WithRequireScript(require bool) *Validator {
	v.requireScript = require
	return v
}

// WithFileChecks makes missing font and script files errors.
func (v *Validator) WithFileChecks(check bool) *Validator {
	v.checkFiles = check
	return v
}

// Validate performs comprehensive validation of a Config.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		result.AddError("config", "is nil")
		return result
	}

	v.validateCanvas(&cfg.Canvas, result)
	v.validateBackend(&cfg.Backend, result)
	v.validateFont(&cfg.Font, result)
	v.validateScript(&cfg.Script, result)
	v.validateOutput(&cfg.Output, result)
	v.validateWindow(&cfg.Window, result)

	return result
}

func (v *Validator) validateCanvas(cc *CanvasConfig, result *ValidationResult) {
	if cc.Width < 0 {
		result.AddError("canvas.width", fmt.Sprintf("must be non-negative, got %d", cc.Width))
	}
	if cc.Height < 0 {
		result.AddError("canvas.height", fmt.Sprintf("must be non-negative, got %d", cc.Height))
	}
	if cc.Width == 0 || cc.Height == 0 {
		result.AddWarning("canvas", "zero-sized canvas renders nothing")
	}
	if cc.Width > maxDimension {
		result.AddWarning("canvas.width", fmt.Sprintf("unusually large value %d", cc.Width))
	}
	if cc.Height > maxDimension {
		result.AddWarning("canvas.height", fmt.Sprintf("unusually large value %d", cc.Height))
	}
}

func (v *Validator) validateBackend(bc *BackendConfig, result *ValidationResult) {
	if bc.Name == "" {
		result.AddError("backend.name", "is required")
		return
	}
	if len(v.backends) > 0 && !slices.Contains(v.backends, bc.Name) {
		result.AddError("backend.name",
			fmt.Sprintf("unknown backend %q (available: %s)", bc.Name, strings.Join(v.backends, ", ")))
	}
}

func (v *Validator) validateFont(fc *FontConfig, result *ValidationResult) {
	if fc.Name == "" {
		result.AddError("font.name", "is required")
	}
	if strings.ContainsAny(fc.Name, "<>|&;$`") {
		result.AddError("font.name", "contains invalid characters")
	}
	if fc.Path != "" && v.checkFiles {
		v.checkFile("font.path", fc.Path, result)
	}
}

// luaIdentifier matches a Lua global name.
var luaIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (v *Validator) validateScript(sc *ScriptConfig, result *ValidationResult) {
	switch {
	case sc.Path == "" && v.requireScript:
		result.AddError("script.path", "is required")
	case sc.Path != "" && v.checkFiles:
		v.checkFile("script.path", sc.Path, result)
	}
	if !luaIdentifier.MatchString(sc.Entry) {
		result.AddError("script.entry", fmt.Sprintf("%q is not a Lua identifier", sc.Entry))
	}
	if sc.CPULimit == 0 {
		result.AddWarning("script.cpu_limit", "unlimited; a runaway script will hang the player")
	}
	if sc.MemoryLimit == 0 {
		result.AddWarning("script.memory_limit", "unlimited")
	}
}

func (v *Validator) validateOutput(oc *OutputConfig, result *ValidationResult) {
	if oc.Frames < 1 {
		result.AddError("output.frames", fmt.Sprintf("must be at least 1, got %d", oc.Frames))
	}
	if oc.Tolerance < 0 || oc.Tolerance > 1 {
		result.AddError("output.tolerance", fmt.Sprintf("must be within [0, 1], got %g", oc.Tolerance))
	}
	if oc.Golden != "" && oc.Path == "" {
		result.AddWarning("output.golden", "set without output.path; frames are compared in memory")
	}
	if oc.Path != "" {
		if _, err := FormatFromPath(oc.Path); err == nil {
			result.AddWarning("output.path", "has a configuration file extension")
		}
	}
}

func (v *Validator) validateWindow(wc *WindowConfig, result *ValidationResult) {
	if wc.TPS < 0 {
		result.AddError("window.tps", fmt.Sprintf("must be non-negative, got %d", wc.TPS))
	}
	if wc.TPS > maxTPS {
		result.AddWarning("window.tps", fmt.Sprintf("very high rate %d may cause high CPU usage", wc.TPS))
	}
}

func (v *Validator) checkFile(field, path string, result *ValidationResult) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		result.AddError(field, fmt.Sprintf("cannot access %s: %v", path, err))
	case info.IsDir():
		result.AddError(field, fmt.Sprintf("%s is a directory", path))
	}
}
