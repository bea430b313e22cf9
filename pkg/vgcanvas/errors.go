package vgcanvas

import (
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/go-vgcanvas/internal/canvas"
)

// Errors returned by Player methods.
var (
	// ErrNotLoaded is returned by operations that need Load to have succeeded.
	ErrNotLoaded = errors.New("player not loaded")
	// ErrAlreadyLoaded is returned by a second Load.
	ErrAlreadyLoaded = errors.New("player already loaded")
	// ErrNoSnapshot is returned when the backend cannot read frames back.
	ErrNoSnapshot = errors.New("backend does not support frame readback")
	// ErrNoWindow is returned by Run when the backend cannot present frames.
	ErrNoWindow = errors.New("backend cannot open a window")
	// ErrGoldenMismatch is returned when a frame differs from its golden
	// image by more than the configured tolerance.
	ErrGoldenMismatch = errors.New("frame does not match golden image")
)

// ErrorCategory represents the type of error for categorization purposes.
type ErrorCategory int

const (
	// ErrorCategoryUnknown is the default category for uncategorized errors.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategoryConfig is for configuration parsing and validation errors.
	ErrorCategoryConfig
	// ErrorCategoryScript is for Lua script loading and execution errors.
	ErrorCategoryScript
	// ErrorCategoryRender is for canvas misuse: operations outside a frame
	// and unbalanced draw scopes.
	ErrorCategoryRender
	// ErrorCategoryBackend is for render backend and resource errors.
	ErrorCategoryBackend
	// ErrorCategoryIO is for file and I/O errors.
	ErrorCategoryIO
)

// String returns a human-readable name for the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConfig:
		return "config"
	case ErrorCategoryScript:
		return "script"
	case ErrorCategoryRender:
		return "render"
	case ErrorCategoryBackend:
		return "backend"
	case ErrorCategoryIO:
		return "io"
	default:
		return "unknown"
	}
}

// ErrorSeverity indicates the severity level of an error.
type ErrorSeverity int

const (
	// SeverityInfo is for informational messages that don't require action.
	SeverityInfo ErrorSeverity = iota
	// SeverityWarning is for non-critical issues that should be investigated.
	SeverityWarning
	// SeverityError is for errors that affect functionality but allow continued operation.
	SeverityError
	// SeverityCritical is for errors that stop the player.
	SeverityCritical
)

// String returns a human-readable name for the severity level.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with additional metadata for tracking and alerting.
type CategorizedError struct {
	// Err is the underlying error.
	Err error
	// Category classifies the type of error.
	Category ErrorCategory
	// Severity indicates the urgency level.
	Severity ErrorSeverity
	// Timestamp is when the error occurred.
	Timestamp time.Time
	// Context provides additional key-value metadata.
	Context map[string]string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s/%s] (no error)", e.Severity, e.Category)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Severity, e.Category, e.Err.Error())
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorizedError creates a new CategorizedError with the given parameters.
func NewCategorizedError(err error, category ErrorCategory, severity ErrorSeverity) *CategorizedError {
	return &CategorizedError{
		Err:       err,
		Category:  category,
		Severity:  severity,
		Timestamp: time.Now(),
		Context:   make(map[string]string),
	}
}

// WithContext adds a key-value pair to the error context and returns the error.
func (e *CategorizedError) WithContext(key, value string) *CategorizedError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// CategoryOf returns the category of err, or ErrorCategoryUnknown if err
// is not a CategorizedError.
func CategoryOf(err error) ErrorCategory {
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ErrorCategoryUnknown
}

// classifyFrameError picks a category for an error from a rendered frame.
// Canvas misuse surfaces as render errors, resource loss as backend errors
// and everything else comes from the script.
func classifyFrameError(err error) ErrorCategory {
	switch {
	case errors.Is(err, canvas.ErrInvalidState), errors.Is(err, canvas.ErrUnbalancedScope):
		return ErrorCategoryRender
	case errors.Is(err, canvas.ErrResourceAllocation):
		return ErrorCategoryBackend
	default:
		return ErrorCategoryScript
	}
}
