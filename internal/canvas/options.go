package canvas

import (
	"context"
	"log/slog"

	"github.com/opd-ai/go-vgcanvas/internal/font"
)

// FontLoader resolves the default font at context creation.
type FontLoader func(name, path string) (*font.Resource, error)

type options struct {
	strict     bool
	logger     *slog.Logger
	fontName   string
	fontPath   string
	fontLoader FontLoader
}

func defaultOptions() options {
	return options{
		strict:     true,
		logger:     slog.New(nopHandler{}),
		fontName:   font.DefaultName,
		fontLoader: font.Load,
	}
}

// Option configures a VectorCanvas.
type Option func(*options)

// WithStrict controls how misuse is reported. In strict mode (the default)
// operations outside a frame return ErrInvalidState and scope imbalance
// returns ErrUnbalancedScope. Otherwise both are logged and the offending
// operation is dropped.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(nopHandler{})
		}
		o.logger = l
	}
}

// WithFont sets the identifier and file path of the default font. An empty
// path selects the built-in font.
func WithFont(name, path string) Option {
	return func(o *options) {
		if name != "" {
			o.fontName = name
		}
		o.fontPath = path
	}
}

// WithFontLoader replaces the function used to resolve the default font.
func WithFontLoader(load FontLoader) Option {
	return func(o *options) {
		if load != nil {
			o.fontLoader = load
		}
	}
}

// nopHandler discards every record; Enabled returns false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
