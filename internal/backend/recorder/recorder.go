// Package recorder provides a render backend that records every call it
// receives instead of drawing. It is the backend used by tests and by
// headless dry runs; recorded paths can be rasterized into coverage masks
// with Mask and Coverage.
package recorder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/go-vgcanvas/internal/backend"
	"github.com/opd-ai/go-vgcanvas/internal/canvas"
)

// Name is the registry name of the backend.
const Name = "recorder"

func init() {
	backend.Register(Name, func(backend.Options) (canvas.RenderBackend, error) {
		return New(), nil
	})
}

// Errors returned when a context is driven out of protocol order.
var (
	ErrClosed      = errors.New("recorder: context closed")
	ErrNotInFrame  = errors.New("recorder: no frame in progress")
	ErrFrameActive = errors.New("recorder: frame already in progress")
)

// CallKind identifies a recorded call.
type CallKind string

// Recorded call kinds.
const (
	CallNewContext CallKind = "new-context"
	CallLoadFont   CallKind = "load-font"
	CallBeginFrame CallKind = "begin-frame"
	CallFill       CallKind = "fill"
	CallStroke     CallKind = "stroke"
	CallEndFrame   CallKind = "end-frame"
	CallClose      CallKind = "close"
)

// Call is one recorded backend call. Only the fields relevant to Kind are set.
type Call struct {
	Kind    CallKind
	Context int
	Font    string
	Frame   canvas.FrameInfo
	Path    *canvas.Path
	Fill    canvas.FillStyle
	Stroke  canvas.StrokeStyle
}

// Backend records calls from every context it creates. It is safe for
// concurrent use.
type Backend struct {
	// FailNewContext makes NewContext fail with this error when set.
	FailNewContext error
	// FailLoadFont makes LoadFont fail with this error when set.
	FailLoadFont error
	// FailDraw makes Fill and Stroke fail with this error when set.
	FailDraw error
	// FailClose makes Close fail with this error when set. The context is
	// still released.
	FailClose error

	mu      sync.Mutex
	calls   []Call
	nextID  int
	open    map[int]*Context
	created int
}

// New creates an empty recorder.
func New() *Backend {
	return &Backend{open: make(map[int]*Context)}
}

// Name implements canvas.RenderBackend.
func (b *Backend) Name() string { return Name }

// NewContext implements canvas.RenderBackend.
func (b *Backend) NewContext() (canvas.RenderContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailNewContext != nil {
		return nil, b.FailNewContext
	}
	b.nextID++
	b.created++
	ctx := &Context{backend: b, id: b.nextID}
	b.open[ctx.id] = ctx
	b.calls = append(b.calls, Call{Kind: CallNewContext, Context: ctx.id})
	return ctx, nil
}

// Calls returns a copy of everything recorded so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsOf returns the recorded calls of one kind.
func (b *Backend) CallsOf(kind CallKind) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Call
	for _, c := range b.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Kinds returns the sequence of recorded call kinds.
func (b *Backend) Kinds() []CallKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	kinds := make([]CallKind, len(b.calls))
	for i, c := range b.calls {
		kinds[i] = c.Kind
	}
	return kinds
}

// OpenContexts returns the number of contexts created and not yet closed.
func (b *Backend) OpenContexts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.open)
}

// Created returns the number of contexts ever created.
func (b *Backend) Created() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created
}

// Clear drops the recorded calls. Open contexts stay open.
func (b *Backend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

func (b *Backend) record(c Call) {
	b.mu.Lock()
	b.calls = append(b.calls, c)
	b.mu.Unlock()
}

// Context is a recorded render context. It checks that calls follow the
// frame protocol.
type Context struct {
	backend *Backend
	id      int
	fonts   []string
	inFrame bool
	closed  bool
}

// ID returns the context number, starting at 1.
func (c *Context) ID() int { return c.id }

// LoadFont implements canvas.RenderContext. Ids start at 1.
func (c *Context) LoadFont(name string, data []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if err := c.backend.loadFontErr(); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("recorder: font %q has no data", name)
	}
	c.fonts = append(c.fonts, name)
	c.backend.record(Call{Kind: CallLoadFont, Context: c.id, Font: name})
	return len(c.fonts), nil
}

// BeginFrame implements canvas.RenderContext.
func (c *Context) BeginFrame(info canvas.FrameInfo) error {
	if c.closed {
		return ErrClosed
	}
	if c.inFrame {
		return ErrFrameActive
	}
	c.inFrame = true
	c.backend.record(Call{Kind: CallBeginFrame, Context: c.id, Frame: info})
	return nil
}

// Fill implements canvas.RenderContext.
func (c *Context) Fill(p *canvas.Path, style canvas.FillStyle) error {
	if err := c.drawable(); err != nil {
		return err
	}
	c.backend.record(Call{Kind: CallFill, Context: c.id, Path: p.Clone(), Fill: style})
	return nil
}

// Stroke implements canvas.RenderContext.
func (c *Context) Stroke(p *canvas.Path, style canvas.StrokeStyle) error {
	if err := c.drawable(); err != nil {
		return err
	}
	c.backend.record(Call{Kind: CallStroke, Context: c.id, Path: p.Clone(), Stroke: style})
	return nil
}

// EndFrame implements canvas.RenderContext.
func (c *Context) EndFrame() error {
	if c.closed {
		return ErrClosed
	}
	if !c.inFrame {
		return ErrNotInFrame
	}
	c.inFrame = false
	c.backend.record(Call{Kind: CallEndFrame, Context: c.id})
	return nil
}

// Close implements canvas.RenderContext. Closing twice is an error.
func (c *Context) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	c.inFrame = false

	b := c.backend
	b.mu.Lock()
	delete(b.open, c.id)
	b.calls = append(b.calls, Call{Kind: CallClose, Context: c.id})
	failErr := b.FailClose
	b.mu.Unlock()
	return failErr
}

func (c *Context) drawable() error {
	if c.closed {
		return ErrClosed
	}
	if !c.inFrame {
		return ErrNotInFrame
	}
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	return c.backend.FailDraw
}

func (b *Backend) loadFontErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.FailLoadFont
}
