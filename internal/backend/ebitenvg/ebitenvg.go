// Package ebitenvg renders canvas frames with Ebiten. Paths are
// triangulated with ebiten's vector package and drawn into an offscreen
// image, which a Window presents every tick.
package ebitenvg

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/opd-ai/go-vgcanvas/internal/backend"
	"github.com/opd-ai/go-vgcanvas/internal/canvas"
)

// Name is the registry name of the backend.
const Name = "ebiten"

func init() {
	backend.Register(Name, func(opts backend.Options) (canvas.RenderBackend, error) {
		return New(opts), nil
	})
}

// Errors reported when a context is used out of order.
var (
	ErrClosed     = errors.New("ebiten: context closed")
	ErrNotInFrame = errors.New("ebiten: no frame in progress")
)

// emptySubImage is the 1x1 white source for DrawTriangles; vertex colors
// supply the paint.
var emptySubImage = func() *ebiten.Image {
	img := ebiten.NewImage(1, 1)
	img.Fill(color.White)
	return img
}()

// Backend creates ebiten render contexts and remembers the live one so a
// Window can present it.
type Backend struct {
	antiAlias bool
	log       *slog.Logger

	mu      sync.Mutex
	current *Context
}

// New creates an ebiten backend.
func New(opts backend.Options) *Backend {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Backend{antiAlias: opts.AntiAlias, log: log}
}

// Name implements canvas.RenderBackend.
func (b *Backend) Name() string { return Name }

// NewContext implements canvas.RenderBackend. The new context becomes the
// current one.
func (b *Backend) NewContext() (canvas.RenderContext, error) {
	ctx := &Context{backend: b, antiAlias: b.antiAlias, log: b.log}
	b.mu.Lock()
	b.current = ctx
	b.mu.Unlock()
	return ctx, nil
}

// Current returns the most recently created context that is still open,
// or nil.
func (b *Backend) Current() *Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Backend) release(ctx *Context) {
	b.mu.Lock()
	if b.current == ctx {
		b.current = nil
	}
	b.mu.Unlock()
}

type loadedFont struct {
	name string
	data []byte
}

// Context draws frames into an offscreen ebiten image.
type Context struct {
	backend   *Backend
	antiAlias bool
	log       *slog.Logger

	mu      sync.Mutex
	target  *ebiten.Image
	fonts   []loadedFont
	frames  int
	inFrame bool
	closed  bool
}

// LoadFont implements canvas.RenderContext. Font data is kept for the
// lifetime of the context; ids start at 1.
func (c *Context) LoadFont(name string, data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("ebiten: font %q has no data", name)
	}
	c.fonts = append(c.fonts, loadedFont{name: name, data: append([]byte(nil), data...)})
	return len(c.fonts), nil
}

// BeginFrame implements canvas.RenderContext. The target is reallocated
// when the frame size changes and cleared otherwise.
func (c *Context) BeginFrame(info canvas.FrameInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.inFrame {
		return errors.New("ebiten: frame already in progress")
	}

	w, h := pixelSize(info)
	if c.target != nil {
		if b := c.target.Bounds(); b.Dx() != w || b.Dy() != h {
			c.target.Deallocate()
			c.target = nil
		}
	}
	if c.target == nil {
		c.target = ebiten.NewImage(w, h)
		c.log.Debug("frame target allocated", "width", w, "height", h)
	} else {
		c.target.Clear()
	}
	c.inFrame = true
	return nil
}

// Fill implements canvas.RenderContext.
func (c *Context) Fill(p *canvas.Path, style canvas.FillStyle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.drawable(); err != nil {
		return err
	}

	path := buildPath(p)
	vertices, indices := path.AppendVerticesAndIndicesForFilling(nil, nil)
	setVertexColors(vertices, style.Color)
	c.target.DrawTriangles(vertices, indices, emptySubImage, &ebiten.DrawTrianglesOptions{
		AntiAlias: c.antiAlias,
		FillRule:  fillRule(style.Rule),
		Blend:     ebiten.BlendSourceOver,
	})
	return nil
}

// Stroke implements canvas.RenderContext.
func (c *Context) Stroke(p *canvas.Path, style canvas.StrokeStyle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.drawable(); err != nil {
		return err
	}
	if style.Width <= 0 {
		return nil
	}

	path := buildPath(p)
	vertices, indices := path.AppendVerticesAndIndicesForStroke(nil, nil, buildStrokeOptions(style))
	setVertexColors(vertices, style.Color)
	c.target.DrawTriangles(vertices, indices, emptySubImage, &ebiten.DrawTrianglesOptions{
		AntiAlias: c.antiAlias,
		Blend:     ebiten.BlendSourceOver,
	})
	return nil
}

// EndFrame implements canvas.RenderContext.
func (c *Context) EndFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if !c.inFrame {
		return ErrNotInFrame
	}
	c.inFrame = false
	c.frames++
	return nil
}

// Close implements canvas.RenderContext. Closing twice is a no-op.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.inFrame = false
	if c.target != nil {
		c.target.Deallocate()
		c.target = nil
	}
	c.fonts = nil
	c.mu.Unlock()

	c.backend.release(c)
	return nil
}

// Image returns the frame target, or nil before the first frame. The
// image is only complete between EndFrame and the next BeginFrame.
func (c *Context) Image() *ebiten.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frames == 0 {
		return nil
	}
	return c.target
}

// Frames returns the number of completed frames.
func (c *Context) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *Context) drawable() error {
	if c.closed {
		return ErrClosed
	}
	if !c.inFrame {
		return ErrNotInFrame
	}
	return nil
}

// buildPath converts device-space segments to an ebiten vector path.
func buildPath(p *canvas.Path) *vector.Path {
	var path vector.Path
	for _, s := range p.Segments() {
		pt := s.Points
		switch s.Kind {
		case canvas.SegmentMoveTo:
			path.MoveTo(float32(pt[0].X), float32(pt[0].Y))
		case canvas.SegmentLineTo:
			path.LineTo(float32(pt[0].X), float32(pt[0].Y))
		case canvas.SegmentQuadTo:
			path.QuadTo(float32(pt[0].X), float32(pt[0].Y), float32(pt[1].X), float32(pt[1].Y))
		case canvas.SegmentCubicTo:
			path.CubicTo(float32(pt[0].X), float32(pt[0].Y),
				float32(pt[1].X), float32(pt[1].Y),
				float32(pt[2].X), float32(pt[2].Y))
		case canvas.SegmentClose:
			path.Close()
		}
	}
	return &path
}

// buildStrokeOptions maps a canvas stroke style to ebiten's.
func buildStrokeOptions(style canvas.StrokeStyle) *vector.StrokeOptions {
	opts := &vector.StrokeOptions{
		Width:      float32(style.Width),
		MiterLimit: float32(style.MiterLimit),
	}
	switch style.Cap {
	case canvas.LineCapRound:
		opts.LineCap = vector.LineCapRound
	case canvas.LineCapSquare:
		opts.LineCap = vector.LineCapSquare
	default:
		opts.LineCap = vector.LineCapButt
	}
	switch style.Join {
	case canvas.LineJoinRound:
		opts.LineJoin = vector.LineJoinRound
	case canvas.LineJoinBevel:
		opts.LineJoin = vector.LineJoinBevel
	default:
		opts.LineJoin = vector.LineJoinMiter
	}
	return opts
}

func fillRule(rule canvas.FillRule) ebiten.FillRule {
	if rule == canvas.FillRuleEvenOdd {
		return ebiten.FillRuleEvenOdd
	}
	return ebiten.FillRuleNonZero
}

// setVertexColors paints every vertex with straight-alpha c, which is what
// DrawTriangles expects by default.
func setVertexColors(vertices []ebiten.Vertex, c canvas.Color) {
	r, g, b, a := float32(c.R), float32(c.G), float32(c.B), float32(c.A)
	for i := range vertices {
		vertices[i].ColorR = r
		vertices[i].ColorG = g
		vertices[i].ColorB = b
		vertices[i].ColorA = a
	}
}

func pixelSize(info canvas.FrameInfo) (int, int) {
	ratio := info.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	w := int(float64(info.Width)*ratio + 0.5)
	h := int(float64(info.Height)*ratio + 0.5)
	return max(w, 1), max(h, 1)
}
