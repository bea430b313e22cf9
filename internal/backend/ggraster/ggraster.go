// Package ggraster renders canvas frames on the CPU with gogpu/gg. Each
// frame is drawn into an RGBA pixmap; the last completed frame is kept and
// can be read back with Image or written out as PNG.
package ggraster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/opd-ai/go-vgcanvas/internal/backend"
	"github.com/opd-ai/go-vgcanvas/internal/canvas"
)

// Name is the registry name of the backend.
const Name = "gg"

func init() {
	backend.Register(Name, func(opts backend.Options) (canvas.RenderBackend, error) {
		return New(opts), nil
	})
}

// Errors reported when a context is used out of order.
var (
	ErrClosed     = errors.New("gg: context closed")
	ErrNotInFrame = errors.New("gg: no frame in progress")
	ErrNoFrame    = errors.New("gg: no frame rendered yet")
)

// Backend creates gg render contexts.
type Backend struct {
	log *slog.Logger
}

// New creates a gg backend. A non-nil opts.Logger is also installed as the
// gg library logger.
func New(opts backend.Options) *Backend {
	log := opts.Logger
	if log != nil {
		gg.SetLogger(log.With("component", "gg"))
	} else {
		log = slog.New(slog.DiscardHandler)
	}
	if !opts.AntiAlias {
		log.Debug("gg always rasterizes with analytic anti-aliasing")
	}
	return &Backend{log: log}
}

// Name implements canvas.RenderBackend.
func (b *Backend) Name() string { return Name }

// NewContext implements canvas.RenderBackend. The pixmap is allocated by
// the first BeginFrame, once the frame size is known.
func (b *Backend) NewContext() (canvas.RenderContext, error) {
	return &Context{log: b.log}, nil
}

// Context draws frames into a gg pixmap.
type Context struct {
	mu      sync.Mutex
	dc      *gg.Context
	fonts   []*text.FontSource
	last    *image.RGBA
	frames  int
	culled  int
	inFrame bool
	closed  bool
	log     *slog.Logger
}

// LoadFont implements canvas.RenderContext. The font is parsed by gg and
// kept until Close; ids start at 1.
func (c *Context) LoadFont(name string, data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return 0, fmt.Errorf("gg: load font %q: %w", name, err)
	}
	c.fonts = append(c.fonts, src)
	c.log.Debug("font loaded", "name", name, "family", src.Name(), "id", len(c.fonts))
	return len(c.fonts), nil
}

// BeginFrame implements canvas.RenderContext. The pixmap is created or
// resized to the frame size and cleared to transparent.
func (c *Context) BeginFrame(info canvas.FrameInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.inFrame {
		return errors.New("gg: frame already in progress")
	}

	w, h := pixelSize(info)
	switch {
	case c.dc == nil:
		c.dc = gg.NewContext(w, h)
	case c.dc.Width() != w || c.dc.Height() != h:
		if err := c.dc.Resize(w, h); err != nil {
			return fmt.Errorf("gg: resize: %w", err)
		}
	}
	c.dc.Identity()
	c.dc.ClearPath()
	c.dc.Clear()
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
	if !c.visible(p, 0) {
		c.culled++
		return nil
	}
	col := style.Color
	c.dc.SetRGBA(col.R, col.G, col.B, col.A)
	if style.Rule == canvas.FillRuleEvenOdd {
		c.dc.SetFillRule(gg.FillRuleEvenOdd)
	} else {
		c.dc.SetFillRule(gg.FillRuleNonZero)
	}
	replay(c.dc, p)
	return c.dc.Fill()
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
	// Miter joins reach out at most MiterLimit half-widths.
	if !c.visible(p, style.Width/2*max(style.MiterLimit, 1)) {
		c.culled++
		return nil
	}
	col := style.Color
	c.dc.SetRGBA(col.R, col.G, col.B, col.A)
	c.dc.SetLineWidth(style.Width)
	c.dc.SetLineCap(lineCap(style.Cap))
	c.dc.SetLineJoin(lineJoin(style.Join))
	c.dc.SetMiterLimit(style.MiterLimit)
	replay(c.dc, p)
	return c.dc.Stroke()
}

// EndFrame implements canvas.RenderContext. The finished frame becomes the
// image returned by Image.
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
	if err := c.dc.FlushGPU(); err != nil {
		c.log.Warn("flush before snapshot failed", "error", err)
	}
	c.last = toRGBA(c.dc.Image())
	c.frames++
	return nil
}

// Close implements canvas.RenderContext. It releases the pixmap and every
// loaded font. Closing twice is a no-op.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.inFrame = false

	var errs []error
	for _, src := range c.fonts {
		if err := src.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.fonts = nil
	if c.dc != nil {
		if err := c.dc.Close(); err != nil {
			errs = append(errs, err)
		}
		c.dc = nil
	}
	return errors.Join(errs...)
}

// Image returns the last completed frame. The image stays valid after the
// context is closed.
func (c *Context) Image() (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil, ErrNoFrame
	}
	return c.last, nil
}

// Frames returns the number of completed frames.
func (c *Context) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// FontCount returns the number of fonts loaded.
func (c *Context) FontCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fonts)
}

// visible reports whether the control-point bounds of p, grown by margin,
// touch the pixmap. Paths entirely off-screen are skipped.
func (c *Context) visible(p *canvas.Path, margin float64) bool {
	r, ok := canvas.Bounds(p)
	if !ok {
		return false
	}
	w, h := float64(c.dc.Width()), float64(c.dc.Height())
	return r.MaxX >= -margin && r.MaxY >= -margin && r.MinX <= w+margin && r.MinY <= h+margin
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

// replay feeds device-space segments to gg, whose transform is identity.
func replay(dc *gg.Context, p *canvas.Path) {
	dc.ClearPath()
	for _, s := range p.Segments() {
		pt := s.Points
		switch s.Kind {
		case canvas.SegmentMoveTo:
			dc.MoveTo(pt[0].X, pt[0].Y)
		case canvas.SegmentLineTo:
			dc.LineTo(pt[0].X, pt[0].Y)
		case canvas.SegmentQuadTo:
			dc.QuadraticTo(pt[0].X, pt[0].Y, pt[1].X, pt[1].Y)
		case canvas.SegmentCubicTo:
			dc.CubicTo(pt[0].X, pt[0].Y, pt[1].X, pt[1].Y, pt[2].X, pt[2].Y)
		case canvas.SegmentClose:
			dc.ClosePath()
		}
	}
}

func lineCap(lc canvas.LineCap) gg.LineCap {
	switch lc {
	case canvas.LineCapRound:
		return gg.LineCapRound
	case canvas.LineCapSquare:
		return gg.LineCapSquare
	default:
		return gg.LineCapButt
	}
}

func lineJoin(lj canvas.LineJoin) gg.LineJoin {
	switch lj {
	case canvas.LineJoinRound:
		return gg.LineJoinRound
	case canvas.LineJoinBevel:
		return gg.LineJoinBevel
	default:
		return gg.LineJoinMiter
	}
}

// pixelSize converts the logical frame size to pixels. gg cannot allocate an
// empty pixmap, so an unset size becomes 1x1.
func pixelSize(info canvas.FrameInfo) (int, int) {
	ratio := info.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	w := int(float64(info.Width)*ratio + 0.5)
	h := int(float64(info.Height)*ratio + 0.5)
	return max(w, 1), max(h, 1)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// EncodePNG writes the last completed frame as PNG.
func (c *Context) EncodePNG(w io.Writer) error {
	img, err := c.Image()
	if err != nil {
		return err
	}
	return encodePNG(w, img)
}
