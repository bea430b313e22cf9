// Package canvas implements VectorCanvas, a retained-frame vector drawing
// engine. Callers open a frame, build paths against the current transform
// and paint state, resolve them with RenderFill and RenderStroke, and close
// the frame. Rasterization is delegated to a RenderBackend.
package canvas

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// maxStrokeWidth bounds the device-space stroke width sent to backends.
const maxStrokeWidth = 200.0

// savedState is one transform stack entry.
type savedState struct {
	xform Matrix
	paint PaintState
}

// VectorCanvas owns a render context, the frame state machine, the
// transform stack, the current path and the paint state.
//
// A canvas is driven from one goroutine at a time. Methods are serialized
// by an internal mutex so misuse cannot corrupt state, but frames are not
// meant to be interleaved.
type VectorCanvas struct {
	backend    RenderBackend
	ctx        RenderContext
	fontID     int
	generation uint64
	state      State
	width      int
	height     int
	xform      Matrix
	paint      PaintState
	stack      []savedState
	path       Path
	opts       options
	log        *slog.Logger
	mu         sync.Mutex
}

// New creates a canvas that renders through backend. The canvas starts
// Uninitialized; call InitializeGraphicsResources before the first frame.
func New(backend RenderBackend, opts ...Option) (*VectorCanvas, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &VectorCanvas{
		backend: backend,
		state:   StateUninitialized,
		xform:   Identity(),
		paint:   DefaultPaint(),
		opts:    o,
		log:     o.logger.With("backend", backend.Name()),
	}, nil
}

// --- Lifecycle ---

// InitializeGraphicsResources allocates the render context and loads the
// default font. Allowed from Uninitialized and Destroyed. A failure wraps
// ErrResourceAllocation and leaves the canvas without a context.
func (c *VectorCanvas) InitializeGraphicsResources() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initializeUnlocked()
}

func (c *VectorCanvas) initializeUnlocked() error {
	if c.state.HasContext() {
		return &StateError{Op: "initializeGraphicsResources", State: c.state}
	}

	ctx, err := c.backend.NewContext()
	if err != nil {
		return fmt.Errorf("%w: create context: %w", ErrResourceAllocation, err)
	}
	if ctx == nil {
		return fmt.Errorf("%w: backend %s returned no context", ErrResourceAllocation, c.backend.Name())
	}

	res, err := c.opts.fontLoader(c.opts.fontName, c.opts.fontPath)
	if err != nil {
		_ = ctx.Close()
		return fmt.Errorf("%w: load font %q: %w", ErrResourceAllocation, c.opts.fontName, err)
	}
	id, err := ctx.LoadFont(res.Name, res.Data)
	if err != nil {
		_ = ctx.Close()
		return fmt.Errorf("%w: register font %q: %w", ErrResourceAllocation, res.Name, err)
	}

	c.ctx = ctx
	c.fontID = id
	c.generation++
	c.state = StateReady
	c.resetFrameStateUnlocked()
	c.log.Debug("graphics resources initialized",
		"generation", c.generation, "font", res.Name, "font_id", id, "font_source", res.Source())
	return nil
}

// DestroyGraphicsResources releases the render context. It is a no-op
// when no context is held and safe to call repeatedly. Destroying during a
// frame abandons the frame.
func (c *VectorCanvas) DestroyGraphicsResources() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyUnlocked()
}

func (c *VectorCanvas) destroyUnlocked() error {
	if c.ctx == nil {
		return nil
	}
	if c.state == StateInFrame {
		c.log.Warn("destroying graphics resources during a frame")
	}
	err := c.ctx.Close()
	c.ctx = nil
	c.fontID = 0
	c.state = StateDestroyed
	c.resetFrameStateUnlocked()
	c.log.Debug("graphics resources destroyed", "generation", c.generation)
	if err != nil {
		return fmt.Errorf("close context: %w", err)
	}
	return nil
}

// Reset destroys and re-creates the render context, discarding the path,
// transform stack and paint state. It is the recovery path after the
// backend loses its resources and may be called from any state.
func (c *VectorCanvas) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.destroyUnlocked(); err != nil {
		c.log.Warn("reset: releasing old context failed", "error", err)
	}
	return c.initializeUnlocked()
}

// SetSize sets the frame dimensions used by subsequent BeginFrame calls.
func (c *VectorCanvas) SetSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.width = width
	c.height = height
}

// Size returns the frame dimensions.
func (c *VectorCanvas) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// BeginFrame opens a frame of the configured size with a device pixel ratio
// of 1 and straight alpha. The transform, paint state and path start fresh.
func (c *VectorCanvas) BeginFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return &StateError{Op: "beginFrame", State: c.state}
	}
	if c.width == 0 || c.height == 0 {
		c.log.Warn("frame dimensions unset, viewport is empty", "width", c.width, "height", c.height)
	}

	c.resetFrameStateUnlocked()
	info := FrameInfo{Width: c.width, Height: c.height, PixelRatio: 1, Alpha: AlphaStraight}
	if err := c.ctx.BeginFrame(info); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	c.state = StateInFrame
	return nil
}

// EndFrame flushes the frame to the backend and returns to Ready. Draw
// scopes left open are discarded; in strict mode that is reported as a
// *ScopeError after the frame has been flushed.
func (c *VectorCanvas) EndFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInFrame {
		return &StateError{Op: "endFrame", State: c.state}
	}

	open := len(c.stack)
	flushErr := c.ctx.EndFrame()
	c.state = StateReady
	c.resetFrameStateUnlocked()

	if flushErr != nil {
		return fmt.Errorf("end frame: %w", flushErr)
	}
	if open > 0 {
		scopeErr := &ScopeError{Op: "endFrame", Depth: open}
		if c.opts.strict {
			return scopeErr
		}
		c.log.Warn("unbalanced draw scopes at end of frame", "open", open)
	}
	return nil
}

// resetFrameStateUnlocked returns transform, paint, stack and path to their
// start-of-frame values.
func (c *VectorCanvas) resetFrameStateUnlocked() {
	c.xform = Identity()
	c.paint = DefaultPaint()
	c.stack = c.stack[:0]
	c.path.Reset()
}

// --- Inspection ---

// State returns the lifecycle state.
func (c *VectorCanvas) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation counts successful context creations. It changes on every
// InitializeGraphicsResources and Reset.
func (c *VectorCanvas) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// FontID returns the id the backend assigned to the default font.
func (c *VectorCanvas) FontID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fontID
}

// Depth returns the number of open draw scopes.
func (c *VectorCanvas) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack)
}

// Transform returns the current transform.
func (c *VectorCanvas) Transform() Matrix {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.xform
}

// Paint returns the current paint state.
func (c *VectorCanvas) Paint() PaintState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paint
}

// Path returns a copy of the current device-space path.
func (c *VectorCanvas) Path() *Path {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path.Clone()
}

// Strict reports whether misuse is returned as an error.
func (c *VectorCanvas) Strict() bool {
	return c.opts.strict
}

// Backend returns the backend the canvas renders through.
func (c *VectorCanvas) Backend() RenderBackend {
	return c.backend
}

// Context returns the render context, or nil when no context is held.
func (c *VectorCanvas) Context() RenderContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// inFrame gates every path, paint and transform operation. It reports
// whether the operation may proceed; in lenient mode a rejected operation
// is logged and err is nil.
func (c *VectorCanvas) inFrame(op string) (ok bool, err error) {
	if c.state == StateInFrame {
		return true, nil
	}
	if c.opts.strict {
		return false, &StateError{Op: op, State: c.state}
	}
	c.log.Warn("operation outside frame dropped", "op", op, "state", c.state.String())
	return false, nil
}

// --- Transform scoping ---

// PreDraw pushes the current transform and paint state, composes the
// affine transform (a, b, c, d, e, f) onto the current transform and sets
// butt caps with round joins for the new scope.
func (c *VectorCanvas) PreDraw(a, b, cc, d, e, f float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok, err := c.inFrame("preDraw"); !ok {
		return err
	}
	c.pushUnlocked(NewMatrix(a, b, cc, d, e, f))
	return nil
}

func (c *VectorCanvas) pushUnlocked(m Matrix) {
	c.stack = append(c.stack, savedState{xform: c.xform, paint: c.paint})
	c.xform = m.Multiply(c.xform)
	c.paint.LineCap = LineCapButt
	c.paint.LineJoin = LineJoinRound
}

// PostDraw pops the transform stack, restoring the transform and paint
// state saved by the matching PreDraw.
func (c *VectorCanvas) PostDraw() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok, err := c.inFrame("postDraw"); !ok {
		return err
	}
	if len(c.stack) == 0 {
		scopeErr := &ScopeError{Op: "postDraw", Depth: -1}
		if c.opts.strict {
			return scopeErr
		}
		c.log.Warn("postDraw without matching preDraw ignored")
		return nil
	}
	c.restoreToUnlocked(len(c.stack) - 1)
	return nil
}

// restoreToUnlocked pops until depth scopes remain.
func (c *VectorCanvas) restoreToUnlocked(depth int) {
	if depth < 0 || depth >= len(c.stack) {
		return
	}
	saved := c.stack[depth]
	c.xform = saved.xform
	c.paint = saved.paint
	c.stack = c.stack[:depth]
}

// --- Paint state ---

// StrokeWidth sets the stroke width in user units.
func (c *VectorCanvas) StrokeWidth(width float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("strokeWidth"); !ok {
		return err
	}
	if width < 0 || math.IsNaN(width) {
		width = 0
	}
	c.paint.StrokeWidth = width
	return nil
}

// StrokeColor sets the stroke color. Components are clamped to [0, 1].
func (c *VectorCanvas) StrokeColor(r, g, b, a float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("strokeColor"); !ok {
		return err
	}
	c.paint.StrokeColor = RGBA(r, g, b, a)
	return nil
}

// FillColor sets the fill color. Components are clamped to [0, 1].
func (c *VectorCanvas) FillColor(r, g, b, a float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("fillColor"); !ok {
		return err
	}
	c.paint.FillColor = RGBA(r, g, b, a)
	return nil
}

// LineCap sets the line cap style.
func (c *VectorCanvas) LineCap(lc LineCap) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("lineCap"); !ok {
		return err
	}
	if !lc.Valid() {
		return fmt.Errorf("lineCap: invalid value %d", int(lc))
	}
	c.paint.LineCap = lc
	return nil
}

// LineJoin sets the line join style.
func (c *VectorCanvas) LineJoin(lj LineJoin) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("lineJoin"); !ok {
		return err
	}
	if !lj.Valid() {
		return fmt.Errorf("lineJoin: invalid value %d", int(lj))
	}
	c.paint.LineJoin = lj
	return nil
}

// MiterLimit sets the miter limit.
func (c *VectorCanvas) MiterLimit(limit float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("miterLimit"); !ok {
		return err
	}
	if limit < 0 || math.IsNaN(limit) {
		limit = 0
	}
	c.paint.MiterLimit = limit
	return nil
}

// --- Resolution ---

// RenderFill fills the current path with the fill color using the
// non-zero rule. The path is kept. An empty path is a no-op.
func (c *VectorCanvas) RenderFill() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("renderFill"); !ok {
		return err
	}
	if c.path.IsEmpty() {
		return nil
	}
	style := FillStyle{Color: c.paint.FillColor, Rule: FillRuleNonZero}
	if err := c.ctx.Fill(&c.path, style); err != nil {
		return fmt.Errorf("render fill: %w", err)
	}
	return nil
}

// RenderStroke strokes the current path with the stroke paint. The width
// is scaled by the current transform. The path is kept. An empty path is
// a no-op.
func (c *VectorCanvas) RenderStroke() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("renderStroke"); !ok {
		return err
	}
	if c.path.IsEmpty() {
		return nil
	}
	width := c.paint.StrokeWidth * c.xform.AverageScale()
	if width > maxStrokeWidth {
		width = maxStrokeWidth
	}
	style := StrokeStyle{
		Color:      c.paint.StrokeColor,
		Width:      width,
		Cap:        c.paint.LineCap,
		Join:       c.paint.LineJoin,
		MiterLimit: c.paint.MiterLimit,
	}
	if err := c.ctx.Stroke(&c.path, style); err != nil {
		return fmt.Errorf("render stroke: %w", err)
	}
	return nil
}
