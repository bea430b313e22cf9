package lua

import (
	"fmt"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/go-vgcanvas/internal/canvas"
)

// CanvasBindings exposes a VectorCanvas to Lua as vg_* global functions and
// VG_* constants. Every function raises a Lua error for bad arguments or a
// failed canvas operation.
type CanvasBindings struct {
	runtime *Runtime
	canvas  *canvas.VectorCanvas
}

// NewCanvasBindings registers the vg_* functions for c in runtime.
func NewCanvasBindings(runtime *Runtime, c *canvas.VectorCanvas) (*CanvasBindings, error) {
	if runtime == nil {
		return nil, ErrNilRuntime
	}
	if c == nil {
		return nil, ErrNilCanvas
	}

	cb := &CanvasBindings{runtime: runtime, canvas: c}
	cb.registerFunctions()
	cb.registerConstants()
	return cb, nil
}

// Canvas returns the bound canvas.
func (cb *CanvasBindings) Canvas() *canvas.VectorCanvas {
	return cb.canvas
}

// DrawFrame runs the script's entry function inside a frame, passing the
// frame index. The frame is closed even if the script fails.
func (cb *CanvasBindings) DrawFrame(entry string, frame int) error {
	if !cb.runtime.HasFunction(entry) {
		return fmt.Errorf("entry %s: %w", entry, ErrFunctionNotFound)
	}
	return cb.canvas.Frame(func() error {
		_, err := cb.runtime.CallFunction(entry, rt.IntValue(int64(frame)))
		return err
	})
}

func (cb *CanvasBindings) registerFunctions() {
	// Frame and size
	cb.runtime.SetGoFunction("vg_set_size", cb.setSize, 2, false)
	cb.runtime.SetGoFunction("vg_size", cb.size, 0, false)
	cb.runtime.SetGoFunction("vg_begin_frame", cb.beginFrame, 0, false)
	cb.runtime.SetGoFunction("vg_end_frame", cb.endFrame, 0, false)

	// Draw scopes
	cb.runtime.SetGoFunction("vg_pre_draw", cb.preDraw, 6, false)
	cb.runtime.SetGoFunction("vg_post_draw", cb.postDraw, 0, false)
	cb.runtime.SetGoFunction("vg_draw", cb.draw, 7, false)
	cb.runtime.SetGoFunction("vg_depth", cb.depth, 0, false)

	// Path construction
	cb.runtime.SetGoFunction("vg_clear_path", cb.clearPath, 0, false)
	cb.runtime.SetGoFunction("vg_move_to", cb.moveTo, 2, false)
	cb.runtime.SetGoFunction("vg_line_to", cb.lineTo, 2, false)
	cb.runtime.SetGoFunction("vg_curve_to", cb.curveTo, 4, false)
	cb.runtime.SetGoFunction("vg_cubic_curve_to", cb.cubicCurveTo, 6, false)
	cb.runtime.SetGoFunction("vg_arc_to", cb.arcTo, 5, false)
	cb.runtime.SetGoFunction("vg_close_path", cb.closePath, 0, false)

	// Primitives
	cb.runtime.SetGoFunction("vg_rect", cb.rect, 4, false)
	cb.runtime.SetGoFunction("vg_round_rect", cb.roundRect, 5, false)
	cb.runtime.SetGoFunction("vg_ellipse", cb.ellipse, 4, false)
	cb.runtime.SetGoFunction("vg_circle", cb.circle, 3, false)
	cb.runtime.SetGoFunction("vg_arc", cb.arc, 6, false)

	// Rendering
	cb.runtime.SetGoFunction("vg_render_fill", cb.renderFill, 0, false)
	cb.runtime.SetGoFunction("vg_render_stroke", cb.renderStroke, 0, false)

	// Paint
	cb.runtime.SetGoFunction("vg_stroke_width", cb.strokeWidth, 1, false)
	cb.runtime.SetGoFunction("vg_stroke_color", cb.strokeColor, 4, false)
	cb.runtime.SetGoFunction("vg_fill_color", cb.fillColor, 4, false)
	cb.runtime.SetGoFunction("vg_line_cap", cb.lineCap, 1, false)
	cb.runtime.SetGoFunction("vg_line_join", cb.lineJoin, 1, false)
	cb.runtime.SetGoFunction("vg_miter_limit", cb.miterLimit, 1, false)
}

func (cb *CanvasBindings) registerConstants() {
	cb.runtime.SetGlobal("VG_CW", rt.IntValue(int64(canvas.Clockwise)))
	cb.runtime.SetGlobal("VG_CCW", rt.IntValue(int64(canvas.CounterClockwise)))

	cb.runtime.SetGlobal("VG_CAP_BUTT", rt.IntValue(int64(canvas.LineCapButt)))
	cb.runtime.SetGlobal("VG_CAP_ROUND", rt.IntValue(int64(canvas.LineCapRound)))
	cb.runtime.SetGlobal("VG_CAP_SQUARE", rt.IntValue(int64(canvas.LineCapSquare)))

	cb.runtime.SetGlobal("VG_JOIN_MITER", rt.IntValue(int64(canvas.LineJoinMiter)))
	cb.runtime.SetGlobal("VG_JOIN_ROUND", rt.IntValue(int64(canvas.LineJoinRound)))
	cb.runtime.SetGlobal("VG_JOIN_BEVEL", rt.IntValue(int64(canvas.LineJoinBevel)))
}

// getAllArgs returns the fixed arguments followed by the extra ones.
func getAllArgs(c *rt.GoCont) []rt.Value {
	return append(c.Args(), c.Etc()...)
}

// getFloatArg returns args[idx] as a float, accepting integers.
func getFloatArg(args []rt.Value, idx int) (float64, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("argument %d out of range (have %d)", idx, len(args))
	}
	if f, ok := args[idx].TryFloat(); ok {
		return f, nil
	}
	if i, ok := args[idx].TryInt(); ok {
		return float64(i), nil
	}
	return 0, fmt.Errorf("argument %d is not a number", idx)
}

// getIntArg returns args[idx] as an integer, truncating floats.
func getIntArg(args []rt.Value, idx int) (int64, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("argument %d out of range (have %d)", idx, len(args))
	}
	if i, ok := args[idx].TryInt(); ok {
		return i, nil
	}
	if f, ok := args[idx].TryFloat(); ok {
		return int64(f), nil
	}
	return 0, fmt.Errorf("argument %d is not an integer", idx)
}

// getFloatArgs reads the first n arguments as floats.
func getFloatArgs(args []rt.Value, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, err := getFloatArg(args, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// floatCall adapts a canvas method taking n floats into a Lua function.
func floatCall(name string, n int, op func(v []float64) error) rt.GoFunctionFunc {
	return func(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
		v, err := getFloatArgs(getAllArgs(c), n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := op(v); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return c.Next(), nil
	}
}

// noArgCall adapts a canvas method without arguments into a Lua function.
func noArgCall(name string, op func() error) rt.GoFunctionFunc {
	return func(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
		if err := op(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return c.Next(), nil
	}
}

// --- Frame and size ---

// setSize handles vg_set_size(w, h)
func (cb *CanvasBindings) setSize(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := getAllArgs(c)
	w, err := getIntArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("vg_set_size: width: %w", err)
	}
	h, err := getIntArg(args, 1)
	if err != nil {
		return nil, fmt.Errorf("vg_set_size: height: %w", err)
	}
	cb.canvas.SetSize(int(w), int(h))
	return c.Next(), nil
}

// size handles vg_size() and returns width, height.
func (cb *CanvasBindings) size(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	w, h := cb.canvas.Size()
	return c.PushingNext(t.Runtime, rt.IntValue(int64(w)), rt.IntValue(int64(h))), nil
}

func (cb *CanvasBindings) beginFrame(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return noArgCall("vg_begin_frame", cb.canvas.BeginFrame)(t, c)
}

func (cb *CanvasBindings) endFrame(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return noArgCall("vg_end_frame", cb.canvas.EndFrame)(t, c)
}

// --- Draw scopes ---

// preDraw handles vg_pre_draw(a, b, c, d, e, f)
func (cb *CanvasBindings) preDraw(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_pre_draw", 6, func(v []float64) error {
		return cb.canvas.PreDraw(v[0], v[1], v[2], v[3], v[4], v[5])
	})(t, c)
}

func (cb *CanvasBindings) postDraw(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return noArgCall("vg_post_draw", cb.canvas.PostDraw)(t, c)
}

// draw handles vg_draw(a, b, c, d, e, f, fn). fn runs inside a draw scope
// that is closed when fn returns or raises an error.
func (cb *CanvasBindings) draw(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := getAllArgs(c)
	v, err := getFloatArgs(args, 6)
	if err != nil {
		return nil, fmt.Errorf("vg_draw: %w", err)
	}
	if len(args) < 7 || args[6].Type() != rt.FunctionType {
		return nil, fmt.Errorf("vg_draw: argument 6 is not a function")
	}
	fn := args[6]

	m := canvas.NewMatrix(v[0], v[1], v[2], v[3], v[4], v[5])
	err = cb.canvas.Draw(m, func() error {
		_, err := rt.Call1(t, fn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("vg_draw: %w", err)
	}
	return c.Next(), nil
}

// depth handles vg_depth() and returns the number of open draw scopes.
func (cb *CanvasBindings) depth(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return c.PushingNext1(t.Runtime, rt.IntValue(int64(cb.canvas.Depth()))), nil
}

// --- Path construction ---

func (cb *CanvasBindings) clearPath(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return noArgCall("vg_clear_path", cb.canvas.ClearPath)(t, c)
}

// moveTo handles vg_move_to(x, y)
func (cb *CanvasBindings) moveTo(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_move_to", 2, func(v []float64) error {
		return cb.canvas.MoveTo(v[0], v[1])
	})(t, c)
}

// lineTo handles vg_line_to(x, y)
func (cb *CanvasBindings) lineTo(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_line_to", 2, func(v []float64) error {
		return cb.canvas.LineTo(v[0], v[1])
	})(t, c)
}

// curveTo handles vg_curve_to(cx, cy, x, y), a quadratic Bézier.
func (cb *CanvasBindings) curveTo(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_curve_to", 4, func(v []float64) error {
		return cb.canvas.CurveTo(v[0], v[1], v[2], v[3])
	})(t, c)
}

// cubicCurveTo handles vg_cubic_curve_to(c1x, c1y, c2x, c2y, x, y)
func (cb *CanvasBindings) cubicCurveTo(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_cubic_curve_to", 6, func(v []float64) error {
		return cb.canvas.CubicCurveTo(v[0], v[1], v[2], v[3], v[4], v[5])
	})(t, c)
}

// arcTo handles vg_arc_to(x1, y1, x2, y2, r)
func (cb *CanvasBindings) arcTo(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_arc_to", 5, func(v []float64) error {
		return cb.canvas.ArcTo(v[0], v[1], v[2], v[3], v[4])
	})(t, c)
}

func (cb *CanvasBindings) closePath(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return noArgCall("vg_close_path", cb.canvas.ClosePath)(t, c)
}

// --- Primitives ---

// rect handles vg_rect(x, y, w, h)
func (cb *CanvasBindings) rect(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_rect", 4, func(v []float64) error {
		return cb.canvas.Rect(v[0], v[1], v[2], v[3])
	})(t, c)
}

// roundRect handles vg_round_rect(x, y, w, h, r)
func (cb *CanvasBindings) roundRect(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_round_rect", 5, func(v []float64) error {
		return cb.canvas.RoundRect(v[0], v[1], v[2], v[3], v[4])
	})(t, c)
}

// ellipse handles vg_ellipse(cx, cy, rx, ry)
func (cb *CanvasBindings) ellipse(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_ellipse", 4, func(v []float64) error {
		return cb.canvas.Ellipse(v[0], v[1], v[2], v[3])
	})(t, c)
}

// circle handles vg_circle(cx, cy, r)
func (cb *CanvasBindings) circle(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_circle", 3, func(v []float64) error {
		return cb.canvas.Circle(v[0], v[1], v[2])
	})(t, c)
}

// arc handles vg_arc(cx, cy, r, a0, a1, dir). dir is VG_CW or VG_CCW.
func (cb *CanvasBindings) arc(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := getAllArgs(c)
	v, err := getFloatArgs(args, 5)
	if err != nil {
		return nil, fmt.Errorf("vg_arc: %w", err)
	}
	dir, err := getIntArg(args, 5)
	if err != nil {
		return nil, fmt.Errorf("vg_arc: dir: %w", err)
	}
	winding := canvas.Winding(dir)
	if winding != canvas.Clockwise && winding != canvas.CounterClockwise {
		return nil, fmt.Errorf("vg_arc: %w %d (must be VG_CW or VG_CCW)", ErrInvalidWinding, dir)
	}
	if err := cb.canvas.Arc(v[0], v[1], v[2], v[3], v[4], winding); err != nil {
		return nil, fmt.Errorf("vg_arc: %w", err)
	}
	return c.Next(), nil
}

// --- Rendering ---

func (cb *CanvasBindings) renderFill(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return noArgCall("vg_render_fill", cb.canvas.RenderFill)(t, c)
}

func (cb *CanvasBindings) renderStroke(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return noArgCall("vg_render_stroke", cb.canvas.RenderStroke)(t, c)
}

// --- Paint ---

func (cb *CanvasBindings) strokeWidth(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_stroke_width", 1, func(v []float64) error {
		return cb.canvas.StrokeWidth(v[0])
	})(t, c)
}

// strokeColor handles vg_stroke_color(r, g, b, a) with components in [0,1].
func (cb *CanvasBindings) strokeColor(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_stroke_color", 4, func(v []float64) error {
		return cb.canvas.StrokeColor(v[0], v[1], v[2], v[3])
	})(t, c)
}

// fillColor handles vg_fill_color(r, g, b, a) with components in [0,1].
func (cb *CanvasBindings) fillColor(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_fill_color", 4, func(v []float64) error {
		return cb.canvas.FillColor(v[0], v[1], v[2], v[3])
	})(t, c)
}

// lineCap handles vg_line_cap(cap)
func (cb *CanvasBindings) lineCap(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	v, err := getIntArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg_line_cap: %w", err)
	}
	lc := canvas.LineCap(v)
	if !lc.Valid() {
		return nil, fmt.Errorf("vg_line_cap: %w %d (must be 0-2)", ErrInvalidLineCap, v)
	}
	if err := cb.canvas.LineCap(lc); err != nil {
		return nil, fmt.Errorf("vg_line_cap: %w", err)
	}
	return c.Next(), nil
}

// lineJoin handles vg_line_join(join)
func (cb *CanvasBindings) lineJoin(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	v, err := getIntArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg_line_join: %w", err)
	}
	lj := canvas.LineJoin(v)
	if !lj.Valid() {
		return nil, fmt.Errorf("vg_line_join: %w %d (must be 0-2)", ErrInvalidLineJoin, v)
	}
	if err := cb.canvas.LineJoin(lj); err != nil {
		return nil, fmt.Errorf("vg_line_join: %w", err)
	}
	return c.Next(), nil
}

func (cb *CanvasBindings) miterLimit(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return floatCall("vg_miter_limit", 1, func(v []float64) error {
		return cb.canvas.MiterLimit(v[0])
	})(t, c)
}
