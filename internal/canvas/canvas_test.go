package canvas_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/opd-ai/go-vgcanvas/internal/backend/recorder"
	"github.com/opd-ai/go-vgcanvas/internal/canvas"
	"github.com/opd-ai/go-vgcanvas/internal/font"
)

func newCanvas(t *testing.T, opts ...canvas.Option) (*canvas.VectorCanvas, *recorder.Backend) {
	t.Helper()
	rec := recorder.New()
	c, err := canvas.New(rec, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.InitializeGraphicsResources(); err != nil {
		t.Fatalf("InitializeGraphicsResources: %v", err)
	}
	c.SetSize(100, 100)
	t.Cleanup(func() { _ = c.DestroyGraphicsResources() })
	return c, rec
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestNewNilBackend(t *testing.T) {
	if _, err := canvas.New(nil); !errors.Is(err, canvas.ErrNilBackend) {
		t.Errorf("New(nil) error = %v, want ErrNilBackend", err)
	}
}

func TestLifecycle(t *testing.T) {
	rec := recorder.New()
	c, err := canvas.New(rec)
	mustNil(t, err)

	if c.State() != canvas.StateUninitialized {
		t.Fatalf("initial state = %v", c.State())
	}
	if err := c.BeginFrame(); !errors.Is(err, canvas.ErrInvalidState) {
		t.Errorf("BeginFrame before init = %v, want ErrInvalidState", err)
	}

	mustNil(t, c.InitializeGraphicsResources())
	if c.State() != canvas.StateReady {
		t.Errorf("state after init = %v", c.State())
	}
	if c.FontID() == 0 {
		t.Error("font id not assigned")
	}
	if err := c.InitializeGraphicsResources(); !errors.Is(err, canvas.ErrInvalidState) {
		t.Errorf("double init = %v, want ErrInvalidState", err)
	}

	c.SetSize(40, 30)
	mustNil(t, c.BeginFrame())
	if c.State() != canvas.StateInFrame {
		t.Errorf("state in frame = %v", c.State())
	}
	if err := c.BeginFrame(); !errors.Is(err, canvas.ErrInvalidState) {
		t.Errorf("nested BeginFrame = %v, want ErrInvalidState", err)
	}
	mustNil(t, c.EndFrame())
	if err := c.EndFrame(); !errors.Is(err, canvas.ErrInvalidState) {
		t.Errorf("EndFrame while ready = %v, want ErrInvalidState", err)
	}

	mustNil(t, c.DestroyGraphicsResources())
	if c.State() != canvas.StateDestroyed {
		t.Errorf("state after destroy = %v", c.State())
	}
	mustNil(t, c.DestroyGraphicsResources())
	if rec.OpenContexts() != 0 {
		t.Errorf("open contexts = %d, want 0", rec.OpenContexts())
	}

	begins := rec.CallsOf(recorder.CallBeginFrame)
	if len(begins) != 1 {
		t.Fatalf("begin-frame calls = %d", len(begins))
	}
	info := begins[0].Frame
	if info.Width != 40 || info.Height != 30 || info.PixelRatio != 1 || info.Alpha != canvas.AlphaStraight {
		t.Errorf("frame info = %+v", info)
	}
}

func TestDestroyWithoutContextIsNoop(t *testing.T) {
	rec := recorder.New()
	c, err := canvas.New(rec)
	mustNil(t, err)
	mustNil(t, c.DestroyGraphicsResources())
	if c.State() != canvas.StateUninitialized {
		t.Errorf("state = %v, want uninitialized", c.State())
	}
	if len(rec.Calls()) != 0 {
		t.Errorf("backend saw calls: %v", rec.Kinds())
	}
	if c.Context() != nil {
		t.Error("Context() is non-nil before initialization")
	}
}

func TestReinitializeAfterDestroy(t *testing.T) {
	c, rec := newCanvas(t)
	mustNil(t, c.DestroyGraphicsResources())
	if c.Context() != nil {
		t.Error("Context() survived DestroyGraphicsResources")
	}
	mustNil(t, c.InitializeGraphicsResources())
	if c.Context() == nil {
		t.Error("Context() is nil after initialization")
	}
	if c.Generation() != 2 {
		t.Errorf("generation = %d, want 2", c.Generation())
	}
	if rec.OpenContexts() != 1 {
		t.Errorf("open contexts = %d, want 1", rec.OpenContexts())
	}
}

func TestResetFromEveryState(t *testing.T) {
	rec := recorder.New()
	c, err := canvas.New(rec)
	mustNil(t, err)
	c.SetSize(10, 10)

	mustNil(t, c.Reset())
	if c.State() != canvas.StateReady || c.Generation() != 1 {
		t.Fatalf("after reset from uninitialized: %v gen %d", c.State(), c.Generation())
	}

	mustNil(t, c.BeginFrame())
	mustNil(t, c.PreDraw(1, 0, 0, 1, 5, 5))
	mustNil(t, c.Rect(0, 0, 1, 1))
	mustNil(t, c.Reset())
	if c.State() != canvas.StateReady || c.Generation() != 2 {
		t.Fatalf("after reset from in-frame: %v gen %d", c.State(), c.Generation())
	}
	if c.Depth() != 0 || c.Path().Len() != 0 || !c.Transform().IsIdentity() {
		t.Error("reset kept frame state")
	}

	mustNil(t, c.Reset())
	if rec.OpenContexts() != 1 {
		t.Errorf("open contexts = %d, want 1", rec.OpenContexts())
	}
	if rec.Created() != 3 {
		t.Errorf("contexts created = %d, want 3", rec.Created())
	}
	mustNil(t, c.DestroyGraphicsResources())
	if rec.OpenContexts() != 0 {
		t.Errorf("leaked contexts: %d", rec.OpenContexts())
	}
}

func TestInitializeFailures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("context", func(t *testing.T) {
		rec := recorder.New()
		rec.FailNewContext = boom
		c, _ := canvas.New(rec)
		err := c.InitializeGraphicsResources()
		if !errors.Is(err, canvas.ErrResourceAllocation) || !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
		if c.State() != canvas.StateUninitialized {
			t.Errorf("state = %v", c.State())
		}
	})

	t.Run("font registration", func(t *testing.T) {
		rec := recorder.New()
		rec.FailLoadFont = boom
		c, _ := canvas.New(rec)
		err := c.InitializeGraphicsResources()
		if !errors.Is(err, canvas.ErrResourceAllocation) {
			t.Errorf("err = %v", err)
		}
		if rec.OpenContexts() != 0 {
			t.Errorf("context leaked after font failure")
		}
	})

	t.Run("font file", func(t *testing.T) {
		rec := recorder.New()
		c, _ := canvas.New(rec, canvas.WithFont("sans", "/nonexistent/font.ttf"))
		if err := c.InitializeGraphicsResources(); !errors.Is(err, canvas.ErrResourceAllocation) {
			t.Errorf("err = %v", err)
		}
		if rec.OpenContexts() != 0 {
			t.Errorf("context leaked after font failure")
		}
	})

	t.Run("custom loader", func(t *testing.T) {
		rec := recorder.New()
		var gotName string
		loader := func(name, path string) (*font.Resource, error) {
			gotName = name
			return font.Builtin("mono")
		}
		c, _ := canvas.New(rec, canvas.WithFont("mono", ""), canvas.WithFontLoader(loader))
		mustNil(t, c.InitializeGraphicsResources())
		if gotName != "mono" {
			t.Errorf("loader called with %q", gotName)
		}
		loads := rec.CallsOf(recorder.CallLoadFont)
		if len(loads) != 1 || loads[0].Font != "mono" {
			t.Errorf("load-font calls = %+v", loads)
		}
	})
}

func TestOperationsOutsideFrame(t *testing.T) {
	c, rec := newCanvas(t)

	ops := map[string]func() error{
		"moveTo":       func() error { return c.MoveTo(0, 0) },
		"lineTo":       func() error { return c.LineTo(1, 1) },
		"rect":         func() error { return c.Rect(0, 0, 1, 1) },
		"circle":       func() error { return c.Circle(0, 0, 1) },
		"arc":          func() error { return c.Arc(0, 0, 1, 0, 1, canvas.Clockwise) },
		"preDraw":      func() error { return c.PreDraw(1, 0, 0, 1, 0, 0) },
		"postDraw":     func() error { return c.PostDraw() },
		"fillColor":    func() error { return c.FillColor(1, 0, 0, 1) },
		"strokeWidth":  func() error { return c.StrokeWidth(3) },
		"renderFill":   func() error { return c.RenderFill() },
		"renderStroke": func() error { return c.RenderStroke() },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			if !errors.Is(err, canvas.ErrInvalidState) {
				t.Fatalf("err = %v, want ErrInvalidState", err)
			}
			var se *canvas.StateError
			if !errors.As(err, &se) || se.Op != name {
				t.Errorf("StateError op = %v", err)
			}
		})
	}
	if n := len(rec.CallsOf(recorder.CallFill)) + len(rec.CallsOf(recorder.CallStroke)); n != 0 {
		t.Errorf("backend received %d draw calls outside a frame", n)
	}
}

func TestLenientModeDropsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c, rec := newCanvas(t, canvas.WithStrict(false), canvas.WithLogger(logger))

	if c.Strict() {
		t.Fatal("expected lenient canvas")
	}
	mustNil(t, c.Rect(0, 0, 10, 10))
	mustNil(t, c.RenderFill())
	if !strings.Contains(buf.String(), "operation outside frame dropped") {
		t.Errorf("missing warning, log = %q", buf.String())
	}
	if len(rec.CallsOf(recorder.CallFill)) != 0 {
		t.Error("dropped fill reached the backend")
	}

	mustNil(t, c.BeginFrame())
	mustNil(t, c.PostDraw())
	mustNil(t, c.PreDraw(1, 0, 0, 1, 0, 0))
	mustNil(t, c.EndFrame())
	if !strings.Contains(buf.String(), "unbalanced draw scopes") {
		t.Errorf("missing scope warning, log = %q", buf.String())
	}

	// Lifecycle misuse is always an error.
	if err := c.EndFrame(); !errors.Is(err, canvas.ErrInvalidState) {
		t.Errorf("EndFrame while ready = %v", err)
	}
}

// The red rectangle scenario: a translated 20x10 fill shows up in device
// space at (50, 25)-(70, 35) and nothing else is drawn.
func TestTranslatedRectFill(t *testing.T) {
	c, rec := newCanvas(t)

	mustNil(t, c.BeginFrame())
	mustNil(t, c.PreDraw(1, 0, 0, 1, 50, 25))
	mustNil(t, c.Rect(0, 0, 20, 10))
	mustNil(t, c.FillColor(1, 0, 0, 1))
	mustNil(t, c.RenderFill())
	mustNil(t, c.PostDraw())
	mustNil(t, c.EndFrame())

	fills := rec.CallsOf(recorder.CallFill)
	if len(fills) != 1 {
		t.Fatalf("fill calls = %d", len(fills))
	}
	f := fills[0]
	if f.Fill.Color != canvas.RGBA(1, 0, 0, 1) || f.Fill.Rule != canvas.FillRuleNonZero {
		t.Errorf("fill style = %+v", f.Fill)
	}
	r, ok := canvas.Bounds(f.Path)
	if !ok || r != (canvas.Rect{MinX: 50, MinY: 25, MaxX: 70, MaxY: 35}) {
		t.Errorf("bounds = %+v", r)
	}
	if got := recorder.Coverage(f.Path, 100, 100); math.Abs(got-200) > 1 {
		t.Errorf("coverage = %v, want 200", got)
	}
	mask := recorder.Mask(f.Path, 100, 100)
	if mask.AlphaAt(60, 30).A != 255 || mask.AlphaAt(5, 5).A != 0 {
		t.Error("mask does not match the translated rectangle")
	}
	if len(rec.CallsOf(recorder.CallStroke)) != 0 {
		t.Error("unexpected stroke")
	}
}

func TestEmptyPathResolutionIsNoop(t *testing.T) {
	c, rec := newCanvas(t)
	mustNil(t, c.BeginFrame())
	mustNil(t, c.RenderFill())
	mustNil(t, c.MoveTo(5, 5))
	mustNil(t, c.ClosePath())
	mustNil(t, c.RenderStroke())
	mustNil(t, c.EndFrame())

	if n := len(rec.CallsOf(recorder.CallFill)) + len(rec.CallsOf(recorder.CallStroke)); n != 0 {
		t.Errorf("empty path produced %d draw calls", n)
	}
}

func TestFillKeepsPath(t *testing.T) {
	c, rec := newCanvas(t)
	mustNil(t, c.BeginFrame())
	mustNil(t, c.Rect(0, 0, 10, 10))
	mustNil(t, c.RenderFill())
	mustNil(t, c.RenderStroke())
	if c.Path().Len() == 0 {
		t.Error("resolution cleared the path")
	}
	mustNil(t, c.ClearPath())
	mustNil(t, c.RenderFill())
	mustNil(t, c.EndFrame())

	if len(rec.CallsOf(recorder.CallFill)) != 1 || len(rec.CallsOf(recorder.CallStroke)) != 1 {
		t.Errorf("calls = %v", rec.Kinds())
	}
}

func TestBeginFrameResetsState(t *testing.T) {
	c, _ := newCanvas(t)
	mustNil(t, c.BeginFrame())
	mustNil(t, c.PreDraw(2, 0, 0, 2, 0, 0))
	mustNil(t, c.FillColor(0, 1, 0, 1))
	mustNil(t, c.Rect(0, 0, 1, 1))
	mustNil(t, c.PostDraw())
	mustNil(t, c.EndFrame())

	mustNil(t, c.BeginFrame())
	defer func() { _ = c.EndFrame() }()
	if c.Path().Len() != 0 {
		t.Error("path survived the frame")
	}
	if c.Paint() != canvas.DefaultPaint() {
		t.Errorf("paint = %+v", c.Paint())
	}
	if !c.Transform().IsIdentity() || c.Depth() != 0 {
		t.Error("transform state survived the frame")
	}
}

func TestPreDrawPostDrawRestore(t *testing.T) {
	c, _ := newCanvas(t)
	mustNil(t, c.BeginFrame())
	defer func() { _ = c.EndFrame() }()

	mustNil(t, c.StrokeWidth(4))
	mustNil(t, c.LineJoin(canvas.LineJoinBevel))
	before := c.Paint()

	mustNil(t, c.PreDraw(2, 0, 0, 2, 10, 10))
	if c.Depth() != 1 {
		t.Fatalf("depth = %d", c.Depth())
	}
	p := c.Paint()
	if p.LineCap != canvas.LineCapButt || p.LineJoin != canvas.LineJoinRound {
		t.Errorf("scope style = %v/%v, want butt/round", p.LineCap, p.LineJoin)
	}
	mustNil(t, c.StrokeColor(1, 0, 0, 1))
	mustNil(t, c.PreDraw(1, 0, 0, 1, 5, 0))
	x, y := c.Transform().TransformPoint(0, 0)
	if x != 20 || y != 10 {
		t.Errorf("nested origin = (%v, %v), want (20, 10)", x, y)
	}

	mustNil(t, c.PostDraw())
	mustNil(t, c.PostDraw())
	if c.Depth() != 0 || !c.Transform().IsIdentity() {
		t.Error("transform not restored")
	}
	if c.Paint() != before {
		t.Errorf("paint = %+v, want %+v", c.Paint(), before)
	}

	err := c.PostDraw()
	if !errors.Is(err, canvas.ErrUnbalancedScope) {
		t.Errorf("extra PostDraw = %v, want ErrUnbalancedScope", err)
	}
}

func TestEndFrameWithOpenScopes(t *testing.T) {
	c, rec := newCanvas(t)
	mustNil(t, c.BeginFrame())
	mustNil(t, c.PreDraw(1, 0, 0, 1, 0, 0))
	mustNil(t, c.PreDraw(1, 0, 0, 1, 0, 0))

	err := c.EndFrame()
	var se *canvas.ScopeError
	if !errors.As(err, &se) || se.Depth != 2 {
		t.Fatalf("EndFrame = %v, want ScopeError with depth 2", err)
	}
	if c.State() != canvas.StateReady || c.Depth() != 0 {
		t.Error("frame not closed after scope error")
	}
	if len(rec.CallsOf(recorder.CallEndFrame)) != 1 {
		t.Error("frame was not flushed")
	}
}

func TestStrokeWidthScales(t *testing.T) {
	tests := []struct {
		name  string
		m     canvas.Matrix
		width float64
		want  float64
	}{
		{"identity", canvas.Identity(), 3, 3},
		{"uniform", canvas.Scale(2, 2), 3, 6},
		{"anisotropic", canvas.Scale(1, 3), 1, 2},
		{"clamped", canvas.Scale(10, 10), 50, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newCanvas(t)
			mustNil(t, c.BeginFrame())
			mustNil(t, c.Draw(tt.m, func() error {
				mustNil(t, c.StrokeWidth(tt.width))
				mustNil(t, c.MoveTo(0, 0))
				mustNil(t, c.LineTo(1, 1))
				return c.RenderStroke()
			}))
			mustNil(t, c.EndFrame())

			strokes := rec.CallsOf(recorder.CallStroke)
			if len(strokes) != 1 {
				t.Fatalf("stroke calls = %d", len(strokes))
			}
			if got := strokes[0].Stroke.Width; math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("width = %v, want %v", got, tt.want)
			}
			if strokes[0].Stroke.Cap != canvas.LineCapButt || strokes[0].Stroke.Join != canvas.LineJoinRound {
				t.Errorf("stroke style = %+v", strokes[0].Stroke)
			}
		})
	}
}

func TestInvalidStyles(t *testing.T) {
	c, _ := newCanvas(t)
	mustNil(t, c.BeginFrame())
	defer func() { _ = c.EndFrame() }()
	if err := c.LineCap(canvas.LineCap(9)); err == nil {
		t.Error("invalid cap accepted")
	}
	if err := c.LineJoin(canvas.LineJoin(9)); err == nil {
		t.Error("invalid join accepted")
	}
	mustNil(t, c.StrokeWidth(-4))
	mustNil(t, c.MiterLimit(math.NaN()))
	p := c.Paint()
	if p.StrokeWidth != 0 || p.MiterLimit != 0 {
		t.Errorf("paint = %+v", p)
	}
}

func TestDrawFailureFromBackend(t *testing.T) {
	c, rec := newCanvas(t)
	boom := errors.New("device lost")
	rec.FailDraw = boom
	mustNil(t, c.BeginFrame())
	mustNil(t, c.Rect(0, 0, 5, 5))
	if err := c.RenderFill(); !errors.Is(err, boom) {
		t.Errorf("RenderFill = %v", err)
	}
	mustNil(t, c.EndFrame())
}

func TestDestroyClosesOnlyContext(t *testing.T) {
	c, rec := newCanvas(t)
	rec.FailClose = errors.New("close failed")
	if err := c.DestroyGraphicsResources(); err == nil {
		t.Error("close error not reported")
	}
	if c.State() != canvas.StateDestroyed || rec.OpenContexts() != 0 {
		t.Error("context not released on close error")
	}
}
