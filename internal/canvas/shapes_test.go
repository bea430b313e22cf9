package canvas_test

import (
	"errors"
	"math"
	"testing"

	"github.com/opd-ai/go-vgcanvas/internal/backend/recorder"
	"github.com/opd-ai/go-vgcanvas/internal/canvas"
)

// area returns the summed absolute polygon area of the canvas path.
func area(t *testing.T, p *canvas.Path) float64 {
	t.Helper()
	var sum float64
	for _, poly := range canvas.Flatten(p, 0.01) {
		sum += math.Abs(poly.SignedArea())
	}
	return sum
}

func inFrame(t *testing.T, opts ...canvas.Option) *canvas.VectorCanvas {
	t.Helper()
	c, _ := newCanvas(t, opts...)
	mustNil(t, c.BeginFrame())
	t.Cleanup(func() {
		if c.State() == canvas.StateInFrame {
			_ = c.EndFrame()
		}
	})
	return c
}

func TestPrimitiveAreas(t *testing.T) {
	tests := []struct {
		name string
		draw func(c *canvas.VectorCanvas) error
		want float64
		tol  float64
	}{
		{"rect", func(c *canvas.VectorCanvas) error { return c.Rect(10, 10, 30, 20) }, 600, 1e-9},
		{"circle", func(c *canvas.VectorCanvas) error { return c.Circle(50, 50, 10) }, math.Pi * 100, 0.5},
		{"ellipse", func(c *canvas.VectorCanvas) error { return c.Ellipse(50, 50, 20, 10) }, math.Pi * 200, 1},
		{"round rect", func(c *canvas.VectorCanvas) error { return c.RoundRect(0, 0, 40, 30, 5) }, 40*30 - (4-math.Pi)*25, 0.5},
		{"round rect tiny radius", func(c *canvas.VectorCanvas) error { return c.RoundRect(0, 0, 40, 30, 0.05) }, 1200, 1e-9},
		{"round rect clamped radius", func(c *canvas.VectorCanvas) error { return c.RoundRect(0, 0, 20, 20, 50) }, math.Pi * 100, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := inFrame(t)
			mustNil(t, tt.draw(c))
			if got := area(t, c.Path()); math.Abs(got-tt.want) > tt.tol {
				t.Errorf("area = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCircleCoverage(t *testing.T) {
	c := inFrame(t)
	mustNil(t, c.Circle(50, 50, 10))
	got := recorder.Coverage(c.Path(), 100, 100)
	if math.Abs(got-math.Pi*100) > math.Pi {
		t.Errorf("coverage = %v, want about %v", got, math.Pi*100)
	}
}

func TestPrimitivesAppendSubPaths(t *testing.T) {
	c := inFrame(t)
	mustNil(t, c.Rect(0, 0, 10, 10))
	mustNil(t, c.Rect(20, 0, 10, 10))
	if got := len(canvas.Flatten(c.Path(), 0.1)); got != 2 {
		t.Errorf("sub-paths = %d, want 2", got)
	}
	if got := area(t, c.Path()); math.Abs(got-200) > 1e-9 {
		t.Errorf("area = %v, want 200", got)
	}
}

func TestPrimitivesFollowTransform(t *testing.T) {
	c := inFrame(t)
	mustNil(t, c.Draw(canvas.Translate(30, 40).Multiply(canvas.Scale(2, 2)), func() error {
		return c.Rect(0, 0, 5, 5)
	}))
	r, ok := canvas.Bounds(c.Path())
	// Translate first, then scale.
	want := canvas.Rect{MinX: 60, MinY: 80, MaxX: 70, MaxY: 90}
	if !ok || r != want {
		t.Errorf("bounds = %+v, want %+v", r, want)
	}
}

func TestArcQuarter(t *testing.T) {
	c := inFrame(t)
	mustNil(t, c.Arc(0, 0, 10, 0, math.Pi/2, canvas.Clockwise))
	segs := c.Path().Segments()
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want move + one cubic", len(segs))
	}
	if segs[0].Kind != canvas.SegmentMoveTo || segs[1].Kind != canvas.SegmentCubicTo {
		t.Fatalf("kinds = %v, %v", segs[0].Kind, segs[1].Kind)
	}
	start, end := segs[0].End(), segs[1].End()
	if !closeTo(start, canvas.Point{X: 10}) || !closeTo(end, canvas.Point{Y: 10}) {
		t.Errorf("arc from %v to %v", start, end)
	}
	// Clockwise on a y-down screen passes through positive x and y.
	mid := segs[1].Points[0]
	if mid.X <= 0 || mid.Y <= 0 {
		t.Errorf("first control point %v is not in the swept quadrant", mid)
	}
}

func TestArcDirections(t *testing.T) {
	a0, a1 := 0.3, 2.0
	cw := canvas.ArcSweep(a0, a1, canvas.Clockwise)
	ccw := canvas.ArcSweep(a0, a1, canvas.CounterClockwise)
	if cw <= 0 || ccw >= 0 {
		t.Fatalf("sweeps cw=%v ccw=%v", cw, ccw)
	}
	if math.Abs(cw-ccw-2*math.Pi) > 1e-9 {
		t.Errorf("|cw| + |ccw| = %v, want 2π", cw-ccw)
	}
	if math.Abs(canvas.ArcSweep(0, 10, canvas.Clockwise)-2*math.Pi) > 1e-9 {
		t.Error("full turn not clamped")
	}
	if canvas.ArcSweep(1, 1, canvas.Clockwise) != 0 {
		t.Error("equal angles should not sweep")
	}
}

func TestArcMirror(t *testing.T) {
	// A clockwise arc reflected across the x axis is the counter-clockwise
	// arc between the negated angles.
	a0, a1 := 0.2, 1.7
	c1 := inFrame(t)
	mustNil(t, c1.Arc(0, 0, 10, a0, a1, canvas.Clockwise))
	c2 := inFrame(t)
	mustNil(t, c2.Arc(0, 0, 10, -a0, -a1, canvas.CounterClockwise))

	s1, s2 := c1.Path().Segments(), c2.Path().Segments()
	if len(s1) != len(s2) {
		t.Fatalf("segment counts differ: %d vs %d", len(s1), len(s2))
	}
	for i := range s1 {
		for j := range s1[i].Points {
			p, q := s1[i].Points[j], s2[i].Points[j]
			if !closeTo(p, canvas.Point{X: q.X, Y: -q.Y}) {
				t.Errorf("segment %d point %d: %v is not the mirror of %v", i, j, p, q)
			}
		}
	}
}

func TestArcEndpointsAgree(t *testing.T) {
	a0, a1 := 0.5, 2.5
	for _, dir := range []canvas.Winding{canvas.Clockwise, canvas.CounterClockwise} {
		c := inFrame(t)
		mustNil(t, c.Arc(10, 10, 5, a0, a1, dir))
		segs := c.Path().Segments()
		start := segs[0].End()
		end := segs[len(segs)-1].End()
		if !closeTo(start, canvas.Point{X: 10 + 5*math.Cos(a0), Y: 10 + 5*math.Sin(a0)}) {
			t.Errorf("%v start = %v", dir, start)
		}
		if !closeTo(end, canvas.Point{X: 10 + 5*math.Cos(a1), Y: 10 + 5*math.Sin(a1)}) {
			t.Errorf("%v end = %v", dir, end)
		}
	}
}

func TestArcFullCircleArea(t *testing.T) {
	c := inFrame(t)
	mustNil(t, c.Arc(0, 0, 10, 0, 2*math.Pi, canvas.Clockwise))
	mustNil(t, c.ClosePath())
	if got := area(t, c.Path()); math.Abs(got-math.Pi*100) > 0.5 {
		t.Errorf("area = %v", got)
	}
	if n := c.Path().Len(); n != 6 {
		t.Errorf("segments = %d, want move + 4 cubics + close", n)
	}
}

func TestArcStartsNewSubPath(t *testing.T) {
	c := inFrame(t)
	mustNil(t, c.MoveTo(0, 0))
	mustNil(t, c.LineTo(5, 0))
	mustNil(t, c.Arc(20, 20, 5, 0, 1, canvas.Clockwise))
	segs := c.Path().Segments()
	if segs[2].Kind != canvas.SegmentMoveTo {
		t.Errorf("arc began with %v, want move", segs[2].Kind)
	}
}

func TestArcToRoundsCorner(t *testing.T) {
	c := inFrame(t)
	mustNil(t, c.MoveTo(0, 0))
	mustNil(t, c.ArcTo(10, 0, 10, 10, 2))
	segs := c.Path().Segments()
	if len(segs) < 3 {
		t.Fatalf("segments = %v", segs)
	}
	if segs[1].Kind != canvas.SegmentLineTo || !closeTo(segs[1].End(), canvas.Point{X: 8}) {
		t.Errorf("join line = %v to %v", segs[1].Kind, segs[1].End())
	}
	end := segs[len(segs)-1].End()
	if !closeTo(end, canvas.Point{X: 10, Y: 2}) {
		t.Errorf("arc ends at %v, want (10, 2)", end)
	}
}

func TestArcToDegenerate(t *testing.T) {
	tests := []struct {
		name              string
		x1, y1, x2, y2, r float64
	}{
		{"collinear", 10, 0, 20, 0, 2},
		{"coincident", 0, 0, 10, 10, 2},
		{"zero radius", 10, 0, 10, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := inFrame(t)
			mustNil(t, c.MoveTo(0, 0))
			mustNil(t, c.ArcTo(tt.x1, tt.y1, tt.x2, tt.y2, tt.r))
			segs := c.Path().Segments()
			last := segs[len(segs)-1]
			if last.Kind != canvas.SegmentLineTo || !closeTo(last.End(), canvas.Point{X: tt.x1, Y: tt.y1}) {
				t.Errorf("last segment = %v to %v", last.Kind, last.End())
			}
		})
	}
}

func TestArcToWithoutCurrentPoint(t *testing.T) {
	c := inFrame(t)
	mustNil(t, c.ArcTo(10, 0, 10, 10, 2))
	if c.Path().Len() != 0 {
		t.Error("ArcTo without a current point added segments")
	}
}

func TestArcToUnderTransform(t *testing.T) {
	c := inFrame(t)
	mustNil(t, c.Draw(canvas.Scale(2, 2), func() error {
		if err := c.MoveTo(0, 0); err != nil {
			return err
		}
		return c.ArcTo(10, 0, 10, 10, 2)
	}))
	segs := c.Path().Segments()
	if !closeTo(segs[1].End(), canvas.Point{X: 16}) {
		t.Errorf("join line ends at %v, want (16, 0)", segs[1].End())
	}
}

func TestDrawRestoresDepth(t *testing.T) {
	c := inFrame(t)
	mustNil(t, c.PreDraw(1, 0, 0, 1, 1, 1))

	err := c.Draw(canvas.Translate(5, 5), func() error {
		// Left open on purpose.
		return c.PreDraw(1, 0, 0, 1, 2, 2)
	})
	mustNil(t, err)
	if c.Depth() != 1 {
		t.Errorf("depth after Draw = %d, want 1", c.Depth())
	}
	x, y := c.Transform().TransformPoint(0, 0)
	if x != 1 || y != 1 {
		t.Errorf("transform = (%v, %v), want (1, 1)", x, y)
	}
}

func TestDrawPropagatesError(t *testing.T) {
	c := inFrame(t)
	boom := errors.New("boom")
	if err := c.Draw(canvas.Identity(), func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Draw = %v", err)
	}
	if c.Depth() != 0 {
		t.Errorf("depth = %d", c.Depth())
	}
}

func TestDrawRestoresOnPanic(t *testing.T) {
	c := inFrame(t)
	func() {
		defer func() { _ = recover() }()
		_ = c.Draw(canvas.Scale(3, 3), func() error { panic("script died") })
	}()
	if c.Depth() != 0 || !c.Transform().IsIdentity() {
		t.Error("panic left the scope open")
	}
}

func TestDrawOverPopped(t *testing.T) {
	c := inFrame(t)
	err := c.Draw(canvas.Identity(), func() error { return c.PostDraw() })
	if !errors.Is(err, canvas.ErrUnbalancedScope) {
		t.Errorf("Draw = %v, want ErrUnbalancedScope", err)
	}
}

func TestDrawOutsideFrame(t *testing.T) {
	c, _ := newCanvas(t)
	called := false
	err := c.Draw(canvas.Identity(), func() error { called = true; return nil })
	if !errors.Is(err, canvas.ErrInvalidState) || called {
		t.Errorf("Draw outside frame = %v, called = %v", err, called)
	}
}

func TestFrame(t *testing.T) {
	c, rec := newCanvas(t)
	boom := errors.New("boom")
	err := c.Frame(func() error {
		if err := c.Rect(0, 0, 4, 4); err != nil {
			return err
		}
		if err := c.RenderFill(); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Frame = %v", err)
	}
	if c.State() != canvas.StateReady {
		t.Errorf("state = %v, want ready", c.State())
	}
	if len(rec.CallsOf(recorder.CallEndFrame)) != 1 {
		t.Error("frame not ended")
	}
}

func TestFrameEndsOnPanic(t *testing.T) {
	c, rec := newCanvas(t)
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("panic swallowed")
			}
		}()
		_ = c.Frame(func() error { panic("script died") })
	}()
	if c.State() != canvas.StateReady {
		t.Errorf("state = %v, want ready", c.State())
	}
	if len(rec.CallsOf(recorder.CallEndFrame)) != 1 {
		t.Error("frame not ended")
	}
	mustNil(t, c.BeginFrame())
	mustNil(t, c.EndFrame())
}

func closeTo(a, b canvas.Point) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}
