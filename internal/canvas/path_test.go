package canvas

import (
	"math"
	"testing"
)

func TestPathImplicitMove(t *testing.T) {
	var p Path
	p.LineTo(Point{X: 1, Y: 2})
	segs := p.Segments()
	if len(segs) != 1 || segs[0].Kind != SegmentMoveTo {
		t.Fatalf("LineTo on empty path should move, got %v", segs)
	}
	if cur, ok := p.CurrentPoint(); !ok || cur != (Point{X: 1, Y: 2}) {
		t.Errorf("CurrentPoint = %v, %v", cur, ok)
	}
}

func TestPathIsEmpty(t *testing.T) {
	var p Path
	if !p.IsEmpty() {
		t.Error("zero path should be empty")
	}
	p.MoveTo(Point{X: 1, Y: 1})
	p.Close()
	p.MoveTo(Point{X: 5, Y: 5})
	if !p.IsEmpty() {
		t.Error("moves and closes only should be empty")
	}
	p.LineTo(Point{X: 6, Y: 6})
	if p.IsEmpty() {
		t.Error("path with a line should not be empty")
	}
}

func TestPathClose(t *testing.T) {
	var p Path
	p.Close()
	if p.Len() != 0 {
		t.Error("close without a point should be ignored")
	}
	p.MoveTo(Point{X: 1, Y: 1})
	p.LineTo(Point{X: 4, Y: 1})
	p.Close()
	p.Close()
	if p.Len() != 3 {
		t.Errorf("duplicate close recorded, len = %d", p.Len())
	}
	if cur, _ := p.CurrentPoint(); cur != (Point{X: 1, Y: 1}) {
		t.Errorf("current point after close = %v, want start", cur)
	}
}

func TestPathCloneIndependent(t *testing.T) {
	var p Path
	p.MoveTo(Point{})
	p.LineTo(Point{X: 1})
	c := p.Clone()
	p.LineTo(Point{X: 2})
	if c.Len() != 2 {
		t.Errorf("clone changed with original, len = %d", c.Len())
	}
}

func TestPathReset(t *testing.T) {
	var p Path
	p.MoveTo(Point{X: 3, Y: 3})
	p.Reset()
	if p.Len() != 0 {
		t.Error("Reset left segments")
	}
	if _, ok := p.CurrentPoint(); ok {
		t.Error("Reset left a current point")
	}
}

func TestSegmentEnd(t *testing.T) {
	tests := []struct {
		seg  Segment
		want Point
	}{
		{Segment{Kind: SegmentMoveTo, Points: [3]Point{{X: 1}}}, Point{X: 1}},
		{Segment{Kind: SegmentQuadTo, Points: [3]Point{{X: 1}, {X: 2}}}, Point{X: 2}},
		{Segment{Kind: SegmentCubicTo, Points: [3]Point{{X: 1}, {X: 2}, {X: 3}}}, Point{X: 3}},
		{Segment{Kind: SegmentClose}, Point{}},
	}
	for _, tt := range tests {
		t.Run(tt.seg.Kind.String(), func(t *testing.T) {
			if got := tt.seg.End(); got != tt.want {
				t.Errorf("End() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlattenSquareArea(t *testing.T) {
	var p Path
	p.MoveTo(Point{X: 0, Y: 0})
	p.LineTo(Point{X: 10, Y: 0})
	p.LineTo(Point{X: 10, Y: 10})
	p.LineTo(Point{X: 0, Y: 10})
	p.Close()

	polys := Flatten(&p, 0.1)
	if len(polys) != 1 {
		t.Fatalf("got %d polygons, want 1", len(polys))
	}
	if a := polys[0].SignedArea(); !near(a, 100, eps) {
		t.Errorf("area = %v, want 100", a)
	}
}

func TestFlattenLineAfterClose(t *testing.T) {
	var p Path
	p.MoveTo(Point{X: 0, Y: 0})
	p.LineTo(Point{X: 4, Y: 0})
	p.LineTo(Point{X: 4, Y: 4})
	p.Close()
	p.LineTo(Point{X: 0, Y: 4})
	p.LineTo(Point{X: -4, Y: 4})

	polys := Flatten(&p, 0.1)
	if len(polys) != 2 {
		t.Fatalf("got %d polygons, want 2", len(polys))
	}
	if polys[1][0] != (Point{}) {
		t.Errorf("second polygon starts at %v, want the closed start point", polys[1][0])
	}
}

func TestBounds(t *testing.T) {
	var p Path
	if _, ok := Bounds(&p); ok {
		t.Error("empty path has bounds")
	}
	p.MoveTo(Point{X: -1, Y: 2})
	p.CubicTo(Point{X: 5, Y: -3}, Point{X: 0, Y: 0}, Point{X: 2, Y: 8})
	r, ok := Bounds(&p)
	if !ok {
		t.Fatal("expected bounds")
	}
	want := Rect{MinX: -1, MinY: -3, MaxX: 5, MaxY: 8}
	if r != want {
		t.Errorf("Bounds = %+v, want %+v", r, want)
	}
	if r.Width() != 6 || r.Height() != 11 {
		t.Errorf("Width/Height = %v/%v", r.Width(), r.Height())
	}
}

func TestCurveStepsClamp(t *testing.T) {
	if n := curveSteps(0.25, Point{}, Point{}); n != 1 {
		t.Errorf("degenerate curve steps = %d, want 1", n)
	}
	tests := []struct {
		name string
		to   Point
	}{
		{"huge", Point{X: math.MaxFloat32}},
		{"overflowing int", Point{X: 1e300, Y: 1e300}},
		{"infinite", Point{X: math.Inf(1)}},
		{"nan", Point{X: math.NaN()}},
	}
	for _, tt := range tests {
		if n := curveSteps(1e-9, Point{}, tt.to); n != 256 {
			t.Errorf("%s curve steps = %d, want 256", tt.name, n)
		}
	}
}
