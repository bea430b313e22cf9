package canvas

import "math"

// Polygon is a closed, flattened sub-path.
type Polygon []Point

// Flatten converts the path into polygons by subdividing curves until the
// chord error is roughly below tolerance. Every sub-path is treated as
// closed, which is how fills see it.
func Flatten(p *Path, tolerance float64) []Polygon {
	if tolerance <= 0 {
		tolerance = 0.25
	}
	var polys []Polygon
	var cur Polygon
	var pen Point

	flush := func() {
		if len(cur) > 1 {
			polys = append(polys, cur)
		}
		cur = nil
	}

	for _, s := range p.Segments() {
		switch s.Kind {
		case SegmentMoveTo:
			flush()
			pen = s.Points[0]
			cur = Polygon{pen}
		case SegmentLineTo:
			pen = s.Points[0]
			cur = append(cur, pen)
		case SegmentQuadTo:
			p0, p1, p2 := pen, s.Points[0], s.Points[1]
			n := curveSteps(tolerance, p0, p1, p2)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				mt := 1 - t
				cur = append(cur, Point{
					X: mt*mt*p0.X + 2*mt*t*p1.X + t*t*p2.X,
					Y: mt*mt*p0.Y + 2*mt*t*p1.Y + t*t*p2.Y,
				})
			}
			pen = p2
		case SegmentCubicTo:
			p0, p1, p2, p3 := pen, s.Points[0], s.Points[1], s.Points[2]
			n := curveSteps(tolerance, p0, p1, p2, p3)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				mt := 1 - t
				a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
				cur = append(cur, Point{
					X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
					Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
				})
			}
			pen = p3
		case SegmentClose:
			if len(cur) > 0 {
				pen = cur[0]
			}
			flush()
			cur = Polygon{pen}
		}
	}
	flush()
	return polys
}

// maxCurveSteps bounds the subdivision of a single curve segment.
const maxCurveSteps = 256

// curveSteps picks a subdivision count from the control polygon length.
func curveSteps(tolerance float64, pts ...Point) int {
	var length float64
	for i := 1; i < len(pts); i++ {
		length += math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	// Clamp before converting: a huge or NaN length does not fit an int.
	n := math.Ceil(math.Sqrt(length / tolerance))
	if !(n < maxCurveSteps) {
		return maxCurveSteps
	}
	return max(1, int(n))
}

// SignedArea returns the shoelace area of the polygon. It is positive when
// the polygon runs clockwise on a y-down screen.
func (poly Polygon) SignedArea() float64 {
	var sum float64
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return sum / 2
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns MaxX - MinX.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns MaxY - MinY.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Bounds returns the bounding box of every point of the path, control
// points included. ok is false for a path without points.
func Bounds(p *Path) (r Rect, ok bool) {
	r = Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, s := range p.Segments() {
		var n int
		switch s.Kind {
		case SegmentMoveTo, SegmentLineTo:
			n = 1
		case SegmentQuadTo:
			n = 2
		case SegmentCubicTo:
			n = 3
		}
		for _, pt := range s.Points[:n] {
			r.MinX = math.Min(r.MinX, pt.X)
			r.MinY = math.Min(r.MinY, pt.Y)
			r.MaxX = math.Max(r.MaxX, pt.X)
			r.MaxY = math.Max(r.MaxY, pt.Y)
			ok = true
		}
	}
	if !ok {
		return Rect{}, false
	}
	return r, true
}
