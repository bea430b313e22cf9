package canvas

import "fmt"

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// SegmentKind identifies a path command.
type SegmentKind int

const (
	// SegmentMoveTo starts a new sub-path at Points[0].
	SegmentMoveTo SegmentKind = iota
	// SegmentLineTo draws a line to Points[0].
	SegmentLineTo
	// SegmentQuadTo draws a quadratic curve with control Points[0] to Points[1].
	SegmentQuadTo
	// SegmentCubicTo draws a cubic curve with controls Points[0], Points[1] to Points[2].
	SegmentCubicTo
	// SegmentClose closes the current sub-path.
	SegmentClose
)

// String returns the command name.
func (k SegmentKind) String() string {
	switch k {
	case SegmentMoveTo:
		return "move"
	case SegmentLineTo:
		return "line"
	case SegmentQuadTo:
		return "quad"
	case SegmentCubicTo:
		return "cubic"
	case SegmentClose:
		return "close"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// Segment is one path command. Only the leading points the kind needs are set.
type Segment struct {
	Kind   SegmentKind
	Points [3]Point
}

// End returns the point the segment finishes on. Close has no end point of
// its own and returns the zero Point.
func (s Segment) End() Point {
	switch s.Kind {
	case SegmentMoveTo, SegmentLineTo:
		return s.Points[0]
	case SegmentQuadTo:
		return s.Points[1]
	case SegmentCubicTo:
		return s.Points[2]
	default:
		return Point{}
	}
}

// Path is a sequence of device-space segments. The zero value is an empty
// path ready to use.
type Path struct {
	segments []Segment
	start    Point
	current  Point
	hasPoint bool
}

// Segments returns the path commands. The slice must not be modified.
func (p *Path) Segments() []Segment {
	return p.segments
}

// Len returns the number of segments.
func (p *Path) Len() int {
	return len(p.segments)
}

// IsEmpty reports whether the path has no drawable segment. A path made
// only of MoveTo and Close commands encloses nothing and strokes nothing.
func (p *Path) IsEmpty() bool {
	for _, s := range p.segments {
		if s.Kind != SegmentMoveTo && s.Kind != SegmentClose {
			return false
		}
	}
	return true
}

// CurrentPoint returns the last point of the path.
func (p *Path) CurrentPoint() (Point, bool) {
	return p.current, p.hasPoint
}

// Clone returns an independent copy.
func (p *Path) Clone() *Path {
	c := *p
	c.segments = append([]Segment(nil), p.segments...)
	return &c
}

// Reset empties the path, keeping its storage.
func (p *Path) Reset() {
	p.segments = p.segments[:0]
	p.hasPoint = false
	p.start = Point{}
	p.current = Point{}
}

// MoveTo starts a new sub-path.
func (p *Path) MoveTo(pt Point) {
	p.segments = append(p.segments, Segment{Kind: SegmentMoveTo, Points: [3]Point{pt}})
	p.start = pt
	p.current = pt
	p.hasPoint = true
}

// LineTo appends a line. Without a current point it acts as MoveTo.
func (p *Path) LineTo(pt Point) {
	if !p.hasPoint {
		p.MoveTo(pt)
		return
	}
	p.segments = append(p.segments, Segment{Kind: SegmentLineTo, Points: [3]Point{pt}})
	p.current = pt
}

// QuadTo appends a quadratic curve. Without a current point it acts as MoveTo(end).
func (p *Path) QuadTo(ctrl, end Point) {
	if !p.hasPoint {
		p.MoveTo(end)
		return
	}
	p.segments = append(p.segments, Segment{Kind: SegmentQuadTo, Points: [3]Point{ctrl, end}})
	p.current = end
}

// CubicTo appends a cubic curve. Without a current point it acts as MoveTo(end).
func (p *Path) CubicTo(c1, c2, end Point) {
	if !p.hasPoint {
		p.MoveTo(end)
		return
	}
	p.segments = append(p.segments, Segment{Kind: SegmentCubicTo, Points: [3]Point{c1, c2, end}})
	p.current = end
}

// Close closes the current sub-path; the current point returns to its start.
func (p *Path) Close() {
	if !p.hasPoint {
		return
	}
	if n := len(p.segments); n > 0 && p.segments[n-1].Kind == SegmentClose {
		return
	}
	p.segments = append(p.segments, Segment{Kind: SegmentClose})
	p.current = p.start
}
