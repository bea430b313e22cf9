package canvas

import (
	"fmt"
	"image/color"
	"strings"
)

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// RGBA returns a color with every component clamped to [0, 1].
func RGBA(r, g, b, a float64) Color {
	return Color{R: clamp01(r), G: clamp01(g), B: clamp01(b), A: clamp01(a)}
}

// NRGBA converts the color to 8-bit straight alpha.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: clampToByte(c.R),
		G: clampToByte(c.G),
		B: clampToByte(c.B),
		A: clampToByte(c.A),
	}
}

// Premultiplied returns the color with R, G and B scaled by alpha.
func (c Color) Premultiplied() Color {
	return Color{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

var (
	// Black is opaque black, the default stroke color.
	Black = Color{A: 1}
	// White is opaque white, the default fill color.
	White = Color{R: 1, G: 1, B: 1, A: 1}
)

// LineCap represents the style of line end points.
type LineCap int

const (
	// LineCapButt ends the line at the exact endpoint.
	LineCapButt LineCap = iota
	// LineCapRound ends the line with a semicircular cap.
	LineCapRound
	// LineCapSquare ends the line with a square cap extending past the endpoint.
	LineCapSquare
)

// String returns the lower-case name of the cap.
func (lc LineCap) String() string {
	switch lc {
	case LineCapButt:
		return "butt"
	case LineCapRound:
		return "round"
	case LineCapSquare:
		return "square"
	default:
		return fmt.Sprintf("LineCap(%d)", int(lc))
	}
}

// ParseLineCap parses "butt", "round" or "square".
func ParseLineCap(s string) (LineCap, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "butt":
		return LineCapButt, nil
	case "round":
		return LineCapRound, nil
	case "square":
		return LineCapSquare, nil
	default:
		return LineCapButt, fmt.Errorf("unknown line cap %q", s)
	}
}

// Valid reports whether lc is one of the defined caps.
func (lc LineCap) Valid() bool {
	return lc >= LineCapButt && lc <= LineCapSquare
}

// LineJoin represents the style of line corners.
type LineJoin int

const (
	// LineJoinMiter creates a sharp corner.
	LineJoinMiter LineJoin = iota
	// LineJoinRound creates a rounded corner.
	LineJoinRound
	// LineJoinBevel creates a beveled corner.
	LineJoinBevel
)

// String returns the lower-case name of the join.
func (lj LineJoin) String() string {
	switch lj {
	case LineJoinMiter:
		return "miter"
	case LineJoinRound:
		return "round"
	case LineJoinBevel:
		return "bevel"
	default:
		return fmt.Sprintf("LineJoin(%d)", int(lj))
	}
}

// ParseLineJoin parses "miter", "round" or "bevel".
func ParseLineJoin(s string) (LineJoin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "miter":
		return LineJoinMiter, nil
	case "round":
		return LineJoinRound, nil
	case "bevel":
		return LineJoinBevel, nil
	default:
		return LineJoinMiter, fmt.Errorf("unknown line join %q", s)
	}
}

// Valid reports whether lj is one of the defined joins.
func (lj LineJoin) Valid() bool {
	return lj >= LineJoinMiter && lj <= LineJoinBevel
}

// Winding selects the sweep direction of Arc.
type Winding int

const (
	// CounterClockwise sweeps towards decreasing angles.
	CounterClockwise Winding = 1
	// Clockwise sweeps towards increasing angles (clockwise on a y-down screen).
	Clockwise Winding = 2
)

// String returns "cw" or "ccw".
func (w Winding) String() string {
	switch w {
	case Clockwise:
		return "cw"
	case CounterClockwise:
		return "ccw"
	default:
		return fmt.Sprintf("Winding(%d)", int(w))
	}
}

// FillRule selects how a backend decides which points are inside a path.
type FillRule int

const (
	// FillRuleNonZero is the non-zero winding rule. The canvas always fills with it.
	FillRuleNonZero FillRule = iota
	// FillRuleEvenOdd is the even-odd rule.
	FillRuleEvenOdd
)

// PaintState is the paint attribute set shared by every resolution.
type PaintState struct {
	StrokeWidth float64
	StrokeColor Color
	FillColor   Color
	LineCap     LineCap
	LineJoin    LineJoin
	MiterLimit  float64
}

// DefaultPaint returns the paint state at the start of every frame.
func DefaultPaint() PaintState {
	return PaintState{
		StrokeWidth: 1,
		StrokeColor: Black,
		FillColor:   White,
		LineCap:     LineCapButt,
		LineJoin:    LineJoinMiter,
		MiterLimit:  10,
	}
}

// FillStyle is what a backend receives for a fill resolution.
type FillStyle struct {
	Color Color
	Rule  FillRule
}

// StrokeStyle is what a backend receives for a stroke resolution. Width is
// already in device pixels.
type StrokeStyle struct {
	Color      Color
	Width      float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
}

func clamp01(v float64) float64 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return v
}

// clampToByte converts a float64 value (0.0-1.0) to a byte (0-255).
func clampToByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
