package canvas

import "math"

// Matrix is a 2D affine transform.
//
//	| xx  xy |   | x |   | x0 |
//	| yx  yy | * | y | + | y0 |
//
// The six-value form (a, b, c, d, e, f) used by PreDraw maps to
// XX=a, YX=b, XY=c, YY=d, X0=e, Y0=f.
type Matrix struct {
	XX, YX float64
	XY, YY float64
	X0, Y0 float64
}

// NewMatrix builds a matrix from the six-value form (a, b, c, d, e, f).
func NewMatrix(a, b, c, d, e, f float64) Matrix {
	return Matrix{XX: a, YX: b, XY: c, YY: d, X0: e, Y0: f}
}

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{XX: 1, YY: 1}
}

// Translate returns a translation by (tx, ty).
func Translate(tx, ty float64) Matrix {
	return Matrix{XX: 1, YY: 1, X0: tx, Y0: ty}
}

// Scale returns a scale by (sx, sy).
func Scale(sx, sy float64) Matrix {
	return Matrix{XX: sx, YY: sy}
}

// Rotate returns a rotation by angle radians. With y pointing down the
// rotation is clockwise on screen.
func Rotate(angle float64) Matrix {
	c := math.Cos(angle)
	s := math.Sin(angle)
	return Matrix{XX: c, YX: s, XY: -s, YY: c}
}

// Values returns the matrix in the six-value form (a, b, c, d, e, f).
func (m Matrix) Values() (a, b, c, d, e, f float64) {
	return m.XX, m.YX, m.XY, m.YY, m.X0, m.Y0
}

// Multiply returns the transform that applies m first, then other:
//
//	result(p) = other(m(p))
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		XX: other.XX*m.XX + other.XY*m.YX,
		XY: other.XX*m.XY + other.XY*m.YY,
		YX: other.YX*m.XX + other.YY*m.YX,
		YY: other.YX*m.XY + other.YY*m.YY,
		X0: other.XX*m.X0 + other.XY*m.Y0 + other.X0,
		Y0: other.YX*m.X0 + other.YY*m.Y0 + other.Y0,
	}
}

// TransformPoint maps a point through the matrix.
func (m Matrix) TransformPoint(x, y float64) (tx, ty float64) {
	return m.XX*x + m.XY*y + m.X0, m.YX*x + m.YY*y + m.Y0
}

// TransformDistance maps a vector through the matrix, ignoring translation.
func (m Matrix) TransformDistance(dx, dy float64) (tdx, tdy float64) {
	return m.XX*dx + m.XY*dy, m.YX*dx + m.YY*dy
}

// Invert returns the inverse transform. ok is false when the matrix is
// singular, in which case the identity is returned.
func (m Matrix) Invert() (inv Matrix, ok bool) {
	det := m.XX*m.YY - m.XY*m.YX
	if det == 0 || math.IsInf(det, 0) || math.IsNaN(det) {
		return Identity(), false
	}
	invDet := 1.0 / det
	return Matrix{
		XX: m.YY * invDet,
		XY: -m.XY * invDet,
		YX: -m.YX * invDet,
		YY: m.XX * invDet,
		X0: (m.XY*m.Y0 - m.YY*m.X0) * invDet,
		Y0: (m.YX*m.X0 - m.XX*m.Y0) * invDet,
	}, true
}

// AverageScale is the mean length of the transformed unit axes. Stroke
// widths are multiplied by it so lines thicken with the transform.
func (m Matrix) AverageScale() float64 {
	sx := math.Sqrt(m.XX*m.XX + m.XY*m.XY)
	sy := math.Sqrt(m.YX*m.YX + m.YY*m.YY)
	return (sx + sy) * 0.5
}

// IsIdentity reports whether m is exactly the identity.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}
