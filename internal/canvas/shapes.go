package canvas

import "math"

// kappa90 is the cubic control-point distance for a quarter circle of unit radius.
const kappa90 = 0.5522847493

// distTol is the distance below which two user-space points are the same.
const distTol = 0.01

// --- Path construction ---
//
// Coordinates are user space. They are transformed by the transform active
// at the time of the call and stored in device space.

// ClearPath discards the current path and starts an empty one.
func (c *VectorCanvas) ClearPath() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("clearPath"); !ok {
		return err
	}
	c.path.Reset()
	return nil
}

// MoveTo starts a new sub-path at (x, y).
func (c *VectorCanvas) MoveTo(x, y float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("moveTo"); !ok {
		return err
	}
	c.moveToUnlocked(x, y)
	return nil
}

// LineTo appends a straight line to (x, y).
func (c *VectorCanvas) LineTo(x, y float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("lineTo"); !ok {
		return err
	}
	c.lineToUnlocked(x, y)
	return nil
}

// CurveTo appends a quadratic Bézier curve with control point (cx, cy)
// ending at (x, y).
func (c *VectorCanvas) CurveTo(cx, cy, x, y float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("curveTo"); !ok {
		return err
	}
	c.path.QuadTo(c.device(cx, cy), c.device(x, y))
	return nil
}

// CubicCurveTo appends a cubic Bézier curve with control points (c1x, c1y)
// and (c2x, c2y) ending at (x, y).
func (c *VectorCanvas) CubicCurveTo(c1x, c1y, c2x, c2y, x, y float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("cubicCurveTo"); !ok {
		return err
	}
	c.cubicToUnlocked(c1x, c1y, c2x, c2y, x, y)
	return nil
}

// ClosePath closes the current sub-path with a line back to its start.
func (c *VectorCanvas) ClosePath() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("closePath"); !ok {
		return err
	}
	c.path.Close()
	return nil
}

// ArcTo appends an arc of the given radius tangent to the line from the
// current point to (x1, y1) and the line from (x1, y1) to (x2, y2). The
// current point is joined to the arc start with a line. Degenerate input
// (coincident or collinear points, a tiny radius) appends a line to
// (x1, y1) instead. Without a current point ArcTo does nothing.
func (c *VectorCanvas) ArcTo(x1, y1, x2, y2, radius float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("arcTo"); !ok {
		return err
	}

	cur, ok := c.path.CurrentPoint()
	if !ok {
		return nil
	}
	inv, ok := c.xform.Invert()
	if !ok {
		c.lineToUnlocked(x1, y1)
		return nil
	}
	x0, y0 := inv.TransformPoint(cur.X, cur.Y)

	if ptEquals(x0, y0, x1, y1, distTol) ||
		ptEquals(x1, y1, x2, y2, distTol) ||
		distPtSeg(x1, y1, x0, y0, x2, y2) < distTol*distTol ||
		radius < distTol {
		c.lineToUnlocked(x1, y1)
		return nil
	}

	dx0, dy0 := normalize(x0-x1, y0-y1)
	dx1, dy1 := normalize(x2-x1, y2-y1)
	a := math.Acos(clampUnit(dx0*dx1 + dy0*dy1))
	d := radius / math.Tan(a/2)
	if d > 10000 {
		c.lineToUnlocked(x1, y1)
		return nil
	}

	var cx, cy, a0, a1 float64
	var dir Winding
	if cross(dx0, dy0, dx1, dy1) > 0 {
		cx = x1 + dx0*d + dy0*radius
		cy = y1 + dy0*d - dx0*radius
		a0 = math.Atan2(dx0, -dy0)
		a1 = math.Atan2(-dx1, dy1)
		dir = Clockwise
	} else {
		cx = x1 + dx0*d - dy0*radius
		cy = y1 + dy0*d + dx0*radius
		a0 = math.Atan2(-dx0, dy0)
		a1 = math.Atan2(dx1, -dy1)
		dir = CounterClockwise
	}
	c.arcUnlocked(cx, cy, radius, a0, a1, dir, true)
	return nil
}

// --- Shape primitives ---
//
// Each primitive appends its own sub-path; calling one after other path
// commands adds to the path rather than replacing it.

// Rect appends a closed rectangle sub-path.
func (c *VectorCanvas) Rect(x, y, w, h float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("rect"); !ok {
		return err
	}
	c.rectUnlocked(x, y, w, h)
	return nil
}

func (c *VectorCanvas) rectUnlocked(x, y, w, h float64) {
	c.moveToUnlocked(x, y)
	c.lineToUnlocked(x, y+h)
	c.lineToUnlocked(x+w, y+h)
	c.lineToUnlocked(x+w, y)
	c.path.Close()
}

// RoundRect appends a closed rectangle with rounded corners. The radius is
// clamped to half the shorter side; a radius below 0.1 yields a plain
// rectangle.
func (c *VectorCanvas) RoundRect(x, y, w, h, r float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("roundRect"); !ok {
		return err
	}
	if r < 0.1 {
		c.rectUnlocked(x, y, w, h)
		return nil
	}

	rx := math.Min(r, math.Abs(w)*0.5) * sign(w)
	ry := math.Min(r, math.Abs(h)*0.5) * sign(h)
	k := 1 - kappa90

	c.moveToUnlocked(x, y+ry)
	c.lineToUnlocked(x, y+h-ry)
	c.cubicToUnlocked(x, y+h-ry*k, x+rx*k, y+h, x+rx, y+h)
	c.lineToUnlocked(x+w-rx, y+h)
	c.cubicToUnlocked(x+w-rx*k, y+h, x+w, y+h-ry*k, x+w, y+h-ry)
	c.lineToUnlocked(x+w, y+ry)
	c.cubicToUnlocked(x+w, y+ry*k, x+w-rx*k, y, x+w-rx, y)
	c.lineToUnlocked(x+rx, y)
	c.cubicToUnlocked(x+rx*k, y, x, y+ry*k, x, y+ry)
	c.path.Close()
	return nil
}

// Ellipse appends a closed ellipse centred on (cx, cy) with radii rx and ry.
func (c *VectorCanvas) Ellipse(cx, cy, rx, ry float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("ellipse"); !ok {
		return err
	}
	c.ellipseUnlocked(cx, cy, rx, ry)
	return nil
}

// Circle appends a closed circle centred on (cx, cy).
func (c *VectorCanvas) Circle(cx, cy, r float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("circle"); !ok {
		return err
	}
	c.ellipseUnlocked(cx, cy, r, r)
	return nil
}

func (c *VectorCanvas) ellipseUnlocked(cx, cy, rx, ry float64) {
	c.moveToUnlocked(cx-rx, cy)
	c.cubicToUnlocked(cx-rx, cy+ry*kappa90, cx-rx*kappa90, cy+ry, cx, cy+ry)
	c.cubicToUnlocked(cx+rx*kappa90, cy+ry, cx+rx, cy+ry*kappa90, cx+rx, cy)
	c.cubicToUnlocked(cx+rx, cy-ry*kappa90, cx+rx*kappa90, cy-ry, cx, cy-ry)
	c.cubicToUnlocked(cx-rx*kappa90, cy-ry, cx-rx, cy-ry*kappa90, cx-rx, cy)
	c.path.Close()
}

// Arc appends a circular arc centred on (cx, cy) from angle a0 to a1
// (radians). dir selects the sweep: Clockwise sweeps towards increasing
// angles, CounterClockwise towards decreasing ones. The arc starts a new
// sub-path and is left open.
func (c *VectorCanvas) Arc(cx, cy, r, a0, a1 float64, dir Winding) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.inFrame("arc"); !ok {
		return err
	}
	c.arcUnlocked(cx, cy, r, a0, a1, dir, false)
	return nil
}

// arcUnlocked emits the arc as at most five cubic segments of up to 90
// degrees. join connects the current point to the arc start with a line
// instead of starting a new sub-path.
func (c *VectorCanvas) arcUnlocked(cx, cy, r, a0, a1 float64, dir Winding, join bool) {
	da := ArcSweep(a0, a1, dir)
	if da == 0 {
		x, y := cx+math.Cos(a0)*r, cy+math.Sin(a0)*r
		if join {
			c.lineToUnlocked(x, y)
		} else {
			c.moveToUnlocked(x, y)
		}
		return
	}

	ndivs := int(math.Abs(da)/(math.Pi*0.5) + 0.5)
	ndivs = max(1, min(ndivs, 5))
	hda := (da / float64(ndivs)) / 2
	kappa := math.Abs(4.0 / 3.0 * (1 - math.Cos(hda)) / math.Sin(hda))
	if dir == CounterClockwise {
		kappa = -kappa
	}

	var px, py, ptanx, ptany float64
	for i := 0; i <= ndivs; i++ {
		a := a0 + da*(float64(i)/float64(ndivs))
		dx := math.Cos(a)
		dy := math.Sin(a)
		x := cx + dx*r
		y := cy + dy*r
		tanx := -dy * r * kappa
		tany := dx * r * kappa

		if i == 0 {
			if join {
				c.lineToUnlocked(x, y)
			} else {
				c.moveToUnlocked(x, y)
			}
		} else {
			c.cubicToUnlocked(px+ptanx, py+ptany, x-tanx, y-tany, x, y)
		}
		px, py, ptanx, ptany = x, y, tanx, tany
	}
}

// ArcSweep returns the signed sweep angle Arc uses for the given angles and
// direction: in (0, 2π] for Clockwise and [-2π, 0) for CounterClockwise.
// Equal angles give a zero sweep.
func ArcSweep(a0, a1 float64, dir Winding) float64 {
	da := a1 - a0
	if dir == Clockwise {
		if math.Abs(da) >= 2*math.Pi {
			return 2 * math.Pi
		}
		for da < 0 {
			da += 2 * math.Pi
		}
		return da
	}
	if math.Abs(da) >= 2*math.Pi {
		return -2 * math.Pi
	}
	for da > 0 {
		da -= 2 * math.Pi
	}
	return da
}

// --- Unlocked emitters ---

func (c *VectorCanvas) device(x, y float64) Point {
	tx, ty := c.xform.TransformPoint(x, y)
	return Point{X: tx, Y: ty}
}

func (c *VectorCanvas) moveToUnlocked(x, y float64) {
	c.path.MoveTo(c.device(x, y))
}

func (c *VectorCanvas) lineToUnlocked(x, y float64) {
	c.path.LineTo(c.device(x, y))
}

func (c *VectorCanvas) cubicToUnlocked(c1x, c1y, c2x, c2y, x, y float64) {
	c.path.CubicTo(c.device(c1x, c1y), c.device(c2x, c2y), c.device(x, y))
}

// --- Geometry helpers ---

func ptEquals(x1, y1, x2, y2, tol float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx+dy*dy < tol*tol
}

// distPtSeg returns the squared distance from (x, y) to segment p-q.
func distPtSeg(x, y, px, py, qx, qy float64) float64 {
	pqx := qx - px
	pqy := qy - py
	dx := x - px
	dy := y - py
	d := pqx*pqx + pqy*pqy
	t := pqx*dx + pqy*dy
	if d > 0 {
		t /= d
	}
	t = math.Max(0, math.Min(1, t))
	dx = px + t*pqx - x
	dy = py + t*pqy - y
	return dx*dx + dy*dy
}

func normalize(x, y float64) (float64, float64) {
	d := math.Hypot(x, y)
	if d > 1e-6 {
		return x / d, y / d
	}
	return x, y
}

func cross(dx0, dy0, dx1, dy1 float64) float64 {
	return dx1*dy0 - dx0*dy1
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func sign(v float64) float64 {
	if v >= 0 {
		return 1
	}
	return -1
}
