package recorder

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"

	"github.com/opd-ai/go-vgcanvas/internal/canvas"
)

// flattenTolerance is the chord error, in pixels, of curves fed to Mask.
const flattenTolerance = 0.05

// Mask rasterizes the filled interior of p into a w×h alpha mask.
// Geometry outside the mask is clipped. Curves are flattened first so the
// measured area tracks the true curve closely.
func Mask(p *canvas.Path, w, h int) *image.Alpha {
	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 || p == nil || p.IsEmpty() {
		return dst
	}

	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src
	for _, poly := range canvas.Flatten(p, flattenTolerance) {
		if len(poly) < 3 || poly.SignedArea() == 0 {
			continue
		}
		r.MoveTo(f32(poly[0]))
		for _, pt := range poly[1:] {
			r.LineTo(f32(pt))
		}
		r.ClosePath()
	}
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst
}

// Coverage returns the filled area of p in square pixels, measured on a
// w×h raster.
func Coverage(p *canvas.Path, w, h int) float64 {
	m := Mask(p, w, h)
	var sum int
	for _, a := range m.Pix {
		sum += int(a)
	}
	return float64(sum) / 255
}

func f32(pt canvas.Point) (float32, float32) {
	return float32(pt.X), float32(pt.Y)
}
